package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 3
	testWindow = time.Hour
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	now   time.Time
	ctx   context.Context
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.store = NewInMemoryBucketStore(WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "rl:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
	})

	s.Run("request over limit denied with retry after", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "rl:over", testLimit, testWindow)
			s.Require().NoError(err)
		}
		s.now = s.now.Add(10 * time.Minute)

		result, err := s.store.Allow(s.ctx, "rl:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(50*60, result.RetryAfter)
	})

	s.Run("keys are independent", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "rl:a", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "rl:b", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryBucketStoreSuite) TestWindowSlides() {
	_, err := s.store.Allow(s.ctx, "rl:slide", testLimit, testWindow)
	s.Require().NoError(err)
	s.now = s.now.Add(30 * time.Minute)
	for range testLimit - 1 {
		_, err = s.store.Allow(s.ctx, "rl:slide", testLimit, testWindow)
		s.Require().NoError(err)
	}

	s.now = s.now.Add(31 * time.Minute)
	result, err := s.store.Allow(s.ctx, "rl:slide", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed, "the first request has left the window")
	s.Equal(0, result.Remaining)
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "rl:reset", testLimit, testWindow)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.Reset(s.ctx, "rl:reset"))

	result, err := s.store.Allow(s.ctx, "rl:reset", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}
