package geofence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"landverify/internal/verification/models"
	dErrors "landverify/pkg/domain-errors"
)

// DefaultRadiusKm is the accepted distance from the place center.
const DefaultRadiusKm = 2.0

// Geocoder resolves a free-text place query. A query with no match returns
// nil and no error.
type Geocoder interface {
	Search(ctx context.Context, query string) (*Place, error)
}

// Service runs resolution and location checks against a session.
type Service struct {
	geocoder    Geocoder
	radiusKm    float64
	region      string
	regionShort string
	logger      *slog.Logger
}

type Option func(*Service)

func WithRadiusKm(km float64) Option {
	return func(s *Service) {
		if km > 0 {
			s.radiusKm = km
		}
	}
}

// WithRegion scopes queries, e.g. "Tamil Nadu, India" and "Tamil Nadu".
func WithRegion(full, short string) Option {
	return func(s *Service) {
		s.region = full
		s.regionShort = short
	}
}

func NewService(geocoder Geocoder, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		geocoder:    geocoder,
		radiusKm:    DefaultRadiusKm,
		region:      "Tamil Nadu, India",
		regionShort: "Tamil Nadu",
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RadiusKm returns the configured acceptance radius.
func (s *Service) RadiusKm() float64 { return s.radiusKm }

// Resolve looks up the session's target, first scoped by taluk and district
// and then by district only. No match leaves the session in
// RESOLUTION_FAILED, waiting for a village override. A geocoder failure
// leaves the session as it was.
func (s *Service) Resolve(ctx context.Context, sess *Session, override string) error {
	prev := sess.State
	if err := sess.apply(evResolve); err != nil {
		return err
	}
	if o := strings.TrimSpace(override); o != "" {
		sess.Override = o
	}

	queries := Queries(sess.Target, sess.Override, s.region, s.regionShort)
	sess.Queries = queries
	if len(queries) == 0 {
		sess.Place = nil
		return sess.apply(evResolveFailed)
	}

	for _, q := range queries {
		place, err := s.geocoder.Search(ctx, q)
		if err != nil {
			sess.State = prev
			s.logger.WarnContext(ctx, "geofence.resolve.lookup_failed", "query", q, "error", err)
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "location lookup is unavailable, please try again")
		}
		if place != nil {
			place.Query = q
			sess.Place = place
			sess.LastCheck = nil
			s.logger.InfoContext(ctx, "geofence.resolve.ok",
				"query", q,
				"has_boundary", place.Boundary != nil,
			)
			return sess.apply(evResolved)
		}
	}

	sess.Place = nil
	s.logger.InfoContext(ctx, "geofence.resolve.no_match", "queries", queries)
	return sess.apply(evResolveFailed)
}

// Check evaluates an observed device location against the resolved place.
// Checks may be repeated without limit.
func (s *Service) Check(ctx context.Context, sess *Session, observed Point, now time.Time) (Result, error) {
	if !observed.Valid() {
		return Result{}, dErrors.New(dErrors.CodeValidation, "latitude must be within ±90 and longitude within ±180")
	}
	if err := sess.apply(evCheck); err != nil {
		return Result{}, err
	}

	r := Evaluate(*sess.Place, observed, s.radiusKm, s.placeLabel(sess))
	r.CheckedAt = now
	sess.Checks++
	sess.LastCheck = &r

	ev := evOutOfRange
	if r.Verified {
		ev = evInRange
	}
	if err := sess.apply(ev); err != nil {
		return Result{}, err
	}
	return r, nil
}

func (s *Service) placeLabel(sess *Session) string {
	if sess.Override != "" {
		return sess.Override
	}
	if v := sess.Target.Village(); v != "" {
		return v
	}
	return sess.Place.Name
}

// Evaluate applies the acceptance rule: inside the boundary, or within
// radiusKm of the center.
func Evaluate(place Place, observed Point, radiusKm float64, label string) Result {
	d := DistanceKm(place.Center, observed)
	inside := place.Contains(observed)
	r := Result{
		Verified:   inside || d <= radiusKm,
		Inside:     inside,
		DistanceKm: d,
		Observed:   observed,
	}
	if r.Verified {
		r.Message = fmt.Sprintf("Location Verified (%.1fkm from center)", d)
	} else {
		r.Message = fmt.Sprintf("Too far from site. You are %.1fkm away from %s", d, label)
	}
	return r
}

// Queries builds the specific and broad lookups for a target.
func Queries(target models.GeoTarget, override, region, regionShort string) []string {
	village := strings.TrimSpace(override)
	if village == "" {
		village = target.Village()
	}
	if village == "" && strings.TrimSpace(target.DistrictName) == "" {
		return nil
	}

	specific := joinNonEmpty(village, target.TalukName, target.DistrictName, region)
	broad := joinNonEmpty(village, target.DistrictName, regionShort)
	if specific == broad {
		return []string{specific}
	}
	return []string{specific, broad}
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
