// Package ops provides a best-effort, non-blocking tracker for routine stage events.
//
// Track never blocks and never fails the caller. Events are sampled, buffered
// and flushed by a background goroutine; when the store keeps failing a circuit
// breaker sheds events until the cooldown elapses.
package ops

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	audit "landverify/pkg/platform/audit"
	"landverify/pkg/platform/circuit"
)

const (
	defaultBufferSize    = 1024
	defaultFlushInterval = 500 * time.Millisecond
	defaultBatchSize     = 64
)

// Tracker emits ops events asynchronously.
type Tracker struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	breaker *circuit.Breaker
	buffer  *ringBuffer

	sampleRate    float64
	rateByAction  map[string]float64
	flushInterval time.Duration
	batchSize     int
	now           func() time.Time

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures the Tracker.
type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(t *Tracker) { t.breaker = b }
}

func WithBufferSize(n int) Option {
	return func(t *Tracker) { t.buffer = newRingBuffer(n) }
}

func WithFlushInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.flushInterval = d
		}
	}
}

// WithSampleRate sets the default keep probability, clamped to [0,1].
func WithSampleRate(rate float64) Option {
	return func(t *Tracker) { t.sampleRate = clampRate(rate) }
}

// WithActionRate overrides the keep probability for one action.
func WithActionRate(action string, rate float64) Option {
	return func(t *Tracker) { t.rateByAction[action] = clampRate(rate) }
}

// New starts a tracker. Close must be called to flush and stop it.
func New(store audit.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:         store,
		logger:        slog.Default(),
		buffer:        newRingBuffer(defaultBufferSize),
		sampleRate:    1,
		rateByAction:  make(map[string]float64),
		flushInterval: defaultFlushInterval,
		batchSize:     defaultBatchSize,
		now:           time.Now,
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.breaker == nil {
		t.breaker = circuit.New("audit-ops", circuit.WithFailureThreshold(5), circuit.WithCooldown(time.Minute))
	}

	t.wg.Add(1)
	go t.loop()
	return t
}

// Track enqueues an event. It never blocks.
func (t *Tracker) Track(event audit.Event) {
	if !t.keep(event.Action) {
		t.metrics.incSampled()
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = t.now()
	}
	event.Category = audit.CategoryOperations
	if t.buffer.enqueue(event) {
		t.metrics.incOverflowed()
	}
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Pending reports how many events await flushing.
func (t *Tracker) Pending() int { return t.buffer.len() }

// Close flushes buffered events and stops the background goroutine.
func (t *Tracker) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.wg.Wait()
	})
	return nil
}

func (t *Tracker) loop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			t.flush(context.Background())
			return
		case <-ticker.C:
			t.flush(context.Background())
		case <-t.wake:
			if t.buffer.len() >= t.batchSize {
				t.flush(context.Background())
			}
		}
	}
}

func (t *Tracker) flush(ctx context.Context) {
	for {
		batch := t.buffer.dequeueBatch(t.batchSize)
		if len(batch) == 0 {
			return
		}
		for _, event := range batch {
			t.persist(ctx, event)
		}
	}
}

func (t *Tracker) persist(ctx context.Context, event audit.Event) {
	if !t.breaker.Allow() {
		t.metrics.incCircuitBreakerDropped()
		return
	}
	if err := t.store.Append(ctx, event); err != nil {
		t.metrics.incPersistFailures()
		if _, change := t.breaker.RecordFailure(); change.Opened {
			t.metrics.setCircuitBreakerState(true)
			t.logger.Warn("ops audit circuit opened", "error", err)
		}
		return
	}
	if _, change := t.breaker.RecordSuccess(); change.Closed {
		t.metrics.setCircuitBreakerState(false)
		t.logger.Info("ops audit circuit closed")
	}
	t.metrics.incTracked()
}

func (t *Tracker) keep(action string) bool {
	rate, ok := t.rateByAction[action]
	if !ok {
		rate = t.sampleRate
	}
	if rate >= 1 {
		return true
	}
	return rand.Float64() < rate //nolint:gosec // sampling doesn't need crypto rand
}

func clampRate(rate float64) float64 {
	return min(max(rate, 0), 1)
}
