package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "landverify/pkg/platform/audit"
)

// Outbox is the relay's view of the audit store.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]audit.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Producer publishes records synchronously. *kgo.Client satisfies it.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Relay moves outbox entries to the audit topic. Delivery is at-least-once:
// entries are marked only after the broker acknowledged them.
type Relay struct {
	outbox   Outbox
	producer Producer
	topic    string
	batch    int
	interval time.Duration
	logger   *slog.Logger
}

func NewRelay(outbox Outbox, producer Producer, topic string, batch int, interval time.Duration, logger *slog.Logger) *Relay {
	if batch <= 0 {
		batch = 100
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{
		outbox:   outbox,
		producer: producer,
		topic:    topic,
		batch:    batch,
		interval: interval,
		logger:   logger,
	}
}

// Run relays until ctx is cancelled. Per-tick failures are logged and retried
// on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := r.RelayOnce(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				r.logger.WarnContext(ctx, "audit.relay.failed", "error", err)
				continue
			}
			if n > 0 {
				r.logger.DebugContext(ctx, "audit.relay.published", "count", n)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were delivered.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.outbox.FetchUnpublished(ctx, r.batch)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	records := make([]*kgo.Record, len(entries))
	byRecord := make(map[*kgo.Record]uuid.UUID, len(entries))
	for i, e := range entries {
		records[i] = &kgo.Record{
			Topic: r.topic,
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(e.EventType)},
				{Key: "event_id", Value: []byte(e.ID.String())},
			},
		}
		byRecord[records[i]] = e.ID
	}

	// Results arrive in completion order, not input order.
	results := r.producer.ProduceSync(ctx, records...)
	delivered := make([]uuid.UUID, 0, len(entries))
	var firstErr error
	for _, res := range results {
		if res.Err != nil {
			if firstErr == nil {
				firstErr = res.Err
			}
			continue
		}
		delivered = append(delivered, byRecord[res.Record])
	}

	if err := r.outbox.MarkPublished(ctx, delivered); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}
	if firstErr != nil {
		return len(delivered), fmt.Errorf("produce: %w", firstErr)
	}
	return len(delivered), nil
}
