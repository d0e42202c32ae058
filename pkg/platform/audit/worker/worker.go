// Package worker relays audit outbox rows to the message bus.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "trialconsent/pkg/platform/audit"
)

// Producer publishes one record to a topic.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

const (
	defaultBatchSize    = 100
	defaultPollInterval = 2 * time.Second
)

// Relay polls the outbox and publishes pending entries in order. Entries are
// marked published only after the producer acknowledges them, so delivery is
// at-least-once.
type Relay struct {
	outbox   audit.Outbox
	producer Producer
	topic    string
	logger   *slog.Logger

	batchSize int
	interval  time.Duration
	now       func() time.Time
}

// Option configures a Relay.
type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRelay(outbox audit.Outbox, producer Producer, topic string, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		producer:  producer,
		topic:     topic,
		logger:    logger,
		batchSize: defaultBatchSize,
		interval:  defaultPollInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "audit outbox relay failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were published.
// It stops at the first producer failure so ordering per key is preserved.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.outbox.Pending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	published := make([]uuid.UUID, 0, len(entries))
	var produceErr error
	for _, e := range entries {
		if err := r.producer.Produce(ctx, r.topic, []byte(e.Key), e.Payload); err != nil {
			produceErr = err
			break
		}
		published = append(published, e.ID)
	}
	if err := r.outbox.MarkPublished(ctx, published, r.now()); err != nil {
		return 0, err
	}
	return len(published), produceErr
}
