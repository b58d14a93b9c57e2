package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/ismaiel54/zigzag-trading-bridge/internal/zigzag"
	"go.uber.org/zap"
)

// FrameProducer produces encoded envelope frames. *msg.Producer satisfies it.
type FrameProducer interface {
	ProduceFrame(ctx context.Context, topic, key string, frame []byte) error
}

// Publisher publishes outbox events to Kafka
type Publisher struct {
	store     *Store
	producer  FrameProducer
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

// NewPublisher creates a new outbox publisher
func NewPublisher(store *Store, producer FrameProducer, logger *zap.Logger) *Publisher {
	return &Publisher{
		store:     store,
		producer:  producer,
		logger:    logger,
		interval:  250 * time.Millisecond,
		batchSize: 100,
	}
}

// Run publishes outbox batches until ctx is done
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.PublishPending(ctx); err != nil {
				p.logger.Error("failed to publish batch", zap.Error(err))
			}
		}
	}
}

// PublishPending publishes one batch of unpublished events in outbox order
// and returns how many were marked published. An event that fails to
// produce stays in the outbox for the next batch.
func (p *Publisher) PublishPending(ctx context.Context) (int, error) {
	events, err := p.store.ListUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list unpublished events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	now := time.Now().UnixMilli()
	published := 0

	for _, event := range events {
		frame := []byte(event.PayloadJSON)
		if _, err := zigzag.Decode(frame); err != nil {
			p.logger.Error("outbox event is not a valid frame",
				zap.String("event_id", event.EventID),
				zap.String("subject", event.Subject),
				zap.Error(err),
			)
			continue
		}

		if err := p.producer.ProduceFrame(ctx, event.Topic, event.Key, frame); err != nil {
			p.logger.Error("failed to produce event",
				zap.String("event_id", event.EventID),
				zap.String("subject", event.Subject),
				zap.Error(err),
			)
			// later events for the same subject must not overtake this one
			break
		}

		if err := p.store.MarkPublished(ctx, event.EventID, now); err != nil {
			p.logger.Error("failed to mark event as published",
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
			continue
		}

		published++
		p.logger.Debug("published outbox event",
			zap.String("event_id", event.EventID),
			zap.String("subject", event.Subject),
			zap.String("topic", event.Topic),
		)
	}

	if published > 0 {
		p.logger.Info("published outbox batch",
			zap.Int("published", published),
			zap.Int("total", len(events)),
		)
	}

	return published, nil
}
