package scheduler

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/warrantyhub/internal/notification"
	"go.uber.org/zap"
)

// Publisher delivers one outbox event downstream.
type Publisher interface {
	Publish(ctx context.Context, event notification.OutboxEvent) error
}

// NewPublisher appends to a Redis stream when Redis is configured and
// falls back to structured logs otherwise.
func NewPublisher(client *redis.Client, cfg Config, log *zap.Logger) Publisher {
	if client == nil {
		return &LogPublisher{log: log.Named("scheduler.publisher")}
	}
	return &RedisStreamPublisher{client: client, stream: cfg.StreamKey}
}

type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, event notification.OutboxEvent) error {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"id":         event.ID,
			"event_type": event.EventType,
			"claim_id":   event.ClaimID.String(),
			"dealer_id":  event.DealerID.String(),
			"payload":    string(event.Payload),
		},
	}).Err()
}

type LogPublisher struct {
	log *zap.Logger
}

func (p *LogPublisher) Publish(_ context.Context, event notification.OutboxEvent) error {
	p.log.Info("claim event published",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.EventType),
		zap.String("claim_id", event.ClaimID.String()),
		zap.String("dealer_id", event.DealerID.String()),
	)
	return nil
}
