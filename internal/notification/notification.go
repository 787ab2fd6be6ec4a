package notification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/warrantyhub/internal/clock"
	"github.com/smallbiznis/warrantyhub/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const topicPrefix = "warranty_claim."

var ErrInvalidEvent = errors.New("invalid_event")

// Event describes a committed claim transition.
type Event struct {
	Action      string        `json:"action"`
	ClaimID     snowflake.ID  `json:"claim_id"`
	ClaimNumber string        `json:"claim_number"`
	DealerID    snowflake.ID  `json:"dealer_id"`
	FromStatus  string        `json:"from_status,omitempty"`
	ToStatus    string        `json:"to_status"`
	ActorID     snowflake.ID  `json:"actor_id"`
	AssigneeID  *snowflake.ID `json:"assignee_id,omitempty"`
	OccurredAt  time.Time     `json:"occurred_at"`

	Correlation correlation.Metadata `json:"correlation"`
}

// Topic is the event type stored with the outbox row.
func (e Event) Topic() string {
	return topicPrefix + e.Action
}

// Notifier dispatches claim events after the claim transaction commits.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// OutboxEvent is a row of the claim_events table.
type OutboxEvent struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	ClaimID     snowflake.ID   `json:"claim_id"`
	DealerID    snowflake.ID   `json:"dealer_id"`
	EventType   string         `json:"event_type"`
	Payload     datatypes.JSON `json:"payload"`
	CreatedAt   time.Time      `json:"created_at"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
}

func (OutboxEvent) TableName() string { return "claim_events" }

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Outbox struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewOutbox(p Params) *Outbox {
	return &Outbox{
		db:    p.DB,
		log:   p.Log.Named("notification.outbox"),
		clock: p.Clock,
	}
}

func (o *Outbox) Notify(ctx context.Context, event Event) error {
	if strings.TrimSpace(event.Action) == "" || event.ClaimID == 0 {
		return ErrInvalidEvent
	}

	now := o.clock.Now().UTC()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = now
	}
	if event.Correlation.CorrelationID == "" {
		event.Correlation = correlation.FromContext(ctx)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return o.db.WithContext(ctx).Exec(
		`INSERT INTO claim_events (id, claim_id, dealer_id, event_type, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ulid.Make().String(),
		event.ClaimID,
		event.DealerID,
		event.Topic(),
		datatypes.JSON(payload),
		now,
	).Error
}

// Pending returns unpublished events oldest first.
func (o *Outbox) Pending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []OutboxEvent
	err := o.db.WithContext(ctx).Raw(
		`SELECT id, claim_id, dealer_id, event_type, payload, created_at, published_at
		 FROM claim_events WHERE published_at IS NULL ORDER BY id ASC LIMIT ?`,
		limit,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (o *Outbox) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return o.db.WithContext(ctx).Exec(
		`UPDATE claim_events SET published_at = ? WHERE id IN ? AND published_at IS NULL`,
		o.clock.Now().UTC(),
		ids,
	).Error
}
