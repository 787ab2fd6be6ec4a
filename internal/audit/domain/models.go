package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

// AuditLog is an immutable record of a mutation performed through the API.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	DealerID   *snowflake.ID     `gorm:"index" json:"dealer_id,omitempty"`
	ActorType  string            `gorm:"not null" json:"actor_type"`
	ActorID    *string           `json:"actor_id,omitempty"`
	ActorRole  *string           `json:"actor_role,omitempty"`
	Action     string            `gorm:"not null" json:"action"`
	TargetType string            `gorm:"not null" json:"target_type"`
	TargetID   *string           `json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	IPAddress  *string           `json:"ip_address,omitempty"`
	UserAgent  *string           `json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Entry is the caller-supplied part of an audit record.
type Entry struct {
	DealerID   *snowflake.ID
	ActorType  ActorType
	ActorID    *string
	ActorRole  string
	Action     string
	TargetType string
	TargetID   *string
	Metadata   map[string]any
}

type ListFilter struct {
	DealerID   *snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	StartAt    *time.Time
	EndAt      *time.Time
}
