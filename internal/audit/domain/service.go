package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/warrantyhub/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	DealerID   string
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	AuditLogs  []AuditLog          `json:"audit_logs"`
	Pagination pagination.PageInfo `json:"pagination"`
}

type Service interface {
	// AuditLogTx writes the entry through tx so it commits or rolls back with
	// the surrounding mutation. A nil tx writes outside any transaction.
	AuditLogTx(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidDealer    = errors.New("invalid_dealer")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
