package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/warrantyhub/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	NextSequence(ctx context.Context, db *gorm.DB, year int) (int, error)
	Insert(ctx context.Context, db *gorm.DB, claim *Claim) error
	Update(ctx context.Context, db *gorm.DB, claim *Claim) error
	SoftDelete(ctx context.Context, db *gorm.DB, id snowflake.ID, deletedAt time.Time) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Claim, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Claim, error)
	List(ctx context.Context, db *gorm.DB, filter ListClaimFilter, page pagination.Pagination) ([]Claim, int64, error)
	Stats(ctx context.Context, db *gorm.DB, dealerID *snowflake.ID) (ClaimStats, error)

	// ReplaceItems deletes every item of the claim and inserts items in their
	// place. Item IDs and review fields of the old set are lost.
	ReplaceItems(ctx context.Context, db *gorm.DB, claimID snowflake.ID, items []ClaimItem) error
	ListItems(ctx context.Context, db *gorm.DB, claimID snowflake.ID) ([]ClaimItem, error)
	UpdateItemReview(ctx context.Context, db *gorm.DB, item *ClaimItem) error

	InsertHistory(ctx context.Context, db *gorm.DB, entry *StatusHistory) error
	ListHistory(ctx context.Context, db *gorm.DB, claimID snowflake.ID) ([]StatusHistory, error)

	InsertNote(ctx context.Context, db *gorm.DB, note *Note) error
	ListNotes(ctx context.Context, db *gorm.DB, claimID snowflake.ID) ([]Note, error)
}

// ClaimSortFields maps accepted sort keys onto claim columns.
var ClaimSortFields = map[string]string{
	"created_at":      "created_at",
	"updated_at":      "updated_at",
	"submitted_at":    "submitted_at",
	"claim_number":    "claim_number",
	"priority":        "priority",
	"status":          "status",
	"total_requested": "total_requested",
}

const DefaultClaimSortField = "created_at"

// ListClaimFilter is a resolved list query; DealerID already reflects the access scope.
type ListClaimFilter struct {
	Search       string
	Status       *ClaimStatus
	ClaimType    *ClaimType
	Priority     *Priority
	DealerID     *snowflake.ID
	AssignedToID *snowflake.ID
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	SortBy       string
	SortDesc     bool
}

type ClaimStats struct {
	Total          int64           `json:"total"`
	Pending        int64           `json:"pending"`
	InReview       int64           `json:"in_review"`
	Approved       int64           `json:"approved"`
	Denied         int64           `json:"denied"`
	TotalRequested decimal.Decimal `json:"total_requested"`
	TotalApproved  decimal.Decimal `json:"total_approved"`
}
