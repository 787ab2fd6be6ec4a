package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/warrantyhub/pkg/db/pagination"
)

type ClaimItemInput struct {
	PartNumber       string          `json:"part_number"`
	PartName         string          `json:"part_name"`
	Quantity         int             `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	IssueType        string          `json:"issue_type"`
	IssueDescription string          `json:"issue_description"`
}

type CreateClaimRequest struct {
	ClaimType string `json:"claim_type"`
	Priority  string `json:"priority"`

	ProductID    *string `json:"product_id"`
	ProductName  string  `json:"product_name"`
	SerialNumber string  `json:"serial_number"`
	ModelNumber  string  `json:"model_number"`
	RVUnitID     *string `json:"rv_unit_id"`
	VIN          string  `json:"vin"`

	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	CustomerAddress string `json:"customer_address"`

	IssueDescription string     `json:"issue_description"`
	FailureDate      *time.Time `json:"failure_date"`
	IsUnderWarranty  bool       `json:"is_under_warranty"`

	LaborHours     decimal.Decimal `json:"labor_hours"`
	LaborRate      decimal.Decimal `json:"labor_rate"`
	PartsAmount    decimal.Decimal `json:"parts_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`

	Items []ClaimItemInput `json:"items"`

	// Submit creates the claim directly in submitted status.
	Submit bool `json:"submit"`
}

// UpdateClaimRequest patches a claim; nil fields are left unchanged.
// A non-nil Items replaces the whole item set.
type UpdateClaimRequest struct {
	ClaimID string `json:"-"`

	ClaimType *string `json:"claim_type"`
	Priority  *string `json:"priority"`

	ProductID    *string `json:"product_id"`
	ProductName  *string `json:"product_name"`
	SerialNumber *string `json:"serial_number"`
	ModelNumber  *string `json:"model_number"`
	RVUnitID     *string `json:"rv_unit_id"`
	VIN          *string `json:"vin"`

	CustomerName    *string `json:"customer_name"`
	CustomerPhone   *string `json:"customer_phone"`
	CustomerEmail   *string `json:"customer_email"`
	CustomerAddress *string `json:"customer_address"`

	IssueDescription *string    `json:"issue_description"`
	FailureDate      *time.Time `json:"failure_date"`
	IsUnderWarranty  *bool      `json:"is_under_warranty"`

	LaborHours     *decimal.Decimal `json:"labor_hours"`
	LaborRate      *decimal.Decimal `json:"labor_rate"`
	PartsAmount    *decimal.Decimal `json:"parts_amount"`
	ShippingAmount *decimal.Decimal `json:"shipping_amount"`

	Items *[]ClaimItemInput `json:"items"`

	Note string `json:"note"`
}

type ItemDecisionInput struct {
	ItemID         string           `json:"item_id"`
	Approved       bool             `json:"approved"`
	ApprovedQty    *int             `json:"approved_qty"`
	ApprovedAmount *decimal.Decimal `json:"approved_amount"`
	DenialReason   string           `json:"denial_reason"`
}

type ReviewClaimRequest struct {
	ClaimID         string              `json:"-"`
	Action          string              `json:"action"`
	Note            string              `json:"note"`
	TotalApproved   *decimal.Decimal    `json:"total_approved"`
	ResolutionType  string              `json:"resolution_type"`
	ResolutionNotes string              `json:"resolution_notes"`
	ItemDecisions   []ItemDecisionInput `json:"item_decisions"`
}

type RespondRequest struct {
	ClaimID  string `json:"-"`
	Response string `json:"response"`
	Resubmit bool   `json:"resubmit"`
}

type AddNoteRequest struct {
	ClaimID    string `json:"-"`
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}

type AssignClaimRequest struct {
	ClaimID    string `json:"-"`
	AssigneeID string `json:"assignee_id"`
	Note       string `json:"note"`
}

type CloseClaimRequest struct {
	ClaimID string `json:"-"`
	Note    string `json:"note"`
}

type ListClaimsRequest struct {
	Search       string
	Status       string
	ClaimType    string
	Priority     string
	DealerID     string
	AssignedToID string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	SortBy       string
	SortOrder    string
	Page         int
	PageSize     int
}

type ListClaimsResponse struct {
	Claims     []Claim             `json:"claims"`
	Pagination pagination.PageInfo `json:"pagination"`
}

type ClaimResult struct {
	ClaimID     snowflake.ID `json:"claim_id"`
	ClaimNumber string       `json:"claim_number"`
	Status      ClaimStatus  `json:"status"`
}

type NoteResult struct {
	NoteID snowflake.ID `json:"note_id"`
}

// ClaimDetail is a claim with its relations, already filtered for the caller.
type ClaimDetail struct {
	Claim
	Items   []ClaimItem     `json:"items"`
	Notes   []Note          `json:"notes"`
	History []StatusHistory `json:"history"`
}

type Service interface {
	CreateClaim(ctx context.Context, actor Actor, req CreateClaimRequest) (ClaimResult, error)
	UpdateClaim(ctx context.Context, actor Actor, req UpdateClaimRequest) (ClaimResult, error)
	SubmitClaim(ctx context.Context, actor Actor, claimID string) (ClaimResult, error)
	ReviewClaim(ctx context.Context, actor Actor, req ReviewClaimRequest) (ClaimResult, error)
	RespondToInfoRequest(ctx context.Context, actor Actor, req RespondRequest) (ClaimResult, error)
	AssignClaim(ctx context.Context, actor Actor, req AssignClaimRequest) (ClaimResult, error)
	CloseClaim(ctx context.Context, actor Actor, req CloseClaimRequest) (ClaimResult, error)
	DeleteClaim(ctx context.Context, actor Actor, claimID string) error

	AddNote(ctx context.Context, actor Actor, req AddNoteRequest) (NoteResult, error)
	ListNotes(ctx context.Context, actor Actor, claimID string) ([]Note, error)
	ListHistory(ctx context.Context, actor Actor, claimID string) ([]StatusHistory, error)

	GetClaimByID(ctx context.Context, actor Actor, claimID string) (ClaimDetail, error)
	ListClaims(ctx context.Context, actor Actor, req ListClaimsRequest) (ListClaimsResponse, error)
	GetStats(ctx context.Context, actor Actor) (ClaimStats, error)
}
