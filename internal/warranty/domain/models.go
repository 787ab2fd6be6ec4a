package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ClaimType string

const (
	ClaimTypeProductDefect     ClaimType = "product_defect"
	ClaimTypeShippingDamage    ClaimType = "shipping_damage"
	ClaimTypeMissingParts      ClaimType = "missing_parts"
	ClaimTypeInstallationIssue ClaimType = "installation_issue"
	ClaimTypeOther             ClaimType = "other"
)

func ParseClaimType(value string) (ClaimType, error) {
	switch ct := ClaimType(strings.ToLower(strings.TrimSpace(value))); ct {
	case ClaimTypeProductDefect, ClaimTypeShippingDamage, ClaimTypeMissingParts,
		ClaimTypeInstallationIssue, ClaimTypeOther:
		return ct, nil
	default:
		return "", ErrInvalidClaimType
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority defaults an empty value to normal.
func ParsePriority(value string) (Priority, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return PriorityNormal, nil
	}
	switch p := Priority(value); p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", ErrInvalidPriority
	}
}

type IssueType string

const (
	IssueTypeDefective IssueType = "defective"
	IssueTypeDamaged   IssueType = "damaged"
	IssueTypeMissing   IssueType = "missing"
	IssueTypeWorn      IssueType = "worn"
	IssueTypeOther     IssueType = "other"
)

// ParseIssueType defaults an empty value to defective.
func ParseIssueType(value string) (IssueType, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return IssueTypeDefective, nil
	}
	switch it := IssueType(value); it {
	case IssueTypeDefective, IssueTypeDamaged, IssueTypeMissing, IssueTypeWorn, IssueTypeOther:
		return it, nil
	default:
		return "", ErrInvalidIssueType
	}
}

type ResolutionType string

const (
	ResolutionReplacement   ResolutionType = "replacement"
	ResolutionRepair        ResolutionType = "repair"
	ResolutionCredit        ResolutionType = "credit"
	ResolutionPartialCredit ResolutionType = "partial_credit"
	ResolutionDenial        ResolutionType = "denial"
)

// ParseResolutionType returns nil for an empty value.
func ParseResolutionType(value string) (*ResolutionType, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil, nil
	}
	switch rt := ResolutionType(value); rt {
	case ResolutionReplacement, ResolutionRepair, ResolutionCredit, ResolutionPartialCredit, ResolutionDenial:
		return &rt, nil
	default:
		return nil, ErrInvalidResolutionType
	}
}

// Claim is the warranty claim aggregate root.
type Claim struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	ClaimNumber   string        `gorm:"not null;uniqueIndex" json:"claim_number"`
	ClaimYear     int           `gorm:"not null" json:"-"`
	ClaimSequence int           `gorm:"not null" json:"-"`
	DealerID      snowflake.ID  `gorm:"not null;index" json:"dealer_id"`
	SubmittedByID snowflake.ID  `gorm:"not null" json:"submitted_by_id"`
	AssignedToID  *snowflake.ID `json:"assigned_to_id,omitempty"`

	ClaimType ClaimType `gorm:"type:text;not null" json:"claim_type"`
	Priority  Priority  `gorm:"type:text;not null" json:"priority"`

	ProductID    *string `json:"product_id,omitempty"`
	ProductName  string  `json:"product_name"`
	SerialNumber string  `json:"serial_number"`
	ModelNumber  string  `json:"model_number"`
	RVUnitID     *string `gorm:"column:rv_unit_id" json:"rv_unit_id,omitempty"`
	VIN          string  `gorm:"column:vin" json:"vin"`

	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	CustomerAddress string `json:"customer_address"`

	IssueDescription string     `gorm:"not null" json:"issue_description"`
	FailureDate      *time.Time `json:"failure_date,omitempty"`
	IsUnderWarranty  bool       `json:"is_under_warranty"`

	LaborHours     decimal.Decimal     `gorm:"type:numeric(12,4)" json:"labor_hours"`
	LaborRate      decimal.Decimal     `gorm:"type:numeric(12,2)" json:"labor_rate"`
	LaborAmount    decimal.Decimal     `gorm:"type:numeric(12,2)" json:"labor_amount"`
	PartsAmount    decimal.Decimal     `gorm:"type:numeric(12,2)" json:"parts_amount"`
	ShippingAmount decimal.Decimal     `gorm:"type:numeric(12,2)" json:"shipping_amount"`
	TotalRequested decimal.Decimal     `gorm:"type:numeric(12,2)" json:"total_requested"`
	TotalApproved  decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"total_approved"`

	ResolutionType  *ResolutionType `gorm:"type:text" json:"resolution_type,omitempty"`
	ResolutionNotes string          `json:"resolution_notes"`

	Status      ClaimStatus `gorm:"type:text;not null" json:"status"`
	SubmittedAt *time.Time  `json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time  `json:"reviewed_at,omitempty"`
	ResolvedAt  *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	DeletedAt   *time.Time  `json:"-"`
}

func (Claim) TableName() string { return "warranty_claims" }

// Financials returns the totals inputs currently stored on the claim.
func (c Claim) Financials() TotalsInput {
	return TotalsInput{
		LaborHours:     c.LaborHours,
		LaborRate:      c.LaborRate,
		PartsAmount:    c.PartsAmount,
		ShippingAmount: c.ShippingAmount,
	}
}

// ApplyTotals stores computed totals, including the normalized inputs.
func (c *Claim) ApplyTotals(in TotalsInput, totals Totals) {
	c.LaborHours = RoundHours(in.LaborHours)
	c.LaborRate = RoundMoney(in.LaborRate)
	c.LaborAmount = totals.LaborAmount
	c.PartsAmount = totals.PartsAmount
	c.ShippingAmount = totals.ShippingAmount
	c.TotalRequested = totals.TotalRequested
}

type ClaimItem struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	ClaimID          snowflake.ID    `gorm:"not null;index" json:"claim_id"`
	PartNumber       string          `json:"part_number"`
	PartName         string          `gorm:"not null" json:"part_name"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitCost         decimal.Decimal `gorm:"type:numeric(12,2)" json:"unit_cost"`
	TotalCost        decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_cost"`
	IssueType        IssueType       `gorm:"type:text;not null" json:"issue_type"`
	IssueDescription string          `json:"issue_description"`

	Approved       *bool               `json:"approved"`
	ApprovedQty    *int                `json:"approved_qty,omitempty"`
	ApprovedAmount decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"approved_amount"`
	DenialReason   string              `json:"denial_reason"`

	CreatedAt time.Time `json:"created_at"`
}

func (ClaimItem) TableName() string { return "warranty_claim_items" }

// StatusHistory is one append-only transition record. FromStatus is nil only for creation.
type StatusHistory struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	ClaimID     snowflake.ID  `gorm:"not null;index" json:"claim_id"`
	FromStatus  *ClaimStatus  `gorm:"type:text" json:"from_status"`
	ToStatus    ClaimStatus   `gorm:"type:text;not null" json:"to_status"`
	ChangedByID *snowflake.ID `json:"changed_by_id,omitempty"`
	Note        string        `json:"note"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (StatusHistory) TableName() string { return "warranty_claim_status_history" }

type Note struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	ClaimID      snowflake.ID `gorm:"not null;index" json:"claim_id"`
	UserID       snowflake.ID `gorm:"not null" json:"user_id"`
	Content      string       `gorm:"not null" json:"content"`
	IsInternal   bool         `json:"is_internal"`
	IsSystemNote bool         `json:"is_system_note"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (Note) TableName() string { return "warranty_claim_notes" }
