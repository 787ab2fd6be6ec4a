package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"github.com/smallbiznis/warrantyhub/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const claimColumns = `id, claim_number, claim_year, claim_sequence, dealer_id, submitted_by_id, assigned_to_id,
	claim_type, priority, product_id, product_name, serial_number, model_number, rv_unit_id, vin,
	customer_name, customer_phone, customer_email, customer_address, issue_description, failure_date,
	is_under_warranty, labor_hours, labor_rate, labor_amount, parts_amount, shipping_amount,
	total_requested, total_approved, resolution_type, resolution_notes, status, submitted_at,
	reviewed_at, resolved_at, created_at, updated_at`

type repo struct{}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike makes user input match literally inside a LIKE pattern that
// declares ESCAPE '!'.
func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func Provide() domain.Repository {
	return &repo{}
}

// NextSequence counts soft-deleted claims too so numbers are never reissued.
func (r *repo) NextSequence(ctx context.Context, db *gorm.DB, year int) (int, error) {
	var next int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(claim_sequence), 0) + 1 FROM warranty_claims WHERE claim_year = ?`,
		year,
	).Row().Scan(&next)
	if err != nil {
		return 0, err
	}
	return int(next), nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, claim *domain.Claim) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO warranty_claims (`+claimColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		claim.ID,
		claim.ClaimNumber,
		claim.ClaimYear,
		claim.ClaimSequence,
		claim.DealerID,
		claim.SubmittedByID,
		claim.AssignedToID,
		claim.ClaimType,
		claim.Priority,
		claim.ProductID,
		claim.ProductName,
		claim.SerialNumber,
		claim.ModelNumber,
		claim.RVUnitID,
		claim.VIN,
		claim.CustomerName,
		claim.CustomerPhone,
		claim.CustomerEmail,
		claim.CustomerAddress,
		claim.IssueDescription,
		claim.FailureDate,
		claim.IsUnderWarranty,
		claim.LaborHours,
		claim.LaborRate,
		claim.LaborAmount,
		claim.PartsAmount,
		claim.ShippingAmount,
		claim.TotalRequested,
		claim.TotalApproved,
		claim.ResolutionType,
		claim.ResolutionNotes,
		claim.Status,
		claim.SubmittedAt,
		claim.ReviewedAt,
		claim.ResolvedAt,
		claim.CreatedAt,
		claim.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, claim *domain.Claim) error {
	return db.WithContext(ctx).Exec(
		`UPDATE warranty_claims SET
			assigned_to_id = ?, claim_type = ?, priority = ?, product_id = ?, product_name = ?,
			serial_number = ?, model_number = ?, rv_unit_id = ?, vin = ?, customer_name = ?,
			customer_phone = ?, customer_email = ?, customer_address = ?, issue_description = ?,
			failure_date = ?, is_under_warranty = ?, labor_hours = ?, labor_rate = ?, labor_amount = ?,
			parts_amount = ?, shipping_amount = ?, total_requested = ?, total_approved = ?,
			resolution_type = ?, resolution_notes = ?, status = ?, submitted_at = ?, reviewed_at = ?,
			resolved_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		claim.AssignedToID,
		claim.ClaimType,
		claim.Priority,
		claim.ProductID,
		claim.ProductName,
		claim.SerialNumber,
		claim.ModelNumber,
		claim.RVUnitID,
		claim.VIN,
		claim.CustomerName,
		claim.CustomerPhone,
		claim.CustomerEmail,
		claim.CustomerAddress,
		claim.IssueDescription,
		claim.FailureDate,
		claim.IsUnderWarranty,
		claim.LaborHours,
		claim.LaborRate,
		claim.LaborAmount,
		claim.PartsAmount,
		claim.ShippingAmount,
		claim.TotalRequested,
		claim.TotalApproved,
		claim.ResolutionType,
		claim.ResolutionNotes,
		claim.Status,
		claim.SubmittedAt,
		claim.ReviewedAt,
		claim.ResolvedAt,
		claim.UpdatedAt,
		claim.ID,
	).Error
}

func (r *repo) SoftDelete(ctx context.Context, db *gorm.DB, id snowflake.ID, deletedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE warranty_claims SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		deletedAt,
		deletedAt,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Claim, error) {
	var claim domain.Claim
	err := db.WithContext(ctx).Raw(
		`SELECT `+claimColumns+` FROM warranty_claims WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(&claim).Error
	if err != nil {
		return nil, err
	}
	if claim.ID == 0 {
		return nil, nil
	}
	return &claim, nil
}

// FindByIDForUpdate row-locks the claim for the rest of the transaction.
func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Claim, error) {
	var claim domain.Claim
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).
		Take(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListClaimFilter, page pagination.Pagination) ([]domain.Claim, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.Claim{}).Where("deleted_at IS NULL")

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		stmt = stmt.Where(
			`(LOWER(claim_number) LIKE ? ESCAPE '!' OR LOWER(product_name) LIKE ? ESCAPE '!'
			 OR LOWER(serial_number) LIKE ? ESCAPE '!' OR LOWER(customer_name) LIKE ? ESCAPE '!'
			 OR LOWER(vin) LIKE ? ESCAPE '!')`,
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}
	if filter.ClaimType != nil {
		stmt = stmt.Where("claim_type = ?", *filter.ClaimType)
	}
	if filter.Priority != nil {
		stmt = stmt.Where("priority = ?", *filter.Priority)
	}
	if filter.DealerID != nil {
		stmt = stmt.Where("dealer_id = ?", *filter.DealerID)
	}
	if filter.AssignedToID != nil {
		stmt = stmt.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", filter.CreatedTo.UTC())
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := domain.ClaimSortFields[filter.SortBy]
	if !ok {
		column = domain.ClaimSortFields[domain.DefaultClaimSortField]
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	var claims []domain.Claim
	if err := stmt.
		Order(fmt.Sprintf("%s %s, id %s", column, direction, direction)).
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&claims).Error; err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}

func (r *repo) Stats(ctx context.Context, db *gorm.DB, dealerID *snowflake.ID) (domain.ClaimStats, error) {
	var row struct {
		Total          int64
		Pending        int64
		InReview       int64
		Approved       int64
		Denied         int64
		TotalRequested decimal.Decimal
		TotalApproved  decimal.Decimal
	}

	query := `SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'submitted' THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status IN ('under_review', 'info_requested') THEN 1 ELSE 0 END), 0) AS in_review,
			COALESCE(SUM(CASE WHEN status IN ('approved', 'partial') THEN 1 ELSE 0 END), 0) AS approved,
			COALESCE(SUM(CASE WHEN status = 'denied' THEN 1 ELSE 0 END), 0) AS denied,
			COALESCE(SUM(total_requested), 0) AS total_requested,
			COALESCE(SUM(total_approved), 0) AS total_approved
		FROM warranty_claims
		WHERE deleted_at IS NULL`
	args := []any{}
	if dealerID != nil {
		query += ` AND dealer_id = ?`
		args = append(args, *dealerID)
	}

	if err := db.WithContext(ctx).Raw(query, args...).Scan(&row).Error; err != nil {
		return domain.ClaimStats{}, err
	}

	return domain.ClaimStats{
		Total:          row.Total,
		Pending:        row.Pending,
		InReview:       row.InReview,
		Approved:       row.Approved,
		Denied:         row.Denied,
		TotalRequested: domain.RoundMoney(row.TotalRequested),
		TotalApproved:  domain.RoundMoney(row.TotalApproved),
	}, nil
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, claimID snowflake.ID, items []domain.ClaimItem) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM warranty_claim_items WHERE claim_id = ?`,
		claimID,
	).Error; err != nil {
		return err
	}

	for _, item := range items {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO warranty_claim_items (
				id, claim_id, part_number, part_name, quantity, unit_cost, total_cost, issue_type,
				issue_description, approved, approved_qty, approved_amount, denial_reason, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			claimID,
			item.PartNumber,
			item.PartName,
			item.Quantity,
			item.UnitCost,
			item.TotalCost,
			item.IssueType,
			item.IssueDescription,
			item.Approved,
			item.ApprovedQty,
			item.ApprovedAmount,
			item.DenialReason,
			item.CreatedAt,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, claimID snowflake.ID) ([]domain.ClaimItem, error) {
	var items []domain.ClaimItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, claim_id, part_number, part_name, quantity, unit_cost, total_cost, issue_type,
		 issue_description, approved, approved_qty, approved_amount, denial_reason, created_at
		 FROM warranty_claim_items WHERE claim_id = ? ORDER BY created_at ASC, id ASC`,
		claimID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateItemReview(ctx context.Context, db *gorm.DB, item *domain.ClaimItem) error {
	return db.WithContext(ctx).Exec(
		`UPDATE warranty_claim_items
		 SET approved = ?, approved_qty = ?, approved_amount = ?, denial_reason = ?
		 WHERE id = ? AND claim_id = ?`,
		item.Approved,
		item.ApprovedQty,
		item.ApprovedAmount,
		item.DenialReason,
		item.ID,
		item.ClaimID,
	).Error
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, entry *domain.StatusHistory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO warranty_claim_status_history (
			id, claim_id, from_status, to_status, changed_by_id, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ClaimID,
		entry.FromStatus,
		entry.ToStatus,
		entry.ChangedByID,
		entry.Note,
		entry.CreatedAt,
	).Error
}

func (r *repo) ListHistory(ctx context.Context, db *gorm.DB, claimID snowflake.ID) ([]domain.StatusHistory, error) {
	var history []domain.StatusHistory
	err := db.WithContext(ctx).Raw(
		`SELECT id, claim_id, from_status, to_status, changed_by_id, note, created_at
		 FROM warranty_claim_status_history WHERE claim_id = ? ORDER BY created_at ASC, id ASC`,
		claimID,
	).Scan(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (r *repo) InsertNote(ctx context.Context, db *gorm.DB, note *domain.Note) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO warranty_claim_notes (
			id, claim_id, user_id, content, is_internal, is_system_note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.ClaimID,
		note.UserID,
		note.Content,
		note.IsInternal,
		note.IsSystemNote,
		note.CreatedAt,
	).Error
}

func (r *repo) ListNotes(ctx context.Context, db *gorm.DB, claimID snowflake.ID) ([]domain.Note, error) {
	var notes []domain.Note
	err := db.WithContext(ctx).Raw(
		`SELECT id, claim_id, user_id, content, is_internal, is_system_note, created_at
		 FROM warranty_claim_notes WHERE claim_id = ? ORDER BY created_at ASC, id ASC`,
		claimID,
	).Scan(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}
