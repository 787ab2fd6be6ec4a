package testutil

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// schema mirrors internal/migration/sql in the SQLite dialect.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS warranty_claims (
		id BIGINT PRIMARY KEY,
		claim_number TEXT NOT NULL UNIQUE,
		claim_year INTEGER NOT NULL,
		claim_sequence INTEGER NOT NULL,
		dealer_id BIGINT NOT NULL,
		submitted_by_id BIGINT NOT NULL,
		assigned_to_id BIGINT,
		claim_type TEXT NOT NULL,
		priority TEXT NOT NULL,
		product_id TEXT,
		product_name TEXT NOT NULL DEFAULT '',
		serial_number TEXT NOT NULL DEFAULT '',
		model_number TEXT NOT NULL DEFAULT '',
		rv_unit_id TEXT,
		vin TEXT NOT NULL DEFAULT '',
		customer_name TEXT NOT NULL DEFAULT '',
		customer_phone TEXT NOT NULL DEFAULT '',
		customer_email TEXT NOT NULL DEFAULT '',
		customer_address TEXT NOT NULL DEFAULT '',
		issue_description TEXT NOT NULL,
		failure_date TIMESTAMP,
		is_under_warranty BOOLEAN NOT NULL DEFAULT FALSE,
		labor_hours NUMERIC(12,4) NOT NULL DEFAULT 0,
		labor_rate NUMERIC NOT NULL DEFAULT 0,
		labor_amount NUMERIC NOT NULL DEFAULT 0,
		parts_amount NUMERIC NOT NULL DEFAULT 0,
		shipping_amount NUMERIC NOT NULL DEFAULT 0,
		total_requested NUMERIC NOT NULL DEFAULT 0,
		total_approved NUMERIC,
		resolution_type TEXT,
		resolution_notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		submitted_at TIMESTAMP,
		reviewed_at TIMESTAMP,
		resolved_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		deleted_at TIMESTAMP,
		UNIQUE (claim_year, claim_sequence)
	)`,
	`CREATE TABLE IF NOT EXISTS warranty_claim_items (
		id BIGINT PRIMARY KEY,
		claim_id BIGINT NOT NULL,
		part_number TEXT NOT NULL DEFAULT '',
		part_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_cost NUMERIC NOT NULL DEFAULT 0,
		total_cost NUMERIC NOT NULL DEFAULT 0,
		issue_type TEXT NOT NULL,
		issue_description TEXT NOT NULL DEFAULT '',
		approved BOOLEAN,
		approved_qty INTEGER,
		approved_amount NUMERIC,
		denial_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS warranty_claim_status_history (
		id BIGINT PRIMARY KEY,
		claim_id BIGINT NOT NULL,
		from_status TEXT,
		to_status TEXT NOT NULL,
		changed_by_id BIGINT,
		note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS warranty_claim_notes (
		id BIGINT PRIMARY KEY,
		claim_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		content TEXT NOT NULL,
		is_internal BOOLEAN NOT NULL DEFAULT FALSE,
		is_system_note BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGINT PRIMARY KEY,
		dealer_id BIGINT,
		actor_type TEXT NOT NULL,
		actor_id TEXT,
		actor_role TEXT,
		action TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT,
		metadata TEXT,
		ip_address TEXT,
		user_agent TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS claim_events (
		id TEXT PRIMARY KEY,
		claim_id BIGINT NOT NULL,
		dealer_id BIGINT NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		published_at TIMESTAMP
	)`,
}

// OpenDB returns an isolated in-memory database with the full schema.
// A single connection serializes transactions the way row locks do in Postgres.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
