package migration

import (
	"context"

	"sheetsort/domain/core"
	"sheetsort/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the workbook schema. The DDL sticks to types
// PostgreSQL and SQLite share so one runner serves both drivers.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every step is
// idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createExcelFilesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create excel_files table")
	}

	if err := r.createSheetsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create sheets table")
	}

	if err := r.createBackupsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create backups table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	if err := r.recordVersion(ctx, db); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}

	return nil
}

func (r *MigrationRunner) createExcelFilesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS excel_files (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			file_hash TEXT NOT NULL UNIQUE,
			upload_date TIMESTAMP NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}'
		)
	`)
	return err
}

func (r *MigrationRunner) createSheetsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sheets (
			excel_file_id TEXT NOT NULL REFERENCES excel_files(id) ON DELETE CASCADE,
			sheet_name TEXT NOT NULL,
			position INTEGER NOT NULL,
			data_json TEXT NOT NULL,
			last_modified TIMESTAMP NOT NULL,
			PRIMARY KEY (excel_file_id, sheet_name)
		)
	`)
	return err
}

func (r *MigrationRunner) createBackupsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS backups (
			id TEXT PRIMARY KEY,
			excel_file_id TEXT NOT NULL REFERENCES excel_files(id) ON DELETE CASCADE,
			backup_date TIMESTAMP NOT NULL,
			backup_type TEXT NOT NULL CHECK (backup_type IN ('manual', 'auto')),
			sheet_count INTEGER NOT NULL DEFAULT 0,
			backup_data_json TEXT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_sheets_position ON sheets(excel_file_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_backups_file_date ON backups(excel_file_id, backup_date)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) recordVersion(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)
		ON CONFLICT (version) DO NOTHING
	`), r.version, core.Now())
	return err
}
