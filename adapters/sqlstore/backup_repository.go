package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sheetsort/domain/core"
	"sheetsort/domain/table"
	"sheetsort/domain/workbook"
	"sheetsort/ports"

	"github.com/jmoiron/sqlx"
)

// backupRepository implements the BackupRepository interface
type backupRepository struct {
	db *sqlx.DB
}

// NewBackupRepository creates a new backup repository
func NewBackupRepository(db *sqlx.DB) ports.BackupRepository {
	return &backupRepository{db: db}
}

type backupRow struct {
	ID         string    `db:"id"`
	WorkbookID string    `db:"excel_file_id"`
	CreatedAt  time.Time `db:"backup_date"`
	Kind       string    `db:"backup_type"`
	SheetCount int       `db:"sheet_count"`
}

func (row backupRow) toDomain() *workbook.Backup {
	return &workbook.Backup{
		ID:         core.ID(row.ID),
		WorkbookID: core.ID(row.WorkbookID),
		CreatedAt:  row.CreatedAt.UTC(),
		Kind:       workbook.BackupKind(row.Kind),
		SheetCount: row.SheetCount,
	}
}

const backupColumns = `id, excel_file_id, backup_date, backup_type, sheet_count`

// Create stores a snapshot of sheets
func (r *backupRepository) Create(ctx context.Context, backup *workbook.Backup, sheets *table.Set) error {
	if !backup.Kind.Valid() {
		return fmt.Errorf("invalid backup type %q", backup.Kind)
	}
	data, err := table.EncodeSet(sheets)
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	query := r.db.Rebind(`INSERT INTO backups (` + backupColumns + `, backup_data_json) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, query,
		backup.ID.String(), backup.WorkbookID.String(), backup.CreatedAt, string(backup.Kind),
		backup.SheetCount, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	return nil
}

// Get retrieves backup metadata
func (r *backupRepository) Get(ctx context.Context, id core.ID) (*workbook.Backup, error) {
	var row backupRow
	query := r.db.Rebind(`SELECT ` + backupColumns + ` FROM backups WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrBackupNotFound, id)
		}
		return nil, fmt.Errorf("failed to get backup: %w", err)
	}
	return row.toDomain(), nil
}

// Load decodes the sheets stored in a backup
func (r *backupRepository) Load(ctx context.Context, id core.ID) (*table.Set, error) {
	var data string
	query := r.db.Rebind(`SELECT backup_data_json FROM backups WHERE id = ?`)
	if err := r.db.GetContext(ctx, &data, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrBackupNotFound, id)
		}
		return nil, fmt.Errorf("failed to load backup: %w", err)
	}
	return table.DecodeSet([]byte(data))
}

// List returns the backups of a workbook, newest first
func (r *backupRepository) List(ctx context.Context, workbookID core.ID) ([]*workbook.Backup, error) {
	var rows []backupRow
	query := r.db.Rebind(`SELECT ` + backupColumns + ` FROM backups WHERE excel_file_id = ? ORDER BY backup_date DESC, id DESC`)
	if err := r.db.SelectContext(ctx, &rows, query, workbookID.String()); err != nil {
		return nil, fmt.Errorf("failed to query backups: %w", err)
	}

	backups := make([]*workbook.Backup, 0, len(rows))
	for _, row := range rows {
		backups = append(backups, row.toDomain())
	}
	return backups, nil
}
