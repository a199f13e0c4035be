// Package sqlstore implements the repositories on top of sqlx. Queries use
// '?' placeholders and are rebound for the connected driver, so the same
// code serves PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sheetsort/domain/core"
	"sheetsort/domain/table"
	"sheetsort/domain/workbook"
	"sheetsort/ports"

	"github.com/jmoiron/sqlx"
)

// workbookRepository implements the WorkbookRepository interface
type workbookRepository struct {
	db *sqlx.DB
}

// NewWorkbookRepository creates a new workbook repository
func NewWorkbookRepository(db *sqlx.DB) ports.WorkbookRepository {
	return &workbookRepository{db: db}
}

type workbookRow struct {
	ID         string    `db:"id"`
	Filename   string    `db:"filename"`
	Hash       string    `db:"file_hash"`
	UploadedAt time.Time `db:"upload_date"`
	Metadata   string    `db:"metadata"`
}

func (row workbookRow) toDomain() (*workbook.Workbook, error) {
	wb := &workbook.Workbook{
		ID:         core.ID(row.ID),
		Filename:   row.Filename,
		Hash:       core.Hash(row.Hash),
		UploadedAt: row.UploadedAt.UTC(),
	}
	if row.Metadata != "" {
		if err := json.Unmarshal([]byte(row.Metadata), &wb.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return wb, nil
}

const workbookColumns = `id, filename, file_hash, upload_date, metadata`

// Create inserts a new workbook into the database
func (r *workbookRepository) Create(ctx context.Context, wb *workbook.Workbook) error {
	metadataJSON, err := json.Marshal(wb.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := r.db.Rebind(`INSERT INTO excel_files (` + workbookColumns + `) VALUES (?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, query,
		wb.ID.String(), wb.Filename, wb.Hash.String(), wb.UploadedAt, string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}

	return nil
}

func (r *workbookRepository) getOne(ctx context.Context, where string, arg interface{}) (*workbook.Workbook, error) {
	query := r.db.Rebind(`SELECT ` + workbookColumns + ` FROM excel_files WHERE ` + where + ` = ?`)

	var row workbookRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %v", core.ErrWorkbookNotFound, arg)
		}
		return nil, fmt.Errorf("failed to get workbook: %w", err)
	}
	return row.toDomain()
}

// GetByID retrieves a workbook by its ID
func (r *workbookRepository) GetByID(ctx context.Context, id core.ID) (*workbook.Workbook, error) {
	return r.getOne(ctx, "id", id.String())
}

// GetByHash retrieves a workbook by its content fingerprint
func (r *workbookRepository) GetByHash(ctx context.Context, hash core.Hash) (*workbook.Workbook, error) {
	return r.getOne(ctx, "file_hash", hash.String())
}

// List returns all workbooks, most recent upload first
func (r *workbookRepository) List(ctx context.Context) ([]*workbook.Workbook, error) {
	var rows []workbookRow
	query := `SELECT ` + workbookColumns + ` FROM excel_files ORDER BY upload_date DESC, id DESC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query workbooks: %w", err)
	}

	workbooks := make([]*workbook.Workbook, 0, len(rows))
	for _, row := range rows {
		wb, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		workbooks = append(workbooks, wb)
	}
	return workbooks, nil
}

// UpdateMetadata replaces the metadata of a workbook
func (r *workbookRepository) UpdateMetadata(ctx context.Context, id core.ID, metadata workbook.Metadata) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE excel_files SET metadata = ? WHERE id = ?`),
		string(metadataJSON), id.String())
	if err != nil {
		return fmt.Errorf("failed to update workbook: %w", err)
	}
	return requireAffected(result, core.ErrWorkbookNotFound, id)
}

// Delete removes a workbook with its sheets and backups in one transaction
func (r *workbookRepository) Delete(ctx context.Context, id core.ID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM backups WHERE excel_file_id = ?`,
		`DELETE FROM sheets WHERE excel_file_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), id.String()); err != nil {
			return fmt.Errorf("failed to delete workbook children: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM excel_files WHERE id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("failed to delete workbook: %w", err)
	}
	if err := requireAffected(result, core.ErrWorkbookNotFound, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

type sheetRow struct {
	Name     string `db:"sheet_name"`
	DataJSON string `db:"data_json"`
}

// LoadSheets returns all sheets of a workbook in their stored order
func (r *workbookRepository) LoadSheets(ctx context.Context, id core.ID) (*table.Set, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}

	var rows []sheetRow
	query := r.db.Rebind(`SELECT sheet_name, data_json FROM sheets WHERE excel_file_id = ? ORDER BY position, sheet_name`)
	if err := r.db.SelectContext(ctx, &rows, query, id.String()); err != nil {
		return nil, fmt.Errorf("failed to query sheets: %w", err)
	}

	sheets := table.NewSet()
	for _, row := range rows {
		var t table.Table
		if err := json.Unmarshal([]byte(row.DataJSON), &t); err != nil {
			return nil, fmt.Errorf("failed to decode sheet %s: %w", row.Name, err)
		}
		t.Name = row.Name
		sheets.Put(&t)
	}
	return sheets, nil
}

// SaveSheets upserts the given tables in one transaction
func (r *workbookRepository) SaveSheets(ctx context.Context, id core.ID, tables ...*table.Table) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, tx.Rebind(`SELECT COUNT(*) FROM excel_files WHERE id = ?`), id.String()); err != nil {
		return fmt.Errorf("failed to check workbook: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", core.ErrWorkbookNotFound, id)
	}

	var names []string
	if err := tx.SelectContext(ctx, &names,
		tx.Rebind(`SELECT sheet_name FROM sheets WHERE excel_file_id = ?`), id.String()); err != nil {
		return fmt.Errorf("failed to read sheet names: %w", err)
	}
	stored := make(map[string]bool, len(names))
	for _, name := range names {
		stored[name] = true
	}

	var next int
	if err := tx.GetContext(ctx, &next,
		tx.Rebind(`SELECT COALESCE(MAX(position), -1) + 1 FROM sheets WHERE excel_file_id = ?`), id.String()); err != nil {
		return fmt.Errorf("failed to read sheet positions: %w", err)
	}

	// the conflict branch leaves position untouched
	upsert := tx.Rebind(`
		INSERT INTO sheets (excel_file_id, sheet_name, position, data_json, last_modified)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (excel_file_id, sheet_name)
		DO UPDATE SET data_json = excluded.data_json, last_modified = excluded.last_modified`)

	now := core.Now()
	for _, t := range tables {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to encode sheet %s: %w", t.Name, err)
		}

		position := next
		if !stored[t.Name] {
			stored[t.Name] = true
			next++
		}
		if _, err := tx.ExecContext(ctx, upsert, id.String(), t.Name, position, string(data), now); err != nil {
			return fmt.Errorf("failed to save sheet %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sheets: %w", err)
	}
	return nil
}

// DeleteSheet removes a single sheet
func (r *workbookRepository) DeleteSheet(ctx context.Context, id core.ID, name string) error {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM sheets WHERE excel_file_id = ? AND sheet_name = ?`), id.String(), name)
	if err != nil {
		return fmt.Errorf("failed to delete sheet: %w", err)
	}
	return requireAffected(result, core.ErrSheetNotFound, name)
}

func requireAffected(result sql.Result, notFound error, key interface{}) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %v", notFound, key)
	}
	return nil
}
