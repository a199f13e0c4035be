package ports

import (
	"context"

	"sheetsort/domain/core"
	"sheetsort/domain/table"
	"sheetsort/domain/workbook"
)

// WorkbookRepository defines the interface for workbook and sheet storage
type WorkbookRepository interface {
	// Workbook records
	Create(ctx context.Context, wb *workbook.Workbook) error
	GetByID(ctx context.Context, id core.ID) (*workbook.Workbook, error)
	GetByHash(ctx context.Context, hash core.Hash) (*workbook.Workbook, error)
	List(ctx context.Context) ([]*workbook.Workbook, error)
	UpdateMetadata(ctx context.Context, id core.ID, metadata workbook.Metadata) error
	// Delete removes the workbook together with its sheets and backups
	Delete(ctx context.Context, id core.ID) error

	// Sheets
	LoadSheets(ctx context.Context, id core.ID) (*table.Set, error)
	// SaveSheets upserts tables by name. Existing sheets keep their
	// position; new sheets are appended in argument order.
	SaveSheets(ctx context.Context, id core.ID, tables ...*table.Table) error
	DeleteSheet(ctx context.Context, id core.ID, name string) error
}

// BackupRepository defines the interface for snapshot storage
type BackupRepository interface {
	Create(ctx context.Context, backup *workbook.Backup, sheets *table.Set) error
	Get(ctx context.Context, id core.ID) (*workbook.Backup, error)
	Load(ctx context.Context, id core.ID) (*table.Set, error)
	// List returns the backups of a workbook, newest first
	List(ctx context.Context, workbookID core.ID) ([]*workbook.Backup, error)
}
