// Package workbook holds the metadata of uploaded workbooks and their backups
package workbook

import (
	"path/filepath"
	"strings"
	"time"

	"sheetsort/domain/core"
)

// Workbook is an uploaded spreadsheet file. Its sheets are stored separately.
type Workbook struct {
	ID         core.ID   `json:"id" db:"id"`
	Filename   string    `json:"filename" db:"filename"`
	Hash       core.Hash `json:"file_hash" db:"file_hash"`
	UploadedAt time.Time `json:"upload_date" db:"upload_date"`
	Metadata   Metadata  `json:"metadata" db:"-"`
}

// Metadata is stored as JSON next to the workbook row
type Metadata struct {
	SheetCount int      `json:"sheet_count"`
	SheetNames []string `json:"sheet_names,omitempty"`
	SizeBytes  int64    `json:"size_bytes,omitempty"`
}

// New creates a workbook record for a freshly uploaded file
func New(filename string, hash core.Hash) *Workbook {
	return &Workbook{
		ID:         core.NewID(),
		Filename:   filename,
		Hash:       hash,
		UploadedAt: core.Now(),
	}
}

// BaseName returns the file name without directory and extension
func (w *Workbook) BaseName() string {
	base := filepath.Base(w.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BackupKind tells manual snapshots from those taken after a distribution
type BackupKind string

const (
	BackupManual BackupKind = "manual"
	BackupAuto   BackupKind = "auto"
)

// Valid reports whether k is a known kind
func (k BackupKind) Valid() bool {
	return k == BackupManual || k == BackupAuto
}

// Backup is a point-in-time snapshot of all sheets of a workbook
type Backup struct {
	ID         core.ID    `json:"id" db:"id"`
	WorkbookID core.ID    `json:"excel_file_id" db:"excel_file_id"`
	CreatedAt  time.Time  `json:"backup_date" db:"backup_date"`
	Kind       BackupKind `json:"backup_type" db:"backup_type"`
	SheetCount int        `json:"sheet_count" db:"sheet_count"`
}

// NewBackup creates backup metadata for workbookID
func NewBackup(workbookID core.ID, kind BackupKind, sheetCount int) *Backup {
	return &Backup{
		ID:         core.NewID(),
		WorkbookID: workbookID,
		CreatedAt:  core.Now(),
		Kind:       kind,
		SheetCount: sheetCount,
	}
}

// SnapshotFileName names the daily export of a workbook
func SnapshotFileName(base string, day time.Time) string {
	return base + "_backup_" + core.DayStamp(day) + ".xlsx"
}
