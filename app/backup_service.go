package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"sheetsort/domain/core"
	"sheetsort/domain/table"
	"sheetsort/domain/workbook"
	"sheetsort/internal"
	apperrors "sheetsort/internal/errors"
	"sheetsort/internal/session"
	"sheetsort/ports"
)

// BackupService snapshots, restores and exports workbooks
type BackupService struct {
	workbooks ports.WorkbookRepository
	backups   ports.BackupRepository
	writer    ports.SpreadsheetWriter
	files     ports.FileStore
	locker    *session.Locker
	now       func() time.Time
	logger    *internal.Logger
}

// NewBackupService creates a backup service. files may be nil when daily
// snapshots are not written.
func NewBackupService(workbooks ports.WorkbookRepository, backups ports.BackupRepository, writer ports.SpreadsheetWriter, files ports.FileStore, locker *session.Locker) *BackupService {
	return &BackupService{
		workbooks: workbooks,
		backups:   backups,
		writer:    writer,
		files:     files,
		locker:    locker,
		now:       core.Now,
		logger:    internal.DefaultLogger.With("Backup"),
	}
}

// Create snapshots every sheet of a workbook
func (s *BackupService) Create(ctx context.Context, workbookID core.ID, kind workbook.BackupKind) (*workbook.Backup, error) {
	release, err := s.locker.Lock(ctx, workbookID)
	if err != nil {
		return nil, classify(err, msgBackupFailed)
	}
	defer release()

	sheets, err := s.workbooks.LoadSheets(ctx, workbookID)
	if err != nil {
		return nil, classify(err, msgBackupFailed)
	}
	return s.snapshot(ctx, workbookID, kind, sheets)
}

// snapshot stores sheets as a backup; the caller holds the workbook lock
func (s *BackupService) snapshot(ctx context.Context, workbookID core.ID, kind workbook.BackupKind, sheets *table.Set) (*workbook.Backup, error) {
	if sheets.Len() == 0 {
		return nil, &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: msgNoBackupData, Cause: core.ErrEmptyWorkbook}
	}

	backup := workbook.NewBackup(workbookID, kind, sheets.Len())
	if err := s.backups.Create(ctx, backup, sheets); err != nil {
		return nil, classify(err, msgBackupFailed)
	}

	s.logger.Info("created %s backup %s of %s (%d sheets)", kind, backup.ID, workbookID, backup.SheetCount)
	return backup, nil
}

// List returns the backups of a workbook, newest first
func (s *BackupService) List(ctx context.Context, workbookID core.ID) ([]*workbook.Backup, error) {
	backups, err := s.backups.List(ctx, workbookID)
	if err != nil {
		return nil, classify(err, msgLoadFailed)
	}
	return backups, nil
}

// Restore makes the workbook's sheets equal to the snapshot. Sheets created
// after the snapshot are removed.
func (s *BackupService) Restore(ctx context.Context, backupID core.ID) (*workbook.Backup, error) {
	backup, err := s.backups.Get(ctx, backupID)
	if err != nil {
		return nil, classify(err, msgBackupNotFound)
	}

	release, err := s.locker.Lock(ctx, backup.WorkbookID)
	if err != nil {
		return nil, classify(err, msgSaveFailed)
	}
	defer release()

	snapshot, err := s.backups.Load(ctx, backupID)
	if err != nil {
		return nil, classify(err, msgBackupNotFound)
	}
	current, err := s.workbooks.LoadSheets(ctx, backup.WorkbookID)
	if err != nil {
		return nil, classify(err, msgLoadFailed)
	}

	for _, name := range current.Names() {
		if _, keep := snapshot.Get(name); keep {
			continue
		}
		if err := s.workbooks.DeleteSheet(ctx, backup.WorkbookID, name); err != nil {
			return nil, classify(err, msgSaveFailed)
		}
	}
	if err := s.workbooks.SaveSheets(ctx, backup.WorkbookID, snapshot.Tables()...); err != nil {
		return nil, classify(err, msgSaveFailed)
	}
	if err := updateSheetMetadata(ctx, s.workbooks, backup.WorkbookID); err != nil {
		return nil, err
	}

	s.logger.Info("restored backup %s into %s", backup.ID, backup.WorkbookID)
	return backup, nil
}

// Export writes all sheets of a workbook as an xlsx file
func (s *BackupService) Export(ctx context.Context, workbookID core.ID, w io.Writer) error {
	sheets, err := s.workbooks.LoadSheets(ctx, workbookID)
	if err != nil {
		return classify(err, msgLoadFailed)
	}
	if sheets.Len() == 0 {
		return &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: msgNoBackupData, Cause: core.ErrEmptyWorkbook}
	}
	if err := s.writer.WriteWorkbook(w, sheets); err != nil {
		return apperrors.Wrap(err, "Fehler beim Exportieren")
	}
	return nil
}

// WriteDailySnapshot exports the workbook to <base>_backup_<day>.xlsx in
// the file store. A snapshot that already exists for today is kept and
// written is false.
func (s *BackupService) WriteDailySnapshot(ctx context.Context, workbookID core.ID) (key string, written bool, err error) {
	if s.files == nil {
		return "", false, apperrors.ConfigInvalid("no snapshot directory configured")
	}

	wb, err := s.workbooks.GetByID(ctx, workbookID)
	if err != nil {
		return "", false, classify(err, msgLoadFailed)
	}
	key = workbook.SnapshotFileName(wb.BaseName(), s.now())

	exists, err := s.files.Exists(ctx, key)
	if err != nil {
		return key, false, apperrors.Wrap(err, msgBackupFailed)
	}
	if exists {
		return key, false, nil
	}

	var buf bytes.Buffer
	if err := s.Export(ctx, workbookID, &buf); err != nil {
		return key, false, err
	}
	if err := s.files.Put(ctx, key, &buf); err != nil {
		return key, false, apperrors.Wrap(err, msgBackupFailed)
	}

	s.logger.Info("wrote daily snapshot %s", key)
	return key, true, nil
}

// BackupCreatedMessage is the confirmation shown after a manual backup
func BackupCreatedMessage(b *workbook.Backup) string {
	return fmt.Sprintf("Backup erfolgreich erstellt (ID: %s)", b.ID)
}

// updateSheetMetadata refreshes the sheet list stored with the workbook
func updateSheetMetadata(ctx context.Context, workbooks ports.WorkbookRepository, id core.ID) error {
	wb, err := workbooks.GetByID(ctx, id)
	if err != nil {
		return classify(err, msgSaveFailed)
	}
	sheets, err := workbooks.LoadSheets(ctx, id)
	if err != nil {
		return classify(err, msgSaveFailed)
	}
	metadata := wb.Metadata
	metadata.SheetCount = sheets.Len()
	metadata.SheetNames = sheets.Names()
	if err := workbooks.UpdateMetadata(ctx, id, metadata); err != nil {
		return classify(err, msgSaveFailed)
	}
	return nil
}
