package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"sheetsort/domain/core"
	"sheetsort/domain/table"
	"sheetsort/domain/workbook"
	"sheetsort/internal"
	"sheetsort/internal/config"
	apperrors "sheetsort/internal/errors"
	"sheetsort/internal/session"
	"sheetsort/ports"
)

// UploadService parses uploaded spreadsheets and stores their sheets
type UploadService struct {
	workbooks ports.WorkbookRepository
	reader    ports.SpreadsheetReader
	locker    *session.Locker
	limits    config.UploadConfig
	logger    *internal.Logger
}

// UploadResult describes a stored upload
type UploadResult struct {
	Workbook *workbook.Workbook `json:"workbook"`
	Sheets   []string           `json:"sheets"`
	// Reused is set when a workbook with the same content already existed
	Reused bool `json:"reused"`
}

// Message is the confirmation shown after a successful upload
func (r *UploadResult) Message() string {
	return fmt.Sprintf("Datei \"%s\" erfolgreich hochgeladen", r.Workbook.Filename)
}

// Session returns the session context pointing at the first sheet
func (r *UploadResult) Session() session.Context {
	sc := session.Context{WorkbookID: r.Workbook.ID, Filename: r.Workbook.Filename}
	if len(r.Sheets) > 0 {
		sc.ActiveSheet = r.Sheets[0]
	}
	return sc
}

// NewUploadService creates an upload service
func NewUploadService(workbooks ports.WorkbookRepository, reader ports.SpreadsheetReader, locker *session.Locker, limits config.UploadConfig) *UploadService {
	return &UploadService{
		workbooks: workbooks,
		reader:    reader,
		locker:    locker,
		limits:    limits,
		logger:    internal.DefaultLogger.With("Upload"),
	}
}

// Upload validates, parses and stores a file. A file whose content was
// uploaded before keeps its workbook ID and has its sheets upserted.
func (s *UploadService) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if r == nil || name == "" || name == "." || name == string(filepath.Separator) {
		return nil, apperrors.InvalidInput(msgNoFile)
	}
	if !s.allowed(name) {
		return nil, apperrors.UnsupportedFile(fmt.Sprintf("Ungültiger Dateityp. Erlaubt sind: %s",
			strings.Join(s.limits.AllowedExtensions, ", ")))
	}

	data, err := s.readLimited(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apperrors.InvalidInput(msgNoFile)
	}

	sheets, err := s.reader.ReadWorkbook(bytes.NewReader(data), name)
	if err != nil {
		s.logger.Warn("failed to parse %s: %v", name, err)
		return nil, &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: msgParseFailed, Cause: err}
	}
	if sheets.Len() == 0 {
		return nil, &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: msgParseFailed, Cause: core.ErrEmptyWorkbook}
	}

	hash := core.NewHash(data)
	metadata := workbook.Metadata{
		SheetCount: sheets.Len(),
		SheetNames: sheets.Names(),
		SizeBytes:  int64(len(data)),
	}

	existing, err := s.workbooks.GetByHash(ctx, hash)
	switch {
	case err == nil:
		if err := s.reuse(ctx, existing, sheets, metadata); err != nil {
			return nil, err
		}
		s.logger.Info("reused workbook %s for %s (%s)", existing.ID, name, hash.Short())
		return &UploadResult{Workbook: existing, Sheets: sheets.Names(), Reused: true}, nil
	case !errors.Is(err, core.ErrNotFound):
		return nil, classify(err, msgSaveFailed)
	}

	wb := workbook.New(name, hash)
	wb.Metadata = metadata
	if err := s.workbooks.Create(ctx, wb); err != nil {
		return nil, classify(err, msgSaveFailed)
	}
	if err := s.workbooks.SaveSheets(ctx, wb.ID, sheets.Tables()...); err != nil {
		// a workbook without sheets must not stay listed
		if delErr := s.workbooks.Delete(context.WithoutCancel(ctx), wb.ID); delErr != nil {
			s.logger.Error("failed to remove incomplete workbook %s: %v", wb.ID, delErr)
		}
		return nil, classify(err, msgSaveFailed)
	}

	s.logger.Info("stored %s as %s with %d sheets", name, wb.ID, sheets.Len())
	return &UploadResult{Workbook: wb, Sheets: sheets.Names()}, nil
}

func (s *UploadService) reuse(ctx context.Context, wb *workbook.Workbook, sheets *table.Set, metadata workbook.Metadata) error {
	release, err := s.locker.Lock(ctx, wb.ID)
	if err != nil {
		return classify(err, msgSaveFailed)
	}
	defer release()

	if err := s.workbooks.SaveSheets(ctx, wb.ID, sheets.Tables()...); err != nil {
		return classify(err, msgSaveFailed)
	}

	// sheets created by earlier distributions stay part of the workbook
	stored, err := s.workbooks.LoadSheets(ctx, wb.ID)
	if err != nil {
		return classify(err, msgSaveFailed)
	}
	metadata.SheetCount = stored.Len()
	metadata.SheetNames = stored.Names()
	if err := s.workbooks.UpdateMetadata(ctx, wb.ID, metadata); err != nil {
		return classify(err, msgSaveFailed)
	}
	wb.Metadata = metadata
	return nil
}

func (s *UploadService) allowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.limits.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (s *UploadService) readLimited(r io.Reader) ([]byte, error) {
	if s.limits.MaxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, apperrors.Wrap(err, msgNoFile)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, s.limits.MaxBytes+1))
	if err != nil {
		return nil, &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: msgNoFile, Cause: err}
	}
	if int64(len(data)) > s.limits.MaxBytes {
		return nil, apperrors.FileTooLarge(s.limits.MaxBytes)
	}
	return data, nil
}
