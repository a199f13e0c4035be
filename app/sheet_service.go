package app

import (
	"context"
	"strings"

	"sheetsort/domain/core"
	"sheetsort/domain/table"
	"sheetsort/internal"
	apperrors "sheetsort/internal/errors"
	"sheetsort/internal/profiling"
	"sheetsort/internal/session"
	"sheetsort/ports"
)

// SheetService reads and edits the sheets of the active workbook. Edits do
// not go through the distributor.
type SheetService struct {
	workbooks ports.WorkbookRepository
	locker    *session.Locker
	profiler  *profiling.DataProfiler
	logger    *internal.Logger
}

// NewSheetService creates a sheet service
func NewSheetService(workbooks ports.WorkbookRepository, locker *session.Locker) *SheetService {
	return &SheetService{
		workbooks: workbooks,
		locker:    locker,
		profiler:  profiling.NewDataProfiler(),
		logger:    internal.DefaultLogger.With("Sheets"),
	}
}

// Sheets returns the sheet names of the active workbook in stored order
func (s *SheetService) Sheets(ctx context.Context, sc session.Context) ([]string, error) {
	if err := requireWorkbook(sc); err != nil {
		return nil, err
	}
	sheets, err := s.workbooks.LoadSheets(ctx, sc.WorkbookID)
	if err != nil {
		return nil, classify(err, msgLoadFailed)
	}
	return sheets.Names(), nil
}

// Sheet loads one sheet of the active workbook
func (s *SheetService) Sheet(ctx context.Context, sc session.Context, name string) (*table.Table, error) {
	if err := requireWorkbook(sc); err != nil {
		return nil, err
	}
	sheets, err := s.workbooks.LoadSheets(ctx, sc.WorkbookID)
	if err != nil {
		return nil, classify(err, msgLoadFailed)
	}
	return lookupSheet(sheets, name)
}

// EditCell replaces one cell. An empty value clears the cell.
func (s *SheetService) EditCell(ctx context.Context, sc session.Context, sheet string, row int, column string, value string) (*table.Table, error) {
	return s.mutate(ctx, sc, sheet, func(t *table.Table) error {
		v := table.Empty()
		if value != "" {
			v = table.Text(value)
		}
		return t.SetCell(row, column, v)
	})
}

// AddRow appends an empty row and returns its index
func (s *SheetService) AddRow(ctx context.Context, sc session.Context, sheet string) (int, error) {
	index := -1
	_, err := s.mutate(ctx, sc, sheet, func(t *table.Table) error {
		index = t.AppendEmptyRow()
		return nil
	})
	return index, err
}

// DeleteRow removes the row at index
func (s *SheetService) DeleteRow(ctx context.Context, sc session.Context, sheet string, row int) error {
	_, err := s.mutate(ctx, sc, sheet, func(t *table.Table) error {
		return t.DeleteRow(row)
	})
	return err
}

// SetRowColor annotates a row with a fill colour
func (s *SheetService) SetRowColor(ctx context.Context, sc session.Context, sheet string, row int, color string) error {
	_, err := s.mutate(ctx, sc, sheet, func(t *table.Table) error {
		return t.SetColor(row, strings.TrimSpace(color))
	})
	return err
}

// ClearRowColor removes the fill colour of a row
func (s *SheetService) ClearRowColor(ctx context.Context, sc session.Context, sheet string, row int) error {
	_, err := s.mutate(ctx, sc, sheet, func(t *table.Table) error {
		return t.ClearColor(row)
	})
	return err
}

// Profile computes column statistics for a sheet
func (s *SheetService) Profile(ctx context.Context, sc session.Context, sheet string) (profiling.SheetProfile, error) {
	t, err := s.Sheet(ctx, sc, sheet)
	if err != nil {
		return profiling.SheetProfile{}, err
	}
	return s.profiler.ProfileTable(t), nil
}

func (s *SheetService) mutate(ctx context.Context, sc session.Context, sheet string, edit func(*table.Table) error) (*table.Table, error) {
	if err := requireWorkbook(sc); err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, sc.WorkbookID)
	if err != nil {
		return nil, classify(err, msgSaveFailed)
	}
	defer release()

	sheets, err := s.workbooks.LoadSheets(ctx, sc.WorkbookID)
	if err != nil {
		return nil, classify(err, msgLoadFailed)
	}
	t, err := lookupSheet(sheets, sheet)
	if err != nil {
		return nil, err
	}

	if err := edit(t); err != nil {
		return nil, classify(err, err.Error())
	}
	if err := s.workbooks.SaveSheets(ctx, sc.WorkbookID, t); err != nil {
		return nil, classify(err, msgSaveFailed)
	}

	s.logger.Debug("saved edit of %s in %s", sheet, sc.WorkbookID)
	return t, nil
}

func lookupSheet(sheets *table.Set, name string) (*table.Table, error) {
	t, ok := sheets.Get(name)
	if !ok {
		return nil, &apperrors.AppError{
			Code:    apperrors.CodeNotFound,
			Message: msgSheetNotFound,
			Cause:   core.NewNotFoundError("sheet", name),
		}
	}
	return t, nil
}
