package app

import (
	"context"

	"sheetsort/domain/core"
	"sheetsort/domain/workbook"
	"sheetsort/internal"
	"sheetsort/internal/session"
	"sheetsort/ports"
)

// WorkbookService lists, opens and deletes stored workbooks
type WorkbookService struct {
	workbooks ports.WorkbookRepository
	sessions  *session.Store
	locker    *session.Locker
	logger    *internal.Logger
}

// NewWorkbookService creates a workbook service. sessions may be nil.
func NewWorkbookService(workbooks ports.WorkbookRepository, sessions *session.Store, locker *session.Locker) *WorkbookService {
	return &WorkbookService{
		workbooks: workbooks,
		sessions:  sessions,
		locker:    locker,
		logger:    internal.DefaultLogger.With("Workbooks"),
	}
}

// List returns all workbooks, newest upload first
func (s *WorkbookService) List(ctx context.Context) ([]*workbook.Workbook, error) {
	list, err := s.workbooks.List(ctx)
	if err != nil {
		return nil, classify(err, msgLoadFailed)
	}
	return list, nil
}

// Open returns a session context pointing at the first sheet of a workbook
func (s *WorkbookService) Open(ctx context.Context, id core.ID) (session.Context, error) {
	wb, err := s.workbooks.GetByID(ctx, id)
	if err != nil {
		return session.Context{}, classify(err, msgLoadFailed)
	}
	sheets, err := s.workbooks.LoadSheets(ctx, id)
	if err != nil {
		return session.Context{}, classify(err, msgLoadFailed)
	}

	sc := session.Context{WorkbookID: wb.ID, Filename: wb.Filename}
	if first, ok := sheets.First(); ok {
		sc.ActiveSheet = first.Name
	}
	return sc, nil
}

// Delete removes a workbook with its sheets and backups and closes it in
// every session
func (s *WorkbookService) Delete(ctx context.Context, id core.ID) error {
	release, err := s.locker.Lock(ctx, id)
	if err != nil {
		return classify(err, msgDeleteFailed)
	}

	err = s.workbooks.Delete(ctx, id)
	release()
	s.locker.Forget(id)
	if err != nil {
		return classify(err, msgDeleteFailed)
	}
	if s.sessions != nil {
		s.sessions.ForgetWorkbook(id)
	}

	s.logger.Info("deleted workbook %s", id)
	return nil
}

// DeletedMessage is the confirmation shown after a delete
const DeletedMessage = "Datei erfolgreich gelöscht"
