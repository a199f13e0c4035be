package app

import (
	"errors"

	"sheetsort/domain/core"
	apperrors "sheetsort/internal/errors"
	"sheetsort/internal/session"
)

// Messages shown to the user
const (
	msgNoFile         = "Keine Datei ausgewählt"
	msgNoActiveFile   = "Keine Datei geladen"
	msgSheetNotFound  = "Sheet nicht gefunden"
	msgLoadFailed     = "Fehler beim Laden der Daten"
	msgNoSortData     = "Keine Daten zum Sortieren gefunden"
	msgParseFailed    = "Fehler beim Laden der Excel-Datei"
	msgSaveFailed     = "Fehler beim Speichern in der Datenbank"
	msgDeleteFailed   = "Fehler beim Löschen der Datei"
	msgBackupFailed   = "Fehler beim Erstellen des Backups"
	msgNoBackupData   = "Keine Daten zum Sichern gefunden"
	msgBackupNotFound = "Backup nicht gefunden"
	msgWorkbookBusy   = "Die Datei wird gerade bearbeitet, bitte erneut versuchen"
)

// classify turns store and domain errors into an AppError carrying message.
// Errors that already carry a code pass through unchanged.
func classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}

	code := apperrors.CodeDatabaseError
	switch {
	case errors.Is(err, core.ErrNotFound):
		code = apperrors.CodeNotFound
	case errors.Is(err, core.ErrRowOutOfRange),
		errors.Is(err, core.ErrUnknownColumn),
		errors.Is(err, core.ErrNoActiveFile),
		errors.Is(err, core.ErrEmptyWorkbook),
		errors.Is(err, core.ErrInvalidColor):
		code = apperrors.CodeInvalidInput
	case errors.Is(err, core.ErrLockUnavailable):
		code = apperrors.CodeConflict
		message = msgWorkbookBusy
	}
	return &apperrors.AppError{Code: code, Message: message, Cause: err}
}

func requireWorkbook(sc session.Context) error {
	if !sc.HasWorkbook() {
		return &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: msgNoActiveFile, Cause: core.ErrNoActiveFile}
	}
	return nil
}
