package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrWorkbookNotFound = fmt.Errorf("%w: workbook", ErrNotFound)
	ErrSheetNotFound    = fmt.Errorf("%w: sheet", ErrNotFound)
	ErrBackupNotFound   = fmt.Errorf("%w: backup", ErrNotFound)
	ErrProfileNotFound  = fmt.Errorf("%w: profile", ErrNotFound)

	// Validation errors
	ErrRowOutOfRange   = errors.New("row index out of range")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNoActiveFile    = errors.New("no workbook loaded")
	ErrEmptyWorkbook   = errors.New("workbook contains no sheets")
	ErrInvalidColor    = errors.New("invalid colour")
	ErrHashMismatch    = errors.New("hash mismatch")
	ErrLockUnavailable = errors.New("workbook is busy")
)

// NewNotFoundError wraps ErrNotFound with resource context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}
