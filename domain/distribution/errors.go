package distribution

import (
	"fmt"
	"strings"

	"sheetsort/domain/table"
)

// SchemaError reports a source table without a usable group-key column
type SchemaError struct {
	// Column is set when the key column was addressed by name
	Column    string
	Index     int
	Available []string
}

func (e *SchemaError) Error() string {
	if len(e.Available) < 2 {
		if e.Column != "" {
			return fmt.Sprintf("Nicht genügend Spalten! Neben Spalte '%s' wird mindestens eine weitere Spalte benötigt.", e.Column)
		}
		return fmt.Sprintf("Nicht genügend Spalten! Spalte %s (Praxis-Spalte) nicht gefunden.", table.ColumnLetter(e.Index))
	}
	if e.Column != "" {
		return fmt.Sprintf("Spalte '%s' nicht gefunden! Verfügbare Spalten: %s",
			e.Column, strings.Join(e.Available, ", "))
	}
	return fmt.Sprintf("Spalte %s (Praxis-Spalte) nicht gefunden! Die Tabelle hat nur %d Spalten.",
		table.ColumnLetter(e.Index), len(e.Available))
}

// EmptyKeyColumnError reports a key column without any non-blank value
type EmptyKeyColumnError struct {
	Column string
	Letter string
}

func (e *EmptyKeyColumnError) Error() string {
	return fmt.Sprintf("Spalte %s '%s' enthält keine gültigen Praxis-Namen!", e.Letter, e.Column)
}

// DistributionError wraps an unexpected failure while filtering or grouping
type DistributionError struct {
	Cause error
}

func (e *DistributionError) Error() string {
	return fmt.Sprintf("Fehler bei der Verteilung: %v", e.Cause)
}

func (e *DistributionError) Unwrap() error {
	return e.Cause
}

// MergeAlignmentWarning is informational: columns of newly distributed rows
// that the persisted schema does not know were dropped.
type MergeAlignmentWarning struct {
	Table   string
	Columns []string
}

func (w MergeAlignmentWarning) String() string {
	return fmt.Sprintf("Sheet '%s': Spalten verworfen: %s", w.Table, strings.Join(w.Columns, ", "))
}
