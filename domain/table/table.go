// Package table holds the in-memory tabular model shared by the distributor
// and every adapter: ordered columns, rows keyed by column name and row
// colour annotations keyed by row identity.
package table

import (
	"fmt"
	"regexp"
	"strings"

	"sheetsort/domain/core"
)

// Table is an ordered sequence of rows sharing a schema
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
	// Annotations maps a row identity key to a colour such as "#FFCC00".
	Annotations map[string]string
}

// New creates an empty table with the given schema
func New(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// Validate checks that column names are non-empty and unique
func (t *Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	for i, col := range t.Columns {
		if col == "" {
			return fmt.Errorf("table %q: column %d has no name", t.Name, i)
		}
		if _, ok := seen[col]; ok {
			return fmt.Errorf("table %q: duplicate column %q", t.Name, col)
		}
		seen[col] = struct{}{}
	}
	return nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of column or -1
func (t *Table) ColumnIndex(column string) int {
	for i, col := range t.Columns {
		if col == column {
			return i
		}
	}
	return -1
}

// HasColumn reports whether column is part of the schema
func (t *Table) HasColumn(column string) bool {
	return t.ColumnIndex(column) >= 0
}

// Append adds rows aligned to the table schema
func (t *Table) Append(rows ...Row) {
	for _, row := range rows {
		aligned, _ := row.Reindex(t.Columns)
		t.Rows = append(t.Rows, aligned)
	}
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	out := New(t.Name, t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = row.Clone()
	}
	if len(t.Annotations) > 0 {
		out.Annotations = make(map[string]string, len(t.Annotations))
		for k, v := range t.Annotations {
			out.Annotations[k] = v
		}
	}
	return out
}

// Key returns the identity key of row i over the table columns
func (t *Table) Key(i int) string {
	return IdentityKey(t.Rows[i], t.Columns)
}

func (t *Table) checkRow(i int) error {
	if i < 0 || i >= len(t.Rows) {
		return fmt.Errorf("%w: %d (table %q has %d rows)", core.ErrRowOutOfRange, i, t.Name, len(t.Rows))
	}
	return nil
}

// Cell returns the value at row i, column
func (t *Table) Cell(i int, column string) (Value, error) {
	if err := t.checkRow(i); err != nil {
		return Value{}, err
	}
	if !t.HasColumn(column) {
		return Value{}, fmt.Errorf("%w: %q", core.ErrUnknownColumn, column)
	}
	return t.Rows[i].Get(column), nil
}

// SetCell replaces a single value. A colour annotation follows the edited
// row to its new identity.
func (t *Table) SetCell(i int, column string, v Value) error {
	if err := t.checkRow(i); err != nil {
		return err
	}
	if !t.HasColumn(column) {
		return fmt.Errorf("%w: %q", core.ErrUnknownColumn, column)
	}

	oldKey := t.Key(i)
	color, colored := t.Annotations[oldKey]
	if t.Rows[i] == nil {
		t.Rows[i] = make(Row, len(t.Columns))
	}
	t.Rows[i][column] = v

	if colored {
		if !t.keyInUse(oldKey) {
			delete(t.Annotations, oldKey)
		}
		t.Annotations[t.Key(i)] = color
	}
	return nil
}

// AppendEmptyRow adds a row with every column empty and returns its index
func (t *Table) AppendEmptyRow() int {
	t.Append(Row{})
	return len(t.Rows) - 1
}

// DeleteRow removes row i
func (t *Table) DeleteRow(i int) error {
	if err := t.checkRow(i); err != nil {
		return err
	}
	key := t.Key(i)
	t.Rows = append(t.Rows[:i], t.Rows[i+1:]...)
	if !t.keyInUse(key) {
		delete(t.Annotations, key)
	}
	return nil
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// SetColor marks row i with a #RRGGBB colour
func (t *Table) SetColor(i int, color string) error {
	if err := t.checkRow(i); err != nil {
		return err
	}
	if !colorPattern.MatchString(color) {
		return fmt.Errorf("%w: %q", core.ErrInvalidColor, color)
	}
	if t.Annotations == nil {
		t.Annotations = make(map[string]string)
	}
	t.Annotations[t.Key(i)] = strings.ToUpper(color)
	return nil
}

// ClearColor removes the colour of row i
func (t *Table) ClearColor(i int) error {
	if err := t.checkRow(i); err != nil {
		return err
	}
	delete(t.Annotations, t.Key(i))
	return nil
}

// Color returns the colour of row i, or ""
func (t *Table) Color(i int) string {
	if i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Annotations[t.Key(i)]
}

func (t *Table) keyInUse(key string) bool {
	for i := range t.Rows {
		if t.Key(i) == key {
			return true
		}
	}
	return false
}

// Reindex returns a copy aligned to columns together with the names of the
// table's own columns that the target schema drops.
func (t *Table) Reindex(columns []string) (*Table, []string) {
	out := New(t.Name, columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i], _ = row.Reindex(columns)
	}

	target := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		target[col] = struct{}{}
	}
	var dropped []string
	for _, col := range t.Columns {
		if _, ok := target[col]; !ok {
			dropped = append(dropped, col)
		}
	}

	if len(t.Annotations) > 0 {
		out.Annotations = make(map[string]string)
		for i := range t.Rows {
			if color, ok := t.Annotations[t.Key(i)]; ok {
				out.Annotations[out.Key(i)] = color
			}
		}
	}
	return out, dropped
}

// ColumnLetter converts a zero-based column index to its spreadsheet
// letter: 0 → A, 1 → B, 26 → AA.
func ColumnLetter(index int) string {
	if index < 0 {
		return "?"
	}
	var letters []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		letters = append([]byte{byte('A' + (n-1)%26)}, letters...)
	}
	return string(letters)
}
