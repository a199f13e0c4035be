package table

import (
	"encoding/json"
	"fmt"
)

// tablePayload is the persisted shape of a table. Columns are stored
// explicitly because record-oriented JSON objects lose column order.
type tablePayload struct {
	Name        string            `json:"name"`
	Columns     []string          `json:"columns"`
	Rows        [][]Value         `json:"rows"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// MarshalJSON encodes the table as columns plus positional rows
func (t *Table) MarshalJSON() ([]byte, error) {
	p := tablePayload{
		Name:        t.Name,
		Columns:     t.Columns,
		Rows:        make([][]Value, len(t.Rows)),
		Annotations: t.Annotations,
	}
	if p.Columns == nil {
		p.Columns = []string{}
	}
	for i, row := range t.Rows {
		cells := make([]Value, len(t.Columns))
		for j, col := range t.Columns {
			cells[j] = row.Get(col)
		}
		p.Rows[i] = cells
	}
	return json.Marshal(p)
}

// UnmarshalJSON decodes the MarshalJSON shape and validates the schema
func (t *Table) UnmarshalJSON(data []byte) error {
	var p tablePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	out := New(p.Name, p.Columns...)
	if err := out.Validate(); err != nil {
		return err
	}
	out.Rows = make([]Row, len(p.Rows))
	for i, cells := range p.Rows {
		if len(cells) > len(p.Columns) {
			return fmt.Errorf("table %q row %d has %d cells for %d columns", p.Name, i, len(cells), len(p.Columns))
		}
		row := make(Row, len(p.Columns))
		for j, col := range p.Columns {
			if j < len(cells) {
				row[col] = cells[j]
			} else {
				row[col] = Empty()
			}
		}
		out.Rows[i] = row
	}
	if len(p.Annotations) > 0 {
		out.Annotations = p.Annotations
	}

	*t = *out
	return nil
}

// EncodeSet serialises a set as a JSON array preserving order
func EncodeSet(s *Set) ([]byte, error) {
	tables := s.Tables()
	if tables == nil {
		tables = []*Table{}
	}
	return json.Marshal(tables)
}

// DecodeSet is the inverse of EncodeSet
func DecodeSet(data []byte) (*Set, error) {
	var tables []*Table
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to decode table set: %w", err)
	}
	return NewSet(tables...), nil
}
