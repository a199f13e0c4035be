package distribution

import (
	"strings"

	"sheetsort/domain/table"
)

// DefaultGroupKeyIndex addresses column B
const DefaultGroupKeyIndex = 1

// Config selects the source sheet and the group-key column. The "Praxis"
// and "Dashboard/Aufgabenbereich" variants are both expressed as a Config.
type Config struct {
	// Name labels the configuration in logs and reports
	Name string
	// GroupKeyIndex is the zero-based position of the group-key column.
	// Ignored when GroupKeyColumn is set.
	GroupKeyIndex int
	// GroupKeyColumn addresses the group-key column by header name
	GroupKeyColumn string
	// SourceSheet names the sheet to distribute; empty means the first sheet
	SourceSheet string
}

// DefaultConfig distributes the first sheet by column B
func DefaultConfig() Config {
	return Config{
		Name:          "default",
		GroupKeyIndex: DefaultGroupKeyIndex,
	}
}

// keyColumn resolves the group-key column of t
func (c Config) keyColumn(t *table.Table) (string, error) {
	name := strings.TrimSpace(c.GroupKeyColumn)
	if len(t.Columns) < 2 {
		return "", &SchemaError{Column: name, Index: c.GroupKeyIndex, Available: t.Columns}
	}

	if name != "" {
		if !t.HasColumn(name) {
			return "", &SchemaError{Column: name, Index: -1, Available: t.Columns}
		}
		return name, nil
	}

	if c.GroupKeyIndex < 0 || c.GroupKeyIndex >= len(t.Columns) {
		return "", &SchemaError{Index: c.GroupKeyIndex, Available: t.Columns}
	}
	return t.Columns[c.GroupKeyIndex], nil
}

// SelectSource picks the sheet to distribute from a workbook
func (c Config) SelectSource(sheets *table.Set) (*table.Table, bool) {
	if c.SourceSheet != "" {
		return sheets.Get(c.SourceSheet)
	}
	return sheets.First()
}
