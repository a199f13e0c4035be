package ports

import (
	"io"

	"sheetsort/domain/table"
)

// SpreadsheetReader parses an uploaded file into an ordered set of tables
type SpreadsheetReader interface {
	ReadWorkbook(r io.Reader, filename string) (*table.Set, error)
}

// SpreadsheetWriter renders tables as a workbook file
type SpreadsheetWriter interface {
	WriteWorkbook(w io.Writer, sheets *table.Set) error
}
