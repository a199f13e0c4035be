package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sheetsort/domain/table"
	"sheetsort/internal"

	"github.com/xuri/excelize/v2"
)

// Codec reads uploaded workbooks into tables and renders tables back to xlsx
type Codec struct {
	cfg    Config
	logger *internal.Logger
}

// NewCodec creates a workbook codec
func NewCodec(cfg Config) *Codec {
	if cfg.CSVComma == 0 {
		cfg.CSVComma = ','
	}
	return &Codec{cfg: cfg, logger: internal.DefaultLogger.With("ExcelCodec")}
}

// ReadWorkbook parses every sheet of an xlsx file, or the single table of a
// CSV file, into an ordered set. The first row of each sheet is the header.
func (c *Codec) ReadWorkbook(r io.Reader, filename string) (*table.Set, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatCSV:
		return c.readCSV(r, filename)
	default:
		return c.readXLSX(r)
	}
}

func (c *Codec) readXLSX(r io.Reader) (*table.Set, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := table.NewSet()
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}

		t := buildTable(name, rows, func(row, col int, raw string) table.Value {
			return xlsxValue(f, name, row, col, raw)
		})
		sheets.Put(t)
	}

	c.logger.Debug("workbook parsed in %.2fms (%d sheets)",
		float64(time.Since(startTime).Nanoseconds())/1e6, sheets.Len())
	return sheets, nil
}

func (c *Codec) readCSV(r io.Reader, filename string) (*table.Set, error) {
	reader := csv.NewReader(r)
	reader.Comma = c.cfg.CSVComma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	base := filepath.Base(filename)
	name := sheetName(strings.TrimSuffix(base, filepath.Ext(base)))
	t := buildTable(name, rows, func(_, _ int, raw string) table.Value {
		return parseValue(raw)
	})

	c.logger.Debug("CSV file processed (%d columns, %d rows)", len(t.Columns), t.Len())
	return table.NewSet(t), nil
}

// buildTable turns raw rows into a table. Trailing empty rows are dropped;
// cells beyond the header get generated column names.
func buildTable(name string, rows [][]string, value func(row, col int, raw string) table.Value) *table.Table {
	for len(rows) > 0 && isEmptyRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return table.New(name)
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	t := table.New(name, headerNames(rows[0], width)...)
	for i, raw := range rows[1:] {
		row := make(table.Row, width)
		for j, col := range t.Columns {
			if j < len(raw) && raw[j] != "" {
				row[col] = value(i+1, j, raw[j])
			} else {
				row[col] = table.Empty()
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// xlsxValue types a formatted cell. Numeric cells whose display text is not
// itself a number (dates, percentages, currency) keep the display text.
func xlsxValue(f *excelize.File, sheet string, row, col int, raw string) table.Value {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return table.Text(raw)
	}
	cellType, err := f.GetCellType(sheet, cell)
	if err != nil {
		return table.Text(raw)
	}

	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		return parseValue(raw)
	default:
		return table.Text(raw)
	}
}

// parseValue returns a number for numeric text and the text otherwise
func parseValue(s string) table.Value {
	trimmed := strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && trimmed != "" {
		return table.Number(f)
	}
	return table.Text(s)
}
