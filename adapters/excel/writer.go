package excel

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"sheetsort/domain/table"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// WriteWorkbook renders sheets as an xlsx workbook, one worksheet per table
// in set order. Row annotations become solid fills.
func (c *Codec) WriteWorkbook(w io.Writer, sheets *table.Set) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	names := uniqueSheetNames(sheets.Names())
	styles := newStyleCache(f)

	for i, t := range sheets.Tables() {
		name := names[i]
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("failed to rename sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := c.writeSheet(f, styles, name, t); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (c *Codec) writeSheet(f *excelize.File, styles *styleCache, sheet string, t *table.Table) error {
	if len(t.Columns) == 0 {
		return nil
	}

	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}
	last, err := excelize.ColumnNumberToName(len(t.Columns))
	if err != nil {
		return err
	}
	if c.cfg.HeaderFill != "" {
		if err := styles.apply(sheet, "A1", last+"1", c.cfg.HeaderFill, true); err != nil {
			return err
		}
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, len(t.Columns))
		for j, col := range t.Columns {
			cells[j] = cellValue(row.Get(col))
		}
		rowNum := i + 2
		start := fmt.Sprintf("A%d", rowNum)
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", rowNum, sheet, err)
		}
		if color := t.Color(i); color != "" {
			if err := styles.apply(sheet, start, fmt.Sprintf("%s%d", last, rowNum), color, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellValue(v table.Value) interface{} {
	switch v.Kind() {
	case table.KindNumber:
		f, _ := v.Float()
		return f
	case table.KindText:
		return v.String()
	default:
		return nil
	}
}

// styleCache creates one fill style per colour
type styleCache struct {
	f      *excelize.File
	styles map[string]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, styles: make(map[string]int)}
}

func (s *styleCache) apply(sheet, from, to, color string, bold bool) error {
	key := fmt.Sprintf("%s/%t", color, bold)
	id, ok := s.styles[key]
	if !ok {
		style := &excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		}
		if bold {
			style.Font = &excelize.Font{Bold: true}
		}
		var err error
		id, err = s.f.NewStyle(style)
		if err != nil {
			return fmt.Errorf("failed to create style %s: %w", color, err)
		}
		s.styles[key] = id
	}
	return s.f.SetCellStyle(sheet, from, to, id)
}

var sheetNameReplacer = strings.NewReplacer("/", "_", `\`, "_", ":", "_", "*", "_", "?", "_", "[", "_", "]", "_")

// sheetName makes name acceptable as a worksheet name
func sheetName(name string) string {
	name = strings.Trim(sheetNameReplacer.Replace(strings.TrimSpace(name)), "'")
	if name == "" {
		return defaultSheet
	}
	return truncateRunes(name, MaxSheetNameLength)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// uniqueSheetNames maps table names to valid, case-insensitively unique
// worksheet names
func uniqueSheetNames(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	for i, name := range names {
		candidate := sheetName(name)
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			suffix := fmt.Sprintf("~%d", n)
			candidate = truncateRunes(sheetName(name), MaxSheetNameLength-len(suffix)) + suffix
		}
		used[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}
