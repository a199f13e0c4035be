package excel

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxSheetNameLength is the worksheet name limit of the xlsx format
const MaxSheetNameLength = 31

// Format identifies a supported upload format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat maps a file name to its format by extension
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported file type: %q", filepath.Ext(filename))
	}
}

// headerNames turns a raw header row into unique column names. Blank
// headers become "Unnamed: <i>" and repeated names get ".1", ".2" suffixes.
func headerNames(raw []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]bool, width)
	suffix := make(map[string]int)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(raw) {
			name = strings.TrimSpace(raw[i])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[name] {
			base := name
			for seen[name] {
				suffix[base]++
				name = fmt.Sprintf("%s.%d", base, suffix[base])
			}
		}
		seen[name] = true
		names[i] = name
	}
	return names
}
