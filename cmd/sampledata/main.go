package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sheetsort/adapters/excel"
	"sheetsort/domain/table"
	"sheetsort/internal/sampledata"
)

func main() {
	out := flag.String("out", "praxisliste.xlsx", "output file path")
	rows := flag.Int("rows", 200, "number of rows")
	format := flag.String("format", "", "output format: xlsx or csv (default inferred from -out)")
	seed := flag.Int64("seed", 42, "RNG seed (deterministic)")
	start := flag.String("start", "2025-01-01", "first treatment date (YYYY-MM-DD)")
	practices := flag.String("practices", "", "comma-separated practice names (default: built-in list)")
	blank := flag.Float64("blank", 0.05, "share of rows without a practice name")
	dup := flag.Float64("dup", 0.05, "share of duplicated rows")
	flag.Parse()

	startDate, err := time.ParseInLocation("2006-01-02", *start, time.UTC)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -start (expected YYYY-MM-DD):", err)
		os.Exit(2)
	}

	fmtName := strings.ToLower(strings.TrimSpace(*format))
	if fmtName == "" {
		fmtName = "xlsx"
		if strings.EqualFold(filepath.Ext(*out), ".csv") {
			fmtName = "csv"
		}
	}

	cfg := sampledata.DefaultConfig()
	cfg.Rows = *rows
	cfg.Seed = *seed
	cfg.StartDate = startDate
	cfg.BlankKeyRate = *blank
	cfg.DuplicateRate = *dup
	if *practices != "" {
		cfg.Practices = nil
		for _, p := range strings.Split(*practices, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Practices = append(cfg.Practices, p)
			}
		}
	}

	sheet, err := sampledata.Generate(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error generating sample data:", err)
		os.Exit(2)
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error creating output:", err)
		os.Exit(1)
	}
	defer f.Close()

	switch fmtName {
	case "csv":
		err = sampledata.WriteCSV(f, sheet)
	case "xlsx":
		err = excel.NewCodec(excel.DefaultConfig()).WriteWorkbook(f, table.NewSet(sheet))
	default:
		fmt.Fprintln(os.Stderr, "unsupported format:", fmtName)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", fmtName, err)
		os.Exit(1)
	}

	fmt.Printf("Sample workbook created: %s\n", *out)
	fmt.Printf("Sheet: %s | Rows: %d | Practices: %d\n", sheet.Name, sheet.Len(), len(cfg.Practices))
}
