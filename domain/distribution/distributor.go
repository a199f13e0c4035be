// Package distribution redistributes the rows of a source table into one
// derived table per group-key value and merges those tables into the
// tables persisted by earlier runs. It performs no I/O.
package distribution

import (
	"fmt"

	"sheetsort/domain/table"
)

// Outcome is the result of a distribution run. On failure Tables is nil,
// Source is the unmodified input and Err describes the problem; on success
// Tables holds the produced tables and Report what happened.
type Outcome struct {
	Tables *table.Set
	Source *table.Table
	Report Report
	Err    error
}

// Failed reports whether the run was rejected
func (o *Outcome) Failed() bool {
	return o.Err != nil
}

// Message returns the text to show the user verbatim
func (o *Outcome) Message() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Report.Message()
}

// Distributor groups rows by the configured key column
type Distributor struct {
	cfg Config
}

// NewDistributor creates a distributor for cfg
func NewDistributor(cfg Config) *Distributor {
	return &Distributor{cfg: cfg}
}

// Config returns the active configuration
func (d *Distributor) Config() Config {
	return d.cfg
}

func failure(source *table.Table, err error) *Outcome {
	return &Outcome{Source: source, Err: err}
}

// Distribute builds the derived tables for every non-blank group key of
// source. Only the tables touched by this run are returned; merging them
// with persisted tables is done by Merge or Apply.
func (d *Distributor) Distribute(source *table.Table) (out *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = failure(source, &DistributionError{Cause: fmt.Errorf("%v", r)})
		}
	}()

	if source == nil {
		return failure(source, &DistributionError{Cause: fmt.Errorf("keine Tabelle übergeben")})
	}

	keyColumn, err := d.cfg.keyColumn(source)
	if err != nil {
		return failure(source, err)
	}

	var order []string
	groups := make(map[string][]table.Row)
	ignored := 0
	for _, row := range source.Rows {
		key := row.Get(keyColumn).Trimmed()
		if key == "" {
			ignored++
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	if len(order) == 0 {
		return failure(source, &EmptyKeyColumnError{
			Column: keyColumn,
			Letter: table.ColumnLetter(source.ColumnIndex(keyColumn)),
		})
	}

	tables := table.NewSet()
	report := Report{RowsIgnored: ignored}
	summaries := make(map[string]int)
	seen := make(map[string]table.KeySet)

	for _, key := range order {
		name := SanitizeName(key)
		rows := groups[key]

		derived, exists := tables.Get(name)
		if !exists {
			derived = table.New(name, source.Columns...)
			derived.Append(rows...)
			tables.Put(derived)

			report.SheetsCreated++
			report.RowsAdded += len(rows)
			report.Sheets = append(report.Sheets, SheetSummary{Name: name, Created: true, RowsAdded: len(rows)})
			summaries[name] = len(report.Sheets) - 1
			continue
		}

		// Two raw spellings collapsed onto one sanitized name
		keys, ok := seen[name]
		if !ok {
			keys = table.Keys(derived)
			seen[name] = keys
		}
		summary := &report.Sheets[summaries[name]]
		for _, row := range rows {
			if !keys.Add(table.IdentityKey(row, derived.Columns)) {
				summary.Skipped++
				report.DuplicatesSkipped++
				continue
			}
			derived.Append(row)
			summary.RowsAdded++
			report.RowsAdded++
		}
	}

	for i := range report.Sheets {
		t, _ := tables.Get(report.Sheets[i].Name)
		report.Sheets[i].TotalRows = t.Len()
	}

	return &Outcome{Tables: tables, Source: source, Report: report}
}
