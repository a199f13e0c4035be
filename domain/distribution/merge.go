package distribution

import (
	"sheetsort/domain/table"
)

// MergeStats describes a single cross-run merge
type MergeStats struct {
	Created bool
	Added   int
	Skipped int
	Dropped []string
}

// Merge folds incoming rows into a persisted table. Incoming rows are
// aligned to the persisted schema, rows whose identity key is already
// present are skipped, and the new unique rows are placed before the
// persisted rows. A nil persisted table yields a copy of incoming.
func Merge(persisted, incoming *table.Table) (*table.Table, MergeStats) {
	if persisted == nil {
		out := incoming.Clone()
		return out, MergeStats{Created: true, Added: out.Len()}
	}

	schema := persisted.Columns
	if len(schema) == 0 {
		// no established schema yet
		schema = incoming.Columns
	}

	base, _ := persisted.Reindex(schema)
	aligned, dropped := incoming.Reindex(schema)

	keys := table.Keys(base)
	stats := MergeStats{Dropped: dropped}
	fresh := make([]table.Row, 0, aligned.Len())
	freshKeys := make([]string, 0, aligned.Len())
	for i, row := range aligned.Rows {
		key := aligned.Key(i)
		if !keys.Add(key) {
			stats.Skipped++
			continue
		}
		fresh = append(fresh, row)
		freshKeys = append(freshKeys, key)
	}
	stats.Added = len(fresh)

	out := table.New(persisted.Name, schema...)
	out.Rows = append(fresh, base.Rows...)

	if len(base.Annotations) > 0 || len(aligned.Annotations) > 0 {
		out.Annotations = make(map[string]string, len(base.Annotations))
		for _, key := range freshKeys {
			if color, ok := aligned.Annotations[key]; ok {
				out.Annotations[key] = color
			}
		}
		for key, color := range base.Annotations {
			out.Annotations[key] = color
		}
	}

	return out, stats
}

// derivedName keeps a derived table from shadowing the source table
func derivedName(name, sourceName string) string {
	if name == sourceName {
		return name + " (2)"
	}
	return name
}

// Apply distributes source and merges the result into existing. The
// returned set is what the caller persists: the source table unmodified
// under its own name, every existing table (merged where this run touched
// it) and then the newly created derived tables. The report counts what
// was actually added after cross-run deduplication.
func (d *Distributor) Apply(source *table.Table, existing *table.Set) *Outcome {
	dist := d.Distribute(source)
	if dist.Failed() {
		return dist
	}

	incoming := make(map[string]*table.Table, dist.Tables.Len())
	collapsed := make(map[string]int)
	var incomingOrder []string
	for _, t := range dist.Tables.Tables() {
		name := derivedName(t.Name, source.Name)
		if prev, ok := incoming[name]; ok {
			// the renamed source group met a group literally named name
			skipped := appendUnique(prev, t)
			collapsed[name] += skipped
			dist.Report.DuplicatesSkipped += skipped
			continue
		}
		t = t.Clone()
		t.Name = name
		incoming[name] = t
		incomingOrder = append(incomingOrder, name)
	}

	result := table.NewSet()
	if _, ok := existing.Get(source.Name); !ok {
		result.Put(source.Clone())
	}

	report := Report{
		RowsIgnored:       dist.Report.RowsIgnored,
		DuplicatesSkipped: dist.Report.DuplicatesSkipped,
	}
	summaries := make(map[string]SheetSummary, len(incoming))

	for _, t := range existing.Tables() {
		if t.Name == source.Name {
			result.Put(source.Clone())
			continue
		}
		in, touched := incoming[t.Name]
		if !touched {
			result.Put(t.Clone())
			continue
		}

		merged, stats := Merge(t, in)
		result.Put(merged)
		report.RowsAdded += stats.Added
		report.DuplicatesSkipped += stats.Skipped
		if len(stats.Dropped) > 0 {
			report.Warnings = append(report.Warnings, MergeAlignmentWarning{Table: t.Name, Columns: stats.Dropped})
		}
		summaries[t.Name] = SheetSummary{Name: t.Name, RowsAdded: stats.Added, Skipped: stats.Skipped, TotalRows: merged.Len()}
	}

	for _, name := range incomingOrder {
		if _, done := summaries[name]; done {
			continue
		}
		created, stats := Merge(nil, incoming[name])
		result.Put(created)
		report.SheetsCreated++
		report.RowsAdded += stats.Added
		summaries[name] = SheetSummary{Name: name, Created: true, RowsAdded: stats.Added, TotalRows: created.Len()}
	}

	for _, name := range incomingOrder {
		s := summaries[name]
		s.Skipped += skippedWithin(dist.Report, name, source.Name) + collapsed[name]
		report.Sheets = append(report.Sheets, s)
	}

	return &Outcome{Tables: result, Source: source, Report: report}
}

func skippedWithin(r Report, name, sourceName string) int {
	skipped := 0
	for _, s := range r.Sheets {
		if derivedName(s.Name, sourceName) == name {
			skipped += s.Skipped
		}
	}
	return skipped
}

// appendUnique appends the rows of src whose identity key is not yet in dst
// and returns how many were skipped
func appendUnique(dst, src *table.Table) int {
	keys := table.Keys(dst)
	aligned, _ := src.Reindex(dst.Columns)
	skipped := 0
	for i, row := range aligned.Rows {
		if !keys.Add(aligned.Key(i)) {
			skipped++
			continue
		}
		dst.Append(row)
	}
	return skipped
}
