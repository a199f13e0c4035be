// Package profiling computes per-column summary statistics of a sheet
package profiling

import (
	"math"
	"sort"

	"sheetsort/domain/table"

	"github.com/montanaflynn/stats"
	gonumstat "gonum.org/v1/gonum/stat"
)

// topValueLimit bounds the most frequent values listed per column
const topValueLimit = 5

// ValueCount is a distinct cell text with its frequency
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summary holds numeric statistics of a column
type Summary struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	StdDev   float64 `json:"std_dev"`
	Skewness float64 `json:"skewness"`
}

// ColumnProfile describes one column
type ColumnProfile struct {
	Column    string       `json:"column"`
	Letter    string       `json:"letter"`
	NonEmpty  int          `json:"non_empty"`
	Numeric   int          `json:"numeric"`
	Distinct  int          `json:"distinct"`
	Summary   *Summary     `json:"summary,omitempty"`
	TopValues []ValueCount `json:"top_values,omitempty"`
}

// SheetProfile describes a whole table
type SheetProfile struct {
	Sheet   string          `json:"sheet"`
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
}

// DataProfiler profiles tables
type DataProfiler struct{}

// NewDataProfiler creates a new data profiler
func NewDataProfiler() *DataProfiler {
	return &DataProfiler{}
}

// ProfileTable analyzes all columns of t in column order
func (dp *DataProfiler) ProfileTable(t *table.Table) SheetProfile {
	profile := SheetProfile{Sheet: t.Name, Rows: t.Len(), Columns: make([]ColumnProfile, 0, len(t.Columns))}
	for i, col := range t.Columns {
		values := make([]table.Value, len(t.Rows))
		for j, row := range t.Rows {
			values[j] = row.Get(col)
		}
		cp := dp.ProfileColumn(col, values)
		cp.Letter = table.ColumnLetter(i)
		profile.Columns = append(profile.Columns, cp)
	}
	return profile
}

// ProfileColumn counts values and summarises the numeric ones. Text cells
// that read as numbers (for example "3,5") count as numeric.
func (dp *DataProfiler) ProfileColumn(name string, values []table.Value) ColumnProfile {
	cp := ColumnProfile{Column: name}
	counts := make(map[string]int)
	var numbers []float64

	for _, v := range values {
		if v.IsBlank() {
			continue
		}
		cp.NonEmpty++
		counts[v.Trimmed()]++
		if f, ok := v.Float(); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			numbers = append(numbers, f)
		}
	}
	cp.Numeric = len(numbers)
	cp.Distinct = len(counts)
	cp.TopValues = topValues(counts, topValueLimit)

	if len(numbers) > 0 {
		summary, err := summarize(numbers)
		if err == nil {
			cp.Summary = summary
		}
	}
	return cp
}

func summarize(data []float64) (*Summary, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return nil, err
	}

	s := &Summary{Mean: mean, Median: median, Min: min, Max: max}
	if len(data) > 1 {
		if s.StdDev, err = stats.StandardDeviationSample(data); err != nil {
			return nil, err
		}
	}
	if len(data) > 2 && s.StdDev > 0 {
		s.Skewness = gonumstat.Skew(data, nil)
	}
	return s, nil
}

func topValues(counts map[string]int, limit int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, ValueCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
