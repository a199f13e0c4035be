package table

import "sort"

// Row maps column names to values. A missing key reads as an empty value.
type Row map[string]Value

// Get returns the value for column, or Empty when the column is absent
func (r Row) Get(column string) Value {
	if r == nil {
		return Empty()
	}
	return r[column]
}

// Clone returns a shallow copy; values are immutable so this is a full copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Reindex aligns the row to columns. Columns the row lacks become empty;
// non-empty values under columns outside the list are dropped and their
// names returned in sorted order.
func (r Row) Reindex(columns []string) (Row, []string) {
	out := make(Row, len(columns))
	keep := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		out[col] = r.Get(col)
		keep[col] = struct{}{}
	}

	var dropped []string
	for col, v := range r {
		if _, ok := keep[col]; ok || v.IsEmpty() {
			continue
		}
		dropped = append(dropped, col)
	}
	sort.Strings(dropped)
	return out, dropped
}
