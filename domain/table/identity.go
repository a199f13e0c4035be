package table

import "strings"

// IdentityVersion tags every identity key so that a change of the key
// format never silently matches keys persisted by an older release.
const IdentityVersion = "v1"

const (
	keyVersionSep = "\x1e"
	keyFieldSep   = "\x1f"
)

var keyEscaper = strings.NewReplacer(`\`, `\\`, "\x1e", `\x1e`, "\x1f", `\x1f`)

// IdentityKey builds the dedup key of a row over the given column order:
// each value is trimmed, escaped and joined. Two rows are duplicates iff
// their keys over the same column list are identical.
func IdentityKey(row Row, columns []string) string {
	var b strings.Builder
	b.WriteString(IdentityVersion)
	b.WriteString(keyVersionSep)
	for i, col := range columns {
		if i > 0 {
			b.WriteString(keyFieldSep)
		}
		b.WriteString(keyEscaper.Replace(row.Get(col).Trimmed()))
	}
	return b.String()
}

// KeySet is a set of identity keys
type KeySet map[string]struct{}

// Keys returns the identity keys of all rows of t over t's own columns
func Keys(t *Table) KeySet {
	set := make(KeySet, len(t.Rows))
	for _, row := range t.Rows {
		set[IdentityKey(row, t.Columns)] = struct{}{}
	}
	return set
}

// Has reports membership
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Add inserts key and reports whether it was new
func (s KeySet) Add(key string) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}
