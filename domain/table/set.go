package table

// Set is an ordered mapping of table name to table. Insertion order is the
// sheet order of a workbook.
type Set struct {
	order  []string
	tables map[string]*Table
}

// NewSet builds a set from tables in the given order
func NewSet(tables ...*Table) *Set {
	s := &Set{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.Put(t)
	}
	return s
}

// Put stores t under t.Name. Replacing an existing table keeps its position.
func (s *Set) Put(t *Table) {
	if s.tables == nil {
		s.tables = make(map[string]*Table)
	}
	if _, ok := s.tables[t.Name]; !ok {
		s.order = append(s.order, t.Name)
	}
	s.tables[t.Name] = t
}

// Get looks up a table by name
func (s *Set) Get(name string) (*Table, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.tables[name]
	return t, ok
}

// Remove deletes a table and reports whether it existed
func (s *Set) Remove(name string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.tables[name]; !ok {
		return false
	}
	delete(s.tables, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of tables
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Names returns the table names in order
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Tables returns the tables in order
func (s *Set) Tables() []*Table {
	if s == nil {
		return nil
	}
	out := make([]*Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}

// First returns the first table
func (s *Set) First() (*Table, bool) {
	if s.Len() == 0 {
		return nil, false
	}
	return s.tables[s.order[0]], true
}

// Clone deep-copies every table
func (s *Set) Clone() *Set {
	out := NewSet()
	for _, t := range s.Tables() {
		out.Put(t.Clone())
	}
	return out
}
