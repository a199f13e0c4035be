// Package session holds the per-user view state (active workbook and sheet)
// that the HTTP layer passes explicitly into every service call.
package session

import (
	"sync"
	"time"

	"sheetsort/domain/core"

	"github.com/google/uuid"
)

// Context is the explicit session state of one user
type Context struct {
	WorkbookID  core.ID `json:"workbook_id,omitempty"`
	Filename    string  `json:"filename,omitempty"`
	ActiveSheet string  `json:"active_sheet,omitempty"`
}

// HasWorkbook reports whether a workbook is open
func (c Context) HasWorkbook() bool {
	return !c.WorkbookID.IsEmpty()
}

type entry struct {
	ctx      Context
	lastSeen time.Time
}

// Store maps opaque session ids to contexts. Entries idle for longer than
// the TTL are dropped lazily.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// NewStore creates a session store; ttl <= 0 disables expiry
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// NewID returns a fresh session id
func NewID() string {
	return uuid.NewString()
}

// Get returns the context for id, or an empty context
func (s *Store) Get(id string) Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return Context{}
	}
	if s.expired(e) {
		delete(s.entries, id)
		return Context{}
	}
	e.lastSeen = s.now()
	s.entries[id] = e
	return e.ctx
}

// Put stores ctx under id
func (s *Store) Put(id string, ctx Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = entry{ctx: ctx, lastSeen: s.now()}
	s.sweep()
}

// Delete forgets id
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// ForgetWorkbook clears the workbook from every session that has it open
func (s *Store) ForgetWorkbook(workbookID core.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if e.ctx.WorkbookID == workbookID {
			e.ctx = Context{}
			s.entries[id] = e
		}
	}
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.entries)
}

func (s *Store) expired(e entry) bool {
	return s.ttl > 0 && s.now().Sub(e.lastSeen) > s.ttl
}

func (s *Store) sweep() {
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
		}
	}
}
