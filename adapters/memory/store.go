// Package memory provides in-process repositories for tests and the
// "memory" database driver. Stored values are deep-copied on the way in
// and out so callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sheetsort/domain/core"
	"sheetsort/domain/table"
	"sheetsort/domain/workbook"
	"sheetsort/ports"
)

type storedBackup struct {
	meta   workbook.Backup
	sheets *table.Set
}

// Store holds workbooks, sheets and backups behind one mutex
type Store struct {
	mu        sync.RWMutex
	workbooks map[core.ID]workbook.Workbook
	sheets    map[core.ID]*table.Set
	backups   map[core.ID]storedBackup
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		workbooks: make(map[core.ID]workbook.Workbook),
		sheets:    make(map[core.ID]*table.Set),
		backups:   make(map[core.ID]storedBackup),
	}
}

// Workbooks returns the WorkbookRepository view of the store
func (s *Store) Workbooks() ports.WorkbookRepository {
	return workbookRepository{s}
}

// Backups returns the BackupRepository view of the store
func (s *Store) Backups() ports.BackupRepository {
	return backupRepository{s}
}

func copyWorkbook(wb workbook.Workbook) *workbook.Workbook {
	wb.Metadata.SheetNames = append([]string(nil), wb.Metadata.SheetNames...)
	return &wb
}

type workbookRepository struct {
	s *Store
}

func (r workbookRepository) Create(_ context.Context, wb *workbook.Workbook) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.workbooks[wb.ID]; ok {
		return fmt.Errorf("workbook %s already exists", wb.ID)
	}
	for _, existing := range r.s.workbooks {
		if existing.Hash == wb.Hash {
			return fmt.Errorf("workbook with hash %s already exists", wb.Hash.Short())
		}
	}
	r.s.workbooks[wb.ID] = *copyWorkbook(*wb)
	r.s.sheets[wb.ID] = table.NewSet()
	return nil
}

func (r workbookRepository) GetByID(_ context.Context, id core.ID) (*workbook.Workbook, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wb, ok := r.s.workbooks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrWorkbookNotFound, id)
	}
	return copyWorkbook(wb), nil
}

func (r workbookRepository) GetByHash(_ context.Context, hash core.Hash) (*workbook.Workbook, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, wb := range r.s.workbooks {
		if wb.Hash == hash {
			return copyWorkbook(wb), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrWorkbookNotFound, hash.Short())
}

func (r workbookRepository) List(_ context.Context) ([]*workbook.Workbook, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*workbook.Workbook, 0, len(r.s.workbooks))
	for _, wb := range r.s.workbooks {
		out = append(out, copyWorkbook(wb))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r workbookRepository) UpdateMetadata(_ context.Context, id core.ID, metadata workbook.Metadata) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	wb, ok := r.s.workbooks[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrWorkbookNotFound, id)
	}
	wb.Metadata = metadata
	r.s.workbooks[id] = *copyWorkbook(wb)
	return nil
}

func (r workbookRepository) Delete(_ context.Context, id core.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.workbooks[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrWorkbookNotFound, id)
	}
	for backupID, b := range r.s.backups {
		if b.meta.WorkbookID == id {
			delete(r.s.backups, backupID)
		}
	}
	delete(r.s.sheets, id)
	delete(r.s.workbooks, id)
	return nil
}

func (r workbookRepository) LoadSheets(_ context.Context, id core.ID) (*table.Set, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sheets, ok := r.s.sheets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrWorkbookNotFound, id)
	}
	return sheets.Clone(), nil
}

func (r workbookRepository) SaveSheets(_ context.Context, id core.ID, tables ...*table.Table) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sheets, ok := r.s.sheets[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrWorkbookNotFound, id)
	}
	for _, t := range tables {
		sheets.Put(t.Clone())
	}
	return nil
}

func (r workbookRepository) DeleteSheet(_ context.Context, id core.ID, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sheets, ok := r.s.sheets[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrWorkbookNotFound, id)
	}
	if !sheets.Remove(name) {
		return fmt.Errorf("%w: %s", core.ErrSheetNotFound, name)
	}
	return nil
}

type backupRepository struct {
	s *Store
}

func (r backupRepository) Create(_ context.Context, backup *workbook.Backup, sheets *table.Set) error {
	if !backup.Kind.Valid() {
		return fmt.Errorf("invalid backup type %q", backup.Kind)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.workbooks[backup.WorkbookID]; !ok {
		return fmt.Errorf("%w: %s", core.ErrWorkbookNotFound, backup.WorkbookID)
	}
	r.s.backups[backup.ID] = storedBackup{meta: *backup, sheets: sheets.Clone()}
	return nil
}

func (r backupRepository) Get(_ context.Context, id core.ID) (*workbook.Backup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.backups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrBackupNotFound, id)
	}
	meta := b.meta
	return &meta, nil
}

func (r backupRepository) Load(_ context.Context, id core.ID) (*table.Set, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.backups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrBackupNotFound, id)
	}
	return b.sheets.Clone(), nil
}

func (r backupRepository) List(_ context.Context, workbookID core.ID) ([]*workbook.Backup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*workbook.Backup, 0)
	for _, b := range r.s.backups {
		if b.meta.WorkbookID == workbookID {
			meta := b.meta
			out = append(out, &meta)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
