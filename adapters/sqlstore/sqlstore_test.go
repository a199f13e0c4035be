package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsort/domain/core"
	"sheetsort/domain/table"
	"sheetsort/domain/workbook"
	"sheetsort/internal/config"
	"sheetsort/internal/database"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sheet(name string, keys ...string) *table.Table {
	t := table.New(name, "Nr", "Praxis")
	for i, key := range keys {
		t.Append(table.Row{"Nr": table.Number(float64(i + 1)), "Praxis": table.Text(key)})
	}
	return t
}

func TestWorkbookRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkbookRepository(openTestDB(t))

	wb := workbook.New("praxen.xlsx", core.NewHash([]byte("praxen")))
	wb.Metadata = workbook.Metadata{SheetCount: 1, SheetNames: []string{"Tabelle1"}}
	require.NoError(t, repo.Create(ctx, wb))

	got, err := repo.GetByID(ctx, wb.ID)
	require.NoError(t, err)
	assert.Equal(t, wb.Filename, got.Filename)
	assert.Equal(t, wb.Hash, got.Hash)
	assert.Equal(t, 1, got.Metadata.SheetCount)
	assert.WithinDuration(t, wb.UploadedAt, got.UploadedAt, time.Second)

	byHash, err := repo.GetByHash(ctx, wb.Hash)
	require.NoError(t, err)
	assert.Equal(t, wb.ID, byHash.ID)

	// the fingerprint is unique
	dup := workbook.New("copy.xlsx", wb.Hash)
	assert.Error(t, repo.Create(ctx, dup))

	require.NoError(t, repo.UpdateMetadata(ctx, wb.ID, workbook.Metadata{SheetCount: 3}))
	got, err = repo.GetByID(ctx, wb.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Metadata.SheetCount)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.GetByID(ctx, core.NewID())
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestSaveSheetsUpsertKeepsPositions(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkbookRepository(openTestDB(t))

	wb := workbook.New("praxen.xlsx", core.NewHash([]byte("a")))
	require.NoError(t, repo.Create(ctx, wb))
	require.NoError(t, repo.SaveSheets(ctx, wb.ID, sheet("Tabelle1", "Nord", "Süd"), sheet("Nord", "Nord")))

	nord := sheet("Nord", "Nord", "Nord")
	require.NoError(t, nord.SetColor(0, "#ffcc00"))
	require.NoError(t, repo.SaveSheets(ctx, wb.ID, sheet("Süd", "Süd"), nord))

	sheets, err := repo.LoadSheets(ctx, wb.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tabelle1", "Nord", "Süd"}, sheets.Names())

	got, _ := sheets.Get("Nord")
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, []string{"Nr", "Praxis"}, got.Columns)
	assert.Equal(t, "#FFCC00", got.Color(0))
	assert.Equal(t, table.KindNumber, got.Rows[0].Get("Nr").Kind())

	require.NoError(t, repo.DeleteSheet(ctx, wb.ID, "Süd"))
	assert.True(t, errors.Is(repo.DeleteSheet(ctx, wb.ID, "Süd"), core.ErrSheetNotFound))

	err = repo.SaveSheets(ctx, core.NewID(), sheet("X"))
	assert.True(t, errors.Is(err, core.ErrWorkbookNotFound))
}

func TestBackupRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	workbooks := NewWorkbookRepository(db)
	backups := NewBackupRepository(db)

	wb := workbook.New("praxen.xlsx", core.NewHash([]byte("b")))
	require.NoError(t, workbooks.Create(ctx, wb))

	first := workbook.NewBackup(wb.ID, workbook.BackupManual, 1)
	require.NoError(t, backups.Create(ctx, first, table.NewSet(sheet("Tabelle1", "Nord"))))

	second := workbook.NewBackup(wb.ID, workbook.BackupAuto, 2)
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	require.NoError(t, backups.Create(ctx, second, table.NewSet(sheet("Tabelle1", "Nord"), sheet("Nord", "Nord"))))

	list, err := backups.List(ctx, wb.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, workbook.BackupAuto, list[0].Kind)

	restored, err := backups.Load(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tabelle1", "Nord"}, restored.Names())

	meta, err := backups.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, meta.SheetCount)

	invalid := workbook.NewBackup(wb.ID, "weekly", 0)
	assert.Error(t, backups.Create(ctx, invalid, table.NewSet()))

	_, err = backups.Load(ctx, core.NewID())
	assert.True(t, errors.Is(err, core.ErrBackupNotFound))

	// deleting the workbook removes its backups
	require.NoError(t, workbooks.Delete(ctx, wb.ID))
	list, err = backups.List(ctx, wb.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, errors.Is(workbooks.Delete(ctx, wb.ID), core.ErrWorkbookNotFound))
}
