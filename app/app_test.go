package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sheetsort/adapters/excel"
	"sheetsort/adapters/filestore"
	"sheetsort/adapters/memory"
	"sheetsort/domain/core"
	"sheetsort/domain/table"
	"sheetsort/domain/workbook"
	"sheetsort/internal/config"
	apperrors "sheetsort/internal/errors"
	"sheetsort/internal/profiles"
	"sheetsort/internal/session"
	"sheetsort/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const praxisCSV = "Name,Praxis,Wert\nA,Nord,1\nB,Süd,2\nC,Nord,3\n"

type fixture struct {
	store        *memory.Store
	locker       *session.Locker
	sessions     *session.Store
	upload       *UploadService
	sheets       *SheetService
	backups      *BackupService
	distribution *DistributionService
	workbooks    *WorkbookService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	locker := session.NewLocker(0)
	sessions := session.NewStore(0)
	codec := excel.NewCodec(excel.DefaultConfig())
	files, err := filestore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	limits := config.UploadConfig{MaxBytes: 1 << 20, AllowedExtensions: []string{".xlsx", ".xlsm", ".csv"}}
	backups := NewBackupService(store.Workbooks(), store.Backups(), codec, files, locker)
	return &fixture{
		store:        store,
		locker:       locker,
		sessions:     sessions,
		upload:       NewUploadService(store.Workbooks(), codec, locker, limits),
		sheets:       NewSheetService(store.Workbooks(), locker),
		backups:      backups,
		distribution: NewDistributionService(store.Workbooks(), backups, profiles.Builtin(), locker, true, profiles.DefaultName),
		workbooks:    NewWorkbookService(store.Workbooks(), sessions, locker),
	}
}

func (f *fixture) uploadCSV(t *testing.T, name, content string) session.Context {
	t.Helper()
	result, err := f.upload.Upload(context.Background(), name, strings.NewReader(content))
	require.NoError(t, err)
	return result.Session()
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperrors.GetCode(err), "error: %v", err)
}

func userMessage(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Message
}

func TestUploadStoresSheets(t *testing.T) {
	f := newFixture(t)

	result, err := f.upload.Upload(context.Background(), "liste.csv", strings.NewReader(praxisCSV))
	require.NoError(t, err)

	assert.False(t, result.Reused)
	assert.Equal(t, []string{"liste"}, result.Sheets)
	assert.Equal(t, `Datei "liste.csv" erfolgreich hochgeladen`, result.Message())
	assert.Equal(t, 1, result.Workbook.Metadata.SheetCount)

	sc := result.Session()
	assert.Equal(t, result.Workbook.ID, sc.WorkbookID)
	assert.Equal(t, "liste", sc.ActiveSheet)

	sheet, err := f.sheets.Sheet(context.Background(), sc, "liste")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Praxis", "Wert"}, sheet.Columns)
	assert.Equal(t, 3, sheet.Len())
}

func TestUploadReusesWorkbookForSameContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.upload.Upload(ctx, "liste.csv", strings.NewReader(praxisCSV))
	require.NoError(t, err)
	_, err = f.distribution.Distribute(ctx, first.Session(), "")
	require.NoError(t, err)

	second, err := f.upload.Upload(ctx, "liste.csv", strings.NewReader(praxisCSV))
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.Workbook.ID, second.Workbook.ID)
	assert.Equal(t, []string{"liste", "Nord", "Süd"}, second.Workbook.Metadata.SheetNames)

	list, err := f.workbooks.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.upload.Upload(ctx, "", strings.NewReader(praxisCSV))
	assertCode(t, err, apperrors.CodeInvalidInput)
	assert.Equal(t, "Keine Datei ausgewählt", userMessage(t, err))

	_, err = f.upload.Upload(ctx, "liste.pdf", strings.NewReader(praxisCSV))
	assertCode(t, err, apperrors.CodeUnsupportedFile)

	_, err = f.upload.Upload(ctx, "leer.csv", strings.NewReader(""))
	assertCode(t, err, apperrors.CodeInvalidInput)

	_, err = f.upload.Upload(ctx, "kaputt.xlsx", strings.NewReader("not a zip archive"))
	assertCode(t, err, apperrors.CodeInvalidInput)
	assert.Equal(t, "Fehler beim Laden der Excel-Datei", userMessage(t, err))
}

type failingSheetStore struct {
	ports.WorkbookRepository
	err error
}

func (s failingSheetStore) SaveSheets(ctx context.Context, id core.ID, tables ...*table.Table) error {
	return s.err
}

func TestUploadRemovesWorkbookWhenSheetsFail(t *testing.T) {
	store := memory.NewStore()
	repo := failingSheetStore{WorkbookRepository: store.Workbooks(), err: errors.New("disk full")}
	limits := config.UploadConfig{MaxBytes: 1 << 20, AllowedExtensions: []string{".csv"}}
	upload := NewUploadService(repo, excel.NewCodec(excel.DefaultConfig()), session.NewLocker(0), limits)

	_, err := upload.Upload(context.Background(), "liste.csv", strings.NewReader(praxisCSV))
	assertCode(t, err, apperrors.CodeDatabaseError)

	list, err := store.Workbooks().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUploadRejectsLargeFile(t *testing.T) {
	f := newFixture(t)
	f.upload.limits.MaxBytes = 10

	_, err := f.upload.Upload(context.Background(), "liste.csv", strings.NewReader(praxisCSV))
	assertCode(t, err, apperrors.CodeFileTooLarge)
}

func TestDistributeCreatesAndMergesSheets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.uploadCSV(t, "liste.csv", praxisCSV)

	result, err := f.distribution.Distribute(ctx, sc, "")
	require.NoError(t, err)
	assert.Equal(t, "Verteilung abgeschlossen: 2 neue Sheets erstellt, 3 Zeilen hinzugefügt", result.Message())
	assert.Equal(t, []string{"Nord", "Süd"}, result.NewSheets())
	assert.Equal(t, []string{"liste", "Nord", "Süd"}, result.Sheets)
	assert.False(t, result.BackupID.IsEmpty())

	names, err := f.sheets.Sheets(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, []string{"liste", "Nord", "Süd"}, names)

	nord, err := f.sheets.Sheet(ctx, sc, "Nord")
	require.NoError(t, err)
	assert.Equal(t, 2, nord.Len())

	again, err := f.distribution.Distribute(ctx, sc, "")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Report.SheetsCreated)
	assert.Equal(t, 0, again.Report.RowsAdded)
	assert.Equal(t, 3, again.Report.DuplicatesSkipped)

	nord, err = f.sheets.Sheet(ctx, sc, "Nord")
	require.NoError(t, err)
	assert.Equal(t, 2, nord.Len())

	backups, err := f.backups.List(ctx, sc.WorkbookID)
	require.NoError(t, err)
	assert.Len(t, backups, 2)
	for _, b := range backups {
		assert.Equal(t, workbook.BackupAuto, b.Kind)
	}
}

func TestDistributeKeepsEditsOfDerivedSheets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.uploadCSV(t, "liste.csv", praxisCSV)

	_, err := f.distribution.Distribute(ctx, sc, "")
	require.NoError(t, err)
	require.NoError(t, f.sheets.SetRowColor(ctx, sc, "Nord", 0, "#ffeb3b"))

	_, err = f.distribution.Distribute(ctx, sc, "")
	require.NoError(t, err)

	nord, err := f.sheets.Sheet(ctx, sc, "Nord")
	require.NoError(t, err)
	assert.Equal(t, "#FFEB3B", nord.Color(0))
}

func TestDistributeFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.uploadCSV(t, "einspaltig.csv", "Name\nA\nB\n")

	_, err := f.distribution.Distribute(ctx, sc, "")
	assertCode(t, err, apperrors.CodeDistributionFailed)
	assert.Contains(t, userMessage(t, err), "Nicht genügend Spalten")

	names, err := f.sheets.Sheets(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, []string{"einspaltig"}, names)

	backups, err := f.backups.List(ctx, sc.WorkbookID)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestDistributeErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.distribution.Distribute(ctx, session.Context{}, "")
	assertCode(t, err, apperrors.CodeInvalidInput)
	assert.Equal(t, "Keine Datei geladen", userMessage(t, err))

	sc := f.uploadCSV(t, "liste.csv", praxisCSV)

	_, err = f.distribution.Distribute(ctx, sc, "gibtsnicht")
	assertCode(t, err, apperrors.CodeInvalidInput)

	// the dashboard profile needs a sheet named Dashboard
	_, err = f.distribution.Distribute(ctx, sc, "dashboard")
	assertCode(t, err, apperrors.CodeInvalidInput)
	assert.Equal(t, "Keine Daten zum Sortieren gefunden", userMessage(t, err))
}

func TestDistributeWaitsForWorkbookLock(t *testing.T) {
	f := newFixture(t)
	sc := f.uploadCSV(t, "liste.csv", praxisCSV)

	release, err := f.locker.Lock(context.Background(), sc.WorkbookID)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = f.distribution.Distribute(ctx, sc, "")
	assertCode(t, err, apperrors.CodeConflict)
}

func TestSheetEditing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.uploadCSV(t, "liste.csv", praxisCSV)

	edited, err := f.sheets.EditCell(ctx, sc, "liste", 1, "Wert", "20")
	require.NoError(t, err)
	assert.Equal(t, "20", edited.Rows[1].Get("Wert").String())

	index, err := f.sheets.AddRow(ctx, sc, "liste")
	require.NoError(t, err)
	assert.Equal(t, 3, index)

	require.NoError(t, f.sheets.DeleteRow(ctx, sc, "liste", 0))
	require.NoError(t, f.sheets.SetRowColor(ctx, sc, "liste", 0, "#00ff00"))

	sheet, err := f.sheets.Sheet(ctx, sc, "liste")
	require.NoError(t, err)
	assert.Equal(t, 3, sheet.Len())
	assert.Equal(t, "B", sheet.Rows[0].Get("Name").String())
	assert.Equal(t, "#00FF00", sheet.Color(0))

	require.NoError(t, f.sheets.ClearRowColor(ctx, sc, "liste", 0))
	sheet, err = f.sheets.Sheet(ctx, sc, "liste")
	require.NoError(t, err)
	assert.Empty(t, sheet.Color(0))
}

func TestSheetEditingErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.uploadCSV(t, "liste.csv", praxisCSV)

	_, err := f.sheets.Sheet(ctx, sc, "fehlt")
	assertCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, "Sheet nicht gefunden", userMessage(t, err))

	_, err = f.sheets.EditCell(ctx, sc, "liste", 99, "Wert", "1")
	assertCode(t, err, apperrors.CodeInvalidInput)

	_, err = f.sheets.EditCell(ctx, sc, "liste", 0, "Unbekannt", "1")
	assertCode(t, err, apperrors.CodeInvalidInput)

	err = f.sheets.SetRowColor(ctx, sc, "liste", 0, "gelb")
	assertCode(t, err, apperrors.CodeInvalidInput)

	_, err = f.sheets.Sheets(ctx, session.Context{})
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestSheetProfile(t *testing.T) {
	f := newFixture(t)
	sc := f.uploadCSV(t, "liste.csv", praxisCSV)

	profile, err := f.sheets.Profile(context.Background(), sc, "liste")
	require.NoError(t, err)
	assert.Equal(t, 3, profile.Rows)
	require.Len(t, profile.Columns, 3)

	wert := profile.Columns[2]
	assert.Equal(t, "Wert", wert.Column)
	assert.Equal(t, 3, wert.Numeric)
	require.NotNil(t, wert.Summary)
	assert.InDelta(t, 2.0, wert.Summary.Mean, 1e-9)
}

func TestBackupRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.uploadCSV(t, "liste.csv", praxisCSV)

	manual, err := f.backups.Create(ctx, sc.WorkbookID, workbook.BackupManual)
	require.NoError(t, err)
	assert.Equal(t, 1, manual.SheetCount)
	assert.Equal(t, "Backup erfolgreich erstellt (ID: "+manual.ID.String()+")", BackupCreatedMessage(manual))

	_, err = f.distribution.Distribute(ctx, sc, "")
	require.NoError(t, err)
	_, err = f.sheets.EditCell(ctx, sc, "liste", 0, "Name", "Z")
	require.NoError(t, err)

	restored, err := f.backups.Restore(ctx, manual.ID)
	require.NoError(t, err)
	assert.Equal(t, manual.ID, restored.ID)

	names, err := f.sheets.Sheets(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, []string{"liste"}, names)

	sheet, err := f.sheets.Sheet(ctx, sc, "liste")
	require.NoError(t, err)
	assert.Equal(t, "A", sheet.Rows[0].Get("Name").String())

	wb, err := f.store.Workbooks().GetByID(ctx, sc.WorkbookID)
	require.NoError(t, err)
	assert.Equal(t, 1, wb.Metadata.SheetCount)

	_, err = f.backups.Restore(ctx, core.NewID())
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestExportWritesWorkbook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.uploadCSV(t, "liste.csv", praxisCSV)
	_, err := f.distribution.Distribute(ctx, sc, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.backups.Export(ctx, sc.WorkbookID, &buf))

	sheets, err := excel.NewCodec(excel.DefaultConfig()).ReadWorkbook(&buf, "export.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"liste", "Nord", "Süd"}, sheets.Names())
}

func TestWriteDailySnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.uploadCSV(t, "liste.csv", praxisCSV)
	f.backups.now = func() time.Time { return time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC) }

	key, written, err := f.backups.WriteDailySnapshot(ctx, sc.WorkbookID)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, "liste_backup_2024-03-09.xlsx", key)

	key, written, err = f.backups.WriteDailySnapshot(ctx, sc.WorkbookID)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, "liste_backup_2024-03-09.xlsx", key)
}

func TestWorkbookOpenAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.uploadCSV(t, "liste.csv", praxisCSV)

	opened, err := f.workbooks.Open(ctx, sc.WorkbookID)
	require.NoError(t, err)
	assert.Equal(t, sc, opened)

	_, err = f.sheets.AddRow(ctx, opened, "liste")
	require.NoError(t, err)
	require.Equal(t, 1, f.locker.Len())

	f.sessions.Put("s1", opened)
	require.NoError(t, f.workbooks.Delete(ctx, sc.WorkbookID))
	assert.False(t, f.sessions.Get("s1").HasWorkbook())
	assert.Equal(t, 0, f.locker.Len())

	_, err = f.workbooks.Open(ctx, sc.WorkbookID)
	assertCode(t, err, apperrors.CodeNotFound)

	err = f.workbooks.Delete(ctx, sc.WorkbookID)
	assertCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, 0, f.locker.Len())
}
