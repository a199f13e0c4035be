package container

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sheetsort/internal/config"
	apperrors "sheetsort/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, driver, url string) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{Driver: driver, URL: url},
		Server:   config.ServerConfig{SessionTTL: time.Hour},
		Upload:   config.UploadConfig{MaxBytes: 1 << 20, AllowedExtensions: []string{".csv"}},
		Backup:   config.BackupConfig{Dir: filepath.Join(t.TempDir(), "backups"), OnDistribute: true},
		Distribution: config.DistributionConfig{
			DefaultProfile: "default",
			GroupKeyIndex:  1,
		},
	}
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNewRejectsUnknownDefaultProfile(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory, "")
	cfg.Distribution.DefaultProfile = "fehlt"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestInitWiresServices(t *testing.T) {
	for _, tc := range []struct {
		name   string
		driver string
		url    string
	}{
		{name: "memory", driver: config.DriverMemory},
		{name: "sqlite", driver: config.DriverSQLite, url: "file:" + filepath.Join(t.TempDir(), "test.db")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			c, err := New(testConfig(t, tc.driver, tc.url))
			require.NoError(t, err)
			require.NoError(t, c.Init(ctx))
			defer c.Shutdown(ctx)

			require.NotNil(t, c.Files)
			result, err := c.Uploads.Upload(ctx, "liste.csv", strings.NewReader("Name,Praxis\nA,Nord\nB,Süd\n"))
			require.NoError(t, err)

			distributed, err := c.Distribution.Distribute(ctx, result.Session(), "")
			require.NoError(t, err)
			assert.Equal(t, []string{"liste", "Nord", "Süd"}, distributed.Sheets)

			key, written, err := c.Backups.WriteDailySnapshot(ctx, result.Workbook.ID)
			require.NoError(t, err)
			assert.True(t, written)
			exists, err := c.Files.Exists(ctx, key)
			require.NoError(t, err)
			assert.True(t, exists)
		})
	}
}

func TestGroupKeyIndexOverridesDefaultProfile(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory, "")
	cfg.Distribution.GroupKeyIndex = 2

	c, err := New(cfg)
	require.NoError(t, err)

	profile, err := c.Profiles.Get("")
	require.NoError(t, err)
	assert.Equal(t, 2, profile.GroupKeyIndex)
}

func TestLockTimeoutBoundsBusyWorkbook(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.DriverMemory, "")
	cfg.Server.LockTimeout = 20 * time.Millisecond

	c, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Init(ctx))
	defer c.Shutdown(ctx)

	result, err := c.Uploads.Upload(ctx, "liste.csv", strings.NewReader("Name,Praxis\nA,Nord\n"))
	require.NoError(t, err)

	release, err := c.Locker.Lock(ctx, result.Workbook.ID)
	require.NoError(t, err)
	defer release()

	start := time.Now()
	_, err = c.Distribution.Distribute(ctx, result.Session(), "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.GetCode(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}
