package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "DATABASE_DRIVER", "UPLOAD_MAX_BYTES", "UPLOAD_EXTENSIONS", "BACKUP_ON_DISTRIBUTE", "GROUP_KEY_INDEX", "LOCK_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, int64(16<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, []string{".xlsx", ".xlsm", ".csv"}, cfg.Upload.AllowedExtensions)
	assert.True(t, cfg.Backup.OnDistribute)
	assert.Equal(t, 1, cfg.Distribution.GroupKeyIndex)
	assert.Equal(t, "sheetsort_session", cfg.Server.SessionCookie)
	assert.Equal(t, 30*time.Second, cfg.Server.LockTimeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://user:pw@localhost/sheetsort?sslmode=disable")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("UPLOAD_EXTENSIONS", "XLSX, csv")
	t.Setenv("BACKUP_ON_DISTRIBUTE", "false")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("LOCK_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, []string{".xlsx", ".csv"}, cfg.Upload.AllowedExtensions)
	assert.False(t, cfg.Backup.OnDistribute)
	assert.Equal(t, 90*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, 5*time.Second, cfg.Server.LockTimeout)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)
}
