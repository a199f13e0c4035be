package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetsort/internal/config"
	"sheetsort/internal/migration"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := OpenAndMigrate(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, URL: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	var version string
	require.NoError(t, db.GetContext(ctx, &version, `SELECT version FROM schema_migrations`))
	assert.Equal(t, "1.0.0", version)

	// migrations are idempotent
	require.NoError(t, migration.NewRunner().Run(ctx, db))
}

func TestOpenRejectsMemoryDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: config.DriverMemory})
	assert.Error(t, err)
}
