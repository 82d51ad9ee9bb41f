package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMigrationFiles_SortedSQLOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_index.sql", "001_kv_entries.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700))

	files, err := migrationFiles(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{"001_kv_entries.sql", "002_index.sql"}, files)
}

func TestMigrationFiles_MissingDir(t *testing.T) {
	_, err := migrationFiles(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorContains(t, err, "read migrations")
}

func TestMigrationFiles_ShippedMigrations(t *testing.T) {
	files, err := migrationFiles(filepath.Join("..", "..", MigrationsDir))

	require.NoError(t, err)
	assert.Contains(t, files, "001_kv_entries.sql")
}

func TestRunMigrations_SkipsWithoutPool(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	require.NoError(t, RunMigrations(context.Background(), nil, "does-not-matter", zap.New(core)))
	assert.Equal(t, 1, logs.FilterMessage("no postgres pool available; skipping cache migrations").Len())
}
