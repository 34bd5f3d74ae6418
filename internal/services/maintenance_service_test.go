package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/f1rq/LifeMap/config"
)

type fakeCounter struct {
	count int64
	err   error
}

func (f *fakeCounter) Count(ctx context.Context) (int64, error) {
	return f.count, f.err
}

func TestBackupDatabaseCopiesFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "lifemap.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite payload"), 0o644))

	backupDir := filepath.Join(dir, "backups")
	service := NewMaintenanceService(&fakeCounter{}, config.BackupConfig{
		Enabled: true,
		Dir:     backupDir,
		Retain:  7,
	}, dbPath)

	require.NoError(t, service.BackupDatabase(context.Background()))

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(backupDir, entries[0].Name()))
	require.NoError(t, err)
	require.Equal(t, []byte("sqlite payload"), data)
}

func TestBackupDatabaseDisabledIsNoOp(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	service := NewMaintenanceService(&fakeCounter{}, config.BackupConfig{
		Enabled: false,
		Dir:     backupDir,
	}, filepath.Join(dir, "missing.db"))

	require.NoError(t, service.BackupDatabase(context.Background()))
	require.NoDirExists(t, backupDir)
}

func TestBackupDatabasePrunesBeyondRetention(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "lifemap.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))

	// Older timestamped backups already on disk
	stale := []string{
		"lifemap-20240101-000000.db",
		"lifemap-20240102-000000.db",
		"lifemap-20240103-000000.db",
	}
	for _, name := range stale {
		require.NoError(t, os.WriteFile(filepath.Join(backupDir, name), []byte("old"), 0o644))
	}

	service := NewMaintenanceService(&fakeCounter{}, config.BackupConfig{
		Enabled: true,
		Dir:     backupDir,
		Retain:  2,
	}, dbPath)

	require.NoError(t, service.BackupDatabase(context.Background()))

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// The oldest backups are the ones removed
	require.NoFileExists(t, filepath.Join(backupDir, stale[0]))
	require.NoFileExists(t, filepath.Join(backupDir, stale[1]))
}

func TestLogStats(t *testing.T) {
	service := NewMaintenanceService(&fakeCounter{count: 3}, config.BackupConfig{}, "")
	require.NoError(t, service.LogStats(context.Background()))

	failing := NewMaintenanceService(&fakeCounter{err: errors.New("locked")}, config.BackupConfig{}, "")
	require.Error(t, failing.LogStats(context.Background()))
}
