package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "source.db")
	storagePath := filepath.Join(tempDir, "backups")

	logger := zerolog.Nop()
	db, err := NewDB(config.DatabaseConfig{Driver: config.DriverSQLite, Path: dbPath, LogLevel: "silent"}, &logger)
	require.NoError(t, err)
	createUser(t, db, "alice")
	require.NoError(t, db.Close())

	cfg := config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}
	s := NewBackupService(dbPath, cfg, &logger)

	t.Run("PerformBackup", func(t *testing.T) {
		report, err := s.PerformBackup(context.Background())
		require.NoError(t, err)
		assert.FileExists(t, report.Path)
		assert.Positive(t, report.Size)
		assert.Equal(t, int64(1), report.Users)
		assert.Zero(t, report.Bookings)

		restored, err := NewDB(config.DatabaseConfig{Driver: config.DriverSQLite, Path: report.Path, LogLevel: "silent"}, &logger)
		require.NoError(t, err)
		defer restored.Close()

		users, err := restored.ListUsers(context.Background())
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldTime := time.Now().AddDate(0, 0, -3)
		olderTime := time.Now().AddDate(0, 0, -4)

		old := filepath.Join(storagePath, backupPrefix+"old.db")
		older := filepath.Join(storagePath, backupPrefix+"older.db")
		notes := filepath.Join(storagePath, "README.db")
		for _, f := range []string{old, older, notes} {
			require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
		}
		require.NoError(t, os.Chtimes(old, oldTime, oldTime))
		require.NoError(t, os.Chtimes(older, olderTime, olderTime))
		require.NoError(t, os.Chtimes(notes, olderTime, olderTime))

		s.CleanupOldBackups()

		assert.NoFileExists(t, old)
		assert.NoFileExists(t, older)
		assert.FileExists(t, notes, "foreign files are left alone")
	})

	t.Run("NewestSnapshotSurvives", func(t *testing.T) {
		dir := t.TempDir()
		only := filepath.Join(dir, backupPrefix+"only.db")
		require.NoError(t, os.WriteFile(only, []byte("x"), 0o644))
		oldTime := time.Now().AddDate(0, 0, -30)
		require.NoError(t, os.Chtimes(only, oldTime, oldTime))

		keeper := NewBackupService(dbPath, config.BackupConfig{StoragePath: dir, RetentionDays: 1}, &logger)
		keeper.CleanupOldBackups()
		assert.FileExists(t, only)
	})
}

func TestBackupService_MissingSource(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()
	s := NewBackupService(filepath.Join(dir, "missing", "nope.db"), config.BackupConfig{StoragePath: filepath.Join(dir, "b")}, &logger)

	_, err := s.PerformBackup(context.Background())
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "b"))
	require.NoError(t, err)
	assert.Empty(t, entries, "failed snapshots are not kept")
}

func TestBackupService_Disabled(_ *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService("any", config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}

func TestNewBackupServiceFor(t *testing.T) {
	logger := zerolog.Nop()
	mem := setupTestDB(t)
	assert.Nil(t, NewBackupServiceFor(mem, config.BackupConfig{Enabled: true}, &logger))

	var nilService *BackupService
	assert.NotPanics(t, func() { nilService.Start(context.Background()) })
}
