package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/logging"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const backupPrefix = "shareit_"

// BackupReport describes one verified snapshot.
type BackupReport struct {
	Path     string
	Size     int64
	Users    int64
	Items    int64
	Bookings int64
}

// BackupService takes periodic online snapshots of a SQLite database file.
type BackupService struct {
	dbPath string
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBackupService(dbPath string, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		dbPath: dbPath,
		config: cfg,
		logger: logging.Component(logger, "backup"),
		now:    time.Now,
	}
}

// NewBackupServiceFor returns nil when db is not file-backed SQLite.
func NewBackupServiceFor(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	if db.Path() == "" || isMemoryPath(db.Path()) {
		return nil
	}
	return NewBackupService(db.Path(), cfg, logger)
}

// Start snapshots once, then on every tick of the schedule until ctx is done.
func (s *BackupService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if !s.config.Enabled {
		s.logger.Info().Msg("backups disabled")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("dir", s.config.StoragePath).Msg("backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *BackupService) interval() time.Duration {
	if s.config.Schedule == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(s.config.Schedule)
	if err != nil || d <= 0 {
		s.logger.Warn().Err(err).Str("schedule", s.config.Schedule).Msg("bad backup schedule, using 24h")
		return 24 * time.Hour
	}
	return d
}

func (s *BackupService) runOnce(ctx context.Context) {
	report, err := s.PerformBackup(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("backup failed")
		return
	}
	s.logger.Info().
		Str("path", report.Path).
		Int64("size", report.Size).
		Int64("users", report.Users).
		Int64("items", report.Items).
		Int64("bookings", report.Bookings).
		Msg("backup completed")
	s.CleanupOldBackups()
}

// PerformBackup writes a VACUUM INTO snapshot and checks that it opens cleanly.
// A snapshot that fails the check is removed.
func (s *BackupService) PerformBackup(ctx context.Context) (*BackupReport, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	name := backupPrefix + s.now().UTC().Format("20060102_150405.000") + ".db"
	path := filepath.Join(s.config.StoragePath, name)

	src, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open source database: %w", err)
	}
	defer src.Close()

	if _, err := src.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("vacuum into %s: %w", path, err)
	}

	report, err := verifySnapshot(ctx, path)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return report, nil
}

func verifySnapshot(ctx context.Context, path string) (*BackupReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}

	snap, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer snap.Close()

	var verdict string
	if err := snap.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&verdict); err != nil {
		return nil, fmt.Errorf("integrity check: %w", err)
	}
	if verdict != "ok" {
		return nil, fmt.Errorf("snapshot %s is corrupt: %s", path, verdict)
	}

	report := &BackupReport{Path: path, Size: info.Size()}
	counts := []struct {
		table string
		dst   *int64
	}{
		{"users", &report.Users},
		{"items", &report.Items},
		{"bookings", &report.Bookings},
	}
	for _, c := range counts {
		if err := snap.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return report, nil
}

// CleanupOldBackups removes snapshots older than the retention period.
// The newest snapshot always survives, whatever its age.
func (s *BackupService) CleanupOldBackups() {
	if s.config.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error().Err(err).Msg("read backup dir")
		}
		return
	}

	type snapshot struct {
		name    string
		modTime time.Time
	}
	var snaps []snapshot
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) || filepath.Ext(e.Name()) != ".db" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, snapshot{name: e.Name(), modTime: info.ModTime()})
	}
	if len(snaps) <= 1 {
		return
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].modTime.After(snaps[j].modTime) })

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	for _, snap := range snaps[1:] {
		if !snap.modTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.config.StoragePath, snap.name)); err != nil {
			s.logger.Warn().Err(err).Str("file", snap.name).Msg("delete old backup")
			continue
		}
		s.logger.Info().Str("file", snap.name).Msg("old backup deleted")
	}
}
