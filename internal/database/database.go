package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/logging"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB is the GORM-backed implementation of domain.Repository.
type DB struct {
	gorm   *gorm.DB
	driver string
	path   string
	logger *zerolog.Logger
}

var _ domain.Repository = (*DB)(nil)

// NewDB opens the configured database and migrates the schema.
func NewDB(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	log := logging.Component(logger, "database")

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:          logging.NewGormLogger(logger, cfg.LogLevel),
		NowFunc:         func() time.Time { return time.Now().UTC() },
		TranslateError:  true,
		PrepareStmt:     false,
		CreateBatchSize: 100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	switch cfg.Driver {
	case config.DriverSQLite:
		// SQLite allows one writer; a single connection keeps transactions serialized.
		sqlDB.SetMaxOpenConns(1)
	case config.DriverPostgres:
		if cfg.Postgres.MaxConnections > 0 {
			sqlDB.SetMaxOpenConns(cfg.Postgres.MaxConnections)
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.ItemRequest{},
		&models.Item{},
		&models.Booking{},
		&models.Comment{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info().Str("driver", cfg.Driver).Msg("database initialized")
	return &DB{gorm: gdb, driver: cfg.Driver, path: cfg.Path, logger: log}, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		if cfg.Path == "" {
			return nil, errors.New("sqlite path is required")
		}
		if !isMemoryPath(cfg.Path) {
			// Создаем директорию для БД, если её нет
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.Postgres.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// WithinTx runs fn inside a database transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(tx domain.Repository) error) error {
	return db.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{gorm: tx, driver: db.driver, path: db.path, logger: db.logger})
	})
}

func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) Close() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Path returns the SQLite file path, empty for other drivers.
func (db *DB) Path() string {
	if db.driver != config.DriverSQLite {
		return ""
	}
	return db.path
}

// notFound converts GORM's missing-row error into the domain sentinel.
func notFound(err error, what string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, what, id)
	}
	return err
}
