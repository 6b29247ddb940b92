package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"studyboard/internal/config"
	"studyboard/internal/logger"
	"studyboard/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// defaultBoardIndex backs the one-default-board-per-owner invariant.
const defaultBoardIndex = `CREATE UNIQUE INDEX IF NOT EXISTS boards_one_default_per_owner ON boards (owner_id) WHERE is_default`

// Open connects to the configured database. SQLite databases are migrated in
// place; PostgreSQL schemas are managed by package migrations.
func Open(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Gorm(log)}

	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath, gcfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// OpenSQLite opens and migrates a SQLite database. The pool is limited to one
// connection so in-memory databases are shared and writes are serialized.
func OpenSQLite(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema from the models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Board{},
		&model.List{},
		&model.Task{},
		&model.UsageCounter{},
		&model.ChatSession{},
	); err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	if err := db.Exec(defaultBoardIndex).Error; err != nil {
		return fmt.Errorf("create default board index: %w", err)
	}
	return nil
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
