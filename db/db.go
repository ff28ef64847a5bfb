package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ajmalps/trovebot/db/models"
)

// Open connects to the sqlite database described by cfg and, when
// cfg.AutoMigrate is set, migrates the schema.
func Open(cfg Config) (*gorm.DB, error) {
	dsn, err := ResolveSQLiteDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("resolve dsn: %w", err)
	}

	gdb, err := gorm.Open(sqlite.Open(withPragmas(dsn, cfg.SQLite)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	}
	if cfg.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	}
	if cfg.Pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	}

	if cfg.AutoMigrate {
		if err := Migrate(gdb); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return gdb, nil
}

// Migrate creates or updates the persisted schema.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.Participant{},
		&models.Group{},
		&models.FileEntry{},
		&models.DeleteJob{},
		&models.BroadcastSession{},
		&models.BannedWord{},
	)
}

func withPragmas(dsn string, cfg SQLiteConfig) string {
	var pragmas []string
	if cfg.BusyTimeoutMs > 0 {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeoutMs))
	}
	if cfg.WAL {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	if cfg.ForeignKeys {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}
	if len(pragmas) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}
