package database

import (
	"fmt"
	"log/slog"

	"github.com/sangkips/recibo-api/internal/config"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database driver
func Open(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	switch cfg.Driver {
	case "postgres", "":
		return NewPostgresDB(cfg, gormCfg)
	case "sqlite":
		return NewSQLiteDB(cfg.SQLitePath, gormCfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q (use postgres or sqlite)", cfg.Driver)
	}
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	slog.Info("Connected to PostgreSQL database", "host", cfg.Host, "name", cfg.Name)
	return db, nil
}

// NewSQLiteDB opens a SQLite database. Pass "file::memory:?cache=shared" for an in-memory one
func NewSQLiteDB(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// SQLite allows a single writer; one connection avoids "database is locked"
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	slog.Info("Opened SQLite database", "path", path)
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	slog.Info("Running database migrations")

	err := db.AutoMigrate(
		// Catalog
		&entity.Filter{},
		&entity.Product{},

		// Receipts
		&entity.Receipt{},
		&entity.CartLine{},

		// System
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database migrations completed")
	return nil
}

// DefaultFilters are created on first start so the kiosk has something to group by
var DefaultFilters = []string{"Lanches", "Bebidas", "Sobremesas", "Vegano"}

// SeedDefaultData creates the default filters when the table is empty
func SeedDefaultData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.Filter{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count filters: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range DefaultFilters {
		if err := db.Create(&entity.Filter{Name: name}).Error; err != nil {
			slog.Warn("Failed to create default filter", "name", name, "error", err)
		}
	}

	slog.Info("Default data seeding completed", "filters", len(DefaultFilters))
	return nil
}
