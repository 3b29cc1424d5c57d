package database

import (
	"fmt"
	"strings"

	"willstech-admin/internal/config"
	"willstech-admin/internal/logger"
	"willstech-admin/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database without migrating it.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	}

	switch strings.ToLower(cfg.DBDriver) {
	case "postgres", "postgresql":
		db, err := gorm.Open(postgres.Open(PostgresDSN(cfg)), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return db, nil
	case "", "sqlite", "sqlite3":
		db, err := gorm.Open(sqlite.Open(cfg.DBPath), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database %s: %w", cfg.DBPath, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// InitGorm opens the database and runs auto-migration.
func InitGorm(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	log.Infow("Connected to database", "driver", cfg.DBDriver)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Database migration completed")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	return nil
}

func PostgresDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

// SyncSequences moves PostgreSQL id sequences past rows that were copied in
// with explicit ids.
func SyncSequences(db *gorm.DB, log *logger.Logger, tables ...string) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range tables {
		query := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), coalesce(max(id), 0) + 1, false) FROM " + table
		if err := db.Exec(query).Error; err != nil {
			return fmt.Errorf("sync sequence for %s: %w", table, err)
		}
		log.Infow("Synced sequence", "table", table)
	}
	return nil
}
