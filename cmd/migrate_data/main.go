package main

import (
	"log"
	"reflect"

	"willstech-admin/internal/config"
	"willstech-admin/internal/database"
	"willstech-admin/internal/logger"
	"willstech-admin/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Copies repository settings and commit history from the local SQLite file
// (DB_PATH) into the PostgreSQL database described by the DB_* variables.
func main() {
	cfg := config.LoadConfig()

	appLog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	// 1. Connect to SQLite (source)
	srcCfg := *cfg
	srcCfg.DBDriver = "sqlite"
	sqliteDB, err := database.Open(&srcCfg)
	if err != nil {
		appLog.Fatalf("Failed to connect to SQLite: %v", err)
	}
	appLog.Infow("Connected to SQLite", "path", cfg.DBPath)

	// 2. Connect to PostgreSQL (destination)
	dstCfg := *cfg
	dstCfg.DBDriver = "postgres"
	pgDB, err := database.InitGorm(&dstCfg, appLog)
	if err != nil {
		appLog.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	appLog.Info("Starting data migration...")

	migrateTable := func(tableName string, source interface{}, onConflict clause.OnConflict) {
		appLog.Infow("Migrating table", "table", tableName)

		if err := sqliteDB.Find(source).Error; err != nil {
			appLog.WithError(err).Errorw("Read from SQLite failed", "table", tableName)
			return
		}
		if reflect.ValueOf(source).Elem().Len() == 0 {
			appLog.Infow("Nothing to migrate", "table", tableName)
			return
		}

		err := pgDB.Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(onConflict).CreateInBatches(source, 200).Error
		})
		if err != nil {
			appLog.WithError(err).Errorw("Write to PostgreSQL failed", "table", tableName)
			return
		}
		appLog.Infow("Migrated table", "table", tableName)
	}

	// A destination setting is only replaced by a newer SQLite row.
	var settingsRows []models.SystemSetting
	migrateTable("system_settings", &settingsRows, clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "system_settings.updated_at < excluded.updated_at"},
		}},
	})

	var commits []models.CommitRecord
	migrateTable("commit_records", &commits, clause.OnConflict{DoNothing: true})

	if err := database.SyncSequences(pgDB, appLog, "commit_records"); err != nil {
		appLog.WithError(err).Error("Sequence sync failed")
	}

	appLog.Info("Migration completed!")
}
