package main

import (
	"log"

	"willstech-admin/internal/config"
	"willstech-admin/internal/database"
	"willstech-admin/internal/logger"
)

func main() {
	cfg := config.LoadConfig()

	appLog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	db, err := database.Open(cfg)
	if err != nil {
		appLog.Fatalf("Failed to connect: %v", err)
	}
	if db.Dialector.Name() != "postgres" {
		appLog.Infow("Nothing to do, sequences only exist on PostgreSQL", "driver", cfg.DBDriver)
		return
	}

	appLog.Info("Syncing PostgreSQL sequences...")
	if err := database.SyncSequences(db, appLog, "commit_records"); err != nil {
		appLog.Fatalf("Sequence sync failed: %v", err)
	}
	appLog.Info("DONE!")
}
