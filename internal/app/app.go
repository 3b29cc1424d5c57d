// Package app wires configuration, storage and the editor together for the
// server and the CLI.
package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"willstech-admin/internal/auth"
	"willstech-admin/internal/backup"
	"willstech-admin/internal/config"
	"willstech-admin/internal/database"
	"willstech-admin/internal/editor"
	"willstech-admin/internal/github"
	"willstech-admin/internal/history"
	"willstech-admin/internal/logger"
	"willstech-admin/internal/settings"
	"willstech-admin/internal/ws"
)

type App struct {
	Config    *config.Config
	Log       *logger.Logger
	DB        *gorm.DB
	Settings  *settings.Store
	History   *history.Store
	Snapshots *backup.Writer
	Auth      *auth.Service
	Hub       *ws.Hub
	Editor    *editor.Editor
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	db, err := database.InitGorm(cfg, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Settings: settings.NewStore(db, cfg),
		History:  history.NewStore(db),
		Hub:      ws.NewHub(log, cfg.Allowed()),
	}

	a.Auth, err = auth.NewService(cfg, log)
	if err != nil {
		return nil, err
	}

	repo, err := a.Settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load repository settings: %w", err)
	}

	opts := editor.Options{
		Backend:      a.NewBackend(repo),
		ConfigPath:   cfg.SiteConfigPath,
		IndexPath:    cfg.SiteIndexPath,
		CommitPrefix: cfg.CommitPrefix,
		Logger:       log,
		Notifier:     a.Hub,
		Recorder:     a.History,
	}
	if cfg.BackupDir != "" {
		a.Snapshots = backup.NewWriter(cfg.BackupDir)
		opts.Snapshots = a.Snapshots
	}
	a.Editor = editor.New(opts)
	return a, nil
}

// NewBackend builds a GitHub client for r using the configured API endpoint
// and limits.
func (a *App) NewBackend(r settings.Repo) editor.Backend {
	return github.NewClient(github.Options{
		BaseURL: a.Config.GitHubAPIURL,
		Token:   r.Token,
		Target:  r.Target(),
		Timeout: a.Config.HTTPTimeout,
		RPS:     a.Config.GitHubRPS,
	})
}

func (a *App) Close() {
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.Log.Sync()
}
