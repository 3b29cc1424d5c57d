package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"willstech-admin/internal/api"
	"willstech-admin/internal/app"
	"willstech-admin/internal/config"
)

func main() {
	cfg := config.LoadConfig()
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	go a.Hub.Run(ctx)

	if err := a.Editor.Sync(ctx); err != nil {
		a.Log.WithError(err).Warn("Initial sync failed, configure the repository from the dashboard")
	}

	r := api.NewRouter(api.RouterDeps{
		Editor:         a.Editor,
		Settings:       a.Settings,
		History:        a.History,
		Snapshots:      a.Snapshots,
		Auth:           a.Auth,
		Hub:            a.Hub,
		NewBackend:     a.NewBackend,
		Logger:         a.Log,
		AllowedOrigins: cfg.Allowed(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		a.Log.Infow("Server starting", "port", cfg.Port, "repository", a.Editor.Status().Target.FullName())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	a.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Log.WithError(err).Error("Graceful shutdown failed")
	}
}
