// @title           Lawcase API
// @version         1.0
// @description     Case management for small law firms: firms, users, clients, cases, stages, reminders and file attachments.
// @BasePath        /api
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Format: Bearer <token>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aldoetobex/lawcase-backend/internal/metrics"
	"github.com/aldoetobex/lawcase-backend/internal/server"
	"github.com/aldoetobex/lawcase-backend/internal/storage"
	"github.com/aldoetobex/lawcase-backend/pkg/config"
	"github.com/aldoetobex/lawcase-backend/pkg/database"
	"github.com/aldoetobex/lawcase-backend/pkg/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		// logger is not built yet
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	db, err := database.Open(database.Options{
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Fatalw("database connection failed", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalw("migration failed", "error", err)
	}

	metrics.Register()

	app := server.New(server.Deps{
		Config: cfg,
		DB:     db,
		Log:    log,
		Files:  storage.NewFileService(cfg.FileService.BaseURL, cfg.FileService.Timeout),
	})

	go func() {
		log.Infow("server running", "port", cfg.Port, "env", cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalw("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorw("shutdown", "error", err)
	}
}
