package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/config"
	"github.com/ezhulati/liftout-platform-sub011/internal/database"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/routes"
	"github.com/gin-gonic/gin"
)

func main() {
	log := logger.NewLogger("liftout")
	defer log.Sync()

	cfg := config.Load()
	log.Info("config loaded", "database_type", cfg.DatabaseType, "env", cfg.Env)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("failed to open database", "error", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to access database handle", "error", err)
	}
	defer sqlDB.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}

	app := routes.SetupRouter(cfg, db, log)
	if err := routes.SeedAdminUser(cfg, app.Auth, log); err != nil {
		log.Warn("failed to seed admin user", "error", err)
	}

	srv := &http.Server{
		Addr:              cfg.ServerHost + ":" + cfg.ServerPort,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			log.Error("server close failed", "error", err)
		}
	}

	// Let in-flight notifications finish before the database closes.
	if !app.Dispatcher.Drain(shutdownCtx) {
		log.Warn("shutdown deadline reached with notifications still in flight")
	}
	log.Info("server stopped")
}
