// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/ezhulati/liftout-platform-sub011/internal/config"
	"github.com/ezhulati/liftout-platform-sub011/internal/database"
	"gorm.io/gorm"
)

// OpenDB returns a migrated in-memory sqlite database private to the test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(Config())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// Config returns defaults suitable for tests.
func Config() *config.Config {
	cfg := config.Defaults()
	cfg.DatabaseType = "sqlite"
	cfg.DatabaseURL = ":memory:"
	cfg.DBLogLevel = "silent"
	cfg.JWTSecret = "test-secret"
	cfg.SMTPHost = ""
	return cfg
}
