package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ezhulati/liftout-platform-sub011/internal/config"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// liveApplicationIndex enforces one live application per (team, opportunity)
// at the storage layer. Both sqlite and postgres support partial indexes.
const liveApplicationIndexName = "idx_applications_live_pair"

const liveApplicationIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ` + liveApplicationIndexName + `
	ON applications (team_id, opportunity_id)
	WHERE status NOT IN ('rejected', 'withdrawn') AND deleted_at IS NULL`

// Open connects to the configured database. The caller owns the handle.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DatabaseType {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	default:
		dialector = sqlite.Open(cfg.DatabaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(cfg.DBLogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DatabaseType, err)
	}

	if cfg.DatabaseType != "postgres" {
		// sqlite allows a single writer; serialise through one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates or updates the schema. It is safe to run on every start.
func Migrate(db *gorm.DB) error {
	// The sqlite migrator re-parses a table's DDL, indexes included, and
	// cannot read a partial index. Drop it here; it is rebuilt below.
	if !IsPostgres(db) {
		if err := db.Exec("DROP INDEX IF EXISTS " + liveApplicationIndexName).Error; err != nil {
			return fmt.Errorf("drop live application index: %w", err)
		}
	}

	if err := db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Opportunity{},
		&models.Application{},
		&models.ApplicationTransition{},
		&models.ExpressionOfInterest{},
		&models.Notification{},
		&models.Conversation{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if err := db.Exec(liveApplicationIndex).Error; err != nil {
		return fmt.Errorf("create live application index: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// IsPostgres reports whether the handle talks to postgres. Row locks are
// only requested there; sqlite serialises writers on its own.
func IsPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
