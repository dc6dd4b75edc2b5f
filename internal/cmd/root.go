// Package cmd holds the liftoutctl operator commands.
package cmd

import (
	"fmt"

	"github.com/ezhulati/liftout-platform-sub011/internal/config"
	"github.com/ezhulati/liftout-platform-sub011/internal/database"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "liftoutctl",
	Short: "Operator tooling for the Liftout engagement service",
	Long: `liftoutctl runs maintenance tasks against the Liftout database:
schema migration, demo data seeding, and expiring overdue offers.

Settings come from the same environment variables as the server. Flags
override them.`,
	SilenceUsage: true,
}

var v *viper.Viper

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("database-type", "", "database driver: sqlite or postgres")
	rootCmd.PersistentFlags().String("database-url", "", "database DSN or sqlite file path")
}

func initConfig() {
	v = config.NewViper()
	_ = v.BindPFlag("DATABASE_TYPE", rootCmd.PersistentFlags().Lookup("database-type"))
	_ = v.BindPFlag("DATABASE_URL", rootCmd.PersistentFlags().Lookup("database-url"))
}

// loadConfig resolves configuration. A flag wins over the environment only
// when it was set on the command line.
func loadConfig() *config.Config {
	if v == nil {
		initConfig()
	}
	return config.FromViper(v)
}

func openDB(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return db, func() { sqlDB.Close() }, nil
}

func newLogger() *logger.Logger {
	return logger.NewLogger("liftoutctl")
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
