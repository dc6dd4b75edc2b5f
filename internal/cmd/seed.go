package cmd

import (
	"fmt"
	"os"

	"github.com/ezhulati/liftout-platform-sub011/internal/database"
	"github.com/ezhulati/liftout-platform-sub011/internal/services"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load fixture data into the database",
	Long: `Seed inserts companies, users, teams and opportunities from a YAML
fixture file. Without --file the built-in demo data set is used.

Seeding is idempotent: existing users, teams and opportunities are reused.`,
	RunE: runSeed,
}

var seedFile string

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML fixture file (default: built-in demo data)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	fx, err := readFixtures(seedFile)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	db, closeDB, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	auth := services.NewAuthService(db, cfg)
	if err := database.Seed(db, fx, auth.HashPassword); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	newLogger().Info("fixtures seeded",
		"companies", len(fx.Companies),
		"users", len(fx.Users),
		"teams", len(fx.Teams),
		"opportunities", len(fx.Opportunities),
	)
	printf(cmd, "Seeded %d users, %d teams, %d opportunities\n", len(fx.Users), len(fx.Teams), len(fx.Opportunities))
	return nil
}

func readFixtures(path string) (*database.Fixtures, error) {
	if path == "" {
		return database.DemoFixtures()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return database.LoadFixtures(f)
}
