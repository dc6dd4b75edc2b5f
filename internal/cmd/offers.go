package cmd

import (
	"fmt"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/services"
	"github.com/spf13/cobra"
)

var offersCmd = &cobra.Command{
	Use:   "offers",
	Short: "Offer maintenance",
}

var offersSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire pending offers whose response deadline has passed",
	RunE:  runOffersSweep,
}

var sweepAt string

func init() {
	rootCmd.AddCommand(offersCmd)
	offersCmd.AddCommand(offersSweepCmd)
	offersSweepCmd.Flags().StringVar(&sweepAt, "at", "", "RFC3339 time to sweep as of (default: now)")
}

func runOffersSweep(cmd *cobra.Command, args []string) error {
	now := time.Now()
	if sweepAt != "" {
		t, err := time.Parse(time.RFC3339, sweepAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		now = t
	}

	cfg := loadConfig()
	db, closeDB, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	log := newLogger()
	apps := services.NewApplicationService(db, nil, log.Named("applications"))
	n, err := services.NewOfferService(apps).SweepExpiredOffers(cmd.Context(), now)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	printf(cmd, "Expired %d offer(s)\n", n)
	return nil
}
