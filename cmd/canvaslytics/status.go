package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"canvaslytics/internal/canvas"
	"canvaslytics/internal/report"
	"canvaslytics/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show snapshot counts and the last extraction run",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := db.Counts()
		if err != nil {
			return err
		}
		lastRun, err := db.LatestRun()
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		status := report.Status{
			DBPath:  db.Path(),
			Counts:  counts,
			LastRun: lastRun,
		}
		if lastRun != nil {
			status.Quota = &canvas.Metrics{
				TotalCalls:     lastRun.APICalls,
				TotalRetries:   lastRun.APIRetries,
				CostConsumed:   lastRun.APICost,
				QuotaRemaining: lastRun.QuotaRemaining,
			}
		}

		fmt.Println(report.StatusView(status))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
