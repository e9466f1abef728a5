// canvaslytics extracts course and activity data from a Canvas LMS
// instance, scores how well each course and program can support pass/fail
// prediction, trains baseline models, and renders reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"canvaslytics/internal/canvas"
	"canvaslytics/internal/config"
	"canvaslytics/internal/logging"
	"canvaslytics/internal/store"
)

var (
	cfgPath string
	verbose bool
	timeout string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "canvaslytics",
	Short: "Canvas LMS extraction, scoring, and pass/fail baselines",
	Long: `canvaslytics pulls course, enrollment, and activity data from the
Canvas LMS REST API into a local SQLite snapshot, computes prediction
potential scores for courses and careers, trains pass/fail baseline
models, and generates markdown and PNG reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if timeout != "" {
			if _, perr := time.ParseDuration(timeout); perr != nil {
				return fmt.Errorf("invalid --timeout: %w", perr)
			}
			cfg.Canvas.RequestTimeout = timeout
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "canvaslytics.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&timeout, "timeout", "", "per-request API timeout override (e.g. 45s)")
}

// openStore opens the configured snapshot database.
func openStore() (*store.Store, error) {
	return store.Open(cfg.Store.Path)
}

// newClient builds the Canvas API client from config.
func newClient() (*canvas.Client, error) {
	return canvas.New(cfg.Canvas, logger)
}
