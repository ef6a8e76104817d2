package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-match-elo/internal/aggregator"
	"github.com/pable/go-match-elo/internal/config"
	"github.com/pable/go-match-elo/internal/features"
	"github.com/pable/go-match-elo/internal/history"
	"github.com/pable/go-match-elo/internal/logging"
	"github.com/pable/go-match-elo/internal/metrics"
	"github.com/pable/go-match-elo/internal/storage"
)

var (
	cfgFile string

	cfg        *config.Config
	logger     = zap.NewNop()
	runMetrics = metrics.New()
)

var rootCmd = &cobra.Command{
	Use:   "matchelo",
	Short: "Match ledger Elo ratings and feature vectors",
	Long: `Import a ledger of finished matches, rate competitors with a level-aware Elo
reduction, and build per-match feature vectors for outcome models.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $MATCHELO_CONFIG or ~/.matchelo/config.yaml)")
	pf.String("db", "", "ledger DSN: SQLite path or postgres URL (default ~/.matchelo/ledger.db)")
	pf.String("driver", "sqlite", "ledger driver: sqlite or postgres")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")
	pf.String("metrics-file", "", "write prometheus textfile metrics here after each command")
	pf.Int("workers", 0, "feature builder workers (default: number of CPUs)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(h2hCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	c, used, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	cfg = c

	l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = l.With(zap.String("cmd", cmd.Name()))
	if used != "" {
		logger.Debug("config loaded", zap.String("file", used))
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	defer logger.Sync() //nolint:errcheck
	if cfg == nil || cfg.MetricsFile == "" {
		return nil
	}
	if err := runMetrics.WriteTextfile(cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// openDB opens the configured ledger, creating the SQLite directory if needed.
func openDB() (*storage.DB, error) {
	if cfg.DB.Driver == storage.DriverSQLite && cfg.DB.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.DSN), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := storage.OpenDriver(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func newAggregator() *aggregator.Aggregator {
	return aggregator.New(cfg.Table(), cfg.Rating.Baseline)
}

func newIndex(db *storage.DB) *history.Index {
	return history.NewIndex(db, logger, runMetrics)
}

func newBuilder(ix *history.Index) *features.Builder {
	return features.NewBuilder(ix, newAggregator(),
		features.WithWindows(cfg.Windows()),
		features.WithLogger(logger),
		features.WithMetrics(runMetrics),
	)
}
