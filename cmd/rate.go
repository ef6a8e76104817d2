package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-match-elo/internal/model"
	"github.com/pable/go-match-elo/internal/rating"
)

var (
	rateFull  bool
	rateClear bool
)

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Run the rating engine over the ledger",
	Long: `Rate every unrated match in ascending match id order and persist the ratings.
Per-match serve ratings are folded into each competitor's running average first.

By default the pass is incremental: already rated matches are skipped and a
competitor's starting rating is read from their latest rated match. Use --full
to recompute every rating from the baseline, for example after importing
matches that precede already rated ones.`,
	Args: cobra.NoArgs,
	RunE: runRate,
}

func init() {
	rateCmd.Flags().BoolVar(&rateFull, "full", false, "recompute every rating from the baseline")
	rateCmd.Flags().BoolVar(&rateClear, "clear", false, "erase all stored ratings and exit")
}

func runRate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if rateClear {
		n, err := db.ClearRatings(ctx)
		if err != nil {
			return fmt.Errorf("clear ratings: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Cleared ratings on %d matches.\n", n)
		return nil
	}

	mode := rating.ModeIncremental
	if rateFull {
		mode = rating.ModeFull
	} else {
		earliestUnrated, latestRated, err := db.RatingFrontier(ctx)
		if err != nil {
			return fmt.Errorf("rating frontier: %w", err)
		}
		if earliestUnrated != "" && latestRated != "" && earliestUnrated < latestRated {
			logger.Warn("unrated matches precede rated ones; later ratings will be stale",
				zap.String("earliest_unrated", earliestUnrated),
				zap.String("latest_rated", latestRated),
			)
			fmt.Fprintln(os.Stderr, "warning: some unrated matches are older than rated ones. Re-run with --full for consistent ratings.")
		}
	}

	records, err := db.AllMatches(ctx)
	if err != nil {
		return fmt.Errorf("load matches: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'matchelo import <ledger.csv>' to add some.")
		return nil
	}

	serveChanged := rating.ServeAverages(records)
	if len(serveChanged) > 0 {
		rows := make([]model.MatchRecord, 0, len(serveChanged))
		for _, i := range serveChanged {
			rows = append(rows, records[i])
		}
		if _, err := db.UpdateServeAverages(ctx, rows); err != nil {
			return fmt.Errorf("store serve averages: %w", err)
		}
		logger.Info("serve averages updated", zap.Int("matches", len(serveChanged)))
	}

	engine := rating.NewEngine(cfg.Table(),
		rating.WithBaseline(cfg.Rating.Baseline),
		rating.WithPriorLookup(newIndex(db)),
		rating.WithLogger(logger),
		rating.WithMetrics(runMetrics),
	)

	started := time.Now().UTC()
	res, err := engine.Run(ctx, records, mode)
	if err != nil {
		return fmt.Errorf("rating pass: %w", err)
	}

	changed := make([]model.MatchRecord, 0, len(res.Updated))
	for _, i := range res.Updated {
		changed = append(changed, records[i])
	}
	if _, err := db.UpdateRatings(ctx, changed); err != nil {
		return fmt.Errorf("store ratings: %w", err)
	}

	run := model.RatingRun{
		RunID:      uuid.NewString(),
		Mode:       mode.String(),
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Processed:  res.Processed,
		Skipped:    res.Skipped,
	}
	if err := db.RecordRun(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Rated %d matches (%s pass, %d skipped, %d competitors, %d serve averages updated). Run %s.\n",
		res.Processed, mode, res.Skipped, res.State.Len(), len(serveChanged), run.RunID[:8])
	return nil
}
