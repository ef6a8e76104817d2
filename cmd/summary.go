package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-elo/internal/report"
)

// summaryCmd is the cobra command for displaying a high-level ledger overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the ledger",
	Long: `Display aggregate statistics about all stored matches: match count, rated
share, date range, competitors, tournaments, the tournament level breakdown and
the current top of the leaderboard.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.Overview(ctx)
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.TotalMatches == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'matchelo import <ledger.csv>' to add some.")
		return nil
	}

	levels, err := db.LevelCounts(ctx)
	if err != nil {
		return fmt.Errorf("get level counts: %w", err)
	}
	report.PrintOverview(os.Stdout, ov, levels)

	if ov.RatedMatches == 0 {
		return nil
	}
	top, err := db.TopRatings(ctx, 10)
	if err != nil {
		return fmt.Errorf("top ratings: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Top competitors ---\n")
	report.PrintLeaderboard(os.Stdout, top)
	return nil
}
