package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-elo/internal/report"
)

var topLimit int

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the current ratings leaderboard",
	Long:  "Rank competitors by the rating after their latest rated match.",
	Args:  cobra.NoArgs,
	RunE:  runTop,
}

func init() {
	topCmd.Flags().IntVarP(&topLimit, "limit", "n", 25, "number of competitors to show")
}

func runTop(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.TopRatings(cmd.Context(), topLimit)
	if err != nil {
		return fmt.Errorf("top ratings: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "No rated matches yet. Run 'matchelo rate'.")
		return nil
	}
	report.PrintLeaderboard(os.Stdout, rows)
	return nil
}
