package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-elo/internal/report"
)

var (
	listPrefix string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored matches",
	Long:  "List the most recent stored matches. --prefix narrows by match id prefix, e.g. a date (20230102) or a tournament (20230102_0001).",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listPrefix, "prefix", "p", "", "match id prefix")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "maximum number of matches")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.MatchesByPrefix(cmd.Context(), listPrefix, listLimit)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'matchelo import <ledger.csv>' to add some.")
		return nil
	}
	report.PrintMatchTable(os.Stdout, matches, "")
	return nil
}
