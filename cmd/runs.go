package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-elo/internal/report"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent rating runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to show")
}

func runRuns(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No rating runs yet. Run 'matchelo rate'.")
		return nil
	}
	report.PrintRuns(os.Stdout, runs)
	return nil
}
