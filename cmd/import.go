package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-match-elo/internal/parser"
)

var importCmd = &cobra.Command{
	Use:   "import <ledger.csv>",
	Short: "Load ledger rows from a CSV file",
	Long: `Read finished matches from a CSV file and upsert them into the ledger.

Required columns: match_id, name_a (or A_name/winner), name_b (or B_name/loser).
Optional: tournament_level, surface, country_code, tournament_name, round, score,
rating_a, rating_b, serve_rating_a, serve_rating_b. Names are canonicalized to
lowercase ASCII letters and digits. Re-importing a match keeps its stored ratings.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(os.Stdout, "Reading %s...\n", path)
	ledger, err := parser.ParseLedger(path)
	if err != nil {
		return fmt.Errorf("parse ledger: %w", err)
	}

	ctx := cmd.Context()
	n, err := db.InsertMatches(ctx, ledger.Records)
	if err != nil {
		return fmt.Errorf("insert matches: %w", err)
	}
	logger.Info("ledger imported",
		zap.String("file", path),
		zap.String("sha256", ledger.Digest),
		zap.Int("rows", len(ledger.Records)),
		zap.Int("written", n),
	)
	fmt.Fprintf(os.Stdout, "Imported %d matches (sha256 %s).\n", n, ledger.Digest[:12])

	unrated, err := db.UnratedCount(ctx)
	if err != nil {
		return fmt.Errorf("count unrated: %w", err)
	}
	if unrated > 0 {
		fmt.Fprintf(os.Stdout, "%d matches await rating. Run 'matchelo rate'.\n", unrated)
	}
	return nil
}
