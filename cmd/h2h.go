package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-elo/internal/features"
	"github.com/pable/go-match-elo/internal/history"
	"github.com/pable/go-match-elo/internal/report"
)

var h2hFlags contextFlags

var h2hCmd = &cobra.Command{
	Use:   "h2h <name> <name>",
	Short: "Head-to-head record between two competitors",
	Long: `Count wins and losses between two competitors under each head-to-head condition.

Conditions are pinned to the latest meeting before the reference, or to the
first competitor's latest match if they never met.`,
	Args: cobra.ExactArgs(2),
	RunE: runH2H,
}

func init() {
	h2hFlags.register(h2hCmd)
}

func runH2H(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return showHeadToHead(cmd.Context(), os.Stdout, newIndex(db), args[0], args[1], &h2hFlags)
}

func showHeadToHead(ctx context.Context, w io.Writer, ix *history.Index, a, b string, f *contextFlags) error {
	ref, err := f.reference()
	if err != nil {
		return err
	}
	first, hist, err := competitorHistory(ctx, ix, a)
	if err != nil {
		return err
	}
	second, secondHist, err := competitorHistory(ctx, ix, b)
	if err != nil {
		return err
	}

	end := history.Before(hist, ref.MatchID)
	if end == 0 {
		return fmt.Errorf("%s has no matches before %s", first, ref.MatchID)
	}
	base := hist[end-1]
	for i := end - 1; i >= 0; i-- {
		if hist[i].Involves(second) {
			base = hist[i]
			break
		}
	}
	pinned := f.pin(base)

	agg := newAggregator()
	var rows []report.HeadToHeadRow
	for _, spec := range features.HeadToHeadCatalog() {
		rows = append(rows, report.HeadToHeadRow{
			Condition: spec.Name,
			Tally:     agg.HeadToHead(first, second, ref, hist, f.bind(spec, &pinned)),
		})
	}
	report.PrintHeadToHead(w, displayName(first, hist), displayName(second, secondHist), rows)
	return nil
}
