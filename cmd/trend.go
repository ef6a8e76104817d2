package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-elo/internal/history"
	"github.com/pable/go-match-elo/internal/report"
)

var trendLast int

var trendCmd = &cobra.Command{
	Use:   "trend <name>",
	Short: "Chronological rating trend for a competitor",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().IntVarP(&trendLast, "last", "n", 0, "only show the N most recent rated matches")
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return showTrend(cmd.Context(), os.Stdout, newIndex(db), args[0], trendLast)
}

func showTrend(ctx context.Context, w io.Writer, ix *history.Index, name string, last int) error {
	id, hist, err := competitorHistory(ctx, ix, name)
	if err != nil {
		return err
	}

	var points []report.TrendPoint
	prev := cfg.Rating.Baseline
	for _, m := range hist {
		r := m.OwnRating(id)
		if r == nil {
			continue
		}
		opp := m.NameA
		if m.IsWinner(id) {
			opp = m.NameB
		}
		points = append(points, report.TrendPoint{
			MatchID:  m.MatchID,
			Opponent: opp,
			Won:      m.IsWinner(id),
			Rating:   *r,
			Delta:    *r - prev,
		})
		prev = *r
	}
	if len(points) == 0 {
		fmt.Fprintf(w, "%s has no rated matches. Run 'matchelo rate'.\n", id)
		return nil
	}
	if last > 0 && len(points) > last {
		points = points[len(points)-last:]
	}
	report.PrintTrend(w, points)
	return nil
}
