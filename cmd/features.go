package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-elo/internal/features"
	"github.com/pable/go-match-elo/internal/report"
	"github.com/pable/go-match-elo/internal/storage"
)

var featuresFilter string

var featuresCmd = &cobra.Command{
	Use:   "features <match_id>",
	Short: "Show the feature vector of a stored match from both sides",
	Long: `Build the feature vector for one match as it would be exported: first with the
winner as the first competitor, then with the sides swapped. Only matches before
the given one contribute.`,
	Args: cobra.ExactArgs(1),
	RunE: runFeatures,
}

func init() {
	featuresCmd.Flags().StringVarP(&featuresFilter, "filter", "f", "", "only show features whose label contains this substring")
}

func runFeatures(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return showFeatures(cmd.Context(), os.Stdout, db, newBuilder(newIndex(db)), args[0], featuresFilter)
}

func showFeatures(ctx context.Context, w io.Writer, db *storage.DB, b *features.Builder, matchID, filter string) error {
	m, err := db.GetMatch(ctx, matchID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no match found with id %q", matchID)
	}
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}

	pair, err := b.BuildPair(ctx, *m)
	if err != nil {
		return fmt.Errorf("build features: %w", err)
	}

	labels := b.Labels()
	vectors := [][]float64{pair[0].Values, pair[1].Values}
	if filter != "" {
		var kept []string
		keptVectors := make([][]float64, len(vectors))
		for i, l := range labels {
			if !strings.Contains(l, filter) {
				continue
			}
			kept = append(kept, l)
			for j, v := range vectors {
				keptVectors[j] = append(keptVectors[j], v[i])
			}
		}
		labels, vectors = kept, keptVectors
	}

	report.PrintMatchSummary(w, *m)
	report.PrintVectors(w, labels, []string{m.NameA + " first", m.NameB + " first"}, vectors)
	fmt.Fprintf(w, "\n%d features, version %s\n", len(b.Labels()), b.Version())
	return nil
}
