package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-elo/internal/features"
	"github.com/pable/go-match-elo/internal/history"
	"github.com/pable/go-match-elo/internal/model"
	"github.com/pable/go-match-elo/internal/report"
)

// contextFlags override the attributes conditions are pinned to.
type contextFlags struct {
	at          string
	surface     string
	level       string
	country     string
	tournament  string
	round       string
	serveCenter float64
	serveMargin float64
}

func (f *contextFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.at, "at", "", "reference match id; only earlier matches count (default: after today)")
	fl.StringVar(&f.surface, "surface", "", "surface to condition on (default: from the latest match)")
	fl.StringVar(&f.level, "level", "", "tournament level to condition on")
	fl.StringVar(&f.country, "country", "", "tournament country code to condition on")
	fl.StringVar(&f.tournament, "tournament", "", "tournament name to condition on")
	fl.StringVar(&f.round, "round", "", "round to condition on")
	fl.Float64Var(&f.serveCenter, "serve", 0, "keep only matches where the competitor's serve rating is near this value")
	fl.Float64Var(&f.serveMargin, "serve-margin", 10, "half-width of the --serve band")
}

func (f *contextFlags) reference() (model.Reference, error) {
	if f.at == "" {
		return model.ReferenceAfter(time.Now().UTC()), nil
	}
	return model.NewReference(f.at)
}

// pin returns the match whose attributes conditions are bound to: base with any flag overrides applied.
func (f *contextFlags) pin(base model.MatchRecord) model.MatchRecord {
	for dst, v := range map[*string]string{
		&base.Surface:         f.surface,
		&base.TournamentLevel: f.level,
		&base.CountryCode:     f.country,
		&base.TournamentName:  f.tournament,
		&base.Round:           f.round,
	} {
		if v != "" {
			*dst = v
		}
	}
	return base
}

func (f *contextFlags) bind(spec features.ConditionSpec, m *model.MatchRecord) model.Condition {
	c := spec.Bind(m)
	if f.serveCenter > 0 {
		c.ServeBand = &model.Band{Center: f.serveCenter, Margin: f.serveMargin}
	}
	return c
}

// competitorHistory resolves a free-text name and returns its history, or an error if it never played.
func competitorHistory(ctx context.Context, ix *history.Index, name string) (string, []model.MatchRecord, error) {
	id := model.Canonicalize(name)
	if id == "" {
		return "", nil, fmt.Errorf("name %q has no letters or digits", name)
	}
	hist, err := ix.For(ctx, id)
	if err != nil {
		return "", nil, fmt.Errorf("load history: %w", err)
	}
	if len(hist) == 0 {
		return "", nil, fmt.Errorf("no matches found for %q (%s)", name, id)
	}
	return id, hist, nil
}

// displayName returns the raw name the competitor last appeared under.
func displayName(id string, hist []model.MatchRecord) string {
	last := hist[len(hist)-1]
	if last.CompetitorA == id {
		return last.NameA
	}
	return last.NameB
}

var (
	playerFlags contextFlags
	playerLast  int
)

var playerCmd = &cobra.Command{
	Use:   "player <name>",
	Short: "Match history and conditioned statistics for one competitor",
	Long: `Show a competitor's recent matches and their statistics at a reference point.

Conditioned rows are pinned to the attributes of the competitor's latest match
before the reference; --surface, --level, --country, --tournament and --round
override individual attributes.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlayer,
}

func init() {
	playerFlags.register(playerCmd)
	playerCmd.Flags().IntVarP(&playerLast, "last", "n", 15, "number of recent matches to list (0 hides the list)")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return showPlayer(cmd.Context(), os.Stdout, newIndex(db), args[0], &playerFlags, playerLast)
}

func showPlayer(ctx context.Context, w io.Writer, ix *history.Index, name string, f *contextFlags, last int) error {
	ref, err := f.reference()
	if err != nil {
		return err
	}
	id, hist, err := competitorHistory(ctx, ix, name)
	if err != nil {
		return err
	}
	end := history.Before(hist, ref.MatchID)
	if end == 0 {
		return fmt.Errorf("%s has no matches before %s", id, ref.MatchID)
	}

	if last > 0 {
		start := max(0, end-last)
		report.PrintMatchTable(w, hist[start:end], id)
	}

	agg := newAggregator()
	pinned := f.pin(hist[end-1])
	p := report.Profile{
		Competitor:     id,
		Name:           displayName(id, hist[:end]),
		Reference:      ref.MatchID,
		Previous:       agg.PreviousRating(id, ref, hist),
		Peak:           agg.PeakRating(id, ref, hist),
		DaysSinceDebut: agg.DaysSinceDebut(id, ref, hist),
		Quarters:       agg.QuartersSinceLastPlayed(id, ref, hist),
		Workload:       agg.Workload(id, ref, hist, cfg.Windows()),
	}
	for _, spec := range features.PerformanceCatalog() {
		c := f.bind(spec, &pinned)
		t := agg.WinLoss(id, ref, hist, c)
		p.Rows = append(p.Rows, report.ProfileRow{
			Condition:   spec.Name,
			Performance: agg.Performance(id, ref, hist, c),
			Wins:        t.Wins,
			Losses:      t.Losses,
			Variance:    agg.RatingVariance(id, ref, hist, c),
		})
	}
	report.PrintProfile(w, p)
	return nil
}
