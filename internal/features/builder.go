// Package features assembles the numeric feature vector for a match.
//
// Column order (see Labels):
//
//	one-hot surface, level and round
//	previous rating, peak rating, days since debut, quarters since last played (first, second)
//	workload: last match, tournament, short window, long window (first, then second)
//	head-to-head wins per h2h condition (first, second)
//	performance per condition (all first, then all second)
//	wins and losses per condition (all first, then all second)
//	rating-change variance per condition (all first, then all second)
package features

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-match-elo/internal/aggregator"
	"github.com/pable/go-match-elo/internal/history"
	"github.com/pable/go-match-elo/internal/metrics"
	"github.com/pable/go-match-elo/internal/model"
)

// Vector is one match seen from one perspective.
type Vector struct {
	MatchID string
	First   string
	Second  string
	Label   int // 1 when First won
	Values  []float64
}

// Builder produces feature vectors from a shared history index.
type Builder struct {
	index   *history.Index
	agg     *aggregator.Aggregator
	catalog []ConditionSpec
	h2h     []ConditionSpec
	vocab   Vocabulary
	windows aggregator.WorkloadWindows
	logger  *zap.Logger
	metrics *metrics.Run

	labels []string
}

// Option configures a Builder.
type Option func(*Builder)

// WithCatalog replaces the performance catalog.
func WithCatalog(c []ConditionSpec) Option {
	return func(b *Builder) { b.catalog = c }
}

// WithHeadToHeadCatalog replaces the head-to-head catalog.
func WithHeadToHeadCatalog(c []ConditionSpec) Option {
	return func(b *Builder) { b.h2h = c }
}

// WithVocabulary replaces the one-hot columns.
func WithVocabulary(v Vocabulary) Option {
	return func(b *Builder) { b.vocab = v }
}

// WithWindows sets the workload windows.
func WithWindows(w aggregator.WorkloadWindows) Option {
	return func(b *Builder) { b.windows = w }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics sets the run metrics.
func WithMetrics(m *metrics.Run) Option {
	return func(b *Builder) {
		if m != nil {
			b.metrics = m
		}
	}
}

// NewBuilder returns a Builder with the default catalogs and vocabulary.
func NewBuilder(ix *history.Index, agg *aggregator.Aggregator, opts ...Option) *Builder {
	b := &Builder{
		index:   ix,
		agg:     agg,
		catalog: PerformanceCatalog(),
		h2h:     HeadToHeadCatalog(),
		vocab:   DefaultVocabulary(),
		windows: aggregator.DefaultWindows(),
		logger:  zap.NewNop(),
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.labels = b.buildLabels()
	return b
}

// Labels returns the column names in vector order.
func (b *Builder) Labels() []string {
	out := make([]string, len(b.labels))
	copy(out, b.labels)
	return out
}

// Version identifies the column layout. Datasets built with different versions are not comparable.
func (b *Builder) Version() string {
	sum := sha256.Sum256([]byte(strings.Join(b.labels, "\n")))
	return hex.EncodeToString(sum[:6])
}

func (b *Builder) buildLabels() []string {
	var l []string
	l = categoryLabels(l, b.vocab.Surfaces)
	l = categoryLabels(l, b.vocab.Levels)
	l = categoryLabels(l, b.vocab.Rounds)

	for _, name := range []string{"previous_rating", "peak_rating", "days_since_debut", "quarters_since_played"} {
		l = append(l, "first_"+name, "second_"+name)
	}
	for _, side := range []string{"first_", "second_"} {
		l = append(l, side+"last_match_games", side+"tournament_games", side+"short_games", side+"long_games")
	}
	for _, s := range b.h2h {
		l = append(l, "first_h2h_"+s.Name, "second_h2h_"+s.Name)
	}
	for _, side := range []string{"first_", "second_"} {
		for _, s := range b.catalog {
			l = append(l, side+s.Name)
		}
	}
	for _, side := range []string{"first_", "second_"} {
		for _, s := range b.catalog {
			l = append(l, side+"wins_"+s.Name, side+"losses_"+s.Name)
		}
	}
	for _, side := range []string{"first_", "second_"} {
		for _, s := range b.catalog {
			l = append(l, side+"variance_"+s.Name)
		}
	}
	return l
}

// Build returns the vector for m with first and second as the two sides.
func (b *Builder) Build(ctx context.Context, m model.MatchRecord, first, second string) (Vector, error) {
	ref, err := model.NewReference(m.MatchID)
	if err != nil {
		return Vector{}, err
	}
	h1, err := b.index.For(ctx, first)
	if err != nil {
		return Vector{}, err
	}
	h2, err := b.index.For(ctx, second)
	if err != nil {
		return Vector{}, err
	}

	conds := make([]model.Condition, len(b.catalog))
	for i, s := range b.catalog {
		conds[i] = s.Bind(&m)
	}

	v := make([]float64, 0, len(b.labels))

	// ---- categorical ----
	v = oneHot(v, b.vocab.Surfaces, m.Surface)
	v = oneHot(v, b.vocab.Levels, m.TournamentLevel)
	v = oneHot(v, b.vocab.Rounds, m.Round)

	// ---- unconditioned per-side scalars ----
	v = append(v,
		b.agg.PreviousRating(first, ref, h1), b.agg.PreviousRating(second, ref, h2),
		b.agg.PeakRating(first, ref, h1), b.agg.PeakRating(second, ref, h2),
		float64(b.agg.DaysSinceDebut(first, ref, h1)), float64(b.agg.DaysSinceDebut(second, ref, h2)),
		float64(b.agg.QuartersSinceLastPlayed(first, ref, h1)), float64(b.agg.QuartersSinceLastPlayed(second, ref, h2)),
	)
	for _, w := range []aggregator.Workload{
		b.agg.Workload(first, ref, h1, b.windows),
		b.agg.Workload(second, ref, h2, b.windows),
	} {
		v = append(v, float64(w.LastMatch), float64(w.Tournament), float64(w.Short), float64(w.Long))
	}

	// ---- head-to-head ----
	for _, s := range b.h2h {
		t := b.agg.HeadToHead(first, second, ref, h1, s.Bind(&m))
		v = append(v, float64(t.Wins), float64(t.Losses))
	}

	// ---- conditioned ----
	sides := []struct {
		id   string
		hist []model.MatchRecord
	}{{first, h1}, {second, h2}}
	for _, sd := range sides {
		for _, c := range conds {
			v = append(v, b.agg.Performance(sd.id, ref, sd.hist, c))
		}
	}
	for _, sd := range sides {
		for _, c := range conds {
			t := b.agg.WinLoss(sd.id, ref, sd.hist, c)
			v = append(v, float64(t.Wins), float64(t.Losses))
		}
	}
	for _, sd := range sides {
		for _, c := range conds {
			v = append(v, b.agg.RatingVariance(sd.id, ref, sd.hist, c))
		}
	}

	if len(v) != len(b.labels) {
		return Vector{}, fmt.Errorf("vector for %s has %d values, want %d", m.MatchID, len(v), len(b.labels))
	}

	label := 0
	if first == m.CompetitorA {
		label = 1
	}
	b.metrics.VectorsBuilt.Inc()
	return Vector{MatchID: m.MatchID, First: first, Second: second, Label: label, Values: v}, nil
}

// BuildPair returns the vector with the winner first (label 1) and with the sides swapped (label 0).
func (b *Builder) BuildPair(ctx context.Context, m model.MatchRecord) ([2]Vector, error) {
	start := time.Now()
	var out [2]Vector
	var err error
	if out[0], err = b.Build(ctx, m, m.CompetitorA, m.CompetitorB); err != nil {
		return out, err
	}
	if out[1], err = b.Build(ctx, m, m.CompetitorB, m.CompetitorA); err != nil {
		return out, err
	}
	b.metrics.FeatureBuild.Observe(time.Since(start).Seconds())
	return out, nil
}

// BuildAll builds both perspectives for every match using up to workers goroutines.
// The result holds two vectors per match, in input order.
func (b *Builder) BuildAll(ctx context.Context, matches []model.MatchRecord, workers int) ([]Vector, error) {
	if workers < 1 {
		workers = 1
	}
	start := time.Now()
	out := make([]Vector, 2*len(matches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range matches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pair, err := b.BuildPair(gctx, matches[i])
			if err != nil {
				return fmt.Errorf("match %s: %w", matches[i].MatchID, err)
			}
			out[2*i], out[2*i+1] = pair[0], pair[1]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.logger.Info("feature vectors built",
		zap.Int("matches", len(matches)),
		zap.Int("vectors", len(out)),
		zap.Int("workers", workers),
		zap.Int("competitors", b.index.Len()),
		zap.String("version", b.Version()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
