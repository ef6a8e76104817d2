package features

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-match-elo/internal/aggregator"
	"github.com/pable/go-match-elo/internal/history"
	"github.com/pable/go-match-elo/internal/model"
	"github.com/pable/go-match-elo/internal/rating"
)

func fixture(t *testing.T) []model.MatchRecord {
	t.Helper()
	mk := func(id, a, b, surface, level, round, score string) model.MatchRecord {
		return model.MatchRecord{
			MatchID: id, CompetitorA: a, CompetitorB: b,
			Surface: surface, TournamentLevel: level, Round: round,
			CountryCode: "AUS", TournamentName: "Open " + id[9:13], Score: score,
		}
	}
	recs := []model.MatchRecord{
		mk("20230102_0001_001", "x", "y", "Hard", "A", "R32", "63_64"),
		mk("20230102_0001_002", "z", "w", "Hard", "A", "R32", "64_64"),
		mk("20230102_0001_003", "x", "z", "Hard", "A", "R16", "76(3) 36 64"),
		mk("20230116_0002_001", "y", "w", "Clay", "C", "QF", "61_61"),
		mk("20230116_0002_002", "z", "y", "Clay", "C", "SF", "64_46_63"),
		mk("20230123_0003_001", "x", "z", "Grass", "G", "F", "W/O"),
		mk("20230201_0004_001", "y", "x", "Hard", "M", "R64", "62_62"),
	}
	_, err := rating.NewEngine(rating.DefaultTable()).Run(context.Background(), recs, rating.ModeFull)
	require.NoError(t, err)
	return recs
}

func newBuilder(recs []model.MatchRecord, opts ...Option) *Builder {
	ix := history.NewIndex(history.NewLedger(recs), nil, nil)
	return NewBuilder(ix, aggregator.New(rating.DefaultTable(), 0), opts...)
}

func indexOf(t *testing.T, labels []string, name string) int {
	t.Helper()
	for i, l := range labels {
		if l == name {
			return i
		}
	}
	t.Fatalf("label %q not found", name)
	return -1
}

func TestLabelsLayout(t *testing.T) {
	b := newBuilder(nil)
	labels := b.Labels()

	perf, h2h := len(PerformanceCatalog()), len(HeadToHeadCatalog())
	require.Equal(t, 34, perf)
	require.Equal(t, 8, h2h)
	assert.Len(t, labels, 4+5+12+8+8+2*h2h+2*perf+4*perf+2*perf)

	assert.Equal(t, []string{"Hard", "Clay", "Grass", "Carpet", "Future"}, labels[:5])
	assert.Equal(t, "first_previous_rating", labels[21])
	assert.Equal(t, "first_h2h_weeks_99999", labels[37])
	assert.Equal(t, "first_weeks_4", labels[53])
	assert.Equal(t, "second_weeks_4", labels[53+perf])
	assert.Equal(t, "first_wins_weeks_4", labels[53+2*perf])
	assert.Equal(t, "first_losses_weeks_4", labels[54+2*perf])
	assert.Equal(t, "second_variance_tourney_level_surface_weeks_256", labels[len(labels)-1])

	seen := map[string]bool{}
	for _, l := range labels {
		assert.False(t, seen[l], "duplicate label %q", l)
		seen[l] = true
	}
}

func TestVersion(t *testing.T) {
	a := newBuilder(nil)
	assert.Equal(t, a.Version(), newBuilder(nil).Version())
	assert.Len(t, a.Version(), 12)

	short := newBuilder(nil, WithCatalog(PerformanceCatalog()[:3]))
	assert.NotEqual(t, a.Version(), short.Version())
}

func TestBindUsesMatchAttributes(t *testing.T) {
	m := model.MatchRecord{Surface: "Clay", TournamentLevel: "M", CountryCode: "", Round: "QF"}
	c := ConditionSpec{Name: "x", Weeks: 64, Fields: FieldLevel | FieldSurface | FieldCountry}.Bind(&m)

	assert.Equal(t, 64, c.Weeks)
	require.NotNil(t, c.Surface)
	assert.Equal(t, "Clay", *c.Surface)
	assert.Equal(t, "M", *c.TournamentLevel)
	require.NotNil(t, c.CountryCode, "an empty attribute still filters")
	assert.Equal(t, "", *c.CountryCode)
	assert.Nil(t, c.Round)
	assert.Nil(t, c.TournamentName)
}

func TestBuildPairMirrors(t *testing.T) {
	recs := fixture(t)
	b := newBuilder(recs)
	labels := b.Labels()

	pair, err := b.BuildPair(context.Background(), recs[5])
	require.NoError(t, err)
	orig, swapped := pair[0], pair[1]

	assert.Equal(t, 1, orig.Label)
	assert.Equal(t, 0, swapped.Label)
	assert.Equal(t, "x", orig.First)
	assert.Equal(t, "x", swapped.Second)

	for i, l := range labels {
		switch {
		case strings.HasPrefix(l, "first_"):
			j := indexOf(t, labels, "second_"+strings.TrimPrefix(l, "first_"))
			assert.Equal(t, orig.Values[i], swapped.Values[j], l)
		case !strings.HasPrefix(l, "second_"):
			assert.Equal(t, orig.Values[i], swapped.Values[i], l)
		}
	}

	// Grass, Grand Slam, final.
	assert.Equal(t, 1.0, orig.Values[indexOf(t, labels, "Grass")])
	assert.Equal(t, 1.0, orig.Values[indexOf(t, labels, "Grand Slam")])
	assert.Equal(t, 1.0, orig.Values[indexOf(t, labels, "F")])
	assert.Equal(t, 0.0, orig.Values[indexOf(t, labels, "Hard")])

	// x beat z once before this match and won both of its matches in the last four weeks.
	assert.Equal(t, 1.0, orig.Values[indexOf(t, labels, "first_h2h_weeks_99999")])
	assert.Equal(t, 0.0, orig.Values[indexOf(t, labels, "second_h2h_weeks_99999")])
	assert.Equal(t, 2.0, orig.Values[indexOf(t, labels, "first_wins_weeks_4")])
	assert.Equal(t, 0.0, orig.Values[indexOf(t, labels, "first_losses_weeks_4")])
}

func TestBuildUnseenCompetitorsAtBaseline(t *testing.T) {
	recs := fixture(t)
	b := newBuilder(recs)
	labels := b.Labels()

	v, err := b.Build(context.Background(), recs[0], "x", "y")
	require.NoError(t, err)
	for _, name := range []string{"first_previous_rating", "second_previous_rating", "first_peak_rating", "second_peak_rating"} {
		assert.Equal(t, rating.DefaultBaseline, v.Values[indexOf(t, labels, name)], name)
	}
	assert.Equal(t, 0.0, v.Values[indexOf(t, labels, "first_days_since_debut")])
}

func TestBuildWorkload(t *testing.T) {
	recs := fixture(t)
	b := newBuilder(recs)
	labels := b.Labels()

	v, err := b.Build(context.Background(), recs[2], "x", "z")
	require.NoError(t, err)
	assert.Equal(t, 19.0, v.Values[indexOf(t, labels, "first_last_match_games")])
	assert.Equal(t, 19.0, v.Values[indexOf(t, labels, "first_tournament_games")])
	assert.Equal(t, 20.0, v.Values[indexOf(t, labels, "second_short_games")])
}

func TestBuildRejectsBadMatchID(t *testing.T) {
	b := newBuilder(nil)
	_, err := b.Build(context.Background(), model.MatchRecord{MatchID: "bogus"}, "x", "y")
	assert.True(t, errors.Is(err, model.ErrBadMatchID))
}

func TestBuildAllMatchesSequential(t *testing.T) {
	recs := fixture(t)

	par, err := newBuilder(recs).BuildAll(context.Background(), recs, 4)
	require.NoError(t, err)
	require.Len(t, par, 2*len(recs))

	seq := newBuilder(recs)
	for i, m := range recs {
		pair, err := seq.BuildPair(context.Background(), m)
		require.NoError(t, err)
		assert.Equal(t, pair[0], par[2*i])
		assert.Equal(t, pair[1], par[2*i+1])
	}
}

func TestBuildAllCancelled(t *testing.T) {
	recs := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newBuilder(recs).BuildAll(ctx, recs, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
