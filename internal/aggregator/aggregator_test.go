package aggregator

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-match-elo/internal/history"
	"github.com/pable/go-match-elo/internal/model"
	"github.com/pable/go-match-elo/internal/rating"
)

func rec(id, a, b, surface, level string, ra, rb float64, score string) model.MatchRecord {
	m := model.MatchRecord{
		MatchID:         id,
		CompetitorA:     a,
		CompetitorB:     b,
		Surface:         surface,
		TournamentLevel: level,
		TournamentName:  "Test Open",
		Round:           "R32",
		Score:           score,
	}
	m.SetRatings(ra, rb)
	return m
}

// ledger returns a small rated ledger spanning about two years.
func ledger() []model.MatchRecord {
	recs := []model.MatchRecord{
		rec("20220103_0001_001", "x", "y", "Hard", "A", 1514, 1486, "63_64"),
		rec("20220110_0002_001", "z", "x", "Clay", "C", 1518, 1496, "76(5) 64"),
		rec("20221205_0003_001", "x", "z", "Hard", "G", 1512, 1502, "6-4 3-6 7-5"),
		rec("20230102_0004_001", "y", "x", "Hard", "A", 1500, 1498, "64 RET"),
		rec("20230102_0004_002", "x", "y", "Hard", "A", 1512, 1486, "garbage"),
		rec("20230109_0005_001", "x", "z", "Grass", "M", 1525, 1490, "W/O"),
	}
	recs[0].TournamentName = "Winter Cup"
	sr := 250.0
	recs[2].ServeRatingA = &sr
	return recs
}

func historyOf(t *testing.T, recs []model.MatchRecord, id string) []model.MatchRecord {
	t.Helper()
	h, err := history.NewLedger(recs).CompetitorMatches(context.Background(), id)
	require.NoError(t, err)
	return h
}

func ref(t *testing.T, id string) model.Reference {
	t.Helper()
	r, err := model.NewReference(id)
	require.NoError(t, err)
	return r
}

func newAgg() *Aggregator {
	return New(rating.DefaultTable(), 0)
}

// ---- Filter ----

func TestFilterCutsAtReference(t *testing.T) {
	h := historyOf(t, ledger(), "x")
	got := Filter("x", ref(t, "20230102_0004_002"), h, model.Condition{})
	require.Len(t, got, 4)
	for _, m := range got {
		assert.Less(t, m.MatchID, "20230102_0004_002")
	}
}

func TestFilterWeeksWindow(t *testing.T) {
	h := historyOf(t, ledger(), "x")
	got := Filter("x", ref(t, "20230109_0005_001"), h, model.Condition{Weeks: 4})
	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.MatchID
	}
	assert.Equal(t, []string{"20230102_0004_001", "20230102_0004_002"}, ids)
}

func TestFilterAttributes(t *testing.T) {
	h := historyOf(t, ledger(), "x")
	r := ref(t, "20230201_0006_001")

	assert.Len(t, Filter("x", r, h, model.Condition{Surface: model.Str("Hard")}), 4)
	assert.Len(t, Filter("x", r, h, model.Condition{Surface: model.Str("Hard"), TournamentLevel: model.Str("A")}), 3)
	assert.Len(t, Filter("x", r, h, model.Condition{TournamentName: model.Str("WINTER-CUP")}), 1,
		"tournament names compare canonicalized")
	assert.Empty(t, Filter("x", r, h, model.Condition{CountryCode: model.Str("FRA")}))
	assert.Len(t, Filter("x", r, h, model.Condition{CountryCode: model.Str("")}), 6,
		"empty string is a value, not a wildcard")
}

func TestFilterServeBand(t *testing.T) {
	h := historyOf(t, ledger(), "x")
	r := ref(t, "20230201_0006_001")

	got := Filter("x", r, h, model.Condition{ServeBand: &model.Band{Center: 245, Margin: 10}})
	require.Len(t, got, 1)
	assert.Equal(t, "20221205_0003_001", got[0].MatchID)

	assert.Empty(t, Filter("z", r, historyOf(t, ledger(), "z"), model.Condition{ServeBand: &model.Band{Center: 250, Margin: 100}}),
		"records without a serve rating are excluded")
}

// ---- Tallies ----

func TestWinLossSumsToFiltered(t *testing.T) {
	recs := ledger()
	a := newAgg()
	r := ref(t, "20230201_0006_001")
	conds := []model.Condition{
		{},
		{Weeks: 4},
		{Surface: model.Str("Hard")},
		{TournamentLevel: model.Str("A"), Weeks: 128},
		{Round: model.Str("QF")},
	}
	for _, id := range []string{"x", "y", "z"} {
		h := historyOf(t, recs, id)
		for _, c := range conds {
			tally := a.WinLoss(id, r, h, c)
			assert.Equal(t, len(Filter(id, r, h, c)), tally.Total(), "%s %+v", id, c)
		}
	}

	tally := a.WinLoss("x", r, historyOf(t, recs, "x"), model.Condition{})
	assert.Equal(t, Tally{Wins: 4, Losses: 2}, tally)
}

func TestHeadToHeadAntisymmetric(t *testing.T) {
	recs := ledger()
	a := newAgg()
	r := ref(t, "20230201_0006_001")
	hx, hy := historyOf(t, recs, "x"), historyOf(t, recs, "y")

	for _, c := range []model.Condition{{}, {Surface: model.Str("Hard")}, {Weeks: 8}} {
		xy := a.HeadToHead("x", "y", r, hx, c)
		yx := a.HeadToHead("y", "x", r, hy, c)
		assert.Equal(t, xy.Wins, yx.Losses)
		assert.Equal(t, xy.Losses, yx.Wins)
	}
	assert.Equal(t, Tally{Wins: 2, Losses: 1}, a.HeadToHead("x", "y", r, hx, model.Condition{}))
}

// ---- Ratings ----

func TestPerformanceEmptyIsBaseline(t *testing.T) {
	a := newAgg()
	got := a.Performance("x", ref(t, "20220101_0001_001"), historyOf(t, ledger(), "x"), model.Condition{})
	assert.Equal(t, rating.DefaultBaseline, got)
}

func TestPerformanceReplaysAgainstOpponentRating(t *testing.T) {
	a := New(rating.Table{Levels: map[string]rating.Constants{"A": {K: 30, S: 400}}, DefaultLevel: "A"}, 0)
	recs := []model.MatchRecord{rec("20220103_0001_001", "x", "y", "Hard", "A", 1515, 1500, "")}
	got := a.Performance("x", ref(t, "20230101_0001_001"), recs, model.Condition{})
	assert.InDelta(t, 1515, got, 1e-9)

	recs[0].RatingB = nil
	got = a.Performance("x", ref(t, "20230101_0001_001"), recs, model.Condition{})
	assert.InDelta(t, 1515, got, 1e-9, "missing opponent rating uses the baseline")
}

func TestPeakAndPreviousRating(t *testing.T) {
	a := newAgg()
	h := historyOf(t, ledger(), "x")

	r := ref(t, "20230102_0004_001")
	assert.Equal(t, 1514.0, a.PeakRating("x", r, h))
	assert.Equal(t, 1512.0, a.PreviousRating("x", r, h))

	r = ref(t, "20230201_0006_001")
	assert.Equal(t, 1525.0, a.PeakRating("x", r, h))

	first := ref(t, "20220103_0001_001")
	assert.Equal(t, rating.DefaultBaseline, a.PeakRating("x", first, h))
	assert.Equal(t, rating.DefaultBaseline, a.PreviousRating("x", first, h))
}

func TestPeakAfterScenarioIgnoresLaterDrop(t *testing.T) {
	recs := []model.MatchRecord{
		{MatchID: "20230101_0001_001", CompetitorA: "x", CompetitorB: "y", TournamentLevel: "A"},
		{MatchID: "20230108_0002_001", CompetitorA: "x", CompetitorB: "y", TournamentLevel: "A"},
		{MatchID: "20230115_0003_001", CompetitorA: "y", CompetitorB: "x", TournamentLevel: "A"},
	}
	tbl := rating.Table{Levels: map[string]rating.Constants{"A": {K: 30, S: 400}}, DefaultLevel: "A"}
	_, err := rating.NewEngine(tbl).Run(context.Background(), recs, rating.ModeFull)
	require.NoError(t, err)

	a := New(tbl, 0)
	peak := a.PeakRating("x", ref(t, "20230201_0001_001"), historyOf(t, recs, "x"))
	assert.Equal(t, math.Max(1515, *recs[1].RatingA), peak)
}

func TestRatingVariance(t *testing.T) {
	a := newAgg()
	h := historyOf(t, ledger(), "x")

	// own ratings ascending: 1514 1496 1512 1498 1512 1525
	// deltas most recent first: 13 14 -14 16 -18
	got := a.RatingVariance("x", ref(t, "20230201_0006_001"), h, model.Condition{})
	deltas := []float64{13, 14, -14, 16, -18}
	var mean float64
	for _, d := range deltas {
		mean += d
	}
	mean /= float64(len(deltas))
	var want float64
	for _, d := range deltas {
		want += (d - mean) * (d - mean)
	}
	want /= float64(len(deltas))
	assert.InDelta(t, want, got, 1e-9)

	assert.Zero(t, a.RatingVariance("x", ref(t, "20221205_0003_001"), h, model.Condition{}),
		"one delta is not enough")
}

// ---- Calendar ----

func TestDaysSinceDebut(t *testing.T) {
	a := newAgg()
	h := historyOf(t, ledger(), "x")
	assert.Equal(t, 30, a.DaysSinceDebut("x", ref(t, "20220202_0001_001"), h))
	assert.Zero(t, a.DaysSinceDebut("x", ref(t, "20220103_0001_001"), h))
	assert.Zero(t, a.DaysSinceDebut("nobody", ref(t, "20220202_0001_001"), nil))
}

func TestQuartersSinceLastPlayed(t *testing.T) {
	a := newAgg()
	h := historyOf(t, ledger(), "x")
	assert.Equal(t, 3, a.QuartersSinceLastPlayed("x", ref(t, "20221110_0001_001"), h))
	assert.Equal(t, 0, a.QuartersSinceLastPlayed("x", ref(t, "20230301_0001_001"), h))
	assert.Equal(t, 0, a.QuartersSinceLastPlayed("x", ref(t, "20220101_0001_001"), h))
}

// ---- Workload ----

func TestParseGames(t *testing.T) {
	cases := []struct {
		in    string
		games int
		ok    bool
	}{
		{"63_64", 19, true},
		{"76(5) 64", 23, true},
		{"6-3 7-6(4)", 22, true},
		{"6-4,3-6,7-5", 31, true},
		{"64 RET", 10, true},
		{"10-8", 18, true},
		{"W/O", 0, false},
		{"", 0, false},
		{"garbage", 0, false},
		{"76(x) 64", 0, false},
		{"7", 0, false},
	}
	for _, c := range cases {
		g, ok := ParseGames(c.in)
		assert.Equal(t, c.ok, ok, "ParseGames(%q)", c.in)
		assert.Equal(t, c.games, g, "ParseGames(%q)", c.in)
	}
}

func TestWorkload(t *testing.T) {
	a := newAgg()
	h := historyOf(t, ledger(), "x")

	got := a.Workload("x", ref(t, "20230102_0004_003"), h, DefaultWindows())
	assert.Equal(t, Workload{
		LastMatch:  0,  // "garbage"
		Tournament: 10, // "64 RET"
		Short:      10,
		Long:       10 + 31 + 23 + 19,
	}, got)

	got = a.Workload("x", ref(t, "20220111_0009_001"), h, WorkloadWindows{ShortDays: 3, LongDays: 365})
	assert.Equal(t, Workload{LastMatch: 23, Tournament: 0, Short: 23, Long: 19 + 23}, got)

	assert.Equal(t, Workload{}, a.Workload("x", ref(t, "20220101_0001_001"), h, DefaultWindows()))
}
