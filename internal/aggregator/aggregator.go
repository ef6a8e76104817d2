// Package aggregator computes conditioned statistics over a competitor's match history.
//
// Every function takes the competitor id, a reference point and that
// competitor's ascending history. Records at or after the reference are never
// considered, so a statistic for a match only sees what was known before it.
package aggregator

import (
	"sort"

	"github.com/pable/go-match-elo/internal/model"
	"github.com/pable/go-match-elo/internal/rating"
)

// Aggregator evaluates metrics with a fixed constants table and baseline.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	table    rating.Table
	baseline float64
}

// New returns an Aggregator. A zero baseline selects rating.DefaultBaseline.
func New(table rating.Table, baseline float64) *Aggregator {
	if baseline == 0 {
		baseline = rating.DefaultBaseline
	}
	return &Aggregator{table: table, baseline: baseline}
}

// Baseline returns the rating assumed for a competitor with no history.
func (a *Aggregator) Baseline() float64 {
	return a.baseline
}

// Tally is a win/loss pair.
type Tally struct {
	Wins   int
	Losses int
}

// Total is Wins+Losses.
func (t Tally) Total() int {
	return t.Wins + t.Losses
}

// before returns the number of records in hist strictly before matchID.
func before(hist []model.MatchRecord, matchID string) int {
	return sort.Search(len(hist), func(i int) bool { return hist[i].MatchID >= matchID })
}

// window returns the [start, end) range of hist inside the reference cut and the weeks window.
func window(hist []model.MatchRecord, ref model.Reference, weeks int) (int, int) {
	end := before(hist, ref.MatchID)
	if weeks <= 0 {
		return 0, end
	}
	prior := ref.Date.AddDate(0, 0, -7*weeks).Format(model.DateLayout)
	start := sort.Search(end, func(i int) bool { return hist[i].MatchID > prior })
	return start, end
}

// Filter returns the records of id's history that satisfy cond and precede ref.
// The result may share storage with hist and must not be modified.
func Filter(id string, ref model.Reference, hist []model.MatchRecord, cond model.Condition) []model.MatchRecord {
	start, end := window(hist, ref, cond.Weeks)
	if !hasAttributeFilter(cond) {
		return hist[start:end]
	}

	var tournament string
	if cond.TournamentName != nil {
		tournament = model.Canonicalize(*cond.TournamentName)
	}

	out := make([]model.MatchRecord, 0, end-start)
	for i := start; i < end; i++ {
		m := &hist[i]
		if cond.Surface != nil && m.Surface != *cond.Surface {
			continue
		}
		if cond.CountryCode != nil && m.CountryCode != *cond.CountryCode {
			continue
		}
		if cond.TournamentName != nil && model.Canonicalize(m.TournamentName) != tournament {
			continue
		}
		if cond.Round != nil && m.Round != *cond.Round {
			continue
		}
		if cond.TournamentLevel != nil && m.TournamentLevel != *cond.TournamentLevel {
			continue
		}
		if cond.ServeBand != nil {
			sr := m.OwnServeRating(id)
			if sr == nil || !cond.ServeBand.Contains(*sr) {
				continue
			}
		}
		out = append(out, *m)
	}
	return out
}

func hasAttributeFilter(c model.Condition) bool {
	return c.Surface != nil || c.CountryCode != nil || c.TournamentName != nil ||
		c.Round != nil || c.TournamentLevel != nil || c.ServeBand != nil
}
