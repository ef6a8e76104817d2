package aggregator

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pable/go-match-elo/internal/model"
	"github.com/pable/go-match-elo/internal/rating"
)

// Performance replays a rating from the baseline over the filtered history,
// using each opponent's stored rating from that match.
func (a *Aggregator) Performance(id string, ref model.Reference, hist []model.MatchRecord, cond model.Condition) float64 {
	r := a.baseline
	for _, m := range Filter(id, ref, hist, cond) {
		c := a.table.For(m.TournamentLevel)
		opp := a.baseline
		if p := m.OpponentRating(id); p != nil {
			opp = *p
		}
		actual := 0.0
		if m.IsWinner(id) {
			actual = 1
		}
		r = rating.Update(r, rating.Expected(r, opp, c.S), actual, c.K)
	}
	return r
}

// WinLoss counts wins and losses in the filtered history.
func (a *Aggregator) WinLoss(id string, ref model.Reference, hist []model.MatchRecord, cond model.Condition) Tally {
	var t Tally
	for _, m := range Filter(id, ref, hist, cond) {
		if m.IsWinner(id) {
			t.Wins++
		} else {
			t.Losses++
		}
	}
	return t
}

// HeadToHead counts id's wins over opp and opp's wins over id in id's filtered history.
func (a *Aggregator) HeadToHead(id, opp string, ref model.Reference, hist []model.MatchRecord, cond model.Condition) Tally {
	var t Tally
	for _, m := range Filter(id, ref, hist, cond) {
		switch {
		case m.CompetitorA == id && m.CompetitorB == opp:
			t.Wins++
		case m.CompetitorA == opp && m.CompetitorB == id:
			t.Losses++
		}
	}
	return t
}

// PeakRating is the highest stored rating before ref, never below the baseline.
func (a *Aggregator) PeakRating(id string, ref model.Reference, hist []model.MatchRecord) float64 {
	peak := a.baseline
	for i, end := 0, before(hist, ref.MatchID); i < end; i++ {
		if r := hist[i].OwnRating(id); r != nil && *r > peak {
			peak = *r
		}
	}
	return peak
}

// PreviousRating is the most recent stored rating before ref, or the baseline.
func (a *Aggregator) PreviousRating(id string, ref model.Reference, hist []model.MatchRecord) float64 {
	for i := before(hist, ref.MatchID) - 1; i >= 0; i-- {
		if r := hist[i].OwnRating(id); r != nil {
			return *r
		}
	}
	return a.baseline
}

// RatingVariance is the population variance of successive rating changes,
// walking the filtered history most recent first. Fewer than two changes yield 0.
func (a *Aggregator) RatingVariance(id string, ref model.Reference, hist []model.MatchRecord, cond model.Condition) float64 {
	filtered := Filter(id, ref, hist, cond)

	var deltas []float64
	var last *float64
	for i := len(filtered) - 1; i >= 0; i-- {
		r := filtered[i].OwnRating(id)
		if r == nil {
			continue
		}
		if last != nil {
			deltas = append(deltas, *last-*r)
		}
		last = r
	}
	if len(deltas) < 2 {
		return 0
	}
	_, variance := stat.PopMeanVariance(deltas, nil)
	return variance
}

// DaysSinceDebut counts days from the competitor's first match to ref.
func (a *Aggregator) DaysSinceDebut(id string, ref model.Reference, hist []model.MatchRecord) int {
	if before(hist, ref.MatchID) == 0 {
		return 0
	}
	d, err := hist[0].Date()
	if err != nil {
		return 0
	}
	return daysBetween(d, ref.Date)
}

// QuartersSinceLastPlayed counts whole three-month periods since the last match before ref.
func (a *Aggregator) QuartersSinceLastPlayed(id string, ref model.Reference, hist []model.MatchRecord) int {
	end := before(hist, ref.MatchID)
	if end == 0 {
		return 0
	}
	last, err := hist[end-1].Date()
	if err != nil {
		return 0
	}
	months := (ref.Date.Year()-last.Year())*12 + int(ref.Date.Month()) - int(last.Month())
	if ref.Date.Day() < last.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months / 3
}
