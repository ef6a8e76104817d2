package aggregator

import (
	"time"

	"github.com/pable/go-match-elo/internal/model"
)

// WorkloadWindows are the trailing windows, in days, for the workload buckets.
type WorkloadWindows struct {
	ShortDays int
	LongDays  int
}

// DefaultWindows returns a two-week short window and a one-year long window.
func DefaultWindows() WorkloadWindows {
	return WorkloadWindows{ShortDays: 14, LongDays: 365}
}

// Workload is games played before the reference, bucketed by recency.
type Workload struct {
	LastMatch  int // games in the most recent match
	Tournament int // games earlier in the same tournament edition
	Short      int
	Long       int
}

// Workload walks the history most recent first and stops past the long window.
// Malformed scores contribute zero games.
func (a *Aggregator) Workload(id string, ref model.Reference, hist []model.MatchRecord, w WorkloadWindows) Workload {
	var out Workload
	end := before(hist, ref.MatchID)
	if end == 0 {
		return out
	}
	out.LastMatch, _ = ParseGames(hist[end-1].Score)

	tournament := model.TournamentKey(ref.MatchID)
	for i := end - 1; i >= 0; i-- {
		m := &hist[i]
		d, err := m.Date()
		if err != nil {
			continue
		}
		age := daysBetween(d, ref.Date)
		if age > w.LongDays {
			break
		}
		g, _ := ParseGames(m.Score)
		if m.TournamentKey() == tournament {
			out.Tournament += g
		}
		if age <= w.ShortDays {
			out.Short += g
		}
		out.Long += g
	}
	return out
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
