package history

import (
	"context"

	"github.com/pable/go-match-elo/internal/model"
)

// Ledger is an in-memory Source over an ascending slice of records.
type Ledger struct {
	records []model.MatchRecord
	byComp  map[string][]int
}

// NewLedger indexes records by competitor. records must be ascending by match id
// and must not be modified while the ledger is in use.
func NewLedger(records []model.MatchRecord) *Ledger {
	l := &Ledger{records: records, byComp: make(map[string][]int)}
	for i := range records {
		r := &records[i]
		l.byComp[r.CompetitorA] = append(l.byComp[r.CompetitorA], i)
		if r.CompetitorB != r.CompetitorA {
			l.byComp[r.CompetitorB] = append(l.byComp[r.CompetitorB], i)
		}
	}
	return l
}

// CompetitorMatches returns copies of the competitor's records in ledger order.
func (l *Ledger) CompetitorMatches(_ context.Context, competitor string) ([]model.MatchRecord, error) {
	idx := l.byComp[competitor]
	out := make([]model.MatchRecord, len(idx))
	for i, j := range idx {
		out[i] = l.records[j]
	}
	return out, nil
}

// Records returns the underlying slice.
func (l *Ledger) Records() []model.MatchRecord {
	return l.records
}

// Competitors is the number of distinct competitors.
func (l *Ledger) Competitors() int {
	return len(l.byComp)
}
