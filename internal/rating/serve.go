package rating

import "github.com/pable/go-match-elo/internal/model"

type serveTotal struct {
	sum float64
	n   int
}

// add folds one per-match serve rating into the running total and returns the
// new average. Missing and zero ratings leave the total alone and yield nil.
func (t *serveTotal) add(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	t.sum += *v
	t.n++
	avg := t.sum / float64(t.n)
	return &avg
}

// ServeAverages replaces each record's ServeRatingA/B with the competitor's
// running average of per-match serve ratings, in ledger order. Records must be
// ascending by match id. A ledger that carries no per-match serve ratings at
// all keeps the averages it was imported with.
//
// It returns the indices of records whose averages changed.
func ServeAverages(records []model.MatchRecord) []int {
	raw := false
	for i := range records {
		if records[i].ServeA != nil || records[i].ServeB != nil {
			raw = true
			break
		}
	}
	if !raw {
		return nil
	}

	totals := make(map[string]*serveTotal)
	total := func(id string) *serveTotal {
		t, ok := totals[id]
		if !ok {
			t = &serveTotal{}
			totals[id] = t
		}
		return t
	}

	var changed []int
	for i := range records {
		rec := &records[i]
		avgA := total(rec.CompetitorA).add(rec.ServeA)
		avgB := total(rec.CompetitorB).add(rec.ServeB)
		if !sameRating(rec.ServeRatingA, avgA) || !sameRating(rec.ServeRatingB, avgB) {
			rec.ServeRatingA, rec.ServeRatingB = avgA, avgB
			changed = append(changed, i)
		}
	}
	return changed
}

func sameRating(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
