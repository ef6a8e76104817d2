// Package rating implements the sequential Elo-style rating pass over the match ledger.
package rating

import (
	"math"
	"sort"
)

// DefaultBaseline is the rating of a competitor the first time they are seen.
const DefaultBaseline = 1500.0

// Constants are the per-level update parameters: K is the step size, S the logistic scale.
type Constants struct {
	K float64 `koanf:"k"`
	S float64 `koanf:"s"`
}

// lastResort is used only when the table has no entry for its own default level.
var lastResort = Constants{K: 32, S: 400}

// Table maps a tournament level to its constants.
type Table struct {
	Levels       map[string]Constants
	DefaultLevel string
}

// DefaultTable returns the tuned per-level constants.
func DefaultTable() Table {
	return Table{
		Levels: map[string]Constants{
			"F": {K: 46, S: 309},
			"C": {K: 36, S: 355},
			"A": {K: 28, S: 422},
			"M": {K: 27, S: 459},
			"G": {K: 30, S: 359},
		},
		DefaultLevel: "A",
	}
}

// For resolves the constants for level, falling back to the default level.
func (t Table) For(level string) Constants {
	if c, ok := t.Levels[level]; ok {
		return c
	}
	if c, ok := t.Levels[t.DefaultLevel]; ok {
		return c
	}
	return lastResort
}

// LevelNames returns the configured levels in sorted order.
func (t Table) LevelNames() []string {
	out := make([]string, 0, len(t.Levels))
	for l := range t.Levels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Expected is the logistic win expectation of a player rated rating against opponent.
func Expected(rating, opponent, scale float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-rating)/scale))
}

// Update applies one proportional correction.
func Update(rating, expected, actual, k float64) float64 {
	return rating + k*(actual-expected)
}

// Pair computes both post-match ratings for a win of a over b.
func Pair(a, b float64, c Constants) (newA, newB float64) {
	eA := Expected(a, b, c.S)
	eB := Expected(b, a, c.S)
	return Update(a, eA, 1, c.K), Update(b, eB, 0, c.K)
}
