// Package history caches each competitor's ascending match history.
//
// A history is built from the Source the first time it is requested and is
// never mutated afterwards, so callers may share the returned slice freely.
package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pable/go-match-elo/internal/metrics"
	"github.com/pable/go-match-elo/internal/model"
)

// Source loads every match a competitor took part in, ascending by match id.
type Source interface {
	CompetitorMatches(ctx context.Context, competitor string) ([]model.MatchRecord, error)
}

// Stats counts cache activity.
type Stats struct {
	Builds int
	Hits   int
}

// Index is a concurrent-read cache of competitor histories.
type Index struct {
	src     Source
	logger  *zap.Logger
	metrics *metrics.Run

	mu      sync.RWMutex
	entries map[string][]model.MatchRecord
	builds  int
	hits    atomic.Int64

	group singleflight.Group
}

// NewIndex returns an empty index over src. logger and m may be nil.
func NewIndex(src Source, logger *zap.Logger, m *metrics.Run) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Index{
		src:     src,
		logger:  logger,
		metrics: m,
		entries: make(map[string][]model.MatchRecord),
	}
}

// For returns the competitor's history, building it at most once.
// An unknown competitor has an empty history.
func (ix *Index) For(ctx context.Context, competitor string) ([]model.MatchRecord, error) {
	ix.mu.RLock()
	h, ok := ix.entries[competitor]
	ix.mu.RUnlock()
	if ok {
		ix.hits.Add(1)
		ix.metrics.HistoryHits.Inc()
		return h, nil
	}

	v, err, _ := ix.group.Do(competitor, func() (any, error) {
		ix.mu.RLock()
		h, ok := ix.entries[competitor]
		ix.mu.RUnlock()
		if ok {
			return h, nil
		}

		recs, err := ix.src.CompetitorMatches(ctx, competitor)
		if err != nil {
			return nil, fmt.Errorf("load history for %s: %w", competitor, err)
		}
		if !sort.SliceIsSorted(recs, func(i, j int) bool { return recs[i].MatchID < recs[j].MatchID }) {
			sort.Slice(recs, func(i, j int) bool { return recs[i].MatchID < recs[j].MatchID })
		}

		ix.mu.Lock()
		ix.entries[competitor] = recs
		ix.builds++
		ix.mu.Unlock()

		ix.metrics.HistoryBuilds.Inc()
		ix.logger.Debug("history built", zap.String("competitor", competitor), zap.Int("matches", len(recs)))
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.MatchRecord), nil
}

// Stats returns a snapshot of cache activity.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return Stats{Builds: ix.builds, Hits: int(ix.hits.Load())}
}

// Len is the number of competitors cached.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Forget drops a cached history, e.g. after its ratings were rewritten.
func (ix *Index) Forget(competitor string) {
	ix.mu.Lock()
	delete(ix.entries, competitor)
	ix.mu.Unlock()
}

// Reset drops every cached history.
func (ix *Index) Reset() {
	ix.mu.Lock()
	ix.entries = make(map[string][]model.MatchRecord)
	ix.mu.Unlock()
}

// Prior returns the most recent record in the competitor's history strictly before matchID.
func (ix *Index) Prior(ctx context.Context, competitor, before string) (model.MatchRecord, bool, error) {
	h, err := ix.For(ctx, competitor)
	if err != nil {
		return model.MatchRecord{}, false, err
	}
	i := Before(h, before)
	if i == 0 {
		return model.MatchRecord{}, false, nil
	}
	return h[i-1], true, nil
}

// PriorRating returns the competitor's stored rating from the most recent rated record strictly before matchID.
func (ix *Index) PriorRating(ctx context.Context, competitor, before string) (float64, bool, error) {
	h, err := ix.For(ctx, competitor)
	if err != nil {
		return 0, false, err
	}
	for i := Before(h, before) - 1; i >= 0; i-- {
		if r := h[i].OwnRating(competitor); r != nil {
			return *r, true, nil
		}
	}
	return 0, false, nil
}

// Before returns the number of records in the ascending history h with MatchID < matchID.
func Before(h []model.MatchRecord, matchID string) int {
	return sort.Search(len(h), func(i int) bool { return h[i].MatchID >= matchID })
}
