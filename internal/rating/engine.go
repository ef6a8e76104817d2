package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pable/go-match-elo/internal/metrics"
	"github.com/pable/go-match-elo/internal/model"
)

// Mode selects between recomputing every record and filling in missing ratings.
type Mode int

const (
	ModeFull Mode = iota
	ModeIncremental
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeIncremental:
		return "incremental"
	default:
		return "unknown"
	}
}

var (
	// ErrOutOfOrder means the ledger is not strictly ascending by match id.
	ErrOutOfOrder = errors.New("ledger not strictly ordered by match id")
	// ErrNoPriorLookup means an incremental pass was requested without a history lookup.
	ErrNoPriorLookup = errors.New("incremental mode requires a prior rating lookup")
)

// PriorLookup resolves a competitor's most recent stored rating strictly before a match id.
type PriorLookup interface {
	PriorRating(ctx context.Context, competitor, before string) (float64, bool, error)
}

// State is the per-run mapping from competitor to current rating.
type State struct {
	ratings map[string]float64
}

// NewState returns an empty state.
func NewState() *State {
	return &State{ratings: make(map[string]float64)}
}

// Get returns the competitor's current rating if known.
func (s *State) Get(id string) (float64, bool) {
	r, ok := s.ratings[id]
	return r, ok
}

// Set stores the competitor's current rating.
func (s *State) Set(id string, r float64) {
	s.ratings[id] = r
}

// Len is the number of competitors seen so far.
func (s *State) Len() int {
	return len(s.ratings)
}

// Result summarizes a rating pass.
type Result struct {
	Mode      Mode
	Processed int
	Skipped   int
	Updated   []int // indices of records whose ratings were written
	State     *State
}

// Engine runs the rating reduction.
type Engine struct {
	table    Table
	baseline float64
	prior    PriorLookup
	logger   *zap.Logger
	metrics  *metrics.Run
}

// Option configures an Engine.
type Option func(*Engine)

// WithBaseline overrides the starting rating.
func WithBaseline(b float64) Option {
	return func(e *Engine) { e.baseline = b }
}

// WithPriorLookup sets the history lookup used by incremental passes.
func WithPriorLookup(p PriorLookup) Option {
	return func(e *Engine) { e.prior = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the run metrics.
func WithMetrics(m *metrics.Run) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEngine builds an engine over the given constants table.
func NewEngine(table Table, opts ...Option) *Engine {
	e := &Engine{
		table:    table,
		baseline: DefaultBaseline,
		logger:   zap.NewNop(),
		metrics:  metrics.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Baseline returns the starting rating.
func (e *Engine) Baseline() float64 {
	return e.baseline
}

// Table returns the constants table.
func (e *Engine) Table() Table {
	return e.table
}

// CheckOrder verifies that records are strictly ascending by match id.
func CheckOrder(records []model.MatchRecord) error {
	for i := 1; i < len(records); i++ {
		if records[i].MatchID <= records[i-1].MatchID {
			return fmt.Errorf("%w: %q follows %q", ErrOutOfOrder, records[i].MatchID, records[i-1].MatchID)
		}
	}
	return nil
}

// Run rates records in place. Records must be strictly ascending by match id.
func (e *Engine) Run(ctx context.Context, records []model.MatchRecord, mode Mode) (Result, error) {
	if err := CheckOrder(records); err != nil {
		return Result{}, err
	}
	if mode == ModeIncremental && e.prior == nil {
		return Result{}, ErrNoPriorLookup
	}

	start := time.Now()
	res := Result{Mode: mode, State: NewState()}

	for i := range records {
		rec := &records[i]
		if mode == ModeIncremental && rec.HasRatings() {
			res.Skipped++
			continue
		}

		a, err := e.current(ctx, res.State, rec.CompetitorA, rec.MatchID, mode)
		if err != nil {
			return res, err
		}
		b, err := e.current(ctx, res.State, rec.CompetitorB, rec.MatchID, mode)
		if err != nil {
			return res, err
		}

		newA, newB := Pair(a, b, e.table.For(rec.TournamentLevel))
		rec.SetRatings(newA, newB)
		res.State.Set(rec.CompetitorA, newA)
		res.State.Set(rec.CompetitorB, newB)

		res.Processed++
		res.Updated = append(res.Updated, i)
	}

	e.metrics.RecordsRated.Add(float64(res.Processed))
	e.metrics.RecordsSkipped.Add(float64(res.Skipped))
	e.metrics.RatingPass.Observe(time.Since(start).Seconds())

	e.logger.Info("rating pass complete",
		zap.Stringer("mode", mode),
		zap.Int("records", len(records)),
		zap.Int("processed", res.Processed),
		zap.Int("skipped", res.Skipped),
		zap.Int("competitors", res.State.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// current returns the competitor's rating going into matchID.
func (e *Engine) current(ctx context.Context, st *State, id, matchID string, mode Mode) (float64, error) {
	if r, ok := st.Get(id); ok {
		return r, nil
	}
	if mode == ModeFull {
		return e.baseline, nil
	}

	e.metrics.PriorLookups.Inc()
	r, ok, err := e.prior.PriorRating(ctx, id, matchID)
	if err != nil {
		return 0, fmt.Errorf("prior rating for %s before %s: %w", id, matchID, err)
	}
	if !ok {
		r = e.baseline
	}
	e.logger.Debug("resolved prior rating",
		zap.String("competitor", id),
		zap.String("before", matchID),
		zap.Float64("rating", r),
		zap.Bool("found", ok),
	)
	st.Set(id, r)
	return r, nil
}
