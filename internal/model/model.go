package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the layout of the date prefix of every match id.
const DateLayout = "20060102"

const (
	dateLen       = 8
	tournamentLen = 13 // "YYYYMMDD_TTTT"
)

// ErrBadMatchID is returned when a match id does not start with a valid date.
var ErrBadMatchID = errors.New("malformed match id")

// MatchRecord is one finished match. CompetitorA is always the winner.
type MatchRecord struct {
	MatchID string

	CompetitorA string // canonical id of the winner
	CompetitorB string // canonical id of the loser
	NameA       string // raw name as supplied by the ledger
	NameB       string

	TournamentLevel string
	Surface         string
	CountryCode     string
	TournamentName  string
	Round           string

	// Post-match ratings; nil until the rating engine has run.
	RatingA *float64
	RatingB *float64

	// Per-match serve rating as supplied by the ledger; nil when unknown.
	ServeA *float64
	ServeB *float64

	// Running average of each competitor's per-match serve ratings up to and
	// including this match; nil when this match has no serve rating.
	ServeRatingA *float64
	ServeRatingB *float64

	Score string // e.g. "63_64", "76(5) 64"; empty if unresolved
}

// Date parses the date prefix of the match id.
func (m *MatchRecord) Date() (time.Time, error) {
	return ParseMatchDate(m.MatchID)
}

// TournamentKey returns the date+tournament prefix shared by every match of one tournament edition.
func (m *MatchRecord) TournamentKey() string {
	return TournamentKey(m.MatchID)
}

// Involves reports whether id played in this match.
func (m *MatchRecord) Involves(id string) bool {
	return m.CompetitorA == id || m.CompetitorB == id
}

// IsWinner reports whether id is competitor A.
func (m *MatchRecord) IsWinner(id string) bool {
	return m.CompetitorA == id
}

// Opponent returns the other competitor's id.
func (m *MatchRecord) Opponent(id string) string {
	if m.CompetitorA == id {
		return m.CompetitorB
	}
	return m.CompetitorA
}

// OwnRating returns id's stored post-match rating, or nil.
func (m *MatchRecord) OwnRating(id string) *float64 {
	if m.CompetitorA == id {
		return m.RatingA
	}
	if m.CompetitorB == id {
		return m.RatingB
	}
	return nil
}

// OpponentRating returns the stored post-match rating of id's opponent, or nil.
func (m *MatchRecord) OpponentRating(id string) *float64 {
	if m.CompetitorA == id {
		return m.RatingB
	}
	if m.CompetitorB == id {
		return m.RatingA
	}
	return nil
}

// OwnServeRating returns id's average serve rating in this match, or nil.
func (m *MatchRecord) OwnServeRating(id string) *float64 {
	if m.CompetitorA == id {
		return m.ServeRatingA
	}
	if m.CompetitorB == id {
		return m.ServeRatingB
	}
	return nil
}

// HasRatings reports whether both rating fields are populated.
func (m *MatchRecord) HasRatings() bool {
	return m.RatingA != nil && m.RatingB != nil
}

// SetRatings writes both post-match ratings.
func (m *MatchRecord) SetRatings(a, b float64) {
	m.RatingA = &a
	m.RatingB = &b
}

// Reference is a parsed point in time: all computations consider only matches strictly before MatchID.
type Reference struct {
	MatchID string
	Date    time.Time
}

// NewReference parses the date prefix of a match id.
func NewReference(matchID string) (Reference, error) {
	d, err := ParseMatchDate(matchID)
	if err != nil {
		return Reference{}, err
	}
	return Reference{MatchID: matchID, Date: d}, nil
}

// ReferenceAfter returns a reference that sorts after every match played on or before day.
func ReferenceAfter(day time.Time) Reference {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return Reference{MatchID: d.Format(DateLayout) + "_9999_999", Date: d}
}

// ParseMatchDate parses the first 8 characters of a match id.
func ParseMatchDate(matchID string) (time.Time, error) {
	if len(matchID) < dateLen {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadMatchID, matchID)
	}
	d, err := time.Parse(DateLayout, matchID[:dateLen])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadMatchID, matchID)
	}
	return d, nil
}

// TournamentKey returns the first 13 characters of a match id (date + tournament number).
func TournamentKey(matchID string) string {
	if len(matchID) < tournamentLen {
		return matchID
	}
	return matchID[:tournamentLen]
}

// Canonicalize normalizes a free-text name to a join key: ASCII letters and digits only, lowercased.
func Canonicalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r > unicode.MaxASCII {
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Band is a closed interval [Center-Margin, Center+Margin].
type Band struct {
	Center float64
	Margin float64
}

// Contains reports whether v lies within the band.
func (b Band) Contains(v float64) bool {
	return v >= b.Center-b.Margin && v <= b.Center+b.Margin
}

// Condition is a conjunctive filter over a competitor's history.
// A nil field does not filter; a non-nil empty string matches only empty attributes.
type Condition struct {
	Weeks           int // 0 means unbounded
	Surface         *string
	CountryCode     *string
	TournamentName  *string
	Round           *string
	TournamentLevel *string
	ServeBand       *Band
}

// Str returns a pointer to s, for building conditions.
func Str(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// RatingRun is one persisted pass of the rating engine.
type RatingRun struct {
	RunID      string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Skipped    int
}

// CompetitorRating is a competitor's latest stored rating, as read by listing views.
type CompetitorRating struct {
	Competitor string
	Name       string
	Rating     float64
	LastMatch  string
	Matches    int
}

// LedgerOverview holds aggregate counts for the summary command.
type LedgerOverview struct {
	TotalMatches  int
	RatedMatches  int
	Competitors   int
	Tournaments   int
	EarliestMatch string
	LatestMatch   string
}

// LevelCount is a per-tournament-level match count.
type LevelCount struct {
	Level   string
	Matches int
}
