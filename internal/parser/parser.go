// Package parser reads match ledgers from CSV files.
package parser

import (
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pable/go-match-elo/internal/model"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing required column")

// Ledger is the parsed content of one CSV file.
type Ledger struct {
	Records []model.MatchRecord
	Digest  string // sha256 of the file contents
}

type column int

const (
	colMatchID column = iota
	colNameA
	colNameB
	colLevel
	colSurface
	colCountry
	colTournament
	colRound
	colScore
	colRatingA
	colRatingB
	colServeA
	colServeB
	colAvgServeA
	colAvgServeB
	numColumns
)

// aliases maps accepted header names (lowercased) to columns.
var aliases = map[string]column{
	"match_id":           colMatchID,
	"name_a":             colNameA,
	"a_name":             colNameA,
	"winner":             colNameA,
	"name_b":             colNameB,
	"b_name":             colNameB,
	"loser":              colNameB,
	"tournament_level":   colLevel,
	"tourney_level":      colLevel,
	"level":              colLevel,
	"surface":            colSurface,
	"country_code":       colCountry,
	"tourney_ioc":        colCountry,
	"ioc":                colCountry,
	"tournament_name":    colTournament,
	"tourney_name":       colTournament,
	"round":              colRound,
	"score":              colScore,
	"rating_a":           colRatingA,
	"a_elo":              colRatingA,
	"rating_b":           colRatingB,
	"b_elo":              colRatingB,
	"serve_a":            colServeA,
	"serve_rating_a":     colServeA,
	"a_serve_rating":     colServeA,
	"serve_b":            colServeB,
	"serve_rating_b":     colServeB,
	"b_serve_rating":     colServeB,
	"avg_serve_rating_a": colAvgServeA,
	"a_avg_serve_rating": colAvgServeA,
	"avg_serve_rating_b": colAvgServeB,
	"b_avg_serve_rating": colAvgServeB,
}

var required = []column{colMatchID, colNameA, colNameB}

// ParseLedger reads the CSV ledger at path.
func ParseLedger(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	recs, err := ReadLedger(io.TeeReader(f, h))
	if err != nil {
		return nil, err
	}
	return &Ledger{Records: recs, Digest: fmt.Sprintf("%x", h.Sum(nil))}, nil
}

// ReadLedger parses CSV rows into match records. The first row is the header.
// Names are canonicalized into competitor ids; competitor A is the winner.
func ReadLedger(r io.Reader) ([]model.MatchRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make([]int, numColumns)
	for i := range idx {
		idx[i] = -1
	}
	for i, name := range header {
		if c, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok && idx[c] < 0 {
			idx[c] = i
		}
	}
	for _, c := range required {
		if idx[c] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, requiredName(c))
		}
	}

	seen := make(map[string]int)
	var out []model.MatchRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		get := func(c column) string {
			if idx[c] < 0 || idx[c] >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx[c]])
		}

		m := model.MatchRecord{
			MatchID:         get(colMatchID),
			NameA:           get(colNameA),
			NameB:           get(colNameB),
			TournamentLevel: get(colLevel),
			Surface:         get(colSurface),
			CountryCode:     get(colCountry),
			TournamentName:  get(colTournament),
			Round:           get(colRound),
			Score:           get(colScore),
		}
		if _, err := model.ParseMatchDate(m.MatchID); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if prev, dup := seen[m.MatchID]; dup {
			return nil, fmt.Errorf("line %d: duplicate match id %s (first on line %d)", line, m.MatchID, prev)
		}
		seen[m.MatchID] = line

		m.CompetitorA = model.Canonicalize(m.NameA)
		m.CompetitorB = model.Canonicalize(m.NameB)
		if m.CompetitorA == "" || m.CompetitorB == "" {
			return nil, fmt.Errorf("line %d: match %s has an empty competitor name", line, m.MatchID)
		}

		for _, f := range []struct {
			c   column
			dst **float64
		}{
			{colRatingA, &m.RatingA},
			{colRatingB, &m.RatingB},
			{colServeA, &m.ServeA},
			{colServeB, &m.ServeB},
			{colAvgServeA, &m.ServeRatingA},
			{colAvgServeB, &m.ServeRatingB},
		} {
			v, err := parseOptionalFloat(get(f.c))
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, header[idx[f.c]], err)
			}
			*f.dst = v
		}
		out = append(out, m)
	}
	return out, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null":
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func requiredName(c column) string {
	switch c {
	case colMatchID:
		return "match_id"
	case colNameA:
		return "name_a"
	case colNameB:
		return "name_b"
	}
	return "?"
}
