package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-match-elo/internal/aggregator"
	"github.com/pable/go-match-elo/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func ratingStr(r *float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *r)
}

// PrintMatchSummary prints a one-line header for a match.
func PrintMatchSummary(w io.Writer, m model.MatchRecord) {
	fmt.Fprintf(w, "\nMatch: %s  |  %s d. %s  |  %s %s %s  |  Level: %s  |  Score: %s\n\n",
		m.MatchID, m.NameA, m.NameB, m.TournamentName, m.Round, m.Surface, m.TournamentLevel, m.Score)
}

// PrintMatchTable prints matches with their post-match ratings.
// If focus is non-empty, rows are shown from that competitor's side and marked W/L.
func PrintMatchTable(w io.Writer, matches []model.MatchRecord, focus string) {
	table := newTable(w)
	if focus == "" {
		table.Header("MATCH_ID", "WINNER", "LOSER", "LEVEL", "SURFACE", "TOURNAMENT", "ROUND", "SCORE", "ELO_W", "ELO_L")
		for _, m := range matches {
			table.Append(m.MatchID, m.NameA, m.NameB, m.TournamentLevel, m.Surface,
				m.TournamentName, m.Round, m.Score, ratingStr(m.RatingA), ratingStr(m.RatingB))
		}
		table.Render()
		return
	}

	table.Header("MATCH_ID", "RES", "OPPONENT", "LEVEL", "SURFACE", "TOURNAMENT", "ROUND", "SCORE", "ELO", "OPP_ELO")
	for _, m := range matches {
		res, opp := "L", m.NameA
		if m.IsWinner(focus) {
			res, opp = "W", m.NameB
		}
		table.Append(m.MatchID, res, opp, m.TournamentLevel, m.Surface, m.TournamentName, m.Round, m.Score,
			ratingStr(m.OwnRating(focus)), ratingStr(m.OpponentRating(focus)))
	}
	table.Render()
}

// PrintLeaderboard prints the current rating of each competitor.
func PrintLeaderboard(w io.Writer, rows []model.CompetitorRating) {
	table := newTable(w)
	table.Header("#", "COMPETITOR", "NAME", "ELO", "MATCHES", "LAST_MATCH")
	for i, r := range rows {
		table.Append(strconv.Itoa(i+1), r.Competitor, r.Name, fmt.Sprintf("%.1f", r.Rating),
			strconv.Itoa(r.Matches), r.LastMatch)
	}
	table.Render()
}

// PrintRuns prints the rating run log.
func PrintRuns(w io.Writer, runs []model.RatingRun) {
	table := newTable(w)
	table.Header("RUN_ID", "MODE", "STARTED", "DURATION", "PROCESSED", "SKIPPED")
	for _, r := range runs {
		table.Append(r.RunID, r.Mode, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
			strconv.Itoa(r.Processed), strconv.Itoa(r.Skipped))
	}
	table.Render()
}

// PrintOverview prints ledger totals and the per-level breakdown.
func PrintOverview(w io.Writer, o model.LedgerOverview, levels []model.LevelCount) {
	fmt.Fprintf(w, "\n=== Ledger Summary ===\n\n")
	fmt.Fprintf(w, "  Matches stored : %d (%d rated)\n", o.TotalMatches, o.RatedMatches)
	fmt.Fprintf(w, "  Date range     : %s → %s\n", o.EarliestMatch, o.LatestMatch)
	fmt.Fprintf(w, "  Competitors    : %d\n", o.Competitors)
	fmt.Fprintf(w, "  Tournaments    : %d\n", o.Tournaments)
	fmt.Fprintf(w, "\n--- Levels ---\n")

	table := newTable(w)
	table.Header("LEVEL", "MATCHES", "SHARE")
	for _, l := range levels {
		share := 0.0
		if o.TotalMatches > 0 {
			share = 100 * float64(l.Matches) / float64(o.TotalMatches)
		}
		level := l.Level
		if level == "" {
			level = "(none)"
		}
		table.Append(level, strconv.Itoa(l.Matches), fmt.Sprintf("%.1f%%", share))
	}
	table.Render()
}

// ProfileRow is one conditioned line of a competitor profile.
type ProfileRow struct {
	Condition   string
	Performance float64
	Wins        int
	Losses      int
	Variance    float64
}

// Profile is a competitor's aggregate statistics at a reference point.
type Profile struct {
	Competitor     string
	Name           string
	Reference      string
	Previous       float64
	Peak           float64
	DaysSinceDebut int
	Quarters       int
	Workload       aggregator.Workload
	Rows           []ProfileRow
}

// PrintProfile prints the headline numbers then one row per condition.
func PrintProfile(w io.Writer, p Profile) {
	fmt.Fprintf(w, "\n%s (%s) as of %s\n", p.Name, p.Competitor, p.Reference)
	fmt.Fprintf(w, "Elo: %.1f  |  Peak: %.1f  |  Days since debut: %d  |  Quarters idle: %d\n",
		p.Previous, p.Peak, p.DaysSinceDebut, p.Quarters)
	fmt.Fprintf(w, "Games: last %d  |  tournament %d  |  short window %d  |  long window %d\n\n",
		p.Workload.LastMatch, p.Workload.Tournament, p.Workload.Short, p.Workload.Long)

	table := newTable(w)
	table.Header("CONDITION", "PERF", "W", "L", "WIN%", "ELO_VAR")
	for _, r := range p.Rows {
		winPct := "-"
		if n := r.Wins + r.Losses; n > 0 {
			winPct = fmt.Sprintf("%.0f%%", 100*float64(r.Wins)/float64(n))
		}
		table.Append(r.Condition, fmt.Sprintf("%.1f", r.Performance), strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses), winPct, fmt.Sprintf("%.1f", r.Variance))
	}
	table.Render()
}

// TrendPoint is one match in a rating history.
type TrendPoint struct {
	MatchID  string
	Opponent string
	Won      bool
	Rating   float64
	Delta    float64
}

// PrintTrend prints a competitor's rating after each match.
func PrintTrend(w io.Writer, points []TrendPoint) {
	table := newTable(w)
	table.Header("MATCH_ID", "RES", "OPPONENT", "ELO", "DELTA")
	for _, p := range points {
		res := "L"
		if p.Won {
			res = "W"
		}
		table.Append(p.MatchID, res, p.Opponent, fmt.Sprintf("%.1f", p.Rating), fmt.Sprintf("%+.1f", p.Delta))
	}
	table.Render()
}

// HeadToHeadRow is the tally under one condition.
type HeadToHeadRow struct {
	Condition string
	Tally     aggregator.Tally
}

// PrintHeadToHead prints the head-to-head tally per condition.
func PrintHeadToHead(w io.Writer, first, second string, rows []HeadToHeadRow) {
	table := newTable(w)
	table.Header("CONDITION", first, second)
	for _, r := range rows {
		table.Append(r.Condition, strconv.Itoa(r.Tally.Wins), strconv.Itoa(r.Tally.Losses))
	}
	table.Render()
}

// PrintVectors prints labelled feature values side by side, one column per vector.
func PrintVectors(w io.Writer, labels []string, headers []string, vectors [][]float64) {
	table := newTable(w)
	h := append([]any{"FEATURE"}, toAny(headers)...)
	table.Header(h...)
	for i, l := range labels {
		row := []any{l}
		for _, v := range vectors {
			if i < len(v) {
				row = append(row, strconv.FormatFloat(v[i], 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		table.Append(row...)
	}
	table.Render()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
