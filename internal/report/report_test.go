package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pable/go-match-elo/internal/aggregator"
	"github.com/pable/go-match-elo/internal/model"
)

func TestPrintMatchTableFocus(t *testing.T) {
	m := model.MatchRecord{
		MatchID: "20230102_0001_001", CompetitorA: "fed", CompetitorB: "nadal",
		NameA: "Fed", NameB: "Nadal", TournamentLevel: "A", Surface: "Hard", Score: "63_64",
	}
	m.SetRatings(1515, 1485)

	var buf bytes.Buffer
	PrintMatchTable(&buf, []model.MatchRecord{m}, "nadal")
	out := buf.String()
	for _, want := range []string{"OPPONENT", "Fed", "1485.0", "1515.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintMatchTableUnrated(t *testing.T) {
	var buf bytes.Buffer
	PrintMatchTable(&buf, []model.MatchRecord{{MatchID: "20230102_0001_001", NameA: "Fed", NameB: "Nadal"}}, "")
	if !strings.Contains(buf.String(), "WINNER") {
		t.Errorf("expected winner header:\n%s", buf.String())
	}
}

func TestPrintProfile(t *testing.T) {
	var buf bytes.Buffer
	PrintProfile(&buf, Profile{
		Competitor: "fed", Name: "Fed", Reference: "20230109_9999_999",
		Previous: 1515, Peak: 1520, DaysSinceDebut: 7,
		Workload: aggregator.Workload{LastMatch: 19, Tournament: 19, Short: 38, Long: 38},
		Rows: []ProfileRow{
			{Condition: "weeks_52", Performance: 1510, Wins: 3, Losses: 1, Variance: 12.5},
			{Condition: "surface", Performance: 1500},
		},
	})
	out := buf.String()
	for _, want := range []string{"Fed (fed)", "Peak: 1520.0", "75%", "weeks_52"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintVectors(t *testing.T) {
	var buf bytes.Buffer
	PrintVectors(&buf, []string{"surface_hard", "first_previous_rating"},
		[]string{"fed v nadal", "nadal v fed"}, [][]float64{{1, 1515}, {1, 1485}})
	out := buf.String()
	for _, want := range []string{"FEATURE", "first_previous_rating", "1515", "1485"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintOverviewEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintOverview(&buf, model.LedgerOverview{}, []model.LevelCount{{Level: "", Matches: 0}})
	if !strings.Contains(buf.String(), "(none)") {
		t.Errorf("expected empty level placeholder:\n%s", buf.String())
	}
}
