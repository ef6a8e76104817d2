package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-match-elo/internal/features"
	"github.com/pable/go-match-elo/internal/model"
)

func sampleVectors() []features.Vector {
	return []features.Vector{
		{MatchID: "20230102_0001_001", First: "fed", Second: "nadal", Label: 1, Values: []float64{1, 1515.5}},
		{MatchID: "20230102_0001_001", First: "nadal", Second: "fed", Label: 0, Values: []float64{1, 1484.5}},
	}
}

func TestWriteDatasetJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDataset(&buf, "jsonl", "abc123", []string{"surface_hard", "first_previous_rating"}, sampleVectors()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var h datasetHeader
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &h))
	assert.Equal(t, "abc123", h.Version)
	assert.Equal(t, []string{"surface_hard", "first_previous_rating"}, h.Labels)

	var row datasetRow
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &row))
	assert.Equal(t, "nadal", row.First)
	assert.Equal(t, 0, row.Label)
	assert.Equal(t, []float64{1, 1484.5}, row.Values)
}

func TestWriteDatasetCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDataset(&buf, "csv", "abc123", []string{"surface_hard", "first_previous_rating"}, sampleVectors()))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"match_id", "first", "second", "label", "version", "surface_hard", "first_previous_rating"}, recs[0])
	assert.Equal(t, []string{"20230102_0001_001", "fed", "nadal", "1", "abc123", "1", "1515.5"}, recs[1])
}

func TestWriteDatasetUnknownFormat(t *testing.T) {
	assert.Error(t, writeDataset(&bytes.Buffer{}, "parquet", "v", nil, nil))
}

func TestContextFlagsPin(t *testing.T) {
	base := model.MatchRecord{Surface: "Clay", TournamentLevel: "A", Round: "F", CountryCode: "ESP"}
	f := contextFlags{surface: "Grass", round: "SF", serveMargin: 10}

	pinned := f.pin(base)
	assert.Equal(t, "Grass", pinned.Surface)
	assert.Equal(t, "SF", pinned.Round)
	assert.Equal(t, "A", pinned.TournamentLevel)
	assert.Equal(t, "Clay", base.Surface, "base is not modified")

	spec := features.ConditionSpec{Name: "surface_weeks_4", Weeks: 4, Fields: features.FieldSurface}
	c := f.bind(spec, &pinned)
	require.NotNil(t, c.Surface)
	assert.Equal(t, "Grass", *c.Surface)
	assert.Nil(t, c.ServeBand)

	f.serveCenter = 250
	c = f.bind(spec, &pinned)
	require.NotNil(t, c.ServeBand)
	assert.Equal(t, model.Band{Center: 250, Margin: 10}, *c.ServeBand)
}

func TestContextFlagsReference(t *testing.T) {
	f := contextFlags{at: "20230109_0002_001"}
	ref, err := f.reference()
	require.NoError(t, err)
	assert.Equal(t, "20230109_0002_001", ref.MatchID)

	f.at = "soon"
	_, err = f.reference()
	assert.ErrorIs(t, err, model.ErrBadMatchID)

	f.at = ""
	ref, err = f.reference()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref.MatchID, "_9999_999"))
}
