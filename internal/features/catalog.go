package features

import (
	"github.com/pable/go-match-elo/internal/model"
)

// Field selects which attributes of the reference match a ConditionSpec pins.
type Field uint8

const (
	FieldSurface Field = 1 << iota
	FieldCountry
	FieldTournamentName
	FieldRound
	FieldLevel
)

// Has reports whether every bit of x is set in f.
func (f Field) Has(x Field) bool {
	return f&x == x
}

// ConditionSpec is a condition template; Bind fills it from a concrete match.
type ConditionSpec struct {
	Name   string
	Weeks  int // 0 means unbounded
	Fields Field
}

// Bind returns the condition restricted to the match's own attributes.
func (s ConditionSpec) Bind(m *model.MatchRecord) model.Condition {
	c := model.Condition{Weeks: s.Weeks}
	if s.Fields.Has(FieldSurface) {
		c.Surface = model.Str(m.Surface)
	}
	if s.Fields.Has(FieldCountry) {
		c.CountryCode = model.Str(m.CountryCode)
	}
	if s.Fields.Has(FieldTournamentName) {
		c.TournamentName = model.Str(m.TournamentName)
	}
	if s.Fields.Has(FieldRound) {
		c.Round = model.Str(m.Round)
	}
	if s.Fields.Has(FieldLevel) {
		c.TournamentLevel = model.Str(m.TournamentLevel)
	}
	return c
}

// PerformanceCatalog is evaluated for performance, win/loss and variance on each side.
func PerformanceCatalog() []ConditionSpec {
	return []ConditionSpec{
		{"weeks_4", 4, 0},
		{"weeks_8", 8, 0},
		{"weeks_16", 16, 0},
		{"weeks_32", 32, 0},
		{"weeks_64", 64, 0},
		{"weeks_128", 128, 0},
		{"weeks_256", 256, 0},
		{"weeks_512", 512, 0},
		{"surface_weeks_4", 4, FieldSurface},
		{"surface_weeks_8", 8, FieldSurface},
		{"surface_weeks_16", 16, FieldSurface},
		{"surface_weeks_32", 32, FieldSurface},
		{"surface_weeks_64", 64, FieldSurface},
		{"surface_weeks_128", 128, FieldSurface},
		{"surface_weeks_256", 256, FieldSurface},
		{"surface_weeks_512", 512, FieldSurface},
		{"IOC", 0, FieldCountry},
		{"IOC_weeks_128", 128, FieldCountry},
		{"IOC_weeks_256", 256, FieldCountry},
		{"tourney_name", 0, FieldTournamentName},
		{"tourney_name_weeks_128", 128, FieldTournamentName},
		{"tourney_name_weeks_256", 256, FieldTournamentName},
		{"round", 0, FieldRound},
		{"round_weeks_128", 128, FieldRound},
		{"round_weeks_256", 256, FieldRound},
		{"tourney_level", 0, FieldLevel},
		{"tourney_level_weeks_32", 32, FieldLevel},
		{"tourney_level_weeks_64", 64, FieldLevel},
		{"tourney_level_weeks_128", 128, FieldLevel},
		{"tourney_level_weeks_256", 256, FieldLevel},
		{"tourney_level_surface", 0, FieldLevel | FieldSurface},
		{"tourney_level_surface_weeks_64", 64, FieldLevel | FieldSurface},
		{"tourney_level_surface_weeks_128", 128, FieldLevel | FieldSurface},
		{"tourney_level_surface_weeks_256", 256, FieldLevel | FieldSurface},
	}
}

// HeadToHeadCatalog is evaluated for the head-to-head tally.
func HeadToHeadCatalog() []ConditionSpec {
	return []ConditionSpec{
		{"weeks_99999", 0, 0},
		{"weeks_128", 128, 0},
		{"weeks_32", 32, 0},
		{"surface", 0, FieldSurface},
		{"surface_weeks_128", 128, FieldSurface},
		{"IOC", 0, FieldCountry},
		{"tourney_level", 0, FieldLevel},
		{"round", 0, FieldRound},
	}
}
