// Package config defines matchelo configuration and its layered loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/pable/go-match-elo/internal/aggregator"
	"github.com/pable/go-match-elo/internal/rating"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "console" or "json".
	LogFormat string `koanf:"log_format"`

	DB       DB       `koanf:"db"`
	Rating   Rating   `koanf:"rating"`
	Features Features `koanf:"features"`

	// MetricsFile, when set, receives a prometheus textfile dump after each command.
	MetricsFile string `koanf:"metrics_file"`
}

// DB selects the ledger store.
type DB struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// Rating holds the rating engine constants.
type Rating struct {
	Baseline     float64                     `koanf:"baseline"`
	DefaultLevel string                      `koanf:"default_level"`
	Levels       map[string]rating.Constants `koanf:"levels"`
}

// Features configures the feature builder.
type Features struct {
	Workers   int `koanf:"workers"`
	ShortDays int `koanf:"short_days"`
	LongDays  int `koanf:"long_days"`
}

// DefaultDir is the per-user state directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".matchelo"
	}
	return filepath.Join(home, ".matchelo")
}

// New returns a Config holding the defaults.
func New() *Config {
	t := rating.DefaultTable()
	return &Config{
		LogLevel:  "info",
		LogFormat: "console",
		DB: DB{
			Driver: "sqlite",
			DSN:    filepath.Join(DefaultDir(), "ledger.db"),
		},
		Rating: Rating{
			Baseline:     rating.DefaultBaseline,
			DefaultLevel: t.DefaultLevel,
			Levels:       t.Levels,
		},
		Features: Features{
			Workers:   runtime.NumCPU(),
			ShortDays: aggregator.DefaultWindows().ShortDays,
			LongDays:  aggregator.DefaultWindows().LongDays,
		},
	}
}

// defaults flattens New() into koanf keys.
func defaults() map[string]any {
	c := New()
	m := map[string]any{
		"log_level":            c.LogLevel,
		"log_format":           c.LogFormat,
		"db.driver":            c.DB.Driver,
		"db.dsn":               c.DB.DSN,
		"rating.baseline":      c.Rating.Baseline,
		"rating.default_level": c.Rating.DefaultLevel,
		"features.workers":     c.Features.Workers,
		"features.short_days":  c.Features.ShortDays,
		"features.long_days":   c.Features.LongDays,
		"metrics_file":         c.MetricsFile,
	}
	for level, k := range c.Rating.Levels {
		m["rating.levels."+level+".k"] = k.K
		m["rating.levels."+level+".s"] = k.S
	}
	return m
}

// levelNames returns the configured level keys in sorted order.
func (c *Config) levelNames() []string {
	names := make([]string, 0, len(c.Rating.Levels))
	for l := range c.Rating.Levels {
		names = append(names, l)
	}
	slices.Sort(names)
	return names
}

// Table returns the rating constants table. Level names are upper-cased; if
// two keys differ only in case the upper-case one wins.
func (c *Config) Table() rating.Table {
	levels := make(map[string]rating.Constants, len(c.Rating.Levels))
	for _, l := range c.levelNames() {
		up := strings.ToUpper(l)
		if _, ok := levels[up]; !ok {
			levels[up] = c.Rating.Levels[l]
		}
	}
	return rating.Table{Levels: levels, DefaultLevel: strings.ToUpper(c.Rating.DefaultLevel)}
}

// Windows returns the workload windows.
func (c *Config) Windows() aggregator.WorkloadWindows {
	return aggregator.WorkloadWindows{ShortDays: c.Features.ShortDays, LongDays: c.Features.LongDays}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	var errs []error
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("db.driver %q: want sqlite or postgres", c.DB.Driver))
	}
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn must not be empty"))
	}
	if c.Rating.Baseline <= 0 {
		errs = append(errs, errors.New("rating.baseline must be positive"))
	}
	seen := make(map[string]string, len(c.Rating.Levels))
	for _, l := range c.levelNames() {
		up := strings.ToUpper(l)
		if prev, dup := seen[up]; dup {
			errs = append(errs, fmt.Errorf("rating.levels: %q and %q name the same level", prev, l))
		}
		seen[up] = l
	}
	t := c.Table()
	if _, ok := t.Levels[t.DefaultLevel]; !ok {
		errs = append(errs, fmt.Errorf("rating.default_level %q has no constants", c.Rating.DefaultLevel))
	}
	for l, k := range t.Levels {
		if k.K <= 0 || k.S <= 0 {
			errs = append(errs, fmt.Errorf("rating.levels.%s: k and s must be positive", l))
		}
	}
	if c.Features.Workers < 1 {
		errs = append(errs, errors.New("features.workers must be at least 1"))
	}
	if c.Features.ShortDays < 1 || c.Features.LongDays < c.Features.ShortDays {
		errs = append(errs, errors.New("features: need 1 <= short_days <= long_days"))
	}
	return errors.Join(errs...)
}
