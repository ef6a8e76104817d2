package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-match-elo/internal/rating"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "matchelo.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvPrefix+"CONFIG", "")
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, used, err := Load("", nil)
	require.NoError(t, err)
	assert.Empty(t, used)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 1500.0, cfg.Rating.Baseline)

	tbl := cfg.Table()
	assert.Equal(t, "A", tbl.DefaultLevel)
	assert.Equal(t, 46.0, tbl.Levels["F"].K)
	assert.Equal(t, 359.0, tbl.Levels["G"].S)
	assert.Equal(t, 14, cfg.Windows().ShortDays)
}

func TestLoadPrecedence(t *testing.T) {
	isolate(t)
	path := writeYAML(t, `
log_level: debug
db:
  driver: postgres
  dsn: postgres://file
rating:
  levels:
    G:
      k: 40
features:
  workers: 3
`)

	// file over defaults
	cfg, used, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://file", cfg.DB.DSN)
	assert.Equal(t, 40.0, cfg.Table().Levels["G"].K)
	assert.Equal(t, 359.0, cfg.Table().Levels["G"].S, "unset keys keep their defaults")

	// env over file
	t.Setenv("MATCHELO_DB__DSN", "postgres://env")
	t.Setenv("MATCHELO_RATING__LEVELS__G__K", "42")
	t.Setenv("MATCHELO_FEATURES__WORKERS", "5")
	cfg, _, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.DB.DSN)
	assert.Equal(t, 42.0, cfg.Table().Levels["G"].K)
	assert.Equal(t, 5, cfg.Features.Workers)

	// flags over env, only when changed
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "", "")
	fs.Int("workers", 1, "")
	fs.String("log-level", "info", "")
	require.NoError(t, fs.Parse([]string{"--db", "postgres://flag", "--workers", "7"}))

	cfg, _, err = Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag", cfg.DB.DSN)
	assert.Equal(t, 7, cfg.Features.Workers)
	assert.Equal(t, "debug", cfg.LogLevel, "unchanged flag does not override")
}

func TestLoadRejectsInvalid(t *testing.T) {
	isolate(t)
	path := writeYAML(t, `
db:
  driver: oracle
features:
  workers: 0
`)
	_, _, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db.driver")
	assert.Contains(t, err.Error(), "features.workers")
}

func TestLoadLowerCaseLevelMergesOverDefault(t *testing.T) {
	isolate(t)
	path := writeYAML(t, `
rating:
  default_level: a
  levels:
    f:
      k: 99
`)
	for range 50 {
		cfg, _, err := Load(path, nil)
		require.NoError(t, err)
		tbl := cfg.Table()
		assert.Equal(t, 99.0, tbl.Levels["F"].K)
		assert.Equal(t, 309.0, tbl.Levels["F"].S, "unset keys keep their defaults")
		assert.Equal(t, "A", tbl.DefaultLevel)
		assert.NotContains(t, cfg.Rating.Levels, "f")
	}
}

func TestLoadRejectsLevelsDifferingInCase(t *testing.T) {
	isolate(t)
	path := writeYAML(t, `
rating:
  levels:
    f:
      k: 99
    F:
      k: 50
`)
	_, _, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name the same level")
}

func TestValidateRejectsLevelsDifferingInCase(t *testing.T) {
	cfg := New()
	cfg.Rating.Levels = map[string]rating.Constants{
		"A": {K: 28, S: 422},
		"a": {K: 99, S: 400},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"A" and "a" name the same level`)
	assert.Equal(t, 28.0, cfg.Table().Levels["A"].K, "upper-case key wins")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "log_level", envKey("MATCHELO_LOG_LEVEL"))
	assert.Equal(t, "db.driver", envKey("MATCHELO_DB__DRIVER"))
	assert.Equal(t, "rating.levels.G.s", envKey("MATCHELO_RATING__LEVELS__G__S"))
}
