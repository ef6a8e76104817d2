package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment override. A double underscore nests:
// MATCHELO_DB__DRIVER sets db.driver.
const EnvPrefix = "MATCHELO_"

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"db":           "db.dsn",
	"driver":       "db.driver",
	"log-level":    "log_level",
	"log-format":   "log_format",
	"metrics-file": "metrics_file",
	"workers":      "features.workers",
}

// Load builds a Config by layering, low to high:
//  1. defaults
//  2. YAML file (cfgFile, else $MATCHELO_CONFIG, else ~/.matchelo/config.yaml if present)
//  3. env (prefix MATCHELO_)
//  4. flags that were explicitly set
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, "", fmt.Errorf("load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), levelParser{yaml.Parser()}); err != nil {
			return nil, "", fmt.Errorf("read config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, "", fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, used, nil
}

// levelParser upper-cases the keys under rating.levels so that a file may name
// a level in either case and still merge over the default of the same name.
type levelParser struct {
	koanf.Parser
}

func (p levelParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	m, err := p.Parser.Unmarshal(b)
	if err != nil {
		return nil, err
	}
	if err := normalizeLevels(m); err != nil {
		return nil, err
	}
	return m, nil
}

func normalizeLevels(m map[string]interface{}) error {
	r, ok := m["rating"].(map[string]interface{})
	if !ok {
		return nil
	}
	levels, ok := r["levels"].(map[string]interface{})
	if !ok {
		return nil
	}
	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make(map[string]interface{}, len(levels))
	seen := make(map[string]string, len(levels))
	for _, name := range names {
		up := strings.ToUpper(name)
		if prev, dup := seen[up]; dup {
			return fmt.Errorf("rating.levels: %q and %q name the same level", prev, name)
		}
		seen[up] = name
		out[up] = levels[name]
	}
	r["levels"] = out
	return nil
}

// envKey maps MATCHELO_RATING__LEVELS__G__K to rating.levels.G.k.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	s = strings.ReplaceAll(s, "__", ".")
	if rest, ok := strings.CutPrefix(s, "rating.levels."); ok {
		level, field, _ := strings.Cut(rest, ".")
		s = "rating.levels." + strings.ToUpper(level) + "." + field
	}
	return s
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	p := filepath.Join(DefaultDir(), "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}
