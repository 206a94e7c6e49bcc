package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names searched in the working directory when no explicit path
// is given.
const (
	ConfigFileName    = "geoverify.yaml"
	ConfigFileNameAlt = "geoverify.yml"
)

// envPrefix is the environment variable prefix. Key segments are separated
// with a double underscore: GEOVERIFY_SOURCE__CSV__DIR maps to
// source.csv.dir.
const envPrefix = "GEOVERIFY_"

// flagKeys maps command-line flag names to configuration keys. Only flags
// the user actually set are applied.
var flagKeys = map[string]string{
	"source-type":      "source.type",
	"csv-dir":          "source.csv.dir",
	"pg-host":          "source.postgres.host",
	"pg-port":          "source.postgres.port",
	"pg-database":      "source.postgres.database",
	"pg-user":          "source.postgres.user",
	"pg-password":      "source.postgres.password",
	"pg-sslmode":       "source.postgres.sslmode",
	"staging-prefixes": "source.staging_prefixes",
	"workers":          "checks.workers",
	"port":             "server.port",
	"history":          "history.path",
	"log-level":        "log.level",
	"log-format":       "log.format",
}

// findConfigFile resolves the config file to load: an explicit path wins,
// otherwise the conventional names in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration from defaults, the config file, environment
// variables and flags, in ascending priority, and validates the result.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
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
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
