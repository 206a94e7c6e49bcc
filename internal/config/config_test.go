package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geoverify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
source:
  type: csv
  csv:
    dir: /data/extracts
checks:
  workers: 4
log:
  level: debug
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Source.Type)
	assert.Equal(t, "/data/extracts", cfg.Source.CSV.Dir)
	assert.Equal(t, 4, cfg.Checks.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultPostgresHost, cfg.Source.Postgres.Host)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
}

func TestLoadPostgresDefaults(t *testing.T) {
	path := writeConfigFile(t, `
source:
  type: postgres
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPostgresDatabase, cfg.Source.Postgres.Database)
	assert.Equal(t, DefaultPostgresPort, cfg.Source.Postgres.Port)
	assert.Equal(t, DefaultPostgresUser, cfg.Source.Postgres.User)
	assert.Equal(t, "disable", cfg.Source.Postgres.SSLMode)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
source:
  type: csv
  csv:
    dir: /from/file
`)
	t.Setenv("GEOVERIFY_SOURCE__CSV__DIR", "/from/env")
	t.Setenv("GEOVERIFY_LOG__FORMAT", "json")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Source.CSV.Dir)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	path := writeConfigFile(t, `
source:
  type: csv
  csv:
    dir: /from/file
`)
	t.Setenv("GEOVERIFY_SOURCE__CSV__DIR", "/from/env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("csv-dir", "", "")
	flags.Int("workers", 0, "")
	flags.Int("port", 0, "")
	require.NoError(t, flags.Parse([]string{"--csv-dir=/from/flag", "--workers=8"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.Source.CSV.Dir)
	assert.Equal(t, 8, cfg.Checks.Workers)
	// A flag left at its zero value is not applied.
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Source: SourceConfig{Type: "csv", CSV: CSVConfig{Dir: "/data"}},
			Server: ServerConfig{Port: 8080},
			Log:    LogConfig{Level: "info", Format: "text"},
		}
	}
	require.NoError(t, valid().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing csv dir", func(c *Config) { c.Source.CSV.Dir = "" }, "source.csv.dir"},
		{"staging on csv", func(c *Config) { c.Source.StagingPrefixes = []string{"aug"} }, "staging_prefixes"},
		{"unknown source", func(c *Config) { c.Source.Type = "oracle" }, "unknown source.type"},
		{"negative workers", func(c *Config) { c.Checks.Workers = -1 }, "checks.workers"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	pg := &Config{
		Source: SourceConfig{Type: "postgres"},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
	err := pg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.postgres.database")

	pg.Source.Postgres.Database = "pg_geocoding"
	pg.Source.StagingPrefixes = []string{"aug"}
	assert.NoError(t, pg.Validate())
}

func TestValidateChecks(t *testing.T) {
	assert.NoError(t, ValidateChecks(nil))
	assert.NoError(t, ValidateChecks([]string{"validity", "overlap"}))
	err := ValidateChecks([]string{"validity", "geometry"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown check "geometry"`)
}
