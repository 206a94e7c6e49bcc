// Package config defines the geoverify configuration model and its loader.
// Values layer in the usual order: built-in defaults, then the YAML config
// file, then GEOVERIFY_ environment variables, then command-line flags.
package config

import (
	"fmt"

	"github.com/geostack-labs/geoverify/internal/validate"
)

// Config is the root configuration.
type Config struct {
	Source  SourceConfig  `koanf:"source"`
	Checks  ChecksConfig  `koanf:"checks"`
	Server  ServerConfig  `koanf:"server"`
	History HistoryConfig `koanf:"history"`
	Log     LogConfig     `koanf:"log"`
}

// SourceConfig selects the dataset backend.
type SourceConfig struct {
	// Type is "csv" or "postgres".
	Type string `koanf:"type"`

	CSV      CSVConfig      `koanf:"csv"`
	Postgres PostgresConfig `koanf:"postgres"`

	// StagingPrefixes lists staging datasets to overlay onto production,
	// in application order. Postgres only.
	StagingPrefixes []string `koanf:"staging_prefixes"`
}

// CSVConfig locates the CSV extract directory.
type CSVConfig struct {
	Dir string `koanf:"dir"`
}

// PostgresConfig holds the geocoding database connection parameters.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// ChecksConfig tunes check execution.
type ChecksConfig struct {
	// Workers bounds the overlap check's worker pool. Zero means one
	// per CPU.
	Workers int `koanf:"workers"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port int `koanf:"port"`
}

// HistoryConfig configures the optional run-history store. An empty path
// disables it.
type HistoryConfig struct {
	Path string `koanf:"path"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `koanf:"level"`
	// Format is text or json.
	Format string `koanf:"format"`
}

// Validate checks the configuration for problems that would make a run
// impossible. Called once at startup; failures are fatal.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case "csv":
		if c.Source.CSV.Dir == "" {
			return fmt.Errorf("source.csv.dir is required for the csv source")
		}
		if len(c.Source.StagingPrefixes) > 0 {
			return fmt.Errorf("source.staging_prefixes is not supported by the csv source")
		}
	case "postgres":
		if c.Source.Postgres.Database == "" {
			return fmt.Errorf("source.postgres.database is required for the postgres source")
		}
	default:
		return fmt.Errorf("unknown source.type %q (expected csv or postgres)", c.Source.Type)
	}

	if c.Checks.Workers < 0 {
		return fmt.Errorf("checks.workers must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}

	return nil
}

// ValidateChecks verifies a user-supplied check selection.
func ValidateChecks(names []string) error {
	for _, name := range names {
		if !validate.KnownCheck(name) {
			return fmt.Errorf("unknown check %q (available: %v)", name, validate.CheckNames)
		}
	}
	return nil
}
