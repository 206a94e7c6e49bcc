// Package source provides the raw row sources feeding the validation
// pipeline. A source yields typed rows per logical table from either a
// directory of CSV extracts or a PostgreSQL geocoding database, optionally
// per staging prefix.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/geostack-labs/geoverify/internal/feature"
)

// ErrStagingUnsupported is returned by sources that have no notion of
// staging datasets (the CSV extracts).
var ErrStagingUnsupported = errors.New("source does not support staging prefixes")

// SchemaError reports that an expected file, table or column is missing.
// It is fatal at startup, before any assembly begins.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s source: missing %s", e.Source, strings.Join(e.Missing, ", "))
}

// Config selects and parameterizes a row source.
type Config struct {
	// Type is the registered source type: "csv" or "postgres".
	Type string

	// Dir is the directory holding the CSV extracts (csv type).
	Dir string

	// Connection parameters (postgres type).
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// StagingPrefixes lists the staging datasets to overlay onto
	// production, applied in order.
	StagingPrefixes []string
}

// Source produces the raw rows for one backing dataset.
type Source interface {
	// Fetch returns the production dataset. Connectivity and schema
	// problems are fatal errors.
	Fetch(ctx context.Context) (*feature.Dataset, error)

	// FetchStaging returns the dataset for one staging prefix.
	FetchStaging(ctx context.Context, prefix string) (*feature.Dataset, error)

	// Close releases any underlying resources.
	Close() error
}

// Factory builds a source from its configuration.
type Factory func(cfg Config, logger *slog.Logger) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a source factory to the registry. Called by source
// implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New creates a source instance based on the configured type.
// A nil logger uses a discard logger.
func New(cfg Config, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	registryMu.RLock()
	factory, ok := registry[strings.ToLower(cfg.Type)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown source type %q (available: %s)",
			cfg.Type, strings.Join(List(), ", "))
	}
	return factory(cfg, logger)
}

// List returns all registered source type names, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
