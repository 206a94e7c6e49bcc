// Package commands implements the geoverify subcommands.
package commands

import (
	"context"
	"log/slog"

	"github.com/geostack-labs/geoverify/internal/config"
)

type configKey struct{}
type loggerKey struct{}

// WithConfig stores the loaded configuration in the context. Called by the
// root command after config loading.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// ConfigFrom retrieves the configuration from the command context.
func ConfigFrom(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return nil
}

// LoggerFrom retrieves the logger from the command context, falling back to
// a discard logger.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
