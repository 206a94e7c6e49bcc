// Package cli provides the command-line interface for geoverify.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/geostack-labs/geoverify/internal/cli/commands"
	"github.com/geostack-labs/geoverify/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "geoverify",
		Short: "Consistency checker for hierarchical geocoding data",
		Long: `geoverify validates a geocoding dataset, from CSV extracts or a PostGIS
database, against its spatial and referential consistency rules: polygon
validity, point-in-polygon, same-class overlaps and parent containment.
Staging datasets can be overlaid onto production before checking.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log)

			ctx := commands.WithConfig(cmd.Context(), cfg)
			ctx = commands.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./geoverify.yaml)")
	rootCmd.PersistentFlags().String("source-type", "", "data source type (csv|postgres)")
	rootCmd.PersistentFlags().String("csv-dir", "", "path to the CSV extract directory")
	rootCmd.PersistentFlags().String("pg-host", "", "postgres host")
	rootCmd.PersistentFlags().Int("pg-port", 0, "postgres port")
	rootCmd.PersistentFlags().String("pg-database", "", "postgres database name")
	rootCmd.PersistentFlags().String("pg-user", "", "postgres user")
	rootCmd.PersistentFlags().String("pg-password", "", "postgres password")
	rootCmd.PersistentFlags().String("pg-sslmode", "", "postgres sslmode")
	rootCmd.PersistentFlags().StringSlice("staging-prefixes", nil, "staging prefixes to overlay, in order")
	rootCmd.PersistentFlags().Int("workers", 0, "overlap check workers (0 = one per CPU)")
	rootCmd.PersistentFlags().Int("port", 0, "HTTP server listen port")
	rootCmd.PersistentFlags().String("history", "", "path to the run-history database")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text|json)")

	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewSourcesCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger builds the process logger from the log configuration.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
