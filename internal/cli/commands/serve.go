package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geostack-labs/geoverify/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the checks over HTTP",
		Long: `Start an HTTP server exposing one endpoint per check under /geocoding.
Requests run against the configured source by default; query parameters
(input_type, path_to_csv, host, port, database, user, password,
staging_prefix) select a different source per request.`,
		Example: `  # Serve a CSV extract on port 8080
  geoverify serve --source-type csv --csv-dir ./extract

  # Query a check
  curl 'localhost:8080/geocoding/overlapping-polygons'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := ConfigFrom(cmd.Context())
			logger := LoggerFrom(cmd.Context())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, logger).Serve(ctx)
		},
	}
	return cmd
}
