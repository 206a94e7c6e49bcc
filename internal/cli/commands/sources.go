package commands

import (
	"encoding/json"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/geostack-labs/geoverify/internal/engine"
	"github.com/geostack-labs/geoverify/internal/feature"
)

// NewSourcesCommand creates the sources command.
func NewSourcesCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Probe the configured source and show per-table row counts",
		Long: `Connect to the configured source and fetch the production dataset,
reporting the row count per logical table. Fails with the underlying error
when the extract is incomplete or the database is unreachable, which makes
this the quickest way to diagnose a source problem.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := ConfigFrom(cmd.Context())
			logger := LoggerFrom(cmd.Context())

			counts, err := engine.New(cfg, logger).TableCounts(cmd.Context())
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(counts)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Table", "Rows"})
			for _, name := range feature.TableList {
				t.AppendRow(table.Row{name, counts[name]})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: text, json")
	return cmd
}
