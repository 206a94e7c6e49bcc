package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/geostack-labs/geoverify/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded validation runs",
		Long: `Show the most recent runs from the history database. Runs are recorded
by "check" whenever a history path is configured.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := ConfigFrom(cmd.Context())
			if cfg.History.Path == "" {
				return fmt.Errorf("no history database configured (set history.path or --history)")
			}

			store, err := state.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "(no recorded runs)")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Started", "Source", "Checks", "Features", "Violations", "Faults", "Duration", "Status"})
			for _, r := range runs {
				t.AppendRow(table.Row{
					r.StartedAt.Local().Format(time.DateTime),
					r.SourceType,
					r.Checks,
					r.Features,
					r.Violations,
					r.TopologyFaults + r.IntegrityFaults,
					(time.Duration(r.DurationMS) * time.Millisecond).String(),
					r.Status,
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list")
	return cmd
}
