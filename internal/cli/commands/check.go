package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geostack-labs/geoverify/internal/config"
	"github.com/geostack-labs/geoverify/internal/engine"
	"github.com/geostack-labs/geoverify/internal/state"
	"github.com/geostack-labs/geoverify/internal/validate"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Checks     []string
	JSON       bool
	Geometries bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the consistency checks against the configured source",
		Long: `Fetch the dataset, overlay any configured staging prefixes, assemble the
features and run the spatial consistency checks. Exits non-zero when any
check finds violations.`,
		Example: `  # Run every check against a CSV extract
  geoverify check --source-type csv --csv-dir ./extract

  # Run only the overlap check against postgres, as JSON
  geoverify check --source-type postgres --pg-database pg_geocoding \
    --checks overlap --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Checks, "checks", nil,
		fmt.Sprintf("checks to run (default all): %s", strings.Join(validate.CheckNames, ", ")))
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "emit the full report as JSON")
	cmd.Flags().BoolVar(&opts.Geometries, "geometries", false, "include offending geometries in the JSON report")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions) error {
	cfg := ConfigFrom(cmd.Context())
	logger := LoggerFrom(cmd.Context())

	if err := config.ValidateChecks(opts.Checks); err != nil {
		return err
	}

	eng := engine.New(cfg, logger)
	res, err := eng.Run(cmd.Context(), opts.Checks, opts.Geometries)
	if err != nil {
		return err
	}

	recordRun(cmd, cfg, res)

	if opts.JSON {
		if err := res.Report.WriteJSON(cmd.OutOrStdout()); err != nil {
			return err
		}
	} else {
		if err := res.Report.WriteText(cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	if n := res.Report.ViolationCount(); n > 0 {
		return fmt.Errorf("%d violations found", n)
	}
	return nil
}

// recordRun appends the run to the history store when one is configured.
// History is best effort: a recording failure never fails the check.
func recordRun(cmd *cobra.Command, cfg *config.Config, res *engine.RunResult) {
	if cfg.History.Path == "" {
		return
	}
	logger := LoggerFrom(cmd.Context())

	store, err := state.Open(cfg.History.Path)
	if err != nil {
		logger.Warn("failed to open history store", "path", cfg.History.Path, "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	status := state.RunStatusClean
	if res.Report.ViolationCount() > 0 {
		status = state.RunStatusViolations
	}
	run := &state.Run{
		ID:              res.ID,
		StartedAt:       res.Started,
		DurationMS:      res.Duration.Milliseconds(),
		SourceType:      res.SourceType,
		Checks:          strings.Join(res.Checks, ","),
		Features:        res.FeatureCount,
		Violations:      res.Report.ViolationCount(),
		TopologyFaults:  res.Report.FaultCount(),
		IntegrityFaults: len(res.Report.IntegrityFaults),
		Status:          status,
	}
	if err := store.RecordRun(cmd.Context(), run); err != nil {
		logger.Warn("failed to record run", "error", err)
	}
}
