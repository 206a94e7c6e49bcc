package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geostack-labs/geoverify/internal/cli/commands"
	"github.com/geostack-labs/geoverify/internal/config"
	"github.com/geostack-labs/geoverify/internal/state"
	"github.com/geostack-labs/geoverify/internal/testutil"
)

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestCheckCommandClean(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)

	out, err := execute(t, "check", "--source-type", "csv", "--csv-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "invalid shapes")
	assert.Contains(t, out, "parent containment")
}

func TestCheckCommandViolationsExitNonZero(t *testing.T) {
	e := testutil.DefaultExtract()
	e["LocalDataState.csv"] = []string{
		"ParentID|MapCode|Geometry|Longitude|Latitude",
		"10|0|POLYGON ((8 8, 12 8, 12 12, 8 12, 8 8))|9|9",
	}
	dir := e.Write(t)

	out, err := execute(t, "check", "--source-type", "csv", "--csv-dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "violations found")
	assert.Contains(t, out, "10_0")
}

func TestCheckCommandJSON(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)

	out, err := execute(t, "check", "--source-type", "csv", "--csv-dir", dir, "--json", "--checks", "validity")
	require.NoError(t, err)
	assert.Contains(t, out, `"invalid_shapes"`)
	assert.NotContains(t, out, `"overlapping_polygons"`)
}

func TestCheckCommandUnknownCheck(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)

	_, err := execute(t, "check", "--source-type", "csv", "--csv-dir", dir, "--checks", "geometry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown check")
}

func TestCheckCommandRecordsHistory(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)
	historyPath := filepath.Join(t.TempDir(), "history.db")

	_, err := execute(t, "check", "--source-type", "csv", "--csv-dir", dir, "--history", historyPath)
	require.NoError(t, err)

	store, err := state.Open(historyPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "csv", runs[0].SourceType)
	assert.Equal(t, state.RunStatusClean, runs[0].Status)
	assert.Equal(t, 2, runs[0].Features)
}

func TestSourcesCommand(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)

	out, err := execute(t, "sources", "--source-type", "csv", "--csv-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "features")
	assert.Contains(t, out, "polygons")
}

func TestHistoryCommandNoStore(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)

	_, err := execute(t, "history", "--source-type", "csv", "--csv-dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history")
}

func TestVersionCommand(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)

	out, err := execute(t, "version", "--source-type", "csv", "--csv-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

// loadedConfig executes a throwaway subcommand under the root so the
// persistent flag pipeline runs end to end, and returns the config it loaded.
func loadedConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	root := NewRootCmd()
	var cfg *config.Config
	root.AddCommand(&cobra.Command{
		Use: "inspect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg = commands.ConfigFrom(cmd.Context())
			return nil
		},
	})
	root.SetArgs(append([]string{"inspect"}, args...))
	require.NoError(t, root.ExecuteContext(context.Background()))
	require.NotNil(t, cfg)
	return cfg
}

func TestPortFlagReachesServerConfig(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)

	cfg := loadedConfig(t, "--source-type", "csv", "--csv-dir", dir, "--port", "9000")
	assert.Equal(t, 9000, cfg.Server.Port)

	cfg = loadedConfig(t, "--source-type", "csv", "--csv-dir", dir)
	assert.Equal(t, config.DefaultServerPort, cfg.Server.Port)
}

func TestInvalidConfigFails(t *testing.T) {
	_, err := execute(t, "check", "--source-type", "oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source.type")
}
