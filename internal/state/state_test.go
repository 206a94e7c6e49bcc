package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenMigratesTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening must be a no-op for the schema.
	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestRecordAndListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.RecordRun(ctx, &Run{
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			DurationMS: int64(100 + i),
			SourceType: "csv",
			Checks:     "validity,overlap",
			Features:   1000,
			Violations: i,
			Status:     RunStatusViolations,
		})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Newest first.
	assert.Equal(t, 2, runs[0].Violations)
	assert.Equal(t, 0, runs[2].Violations)
	assert.Equal(t, base.Add(2*time.Hour), runs[0].StartedAt)
	assert.Equal(t, "csv", runs[0].SourceType)
	assert.Equal(t, "validity,overlap", runs[0].Checks)
	assert.NotEmpty(t, runs[0].ID, "missing id is assigned on insert")
}

func TestListRunsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordRun(ctx, &Run{
			StartedAt: time.Now().UTC().Add(time.Duration(i) * time.Minute),
			Status:    RunStatusClean,
		}))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestListRunsEmpty(t *testing.T) {
	s := openTestStore(t)
	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRecordRunKeepsExplicitID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := &Run{ID: "fixed-id", Status: RunStatusError}
	require.NoError(t, s.RecordRun(ctx, run))

	runs, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "fixed-id", runs[0].ID)
	assert.Equal(t, RunStatusError, runs[0].Status)
}
