package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalake-labs/dremiometa/internal/state"
)

func seedRunHistory(t *testing.T, statePath string) *state.Run {
	t.Helper()
	store, err := state.Open(statePath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	run, err := store.CreateRun("workflow.yaml")
	require.NoError(t, err)
	require.NoError(t, store.CompleteRun(run.ID, state.RunStatusCompleted, "",
		`{"service":"dremio-test","tables":3,"views":1,"databases":1}`))
	return run
}

func TestRunsListRendersTable(t *testing.T) {
	cfg := validConfig()
	cfg.Run.StatePath = filepath.Join(t.TempDir(), "state.db")
	run := seedRunHistory(t, cfg.Run.StatePath)

	cmd, out, _ := newTestCommand(t, cfg)
	require.NoError(t, runsList(cmd, 20))

	assert.Contains(t, out.String(), run.ID)
	assert.Contains(t, out.String(), "workflow.yaml")
	assert.Contains(t, out.String(), "completed")
}

func TestRunsListEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.Run.StatePath = filepath.Join(t.TempDir(), "state.db")

	cmd, out, _ := newTestCommand(t, cfg)
	require.NoError(t, runsList(cmd, 20))
	assert.Contains(t, out.String(), "No runs recorded")
}

func TestRunsShow(t *testing.T) {
	cfg := validConfig()
	cfg.Run.StatePath = filepath.Join(t.TempDir(), "state.db")
	run := seedRunHistory(t, cfg.Run.StatePath)

	cmd, out, _ := newTestCommand(t, cfg)
	require.NoError(t, runsShow(cmd, run.ID))

	assert.Contains(t, out.String(), run.ID)
	assert.Contains(t, out.String(), "completed")
	assert.Contains(t, out.String(), "tables")

	cmd, _, _ = newTestCommand(t, cfg)
	err := runsShow(cmd, "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
