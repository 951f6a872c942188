package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalake-labs/dremiometa/internal/state"
	"github.com/metalake-labs/dremiometa/internal/testutil"
	"github.com/metalake-labs/dremiometa/pkg/meta"
)

func newAPIFixture(t *testing.T) (http.Handler, *state.Run) {
	t.Helper()

	store, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	run, err := store.CreateRun("workflow.yaml")
	require.NoError(t, err)
	require.NoError(t, store.CompleteRun(run.ID, state.RunStatusCompleted, "", `{"tables":3}`))
	require.NoError(t, store.SaveWarnings(run.ID, []meta.Warning{
		{Component: "walker", Subject: "demo.finance", Message: "permission denied", OccurredAt: time.Now().UTC()},
	}))

	return newRunsAPI(store, testutil.NewTestLogger(t)), run
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServeHealthz(t *testing.T) {
	api, _ := newAPIFixture(t)

	rec := get(t, api, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeListRuns(t *testing.T) {
	api, run := newAPIFixture(t)

	rec := get(t, api, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var runs []state.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, state.RunStatusCompleted, runs[0].Status)
}

func TestServeGetRun(t *testing.T) {
	api, run := newAPIFixture(t)

	rec := get(t, api, "/api/runs/"+run.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	var got state.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Contains(t, got.StatsJSON, `"tables":3`)

	rec = get(t, api, "/api/runs/no-such-run")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeGetWarnings(t *testing.T) {
	api, run := newAPIFixture(t)

	rec := get(t, api, "/api/runs/"+run.ID+"/warnings")
	require.Equal(t, http.StatusOK, rec.Code)

	var warnings []meta.Warning
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &warnings))
	require.Len(t, warnings, 1)
	assert.Equal(t, "walker", warnings[0].Component)

	rec = get(t, api, "/api/runs/no-such-run/warnings")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
