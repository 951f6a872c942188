package commands

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalake-labs/dremiometa/internal/dremio"
	"github.com/metalake-labs/dremiometa/internal/testutil"
)

func newMockConn(t *testing.T) (*dremio.Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return dremio.NewConnFromDB(db, testutil.NewTestLogger(t)), mock
}

func TestProbeStagesAllPass(t *testing.T) {
	conn, mock := newMockConn(t)

	counts := []int64{3, 12, 40, 7}
	for i := range checkStages {
		mock.ExpectQuery(regexp.QuoteMeta(checkStages[i].query)).
			WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(counts[i]))
	}

	results := probeStages(context.Background(), conn)
	require.Len(t, results, 4)
	for _, res := range results {
		assert.Equal(t, "ok", res.Status)
	}
	assert.Equal(t, "databases", results[0].Name)
	assert.Equal(t, "3 visible", results[0].Detail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProbeStagesReportsFailure(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta(checkStages[0].query)).
		WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(3))
	// Missing privilege on the tables surface.
	mock.ExpectQuery(regexp.QuoteMeta(checkStages[1].query)).
		WillReturnError(assert.AnError)
	mock.ExpectQuery(regexp.QuoteMeta(checkStages[2].query)).
		WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(40))
	mock.ExpectQuery(regexp.QuoteMeta(checkStages[3].query)).
		WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(7))

	results := probeStages(context.Background(), conn)
	require.Len(t, results, 4)
	assert.Equal(t, "ok", results[0].Status)
	assert.Equal(t, "failed", results[1].Status)
	assert.Contains(t, results[1].Detail, assert.AnError.Error())
	assert.Equal(t, "ok", results[2].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenderCheckStatusLines(t *testing.T) {
	cmd, out, _ := newTestCommand(t, validConfig())
	r := GetRenderer(cmd.Context())

	renderCheck(r, "dremio.internal:32010", []checkResult{
		{Name: "connect", Status: "ok", Detail: "dremio.internal:32010"},
		{Name: "tables", Status: "failed", Detail: "permission denied"},
	})

	assert.Contains(t, out.String(), "Connection Check")
	assert.Contains(t, out.String(), "OK")
	assert.Contains(t, out.String(), "FAILED")
	assert.Contains(t, out.String(), "permission denied")
}
