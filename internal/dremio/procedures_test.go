package dremio

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarvestProcedures(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta(DefaultProceduresQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "definition", "return_type"}).
			AddRow("mask_email", "SELECT REGEXP_REPLACE(e, '@.*', '@***')", "VARCHAR").
			AddRow("to_cents", "SELECT CAST(amount * 100 AS BIGINT)", nil))

	procs, err := HarvestProcedures(context.Background(), conn, "")
	require.NoError(t, err)
	require.Len(t, procs, 2)
	assert.Equal(t, "mask_email", procs[0].Name)
	assert.Equal(t, "VARCHAR", procs[0].ReturnType)
	assert.Equal(t, "to_cents", procs[1].Name)
	assert.Empty(t, procs[1].ReturnType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHarvestProceduresTwoColumnOverride(t *testing.T) {
	conn, mock := newMockConn(t)

	override := `SELECT routine_name, routine_definition FROM my_catalog.routines`
	mock.ExpectQuery(regexp.QuoteMeta(override)).
		WillReturnRows(sqlmock.NewRows([]string{"routine_name", "routine_definition"}).
			AddRow("mask_email", "SELECT 1"))

	procs, err := HarvestProcedures(context.Background(), conn, override)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, "mask_email", procs[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHarvestProceduresMissingSystemTable(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta(DefaultProceduresQuery)).
		WillReturnError(assert.AnError)

	procs, err := HarvestProcedures(context.Background(), conn, "")
	assert.Error(t, err)
	assert.Nil(t, procs)
}

func TestFetchQueryHistory(t *testing.T) {
	conn, mock := newMockConn(t)

	submitted := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(DefaultHistoryQuery + " LIMIT 500")).
		WillReturnRows(sqlmock.NewRows([]string{"query_text", "submitted_ts"}).
			AddRow("CREATE TABLE demo.t AS SELECT * FROM demo.src", submitted).
			AddRow(nil, submitted).
			AddRow("", submitted))

	entries, err := FetchQueryHistory(context.Background(), conn, "", 500)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CREATE TABLE demo.t AS SELECT * FROM demo.src", entries[0].SQL)
	assert.Equal(t, submitted, entries[0].SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchQueryHistoryOverrideWithOwnLimit(t *testing.T) {
	conn, mock := newMockConn(t)

	// The override's trailing LIMIT wins; appending another would produce
	// invalid SQL.
	override := `SELECT query_text, submitted_ts FROM sys.jobs_recent limit 25`
	mock.ExpectQuery(regexp.QuoteMeta(override) + `$`).
		WillReturnRows(sqlmock.NewRows([]string{"query_text", "submitted_ts"}).
			AddRow("SELECT 1", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)))

	entries, err := FetchQueryHistory(context.Background(), conn, override, 500)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
