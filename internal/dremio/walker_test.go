package dremio

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalake-labs/dremiometa/internal/testutil"
	"github.com/metalake-labs/dremiometa/pkg/meta"
)

func newMockConn(t *testing.T) (*Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewConnFromDB(db, testutil.NewTestLogger(t)), mock
}

// expectCatalog registers the query fixtures for one full walk over a
// single space "demo" holding one table and one view in a folder.
func expectCatalog(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(databasesQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"SCHEMA_NAME"}).AddRow("demo"))

	mock.ExpectQuery(regexp.QuoteMeta(`SCHEMA_NAME LIKE 'demo.%'`)).
		WillReturnRows(sqlmock.NewRows([]string{"SCHEMA_NAME"}).AddRow("demo.finance"))

	// Schema "demo" itself, the empty folder chain.
	mock.ExpectQuery(regexp.QuoteMeta(`INFORMATION_SCHEMA.VIEWS WHERE TABLE_SCHEMA = 'demo'`)).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "VIEW_DEFINITION"}))
	mock.ExpectQuery(regexp.QuoteMeta(`INFORMATION_SCHEMA."TABLES" WHERE TABLE_SCHEMA = 'demo'`)).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "TABLE_TYPE"}).
			AddRow("orders", "TABLE"))
	mock.ExpectQuery(regexp.QuoteMeta(`TABLE_SCHEMA = 'demo' AND TABLE_NAME = 'orders'`)).
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE", "ORDINAL_POSITION", "NUMERIC_PRECISION", "NUMERIC_SCALE"}).
			AddRow("id", "BIGINT", "NO", 1, nil, nil).
			AddRow("amount", "DOUBLE", "YES", 2, nil, nil))

	// Schema "demo.finance".
	mock.ExpectQuery(regexp.QuoteMeta(`INFORMATION_SCHEMA.VIEWS WHERE TABLE_SCHEMA = 'demo.finance'`)).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "VIEW_DEFINITION"}).
			AddRow("v_orders", "SELECT id, amount FROM demo.orders"))
	mock.ExpectQuery(regexp.QuoteMeta(`INFORMATION_SCHEMA."TABLES" WHERE TABLE_SCHEMA = 'demo.finance'`)).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "TABLE_TYPE"}).
			AddRow("v_orders", "VIEW"))
	mock.ExpectQuery(regexp.QuoteMeta(`TABLE_SCHEMA = 'demo.finance' AND TABLE_NAME = 'v_orders'`)).
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE", "ORDINAL_POSITION", "NUMERIC_PRECISION", "NUMERIC_SCALE"}).
			AddRow("id", "BIGINT", "NO", 1, nil, nil).
			AddRow("amount", "DOUBLE", "YES", 2, nil, nil))
}

func collectRecords(t *testing.T, it *Iterator) []meta.Record {
	t.Helper()
	var records []meta.Record
	for it.Next() {
		records = append(records, it.Record())
	}
	require.NoError(t, it.Err())
	return records
}

func TestWalkerEmitsDependencyOrder(t *testing.T) {
	conn, mock := newMockConn(t)
	expectCatalog(mock)

	w := NewWalker(conn, "dremio-test", Filters{}, testutil.NewTestLogger(t))
	it, err := w.Walk(context.Background())
	require.NoError(t, err)

	records := collectRecords(t, it)
	require.Len(t, records, 5)

	db, ok := records[0].(meta.Database)
	require.True(t, ok)
	assert.Equal(t, "demo", db.Name)
	assert.Equal(t, "dremio-test", db.Service)

	root, ok := records[1].(meta.Schema)
	require.True(t, ok)
	assert.Empty(t, root.Path)
	assert.Equal(t, "demo", root.FullName())

	folder, ok := records[2].(meta.Schema)
	require.True(t, ok)
	assert.Equal(t, "demo.finance", folder.FullName())
	assert.Equal(t, "finance", folder.Display())

	orders, ok := records[3].(meta.Table)
	require.True(t, ok)
	assert.Equal(t, meta.KindTable, orders.Kind)
	assert.Equal(t, "demo.orders", orders.Ref.FQN())
	require.Len(t, orders.Columns, 2)
	assert.Equal(t, meta.TypeBigint, orders.Columns[0].DataType)
	assert.Equal(t, meta.TypeDouble, orders.Columns[1].DataType)
	assert.True(t, orders.Columns[1].Nullable)

	view, ok := records[4].(meta.Table)
	require.True(t, ok)
	assert.Equal(t, meta.KindView, view.Kind)
	assert.Equal(t, "demo.finance.v_orders", view.Ref.FQN())
	assert.Equal(t, "SELECT id, amount FROM demo.orders", view.Definition)

	assert.Empty(t, it.Warnings())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalkerIdempotentAcrossPasses(t *testing.T) {
	conn, mock := newMockConn(t)
	expectCatalog(mock)
	expectCatalog(mock)

	w := NewWalker(conn, "dremio-test", Filters{}, testutil.NewTestLogger(t))

	tableSet := func() map[string]struct{} {
		it, err := w.Walk(context.Background())
		require.NoError(t, err)
		set := make(map[string]struct{})
		for _, rec := range collectRecords(t, it) {
			if tbl, ok := rec.(meta.Table); ok {
				set[tbl.Ref.Key()] = struct{}{}
			}
		}
		return set
	}

	first := tableSet()
	second := tableSet()
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalkerRecoversSchemaFailure(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta(databasesQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"SCHEMA_NAME"}).AddRow("demo"))
	mock.ExpectQuery(regexp.QuoteMeta(`SCHEMA_NAME LIKE 'demo.%'`)).
		WillReturnRows(sqlmock.NewRows([]string{"SCHEMA_NAME"}).AddRow("demo.finance"))

	// Schema "demo" enumerates fine.
	mock.ExpectQuery(regexp.QuoteMeta(`INFORMATION_SCHEMA.VIEWS WHERE TABLE_SCHEMA = 'demo'`)).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "VIEW_DEFINITION"}))
	mock.ExpectQuery(regexp.QuoteMeta(`INFORMATION_SCHEMA."TABLES" WHERE TABLE_SCHEMA = 'demo'`)).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "TABLE_TYPE"}).
			AddRow("orders", "TABLE"))
	mock.ExpectQuery(regexp.QuoteMeta(`TABLE_SCHEMA = 'demo' AND TABLE_NAME = 'orders'`)).
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE", "ORDINAL_POSITION", "NUMERIC_PRECISION", "NUMERIC_SCALE"}).
			AddRow("id", "BIGINT", "NO", 1, nil, nil))

	// Schema "demo.finance" blows up mid-enumeration.
	mock.ExpectQuery(regexp.QuoteMeta(`INFORMATION_SCHEMA.VIEWS WHERE TABLE_SCHEMA = 'demo.finance'`)).
		WillReturnError(assert.AnError)

	w := NewWalker(conn, "dremio-test", Filters{}, testutil.NewTestLogger(t))
	it, err := w.Walk(context.Background())
	require.NoError(t, err)

	records := collectRecords(t, it)

	var tables []string
	for _, rec := range records {
		if tbl, ok := rec.(meta.Table); ok {
			tables = append(tables, tbl.Ref.FQN())
		}
	}
	assert.Equal(t, []string{"demo.orders"}, tables)

	warnings := it.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "walker", warnings[0].Component)
	assert.Equal(t, "demo.finance", warnings[0].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalkerAppliesFilters(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta(databasesQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"SCHEMA_NAME"}).
			AddRow("demo").
			AddRow("staging"))

	// Only "demo" survives the database filter; its schemas follow.
	mock.ExpectQuery(regexp.QuoteMeta(`SCHEMA_NAME LIKE 'demo.%'`)).
		WillReturnRows(sqlmock.NewRows([]string{"SCHEMA_NAME"}))
	mock.ExpectQuery(regexp.QuoteMeta(`INFORMATION_SCHEMA.VIEWS WHERE TABLE_SCHEMA = 'demo'`)).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "VIEW_DEFINITION"}))
	mock.ExpectQuery(regexp.QuoteMeta(`INFORMATION_SCHEMA."TABLES" WHERE TABLE_SCHEMA = 'demo'`)).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "TABLE_TYPE"}).
			AddRow("orders", "TABLE").
			AddRow("orders_tmp", "TABLE"))
	mock.ExpectQuery(regexp.QuoteMeta(`TABLE_SCHEMA = 'demo' AND TABLE_NAME = 'orders'`)).
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE", "ORDINAL_POSITION", "NUMERIC_PRECISION", "NUMERIC_SCALE"}))

	dbFilter, err := CompilePattern([]string{"^demo$"}, nil)
	require.NoError(t, err)
	tableFilter, err := CompilePattern(nil, []string{"_tmp$"})
	require.NoError(t, err)

	w := NewWalker(conn, "dremio-test", Filters{Databases: dbFilter, Tables: tableFilter}, testutil.NewTestLogger(t))
	it, err := w.Walk(context.Background())
	require.NoError(t, err)

	records := collectRecords(t, it)
	var tables []string
	for _, rec := range records {
		if tbl, ok := rec.(meta.Table); ok {
			tables = append(tables, tbl.Ref.FQN())
		}
	}
	assert.Equal(t, []string{"demo.orders"}, tables)
	// One database ("staging") and one table ("orders_tmp") dropped.
	assert.Equal(t, 2, it.Filtered())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalkerHonorsCancellationBetweenTables(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta(databasesQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"SCHEMA_NAME"}).AddRow("demo"))

	ctx, cancel := context.WithCancel(context.Background())

	w := NewWalker(conn, "dremio-test", Filters{}, testutil.NewTestLogger(t))
	it, err := w.Walk(ctx)
	require.NoError(t, err)

	cancel()
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), context.Canceled)
}
