package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalake-labs/dremiometa/internal/testutil"
	"github.com/metalake-labs/dremiometa/pkg/meta"
)

func TestNewSelectsSinkType(t *testing.T) {
	s, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &jsonlSink{}, s)

	s, err = New(Config{Type: "sqlite", DSN: "file:out.db"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &dbSink{}, s)

	_, err = New(Config{Type: "parquet"}, nil)
	assert.Error(t, err)
}

func TestFileSinksFallBackToPath(t *testing.T) {
	s, err := New(Config{Type: "sqlite", Path: "out.db"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "out.db", s.(*dbSink).dsn)

	s, err = New(Config{Type: "duckdb", Path: "out.duckdb"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "out.duckdb", s.(*dbSink).dsn)

	// An explicit DSN wins over the path.
	s, err = New(Config{Type: "sqlite", Path: "out.db", DSN: "file:other.db"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "file:other.db", s.(*dbSink).dsn)
}

func TestSQLiteSinkPathOnlyWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := New(Config{Type: "sqlite", Path: path}, testutil.NewTestLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Write(ctx, meta.Database{Name: "demo", Service: "dremio"}))
	require.NoError(t, s.Close())

	// The harvest must land in the named file, not an anonymous database.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestJSONLSinkWritesEnvelopes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	s := newJSONLSink(path, testutil.NewTestLogger(t))

	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Write(ctx, meta.Database{Name: "demo", Service: "dremio"}))
	require.NoError(t, s.Write(ctx, meta.Table{
		Ref:  meta.TableRef{Database: "demo", Schema: "sales", Name: "orders"},
		Kind: meta.KindTable,
	}))
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var lines []map[string]json.RawMessage
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2)

	var kind string
	require.NoError(t, json.Unmarshal(lines[0]["kind"], &kind))
	assert.Equal(t, "database", kind)
	require.NoError(t, json.Unmarshal(lines[1]["kind"], &kind))
	assert.Equal(t, "table", kind)
	assert.Contains(t, string(lines[1]["entity"]), `"orders"`)
}

func newMockDBSink(t *testing.T, d dialect) (*dbSink, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newDBSinkFromDB(d, db, testutil.NewTestLogger(t)), mock
}

func TestDBSinkOpenCreatesTables(t *testing.T) {
	s, mock := newMockDBSink(t, sqliteDialect)
	for range ddl {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, s.Open(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBSinkWritesEntityRows(t *testing.T) {
	s, mock := newMockDBSink(t, sqliteDialect)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO databases (service, name) VALUES (?, ?)`)).
		WithArgs("dremio", "demo").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Write(ctx, meta.Database{Name: "demo", Service: "dremio"}))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tables`)).
		WithArgs("demo", "sales", "orders", "table", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO columns`)).
		WithArgs("demo", "sales", "orders", "id", "BIGINT", "BIGINT", 1, false, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Write(ctx, meta.Table{
		Ref:  meta.TableRef{Database: "demo", Schema: "sales", Name: "orders"},
		Kind: meta.KindTable,
		Columns: []meta.Column{
			{Name: "id", DataType: meta.TypeBigint, SourceType: "BIGINT", Ordinal: 1},
		},
	}))

	observed := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lineage_edges`)).
		WithArgs("demo.raw.orders", "demo.sales.orders", "table", "", "", observed, "abcd1234").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Write(ctx, meta.LineageEdge{
		Source:     meta.TableRef{Database: "demo", Schema: "raw", Name: "orders"},
		Target:     meta.TableRef{Database: "demo", Schema: "sales", Name: "orders"},
		Kind:       meta.EdgeTable,
		ObservedAt: observed,
		QueryHash:  "abcd1234",
	}))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialectRebind(t *testing.T) {
	q := `INSERT INTO t (a, b) VALUES (?, ?)`
	assert.Equal(t, q, sqliteDialect.rebind(q))
	assert.Equal(t, q, duckdbDialect.rebind(q))
	assert.Equal(t, `INSERT INTO t (a, b) VALUES ($1, $2)`, postgresDialect.rebind(q))
}

func TestPostgresDialectRebindsInserts(t *testing.T) {
	s, mock := newMockDBSink(t, postgresDialect)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO procedures (name, definition, return_type) VALUES ($1, $2, $3)`)).
		WithArgs("mask_email", "SELECT 1", "VARCHAR").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Write(context.Background(), meta.Procedure{
		Name: "mask_email", Definition: "SELECT 1", ReturnType: "VARCHAR",
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
