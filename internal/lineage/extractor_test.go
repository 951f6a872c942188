package lineage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalake-labs/dremiometa/internal/testutil"
	"github.com/metalake-labs/dremiometa/pkg/meta"
)

func walkedTables() []meta.Table {
	return []meta.Table{
		{
			Ref:  meta.TableRef{Database: "demo", Schema: "raw", Name: "orders"},
			Kind: meta.KindTable,
			Columns: []meta.Column{
				{Name: "id", Ordinal: 1},
				{Name: "amount", Ordinal: 2},
			},
		},
		{
			Ref:  meta.TableRef{Database: "demo", Schema: "raw", Name: "customers"},
			Kind: meta.KindTable,
			Columns: []meta.Column{
				{Name: "id", Ordinal: 1},
				{Name: "name", Ordinal: 2},
			},
		},
		{
			Ref:        meta.TableRef{Database: "demo", Schema: "mart", Name: "orders_v"},
			Kind:       meta.KindView,
			Definition: `SELECT id, amount AS amt FROM demo.raw.orders`,
			Columns: []meta.Column{
				{Name: "id", Ordinal: 1},
				{Name: "amt", Ordinal: 2},
			},
		},
		{
			Ref:  meta.TableRef{Database: "demo", Schema: "mart", Name: "daily"},
			Kind: meta.KindTable,
			Columns: []meta.Column{
				{Name: "id", Ordinal: 1},
				{Name: "total", Ordinal: 2},
			},
		},
	}
}

func TestExtractorViewDefinitions(t *testing.T) {
	e := NewExtractor(walkedTables(), testutil.NewTestLogger(t))
	observed := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)

	e.AddViewDefinitions(walkedTables(), observed)

	edges := e.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, 0, e.Skipped())
	assert.Equal(t, 0, e.Unparsed())

	var tableEdges, columnEdges []meta.LineageEdge
	for _, edge := range edges {
		if edge.Kind == meta.EdgeTable {
			tableEdges = append(tableEdges, edge)
		} else {
			columnEdges = append(columnEdges, edge)
		}
	}

	require.Len(t, tableEdges, 1)
	assert.Equal(t, "demo.raw.orders", tableEdges[0].Source.FQN())
	assert.Equal(t, "demo.mart.orders_v", tableEdges[0].Target.FQN())
	assert.Equal(t, observed, tableEdges[0].ObservedAt)
	assert.NotEmpty(t, tableEdges[0].QueryHash)

	require.Len(t, columnEdges, 2)
	assert.Equal(t, "amount", columnEdges[0].SourceColumn)
	assert.Equal(t, "amt", columnEdges[0].TargetColumn)
	assert.Equal(t, "id", columnEdges[1].SourceColumn)
	assert.Equal(t, "id", columnEdges[1].TargetColumn)
}

func TestExtractorQueryHistory(t *testing.T) {
	e := NewExtractor(walkedTables(), testutil.NewTestLogger(t))
	submitted := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)

	e.AddQuery(`CREATE TABLE demo.mart.daily AS
		SELECT o.id, o.amount AS total
		FROM demo.raw.orders o JOIN demo.raw.customers c ON o.id = c.id`, submitted)

	edges := e.Edges()
	// Two table edges plus two passthrough column edges.
	require.Len(t, edges, 4)

	targets := map[string]bool{}
	for _, edge := range edges {
		targets[edge.Target.FQN()] = true
	}
	assert.Equal(t, map[string]bool{"demo.mart.daily": true}, targets)
}

func TestExtractorEnumerationGuard(t *testing.T) {
	e := NewExtractor(walkedTables(), testutil.NewTestLogger(t))
	now := time.Now().UTC()

	// Unknown target drops the whole statement.
	e.AddQuery(`CREATE TABLE demo.scratch.tmp AS SELECT * FROM demo.raw.orders`, now)
	assert.Empty(t, e.Edges())
	assert.Equal(t, 1, e.Skipped())

	// Known target, one unknown source among two.
	e.AddQuery(`INSERT INTO demo.mart.daily
		SELECT id, amount FROM demo.raw.orders
		UNION ALL SELECT id, amount FROM demo.external.feed`, now)

	var tableSources []string
	for _, edge := range e.Edges() {
		if edge.Kind == meta.EdgeTable {
			tableSources = append(tableSources, edge.Source.FQN())
		}
	}
	assert.Equal(t, []string{"demo.raw.orders"}, tableSources)
	assert.Equal(t, 2, e.Skipped())
}

func TestExtractorDedupeKeepsLatest(t *testing.T) {
	e := NewExtractor(walkedTables(), testutil.NewTestLogger(t))
	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	sql := `INSERT INTO demo.mart.daily SELECT id, amount FROM demo.raw.orders`
	e.AddQuery(sql, newer)
	e.AddQuery(sql, older)

	for _, edge := range e.Edges() {
		assert.Equal(t, newer, edge.ObservedAt)
	}

	e.AddQuery(sql, newer.Add(time.Hour))
	for _, edge := range e.Edges() {
		assert.Equal(t, newer.Add(time.Hour), edge.ObservedAt)
	}
}

func TestExtractorUnparsableStatement(t *testing.T) {
	e := NewExtractor(walkedTables(), testutil.NewTestLogger(t))

	e.AddQuery(`ALTER PDS demo.raw.orders REFRESH METADATA`, time.Now())
	assert.Empty(t, e.Edges())
	assert.Equal(t, 1, e.Unparsed())
}

func TestExtractorInsertColumnList(t *testing.T) {
	e := NewExtractor(walkedTables(), testutil.NewTestLogger(t))

	e.AddQuery(`INSERT INTO demo.mart.daily (id, total)
		SELECT id, amount FROM demo.raw.orders`, time.Now())

	var columnEdges []meta.LineageEdge
	for _, edge := range e.Edges() {
		if edge.Kind == meta.EdgeColumn {
			columnEdges = append(columnEdges, edge)
		}
	}
	require.Len(t, columnEdges, 2)
	assert.Equal(t, "id", columnEdges[0].TargetColumn)
	assert.Equal(t, "amount", columnEdges[1].SourceColumn)
	assert.Equal(t, "total", columnEdges[1].TargetColumn)
}

func TestExtractorEdgesAreDeterministic(t *testing.T) {
	build := func() []meta.LineageEdge {
		e := NewExtractor(walkedTables(), testutil.NewTestLogger(t))
		e.AddViewDefinitions(walkedTables(), time.Unix(0, 0))
		e.AddQuery(`CREATE TABLE demo.mart.daily AS
			SELECT id, amount AS total FROM demo.raw.orders`, time.Unix(100, 0))
		return e.Edges()
	}
	assert.Equal(t, build(), build())
}
