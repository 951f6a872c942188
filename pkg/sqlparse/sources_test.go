package sqlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceTables(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "simple join",
			sql:  `SELECT * FROM demo.sales.orders o JOIN demo.sales.customers c ON o.cid = c.id`,
			want: []string{"demo.sales.customers", "demo.sales.orders"},
		},
		{
			name: "cte shadows physical name",
			sql: `WITH orders AS (SELECT * FROM demo.raw.orders)
			      SELECT * FROM orders`,
			want: []string{"demo.raw.orders"},
		},
		{
			name: "dotted reference is never a cte",
			sql: `WITH orders AS (SELECT * FROM demo.raw.orders)
			      SELECT * FROM orders o JOIN demo.sales.orders s ON o.id = s.id`,
			want: []string{"demo.raw.orders", "demo.sales.orders"},
		},
		{
			name: "union right side",
			sql:  `SELECT id FROM demo.a UNION ALL SELECT id FROM demo.b UNION SELECT id FROM demo.c`,
			want: []string{"demo.a", "demo.b", "demo.c"},
		},
		{
			name: "derived table and scalar subquery",
			sql: `SELECT (SELECT MAX(x) FROM demo.m) FROM (SELECT * FROM demo.inner_t) d
			      WHERE EXISTS (SELECT 1 FROM demo.e WHERE e.id = d.id)`,
			want: []string{"demo.e", "demo.inner_t", "demo.m"},
		},
		{
			name: "case insensitive dedupe keeps first spelling",
			sql:  `SELECT * FROM Demo.Orders UNION ALL SELECT * FROM demo.orders`,
			want: []string{"Demo.Orders"},
		},
		{
			name: "in subquery",
			sql:  `SELECT * FROM demo.t WHERE id IN (SELECT id FROM demo.allowed)`,
			want: []string{"demo.allowed", "demo.t"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := Parse(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, SourceTables(stmt))
		})
	}
}

func TestSourceTablesCTAS(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE demo.mart.daily AS
		WITH base AS (SELECT * FROM demo.raw.events)
		SELECT * FROM base JOIN demo.dim.users u ON base.uid = u.id`)
	require.NoError(t, err)
	require.NotNil(t, stmt.Target)
	assert.Equal(t, "demo.mart.daily", stmt.Target.FQN())
	assert.Equal(t, []string{"demo.dim.users", "demo.raw.events"}, SourceTables(stmt))
}

func TestSourceTablesNilSafe(t *testing.T) {
	assert.Nil(t, SourceTables(nil))
	assert.Nil(t, SourceTables(&Statement{Kind: StmtInsert}))
}
