package sink

import (
	"fmt"
	"strings"

	// Drivers for the relational catalog sinks.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"
)

// dialect captures the per-engine differences of the shared relational
// sink: the driver to open and the placeholder style of its inserts. The
// DDL itself sticks to types all three engines accept.
type dialect struct {
	name     string
	driver   string
	numbered bool // $1-style placeholders instead of ?
}

var (
	sqliteDialect   = dialect{name: "sqlite", driver: "sqlite"}
	postgresDialect = dialect{name: "postgres", driver: "pgx", numbered: true}
	duckdbDialect   = dialect{name: "duckdb", driver: "duckdb"}
)

// rebind rewrites ? placeholders to $1, $2, ... when the engine wants
// numbered ones.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
