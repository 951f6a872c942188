package lineage

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/metalake-labs/dremiometa/pkg/meta"
	"github.com/metalake-labs/dremiometa/pkg/sqlparse"
)

// Extractor accumulates lineage edges over one enumeration pass. It knows
// the walked table set and drops any edge touching a relation outside it.
type Extractor struct {
	known  map[string]meta.TableRef // lowercased FQN -> canonical ref
	schema sqlparse.Schema
	logger *slog.Logger

	edges    map[string]meta.LineageEdge // identity -> latest observation
	skipped  int
	unparsed int
}

// NewExtractor builds an extractor over the walked tables. Their columns
// seed the parser schema so star expansion and unqualified column
// resolution work.
func NewExtractor(tables []meta.Table, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	known := make(map[string]meta.TableRef, len(tables))
	schema := make(sqlparse.Schema, len(tables))
	for _, t := range tables {
		known[strings.ToLower(t.Ref.FQN())] = t.Ref
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = c.Name
		}
		schema[t.Ref.FQN()] = cols
	}
	return &Extractor{
		known:  known,
		schema: schema,
		logger: logger,
		edges:  make(map[string]meta.LineageEdge),
	}
}

// AddViewDefinitions extracts edges from every walked view that carries a
// definition. The view itself is the written side; observedAt stamps the
// resulting edges.
func (e *Extractor) AddViewDefinitions(tables []meta.Table, observedAt time.Time) {
	for _, t := range tables {
		if t.Kind != meta.KindView || t.Definition == "" {
			continue
		}
		stmt, err := sqlparse.Parse(t.Definition)
		if err != nil {
			e.unparsed++
			e.logger.Debug("skipping unparsable view definition",
				slog.String("view", t.Ref.FQN()), slog.Any("error", err))
			continue
		}
		e.addStatement(stmt, t.Ref, t.Definition, observedAt)
	}
}

// AddQuery extracts edges from one historical statement. Statements that do
// not write a relation, or do not parse, contribute nothing.
func (e *Extractor) AddQuery(sql string, submittedAt time.Time) {
	stmt, err := sqlparse.Parse(sql)
	if err != nil {
		e.unparsed++
		e.logger.Debug("skipping unparsable statement", slog.Any("error", err))
		return
	}
	if stmt.Target == nil {
		return
	}
	target, ok := e.lookup(stmt.Target.FQN())
	if !ok {
		e.skipped++
		return
	}
	e.addStatement(stmt, target, sql, submittedAt)
}

// addStatement records the table edges of a writing statement, plus column
// edges for select items that pass a single source column through
// unchanged.
func (e *Extractor) addStatement(stmt *sqlparse.Statement, target meta.TableRef, sql string, observedAt time.Time) {
	hash := queryHash(sql)

	for _, fqn := range sqlparse.SourceTables(stmt) {
		source, ok := e.lookup(fqn)
		if !ok {
			e.skipped++
			continue
		}
		e.record(meta.LineageEdge{
			Source:     source,
			Target:     target,
			Kind:       meta.EdgeTable,
			ObservedAt: observedAt,
			QueryHash:  hash,
		})
	}

	e.addColumnEdges(stmt, target, hash, observedAt)
}

func (e *Extractor) addColumnEdges(stmt *sqlparse.Statement, target meta.TableRef, hash string, observedAt time.Time) {
	if stmt.Select == nil || stmt.Select.Body == nil || stmt.Select.Body.Left == nil {
		return
	}

	resolver := sqlparse.NewResolver(e.schema)
	scope, err := resolver.Resolve(stmt.Select)
	if err != nil {
		return
	}
	colResolver := sqlparse.NewColumnResolver(scope)

	// Only the left core of a set operation names the output columns.
	for i, item := range stmt.Select.Body.Left.Columns {
		ref, ok := item.Expr.(*sqlparse.ColumnRef)
		if !ok {
			continue
		}
		resolved, ok := colResolver.ResolveColumnRef(ref)
		if !ok || resolved.FromCTE || resolved.FromDerived || resolved.SourceTable == "" {
			continue
		}
		source, ok := e.lookup(resolved.SourceTable)
		if !ok {
			e.skipped++
			continue
		}

		targetColumn := item.Alias
		if targetColumn == "" {
			targetColumn = ref.Column
		}
		if i < len(stmt.TargetColumns) {
			targetColumn = stmt.TargetColumns[i]
		}

		e.record(meta.LineageEdge{
			Source:       source,
			Target:       target,
			Kind:         meta.EdgeColumn,
			SourceColumn: resolved.Column,
			TargetColumn: targetColumn,
			ObservedAt:   observedAt,
			QueryHash:    hash,
		})
	}
}

// record keeps the most recent observation of each distinct edge.
func (e *Extractor) record(edge meta.LineageEdge) {
	id := edge.Identity()
	if existing, ok := e.edges[id]; ok && !edge.ObservedAt.After(existing.ObservedAt) {
		return
	}
	e.edges[id] = edge
}

func (e *Extractor) lookup(fqn string) (meta.TableRef, bool) {
	ref, ok := e.known[strings.ToLower(fqn)]
	return ref, ok
}

// Edges returns the deduplicated edge set sorted by target, then source,
// then kind and columns. The order is stable across runs.
func (e *Extractor) Edges() []meta.LineageEdge {
	edges := make([]meta.LineageEdge, 0, len(e.edges))
	for _, edge := range e.edges {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Target.Key() != b.Target.Key() {
			return a.Target.Key() < b.Target.Key()
		}
		if a.Source.Key() != b.Source.Key() {
			return a.Source.Key() < b.Source.Key()
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.TargetColumn != b.TargetColumn {
			return a.TargetColumn < b.TargetColumn
		}
		return a.SourceColumn < b.SourceColumn
	})
	return edges
}

// Skipped returns how many edges the enumeration guard dropped.
func (e *Extractor) Skipped() int {
	return e.skipped
}

// Unparsed returns how many statements failed to parse.
func (e *Extractor) Unparsed() int {
	return e.unparsed
}

// Graph builds the dependency graph of the current edge set.
func (e *Extractor) Graph() *Graph {
	g := NewGraph()
	for _, edge := range e.Edges() {
		if edge.Kind != meta.EdgeTable {
			continue
		}
		g.AddEdge(edge.Source, edge.Target)
	}
	return g
}

func queryHash(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return hex.EncodeToString(sum[:8])
}
