package dremio

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// Dremio reports every space, source, and folder chain as a row in
// INFORMATION_SCHEMA.SCHEMATA. Undotted names are the top-level namespaces;
// names starting with @ are user home spaces and $ are system spaces, and
// both stay out of the catalog.
const databasesQuery = `SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA ` +
	`WHERE SCHEMA_NAME NOT LIKE '%.%' AND NOT STARTS_WITH(SCHEMA_NAME, '@') ` +
	`AND NOT STARTS_WITH(SCHEMA_NAME, '$') ORDER BY SCHEMA_NAME`

// Walker enumerates databases, schemas, tables, views, and columns visible
// to the connection's credentials. Every query runs on the single shared
// connection, strictly in sequence.
type Walker struct {
	conn    *Conn
	service string
	filters Filters
	logger  *slog.Logger
}

// NewWalker creates a schema walker. service is stamped on every database
// entity it produces.
func NewWalker(conn *Conn, service string, filters Filters, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Walker{conn: conn, service: service, filters: filters, logger: logger}
}

// Walk starts a fresh enumeration pass and returns an iterator over entity
// records in dependency order: each database, then its schemas, then the
// tables of those schemas. A failure to list databases is fatal; everything
// below that level degrades to warnings.
func (w *Walker) Walk(ctx context.Context) (*Iterator, error) {
	dbs, err := w.databases(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}
	return &Iterator{ctx: ctx, w: w, dbs: dbs}, nil
}

// Iterator is a lazy walk over the source's catalog. Cancellation is
// honored between tables, never mid-query.
type Iterator struct {
	ctx context.Context
	w   *Walker

	dbs   []meta.Database
	dbIdx int

	schemas   []meta.Schema
	schemaIdx int

	queue []meta.Record
	cur   meta.Record
	err   error

	warnings []meta.Warning
	filtered int
	closed   bool
}

// Next advances to the next record. It returns false at the end of the
// walk or on cancellation; check Err afterwards.
func (it *Iterator) Next() bool {
	for {
		if it.closed || it.err != nil {
			return false
		}
		if err := it.ctx.Err(); err != nil {
			it.err = err
			return false
		}

		if len(it.queue) > 0 {
			it.cur = it.queue[0]
			it.queue = it.queue[1:]
			return true
		}

		// Tables for the next pending schema.
		if it.schemaIdx < len(it.schemas) {
			schema := it.schemas[it.schemaIdx]
			it.schemaIdx++

			tables, filtered, err := it.w.tables(it.ctx, schema)
			if err != nil {
				it.recover(&PartialEnumerationError{
					Database: schema.Database,
					Schema:   schema.Display(),
					Err:      err,
				}, schema.FullName())
				continue
			}
			it.filtered += filtered
			for _, t := range tables {
				it.queue = append(it.queue, t)
			}
			continue
		}

		// Schemas for the next pending database.
		if it.dbIdx < len(it.dbs) {
			db := it.dbs[it.dbIdx]
			it.dbIdx++

			if !it.w.filters.Databases.Match(db.Name) {
				it.filtered++
				continue
			}
			it.queue = append(it.queue, db)

			schemas, err := it.w.schemasOf(it.ctx, db.Name)
			if err != nil {
				it.recover(&PartialEnumerationError{Database: db.Name, Err: err}, db.Name)
				it.schemas, it.schemaIdx = nil, 0
				continue
			}

			it.schemas = it.schemas[:0]
			it.schemaIdx = 0
			for _, s := range schemas {
				if !it.w.filters.Schemas.Match(s.FullName()) {
					it.filtered++
					continue
				}
				it.queue = append(it.queue, s)
				it.schemas = append(it.schemas, s)
			}
			continue
		}

		return false
	}
}

// Record returns the record produced by the last successful Next.
func (it *Iterator) Record() meta.Record {
	return it.cur
}

// Err returns the fatal error that ended the walk, if any. Recovered
// per-schema failures are in Warnings, not here.
func (it *Iterator) Err() error {
	return it.err
}

// Close ends the walk early.
func (it *Iterator) Close() error {
	it.closed = true
	return nil
}

// Warnings returns every recovered enumeration failure so far.
func (it *Iterator) Warnings() []meta.Warning {
	return it.warnings
}

// Filtered returns how many databases, schemas, and tables the configured
// filters dropped.
func (it *Iterator) Filtered() int {
	return it.filtered
}

func (it *Iterator) recover(perr *PartialEnumerationError, subject string) {
	it.w.logger.Warn("partial enumeration failure",
		slog.String("subject", subject), slog.Any("error", perr.Err))
	it.warnings = append(it.warnings, meta.Warning{
		Component:  "walker",
		Subject:    subject,
		Message:    perr.Error(),
		OccurredAt: time.Now().UTC(),
	})
}

func (w *Walker) databases(ctx context.Context) ([]meta.Database, error) {
	rows, err := w.conn.db.QueryContext(ctx, databasesQuery)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dbs []meta.Database
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		dbs = append(dbs, meta.Database{Name: name, Service: w.service})
	}
	return dbs, rows.Err()
}

// schemasOf lists the folder chains under one database. The database itself
// is always a schema too (the empty folder chain), for relations stored
// directly under the space.
func (w *Walker) schemasOf(ctx context.Context, database string) ([]meta.Schema, error) {
	query := fmt.Sprintf(
		`SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME LIKE '%s.%%' ORDER BY SCHEMA_NAME`,
		quoteLiteral(database))

	rows, err := w.conn.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	schemas := []meta.Schema{{Database: database}}
	for rows.Next() {
		var dotted string
		if err := rows.Scan(&dotted); err != nil {
			return nil, err
		}
		path := strings.TrimPrefix(dotted, database+".")
		schemas = append(schemas, meta.Schema{
			Database: database,
			Path:     strings.Split(path, "."),
		})
	}
	return schemas, rows.Err()
}

// tables lists the relations of one schema with their columns. The view
// definition query runs first so views carry their SQL for the lineage
// extractor.
func (w *Walker) tables(ctx context.Context, schema meta.Schema) ([]meta.Table, int, error) {
	full := quoteLiteral(schema.FullName())

	definitions, err := w.viewDefinitions(ctx, full)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT TABLE_NAME, TABLE_TYPE FROM INFORMATION_SCHEMA."TABLES" WHERE TABLE_SCHEMA = '%s' ORDER BY TABLE_NAME`,
		full)
	rows, err := w.conn.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var tables []meta.Table
	filtered := 0
	for rows.Next() {
		var name, tableType string
		if err := rows.Scan(&name, &tableType); err != nil {
			return nil, 0, err
		}
		if !w.filters.Tables.Match(name) {
			filtered++
			continue
		}

		t := meta.Table{
			Ref: meta.TableRef{
				Database: schema.Database,
				Schema:   schema.Display(),
				Name:     name,
			},
			Kind: meta.KindTable,
		}
		if strings.EqualFold(tableType, "VIEW") {
			t.Kind = meta.KindView
			t.Definition = definitions[strings.ToLower(name)]
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range tables {
		cols, err := w.columns(ctx, full, tables[i].Ref.Name)
		if err != nil {
			return nil, 0, err
		}
		tables[i].Columns = cols
	}
	return tables, filtered, nil
}

func (w *Walker) viewDefinitions(ctx context.Context, quotedSchema string) (map[string]string, error) {
	query := fmt.Sprintf(
		`SELECT TABLE_NAME, VIEW_DEFINITION FROM INFORMATION_SCHEMA.VIEWS WHERE TABLE_SCHEMA = '%s'`,
		quotedSchema)
	rows, err := w.conn.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	definitions := make(map[string]string)
	for rows.Next() {
		var name string
		var definition sql.NullString
		if err := rows.Scan(&name, &definition); err != nil {
			return nil, err
		}
		if definition.Valid {
			definitions[strings.ToLower(name)] = definition.String
		}
	}
	return definitions, rows.Err()
}

func (w *Walker) columns(ctx context.Context, quotedSchema, table string) ([]meta.Column, error) {
	query := fmt.Sprintf(
		`SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, ORDINAL_POSITION, NUMERIC_PRECISION, NUMERIC_SCALE `+
			`FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = '%s' AND TABLE_NAME = '%s' ORDER BY ORDINAL_POSITION`,
		quotedSchema, quoteLiteral(table))
	rows, err := w.conn.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cols []meta.Column
	for rows.Next() {
		var col meta.Column
		var nullable string
		var precision, scale sql.NullInt64
		if err := rows.Scan(&col.Name, &col.SourceType, &nullable, &col.Ordinal, &precision, &scale); err != nil {
			return nil, err
		}
		col.DataType = NormalizeType(col.SourceType)
		col.Nullable = strings.EqualFold(nullable, "YES")
		if precision.Valid {
			p := int(precision.Int64)
			col.Precision = &p
		}
		if scale.Valid {
			s := int(scale.Int64)
			col.Scale = &s
		}
		if col.DataType == meta.TypeUnknown {
			w.logger.Warn("unknown vendor type",
				slog.String("table", table), slog.String("column", col.Name),
				slog.String("sourceType", col.SourceType))
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// quoteLiteral escapes a string for embedding in a single-quoted SQL
// literal. Flight SQL prepared-statement parameters are not reliable across
// Dremio versions, so catalog queries interpolate escaped literals instead.
func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
