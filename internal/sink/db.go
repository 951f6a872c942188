package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// ddl is shared by all three relational engines. Types are the common
// subset; identity of harvested rows is left to the consumer, sinks only
// append.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS databases (
		service TEXT NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schemas (
		database_name TEXT NOT NULL,
		full_name TEXT NOT NULL,
		path TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tables (
		database_name TEXT NOT NULL,
		schema_name TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		definition TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS columns (
		database_name TEXT NOT NULL,
		schema_name TEXT NOT NULL,
		table_name TEXT NOT NULL,
		name TEXT NOT NULL,
		data_type TEXT NOT NULL,
		source_type TEXT NOT NULL,
		ordinal BIGINT NOT NULL,
		nullable BOOLEAN NOT NULL,
		num_precision BIGINT,
		num_scale BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS table_profiles (
		table_fqn TEXT NOT NULL,
		row_count BIGINT NOT NULL,
		sample_size BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS column_profiles (
		table_fqn TEXT NOT NULL,
		name TEXT NOT NULL,
		null_fraction DOUBLE PRECISION NOT NULL,
		distinct_estimate DOUBLE PRECISION NOT NULL,
		non_null_count BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lineage_edges (
		source_fqn TEXT NOT NULL,
		target_fqn TEXT NOT NULL,
		kind TEXT NOT NULL,
		source_column TEXT,
		target_column TEXT,
		observed_at TIMESTAMP NOT NULL,
		query_hash TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS procedures (
		name TEXT NOT NULL,
		definition TEXT,
		return_type TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS run_summaries (
		service TEXT NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		summary TEXT NOT NULL
	)`,
}

// dbSink is the shared relational sink. The engine differences live
// entirely in the dialect.
type dbSink struct {
	dialect dialect
	dsn     string
	logger  *slog.Logger
	db      *sql.DB
}

func newDBSink(d dialect, dsn string, logger *slog.Logger) *dbSink {
	return &dbSink{dialect: d, dsn: dsn, logger: logger}
}

// newDBSinkFromDB wires an already-open handle, for tests.
func newDBSinkFromDB(d dialect, db *sql.DB, logger *slog.Logger) *dbSink {
	return &dbSink{dialect: d, db: db, logger: logger}
}

func (s *dbSink) Open(ctx context.Context) error {
	if s.db == nil {
		db, err := sql.Open(s.dialect.driver, s.dsn)
		if err != nil {
			return fmt.Errorf("opening %s sink: %w", s.dialect.name, err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return fmt.Errorf("opening %s sink: %w", s.dialect.name, err)
		}
		s.db = db
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating sink tables: %w", err)
		}
	}
	s.logger.Debug("sink ready", slog.String("sink", s.dialect.name))
	return nil
}

func (s *dbSink) Write(ctx context.Context, rec meta.Record) error {
	switch r := rec.(type) {
	case meta.Database:
		return s.exec(ctx, `INSERT INTO databases (service, name) VALUES (?, ?)`,
			r.Service, r.Name)
	case meta.Schema:
		return s.exec(ctx, `INSERT INTO schemas (database_name, full_name, path) VALUES (?, ?, ?)`,
			r.Database, r.FullName(), r.Display())
	case meta.Table:
		return s.writeTable(ctx, r)
	case meta.TableProfile:
		return s.writeProfile(ctx, r)
	case meta.LineageEdge:
		return s.exec(ctx,
			`INSERT INTO lineage_edges (source_fqn, target_fqn, kind, source_column, target_column, observed_at, query_hash) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.Source.FQN(), r.Target.FQN(), string(r.Kind),
			r.SourceColumn, r.TargetColumn, r.ObservedAt, r.QueryHash)
	case meta.Procedure:
		return s.exec(ctx, `INSERT INTO procedures (name, definition, return_type) VALUES (?, ?, ?)`,
			r.Name, r.Definition, r.ReturnType)
	case meta.RunSummary:
		payload, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return s.exec(ctx, `INSERT INTO run_summaries (service, finished_at, summary) VALUES (?, ?, ?)`,
			r.Service, r.FinishedAt, string(payload))
	default:
		return fmt.Errorf("unsupported record kind %q", rec.RecordKind())
	}
}

func (s *dbSink) writeTable(ctx context.Context, t meta.Table) error {
	err := s.exec(ctx, `INSERT INTO tables (database_name, schema_name, name, kind, definition) VALUES (?, ?, ?, ?, ?)`,
		t.Ref.Database, t.Ref.Schema, t.Ref.Name, string(t.Kind), t.Definition)
	if err != nil {
		return err
	}
	for _, col := range t.Columns {
		err := s.exec(ctx,
			`INSERT INTO columns (database_name, schema_name, table_name, name, data_type, source_type, ordinal, nullable, num_precision, num_scale) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Ref.Database, t.Ref.Schema, t.Ref.Name, col.Name,
			string(col.DataType), col.SourceType, col.Ordinal, col.Nullable,
			nullableInt(col.Precision), nullableInt(col.Scale))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *dbSink) writeProfile(ctx context.Context, p meta.TableProfile) error {
	fqn := p.Ref.FQN()
	err := s.exec(ctx, `INSERT INTO table_profiles (table_fqn, row_count, sample_size) VALUES (?, ?, ?)`,
		fqn, p.RowCount, p.SampleSize)
	if err != nil {
		return err
	}
	for _, col := range p.Columns {
		err := s.exec(ctx,
			`INSERT INTO column_profiles (table_fqn, name, null_fraction, distinct_estimate, non_null_count) VALUES (?, ?, ?, ?, ?)`,
			fqn, col.Name, col.NullFraction, col.DistinctEstimate, col.NonNullCount)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *dbSink) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
	return err
}

func (s *dbSink) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}
