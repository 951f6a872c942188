// Package sink writes harvested entities to their destination. Records
// arrive in dependency order and are written in that order; sinks never
// buffer across kinds or reorder.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// Sink consumes the record stream of one run.
type Sink interface {
	Open(ctx context.Context) error
	Write(ctx context.Context, rec meta.Record) error
	Close() error
}

// Config selects and parameterizes a sink.
type Config struct {
	// Type is jsonl, sqlite, postgres, or duckdb. Empty means jsonl.
	Type string `koanf:"type" yaml:"type"`
	// Path is the output file: the jsonl stream ("-" writes to stdout) or
	// the sqlite/duckdb database file.
	Path string `koanf:"path" yaml:"path"`
	// DSN is the connection string for the relational sinks. For sqlite and
	// duckdb it overrides Path when both are set.
	DSN string `koanf:"dsn" yaml:"dsn"`
}

// fileDSN resolves the connection string of the file-backed engines. An
// empty result would open an anonymous in-memory database and lose the
// whole run; config validation rejects that combination upfront.
func (c Config) fileDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return c.Path
}

// New builds the sink named by cfg.Type.
func New(cfg Config, logger *slog.Logger) (Sink, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch cfg.Type {
	case "", "jsonl":
		return newJSONLSink(cfg.Path, logger), nil
	case "sqlite":
		return newDBSink(sqliteDialect, cfg.fileDSN(), logger), nil
	case "postgres":
		return newDBSink(postgresDialect, cfg.DSN, logger), nil
	case "duckdb":
		return newDBSink(duckdbDialect, cfg.fileDSN(), logger), nil
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Type)
	}
}
