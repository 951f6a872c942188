// Package profile computes bounded statistical summaries of table contents:
// exact row counts plus per-column null fractions and distinct estimates
// over a capped sample.
package profile

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/metalake-labs/dremiometa/internal/dremio"
	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// DefaultSampleSize caps the rows the column aggregates scan when the
// workflow file does not set one.
const DefaultSampleSize = 10000

// ProfilingError is a recovered per-table failure. The pipeline records it
// as a warning and moves to the next table.
type ProfilingError struct {
	Ref meta.TableRef
	Err error
}

func (e *ProfilingError) Error() string {
	return fmt.Sprintf("profiling %s failed: %v", e.Ref.FQN(), e.Err)
}

func (e *ProfilingError) Unwrap() error {
	return e.Err
}

// Profiler runs sampling queries on the shared connection, one table at a
// time.
type Profiler struct {
	conn       *dremio.Conn
	sampleSize int64
	logger     *slog.Logger
}

// NewProfiler creates a profiler. sampleSize <= 0 falls back to the default.
func NewProfiler(conn *dremio.Conn, sampleSize int64, logger *slog.Logger) *Profiler {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Profiler{conn: conn, sampleSize: sampleSize, logger: logger}
}

// ProfileTable profiles one table: an exact COUNT(*) plus a single
// aggregate pass over a LIMIT-bounded sample. All fractions and estimates
// are computed in double precision. Any failure comes back as a
// *ProfilingError.
func (p *Profiler) ProfileTable(ctx context.Context, table meta.Table) (*meta.TableProfile, error) {
	fqn := quotedFQN(table.Ref)

	profile := &meta.TableProfile{Ref: table.Ref}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, fqn)
	if err := p.conn.DB().QueryRowContext(ctx, countQuery).Scan(&profile.RowCount); err != nil {
		return nil, &ProfilingError{Ref: table.Ref, Err: err}
	}

	// An empty table yields zero counts and zero fractions, never an error.
	if profile.RowCount == 0 || len(table.Columns) == 0 {
		for _, col := range table.Columns {
			profile.Columns = append(profile.Columns, meta.ColumnProfile{Name: col.Name})
		}
		return profile, nil
	}

	// One pass over the sample: sampled row count first, then per column
	// the non-null count and Dremio's approximate distinct.
	exprs := []string{"COUNT(*)"}
	for _, col := range table.Columns {
		ident := quoteIdent(col.Name)
		exprs = append(exprs, fmt.Sprintf("COUNT(%s)", ident), fmt.Sprintf("NDV(%s)", ident))
	}
	aggQuery := fmt.Sprintf(`SELECT %s FROM (SELECT * FROM %s LIMIT %d) AS sample`,
		strings.Join(exprs, ", "), fqn, p.sampleSize)

	scanned := make([]sql.NullFloat64, len(exprs))
	dest := make([]any, len(exprs))
	for i := range scanned {
		dest[i] = &scanned[i]
	}
	if err := p.conn.DB().QueryRowContext(ctx, aggQuery).Scan(dest...); err != nil {
		return nil, &ProfilingError{Ref: table.Ref, Err: err}
	}

	sampled := scanned[0].Float64
	profile.SampleSize = int64(sampled)

	for i, col := range table.Columns {
		nonNull := scanned[1+2*i].Float64
		distinct := scanned[2+2*i].Float64

		cp := meta.ColumnProfile{
			Name:             col.Name,
			NonNullCount:     int64(nonNull),
			DistinctEstimate: distinct,
		}
		if sampled > 0 {
			cp.NullFraction = 1 - nonNull/sampled
		}
		profile.Columns = append(profile.Columns, cp)
	}

	p.logger.Debug("profiled table",
		slog.String("table", table.Ref.FQN()),
		slog.Int64("rows", profile.RowCount),
		slog.Int64("sampled", profile.SampleSize))
	return profile, nil
}

// quotedFQN quotes every path component of the relation. The schema part is
// a dotted folder chain; each folder quotes separately.
func quotedFQN(ref meta.TableRef) string {
	parts := []string{ref.Database}
	if ref.Schema != "" {
		parts = append(parts, strings.Split(ref.Schema, ".")...)
	}
	parts = append(parts, ref.Name)
	for i, part := range parts {
		parts[i] = quoteIdent(part)
	}
	return strings.Join(parts, ".")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
