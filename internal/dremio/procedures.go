package dremio

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// DefaultProceduresQuery lists user-defined functions. Like the jobs table,
// the UDF catalog is version-dependent and editions without UDF support
// lack it entirely, so the workflow file can override the query. It must
// return name and definition, with an optional third return-type column.
const DefaultProceduresQuery = `SELECT name, definition, return_type FROM sys.user_defined_functions ORDER BY name`

// HarvestProcedures enumerates routine names and raw definition text.
// Definitions are never parsed. Callers treat an error here as a recovered
// warning: a missing system table is normal, not a failed run.
func HarvestProcedures(ctx context.Context, conn *Conn, query string) ([]meta.Procedure, error) {
	if query == "" {
		query = DefaultProceduresQuery
	}

	rows, err := conn.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("procedures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("procedures: %w", err)
	}

	var procs []meta.Procedure
	for rows.Next() {
		var p meta.Procedure
		var definition, returnType sql.NullString
		if len(cols) >= 3 {
			err = rows.Scan(&p.Name, &definition, &returnType)
		} else {
			err = rows.Scan(&p.Name, &definition)
		}
		if err != nil {
			return nil, fmt.Errorf("procedures: %w", err)
		}
		p.Definition = definition.String
		p.ReturnType = returnType.String
		procs = append(procs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	conn.logger.Debug("harvested procedures", slog.Int("count", len(procs)))
	return procs, nil
}
