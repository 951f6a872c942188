package dremio

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"
)

// DefaultHistoryQuery reads completed queries from the jobs system table.
// The table moves between Dremio versions (sys.jobs, sys.jobs_recent), so
// the workflow file can override the whole query; it must return statement
// text and submission time, in that column order.
const DefaultHistoryQuery = `SELECT query_text, submitted_ts FROM sys.jobs ORDER BY submitted_ts DESC`

// HistoryEntry is one statement from the query history.
type HistoryEntry struct {
	SQL         string
	SubmittedAt time.Time
}

var limitClause = regexp.MustCompile(`(?i)\bLIMIT\s+\d+\s*$`)

// FetchQueryHistory runs the history query and scans its rows. limit caps
// the number of entries; zero means the query's own bound. An override
// query ending in its own LIMIT keeps it, the configured limit is ignored.
func FetchQueryHistory(ctx context.Context, conn *Conn, query string, limit int) ([]HistoryEntry, error) {
	if query == "" {
		query = DefaultHistoryQuery
	}
	if limit > 0 && !limitClause.MatchString(query) {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := conn.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []HistoryEntry
	for rows.Next() {
		var text sql.NullString
		var submitted sql.NullTime
		if err := rows.Scan(&text, &submitted); err != nil {
			return nil, fmt.Errorf("query history: %w", err)
		}
		if !text.Valid || text.String == "" {
			continue
		}
		e := HistoryEntry{SQL: text.String}
		if submitted.Valid {
			e.SubmittedAt = submitted.Time
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	conn.logger.Debug("fetched query history", slog.Int("count", len(entries)))
	return entries, nil
}
