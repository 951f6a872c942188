package commands

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// resultSet is a fully drained query result. Column order is preserved and
// values stay as scanned; each renderer decides its own formatting. Ad-hoc
// statements are expected to be bounded by the caller.
type resultSet struct {
	columns []string
	rows    [][]any
}

func drainRows(rows *sql.Rows) (*resultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	rs := &resultSet{columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.rows = append(rs.rows, values)
	}
	return rs, rows.Err()
}

// renderResults drains rows and renders them in the requested format.
func renderResults(w io.Writer, rows *sql.Rows, format string) error {
	rs, err := drainRows(rows)
	if err != nil {
		return err
	}
	switch format {
	case "", "table":
		return rs.writeTable(w)
	case "json":
		return rs.writeJSON(w)
	case "csv":
		return rs.writeCSV(w)
	case "md", "markdown":
		return rs.writeMarkdown(w)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// noRows prints the empty-result marker when there is nothing to render.
func (rs *resultSet) noRows(w io.Writer) bool {
	if len(rs.rows) > 0 {
		return false
	}
	_, _ = fmt.Fprintln(w, "(0 rows)")
	return true
}

func (rs *resultSet) writeTable(w io.Writer) error {
	if rs.noRows(w) {
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(rs.columns))
	for i, col := range rs.columns {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, row := range rs.rows {
		cells := make(table.Row, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		t.AppendRow(cells)
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rs.rows))
	return nil
}

func (rs *resultSet) writeJSON(w io.Writer) error {
	var out []map[string]any
	for _, row := range rs.rows {
		m := make(map[string]any, len(rs.columns))
		for i, col := range rs.columns {
			m[col] = row[i]
		}
		out = append(out, m)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (rs *resultSet) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.columns); err != nil {
		return err
	}
	record := make([]string, len(rs.columns))
	for _, row := range rs.rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (rs *resultSet) writeMarkdown(w io.Writer) error {
	if rs.noRows(w) {
		return nil
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(rs.columns, " | "))
	_, _ = fmt.Fprintf(w, "|%s\n", strings.Repeat(" --- |", len(rs.columns)))
	cells := make([]string, len(rs.columns))
	for _, row := range rs.rows {
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
