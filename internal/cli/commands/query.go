package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metalake-labs/dremiometa/internal/dremio"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Execute string
	Format  string
	Input   string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run ad-hoc SQL against the configured Dremio",
		Long: `Execute SQL on the configured Dremio connection, with results rendered
as a table, JSON, CSV, or markdown.

Without -e, an input file, or piped stdin, an interactive REPL starts.`,
		Example: `  # One-shot statement
  dremiometa query -e "SELECT * FROM sys.options LIMIT 5"

  # Read SQL from a file, render JSON
  dremiometa query -i explore.sql --format json

  # Piped input
  echo "SELECT 1" | dremiometa query

  # Interactive REPL
  dremiometa query`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Execute, "execute", "e", "", "SQL statement to run")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)

	if err := cfg.Source.Connection.Validate(); err != nil {
		return err
	}

	conn, err := dremio.Connect(ctx, cfg.Source.Connection, GetLogger(ctx))
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	var sqlText string
	switch {
	case opts.Execute != "":
		sqlText = opts.Execute
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("reading %s: %w", opts.Input, err)
		}
		sqlText = string(content)
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		sqlText = string(content)
	default:
		return runQueryREPL(cmd, conn, opts)
	}

	sqlText = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sqlText), ";"))
	if sqlText == "" {
		return fmt.Errorf("empty statement")
	}

	rows, err := conn.DB().QueryContext(ctx, sqlText)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(cmd.OutOrStdout(), rows, opts.Format)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
