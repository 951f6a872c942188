package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/metalake-labs/dremiometa/internal/dremio"
)

func runQueryREPL(cmd *cobra.Command, conn *dremio.Conn, opts *QueryOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)

	historyFile := filepath.Join(filepath.Dir(cfg.Run.StatePath), "query_history")
	_ = os.MkdirAll(filepath.Dir(historyFile), 0750)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dremio> ",
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("initializing REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dremiometa query REPL (%s)\n", cfg.Source.Connection.HostPort)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var buffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buffer.Reset()
			rl.SetPrompt("dremio> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") && buffer.Len() == 0 {
			if line == ".quit" || line == ".exit" {
				break
			}
			handleDotCommand(ctx, cmd, conn, line, opts.Format)
			continue
		}

		// Accumulate until the terminating semicolon.
		buffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buffer.WriteString(" ")
			rl.SetPrompt("   ...> ")
			continue
		}
		rl.SetPrompt("dremio> ")

		query := strings.TrimSuffix(buffer.String(), ";")
		buffer.Reset()

		if err := executeAndRender(ctx, cmd, conn, query, opts.Format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

func executeAndRender(ctx context.Context, cmd *cobra.Command, conn *dremio.Conn, query, format string) error {
	rows, err := conn.DB().QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	return renderResults(cmd.OutOrStdout(), rows, format)
}

func handleDotCommand(ctx context.Context, cmd *cobra.Command, conn *dremio.Conn, line, format string) {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	run := func(query string) {
		if err := executeAndRender(ctx, cmd, conn, query, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}

	switch command {
	case ".help":
		printREPLHelp(cmd.OutOrStdout())

	case ".schemas":
		run(`SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA ORDER BY SCHEMA_NAME`)

	case ".tables":
		if len(parts) < 2 {
			run(`SELECT TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE FROM INFORMATION_SCHEMA."TABLES" ORDER BY TABLE_SCHEMA, TABLE_NAME`)
			return
		}
		run(fmt.Sprintf(
			`SELECT TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE FROM INFORMATION_SCHEMA."TABLES" WHERE TABLE_SCHEMA = '%s' ORDER BY TABLE_NAME`,
			strings.ReplaceAll(parts[1], "'", "''")))

	case ".columns":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .columns <table>")
			return
		}
		run(fmt.Sprintf(
			`SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = '%s' ORDER BY ORDINAL_POSITION`,
			strings.ReplaceAll(parts[1], "'", "''")))

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .schemas          List visible schemas
  .tables [schema]  List tables and views, optionally for one schema
  .columns <table>  Show columns of a table
  .clear            Clear the screen
  .quit / .exit     Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func newREPLCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("SELECT"),
		readline.PcItem(".help"),
		readline.PcItem(".schemas"),
		readline.PcItem(".tables"),
		readline.PcItem(".columns"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
