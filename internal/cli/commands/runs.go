package commands

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/metalake-labs/dremiometa/internal/cli/output"
	"github.com/metalake-labs/dremiometa/internal/state"
	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List past ingestion runs",
		Long: `List runs recorded in the local run history, newest first. Use the
subcommands to inspect one run's summary or its recovered warnings.`,
		Example: `  # Last 20 runs
  dremiometa runs

  # One run in detail
  dremiometa runs show 4f7c2c1e-...

  # Warnings recovered during a run
  dremiometa runs warnings 4f7c2c1e-...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runsList(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list")
	cmd.AddCommand(newRunsShowCommand())
	cmd.AddCommand(newRunsWarningsCommand())
	return cmd
}

func openStateStore(cmd *cobra.Command) (*state.SQLiteStore, error) {
	cfg := GetConfig(cmd.Context())
	return state.Open(cfg.Run.StatePath)
}

func runsList(cmd *cobra.Command, limit int) error {
	r := GetRenderer(cmd.Context())

	store, err := openStateStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runs)
	}

	if len(runs) == 0 {
		r.Println("No runs recorded yet.")
		return nil
	}

	t := r.NewTable("ID", "WORKFLOW", "STATUS", "STARTED", "DURATION")
	for _, run := range runs {
		duration := ""
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow([]any{run.ID, run.Workflow, string(run.Status), run.StartedAt.Format(time.RFC3339), duration})
	}
	r.RenderTable(t)
	return nil
}

func newRunsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runsShow(cmd, args[0])
		},
	}
}

func runsShow(cmd *cobra.Command, id string) error {
	r := GetRenderer(cmd.Context())

	store, err := openStateStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(id)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(run)
	}

	r.Header(1, "Run "+run.ID)
	r.Println(output.FormatKeyValue("workflow", run.Workflow))
	r.Println(output.FormatKeyValue("status", string(run.Status)))
	r.Println(output.FormatKeyValue("started", run.StartedAt.Format(time.RFC3339)))
	if run.CompletedAt != nil {
		r.Println(output.FormatKeyValue("completed", run.CompletedAt.Format(time.RFC3339)))
	}
	if run.Error != "" {
		r.Error(run.Error)
	}

	if run.StatsJSON == "" {
		return nil
	}
	var summary meta.RunSummary
	if err := json.Unmarshal([]byte(run.StatsJSON), &summary); err != nil {
		return nil
	}

	r.Println("")
	t := r.NewTable("ENTITY", "COUNT")
	t.AppendRow([]any{"databases", summary.Databases})
	t.AppendRow([]any{"schemas", summary.Schemas})
	t.AppendRow([]any{"tables", summary.Tables})
	t.AppendRow([]any{"views", summary.Views})
	t.AppendRow([]any{"columns", summary.Columns})
	t.AppendRow([]any{"profiles", summary.Profiles})
	t.AppendRow([]any{"lineage edges", summary.Edges})
	t.AppendRow([]any{"procedures", summary.Procedures})
	t.AppendRow([]any{"filtered out", summary.Filtered})
	r.RenderTable(t)
	return nil
}

func newRunsWarningsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "warnings <run-id>",
		Short: "List warnings recovered during a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runsWarnings(cmd, args[0])
		},
	}
}

func runsWarnings(cmd *cobra.Command, id string) error {
	r := GetRenderer(cmd.Context())

	store, err := openStateStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// Resolve the run first so an unknown id errors instead of showing an
	// empty list.
	if _, err := store.GetRun(id); err != nil {
		return err
	}

	warnings, err := store.GetWarnings(id)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(warnings)
	}

	if len(warnings) == 0 {
		r.Println("No warnings recorded.")
		return nil
	}

	t := r.NewTable("COMPONENT", "SUBJECT", "MESSAGE", "AT")
	for _, w := range warnings {
		t.AppendRow([]any{w.Component, w.Subject, w.Message, w.OccurredAt.Format(time.RFC3339)})
	}
	r.RenderTable(t)
	return nil
}
