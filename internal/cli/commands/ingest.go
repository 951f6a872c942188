package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/metalake-labs/dremiometa/internal/ingest"
	"github.com/metalake-labs/dremiometa/internal/state"
)

// IngestOptions holds options for the ingest command.
type IngestOptions struct {
	JSON   bool
	DryRun bool
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand() *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run a metadata harvest against the configured Dremio",
		Long: `Run one ingestion pass: connect, walk the catalog, optionally profile
tables and extract lineage, harvest user-defined functions, and stream
every entity to the configured sink.

Recovered failures (an unreadable schema, one failed profile) become
warnings in the run summary; only connection, configuration, and sink-open
failures abort the run.`,
		Example: `  # Run the workflow
  dremiometa ingest -c workflow.yaml

  # Machine-readable progress events, one JSON object per line
  dremiometa ingest -c workflow.yaml --json

  # Validate, connect, and count without writing to the sink
  dremiometa ingest -c workflow.yaml --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Emit progress as JSON lines")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Validate and connect without writing to the sink")

	return cmd
}

func runIngest(cmd *cobra.Command, opts *IngestOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)

	store, err := state.Open(cfg.Run.StatePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runner := ingest.NewRunner(cfg, GetWorkflowFile(ctx), GetLogger(ctx), GetRenderer(ctx), store)
	if opts.JSON {
		runner.SetJSONEvents(cmd.OutOrStdout())
	}
	if opts.DryRun {
		runner.SetDryRun(true)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runner.Run(runCtx)
}
