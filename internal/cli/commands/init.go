package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// workflowTemplate is the commented starter file init writes.
const workflowTemplate = `# dremiometa workflow file.
# Values support ${VAR} references, expanded from the environment.
# Any key can also be set via DREMIOMETA_ environment variables, nested
# with double underscores: DREMIOMETA_SOURCE__CONNECTION__PASSWORD.

source:
  name: dremio-prod                  # service name stamped on every entity
  connection:
    hostPort: "dremio.internal:32010"
    username: "svc-metadata"
    password: "${DREMIO_PASSWORD}"
    UseEncryption: false
    disableCertificateVerification: true
    timeout: 30s
    # options:                       # passthrough driver parameters
    #   routing_tag: metadata
  filters:                           # regular expressions
    databases: { includes: [], excludes: [] }
    schemas: { includes: [], excludes: [] }
    tables: { includes: [], excludes: ["_tmp$"] }

profiler:
  enabled: false                     # COUNT(*) plus sampled column stats
  sampleSize: 10000

lineage:
  enabled: true
  viewDefinitions: true              # parse view SQL into lineage edges
  queryHistory:
    enabled: false                   # parse executed queries (sys.jobs)
    query: ""                        # override for older Dremio versions
    limit: 500

procedures:
  enabled: true                      # harvest user-defined functions
  query: ""

sink:
  type: jsonl                        # jsonl | sqlite | postgres | duckdb
  path: "-"                          # "-" streams JSON lines to stdout
  dsn: ""                            # postgres only; ${VAR} expanded

run:
  statePath: .dremiometa/state.db    # local run history
  logLevel: info
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Scaffold a starter workflow file",
		Long: `Write a commented workflow.yaml into the given directory (default:
the current one). Edit the connection block, export the referenced
environment variables, and run 'dremiometa ingest'.`,
		Example: `  # Scaffold in the current directory
  dremiometa init

  # Scaffold into a new directory
  dremiometa init pipelines/dremio

  # Overwrite an existing workflow file
  dremiometa init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing workflow file")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	r := GetRenderer(cmd.Context())

	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	path := filepath.Join(dir, "workflow.yaml")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", path)
	}

	if err := os.WriteFile(path, []byte(workflowTemplate), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	r.StatusLine(path, "success", "")
	r.Println("")
	r.Success("Workflow scaffolded!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Edit the connection block in " + path)
	r.Println("  2. Export DREMIO_PASSWORD")
	r.Println("  3. Run 'dremiometa check -c " + path + "' to test connectivity")
	r.Println("  4. Run 'dremiometa ingest -c " + path + "'")

	return nil
}
