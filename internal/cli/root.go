// Package cli provides the command-line interface for dremiometa.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/metalake-labs/dremiometa/internal/cli/commands"
	"github.com/metalake-labs/dremiometa/internal/cli/config"
	"github.com/metalake-labs/dremiometa/internal/cli/output"
)

var (
	workflowFile string
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// defaultWorkflowFile is picked up when -c is not given.
const defaultWorkflowFile = "workflow.yaml"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dremiometa",
		Short: "Dremio metadata-ingestion connector",
		Long: `dremiometa harvests metadata from a Dremio lakehouse over Arrow Flight SQL:
databases, schemas, tables, views and columns, optional table profiles,
view- and query-derived lineage, and user-defined functions.

A workflow file describes the source, filters, and sink; one run streams
the catalog to the sink and records the outcome in a local run history.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Help and completion work without a workflow.
			switch cmd.Name() {
			case "help", "completion", "__complete", "version", "init":
				return nil
			}

			path := workflowFile
			if path == "" {
				if _, err := os.Stat(defaultWorkflowFile); err == nil {
					path = defaultWorkflowFile
				}
			}

			cfg, err := config.Load(path, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			ctx := commands.WithConfig(cmd.Context(), cfg)
			ctx = commands.WithWorkflowFile(ctx, path)

			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
			ctx = commands.WithRenderer(ctx, renderer)
			ctx = commands.WithLogger(ctx, newLogger(cfg))
			cmd.SetContext(ctx)

			if cfg.Verbose && path != "" {
				fmt.Fprintf(os.Stderr, "Using workflow file: %s\n", path)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Dremio metadata-ingestion connector
`)

	rootCmd.PersistentFlags().StringVarP(&workflowFile, "config", "c", "", "workflow file (default: ./workflow.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewIngestCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger builds the slog logger from the run settings. --verbose wins
// over the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Run.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for dremiometa.

To load completions:

Bash:
  $ source <(dremiometa completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ dremiometa completion bash > /etc/bash_completion.d/dremiometa
  # macOS:
  $ dremiometa completion bash > $(brew --prefix)/etc/bash_completion.d/dremiometa

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ dremiometa completion zsh > "${fpath[1]}/_dremiometa"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ dremiometa completion fish | source

  # To load completions for each session, execute once:
  $ dremiometa completion fish > ~/.config/fish/completions/dremiometa.fish

PowerShell:
  PS> dremiometa completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> dremiometa completion powershell > dremiometa.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
