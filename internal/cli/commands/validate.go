package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metalake-labs/dremiometa/internal/cli/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the workflow file",
		Long: `Strictly decode the workflow file and check its semantic constraints
without connecting to anything.

Strict decoding rejects keys the schema does not define, so a typoed key
fails here instead of silently leaving a default in place.`,
		Example: `  dremiometa validate -c workflow.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd)
		},
	}
}

func runValidate(cmd *cobra.Command) error {
	ctx := cmd.Context()
	r := GetRenderer(ctx)

	path := GetWorkflowFile(ctx)
	if path == "" {
		return fmt.Errorf("no workflow file: pass one with -c or create ./workflow.yaml")
	}

	if err := config.CheckUnknownKeys(path); err != nil {
		r.StatusLine("schema", "failed", "")
		r.Error(err.Error())
		return fmt.Errorf("workflow file is invalid")
	}
	r.StatusLine("schema", "ok", "no unknown keys")

	cfg := GetConfig(ctx)
	if err := cfg.Validate(); err != nil {
		r.StatusLine("semantics", "failed", "")
		r.Error(err.Error())
		return fmt.Errorf("workflow file is invalid")
	}
	r.StatusLine("semantics", "ok", "")

	r.Success(fmt.Sprintf("%s is valid", path))
	return nil
}
