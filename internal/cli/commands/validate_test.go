package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalake-labs/dremiometa/internal/cli/config"
)

func writeWorkflow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validWorkflow = `
source:
  name: dremio-prod
  connection:
    hostPort: "dremio.internal:32010"
    username: "svc-metadata"
    password: "hunter2"
`

func validateWithFile(t *testing.T, path string) (error, string, string) {
	t.Helper()
	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	cmd, out, errOut := newTestCommand(t, cfg)
	ctx := WithWorkflowFile(cmd.Context(), path)
	cmd.SetContext(ctx)

	return runValidate(cmd), out.String(), errOut.String()
}

func TestValidateAcceptsGoodWorkflow(t *testing.T) {
	path := writeWorkflow(t, validWorkflow)

	err, out, _ := validateWithFile(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestValidateRejectsUnknownKey(t *testing.T) {
	path := writeWorkflow(t, `
source:
  name: dremio-prod
  conection:
    hostPort: "x:1"
`)

	err, _, errOut := validateWithFile(t, path)
	require.Error(t, err)
	assert.Contains(t, errOut, "conection")
}

func TestValidateRejectsBadSemantics(t *testing.T) {
	path := writeWorkflow(t, validWorkflow+`
sink:
  type: parquet
`)

	err, _, errOut := validateWithFile(t, path)
	require.Error(t, err)
	assert.Contains(t, errOut, "unknown type")
}

func TestValidateRequiresWorkflowFile(t *testing.T) {
	cmd, _, _ := newTestCommand(t, validConfig())
	err := runValidate(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow file")
}
