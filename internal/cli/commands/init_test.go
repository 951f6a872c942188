package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalake-labs/dremiometa/internal/cli/config"
)

func TestInitScaffoldsWorkflow(t *testing.T) {
	dir := t.TempDir()
	cmd, out, _ := newTestCommand(t, validConfig())

	require.NoError(t, runInit(cmd, dir, false))
	assert.Contains(t, out.String(), "Workflow scaffolded")

	path := filepath.Join(dir, "workflow.yaml")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "hostPort")
	assert.Contains(t, string(content), "${DREMIO_PASSWORD}")
}

func TestInitTemplateIsLoadable(t *testing.T) {
	dir := t.TempDir()
	cmd, _, _ := newTestCommand(t, validConfig())
	require.NoError(t, runInit(cmd, dir, false))

	path := filepath.Join(dir, "workflow.yaml")
	require.NoError(t, config.CheckUnknownKeys(path))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "dremio-prod", cfg.Source.Name)
	assert.True(t, cfg.Lineage.Enabled)
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	cmd, _, _ := newTestCommand(t, validConfig())

	require.NoError(t, runInit(cmd, dir, false))

	err := runInit(cmd, dir, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, runInit(cmd, dir, true))
}

func TestInitCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pipelines", "dremio")
	cmd, _, _ := newTestCommand(t, validConfig())

	require.NoError(t, runInit(cmd, dir, false))
	_, err := os.Stat(filepath.Join(dir, "workflow.yaml"))
	require.NoError(t, err)
}
