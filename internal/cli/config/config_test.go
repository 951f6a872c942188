package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkflow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalWorkflow = `
source:
  name: dremio-prod
  connection:
    hostPort: "dremio.internal:32010"
    username: "svc-metadata"
    password: "hunter2"
    timeout: 30s
`

func TestLoadDefaults(t *testing.T) {
	path := writeWorkflow(t, minimalWorkflow)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "dremio-prod", cfg.Source.Name)
	assert.Equal(t, "dremio.internal:32010", cfg.Source.Connection.HostPort)
	assert.Equal(t, 30*time.Second, cfg.Source.Connection.Timeout)
	assert.False(t, cfg.Source.Connection.UseEncryption)
	assert.True(t, cfg.Source.Connection.DisableCertificateVerification)
	assert.False(t, cfg.Profiler.Enabled)
	assert.Equal(t, int64(DefaultSampleSize), cfg.Profiler.SampleSize)
	assert.True(t, cfg.Lineage.Enabled)
	assert.True(t, cfg.Lineage.ViewDefinitions)
	assert.Equal(t, DefaultQueryLimit, cfg.Lineage.QueryHistory.Limit)
	assert.True(t, cfg.Procedures.Enabled)
	assert.Equal(t, "jsonl", cfg.Sink.Type)
	assert.Equal(t, "-", cfg.Sink.Path)
	assert.Equal(t, DefaultStatePath, cfg.Run.StatePath)
	assert.Equal(t, "info", cfg.Run.LogLevel)

	assert.NoError(t, cfg.Validate())
}

func TestLoadPrecedenceFileEnvFlag(t *testing.T) {
	path := writeWorkflow(t, minimalWorkflow+`
run:
  logLevel: warn
sink:
  type: sqlite
  path: out.db
`)

	// Environment beats the file.
	t.Setenv("DREMIOMETA_RUN__LOGLEVEL", "debug")
	t.Setenv("DREMIOMETA_SOURCE__CONNECTION__HOSTPORT", "other:32010")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("verbose", false, "")
	flags.String("output", "auto", "")
	require.NoError(t, flags.Parse([]string{"--verbose"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Run.LogLevel)
	assert.Equal(t, "other:32010", cfg.Source.Connection.HostPort)
	assert.Equal(t, "sqlite", cfg.Sink.Type)
	assert.True(t, cfg.Verbose)
	// Unchanged flags never override.
	assert.Equal(t, "auto", cfg.OutputFormat)
}

func TestLoadExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_DREMIO_PASSWORD", "s3cret")
	path := writeWorkflow(t, `
source:
  name: dremio-prod
  connection:
    hostPort: "dremio.internal:32010"
    username: "svc-metadata"
    password: "${TEST_DREMIO_PASSWORD}"
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Source.Connection.Password)

	// Unset references stay as written.
	path = writeWorkflow(t, `
source:
  connection:
    password: "${TEST_UNSET_VARIABLE_42}"
`)
	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "${TEST_UNSET_VARIABLE_42}", cfg.Source.Connection.Password)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	base := func() *Config {
		path := writeWorkflow(t, minimalWorkflow)
		cfg, err := Load(path, nil)
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Source.Connection.Password = ""
	assert.ErrorContains(t, cfg.Validate(), "password")

	cfg = base()
	cfg.Sink.Type = "parquet"
	assert.ErrorContains(t, cfg.Validate(), "unknown type")

	cfg = base()
	cfg.Sink.Type = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "dsn")

	cfg = base()
	cfg.Profiler.Enabled = true
	cfg.Profiler.SampleSize = 0
	assert.ErrorContains(t, cfg.Validate(), "sampleSize")

	cfg = base()
	cfg.Source.Filters.Tables.Includes = []string{"("}
	assert.ErrorContains(t, cfg.Validate(), "filters")

	cfg = base()
	cfg.Run.LogLevel = "chatty"
	assert.ErrorContains(t, cfg.Validate(), "logLevel")
}

func TestCheckUnknownKeys(t *testing.T) {
	good := writeWorkflow(t, minimalWorkflow)
	assert.NoError(t, CheckUnknownKeys(good))

	bad := writeWorkflow(t, `
source:
  name: dremio-prod
  conection:
    hostPort: "x:1"
`)
	err := CheckUnknownKeys(bad)
	require.Error(t, err)
	assert.ErrorContains(t, err, "conection")

	empty := writeWorkflow(t, "")
	assert.NoError(t, CheckUnknownKeys(empty))
}

func TestFiltersCompile(t *testing.T) {
	path := writeWorkflow(t, minimalWorkflow+`
  filters:
    databases: { includes: ["^demo$"], excludes: [] }
    tables: { excludes: ["_tmp$"] }
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	filters, err := cfg.Filters()
	require.NoError(t, err)
	assert.True(t, filters.Databases.Match("demo"))
	assert.False(t, filters.Databases.Match("staging"))
	assert.False(t, filters.Tables.Match("orders_tmp"))
}
