package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/metalake-labs/dremiometa/internal/cli/config"
	"github.com/metalake-labs/dremiometa/internal/cli/output"
	"github.com/metalake-labs/dremiometa/internal/dremio"
	"github.com/metalake-labs/dremiometa/internal/sink"
	"github.com/metalake-labs/dremiometa/internal/testutil"
)

// newTestCommand builds a bare command wired to buffers and a populated
// context, the way the root command does for real invocations.
func newTestCommand(t *testing.T, cfg *config.Config) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	ctx := WithConfig(context.Background(), cfg)
	ctx = WithRenderer(ctx, output.NewRenderer(out, errOut, output.ModeText))
	ctx = WithLogger(ctx, testutil.NewTestLogger(t))
	cmd.SetContext(ctx)

	return cmd, out, errOut
}

func validConfig() *config.Config {
	return &config.Config{
		Source: config.SourceConfig{
			Name: "dremio-test",
			Connection: dremio.Config{
				HostPort: "dremio.internal:32010",
				Username: "svc-metadata",
				Password: "secret",
				Timeout:  5 * time.Second,
			},
		},
		Sink: sink.Config{Type: "jsonl", Path: "-"},
		Run:  config.RunConfig{StatePath: ".dremiometa/state.db", LogLevel: "info"},
	}
}
