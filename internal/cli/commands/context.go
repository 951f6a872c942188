// Package commands implements the dremiometa subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/metalake-labs/dremiometa/internal/cli/config"
	"github.com/metalake-labs/dremiometa/internal/cli/output"
)

type configKey struct{}
type rendererKey struct{}
type loggerKey struct{}
type workflowKey struct{}

// WithConfig stores the loaded workflow config in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the workflow config from the context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{}
}

// WithRenderer stores the output renderer in the context.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// GetRenderer retrieves the output renderer from the context.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// WithWorkflowFile stores the workflow file path that config was loaded from.
func WithWorkflowFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, workflowKey{}, path)
}

// GetWorkflowFile retrieves the workflow file path, empty when running on
// defaults alone.
func GetWorkflowFile(ctx context.Context) string {
	if p, ok := ctx.Value(workflowKey{}).(string); ok {
		return p
	}
	return ""
}
