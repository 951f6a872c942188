// Package ingest orchestrates one metadata harvest: connect, walk, profile,
// extract lineage, harvest procedures, summarize. Stages run strictly in
// sequence on a single source connection.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/metalake-labs/dremiometa/internal/cli/config"
	"github.com/metalake-labs/dremiometa/internal/cli/output"
	"github.com/metalake-labs/dremiometa/internal/dremio"
	"github.com/metalake-labs/dremiometa/internal/lineage"
	"github.com/metalake-labs/dremiometa/internal/profile"
	"github.com/metalake-labs/dremiometa/internal/sink"
	"github.com/metalake-labs/dremiometa/internal/state"
	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// connectFunc opens the source connection. Tests substitute one backed by a
// mock database.
type connectFunc func(ctx context.Context, cfg dremio.Config, logger *slog.Logger) (*dremio.Conn, error)

// newSinkFunc builds the sink. Tests substitute an in-memory recorder.
type newSinkFunc func(cfg sink.Config, logger *slog.Logger) (sink.Sink, error)

// Runner executes one run of a workflow.
type Runner struct {
	cfg      *config.Config
	workflow string
	logger   *slog.Logger
	renderer *output.Renderer
	store    state.Store

	connect connectFunc
	newSink newSinkFunc

	// jsonEvents, when set, receives the JSON-lines progress stream.
	jsonEvents io.Writer
	dryRun     bool
}

// NewRunner wires a runner. workflow is the workflow file path recorded in
// run history.
func NewRunner(cfg *config.Config, workflow string, logger *slog.Logger, renderer *output.Renderer, store state.Store) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		cfg:      cfg,
		workflow: workflow,
		logger:   logger,
		renderer: renderer,
		store:    store,
		connect:  dremio.Connect,
		newSink:  sink.New,
	}
}

// SetJSONEvents switches progress reporting to JSON lines on w.
func (r *Runner) SetJSONEvents(w io.Writer) {
	r.jsonEvents = w
}

// SetDryRun limits the run to validate + connect + enumerate; nothing is
// written to the sink.
func (r *Runner) SetDryRun(dry bool) {
	r.dryRun = dry
}

// SetConnectFunc replaces the connection opener, for tests.
func (r *Runner) SetConnectFunc(fn connectFunc) {
	r.connect = fn
}

// SetSinkFunc replaces the sink factory, for tests.
func (r *Runner) SetSinkFunc(fn newSinkFunc) {
	r.newSink = fn
}

// Run executes the pipeline. Only configuration, connection, and sink-open
// failures are fatal; everything else degrades to warnings in the summary.
func (r *Runner) Run(ctx context.Context) error {
	summary := meta.RunSummary{
		Service:   r.cfg.Source.Name,
		StartedAt: time.Now().UTC(),
	}

	run, err := r.store.CreateRun(r.workflow)
	if err != nil {
		return err
	}
	events := &eventWriter{out: r.jsonEvents, runID: run.ID}
	events.emit("run_started", "", r.cfg.Source.Name, 0)

	err = r.run(ctx, events, &summary)
	summary.FinishedAt = time.Now().UTC()

	status := state.RunStatusCompleted
	errMsg := ""
	switch {
	case errors.Is(err, context.Canceled):
		status = state.RunStatusCancelled
		errMsg = err.Error()
	case err != nil:
		status = state.RunStatusFailed
		errMsg = err.Error()
	}

	stats, marshalErr := json.Marshal(summary)
	if marshalErr != nil {
		stats = []byte("{}")
	}
	if storeErr := r.store.CompleteRun(run.ID, status, errMsg, string(stats)); storeErr != nil {
		r.logger.Warn("persisting run result failed", slog.Any("error", storeErr))
	}
	if storeErr := r.store.SaveWarnings(run.ID, summary.Warnings); storeErr != nil {
		r.logger.Warn("persisting warnings failed", slog.Any("error", storeErr))
	}

	events.emit("run_finished", "", string(status), len(summary.Warnings))
	if err != nil {
		return err
	}
	r.renderSummary(summary)
	return nil
}

func (r *Runner) run(ctx context.Context, events *eventWriter, summary *meta.RunSummary) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}
	filters, err := r.cfg.Filters()
	if err != nil {
		return err
	}

	var out sink.Sink
	if r.dryRun {
		out = discardSink{}
	} else {
		out, err = r.newSink(r.cfg.Sink, r.logger)
		if err != nil {
			return err
		}
	}
	if err := out.Open(ctx); err != nil {
		return fmt.Errorf("opening sink: %w", err)
	}
	defer func() { _ = out.Close() }()

	events.emit("stage_started", "connect", r.cfg.Source.Connection.HostPort, 0)
	conn, err := r.connect(ctx, r.cfg.Source.Connection, r.logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	events.emit("stage_finished", "connect", "", 0)

	tables, err := r.walk(ctx, conn, filters, out, events, summary)
	if err != nil {
		return err
	}

	if r.cfg.Profiler.Enabled && !r.dryRun {
		if err := r.profileTables(ctx, conn, tables, out, events, summary); err != nil {
			return err
		}
	}

	if r.cfg.Lineage.Enabled && !r.dryRun {
		if err := r.extractLineage(ctx, conn, tables, out, events, summary); err != nil {
			return err
		}
	}

	if r.cfg.Procedures.Enabled && !r.dryRun {
		if err := r.harvestProcedures(ctx, conn, out, events, summary); err != nil {
			return err
		}
	}

	if !r.dryRun {
		if err := out.Write(ctx, *summary); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}
	return ctx.Err()
}

// walk streams the catalog to the sink and keeps the table set for the
// later stages.
func (r *Runner) walk(ctx context.Context, conn *dremio.Conn, filters dremio.Filters, out sink.Sink, events *eventWriter, summary *meta.RunSummary) ([]meta.Table, error) {
	events.emit("stage_started", "walk", "", 0)

	walker := dremio.NewWalker(conn, r.cfg.Source.Name, filters, r.logger)
	it, err := walker.Walk(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = it.Close() }()

	var tables []meta.Table
	for it.Next() {
		rec := it.Record()
		if err := out.Write(ctx, rec); err != nil {
			return nil, fmt.Errorf("writing to sink: %w", err)
		}
		switch entity := rec.(type) {
		case meta.Database:
			summary.Databases++
			events.emit("entity", "walk", entity.Name, summary.Databases)
		case meta.Schema:
			summary.Schemas++
		case meta.Table:
			tables = append(tables, entity)
			summary.Columns += len(entity.Columns)
			if entity.Kind == meta.KindView {
				summary.Views++
			} else {
				summary.Tables++
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	summary.Warnings = append(summary.Warnings, it.Warnings()...)
	summary.Filtered = it.Filtered()
	events.emit("stage_finished", "walk", "", len(tables))
	return tables, nil
}

func (r *Runner) profileTables(ctx context.Context, conn *dremio.Conn, tables []meta.Table, out sink.Sink, events *eventWriter, summary *meta.RunSummary) error {
	events.emit("stage_started", "profile", "", 0)
	profiler := profile.NewProfiler(conn, r.cfg.Profiler.SampleSize, r.logger)

	for _, t := range tables {
		if t.Kind != meta.KindTable {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := profiler.ProfileTable(ctx, t)
		if err != nil {
			summary.Warnings = append(summary.Warnings, meta.Warning{
				Component:  "profiler",
				Subject:    t.Ref.FQN(),
				Message:    err.Error(),
				OccurredAt: time.Now().UTC(),
			})
			continue
		}
		if err := out.Write(ctx, *p); err != nil {
			return fmt.Errorf("writing to sink: %w", err)
		}
		summary.Profiles++
	}
	events.emit("stage_finished", "profile", "", summary.Profiles)
	return nil
}

func (r *Runner) extractLineage(ctx context.Context, conn *dremio.Conn, tables []meta.Table, out sink.Sink, events *eventWriter, summary *meta.RunSummary) error {
	events.emit("stage_started", "lineage", "", 0)
	extractor := lineage.NewExtractor(tables, r.logger)

	if r.cfg.Lineage.ViewDefinitions {
		extractor.AddViewDefinitions(tables, time.Now().UTC())
	}

	if r.cfg.Lineage.QueryHistory.Enabled {
		entries, err := dremio.FetchQueryHistory(ctx, conn,
			r.cfg.Lineage.QueryHistory.Query, r.cfg.Lineage.QueryHistory.Limit)
		if err != nil {
			summary.Warnings = append(summary.Warnings, meta.Warning{
				Component:  "lineage",
				Subject:    "query history",
				Message:    err.Error(),
				OccurredAt: time.Now().UTC(),
			})
		}
		for _, entry := range entries {
			extractor.AddQuery(entry.SQL, entry.SubmittedAt)
		}
	}

	for _, edge := range extractor.Edges() {
		if err := out.Write(ctx, edge); err != nil {
			return fmt.Errorf("writing to sink: %w", err)
		}
		summary.Edges++
	}
	summary.EdgesSkipped = extractor.Skipped()

	// Views defined on each other produce a cyclic dependency graph; the
	// source would reject such definitions, so a cycle here means the edge
	// set is lying to downstream consumers.
	graph := extractor.Graph()
	r.logger.Debug("lineage graph",
		slog.Int("nodes", graph.NodeCount()), slog.Int("edges", graph.EdgeCount()))
	if cycle := graph.Cycle(); cycle != nil {
		summary.Warnings = append(summary.Warnings, meta.Warning{
			Component:  "lineage",
			Subject:    "dependency graph",
			Message:    "dependency cycle: " + strings.Join(cycle, " -> "),
			OccurredAt: time.Now().UTC(),
		})
	}
	events.emit("stage_finished", "lineage", "", summary.Edges)
	return nil
}

func (r *Runner) harvestProcedures(ctx context.Context, conn *dremio.Conn, out sink.Sink, events *eventWriter, summary *meta.RunSummary) error {
	events.emit("stage_started", "procedures", "", 0)

	procs, err := dremio.HarvestProcedures(ctx, conn, r.cfg.Procedures.Query)
	if err != nil {
		summary.Warnings = append(summary.Warnings, meta.Warning{
			Component:  "procedures",
			Subject:    "system catalog",
			Message:    err.Error(),
			OccurredAt: time.Now().UTC(),
		})
		return nil
	}
	for _, p := range procs {
		if err := out.Write(ctx, p); err != nil {
			return fmt.Errorf("writing to sink: %w", err)
		}
		summary.Procedures++
	}
	events.emit("stage_finished", "procedures", "", summary.Procedures)
	return nil
}

func (r *Runner) renderSummary(summary meta.RunSummary) {
	if r.renderer == nil || r.jsonEvents != nil {
		return
	}
	if r.renderer.EffectiveMode() == output.ModeJSON {
		_ = r.renderer.JSON(summary)
		return
	}

	r.renderer.Header(1, fmt.Sprintf("Run summary (%s)", summary.Service))
	t := r.renderer.NewTable("ENTITY", "COUNT")
	t.AppendRow([]any{"databases", summary.Databases})
	t.AppendRow([]any{"schemas", summary.Schemas})
	t.AppendRow([]any{"tables", summary.Tables})
	t.AppendRow([]any{"views", summary.Views})
	t.AppendRow([]any{"columns", summary.Columns})
	t.AppendRow([]any{"profiles", summary.Profiles})
	t.AppendRow([]any{"lineage edges", summary.Edges})
	t.AppendRow([]any{"edges skipped", summary.EdgesSkipped})
	t.AppendRow([]any{"procedures", summary.Procedures})
	t.AppendRow([]any{"filtered out", summary.Filtered})
	r.renderer.RenderTable(t)

	if len(summary.Warnings) > 0 {
		r.renderer.Warning(fmt.Sprintf("%d warnings:", len(summary.Warnings)))
		for _, w := range summary.Warnings {
			r.renderer.Warning(fmt.Sprintf("  [%s] %s: %s", w.Component, w.Subject, w.Message))
		}
	}
	r.renderer.Printf("took %s\n", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
}

// discardSink backs --dry-run.
type discardSink struct{}

func (discardSink) Open(context.Context) error               { return nil }
func (discardSink) Write(context.Context, meta.Record) error { return nil }
func (discardSink) Close() error                             { return nil }
