package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/metalake-labs/dremiometa/internal/state"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run history over a JSON API",
		Long: `Start a small HTTP server exposing the local run history:

  GET /healthz                  liveness probe
  GET /api/runs                 recent runs, newest first
  GET /api/runs/{id}            one run with its summary
  GET /api/runs/{id}/warnings   warnings recovered during a run`,
		Example: `  dremiometa serve --addr :8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()
	logger := GetLogger(ctx)

	store, err := openStateStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRunsAPI(store, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving run history", slog.String("addr", addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newRunsAPI builds the HTTP handler over one state store.
func newRunsAPI(store state.Store, logger *slog.Logger) http.Handler {
	api := &runsAPI{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", api.health)
	r.Route("/api/runs", func(r chi.Router) {
		r.Get("/", api.listRuns)
		r.Get("/{id}", api.getRun)
		r.Get("/{id}/warnings", api.getWarnings)
	})
	return r
}

type runsAPI struct {
	store  state.Store
	logger *slog.Logger
}

func (a *runsAPI) health(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *runsAPI) listRuns(w http.ResponseWriter, _ *http.Request) {
	runs, err := a.store.ListRuns(50)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []*state.Run{}
	}
	a.writeJSON(w, http.StatusOK, runs)
}

func (a *runsAPI) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := a.store.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, http.StatusNotFound, err)
		return
	}
	a.writeJSON(w, http.StatusOK, run)
}

func (a *runsAPI) getWarnings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := a.store.GetRun(id); err != nil {
		a.writeError(w, http.StatusNotFound, err)
		return
	}
	warnings, err := a.store.GetWarnings(id)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, warnings)
}

func (a *runsAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("writing response failed", slog.Any("error", err))
	}
}

func (a *runsAPI) writeError(w http.ResponseWriter, status int, err error) {
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}
