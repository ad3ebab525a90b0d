package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"matchreel/internal/config"
	"matchreel/internal/history"
	"matchreel/internal/logging"
	"matchreel/internal/metrics"
)

const (
	defaultRunsLimit = 50
	maxRunsLimit     = 1000
)

type errorReply struct {
	Error string `json:"error"`
}

// RunsReply is the /api/runs payload.
type RunsReply struct {
	Runs []history.Entry `json:"runs"`
}

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	return &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}
}

func (s *apiServer) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", metrics.Handler())
	router.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(s.token))
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/status", s.handleStatus)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{id}", s.handleRun)
	})
	return router
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.token != ""),
	)
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		s.server = nil
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxRunsLimit)
	}
	if s.daemon.runs == nil {
		render.JSON(w, r, RunsReply{Runs: []history.Entry{}})
		return
	}
	runs, err := s.daemon.runs.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", logging.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "history unavailable")
		return
	}
	if runs == nil {
		runs = []history.Entry{}
	}
	render.JSON(w, r, RunsReply{Runs: runs})
}

func (s *apiServer) handleRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.daemon.runs == nil {
		s.writeError(w, r, http.StatusNotFound, "run not found")
		return
	}
	entry, err := s.daemon.runs.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("get run failed", logging.Error(err), logging.String("id", id))
		s.writeError(w, r, http.StatusInternalServerError, "history unavailable")
		return
	}
	if entry == nil {
		s.writeError(w, r, http.StatusNotFound, "run not found")
		return
	}
	render.JSON(w, r, entry)
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorReply{Error: message})
}
