package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dusk-indust/insightflow/internal/analysis"
	"github.com/dusk-indust/insightflow/internal/export"
	"github.com/dusk-indust/insightflow/internal/orchestrator"
	"github.com/dusk-indust/insightflow/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// Connectivity is the part of connectivity.Monitor the server drives.
type Connectivity interface {
	Probe(ctx context.Context) bool
	Reachable() bool
	Start(interval time.Duration)
	Stop()
}

// Bounds constrain the max_results accepted by POST /runs.
type Bounds struct {
	Min, Max, Default int
}

// Server is the control API in front of an Orchestrator.
type Server struct {
	orch         orchestrator.Orchestrator
	conn         Connectivity
	bounds       Bounds
	mcp          http.Handler
	pollInterval time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithBounds sets the accepted max_results range and its default.
func WithBounds(b Bounds) Option {
	return func(s *Server) { s.bounds = b }
}

// WithMCPHandler mounts h at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) { s.mcp = h }
}

// WithPollInterval sets how often the connectivity monitor probes while
// the server runs.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) { s.pollInterval = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server. conn may be nil.
func New(orch orchestrator.Orchestrator, conn Connectivity, opts ...Option) *Server {
	s := &Server{
		orch:         orch,
		conn:         conn,
		bounds:       Bounds{Min: 3, Max: 10, Default: orchestrator.DefaultMaxResults},
		pollInterval: 5 * time.Second,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /runs", s.handleStart)
	mux.HandleFunc("GET /runs/current", s.handleCurrent)
	mux.HandleFunc("GET /runs/current/export", s.handleExport)
	mux.HandleFunc("GET /runs/current/diagram", s.handleDiagram)
	mux.HandleFunc("POST /runs/reset", s.handleReset)
	mux.HandleFunc("GET /runs/events", s.handleEvents)
	mux.HandleFunc("GET /connectivity", s.handleConnectivity)
	mux.HandleFunc("GET /stages", s.handleStages)
	mux.Handle("GET /metrics", telemetry.Handler())
	if s.mcp != nil {
		mux.Handle("/mcp", s.mcp)
	}
	return mux
}

// ListenAndServe serves on addr and runs the connectivity poller until ctx
// is cancelled, then shuts both down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// Request contexts end with the server so event streams unblock
		// Shutdown.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	if s.conn != nil {
		s.conn.Start(s.pollInterval)
		defer s.conn.Stop()
	}

	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type startRequest struct {
	Query      string `json:"query"`
	MaxResults *int   `json:"max_results,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return
	}

	maxResults := s.bounds.Default
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}
	if maxResults < s.bounds.Min || maxResults > s.bounds.Max {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("max_results must be between %d and %d", s.bounds.Min, s.bounds.Max),
			analysis.KindInvalidParameter)
		return
	}

	x, err := s.orch.Start(r.Context(), req.Query, orchestrator.Params{MaxResults: maxResults})
	if err != nil {
		status := statusFor(err)
		writeError(w, status, err.Error(), analysis.Kind(err))
		return
	}

	s.logger.Info("run accepted", "run", x.ID)
	writeJSON(w, http.StatusAccepted, s.orch.Snapshot())
}

func statusFor(err error) int {
	var paramErr *analysis.InvalidParameterError
	switch {
	case errors.Is(err, orchestrator.ErrEmptyQuery), errors.As(err, &paramErr):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, orchestrator.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleCurrent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Snapshot())
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := export.WriteJSON(w, export.ExportRun(s.orch.Snapshot(), s.orch.Stages(), s.now())); err != nil {
		s.logger.Warn("export failed", "err", err)
	}
}

func (s *Server) handleDiagram(w http.ResponseWriter, _ *http.Request) {
	run := s.orch.Snapshot()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, export.Mermaid(s.orch.Stages(), &run))
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	if err := s.orch.Reset(); err != nil {
		writeError(w, statusFor(err), err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, s.orch.Snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, cancel := s.orch.Subscribe()
	defer cancel()

	sw := NewSSEWriter(w)
	sw.Init()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sw.WriteEvent(ev); err != nil {
				s.logger.Debug("event stream closed", "err", err)
				return
			}
		}
	}
}

type connectivityResponse struct {
	Reachable bool `json:"reachable"`
}

// handleConnectivity reports the last probe result, or probes now when the
// request carries ?probe=true.
func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	if s.conn == nil {
		writeJSON(w, http.StatusOK, connectivityResponse{Reachable: true})
		return
	}
	reachable := s.conn.Reachable()
	if r.URL.Query().Get("probe") == "true" {
		reachable = s.conn.Probe(r.Context())
	}
	writeJSON(w, http.StatusOK, connectivityResponse{Reachable: reachable})
}

type stageResponse struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	HoldMs int64  `json:"hold_ms"`
}

func (s *Server) handleStages(w http.ResponseWriter, _ *http.Request) {
	stages := s.orch.Stages()
	out := make([]stageResponse, len(stages))
	for i, st := range stages {
		out[i] = stageResponse{ID: st.ID, Label: st.Label, HoldMs: st.Hold.Milliseconds()}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}
