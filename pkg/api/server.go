package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/holdfast-io/holdfast/pkg/convergence"
	"github.com/holdfast-io/holdfast/pkg/gate"
	"github.com/holdfast-io/holdfast/pkg/log"
	"github.com/holdfast-io/holdfast/pkg/membership"
	"github.com/holdfast-io/holdfast/pkg/metrics"
	"github.com/holdfast-io/holdfast/pkg/override"
	"github.com/holdfast-io/holdfast/pkg/reconciler"
	"github.com/holdfast-io/holdfast/pkg/storage"
	"github.com/holdfast-io/holdfast/pkg/types"
)

// Config carries the identity and policy the server reports on
type Config struct {
	NodeID  string
	Version string
	Policy  types.QuorumPolicy
}

// Server exposes the node's readiness surface over HTTP
type Server struct {
	config   Config
	view     *membership.View
	override *override.Override // nil when no override is armed
	gate     *gate.Gate
	loop     *reconciler.Loop
	store    storage.Store // nil disables the audit endpoint
	logger   zerolog.Logger

	httpServer *http.Server
	nowFn      func() time.Time
}

// NewServer creates the HTTP API server. loop and store may be nil in
// tests; override may be nil when nothing is armed.
func NewServer(view *membership.View, ov *override.Override, g *gate.Gate, loop *reconciler.Loop, store storage.Store, config Config) *Server {
	return &Server{
		config:   config,
		view:     view,
		override: ov,
		gate:     g,
		loop:     loop,
		store:    store,
		logger:   log.WithComponent("api"),
		nowFn:    time.Now,
	}
}

// Router builds the route table. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/peers", s.handlePeers).Methods(http.MethodGet)
	v1.HandleFunc("/peers/updates", s.handlePeerUpdate).Methods(http.MethodPost)
	v1.HandleFunc("/audit", s.handleAudit).Methods(http.MethodGet)

	r.Use(s.instrument)
	return r
}

// Start begins serving and blocks until the listener fails or Stop is
// called
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("HTTP API listening")
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

// HealthResponse is the liveness check body
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// handleHealthz is a pure liveness check: 200 whenever the process can
// answer, regardless of convergence or the gate
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: s.nowFn(),
		Version:   s.config.Version,
	})
}

// ReadyResponse is the readiness check body
type ReadyResponse struct {
	Ready     bool                `json:"ready"`
	Reason    types.ServingReason `json:"reason"`
	ChangedAt time.Time           `json:"changed_at"`
}

// handleReadyz reflects the serving gate: 200 with the serving reason
// when open, 503 when closed. Load balancers and orchestrator readiness
// probes point here.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	signal := s.gate.Signal()
	status := http.StatusOK
	if !signal.Open {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ReadyResponse{
		Ready:     signal.Open,
		Reason:    signal.Reason,
		ChangedAt: signal.ChangedAt,
	})
}

// StatusResponse is the full operator-facing node status
type StatusResponse struct {
	NodeID    string                  `json:"node_id"`
	State     string                  `json:"state,omitempty"`
	Serving   bool                    `json:"serving"`
	Reason    types.ServingReason     `json:"reason"`
	ChangedAt time.Time               `json:"changed_at"`
	Verdict   types.Verdict           `json:"verdict"`
	Override  *types.OverrideDecision `json:"override,omitempty"`
	Peers     int                     `json:"peers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := s.nowFn()
	snap := s.view.Snapshot()
	signal := s.gate.Signal()

	resp := StatusResponse{
		NodeID:    s.config.NodeID,
		Serving:   signal.Open,
		Reason:    signal.Reason,
		ChangedAt: signal.ChangedAt,
		Verdict:   convergence.Evaluate(snap, s.config.Policy, now),
		Peers:     snap.Len(),
	}
	if s.loop != nil {
		resp.State = string(s.loop.State())
	}
	if s.override != nil {
		decision := s.override.Decision()
		resp.Override = &decision
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	snap := s.view.Snapshot()
	peers := make([]types.PeerInfo, 0, snap.Len())
	for _, p := range snap.Peers {
		peers = append(peers, p)
	}
	writeJSON(w, http.StatusOK, peers)
}

// UpdateResponse reports whether an ingested observation was applied
type UpdateResponse struct {
	Applied bool `json:"applied"`
}

// handlePeerUpdate ingests one membership observation. Stale or invalid
// updates are not an error: they answer 200 with applied=false, matching
// the view's discard semantics.
func (s *Server) handlePeerUpdate(w http.ResponseWriter, r *http.Request) {
	var update types.MembershipUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid update payload", http.StatusBadRequest)
		return
	}
	if update.ID == "" {
		http.Error(w, "peer id is required", http.StatusBadRequest)
		return
	}
	if update.Timestamp.IsZero() {
		update.Timestamp = s.nowFn()
	}

	applied := s.view.Ingest(update)
	s.logger.Debug().
		Str("peer_id", update.ID.String()).
		Str("state", string(update.State)).
		Uint64("incarnation", update.Incarnation).
		Bool("applied", applied).
		Msg("peer update received")

	writeJSON(w, http.StatusOK, UpdateResponse{Applied: applied})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "audit trail not enabled", http.StatusNotFound)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := s.store.ListAudit(limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list audit records")
		http.Error(w, "failed to list audit records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*types.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
