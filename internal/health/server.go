// Package health serves the read-only liveness and metrics endpoints.
// The listener is independent of the scan workers so a slow provider
// call never starves a health probe.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bft-labs/guardian/internal/metrics"
)

// Prober reports worker liveness. Implemented by the scheduler.
type Prober interface {
	Healthy(now time.Time) bool
	Heartbeats() map[string]time.Time
}

// Server is the health/metrics HTTP endpoint.
type Server struct {
	srv     *http.Server
	metrics *metrics.Metrics
	prober  Prober
	dryRun  func() bool
	logger  zerolog.Logger
}

// NewServer creates a health server listening on the given port. The
// dryRun func is read per request; the setting can change at runtime
// through the config watcher.
func NewServer(port int, m *metrics.Metrics, p Prober, dryRun func() bool, logger zerolog.Logger) *Server {
	s := &Server{
		metrics: m,
		prober:  p,
		dryRun:  dryRun,
		logger:  logger,
	}
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the chi mux with all routes wired.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Handle("/metrics/prometheus", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	return r
}

// Start runs the listener until Shutdown. Listen errors other than a
// clean close are logged; losing the health endpoint is not fatal to
// the lifecycle loops.
func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("health server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("health server stopped")
		}
	}()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status        string           `json:"status"` // "healthy" or "degraded"
	UptimeSeconds float64          `json:"uptime_seconds"`
	DryRun        bool             `json:"dry_run"`
	Metrics       metrics.Snapshot `json:"metrics"`
}

// handleHealth returns 200 when every worker heartbeat is fresh, 503
// otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()
	resp := HealthResponse{
		Status:        "healthy",
		UptimeSeconds: now.Sub(s.metrics.StartedAt()).Seconds(),
		DryRun:        s.dryRun(),
		Metrics:       s.snapshot(),
	}
	if !s.prober.Healthy(now) {
		resp.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status == "degraded" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// handleMetrics dumps the full metrics snapshot including heartbeats.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshot())
}

func (s *Server) snapshot() metrics.Snapshot {
	snap := s.metrics.Snapshot()
	snap.Heartbeats = s.prober.Heartbeats()
	return snap
}
