// Package chi exposes health, metrics, telemetry and pipeline state over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/domain"
	logpkg "github.com/kailas-cloud/vectro/internal/logger"
	"github.com/kailas-cloud/vectro/internal/metrics"
	"github.com/kailas-cloud/vectro/internal/state"
	healthuc "github.com/kailas-cloud/vectro/internal/usecase/health"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthChecker produces a health report.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// TelemetryReader lists archived task results.
type TelemetryReader interface {
	Entries() ([]domain.TaskResult, error)
}

// StateReader exposes the artifact slots.
type StateReader interface {
	Phase() (state.Phase, error)
	ReadQuery() (domain.QueryArtifact, error)
	ReadResults() (domain.ResultArtifact, error)
}

// StateResponse summarizes the artifact slots. The query vector is reduced
// to its length.
type StateResponse struct {
	Phase      string                `json:"phase"`
	Query      *string               `json:"query,omitempty"`
	Dimensions int                   `json:"dimensions,omitempty"`
	Results    domain.ResultArtifact `json:"results,omitempty"`
}

// Server serves the read-only HTTP surface.
type Server struct {
	health    HealthChecker
	telemetry TelemetryReader
	state     StateReader
	logger    *zap.Logger
}

// NewServer creates a Server.
func NewServer(health HealthChecker, telemetry TelemetryReader, st StateReader, logger *zap.Logger) *Server {
	return &Server{health: health, telemetry: telemetry, state: st, logger: logger}
}

// Router builds the chi router with the middleware chain.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/telemetry", s.Telemetry)
	r.Get("/telemetry/{task}", s.Telemetry)
	r.Get("/state", s.State)
	return r
}

// Health reports component health; anything but ok is a 503.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Telemetry lists archived task results, oldest first. Optional ?last=N keeps
// the most recent N; the {task} path segment filters by task name or alias.
func (s *Server) Telemetry(w http.ResponseWriter, r *http.Request) {
	last := 0
	if v := r.URL.Query().Get("last"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "last must be a non-negative integer")
			return
		}
		last = n
	}

	entries, err := s.telemetry.Entries()
	if err != nil {
		s.internalError(w, r, "read telemetry", err)
		return
	}

	if name := chi.URLParam(r, "task"); name != "" {
		kind, err := domain.ParseTaskKind(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		filtered := entries[:0:0]
		for _, e := range entries {
			if e.Task == kind.String() {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if last > 0 && last < len(entries) {
		entries = entries[len(entries)-last:]
	}
	if entries == nil {
		entries = []domain.TaskResult{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// State reports the pipeline phase and the contents of the filled slots.
func (s *Server) State(w http.ResponseWriter, r *http.Request) {
	phase, err := s.state.Phase()
	if err != nil {
		s.internalError(w, r, "read state", err)
		return
	}

	resp := StateResponse{Phase: phase.String()}
	if phase >= state.PhaseQueryReady {
		q, err := s.state.ReadQuery()
		if err != nil {
			s.internalError(w, r, "read query artifact", err)
			return
		}
		resp.Query = domain.String(q.Query)
		resp.Dimensions = len(q.Vector)
	}
	if phase == state.PhaseResultsReady {
		hits, err := s.state.ReadResults()
		if err != nil {
			s.internalError(w, r, "read result artifact", err)
			return
		}
		resp.Results = hits
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logpkg.FromContext(r.Context(), s.logger).Error("Request failed",
		zap.String("path", r.URL.Path),
		zap.String("op", msg),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
