package health

import (
	"context"

	"go.uber.org/zap"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report keys.
const (
	ComponentVectorStore = "vector_store"
	ComponentEmbedding   = "embedding"
)

// Report aggregates health check results. Errors holds the failure message
// for every component whose check failed.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
	Errors map[string]string      `json:"errors,omitempty"`
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
	logger    *zap.Logger
}

// New creates a Service. embedding can be nil.
func New(store StorePinger, embedding EmbeddingChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, embedding: embedding, logger: logger}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Checks: make(map[string]CheckResult), Errors: make(map[string]string)}

	s.record(&r, ComponentVectorStore, s.store.Ping(ctx))
	if s.embedding != nil {
		s.record(&r, ComponentEmbedding, s.embedding.HealthCheck(ctx))
	}

	failed := len(r.Errors)
	switch {
	case failed == 0:
		r.Status = Healthy
	case failed == len(r.Checks):
		r.Status = Unhealthy
	default:
		r.Status = Degraded
	}
	return r
}

func (s *Service) record(r *Report, component string, err error) {
	if err != nil {
		s.logger.Warn("Health check failed", zap.String("component", component), zap.Error(err))
		r.Checks[component] = CheckError
		r.Errors[component] = err.Error()
		return
	}
	r.Checks[component] = CheckOK
}
