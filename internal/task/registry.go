// Package task maps the closed set of pipeline tasks to their handlers and
// archives every execution.
package task

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/metrics"
)

// Registry dispatches task kinds to handlers.
type Registry struct {
	handlers  map[domain.TaskKind]Handler
	telemetry TelemetryLog
	out       io.Writer
	logger    *zap.Logger
}

// NewRegistry builds the dispatch table. Task output is echoed to out.
func NewRegistry(settings Settings, deps Deps, telemetry TelemetryLog, out io.Writer) *Registry {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &handlers{settings: settings, deps: deps}
	return &Registry{
		handlers: map[domain.TaskKind]Handler{
			domain.TaskDefineSchema:    h.defineSchema,
			domain.TaskInsertVectors:   h.insertVectors,
			domain.TaskEmbedQuery:      h.embedQuery,
			domain.TaskQuerySimilarity: h.querySimilarity,
			domain.TaskEmitResults:     h.emitResults,
		},
		telemetry: telemetry,
		out:       out,
		logger:    deps.Logger,
	}
}

// Dispatch resolves name and runs the task.
func (r *Registry) Dispatch(ctx context.Context, name string) error {
	kind, err := domain.ParseTaskKind(name)
	if err != nil {
		return err
	}
	return r.Run(ctx, kind)
}

// Run executes one task. Whatever the handler reported is echoed and
// archived even when it fails.
func (r *Registry) Run(ctx context.Context, kind domain.TaskKind) error {
	h, ok := r.handlers[kind]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTask, kind)
	}

	var out Output
	start := time.Now()
	runErr := h(ctx, &out)
	duration := time.Since(start)

	status := "success"
	if runErr != nil {
		status = "error"
	}
	metrics.TaskRunsTotal.WithLabelValues(kind.String(), status).Inc()
	metrics.TaskDuration.WithLabelValues(kind.String()).Observe(duration.Seconds())

	text := out.String()
	if text != "" {
		if _, err := io.WriteString(r.out, text); err != nil {
			r.logger.Warn("Failed to echo task output", zap.String("task", kind.String()), zap.Error(err))
		}
	}

	if _, err := r.telemetry.Append(kind.String(), text); err != nil {
		if runErr == nil {
			return fmt.Errorf("archive %s: %w", kind, err)
		}
		r.logger.Error("Failed to archive failed task", zap.String("task", kind.String()), zap.Error(err))
	}

	if runErr != nil {
		r.logger.Debug("Task failed",
			zap.String("task", kind.String()),
			zap.Duration("duration", duration),
			zap.Error(runErr),
		)
		return fmt.Errorf("%s: %w", kind, runErr)
	}

	r.logger.Debug("Task completed",
		zap.String("task", kind.String()),
		zap.Duration("duration", duration),
	)
	return nil
}
