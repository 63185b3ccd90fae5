// Package telemetry keeps the audit history of task executions as a single
// JSON array on disk.
package telemetry

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/fsutil"
)

// Log is an append-only task history. Every Append reads the whole array,
// appends one entry and rewrites the file.
type Log struct {
	path   string
	now    func() time.Time
	logger *zap.Logger
}

// New creates a telemetry log backed by path.
func New(path string, logger *zap.Logger) *Log {
	return &Log{path: path, now: time.Now, logger: logger}
}

// WithClock overrides the timestamp source.
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

// Path returns the backing file path.
func (l *Log) Path() string { return l.path }

// Append records one task execution. The summary is trimmed of surrounding whitespace.
func (l *Log) Append(task, summary string) (domain.TaskResult, error) {
	entries := l.load()

	entry := domain.NewTaskResult(task, l.now(), strings.TrimSpace(summary))
	entries = append(entries, entry)

	if err := fsutil.WriteJSON(l.path, entries); err != nil {
		return domain.TaskResult{}, fmt.Errorf("write telemetry: %w", err)
	}
	return entry, nil
}

// Entries returns the recorded history, oldest first.
func (l *Log) Entries() ([]domain.TaskResult, error) {
	var entries []domain.TaskResult
	if _, err := fsutil.ReadJSON(l.path, &entries); err != nil {
		return nil, fmt.Errorf("read telemetry: %w", err)
	}
	if entries == nil {
		entries = []domain.TaskResult{}
	}
	return entries, nil
}

// load returns the existing history. An unreadable or non-array file starts a fresh history.
func (l *Log) load() []domain.TaskResult {
	var entries []domain.TaskResult
	if _, err := fsutil.ReadJSON(l.path, &entries); err != nil {
		l.logger.Warn("Discarding unreadable telemetry log",
			zap.String("path", l.path),
			zap.Error(err),
		)
		return []domain.TaskResult{}
	}
	return entries
}
