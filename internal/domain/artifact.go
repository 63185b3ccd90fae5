package domain

import "time"

// TimestampLayout is the ISO-8601 UTC layout used for telemetry entries.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// TaskResult is one archived task execution.
type TaskResult struct {
	Task      string `json:"task"`
	Timestamp string `json:"timestamp"`
	Summary   string `json:"summary"`
}

// NewTaskResult stamps a result with the UTC execution time.
func NewTaskResult(task string, at time.Time, summary string) TaskResult {
	return TaskResult{
		Task:      task,
		Timestamp: at.UTC().Format(TimestampLayout),
		Summary:   summary,
	}
}

// QueryArtifact is the embedded form of a pending search query.
type QueryArtifact struct {
	Query  string    `json:"query"`
	Vector []float32 `json:"vector"`
}

// Hit is a single ranked match. Nil metrics were not reported by the store.
type Hit struct {
	Distance  *float64 `json:"distance"`
	Certainty *float64 `json:"certainty"`
	Score     *float64 `json:"score"`
	Text      *string  `json:"text"`
}

// ResultArtifact is a result set ordered nearest first.
type ResultArtifact []Hit

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
