package domain

import (
	"fmt"
	"strings"
)

// TaskKind enumerates the closed set of pipeline tasks.
type TaskKind int

const (
	// TaskDefineSchema creates the notes collection if absent.
	TaskDefineSchema TaskKind = iota + 1
	// TaskInsertVectors embeds the fixed notes and inserts them.
	TaskInsertVectors
	// TaskEmbedQuery embeds the configured query and stores it in the query slot.
	TaskEmbedQuery
	// TaskQuerySimilarity runs a nearest-neighbor query for the stored query vector.
	TaskQuerySimilarity
	// TaskEmitResults prints the stored result set.
	TaskEmitResults
)

var taskNames = map[TaskKind]string{
	TaskDefineSchema:    "define_schema",
	TaskInsertVectors:   "insert_vectors",
	TaskEmbedQuery:      "embed_query",
	TaskQuerySimilarity: "query_similarity",
	TaskEmitResults:     "emit_results",
}

var taskAliases = map[string]TaskKind{
	"schema": TaskDefineSchema,
	"insert": TaskInsertVectors,
	"embed":  TaskEmbedQuery,
	"query":  TaskQuerySimilarity,
	"emit":   TaskEmitResults,
}

// AllTasks returns every task kind in canonical pipeline order.
func AllTasks() []TaskKind {
	return []TaskKind{
		TaskDefineSchema,
		TaskInsertVectors,
		TaskEmbedQuery,
		TaskQuerySimilarity,
		TaskEmitResults,
	}
}

// String returns the canonical task name.
func (k TaskKind) String() string {
	if name, ok := taskNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TaskKind(%d)", int(k))
}

// ParseTaskKind resolves a canonical name or short alias to a task kind.
func ParseTaskKind(name string) (TaskKind, error) {
	n := strings.TrimSpace(name)
	for kind, canonical := range taskNames {
		if canonical == n {
			return kind, nil
		}
	}
	if kind, ok := taskAliases[n]; ok {
		return kind, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTask, name)
}
