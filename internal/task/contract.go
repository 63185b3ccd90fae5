package task

import (
	"context"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/vectorstore"
)

// VectorStore is the store surface the handlers use.
type VectorStore interface {
	Reachable(ctx context.Context) error
	EnsureCollection(ctx context.Context, name string, schema domain.CollectionSchema) (bool, error)
	Insert(ctx context.Context, name string, records []domain.Record) (int, error)
	NearestNeighbors(ctx context.Context, name string, q vectorstore.NearQuery) (domain.ResultArtifact, error)
}

// StateStore holds the query and result slots shared between tasks.
type StateStore interface {
	WriteQuery(q domain.QueryArtifact) error
	ReadQuery() (domain.QueryArtifact, error)
	WriteResults(r domain.ResultArtifact) error
	ReadResults() (domain.ResultArtifact, error)
}

// TelemetryLog archives task outcomes.
type TelemetryLog interface {
	Append(task, summary string) (domain.TaskResult, error)
}
