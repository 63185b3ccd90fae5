package task

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/vectorstore"
)

// Settings are the task inputs taken from configuration.
type Settings struct {
	Collection string
	Query      string
	Limit      int
	Dimensions int // expected vector size, 0 skips the check
}

// Deps are the collaborators the handlers run against.
type Deps struct {
	Store VectorStore
	State StateStore
	// Embedder vectorizes notes. QueryEmbedder vectorizes the search query and
	// falls back to Embedder when nil.
	Embedder      domain.Embedder
	QueryEmbedder domain.Embedder
	Logger        *zap.Logger
}

// Handler runs one task and reports to out.
type Handler func(ctx context.Context, out *Output) error

type handlers struct {
	settings Settings
	deps     Deps
}

func (h *handlers) defineSchema(ctx context.Context, out *Output) error {
	schema := domain.CollectionSchema{
		TextProperty: domain.TextProperty,
		Dimensions:   h.settings.Dimensions,
	}
	created, err := h.deps.Store.EnsureCollection(ctx, h.settings.Collection, schema)
	if err != nil {
		return err
	}
	if created {
		out.Printf("Created collection %s", h.settings.Collection)
	} else {
		out.Printf("Collection %s already exists", h.settings.Collection)
	}
	return nil
}

func (h *handlers) insertVectors(ctx context.Context, out *Output) error {
	// Fail on an unreachable store before spending an embedding call.
	if err := h.deps.Store.Reachable(ctx); err != nil {
		return err
	}

	texts := domain.SampleNotes()
	res, err := domain.EmbedAll(ctx, h.deps.Embedder, texts)
	if err != nil {
		return fmt.Errorf("embed notes: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return fmt.Errorf("expected %d embeddings, got %d: %w",
			len(texts), len(res.Embeddings), domain.ErrEmbeddingProviderError)
	}

	records := make([]domain.Record, len(texts))
	for i, text := range texts {
		if err := h.checkDimensions(res.Embeddings[i]); err != nil {
			return err
		}
		records[i] = domain.Record{Text: text, Vector: res.Embeddings[i]}
	}

	n, err := h.deps.Store.Insert(ctx, h.settings.Collection, records)
	if err != nil {
		return err
	}
	h.deps.Logger.Debug("Inserted notes",
		zap.String("collection", h.settings.Collection),
		zap.Int("count", n),
		zap.Int("total_tokens", res.TotalTokens),
	)
	out.Printf("Inserted %d notes", n)
	return nil
}

func (h *handlers) embedQuery(ctx context.Context, out *Output) error {
	if h.settings.Query == "" {
		return fmt.Errorf("%w: query input (set INPUT_QUERY or query.input)", domain.ErrMissingInput)
	}

	embedder := h.deps.QueryEmbedder
	if embedder == nil {
		embedder = h.deps.Embedder
	}
	res, err := embedder.Embed(ctx, h.settings.Query)
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}
	if err := h.checkDimensions(res.Embedding); err != nil {
		return err
	}

	if err := h.deps.State.WriteQuery(domain.QueryArtifact{
		Query:  h.settings.Query,
		Vector: res.Embedding,
	}); err != nil {
		return err
	}
	out.Printf("Embedded query %q (%d dimensions)", h.settings.Query, len(res.Embedding))
	return nil
}

func (h *handlers) querySimilarity(ctx context.Context, out *Output) error {
	q, err := h.deps.State.ReadQuery()
	if err != nil {
		return err
	}

	hits, err := h.deps.Store.NearestNeighbors(ctx, h.settings.Collection, vectorstore.NearQuery{
		Vector:       q.Vector,
		Limit:        h.settings.Limit,
		ReturnFields: []string{domain.TextProperty},
	})
	if err != nil {
		return err
	}

	if err := h.deps.State.WriteResults(hits); err != nil {
		return err
	}
	out.Printf("Found %d results for %q", len(hits), q.Query)
	return nil
}

func (h *handlers) emitResults(_ context.Context, out *Output) error {
	hits, err := h.deps.State.ReadResults()
	if err != nil {
		return err
	}
	for _, hit := range hits {
		out.Printf("%s: %s", formatMetric(hit.Distance), formatText(hit.Text))
	}
	return nil
}

func (h *handlers) checkDimensions(vec []float32) error {
	if h.settings.Dimensions > 0 && len(vec) != h.settings.Dimensions {
		return fmt.Errorf("got %d dimensions, collection expects %d: %w",
			len(vec), h.settings.Dimensions, domain.ErrDimensionMismatch)
	}
	return nil
}

func formatMetric(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

func formatText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
