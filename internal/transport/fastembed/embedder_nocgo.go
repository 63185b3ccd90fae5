//go:build !cgo

package fastembed

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/domain"
)

// Embedder is a stub for builds without cgo.
type Embedder struct{}

// New validates the model name and reports ErrUnavailable.
func New(cfg Config, _ *zap.Logger) (*Embedder, error) {
	if _, err := resolveModel(cfg.Model); err != nil {
		return nil, err
	}
	return nil, ErrUnavailable
}

// Embed returns ErrUnavailable.
func (e *Embedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, ErrUnavailable
}

// BatchEmbed returns ErrUnavailable.
func (e *Embedder) BatchEmbed(context.Context, []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchEmbeddingResult{}, ErrUnavailable
}

// HealthCheck returns ErrUnavailable.
func (e *Embedder) HealthCheck(context.Context) error { return ErrUnavailable }

// Close is a no-op.
func (e *Embedder) Close() error { return nil }
