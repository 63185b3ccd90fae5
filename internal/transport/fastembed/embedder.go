//go:build cgo

package fastembed

import (
	"context"
	"fmt"
	"sync"
	"time"

	fastembed "github.com/anush008/fastembed-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/metrics"
)

const provider = "fastembed"

// Embedder runs a local ONNX model. The model is not safe for concurrent
// inference, so calls are serialized.
type Embedder struct {
	mu        sync.Mutex
	model     *fastembed.FlagEmbedding
	name      string
	batchSize int
	logger    *zap.Logger
}

// New loads (downloading on first use) the configured model into CacheDir.
func New(cfg Config, logger *zap.Logger) (*Embedder, error) {
	info, err := resolveModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 256
	}
	showProgress := false

	model, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                fastembed.EmbeddingModel(info.id),
		CacheDir:             cfg.CacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("init fastembed model %s: %w", cfg.Model, err)
	}

	logger.Debug("Loaded local embedding model",
		zap.String("model", cfg.Model),
		zap.String("cache_dir", cfg.CacheDir),
		zap.Int("dimensions", info.dimensions),
	)
	return &Embedder{model: model, name: cfg.Model, batchSize: batchSize, logger: logger}, nil
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0]}, nil
}

// BatchEmbed implements domain.BatchEmbedder. Local models report no token usage.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	e.mu.Lock()
	start := time.Now()
	vectors, err := e.model.Embed(texts, e.batchSize)
	duration := time.Since(start)
	e.mu.Unlock()

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.name, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.name, "inference").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("fastembed inference: %v: %w", err, domain.ErrEmbeddingProviderError)
	}
	if len(vectors) != len(texts) {
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.name, "count_mismatch").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("expected %d embeddings, got %d: %w",
			len(texts), len(vectors), domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.name, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.name).Observe(duration.Seconds())
	return domain.BatchEmbeddingResult{Embeddings: vectors}, nil
}

// HealthCheck reports whether the model is loaded.
func (e *Embedder) HealthCheck(_ context.Context) error {
	if e.model == nil {
		return fmt.Errorf("fastembed model not loaded")
	}
	return nil
}

// Close releases the ONNX session.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return nil
	}
	err := e.model.Destroy()
	e.model = nil
	return err
}
