package main

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/config"
	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/metrics"
	"github.com/kailas-cloud/vectro/internal/repository/embcache"
	"github.com/kailas-cloud/vectro/internal/transport/fastembed"
	openaiEmb "github.com/kailas-cloud/vectro/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/vectro/internal/usecase/embedding"
	"github.com/kailas-cloud/vectro/internal/vectorstore"
)

// embedderSet builds the embedder chain on first use, so tasks that never
// embed do not load a model or open a cache connection.
type embedderSet struct {
	cfg    config.Config
	driver vectorstore.Driver
	logger *zap.Logger

	once    sync.Once
	chain   domain.Embedder
	err     error
	closers []func()

	doc *lazyEmbedder
	qry *lazyEmbedder
}

func newEmbedderSet(cfg config.Config, driver vectorstore.Driver, logger *zap.Logger) *embedderSet {
	s := &embedderSet{cfg: cfg, driver: driver, logger: logger}
	s.doc = &lazyEmbedder{build: s.build}
	s.qry = &lazyEmbedder{build: func() (domain.Embedder, error) {
		e, err := s.build()
		if err != nil {
			return nil, err
		}
		// Instruction prefix (outermost, so the cache key includes it)
		if instr := s.cfg.Embedding.QueryInstruction; instr != "" {
			return domain.NewInstructionEmbedder(e, instr), nil
		}
		return e, nil
	}}
	return s
}

func (s *embedderSet) document() *lazyEmbedder { return s.doc }
func (s *embedderSet) query() *lazyEmbedder    { return s.qry }

// build assembles the decorator chain: provider -> cached -> instrumented.
func (s *embedderSet) build() (domain.Embedder, error) {
	s.once.Do(func() {
		s.chain, s.err = s.assemble()
	})
	return s.chain, s.err
}

func (s *embedderSet) assemble() (domain.Embedder, error) {
	ec := s.cfg.Embedding

	var base domain.Embedder
	switch ec.Provider {
	case config.ProviderOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     s.logger,
		})
	case config.ProviderFastEmbed:
		fe, err := fastembed.New(fastembed.Config{Model: ec.Model, CacheDir: ec.CacheDir}, s.logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		s.closers = append(s.closers, func() { _ = fe.Close() })
		base = fe
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", ec.Provider)
	}

	embedder := base
	if ec.Cache {
		embedder = s.withCache(base)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, ec.Dimensions, s.logger), nil
}

// withCache puts the Valkey-backed cache in front of base. Only the valkey
// driver has a server to cache in; elsewhere, or when the server cannot be
// opened, base is returned unchanged.
func (s *embedderSet) withCache(base domain.Embedder) domain.Embedder {
	vd, ok := s.driver.(*vectorstore.ValkeyDriver)
	if !ok {
		s.logger.Warn("Embedding cache needs the valkey store driver, continuing without it",
			zap.String("driver", s.driver.Name()))
		return base
	}
	store, err := vd.Open()
	if err != nil {
		s.logger.Warn("Embedding cache unavailable", zap.Error(err))
		return base
	}
	s.closers = append(s.closers, store.Close)
	return embcache.New(base, store, s.cfg.Embedding.Model, metrics.EmbeddingCacheTotal, s.logger)
}

// Close releases the provider and cache clients if they were built.
func (s *embedderSet) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// lazyEmbedder defers building its target until the first call.
type lazyEmbedder struct {
	build func() (domain.Embedder, error)
}

var (
	_ domain.BatchEmbedder = (*lazyEmbedder)(nil)
	_ domain.HealthChecker = (*lazyEmbedder)(nil)
)

func (l *lazyEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	e, err := l.build()
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return e.Embed(ctx, text)
}

func (l *lazyEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e, err := l.build()
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return domain.EmbedAll(ctx, e, texts)
}

func (l *lazyEmbedder) HealthCheck(ctx context.Context) error {
	e, err := l.build()
	if err != nil {
		return err
	}
	if hc, ok := e.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
