package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/probe"
)

var errNoEmbeddingFunc = errors.New("embedded store only accepts precomputed vectors")

// EmbeddedDriver keeps collections in a chromem-go database on local disk.
// It has no network endpoints, so the probe is skipped.
type EmbeddedDriver struct {
	path   string
	logger *zap.Logger
}

// NewEmbedded creates a driver persisting under path.
func NewEmbedded(path string, logger *zap.Logger) *EmbeddedDriver {
	return &EmbeddedDriver{path: path, logger: logger}
}

// Name implements Driver.
func (d *EmbeddedDriver) Name() string { return "embedded" }

// Endpoints implements Driver.
func (d *EmbeddedDriver) Endpoints() ([]probe.Endpoint, error) { return nil, nil }

// Connect loads the database from disk.
func (d *EmbeddedDriver) Connect(_ context.Context) (Conn, error) {
	database, err := chromem.NewPersistentDB(d.path, false)
	if err != nil {
		return nil, fmt.Errorf("open embedded store %s: %w", d.path, err)
	}
	d.logger.Debug("Opened embedded store",
		zap.String("path", d.path),
		zap.Int("collections", len(database.ListCollections())),
	)
	return &embeddedConn{db: database}, nil
}

type embeddedConn struct {
	db *chromem.DB
}

// rejectEmbedding keeps chromem from falling back to its default remote embedder.
func rejectEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

func (c *embeddedConn) EnsureCollection(_ context.Context, name string, schema domain.CollectionSchema) (bool, error) {
	if c.db.GetCollection(name, rejectEmbedding) != nil {
		return false, nil
	}
	meta := map[string]string{
		"text_property": schema.TextProperty,
		"dimensions":    strconv.Itoa(schema.Dimensions),
	}
	if _, err := c.db.CreateCollection(name, meta, rejectEmbedding); err != nil {
		return false, fmt.Errorf("create collection: %w", err)
	}
	return true, nil
}

func (c *embeddedConn) Insert(ctx context.Context, name string, records []domain.Record) (int, error) {
	coll := c.db.GetCollection(name, rejectEmbedding)
	if coll == nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if len(records) == 0 {
		return 0, nil
	}

	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        uuid.NewString(),
			Content:   r.Text,
			Embedding: r.Vector,
		}
	}
	if err := coll.AddDocuments(ctx, docs, 1); err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}
	return len(docs), nil
}

func (c *embeddedConn) Search(ctx context.Context, name string, q NearQuery) (domain.ResultArtifact, error) {
	coll := c.db.GetCollection(name, rejectEmbedding)
	if coll == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}

	// chromem rejects nResults above the document count.
	k := min(q.Limit, coll.Count())
	if k == 0 {
		return domain.ResultArtifact{}, nil
	}

	results, err := coll.QueryEmbedding(ctx, q.Vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	withText := wantsText(q.ReturnFields)
	hits := make(domain.ResultArtifact, 0, len(results))
	for _, r := range results {
		var text *string
		if withText {
			text = domain.String(r.Content)
		}
		hits = append(hits, hitFromSimilarity(float64(r.Similarity), text, q.Metrics))
	}
	return hits, nil
}

// Close is a no-op: chromem persists on every write.
func (c *embeddedConn) Close() error { return nil }
