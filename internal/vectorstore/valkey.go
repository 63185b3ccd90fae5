package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/db"
	"github.com/kailas-cloud/vectro/internal/db/valkey"
	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/probe"
)

const (
	defaultValkeyPort = 6379
	vectorField       = "vector"
)

// ValkeyOptions configures the Valkey driver.
type ValkeyOptions struct {
	URL         string
	Password    string
	M           int
	EFConstruct int
}

// ValkeyDriver stores notes as HASH keys indexed by an HNSW COSINE index.
// Collection X lives under keys "X:<uuid>" and index "X:idx".
type ValkeyDriver struct {
	opts   ValkeyOptions
	open   func() (db.Store, error)
	logger *zap.Logger
}

// NewValkey creates a Valkey driver.
func NewValkey(opts ValkeyOptions, logger *zap.Logger) *ValkeyDriver {
	d := &ValkeyDriver{opts: opts, logger: logger}
	d.open = d.dial
	return d
}

// WithOpener replaces how the driver obtains a db.Store.
func (d *ValkeyDriver) WithOpener(open func() (db.Store, error)) *ValkeyDriver {
	d.open = open
	return d
}

// Name implements Driver.
func (d *ValkeyDriver) Name() string { return "valkey" }

// Open returns a raw store client for callers that share the server, such as
// the embedding cache. The caller closes it.
func (d *ValkeyDriver) Open() (db.Store, error) { return d.open() }

// Endpoints returns the single data-plane endpoint.
func (d *ValkeyDriver) Endpoints() ([]probe.Endpoint, error) {
	host, port, err := valkeyAddr(d.opts.URL)
	if err != nil {
		return nil, err
	}
	return []probe.Endpoint{{Name: "data-plane", Host: host, Port: port}}, nil
}

// Connect opens a Valkey client.
func (d *ValkeyDriver) Connect(_ context.Context) (Conn, error) {
	store, err := d.open()
	if err != nil {
		return nil, err
	}
	return &valkeyConn{store: store, opts: d.opts, logger: d.logger}, nil
}

func (d *ValkeyDriver) dial() (db.Store, error) {
	host, port, err := valkeyAddr(d.opts.URL)
	if err != nil {
		return nil, err
	}
	ep := probe.Endpoint{Host: host, Port: port}
	return valkey.NewStore(valkey.Config{
		Addrs:    []string{ep.Address()},
		Password: d.opts.Password,
	})
}

// valkeyAddr extracts host and port, defaulting the port to 6379.
func valkeyAddr(raw string) (string, int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, fmt.Errorf("parse store url: %w", err)
	}
	if u.Hostname() == "" {
		return "", 0, fmt.Errorf("store url %q has no host", raw)
	}
	port := defaultValkeyPort
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return "", 0, fmt.Errorf("store url port %q: %w", p, err)
		}
	}
	return u.Hostname(), port, nil
}

func indexName(collection string) string { return collection + ":idx" }
func keyPrefix(collection string) string { return collection + ":" }

type valkeyConn struct {
	store  db.Store
	opts   ValkeyOptions
	logger *zap.Logger
}

func (c *valkeyConn) EnsureCollection(ctx context.Context, name string, schema domain.CollectionSchema) (bool, error) {
	exists, err := c.store.IndexExists(ctx, indexName(name))
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	def, err := db.NewIndex(indexName(name)).
		Prefix(keyPrefix(name)).
		Text(schema.TextProperty).
		VectorHNSW(vectorField, schema.Dimensions, db.DistanceCosine, c.opts.M, c.opts.EFConstruct).
		Build()
	if err != nil {
		return false, fmt.Errorf("build index definition: %w", err)
	}

	if err := c.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, err
	}
	c.logger.Debug("Created index", zap.String("definition", def.String()))
	return true, nil
}

func (c *valkeyConn) Insert(ctx context.Context, name string, records []domain.Record) (int, error) {
	items := make([]db.HashItem, len(records))
	for i, r := range records {
		items[i] = db.HashItem{
			Key: keyPrefix(name) + uuid.NewString(),
			Fields: map[string]string{
				domain.TextProperty: r.Text,
				vectorField:         valkey.VectorToBytes(r.Vector),
			},
		}
	}
	if err := c.store.HSetMulti(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (c *valkeyConn) Search(ctx context.Context, name string, q NearQuery) (domain.ResultArtifact, error) {
	exists, err := c.store.IndexExists(ctx, indexName(name))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}

	fields := q.ReturnFields
	if len(fields) == 0 {
		fields = []string{domain.TextProperty}
	}
	res, err := c.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(name),
		VectorField:  vectorField,
		Vector:       q.Vector,
		K:            q.Limit,
		ReturnFields: fields,
	})
	if err != nil {
		return nil, err
	}

	hits := make(domain.ResultArtifact, 0, len(res.Entries))
	for _, e := range res.Entries {
		var text *string
		if v, ok := e.Fields[domain.TextProperty]; ok {
			text = domain.String(v)
		}
		// COSINE distance is 1 - similarity.
		hits = append(hits, hitFromSimilarity(1-e.Distance, text, q.Metrics))
	}
	return hits, nil
}

func (c *valkeyConn) Close() error {
	c.store.Close()
	return nil
}
