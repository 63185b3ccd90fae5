// Package vectorstore is the only path to the vector database. Every
// operation probes the store, opens a fresh connection and releases it
// before returning.
package vectorstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/probe"
)

// Metric names a distance figure a search can report per hit.
type Metric string

const (
	MetricDistance  Metric = "distance"
	MetricCertainty Metric = "certainty"
	MetricScore     Metric = "score"
)

// DefaultMetrics are the figures requested by the similarity task.
var DefaultMetrics = []Metric{MetricDistance, MetricCertainty}

// NearQuery is a nearest-neighbour request.
type NearQuery struct {
	Vector       []float32
	Limit        int
	ReturnFields []string
	Metrics      []Metric
}

// Driver opens connections to one kind of vector database.
type Driver interface {
	Name() string
	// Endpoints lists what must accept TCP connections before Connect. Nil skips the probe.
	Endpoints() ([]probe.Endpoint, error)
	Connect(ctx context.Context) (Conn, error)
}

// Conn is a live connection. It must be closed by the caller.
type Conn interface {
	EnsureCollection(ctx context.Context, name string, schema domain.CollectionSchema) (created bool, err error)
	Insert(ctx context.Context, name string, records []domain.Record) (int, error)
	Search(ctx context.Context, name string, q NearQuery) (domain.ResultArtifact, error)
	Close() error
}

// Prober verifies endpoint reachability.
type Prober interface {
	Check(ctx context.Context, endpoints ...probe.Endpoint) error
}

// Gateway runs vector store operations through a driver.
type Gateway struct {
	driver Driver
	prober Prober
	logger *zap.Logger
}

// New creates a Gateway.
func New(driver Driver, prober Prober, logger *zap.Logger) *Gateway {
	return &Gateway{driver: driver, prober: prober, logger: logger}
}

// Driver returns the configured driver name.
func (g *Gateway) Driver() string { return g.driver.Name() }

// Reachable probes the driver's endpoints without connecting.
func (g *Gateway) Reachable(ctx context.Context) error {
	endpoints, err := g.driver.Endpoints()
	if err != nil {
		return fmt.Errorf("resolve %s endpoints: %w", g.driver.Name(), err)
	}
	if len(endpoints) == 0 {
		return nil
	}
	return g.prober.Check(ctx, endpoints...)
}

// Ping reports whether the store can be probed and connected to.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.session(ctx, func(Conn) error { return nil })
}

// EnsureCollection creates the collection if it does not exist and reports whether it did.
func (g *Gateway) EnsureCollection(ctx context.Context, name string, schema domain.CollectionSchema) (bool, error) {
	var created bool
	err := g.session(ctx, func(c Conn) error {
		var err error
		created, err = c.EnsureCollection(ctx, name, schema)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("ensure collection %s: %w", name, err)
	}
	return created, nil
}

// Insert stores records under fresh identifiers and returns how many were written.
func (g *Gateway) Insert(ctx context.Context, name string, records []domain.Record) (int, error) {
	var n int
	err := g.session(ctx, func(c Conn) error {
		var err error
		n, err = c.Insert(ctx, name, records)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", name, err)
	}
	return n, nil
}

// NearestNeighbors returns up to q.Limit hits ordered nearest first.
func (g *Gateway) NearestNeighbors(ctx context.Context, name string, q NearQuery) (domain.ResultArtifact, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("near query on %s: empty vector", name)
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("near query on %s: limit must be positive, got %d", name, q.Limit)
	}
	if q.Metrics == nil {
		q.Metrics = DefaultMetrics
	}

	var hits domain.ResultArtifact
	err := g.session(ctx, func(c Conn) error {
		var err error
		hits, err = c.Search(ctx, name, q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("near query on %s: %w", name, err)
	}
	return hits, nil
}

// session probes, connects, runs fn and always closes the connection.
func (g *Gateway) session(ctx context.Context, fn func(Conn) error) error {
	if err := g.Reachable(ctx); err != nil {
		return err
	}

	conn, err := g.driver.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", g.driver.Name(), err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			g.logger.Warn("Failed to close vector store connection",
				zap.String("driver", g.driver.Name()),
				zap.Error(err),
			)
		}
	}()

	return fn(conn)
}
