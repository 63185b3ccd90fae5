// Package probe checks that the vector store's endpoints accept TCP
// connections before any client is constructed.
package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/metrics"
)

// DefaultTimeout bounds each endpoint dial.
const DefaultTimeout = 2 * time.Second

// Endpoint is a named host:port pair.
type Endpoint struct {
	Name string
	Host string
	Port int
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return e.Name + " " + e.Address()
}

// Endpoints derives the data-plane and query-plane endpoints from the store URL.
// The data-plane port comes from the URL, falling back to 443 for https and 80
// otherwise. The query plane lives on the same host at grpcPort.
func Endpoints(storeURL string, grpcPort int) (data, query Endpoint, err error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return Endpoint{}, Endpoint{}, fmt.Errorf("parse store url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return Endpoint{}, Endpoint{}, fmt.Errorf("store url %q has no host", storeURL)
	}

	port := 80
	if u.Scheme == "https" {
		port = 443
	}
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return Endpoint{}, Endpoint{}, fmt.Errorf("store url port %q: %w", p, err)
		}
	}

	data = Endpoint{Name: "data-plane", Host: host, Port: port}
	query = Endpoint{Name: "query-plane", Host: host, Port: grpcPort}
	return data, query, nil
}

// UnreachableError names the endpoint that refused the probe.
type UnreachableError struct {
	Name string
	Host string
	Port int
	Err  error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("vector store %s unreachable at %s:%d: %v", e.Name, e.Host, e.Port, e.Err)
}

func (e *UnreachableError) Unwrap() []error {
	return []error{domain.ErrStoreUnreachable, e.Err}
}

// Dialer opens a connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Probe dials endpoints with a bounded timeout.
type Probe struct {
	dialer  Dialer
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Probe. A non-positive timeout uses DefaultTimeout.
func New(timeout time.Duration, logger *zap.Logger) *Probe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Probe{dialer: &net.Dialer{}, timeout: timeout, logger: logger}
}

// WithDialer replaces the network dialer.
func (p *Probe) WithDialer(d Dialer) *Probe {
	p.dialer = d
	return p
}

// Check dials every endpoint in order and stops at the first failure.
func (p *Probe) Check(ctx context.Context, endpoints ...Endpoint) error {
	for _, ep := range endpoints {
		if err := p.dial(ctx, ep); err != nil {
			metrics.ProbeFailuresTotal.WithLabelValues(ep.Name).Inc()
			p.logger.Error("Store endpoint unreachable",
				zap.String("endpoint", ep.Name),
				zap.String("address", ep.Address()),
				zap.Error(err),
			)
			return &UnreachableError{Name: ep.Name, Host: ep.Host, Port: ep.Port, Err: err}
		}
		p.logger.Debug("Store endpoint reachable",
			zap.String("endpoint", ep.Name),
			zap.String("address", ep.Address()),
		)
	}
	return nil
}

func (p *Probe) dial(ctx context.Context, ep Endpoint) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", ep.Address())
	if err != nil {
		return err
	}
	return conn.Close()
}
