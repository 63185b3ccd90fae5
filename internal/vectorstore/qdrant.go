package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/probe"
)

const qdrantMaxMessageSize = 50 * 1024 * 1024

// QdrantDriver talks to Qdrant over gRPC on the query-plane port.
type QdrantDriver struct {
	storeURL string
	grpcPort int
	apiKey   string
	logger   *zap.Logger
}

// NewQdrant creates a Qdrant driver for the store at storeURL.
func NewQdrant(storeURL string, grpcPort int, apiKey string, logger *zap.Logger) *QdrantDriver {
	return &QdrantDriver{storeURL: storeURL, grpcPort: grpcPort, apiKey: apiKey, logger: logger}
}

// Name implements Driver.
func (d *QdrantDriver) Name() string { return "qdrant" }

// Endpoints returns the data-plane and query-plane endpoints.
func (d *QdrantDriver) Endpoints() ([]probe.Endpoint, error) {
	data, query, err := probe.Endpoints(d.storeURL, d.grpcPort)
	if err != nil {
		return nil, err
	}
	return []probe.Endpoint{data, query}, nil
}

// Connect opens a gRPC client.
func (d *QdrantDriver) Connect(_ context.Context) (Conn, error) {
	u, err := url.Parse(d.storeURL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	useTLS := u.Scheme == "https"

	cfg := &qdrant.Config{
		Host:   u.Hostname(),
		Port:   d.grpcPort,
		UseTLS: useTLS,
		APIKey: d.apiKey,
		// One short-lived connection per gateway session.
		PoolSize:               1,
		SkipCompatibilityCheck: true,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(qdrantMaxMessageSize),
				grpc.MaxCallSendMsgSize(qdrantMaxMessageSize),
			),
		},
	}
	if !useTLS {
		cfg.GrpcOptions = append(cfg.GrpcOptions, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	d.logger.Debug("Connected to qdrant",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)
	return &qdrantConn{client: client}, nil
}

type qdrantConn struct {
	client *qdrant.Client
}

func (c *qdrantConn) EnsureCollection(ctx context.Context, name string, schema domain.CollectionSchema) (bool, error) {
	_, err := c.client.GetCollectionInfo(ctx, name)
	if err == nil {
		return false, nil
	}
	if !isNotFound(err) {
		return false, err
	}

	err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(schema.Dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *qdrantConn) Insert(ctx context.Context, name string, records []domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.NewString()),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: map[string]*qdrant.Value{
				domain.TextProperty: {Kind: &qdrant.Value_StringValue{StringValue: r.Text}},
			},
		}
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
		}
		return 0, err
	}
	return len(points), nil
}

func (c *qdrantConn) Search(ctx context.Context, name string, q NearQuery) (domain.ResultArtifact, error) {
	fields := q.ReturnFields
	if len(fields) == 0 {
		fields = []string{domain.TextProperty}
	}

	points, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(q.Vector...),
		Limit:          qdrant.PtrOf(uint64(q.Limit)),
		WithPayload:    qdrant.NewWithPayloadInclude(fields...),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
		}
		return nil, err
	}

	hits := make(domain.ResultArtifact, 0, len(points))
	for _, p := range points {
		hits = append(hits, hitFromSimilarity(float64(p.GetScore()), payloadText(p.GetPayload()), q.Metrics))
	}
	return hits, nil
}

func (c *qdrantConn) Close() error {
	return c.client.Close()
}

func payloadText(payload map[string]*qdrant.Value) *string {
	v, ok := payload[domain.TextProperty]
	if !ok {
		return nil
	}
	s, ok := v.GetKind().(*qdrant.Value_StringValue)
	if !ok {
		return nil
	}
	return domain.String(s.StringValue)
}

func isNotFound(err error) bool {
	if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
		return true
	}
	var wrapped interface{ GRPCStatus() *status.Status }
	if errors.As(err, &wrapped) {
		return wrapped.GRPCStatus().Code() == codes.NotFound
	}
	return false
}
