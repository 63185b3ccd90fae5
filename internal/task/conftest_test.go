package task

import (
	"context"
	"errors"
	"strings"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/vectorstore"
)

// callLog records collaborator calls across fakes in order.
type callLog struct {
	calls []string
}

func (l *callLog) add(c string) { l.calls = append(l.calls, c) }

func (l *callLog) String() string { return strings.Join(l.calls, ",") }

type fakeStore struct {
	log        *callLog
	reachErr   error
	ensureErr  error
	exists     bool
	insertErr  error
	inserted   []domain.Record
	hits       domain.ResultArtifact
	searchErr  error
	lastSearch vectorstore.NearQuery
}

func (f *fakeStore) Reachable(_ context.Context) error {
	f.log.add("reachable")
	return f.reachErr
}

func (f *fakeStore) EnsureCollection(_ context.Context, _ string, _ domain.CollectionSchema) (bool, error) {
	f.log.add("ensure")
	if f.reachErr != nil {
		return false, f.reachErr
	}
	if f.ensureErr != nil {
		return false, f.ensureErr
	}
	if f.exists {
		return false, nil
	}
	f.exists = true
	return true, nil
}

func (f *fakeStore) Insert(_ context.Context, _ string, records []domain.Record) (int, error) {
	f.log.add("insert")
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, records...)
	return len(records), nil
}

func (f *fakeStore) NearestNeighbors(_ context.Context, _ string, q vectorstore.NearQuery) (domain.ResultArtifact, error) {
	f.log.add("search")
	f.lastSearch = q
	if f.reachErr != nil {
		return nil, f.reachErr
	}
	return f.hits, f.searchErr
}

type fakeState struct {
	query   *domain.QueryArtifact
	results domain.ResultArtifact
	hasRes  bool
}

func (s *fakeState) WriteQuery(q domain.QueryArtifact) error {
	s.query = &q
	s.results, s.hasRes = nil, false
	return nil
}

func (s *fakeState) ReadQuery() (domain.QueryArtifact, error) {
	if s.query == nil {
		return domain.QueryArtifact{}, domain.ErrQueryNotReady
	}
	return *s.query, nil
}

func (s *fakeState) WriteResults(r domain.ResultArtifact) error {
	if s.query == nil {
		return domain.ErrQueryNotReady
	}
	s.results, s.hasRes = r, true
	return nil
}

func (s *fakeState) ReadResults() (domain.ResultArtifact, error) {
	if !s.hasRes {
		return nil, domain.ErrResultsNotReady
	}
	return s.results, nil
}

type fakeEmbedder struct {
	log  *callLog
	dims int
	err  error
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.log.add("embed")
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	v := make([]float32, e.dims)
	for i := range v {
		v[i] = float32(len(text)+i) / 100
	}
	return domain.EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
}

type fakeTelemetry struct {
	entries []domain.TaskResult
	err     error
}

func (f *fakeTelemetry) Append(task, summary string) (domain.TaskResult, error) {
	if f.err != nil {
		return domain.TaskResult{}, f.err
	}
	r := domain.TaskResult{Task: task, Summary: strings.TrimSpace(summary)}
	f.entries = append(f.entries, r)
	return r, nil
}

var errBoom = errors.New("boom")

type fixture struct {
	log       *callLog
	store     *fakeStore
	state     *fakeState
	embedder  *fakeEmbedder
	telemetry *fakeTelemetry
	out       *strings.Builder
	registry  *Registry
}

func newFixture(settings Settings) *fixture {
	log := &callLog{}
	f := &fixture{
		log:       log,
		store:     &fakeStore{log: log},
		state:     &fakeState{},
		embedder:  &fakeEmbedder{log: log, dims: 3},
		telemetry: &fakeTelemetry{},
		out:       &strings.Builder{},
	}
	f.registry = NewRegistry(settings, Deps{
		Store:    f.store,
		State:    f.state,
		Embedder: f.embedder,
	}, f.telemetry, f.out)
	return f
}

func defaultSettings() Settings {
	return Settings{Collection: "CortexNote", Query: "How can Cortex assist with code?", Limit: 3, Dimensions: 3}
}
