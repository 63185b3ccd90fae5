// Package state holds the artifacts handed from one pipeline task to the next.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/fsutil"
)

const (
	queryFile   = "query.json"
	resultsFile = "results.json"
)

// Phase describes which artifacts are available.
type Phase int

const (
	// PhaseEmpty means no query has been embedded yet.
	PhaseEmpty Phase = iota
	// PhaseQueryReady means a query vector is stored but no results.
	PhaseQueryReady
	// PhaseResultsReady means a result set is stored for the current query.
	PhaseResultsReady
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseQueryReady:
		return "query-ready"
	case PhaseResultsReady:
		return "results-ready"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Store keeps the query and result slots as JSON files in one directory.
// Each slot holds a single value; writes replace it.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the state directory.
func (s *Store) Dir() string { return s.dir }

// QueryPath returns the query slot path.
func (s *Store) QueryPath() string { return filepath.Join(s.dir, queryFile) }

// ResultsPath returns the result slot path.
func (s *Store) ResultsPath() string { return filepath.Join(s.dir, resultsFile) }

// WriteQuery stores a freshly embedded query. Any previous result set no
// longer matches it and is dropped.
func (s *Store) WriteQuery(q domain.QueryArtifact) error {
	if err := fsutil.WriteJSON(s.QueryPath(), q); err != nil {
		return fmt.Errorf("write query artifact: %w", err)
	}
	if err := removeIfExists(s.ResultsPath()); err != nil {
		return fmt.Errorf("drop stale results: %w", err)
	}
	return nil
}

// ReadQuery returns the stored query or domain.ErrQueryNotReady.
func (s *Store) ReadQuery() (domain.QueryArtifact, error) {
	var q domain.QueryArtifact
	found, err := fsutil.ReadJSON(s.QueryPath(), &q)
	if err != nil {
		return domain.QueryArtifact{}, fmt.Errorf("read query artifact: %w", err)
	}
	if !found {
		return domain.QueryArtifact{}, domain.ErrQueryNotReady
	}
	return q, nil
}

// WriteResults stores a result set. A query must already be stored.
func (s *Store) WriteResults(r domain.ResultArtifact) error {
	if _, err := os.Stat(s.QueryPath()); errors.Is(err, os.ErrNotExist) {
		return domain.ErrQueryNotReady
	}
	if r == nil {
		r = domain.ResultArtifact{}
	}
	if err := fsutil.WriteJSON(s.ResultsPath(), r); err != nil {
		return fmt.Errorf("write result artifact: %w", err)
	}
	return nil
}

// ReadResults returns the stored result set or domain.ErrResultsNotReady.
func (s *Store) ReadResults() (domain.ResultArtifact, error) {
	var r domain.ResultArtifact
	found, err := fsutil.ReadJSON(s.ResultsPath(), &r)
	if err != nil {
		return nil, fmt.Errorf("read result artifact: %w", err)
	}
	if !found {
		return nil, domain.ErrResultsNotReady
	}
	if r == nil {
		r = domain.ResultArtifact{}
	}
	return r, nil
}

// Phase derives the current phase from which slots exist.
func (s *Store) Phase() (Phase, error) {
	hasQuery, err := exists(s.QueryPath())
	if err != nil {
		return PhaseEmpty, err
	}
	if !hasQuery {
		return PhaseEmpty, nil
	}
	hasResults, err := exists(s.ResultsPath())
	if err != nil {
		return PhaseEmpty, err
	}
	if hasResults {
		return PhaseResultsReady, nil
	}
	return PhaseQueryReady, nil
}

// Clear removes both slots.
func (s *Store) Clear() error {
	for _, p := range []string{s.ResultsPath(), s.QueryPath()} {
		if err := removeIfExists(p); err != nil {
			return fmt.Errorf("clear state: %w", err)
		}
	}
	return nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
