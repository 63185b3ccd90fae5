package valkey

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/vectro/internal/db"
)

// CreateIndex issues FT.CREATE. An existing index yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if serverErrContains(err, "already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists asks FT.INFO about name; an unknown index is reported as absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if serverErrContains(err, "unknown index name") || serverErrContains(err, "not found") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func createArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", db.StorageHash}
	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range def.Fields {
		fieldArgs, err := fieldArgs(&def.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}
	return args, nil
}

func fieldArgs(f *db.IndexField) ([]string, error) {
	switch f.Type {
	case db.FieldText:
		return []string{f.Name, "TEXT"}, nil
	case db.FieldTag:
		return []string{f.Name, "TAG"}, nil
	case db.FieldVector:
		return vectorArgs(f), nil
	default:
		return nil, fmt.Errorf("field %s: unknown type %d", f.Name, f.Type)
	}
}

func vectorArgs(f *db.IndexField) []string {
	algo := f.Algo
	if algo == "" {
		algo = db.VectorFlat
	}
	distance := f.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if algo == db.VectorHNSW {
		if f.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.M))
		}
		if f.EFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.EFConstruct))
		}
	}

	out := make([]string, 0, 4+len(attrs))
	out = append(out, f.Name, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
	return append(out, attrs...)
}
