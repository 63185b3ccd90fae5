package db

import (
	"errors"
	"fmt"
)

// StorageHash is the only storage type the driver indexes.
const StorageHash = "HASH"

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the vector index structure.
type VectorAlgorithm string

const (
	// VectorHNSW is an approximate graph index.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat is brute force.
	VectorFlat VectorAlgorithm = "FLAT"
)

// FieldType enumerates the schema field kinds.
type FieldType int

const (
	// FieldText is a full-text field.
	FieldText FieldType = iota
	// FieldTag is an exact-match tag field.
	FieldTag
	// FieldVector is a FLOAT32 vector field.
	FieldVector
)

// IndexField describes one schema field.
type IndexField struct {
	Name string
	Type FieldType

	// Vector options. Zero M or EFConstruct leaves the server default.
	Algo        VectorAlgorithm
	Dim         int
	Distance    DistanceMetric
	M           int
	EFConstruct int
}

// IndexDefinition is the input to FT.CREATE. Documents are HASH keys under Prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the definition can be sent to the server.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = true

		if f.Type == FieldVector && f.Dim <= 0 {
			return fmt.Errorf("vector field %s requires positive DIM", f.Name)
		}
	}
	return nil
}

// IsValidIdentifier reports whether s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == ':' || r == '-':
		default:
			return false
		}
	}
	return true
}
