package db

import "strings"

// IndexBuilder assembles an IndexDefinition.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a HASH index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix adds key prefixes covered by the index.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Text adds a TEXT field.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: FieldText})
	return b
}

// Tag adds a TAG field.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: FieldTag})
	return b
}

// VectorHNSW adds an HNSW vector field.
func (b *IndexBuilder) VectorHNSW(name string, dim int, distance DistanceMetric, m, efConstruct int) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:        name,
		Type:        FieldVector,
		Algo:        VectorHNSW,
		Dim:         dim,
		Distance:    distance,
		M:           m,
		EFConstruct: efConstruct,
	})
	return b
}

// VectorFlat adds a brute-force vector field.
func (b *IndexBuilder) VectorFlat(name string, dim int, distance DistanceMetric) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:     name,
		Type:     FieldVector,
		Algo:     VectorFlat,
		Dim:      dim,
		Distance: distance,
	})
	return b
}

// Build validates and returns the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// String renders the definition roughly as FT.CREATE for logs.
func (idx *IndexDefinition) String() string {
	parts := []string{"FT.CREATE", idx.Name, "ON", StorageHash}
	if len(idx.Prefixes) > 0 {
		parts = append(parts, "PREFIX")
		parts = append(parts, idx.Prefixes...)
	}
	parts = append(parts, "SCHEMA")
	for _, f := range idx.Fields {
		parts = append(parts, f.Name)
		switch f.Type {
		case FieldText:
			parts = append(parts, "TEXT")
		case FieldTag:
			parts = append(parts, "TAG")
		case FieldVector:
			parts = append(parts, "VECTOR", string(f.Algo))
		}
	}
	return strings.Join(parts, " ")
}
