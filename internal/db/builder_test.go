package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_NoteIndex(t *testing.T) {
	idx, err := NewIndex("CortexNote:idx").
		Prefix("CortexNote:").
		Text("text").
		VectorHNSW("vector", 384, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	if idx.Fields[0].Type != FieldText {
		t.Errorf("field[0] = %+v, want TEXT", idx.Fields[0])
	}
	v := idx.Fields[1]
	if v.Algo != VectorHNSW || v.Dim != 384 || v.Distance != DistanceCosine {
		t.Errorf("unexpected vector field %+v", v)
	}
	if v.M != 16 || v.EFConstruct != 200 {
		t.Errorf("M/EF = %d/%d, want 16/200", v.M, v.EFConstruct)
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *IndexBuilder
		errPart string
	}{
		{"empty name", NewIndex("").Text("t"), "name is required"},
		{"bad name", NewIndex("has space").Text("t"), "invalid characters"},
		{"no fields", NewIndex("idx"), "at least one field"},
		{"zero dim", NewIndex("idx").VectorFlat("v", 0, DistanceL2), "positive DIM"},
		{"duplicate", NewIndex("idx").Text("a").Tag("a"), "duplicate field"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.builder.Build()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errPart) {
				t.Errorf("error %q does not contain %q", err, tc.errPart)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx, err := NewIndex("notes").Prefix("n:").Tag("kind").VectorFlat("vector", 3, DistanceCosine).Build()
	if err != nil {
		t.Fatal(err)
	}
	want := "FT.CREATE notes ON HASH PREFIX n: SCHEMA kind TAG vector VECTOR FLAT"
	if got := idx.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"CortexNote", true},
		{"notes:idx-1", true},
		{"", false},
		{"a b", false},
		{"a.b", false},
	}
	for _, tc := range tests {
		if got := IsValidIdentifier(tc.in); got != tc.want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
