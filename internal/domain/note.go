package domain

// TextProperty is the single property stored on every note object.
const TextProperty = "text"

// Record is a note paired with its externally computed vector.
type Record struct {
	Text   string
	Vector []float32
}

// CollectionSchema describes a collection holding one text property and external vectors.
type CollectionSchema struct {
	TextProperty string
	Dimensions   int
}

// SampleNotes is the fixed corpus indexed by the insert task.
func SampleNotes() []string {
	return []string{
		"Cortex helps you find examples in your code.",
		"Codex stores embeddings inside Vectro for fast search.",
		"Vectro works with Weaviate as the vector database.",
		"This is a simple sample note for similarity search.",
	}
}
