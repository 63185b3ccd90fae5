package vectorstore

import (
	"slices"

	"github.com/kailas-cloud/vectro/internal/domain"
)

// hitFromSimilarity fills the requested metrics from a cosine similarity in [-1, 1].
func hitFromSimilarity(similarity float64, text *string, metrics []Metric) domain.Hit {
	h := domain.Hit{Text: text}
	if slices.Contains(metrics, MetricDistance) {
		h.Distance = domain.Float(1 - similarity)
	}
	if slices.Contains(metrics, MetricCertainty) {
		h.Certainty = domain.Float((1 + similarity) / 2)
	}
	if slices.Contains(metrics, MetricScore) {
		h.Score = domain.Float(similarity)
	}
	return h
}

func wantsText(fields []string) bool {
	return len(fields) == 0 || slices.Contains(fields, domain.TextProperty)
}
