// Package fastembed embeds text locally with ONNX sentence-embedding models.
// Builds without cgo get a stub that reports the provider as unavailable.
package fastembed

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnavailable is returned by binaries built without cgo.
var ErrUnavailable = errors.New("fastembed: not available in builds without cgo, use the openai provider")

// DefaultMaxLength is the token window used when Config.MaxLength is zero.
const DefaultMaxLength = 512

// Config holds local model settings.
type Config struct {
	Model     string
	CacheDir  string
	MaxLength int
	BatchSize int
}

type modelInfo struct {
	id         string // fastembed model identifier
	dimensions int
}

var models = map[string]modelInfo{
	"all-MiniLM-L6-v2":                       {"fast-all-MiniLM-L6-v2", 384},
	"sentence-transformers/all-MiniLM-L6-v2": {"fast-all-MiniLM-L6-v2", 384},
	"fast-all-MiniLM-L6-v2":                  {"fast-all-MiniLM-L6-v2", 384},
	"BAAI/bge-small-en-v1.5":                 {"fast-bge-small-en-v1.5", 384},
	"fast-bge-small-en-v1.5":                 {"fast-bge-small-en-v1.5", 384},
	"BAAI/bge-base-en-v1.5":                  {"fast-bge-base-en-v1.5", 768},
	"fast-bge-base-en-v1.5":                  {"fast-bge-base-en-v1.5", 768},
}

// resolveModel maps a configured model name to its fastembed identifier.
func resolveModel(name string) (modelInfo, error) {
	if m, ok := models[name]; ok {
		return m, nil
	}
	return modelInfo{}, fmt.Errorf("fastembed: unsupported model %q (supported: %s)", name, strings.Join(SupportedModels(), ", "))
}

// Dimensions returns the vector size of a supported model.
func Dimensions(model string) (int, bool) {
	m, ok := models[model]
	return m.dimensions, ok
}

// SupportedModels lists accepted model names.
func SupportedModels() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
