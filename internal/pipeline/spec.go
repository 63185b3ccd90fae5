// Package pipeline runs a declared list of tasks in order and stops at the
// first failure.
package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Step is one entry of the step list.
type Step struct {
	Task string `yaml:"task"`
}

// Spec is a parsed step list. Trigger is kept verbatim and not interpreted.
type Spec struct {
	Trigger yaml.Node `yaml:"trigger"`
	Steps   []Step    `yaml:"steps"`
}

// LoadSpec reads and parses a step list file.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Spec{}, fmt.Errorf("failed to read pipeline %s: %w", path, err)
	}
	spec, err := ParseSpec(data)
	if err != nil {
		return Spec{}, fmt.Errorf("pipeline %s: %w", path, err)
	}
	return spec, nil
}

// ParseSpec parses a step list. Lines before the first one starting with
// "trigger:" or "steps:" are discarded; a document with neither is empty.
func ParseSpec(data []byte) (Spec, error) {
	body, ok := stripPreamble(data)
	if !ok {
		return Spec{}, nil
	}

	var spec Spec
	if err := yaml.Unmarshal(body, &spec); err != nil {
		return Spec{}, fmt.Errorf("failed to parse step list: %w", err)
	}
	return spec, nil
}

// Tasks returns the non-empty task names in declaration order.
func (s Spec) Tasks() []string {
	var names []string
	for _, step := range s.Steps {
		if name := strings.TrimSpace(step.Task); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func stripPreamble(data []byte) ([]byte, bool) {
	offset := 0
	for _, line := range bytes.SplitAfter(data, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("trigger:")) || bytes.HasPrefix(line, []byte("steps:")) {
			return data[offset:], true
		}
		offset += len(line)
	}
	return nil, false
}
