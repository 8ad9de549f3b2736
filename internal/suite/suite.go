// Package suite loads the optional YAML suite config that names a
// comparison run: trace inputs, baseline, rule file and mode. The file
// is schema-checked with CUE before any value is used, so authoring
// mistakes surface as load errors rather than odd comparisons.
package suite

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TraceRef names one trace input. List form keeps authoring order,
// which fixes the comparison order in the report.
type TraceRef struct {
	Browser string `yaml:"browser"`
	Path    string `yaml:"path"`
}

// Suite is a declarative comparison suite. Every field is optional on
// the CLI side; flags override suite values on conflict.
type Suite struct {
	// Name is recorded as the report's suite identifier.
	Name string `yaml:"name,omitempty"`

	// Baseline is the reference browser label. Defaults to the first
	// trace entry when empty.
	Baseline string `yaml:"baseline,omitempty"`

	// Mode is "warn" or "strict".
	Mode string `yaml:"mode,omitempty"`

	// Known is the path to the known-divergence rule file.
	Known string `yaml:"known,omitempty"`

	// Traces lists the labeled trace inputs in comparison order.
	Traces []TraceRef `yaml:"traces"`
}

// Load reads and validates a suite file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("suite file not found: %s", path)
	}

	// Schema check first, against the raw document, so errors point at
	// the authored shape rather than at decoded zero values.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: invalid YAML: %w", path, err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: invalid suite: %w", path, err)
	}

	seen := make(map[string]bool, len(s.Traces))
	for _, ref := range s.Traces {
		if seen[ref.Browser] {
			return nil, fmt.Errorf("%s: duplicate browser label %q", path, ref.Browser)
		}
		seen[ref.Browser] = true
	}
	return &s, nil
}
