// Package telemetry validates raw e2e telemetry JSONL streams against
// a schema profile and per-workflow structural rules. It is boundary
// tooling for the same JSONL family the comparison engine consumes,
// with independent, simpler logic.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
)

// WorkflowRule is the per-workflow slice of a schema profile.
type WorkflowRule struct {
	RequiredEventTypes                []string `json:"required_event_types"`
	RequireCaseID                     bool     `json:"require_case_id"`
	ExpectedActualRequiredKeys        []string `json:"expected_actual_required_keys"`
	ExpectedActualEnforcedEventTypes  []string `json:"expected_actual_enforced_event_types"`
	RequireUniqueCorrelationIDs       bool     `json:"require_unique_correlation_ids"`
	RequireMonotonicCorrelationSuffix bool     `json:"require_monotonic_correlation_suffix"`
	RequiredStepEventPairs            []string `json:"required_step_event_pairs"`
	RequiredCaseEventPairs            []string `json:"required_case_event_pairs"`
	MinArtifactEvents                 int      `json:"min_artifact_events"`
}

// Profile is an authored schema profile for a telemetry stream.
type Profile struct {
	SchemaName     string                  `json:"schema_name"`
	SchemaVersion  json.Number             `json:"schema_version"`
	RequiredFields []string                `json:"required_fields"`
	FieldTypes     map[string][]string     `json:"field_types"`
	SHA256Fields   []string                `json:"sha256_fields"`
	EventTypeEnum  []string                `json:"event_type_enum"`
	WorkflowRules  map[string]WorkflowRule `json:"workflow_rules"`
}

// profileKeys and workflowKeys are the contract every profile document
// must satisfy before any event is read.
var profileKeys = []string{
	"schema_name",
	"schema_version",
	"required_fields",
	"field_types",
	"sha256_fields",
	"event_type_enum",
	"workflow_rules",
}

var workflowKeys = []string{
	"required_event_types",
	"require_case_id",
	"expected_actual_required_keys",
	"expected_actual_enforced_event_types",
	"require_unique_correlation_ids",
	"require_monotonic_correlation_suffix",
	"required_step_event_pairs",
	"required_case_event_pairs",
	"min_artifact_events",
}

// ProfileError reports a profile that does not satisfy the contract.
type ProfileError struct {
	Path     string
	Problems []string
}

func (e *ProfileError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s: %s", e.Path, e.Problems[0])
	}
	return fmt.Sprintf("%s: %d profile contract violations (first: %s)", e.Path, len(e.Problems), e.Problems[0])
}

// LoadProfile reads a profile document and checks its contract for the
// given workflow. Contract violations are fatal; a half-understood
// profile must never silently weaken validation.
func LoadProfile(path, workflow string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile not found: %s", path)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: invalid profile JSON: %w", path, err)
	}

	var problems []string
	for _, key := range profileKeys {
		if _, ok := raw[key]; !ok {
			problems = append(problems, fmt.Sprintf("profile missing top-level key: %s", key))
		}
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s: invalid profile JSON: %w", path, err)
	}

	if rawRules, ok := raw["workflow_rules"]; ok {
		var rules map[string]map[string]json.RawMessage
		if err := json.Unmarshal(rawRules, &rules); err != nil {
			problems = append(problems, fmt.Sprintf("workflow_rules must be an object: %v", err))
		} else if wf, ok := rules[workflow]; !ok {
			problems = append(problems, fmt.Sprintf("profile missing workflow rule for: %s", workflow))
		} else {
			for _, key := range workflowKeys {
				if _, ok := wf[key]; !ok {
					problems = append(problems, fmt.Sprintf("workflow %q missing key: %s", workflow, key))
				}
			}
		}
	}

	if len(problems) > 0 {
		return nil, &ProfileError{Path: path, Problems: problems}
	}
	return &p, nil
}
