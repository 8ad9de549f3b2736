package telemetry

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var hex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Result is the machine-readable validation report for one stream.
type Result struct {
	ReportID                  string      `json:"report_id"`
	SchemaName                string      `json:"schema_name"`
	SchemaVersion             json.Number `json:"schema_version"`
	Workflow                  string      `json:"workflow"`
	TotalEvents               int         `json:"total_events"`
	UniqueRunIDs              []string    `json:"unique_run_ids"`
	UniqueCaseIDs             []string    `json:"unique_case_ids"`
	SeenEventTypes            []string    `json:"seen_event_types"`
	ArtifactEventCount        int         `json:"artifact_event_count"`
	MissingRequiredEventTypes []string    `json:"missing_required_event_types"`
	Errors                    []string    `json:"errors"`
	Status                    string      `json:"status"`
}

// typeName reports the JSON type of a decoded value, in the vocabulary
// the profile's field_types lists use.
func typeName(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return "integer"
		}
		return "number"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ValidateStream checks every event against the envelope schema and
// the profile, then applies the workflow's stream-level rules. The
// result's Errors preserve event order; stream-level findings follow
// the per-line ones.
func ValidateStream(events []map[string]any, profile *Profile, workflow string) (*Result, error) {
	schema, err := compileEnvelope()
	if err != nil {
		return nil, err
	}
	rule := profile.WorkflowRules[workflow]

	var errs []string
	seenEventTypes := map[string]bool{}
	var correlationIDs []string
	duplicateCorrelation := map[string]bool{}
	runIDs := map[string]bool{}
	caseIDs := map[string]bool{}
	artifactEvents := 0
	stepEventTypes := map[string]map[string]bool{}
	caseEventTypes := map[string]map[string]bool{}

	enforced := map[string]bool{}
	for _, et := range rule.ExpectedActualEnforcedEventTypes {
		enforced[et] = true
	}
	allowedTypes := map[string]bool{}
	for _, et := range profile.EventTypeEnum {
		allowedTypes[et] = true
	}

	for i, event := range events {
		lineNo := i + 1

		errs = append(errs, envelopeErrors(schema, event, lineNo)...)
		errs = append(errs, validateEvent(event, lineNo, profile, rule, allowedTypes, enforced, workflow)...)

		if runID, ok := event["run_id"].(string); ok && runID != "" {
			runIDs[runID] = true
		}
		if corrID, ok := event["correlation_id"].(string); ok && corrID != "" {
			for _, seen := range correlationIDs {
				if seen == corrID {
					duplicateCorrelation[corrID] = true
					break
				}
			}
			correlationIDs = append(correlationIDs, corrID)
		}
		caseID, _ := event["case_id"].(string)
		if caseID != "" {
			caseIDs[caseID] = true
		}

		eventType, ok := event["event_type"].(string)
		if !ok {
			continue
		}
		seenEventTypes[eventType] = true
		if eventType == "artifact" {
			artifactEvents++
		}
		if stepID, ok := event["step_id"].(string); ok && stepID != "" {
			if stepEventTypes[stepID] == nil {
				stepEventTypes[stepID] = map[string]bool{}
			}
			stepEventTypes[stepID][eventType] = true
		}
		if caseID != "" && caseID != "__run__" {
			if caseEventTypes[caseID] == nil {
				caseEventTypes[caseID] = map[string]bool{}
			}
			caseEventTypes[caseID][eventType] = true
		}
	}

	var missingEventTypes []string
	for _, required := range rule.RequiredEventTypes {
		if !seenEventTypes[required] {
			missingEventTypes = append(missingEventTypes, required)
		}
	}
	sort.Strings(missingEventTypes)
	for _, et := range missingEventTypes {
		errs = append(errs, fmt.Sprintf("stream missing required event_type %q for workflow %q", et, workflow))
	}

	if len(runIDs) > 1 {
		errs = append(errs, fmt.Sprintf("stream has multiple run_id values (expected one): %v", sortedKeys(runIDs)))
	}

	if rule.RequireUniqueCorrelationIDs && len(duplicateCorrelation) > 0 {
		errs = append(errs, fmt.Sprintf("stream has duplicate correlation_id values: %v", sortedKeys(duplicateCorrelation)))
	}

	if rule.RequireMonotonicCorrelationSuffix && len(runIDs) > 0 {
		errs = append(errs, checkCorrelationSequence(sortedKeys(runIDs)[0], correlationIDs)...)
	}

	errs = append(errs, checkEventPairs("step_id", stepEventTypes, rule.RequiredStepEventPairs)...)
	errs = append(errs, checkEventPairs("case_id", caseEventTypes, rule.RequiredCaseEventPairs)...)

	if artifactEvents < rule.MinArtifactEvents {
		errs = append(errs, fmt.Sprintf("artifact event count %d is below required minimum %d", artifactEvents, rule.MinArtifactEvents))
	}

	status := "passed"
	if len(errs) > 0 {
		status = "failed"
	}
	if errs == nil {
		errs = []string{}
	}
	if missingEventTypes == nil {
		missingEventTypes = []string{}
	}

	return &Result{
		SchemaName:                profile.SchemaName,
		SchemaVersion:             profile.SchemaVersion,
		Workflow:                  workflow,
		TotalEvents:               len(events),
		UniqueRunIDs:              sortedKeys(runIDs),
		UniqueCaseIDs:             sortedKeys(caseIDs),
		SeenEventTypes:            sortedKeys(seenEventTypes),
		ArtifactEventCount:        artifactEvents,
		MissingRequiredEventTypes: missingEventTypes,
		Errors:                    errs,
		Status:                    status,
	}, nil
}

// validateEvent applies the profile's per-event rules to one event.
func validateEvent(event map[string]any, lineNo int, profile *Profile, rule WorkflowRule, allowedTypes, enforced map[string]bool, workflow string) []string {
	var errs []string

	for _, field := range profile.RequiredFields {
		if _, ok := event[field]; !ok {
			errs = append(errs, fmt.Sprintf("line %d: missing required field %q", lineNo, field))
		}
	}

	fields := make([]string, 0, len(profile.FieldTypes))
	for field := range profile.FieldTypes {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		value, ok := event[field]
		if !ok {
			continue
		}
		expectedTypes := profile.FieldTypes[field]
		actual := typeName(value)
		matched := false
		for _, expected := range expectedTypes {
			if actual == expected {
				matched = true
				break
			}
		}
		if !matched {
			errs = append(errs, fmt.Sprintf("line %d: field %q type mismatch (got=%s, expected=%v)", lineNo, field, actual, expectedTypes))
		}
	}

	if eventType, ok := event["event_type"].(string); ok && len(allowedTypes) > 0 && !allowedTypes[eventType] {
		errs = append(errs, fmt.Sprintf("line %d: event_type %q not in allowed enum", lineNo, eventType))
	}

	for _, field := range profile.SHA256Fields {
		value, ok := event[field]
		if !ok || value == nil {
			continue
		}
		s, isStr := value.(string)
		if !isStr || !hex64.MatchString(s) {
			errs = append(errs, fmt.Sprintf("line %d: field %q must be null or lowercase sha256 hex", lineNo, field))
		}
	}

	if eventType, _ := event["event_type"].(string); eventType == "artifact" {
		if hashes, ok := event["artifact_hashes"].(map[string]any); ok && len(hashes) == 0 {
			errs = append(errs, fmt.Sprintf("line %d: artifact event must include at least one artifact hash", lineNo))
		}
	}

	if rule.RequireCaseID {
		caseID, ok := event["case_id"].(string)
		if !ok || caseID == "" {
			errs = append(errs, fmt.Sprintf("line %d: workflow %q requires non-empty string case_id", lineNo, workflow))
		}
	}

	expected, expOK := event["expected"].(map[string]any)
	actual, actOK := event["actual"].(map[string]any)
	eventType, etOK := event["event_type"].(string)
	if expOK && actOK && etOK && enforced[eventType] {
		for _, key := range rule.ExpectedActualRequiredKeys {
			if _, ok := expected[key]; !ok {
				errs = append(errs, fmt.Sprintf("line %d: expected missing required key %q for workflow %q", lineNo, key, workflow))
			}
			if _, ok := actual[key]; !ok {
				errs = append(errs, fmt.Sprintf("line %d: actual missing required key %q for workflow %q", lineNo, key, workflow))
			}
		}
	}

	return errs
}

// checkCorrelationSequence enforces the run-scoped, contiguous-from-1
// correlation id convention.
func checkCorrelationSequence(runID string, correlationIDs []string) []string {
	var errs []string
	prefix := runID + "-corr-"
	var sequence []int
	for _, corrID := range correlationIDs {
		if !strings.HasPrefix(corrID, prefix) {
			errs = append(errs, fmt.Sprintf("correlation_id does not follow run-scoped prefix %q: %s", prefix, corrID))
			continue
		}
		suffix := strings.TrimPrefix(corrID, prefix)
		n, err := strconv.Atoi(suffix)
		if err != nil || suffix == "" {
			errs = append(errs, fmt.Sprintf("correlation_id suffix must be numeric for monotonic check: %s", corrID))
			continue
		}
		sequence = append(sequence, n)
	}
	for i, n := range sequence {
		if n != i+1 {
			errs = append(errs, fmt.Sprintf("correlation_id sequence is not contiguous starting at 1: observed=%v", sequence))
			break
		}
	}
	return errs
}

// checkEventPairs verifies that every seen step/case id carries the
// required event types.
func checkEventPairs(scope string, seen map[string]map[string]bool, required []string) []string {
	if len(required) == 0 {
		return nil
	}
	var errs []string
	for _, id := range sortedKeys2(seen) {
		for _, et := range required {
			if !seen[id][et] {
				errs = append(errs, fmt.Sprintf("%s %q missing required event_type %q", scope, id, et))
			}
		}
	}
	return errs
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys2(m map[string]map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
