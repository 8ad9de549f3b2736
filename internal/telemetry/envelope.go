package telemetry

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// envelopeSchema constrains the common telemetry event envelope. The
// profile adds stream- and workflow-specific rules on top; this schema
// only pins the shapes no producer is allowed to drift on.
const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "event_type": {"type": "string"},
    "run_id": {"type": "string"},
    "case_id": {"type": ["string", "null"]},
    "step_id": {"type": ["string", "null"]},
    "correlation_id": {"type": "string"},
    "timestamp_utc": {"type": "string"},
    "command": {"type": ["string", "array"]},
    "exit_code": {"type": "integer"},
    "duration_ms": {"type": "integer", "minimum": 0},
    "expected": {"type": "object"},
    "actual": {"type": "object"},
    "artifact_hashes": {
      "type": "object",
      "propertyNames": {"minLength": 1},
      "additionalProperties": {
        "type": "string",
        "pattern": "^[0-9a-f]{64}$"
      }
    }
  }
}`

// compileEnvelope compiles the embedded envelope schema once per
// validation run.
func compileEnvelope() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("envelope.schema.json", strings.NewReader(envelopeSchema)); err != nil {
		return nil, fmt.Errorf("add envelope schema: %w", err)
	}
	schema, err := compiler.Compile("envelope.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}
	return schema, nil
}

// envelopeErrors validates one event against the envelope schema and
// flattens the validation error into per-line messages. Events decoded
// with UseNumber are accepted as-is; the validator understands
// json.Number.
func envelopeErrors(schema *jsonschema.Schema, event map[string]any, lineNo int) []string {
	err := schema.Validate(event)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("line %d: %v", lineNo, err)}
	}

	var msgs []string
	for _, cause := range ve.BasicOutput().Errors {
		if cause.Error == "" || strings.HasPrefix(cause.Error, "doesn't validate with") {
			continue
		}
		loc := cause.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		msgs = append(msgs, fmt.Sprintf("line %d: %s: %s", lineNo, loc, cause.Error))
	}
	if len(msgs) == 0 {
		msgs = []string{fmt.Sprintf("line %d: %v", lineNo, ve)}
	}
	return msgs
}
