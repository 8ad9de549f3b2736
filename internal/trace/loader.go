package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadErrorCode categorizes trace loading failures.
type LoadErrorCode string

const (
	// ErrCodeTraceNotFound indicates the trace file does not exist.
	ErrCodeTraceNotFound LoadErrorCode = "TRACE_NOT_FOUND"

	// ErrCodeTraceUnreadable indicates the trace file exists but could
	// not be opened (permissions, a file in the path, ...).
	ErrCodeTraceUnreadable LoadErrorCode = "TRACE_UNREADABLE"

	// ErrCodeMalformedLine indicates a non-blank line that is not a
	// valid JSON object.
	ErrCodeMalformedLine LoadErrorCode = "MALFORMED_LINE"

	// ErrCodeEmptyTrace indicates the file produced zero events.
	ErrCodeEmptyTrace LoadErrorCode = "EMPTY_TRACE"
)

// LoadError is a structured trace loading failure with enough context
// (path, line number) to locate the offending input.
type LoadError struct {
	Code LoadErrorCode
	Path string
	Line int // 1-based, 0 when not line-scoped
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s:%d: %s: %v", e.Path, e.Line, e.Code, e.Err)
		}
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Code)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ReadObjects reads a JSONL file strictly: every non-blank line must be
// a JSON object. Blank lines are skipped silently. File order is
// preserved as the canonical timeline.
func ReadObjects(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		code := ErrCodeTraceUnreadable
		if os.IsNotExist(err) {
			code = ErrCodeTraceNotFound
		}
		return nil, &LoadError{Code: code, Path: path, Err: err}
	}
	defer f.Close()

	var objects []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		obj, err := decodeObject([]byte(raw))
		if err != nil {
			return nil, &LoadError{Code: ErrCodeMalformedLine, Path: path, Line: lineNo, Err: err}
		}
		objects = append(objects, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeMalformedLine, Path: path, Line: lineNo, Err: err}
	}
	return objects, nil
}

// ScanObjects reads a JSONL file leniently: malformed or non-object
// lines are skipped instead of failing, and a missing file yields an
// empty slice. Used by triage tooling over partially written artifacts.
func ScanObjects(path string) []map[string]any {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var objects []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		obj, err := decodeObject([]byte(raw))
		if err != nil {
			continue
		}
		objects = append(objects, obj)
	}
	return objects
}

// Load reads a trace file into its typed event sequence.
// Fails with EMPTY_TRACE if no events result.
func Load(path string) ([]Event, error) {
	objects, err := ReadObjects(path)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, &LoadError{Code: ErrCodeEmptyTrace, Path: path}
	}
	events := make([]Event, len(objects))
	for i, obj := range objects {
		events[i] = eventFromObject(obj)
	}
	return events, nil
}

// decodeObject decodes one line into a JSON object. Numbers are kept as
// json.Number so integer payloads survive coercion without a float
// round-trip.
func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object per line, got %T", raw)
	}
	return obj, nil
}
