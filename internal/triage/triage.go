// Package triage condenses a failed e2e run root into ranked failure
// signals and a compact timeline, pointing straight at the artifacts
// worth opening first.
package triage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nightisyang/frankentui/internal/trace"
)

// Signal is one ranked failure indicator extracted from the run
// artifacts. Higher severity sorts first.
type Signal struct {
	Severity   int            `json:"severity"`
	Message    string         `json:"message"`
	EventIndex int            `json:"event_index"` // 0 when not event-scoped
	EventType  string         `json:"event_type"`
	CaseID     string         `json:"case_id"`
	StepID     string         `json:"step_id"`
	Pointers   []string       `json:"pointers"`
	Expected   map[string]any `json:"expected"`
	Actual     map[string]any `json:"actual"`
}

// Report is the machine-readable triage summary.
type Report struct {
	ReportID          string          `json:"report_id"`
	Status            string          `json:"status"`
	RunRoot           string          `json:"run_root"`
	SummaryPath       string          `json:"summary_path"`
	EventsPath        string          `json:"events_path"`
	ValidationPath    string          `json:"events_validation_report_path"`
	EventCount        int             `json:"event_count"`
	Timeline          []TimelineEntry `json:"timeline"`
	SignalCount       int             `json:"signal_count"`
	TopFailureSignals []Signal        `json:"top_failure_signals"`
}

// TimelineEntry is one event in the compact run timeline.
type TimelineEntry struct {
	EventIndex   int    `json:"event_index"`
	TimestampUTC string `json:"timestamp_utc"`
	EventType    string `json:"event_type"`
	CaseID       string `json:"case_id"`
	StepID       string `json:"step_id"`
	Command      any    `json:"command"`
	ExitCode     any    `json:"exit_code"`
}

// artifactPointerKeys are the actual-payload fields that reference
// on-disk artifacts worth surfacing next to a signal.
var artifactPointerKeys = []string{
	"stdout_log",
	"stderr_log",
	"env_snapshot",
	"events_jsonl",
	"events_validation_report",
	"summary_json",
}

// LoadJSON leniently reads a JSON object file; missing or malformed
// artifacts yield an empty map so triage still runs on partial runs.
func LoadJSON(path string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return map[string]any{}
	}
	if obj == nil {
		return map[string]any{}
	}
	return obj
}

// LoadEvents leniently reads the run's events.jsonl.
func LoadEvents(path string) []map[string]any {
	return trace.ScanObjects(path)
}

func collectPointers(actual map[string]any) []string {
	var pointers []string
	for _, key := range artifactPointerKeys {
		if value, ok := actual[key].(string); ok && value != "" {
			pointers = append(pointers, key+"="+value)
		}
	}
	if missing, ok := actual["missing_artifacts"].([]any); ok {
		for _, item := range missing {
			if artifact, ok := item.(string); ok && artifact != "" {
				pointers = append(pointers, "missing_artifact="+artifact)
			}
		}
	}
	return pointers
}

func asObject(v any) map[string]any {
	if obj, ok := v.(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// CollectSignals scans the run summary, the validation report and the
// event stream for failure indicators.
func CollectSignals(summary map[string]any, events []map[string]any, validation map[string]any) []Signal {
	var signals []Signal

	if summary["status"] == "failed" {
		signals = append(signals, Signal{
			Severity:  100,
			Message:   "summary status is failed",
			EventType: "summary",
			Pointers:  collectPointers(summary),
			Expected:  map[string]any{},
			Actual:    summary,
		})
	}

	if validation["status"] == "failed" {
		message := "events validation report failed"
		errorList, _ := validation["errors"].([]any)
		if len(errorList) > 0 {
			message = fmt.Sprintf("events validation report failed (%d errors)", len(errorList))
		}
		if errorList == nil {
			errorList = []any{}
		}
		signals = append(signals, Signal{
			Severity:  95,
			Message:   message,
			EventType: "events_validation",
			Pointers:  collectPointers(validation),
			Expected:  map[string]any{},
			Actual:    map[string]any{"errors": errorList},
		})
	}

	for i, event := range events {
		index := i + 1
		eventType, _ := event["event_type"].(string)
		caseID, _ := event["case_id"].(string)
		stepID, _ := event["step_id"].(string)
		expected := asObject(event["expected"])
		actual := asObject(event["actual"])

		if exitCode, ok := intValue(event["exit_code"]); ok && exitCode != 0 {
			if eventType == "step_end" || eventType == "case_end" || eventType == "run_end" {
				severity := 75
				if eventType == "run_end" {
					severity = 90
				}
				signals = append(signals, Signal{
					Severity:   severity,
					Message:    fmt.Sprintf("%s exit_code=%d", eventType, exitCode),
					EventIndex: index,
					EventType:  eventType,
					CaseID:     caseID,
					StepID:     stepID,
					Pointers:   collectPointers(actual),
					Expected:   expected,
					Actual:     actual,
				})
			}
		}

		if pass, ok := actual["pass"].(bool); ok && !pass {
			signals = append(signals, Signal{
				Severity:   80,
				Message:    "case reported pass=false",
				EventIndex: index,
				EventType:  eventType,
				CaseID:     caseID,
				StepID:     stepID,
				Pointers:   collectPointers(actual),
				Expected:   expected,
				Actual:     actual,
			})
		}

		if missing, ok := actual["missing_artifacts"].([]any); ok && len(missing) > 0 {
			signals = append(signals, Signal{
				Severity:   70,
				Message:    fmt.Sprintf("missing_artifacts count=%d", len(missing)),
				EventIndex: index,
				EventType:  eventType,
				CaseID:     caseID,
				StepID:     stepID,
				Pointers:   collectPointers(actual),
				Expected:   expected,
				Actual:     actual,
			})
		}

		if len(expected) > 0 && len(actual) > 0 {
			var mismatched []string
			for key, want := range expected {
				if got, ok := actual[key]; ok && !jsonEqual(got, want) {
					mismatched = append(mismatched, key)
				}
			}
			if len(mismatched) > 0 {
				sort.Strings(mismatched)
				signals = append(signals, Signal{
					Severity:   65,
					Message:    "expected/actual mismatch keys=" + strings.Join(mismatched, ","),
					EventIndex: index,
					EventType:  eventType,
					CaseID:     caseID,
					StepID:     stepID,
					Pointers:   collectPointers(actual),
					Expected:   expected,
					Actual:     actual,
				})
			}
		}
	}

	sort.SliceStable(signals, func(a, b int) bool {
		if signals[a].Severity != signals[b].Severity {
			return signals[a].Severity > signals[b].Severity
		}
		ai, bi := signals[a].EventIndex, signals[b].EventIndex
		if ai == 0 {
			ai = int(^uint(0) >> 1)
		}
		if bi == 0 {
			bi = int(^uint(0) >> 1)
		}
		return ai < bi
	})
	return signals
}

// Dedupe drops signals with an identical fingerprint, keeping the
// first (highest-ranked) occurrence.
func Dedupe(signals []Signal) []Signal {
	type fingerprint struct {
		Severity   int
		Message    string
		EventIndex int
		EventType  string
		CaseID     string
		StepID     string
	}
	seen := map[fingerprint]bool{}
	var out []Signal
	for _, s := range signals {
		fp := fingerprint{s.Severity, s.Message, s.EventIndex, s.EventType, s.CaseID, s.StepID}
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, s)
	}
	return out
}

// BuildTimeline projects the event stream into compact entries,
// truncated at maxEntries (0 or negative keeps everything).
func BuildTimeline(events []map[string]any, maxEntries int) []TimelineEntry {
	timeline := make([]TimelineEntry, 0, len(events))
	for i, event := range events {
		ts, _ := event["timestamp_utc"].(string)
		eventType, _ := event["event_type"].(string)
		caseID, _ := event["case_id"].(string)
		stepID, _ := event["step_id"].(string)
		timeline = append(timeline, TimelineEntry{
			EventIndex:   i + 1,
			TimestampUTC: ts,
			EventType:    eventType,
			CaseID:       caseID,
			StepID:       stepID,
			Command:      event["command"],
			ExitCode:     event["exit_code"],
		})
	}
	if maxEntries > 0 && len(timeline) > maxEntries {
		timeline = timeline[:maxEntries]
	}
	return timeline
}

func jsonEqual(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ab) == string(bb)
}
