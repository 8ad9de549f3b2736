package triage

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// Run triages one run root. It expects the harness layout
// (meta/summary.json, meta/events.jsonl,
// meta/events_validation_report.json) but tolerates any subset being
// missing or truncated; only a run with neither summary nor events is
// an error.
func Run(runRoot string, maxSignals, maxTimeline int) (*Report, error) {
	metaDir := filepath.Join(runRoot, "meta")
	summaryPath := filepath.Join(metaDir, "summary.json")
	eventsPath := filepath.Join(metaDir, "events.jsonl")
	validationPath := filepath.Join(metaDir, "events_validation_report.json")

	summary := LoadJSON(summaryPath)
	events := LoadEvents(eventsPath)
	validation := LoadJSON(validationPath)

	if len(summary) == 0 && len(events) == 0 {
		return nil, fmt.Errorf("could not load summary/events artifacts under %s", runRoot)
	}

	signals := Dedupe(CollectSignals(summary, events, validation))

	if maxSignals < 1 {
		maxSignals = 1
	}
	top := signals
	if len(top) > maxSignals {
		top = top[:maxSignals]
	}
	if top == nil {
		top = []Signal{}
	}

	status, _ := summary["status"].(string)
	if status == "" {
		switch {
		case len(signals) > 0:
			status = "failed"
		case len(events) > 0:
			status = "passed"
		default:
			status = "unknown"
		}
	}

	return &Report{
		ReportID:          uuid.Must(uuid.NewV7()).String(),
		Status:            status,
		RunRoot:           runRoot,
		SummaryPath:       summaryPath,
		EventsPath:        eventsPath,
		ValidationPath:    validationPath,
		EventCount:        len(events),
		Timeline:          BuildTimeline(events, maxTimeline),
		SignalCount:       len(signals),
		TopFailureSignals: top,
	}, nil
}
