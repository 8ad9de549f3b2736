// Package signature projects a raw trace event sequence into a
// canonical, comparable Signature.
//
// Extraction is a pure function of the event sequence: identical inputs
// always yield identical Signatures. That determinism is what makes the
// comparison usable as a CI gate.
package signature

import (
	"errors"
	"fmt"

	"github.com/nightisyang/frankentui/internal/trace"
)

// ErrMissingRunEnd indicates a trace with no run_end event. Such a
// trace cannot be summarized and fails the whole invocation.
var ErrMissingRunEnd = errors.New("missing run_end event")

// RunEndSummary is the normalized terminal summary of a run.
// All fields carry the coercion defaults of the trace package when the
// producer's payload drifted.
type RunEndSummary struct {
	Status        string
	Outcome       string
	FrameCount    int
	ChecksumChain string
	OutputHash    string
}

// ResizeInput is one delivered resize event, in file order.
type ResizeInput struct {
	Cols    int
	Rows    int
	HashKey string
}

// Frame is one rendered frame event, in file order.
type Frame struct {
	Cols      int
	Rows      int
	FrameHash string
	HashKey   string
}

// Signature is the canonical projection of one trace. It restricts the
// invariant surface to outcome, delivered input sequence, distinct
// geometries reached, and the final rendered state; repaint cadence is
// deliberately not part of it.
type Signature struct {
	RunEnd           RunEndSummary
	ResizeInputs     []ResizeInput
	Frames           []Frame
	GeometrySequence []string
}

// Geometry renders a cols/rows pair in the canonical "{cols}x{rows}"
// form used throughout diffs and the geometry sequence.
func Geometry(cols, rows int) string {
	return fmt.Sprintf("%dx%d", cols, rows)
}

// Extract derives the Signature of an event sequence.
//
// The last run_end event is authoritative: producers may emit a
// provisional run_end followed by a final one. Absence of any run_end
// returns ErrMissingRunEnd.
func Extract(events []trace.Event) (*Signature, error) {
	var runEnd *trace.RunEnd
	for _, ev := range events {
		if re, ok := ev.(trace.RunEnd); ok {
			runEnd = &re
		}
	}
	if runEnd == nil {
		return nil, ErrMissingRunEnd
	}

	sig := &Signature{
		RunEnd: RunEndSummary{
			Status:        runEnd.Status,
			Outcome:       runEnd.Outcome,
			FrameCount:    runEnd.Frames,
			ChecksumChain: runEnd.ChecksumChain,
			OutputHash:    runEnd.OutputSHA256,
		},
	}

	for _, ev := range events {
		switch e := ev.(type) {
		case trace.Input:
			if e.InputType != "resize" {
				continue
			}
			sig.ResizeInputs = append(sig.ResizeInputs, ResizeInput{
				Cols:    e.Cols,
				Rows:    e.Rows,
				HashKey: e.HashKey,
			})
		case trace.Frame:
			sig.Frames = append(sig.Frames, Frame{
				Cols:      e.Cols,
				Rows:      e.Rows,
				FrameHash: e.FrameHash,
				HashKey:   e.HashKey,
			})
		}
	}

	// Consecutive-repeat collapse, not full deduplication: a geometry
	// that recurs non-consecutively appears again.
	for _, f := range sig.Frames {
		geom := Geometry(f.Cols, f.Rows)
		if n := len(sig.GeometrySequence); n == 0 || sig.GeometrySequence[n-1] != geom {
			sig.GeometrySequence = append(sig.GeometrySequence, geom)
		}
	}

	return sig, nil
}
