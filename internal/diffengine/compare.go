package diffengine

import (
	"fmt"

	"github.com/nightisyang/frankentui/internal/signature"
)

// Compare diffs a target Signature against a baseline Signature.
//
// Checks run in a fixed order: run_end scalars, resize inputs,
// geometry sequence, frame count, final frame. Length mismatches on a
// sequence still allow per-index checks over the overlapping prefix.
//
// Frame content is never diffed element-wise: repaint cadence
// legitimately varies across runtimes, so only the count, the distinct
// geometry sequence and the final frame pin down rendering behavior.
func Compare(baseline, target *signature.Signature) []Diff {
	var diffs []Diff

	appendDiff := func(class, path string, expected, actual any, details string) {
		diffs = append(diffs, Diff{
			Class:    class,
			Path:     path,
			Expected: expected,
			Actual:   actual,
			Details:  details,
		})
	}

	runEndFields := []struct {
		name             string
		expected, actual any
	}{
		{"status", baseline.RunEnd.Status, target.RunEnd.Status},
		{"outcome", baseline.RunEnd.Outcome, target.RunEnd.Outcome},
		{"frames", baseline.RunEnd.FrameCount, target.RunEnd.FrameCount},
	}
	for _, f := range runEndFields {
		if f.expected != f.actual {
			appendDiff(ClassRunEndMismatch, "run_end."+f.name,
				f.expected, f.actual, "run_end field diverged")
		}
	}

	if len(baseline.ResizeInputs) != len(target.ResizeInputs) {
		appendDiff(ClassResizeInputsLength, "resize_inputs.length",
			len(baseline.ResizeInputs), len(target.ResizeInputs),
			"resize input event count diverged")
	}
	for i := 0; i < min(len(baseline.ResizeInputs), len(target.ResizeInputs)); i++ {
		left := baseline.ResizeInputs[i]
		right := target.ResizeInputs[i]
		// Geometry and hash_key are independent checks; both may fire
		// for the same index.
		if left.Cols != right.Cols || left.Rows != right.Rows {
			appendDiff(ClassResizeInputGeometry,
				fmt.Sprintf("resize_inputs[%d].cols_rows", i),
				signature.Geometry(left.Cols, left.Rows),
				signature.Geometry(right.Cols, right.Rows),
				"resize geometry diverged")
		}
		if left.HashKey != right.HashKey {
			appendDiff(ClassResizeInputHashKey,
				fmt.Sprintf("resize_inputs[%d].hash_key", i),
				left.HashKey, right.HashKey, "resize hash_key diverged")
		}
	}

	if len(baseline.GeometrySequence) != len(target.GeometrySequence) {
		appendDiff(ClassGeometrySeqLength, "geometry_sequence.length",
			len(baseline.GeometrySequence), len(target.GeometrySequence),
			"unique frame geometry sequence length diverged")
	}
	for i := 0; i < min(len(baseline.GeometrySequence), len(target.GeometrySequence)); i++ {
		if baseline.GeometrySequence[i] != target.GeometrySequence[i] {
			appendDiff(ClassGeometrySeqValue,
				fmt.Sprintf("geometry_sequence[%d]", i),
				baseline.GeometrySequence[i], target.GeometrySequence[i],
				"unique frame geometry diverged")
		}
	}

	if len(baseline.Frames) != len(target.Frames) {
		appendDiff(ClassFrameCount, "frames.length",
			len(baseline.Frames), len(target.Frames),
			"frame event count diverged")
	}

	if len(baseline.Frames) > 0 && len(target.Frames) > 0 {
		last := baseline.Frames[len(baseline.Frames)-1]
		tlast := target.Frames[len(target.Frames)-1]
		if last.Cols != tlast.Cols || last.Rows != tlast.Rows {
			appendDiff(ClassFinalFrameGeometry, "frames[-1].cols_rows",
				signature.Geometry(last.Cols, last.Rows),
				signature.Geometry(tlast.Cols, tlast.Rows),
				"final frame geometry diverged")
		}
		if last.HashKey != tlast.HashKey {
			appendDiff(ClassFinalFrameHashKey, "frames[-1].hash_key",
				last.HashKey, tlast.HashKey, "final frame hash_key diverged")
		}
	}

	return diffs
}
