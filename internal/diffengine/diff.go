// Package diffengine structurally compares two trace Signatures.
//
// The diff order is fixed and the comparison is deterministic so that
// repeated runs over identical inputs gate a pipeline reproducibly.
// A Diff carries no severity; acceptability is resolved downstream by
// the divergence rules.
package diffengine

// Diff records one structural divergence between a baseline and a
// target Signature. Immutable once created.
type Diff struct {
	Class    string `json:"class"`
	Path     string `json:"path"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Details  string `json:"details"`
}

// Diff classes, in the order the engine emits them.
const (
	ClassRunEndMismatch       = "run_end_mismatch"
	ClassResizeInputsLength   = "resize_inputs_length"
	ClassResizeInputGeometry  = "resize_input_geometry"
	ClassResizeInputHashKey   = "resize_input_hash_key"
	ClassGeometrySeqLength    = "geometry_sequence_length"
	ClassGeometrySeqValue     = "geometry_sequence_value"
	ClassFrameCount           = "frame_count"
	ClassFinalFrameGeometry   = "final_frame_geometry"
	ClassFinalFrameHashKey    = "final_frame_hash_key"
)
