// Package trace loads browser-labeled JSONL event traces and exposes
// them as a typed event stream.
//
// A trace is an ordered sequence of JSON objects, one per line, with a
// discriminating "type" field. Only run_end, input and frame events are
// interpreted downstream; everything else is carried through as an
// Unrecognized event so the file order stays the canonical timeline.
//
// Scalar fields inside events are read through coercion accessors that
// default on mismatch (ints to -1, strings to "") instead of failing.
// Cross-runtime payload drift must degrade to a visible, diffable value,
// never abort a comparison run.
package trace
