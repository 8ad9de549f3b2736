// Package report aggregates pairwise signature comparisons into the
// single JSON report that gates a pipeline run.
package report

import (
	"github.com/nightisyang/frankentui/internal/diffengine"
	"github.com/nightisyang/frankentui/internal/rules"
	"github.com/nightisyang/frankentui/internal/signature"
)

// Mode governs whether unknown divergences warn or fail the run.
type Mode string

const (
	ModeWarn   Mode = "warn"
	ModeStrict Mode = "strict"
)

// Valid reports whether m is a recognized mode.
func (m Mode) Valid() bool {
	return m == ModeWarn || m == ModeStrict
}

// Status is a per-comparison or overall verdict.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// DefaultSuite names the comparison suite in the report when no suite
// config overrides it.
const DefaultSuite = "remote_resize_storm_cross_browser_diff"

// Input labels one trace source. Labels are unique within a run.
type Input struct {
	Browser string
	Path    string
}

// Comparison is the outcome of diffing one target trace against the
// baseline.
type Comparison struct {
	BaselineBrowser string                 `json:"baseline_browser"`
	TargetBrowser   string                 `json:"target_browser"`
	TotalDiffs      int                    `json:"total_diffs"`
	KnownDiffs      []rules.ClassifiedDiff `json:"known_diffs"`
	UnknownDiffs    []rules.ClassifiedDiff `json:"unknown_diffs"`
	Status          Status                 `json:"status"`
}

// Summary rolls up totals across all comparisons.
type Summary struct {
	TotalComparisons int    `json:"total_comparisons"`
	TotalDiffs       int    `json:"total_diffs"`
	KnownDiffs       int    `json:"known_diffs"`
	UnknownDiffs     int    `json:"unknown_diffs"`
	Status           Status `json:"status"`
}

// Report is the aggregate of all comparisons plus run metadata. It is
// the only persisted entity of a run, and a pure function of the trace
// set and rule file: identical inputs always serialize to identical
// bytes.
type Report struct {
	Suite                      string            `json:"suite"`
	Mode                       Mode              `json:"mode"`
	BaselineBrowser            string            `json:"baseline_browser"`
	TraceInputs                map[string]string `json:"trace_inputs"`
	KnownDivergenceRulesLoaded int               `json:"known_divergence_rules_loaded"`
	Summary                    Summary           `json:"summary"`
	Comparisons                []Comparison      `json:"comparisons"`
}

// statusFor maps an unknown-diff count to a verdict under the mode.
func statusFor(unknownCount int, mode Mode) Status {
	if unknownCount == 0 {
		return StatusPass
	}
	if mode == ModeWarn {
		return StatusWarn
	}
	return StatusFail
}

// Build runs one comparison per non-baseline input, in authoring order,
// and rolls up the verdict. Baseline-vs-baseline is never compared.
// Signatures must already be extracted, one per labeled input; they are
// reused across comparisons, never recomputed.
func Build(suite string, mode Mode, baselineBrowser string, inputs []Input, sigs map[string]*signature.Signature, ruleSet []rules.Rule) *Report {
	r := &Report{
		Suite:                      suite,
		Mode:                       mode,
		BaselineBrowser:            baselineBrowser,
		TraceInputs:                make(map[string]string, len(inputs)),
		KnownDivergenceRulesLoaded: len(ruleSet),
		Comparisons:                []Comparison{},
	}
	for _, in := range inputs {
		r.TraceInputs[in.Browser] = in.Path
	}

	baselineSig := sigs[baselineBrowser]
	for _, in := range inputs {
		if in.Browser == baselineBrowser {
			continue
		}
		diffs := diffengine.Compare(baselineSig, sigs[in.Browser])
		known, unknown := rules.Classify(diffs, baselineBrowser, in.Browser, ruleSet)
		if known == nil {
			known = []rules.ClassifiedDiff{}
		}
		if unknown == nil {
			unknown = []rules.ClassifiedDiff{}
		}

		r.Comparisons = append(r.Comparisons, Comparison{
			BaselineBrowser: baselineBrowser,
			TargetBrowser:   in.Browser,
			TotalDiffs:      len(diffs),
			KnownDiffs:      known,
			UnknownDiffs:    unknown,
			Status:          statusFor(len(unknown), mode),
		})

		r.Summary.TotalComparisons++
		r.Summary.TotalDiffs += len(diffs)
		r.Summary.KnownDiffs += len(known)
		r.Summary.UnknownDiffs += len(unknown)
	}

	// The overall status mirrors the per-comparison rule applied to the
	// union of unknown diffs, so it is never better than the worst
	// individual comparison.
	r.Summary.Status = statusFor(r.Summary.UnknownDiffs, mode)
	return r
}
