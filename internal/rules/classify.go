package rules

import (
	"github.com/nightisyang/frankentui/internal/diffengine"
)

// ClassifiedDiff is a Diff annotated with the comparison context and,
// for known divergences, the rationale of the matching rule.
type ClassifiedDiff struct {
	diffengine.Diff
	BaselineBrowser string `json:"baseline_browser"`
	TargetBrowser   string `json:"target_browser"`
	KnownRationale  string `json:"known_rationale,omitempty"`
}

// Classify partitions diffs into known (matched by a rule) and unknown
// (unmatched). Rules are scanned linearly in authoring order and the
// first match wins; later matching rules are never considered. An
// unknown diff represents a real, unexplained behavioral divergence.
func Classify(diffs []diffengine.Diff, baselineBrowser, targetBrowser string, ruleSet []Rule) (known, unknown []ClassifiedDiff) {
	for _, d := range diffs {
		cd := ClassifiedDiff{
			Diff:            d,
			BaselineBrowser: baselineBrowser,
			TargetBrowser:   targetBrowser,
		}

		matched := false
		for _, rule := range ruleSet {
			if !glob(rule.ClassPattern, d.Class) {
				continue
			}
			if !glob(rule.PathPattern, d.Path) {
				continue
			}
			if !rule.matchesPair(baselineBrowser, targetBrowser) {
				continue
			}
			cd.KnownRationale = rule.Rationale
			matched = true
			break
		}

		if matched {
			known = append(known, cd)
		} else {
			unknown = append(unknown, cd)
		}
	}
	return known, unknown
}
