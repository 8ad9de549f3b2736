// Package rules implements the known-divergence rule set: authored,
// ordered, glob-based exemptions that reclassify diffs as expected.
package rules

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"
)

// Rule is one authored known-divergence exemption. All pattern fields
// are whole-string shell globs (*, ?, character classes),
// case-sensitive. Authoring order is priority: the first matching rule
// wins.
type Rule struct {
	ClassPattern        string
	LeftBrowserPattern  string
	RightBrowserPattern string
	PathPattern         string
	Rationale           string
}

// FormatError reports a malformed rule file row.
type FormatError struct {
	Path   string
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s:%d: RULE_FORMAT_ERROR: %s", e.Path, e.Line, e.Reason)
}

// ParseFile reads a known-divergence rule file: UTF-8 text, five
// tab-separated columns (class, left, right, path_pattern, rationale).
// Blank lines and #-comments are skipped. Empty pattern cells default
// to "*" (match-all). Malformed rows and unparseable glob patterns
// fail with FormatError carrying the line number.
func ParseFile(filePath string) ([]Rule, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("known divergences file not found: %s", filePath)
	}
	defer f.Close()

	var ruleSet []Rule
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		parts := strings.Split(raw, "\t")
		if len(parts) < 5 {
			return nil, &FormatError{
				Path:   filePath,
				Line:   lineNo,
				Reason: "expected 5 tab-separated fields (class, left, right, path_pattern, rationale)",
			}
		}
		rule := Rule{
			ClassPattern:        patternOrAll(parts[0]),
			LeftBrowserPattern:  patternOrAll(parts[1]),
			RightBrowserPattern: patternOrAll(parts[2]),
			PathPattern:         patternOrAll(parts[3]),
			Rationale:           strings.TrimSpace(parts[4]),
		}
		for _, p := range []string{rule.ClassPattern, rule.LeftBrowserPattern, rule.RightBrowserPattern, rule.PathPattern} {
			if _, err := path.Match(p, ""); err != nil {
				return nil, &FormatError{
					Path:   filePath,
					Line:   lineNo,
					Reason: fmt.Sprintf("invalid glob pattern %q", p),
				}
			}
		}
		ruleSet = append(ruleSet, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return ruleSet, nil
}

func patternOrAll(cell string) string {
	if trimmed := strings.TrimSpace(cell); trimmed != "" {
		return trimmed
	}
	return "*"
}

// glob matches a whole string against a shell pattern. Patterns were
// validated at parse time, so a match error cannot occur here.
func glob(pattern, name string) bool {
	ok, _ := path.Match(pattern, name)
	return ok
}

// matchesPair reports whether the rule's browser patterns cover the
// baseline/target pair in either orientation. The symmetry lets one
// authored rule suppress the divergence regardless of which trace is
// the baseline in a given invocation.
func (r Rule) matchesPair(baseline, target string) bool {
	forward := glob(r.LeftBrowserPattern, baseline) && glob(r.RightBrowserPattern, target)
	reverse := glob(r.LeftBrowserPattern, target) && glob(r.RightBrowserPattern, baseline)
	return forward || reverse
}
