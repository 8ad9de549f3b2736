package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightisyang/frankentui/internal/diffengine"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "known_divergences.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFile(t *testing.T) {
	t.Run("rows with comments and blanks", func(t *testing.T) {
		path := writeRules(t, "# resize storm known divergences\n"+
			"\n"+
			"frame_count\tfirefox*\tchrome*\t*\tfirefox coalesces repaints under storm\n"+
			"geometry_sequence_*\t*\t*\tgeometry_sequence\\[*\ttransitional geometry skipped\n")

		ruleSet, err := ParseFile(path)
		require.NoError(t, err)
		require.Len(t, ruleSet, 2)

		assert.Equal(t, Rule{
			ClassPattern:        "frame_count",
			LeftBrowserPattern:  "firefox*",
			RightBrowserPattern: "chrome*",
			PathPattern:         "*",
			Rationale:           "firefox coalesces repaints under storm",
		}, ruleSet[0])
		assert.Equal(t, "geometry_sequence_*", ruleSet[1].ClassPattern)
	})

	t.Run("empty pattern cells default to match-all", func(t *testing.T) {
		path := writeRules(t, "frame_count\t\t\t\tcadence differs\n")

		ruleSet, err := ParseFile(path)
		require.NoError(t, err)
		require.Len(t, ruleSet, 1)
		assert.Equal(t, "*", ruleSet[0].LeftBrowserPattern)
		assert.Equal(t, "*", ruleSet[0].RightBrowserPattern)
		assert.Equal(t, "*", ruleSet[0].PathPattern)
	})

	t.Run("extra columns folded into nothing", func(t *testing.T) {
		// A sixth column is tolerated: only the first five are read.
		path := writeRules(t, "frame_count\t*\t*\t*\tcadence\textra\n")

		ruleSet, err := ParseFile(path)
		require.NoError(t, err)
		assert.Equal(t, "cadence", ruleSet[0].Rationale)
	})

	t.Run("too few columns", func(t *testing.T) {
		path := writeRules(t, "frame_count\t*\t*\n")

		_, err := ParseFile(path)

		var formatErr *FormatError
		require.ErrorAs(t, err, &formatErr)
		assert.Equal(t, 1, formatErr.Line)
		assert.Contains(t, formatErr.Error(), "RULE_FORMAT_ERROR")
	})

	t.Run("error line number skips comments", func(t *testing.T) {
		path := writeRules(t, "# header\n\nbad row without tabs\n")

		_, err := ParseFile(path)

		var formatErr *FormatError
		require.ErrorAs(t, err, &formatErr)
		assert.Equal(t, 3, formatErr.Line)
	})

	t.Run("invalid glob pattern", func(t *testing.T) {
		path := writeRules(t, "frame_count\t[unclosed\t*\t*\tbad pattern\n")

		_, err := ParseFile(path)

		var formatErr *FormatError
		require.ErrorAs(t, err, &formatErr)
		assert.Contains(t, formatErr.Reason, "invalid glob pattern")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ParseFile(filepath.Join(t.TempDir(), "absent.tsv"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestClassify(t *testing.T) {
	frameCountDiff := diffengine.Diff{
		Class:    diffengine.ClassFrameCount,
		Path:     "frames.length",
		Expected: 12,
		Actual:   9,
	}

	t.Run("known and unknown partition", func(t *testing.T) {
		ruleSet := []Rule{
			{ClassPattern: "frame_count", LeftBrowserPattern: "*", RightBrowserPattern: "*", PathPattern: "*", Rationale: "cadence differs"},
		}
		diffs := []diffengine.Diff{
			frameCountDiff,
			{Class: diffengine.ClassRunEndMismatch, Path: "run_end.status", Expected: "completed", Actual: "crashed"},
		}

		known, unknown := Classify(diffs, "chrome", "firefox", ruleSet)

		require.Len(t, known, 1)
		assert.Equal(t, "cadence differs", known[0].KnownRationale)
		assert.Equal(t, "chrome", known[0].BaselineBrowser)
		assert.Equal(t, "firefox", known[0].TargetBrowser)

		require.Len(t, unknown, 1)
		assert.Equal(t, diffengine.ClassRunEndMismatch, unknown[0].Class)
		assert.Empty(t, unknown[0].KnownRationale)
	})

	t.Run("browser patterns match either orientation", func(t *testing.T) {
		ruleSet := []Rule{
			{ClassPattern: "*", LeftBrowserPattern: "firefoxish*", RightBrowserPattern: "chromish*", PathPattern: "*", Rationale: "engine pair quirk"},
		}
		diffs := []diffengine.Diff{frameCountDiff}

		known, unknown := Classify(diffs, "chromish-119", "firefoxish-beta", ruleSet)
		assert.Len(t, known, 1)
		assert.Empty(t, unknown)

		known, unknown = Classify(diffs, "firefoxish-beta", "chromish-119", ruleSet)
		assert.Len(t, known, 1)
		assert.Empty(t, unknown)
	})

	t.Run("first matching rule wins", func(t *testing.T) {
		ruleSet := []Rule{
			{ClassPattern: "frame_count", LeftBrowserPattern: "*", RightBrowserPattern: "*", PathPattern: "*", Rationale: "specific first"},
			{ClassPattern: "*", LeftBrowserPattern: "*", RightBrowserPattern: "*", PathPattern: "*", Rationale: "catch-all second"},
		}

		known, _ := Classify([]diffengine.Diff{frameCountDiff}, "chrome", "firefox", ruleSet)
		require.Len(t, known, 1)
		assert.Equal(t, "specific first", known[0].KnownRationale)
	})

	t.Run("path pattern scopes the rule", func(t *testing.T) {
		// Scoping per-index paths needs the bracket escaped: an unescaped
		// "[" opens a character class.
		ruleSet := []Rule{
			{ClassPattern: "*", LeftBrowserPattern: "*", RightBrowserPattern: "*", PathPattern: `geometry_sequence\[*`, Rationale: "scoped"},
		}
		diffs := []diffengine.Diff{
			{Class: diffengine.ClassGeometrySeqValue, Path: "geometry_sequence[2]"},
			{Class: diffengine.ClassGeometrySeqLength, Path: "geometry_sequence.length"},
		}

		known, unknown := Classify(diffs, "chrome", "firefox", ruleSet)
		require.Len(t, known, 1)
		assert.Equal(t, "geometry_sequence[2]", known[0].Path)
		require.Len(t, unknown, 1)
		assert.Equal(t, "geometry_sequence.length", unknown[0].Path)
	})

	t.Run("unescaped bracket is a character class, not a literal", func(t *testing.T) {
		// "[*]" matches exactly the one character "*", so this rule never
		// covers an indexed path.
		ruleSet := []Rule{
			{ClassPattern: "*", LeftBrowserPattern: "*", RightBrowserPattern: "*", PathPattern: "geometry_sequence[*]", Rationale: "misauthored"},
		}
		diffs := []diffengine.Diff{
			{Class: diffengine.ClassGeometrySeqValue, Path: "geometry_sequence[2]"},
		}

		known, unknown := Classify(diffs, "chrome", "firefox", ruleSet)
		assert.Empty(t, known)
		require.Len(t, unknown, 1)

		known, _ = Classify([]diffengine.Diff{
			{Class: diffengine.ClassGeometrySeqValue, Path: "geometry_sequence*"},
		}, "chrome", "firefox", ruleSet)
		assert.Len(t, known, 1)
	})

	t.Run("whole-string matching, no substring shortcuts", func(t *testing.T) {
		ruleSet := []Rule{
			{ClassPattern: "frame", LeftBrowserPattern: "*", RightBrowserPattern: "*", PathPattern: "*", Rationale: "too narrow"},
		}

		known, unknown := Classify([]diffengine.Diff{frameCountDiff}, "chrome", "firefox", ruleSet)
		assert.Empty(t, known)
		assert.Len(t, unknown, 1)
	})

	t.Run("no rules leaves everything unknown", func(t *testing.T) {
		known, unknown := Classify([]diffengine.Diff{frameCountDiff}, "chrome", "firefox", nil)
		assert.Empty(t, known)
		assert.Len(t, unknown, 1)
	})
}
