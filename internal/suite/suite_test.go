package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full suite", func(t *testing.T) {
		path := writeSuite(t, `name: resize_storm_nightly
baseline: chrome
mode: strict
known: rules/known_divergences.tsv
traces:
  - browser: chrome
    path: traces/chrome.jsonl
  - browser: firefox
    path: traces/firefox.jsonl
`)

		s, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "resize_storm_nightly", s.Name)
		assert.Equal(t, "chrome", s.Baseline)
		assert.Equal(t, "strict", s.Mode)
		assert.Equal(t, "rules/known_divergences.tsv", s.Known)
		require.Len(t, s.Traces, 2)
		assert.Equal(t, TraceRef{Browser: "chrome", Path: "traces/chrome.jsonl"}, s.Traces[0])
	})

	t.Run("minimal suite", func(t *testing.T) {
		path := writeSuite(t, `traces:
  - browser: chrome
    path: a.jsonl
  - browser: firefox
    path: b.jsonl
`)

		s, err := Load(path)
		require.NoError(t, err)
		assert.Empty(t, s.Name)
		assert.Empty(t, s.Mode)
		assert.Len(t, s.Traces, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeSuite(t, "traces: [unclosed\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid YAML")
	})

	t.Run("invalid mode rejected by schema", func(t *testing.T) {
		path := writeSuite(t, `mode: lenient
traces:
  - browser: chrome
    path: a.jsonl
`)

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema violation")
	})

	t.Run("missing traces rejected by schema", func(t *testing.T) {
		path := writeSuite(t, "name: no_traces\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema violation")
	})

	t.Run("unknown field rejected by schema", func(t *testing.T) {
		path := writeSuite(t, `basline: chrome
traces:
  - browser: chrome
    path: a.jsonl
`)

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema violation")
	})

	t.Run("trace entry missing path rejected", func(t *testing.T) {
		path := writeSuite(t, `traces:
  - browser: chrome
`)

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema violation")
	})

	t.Run("duplicate browser labels rejected", func(t *testing.T) {
		path := writeSuite(t, `traces:
  - browser: chrome
    path: a.jsonl
  - browser: chrome
    path: b.jsonl
`)

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate browser label")
	})
}
