package trace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrace(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("typed event sequence in file order", func(t *testing.T) {
		path := writeTrace(t, `{"type":"input","input_type":"resize","cols":80,"rows":24,"hash_key":"r1"}
{"type":"frame","cols":80,"rows":24,"frame_hash":"f1","hash_key":"k1"}
{"type":"run_end","status":"completed","outcome":"pass","frames":1,"checksum_chain":"cc","output_sha256":"os"}
`)

		events, err := Load(path)
		require.NoError(t, err)
		require.Len(t, events, 3)

		assert.Equal(t, Input{InputType: "resize", Cols: 80, Rows: 24, HashKey: "r1"}, events[0])
		assert.Equal(t, Frame{Cols: 80, Rows: 24, FrameHash: "f1", HashKey: "k1"}, events[1])
		assert.Equal(t, RunEnd{Status: "completed", Outcome: "pass", Frames: 1, ChecksumChain: "cc", OutputSHA256: "os"}, events[2])
	})

	t.Run("blank lines skipped", func(t *testing.T) {
		path := writeTrace(t, "\n{\"type\":\"run_end\",\"status\":\"completed\"}\n   \n")

		events, err := Load(path)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("unknown type preserved as unrecognized", func(t *testing.T) {
		path := writeTrace(t, `{"type":"heartbeat","seq":1}
{"type":"run_end","status":"completed"}
`)

		events, err := Load(path)
		require.NoError(t, err)
		require.Len(t, events, 2)

		un, ok := events[0].(Unrecognized)
		require.True(t, ok)
		assert.Equal(t, "heartbeat", un.Type)
		assert.Equal(t, json.Number("1"), un.Payload["seq"])
	})

	t.Run("missing type field is unrecognized", func(t *testing.T) {
		path := writeTrace(t, `{"status":"completed"}
{"type":"run_end","status":"completed"}
`)

		events, err := Load(path)
		require.NoError(t, err)

		un, ok := events[0].(Unrecognized)
		require.True(t, ok)
		assert.Equal(t, "", un.Type)
	})

	t.Run("drifted payload coerces instead of failing", func(t *testing.T) {
		path := writeTrace(t, `{"type":"input","input_type":"resize","cols":"80","rows":"tall"}
{"type":"run_end","status":"completed","frames":"3"}
`)

		events, err := Load(path)
		require.NoError(t, err)

		in := events[0].(Input)
		assert.Equal(t, 80, in.Cols)
		assert.Equal(t, DefaultInt, in.Rows)
		assert.Equal(t, "", in.HashKey)

		re := events[1].(RunEnd)
		assert.Equal(t, 3, re.Frames)
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.jsonl"))

		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ErrCodeTraceNotFound, loadErr.Code)
	})

	t.Run("unopenable path is not mislabeled as missing", func(t *testing.T) {
		// A regular file in the middle of the path fails open with
		// ENOTDIR, which is an access problem, not an absent trace.
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		_, err := Load(filepath.Join(blocker, "trace.jsonl"))

		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ErrCodeTraceUnreadable, loadErr.Code)
	})

	t.Run("malformed line reports its line number", func(t *testing.T) {
		path := writeTrace(t, `{"type":"run_end","status":"completed"}
not json at all
`)

		_, err := Load(path)

		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ErrCodeMalformedLine, loadErr.Code)
		assert.Equal(t, 2, loadErr.Line)
		assert.Contains(t, loadErr.Error(), ":2:")
	})

	t.Run("non-object line is malformed", func(t *testing.T) {
		path := writeTrace(t, `[1,2,3]
`)

		_, err := Load(path)

		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ErrCodeMalformedLine, loadErr.Code)
		assert.Equal(t, 1, loadErr.Line)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeTrace(t, "\n\n")

		_, err := Load(path)

		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ErrCodeEmptyTrace, loadErr.Code)
	})
}

func TestScanObjects(t *testing.T) {
	t.Run("skips malformed lines", func(t *testing.T) {
		path := writeTrace(t, `{"type":"step_start"}
garbage
42
{"type":"step_end"}
`)

		objects := ScanObjects(path)
		require.Len(t, objects, 2)
		assert.Equal(t, "step_start", objects[0]["type"])
		assert.Equal(t, "step_end", objects[1]["type"])
	})

	t.Run("missing file yields nil", func(t *testing.T) {
		assert.Nil(t, ScanObjects(filepath.Join(t.TempDir(), "absent.jsonl")))
	})
}
