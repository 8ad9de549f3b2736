package trace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsInt(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		want  int
	}{
		{"integer number", json.Number("42"), 42},
		{"negative number", json.Number("-7"), -7},
		{"float truncates toward zero", json.Number("12.9"), 12},
		{"numeric string", "80", 80},
		{"numeric string with whitespace", " 24 ", 24},
		{"non-numeric string", "wide", DefaultInt},
		{"float string", "12.5", DefaultInt},
		{"bool true", true, 1},
		{"bool false", false, 0},
		{"nil", nil, DefaultInt},
		{"object", map[string]any{}, DefaultInt},
		{"array", []any{1}, DefaultInt},
		{"plain float64", 99.7, 99},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, asInt(tc.value))
		})
	}
}

func TestAsString(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "ok", "ok"},
		{"empty string", "", ""},
		{"number is not stringified", json.Number("42"), ""},
		{"bool is not stringified", true, ""},
		{"nil", nil, ""},
		{"object", map[string]any{"a": 1}, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, asString(tc.value))
		})
	}
}
