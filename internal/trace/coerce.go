package trace

import (
	"encoding/json"
	"strconv"
	"strings"
)

// DefaultInt is the sentinel produced when an integer field is absent
// or cannot be coerced. It is stable and comparable so downstream
// diffing sees drifted payloads as a visible value, not an abort.
const DefaultInt = -1

// asInt coerces a decoded JSON value to int, defaulting to DefaultInt.
//
// Accepted inputs: integral numbers,
// numeric strings (whitespace-trimmed), floats (truncated toward zero)
// and booleans (1/0). Everything else yields the default.
func asInt(v any) int {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
		return DefaultInt
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return DefaultInt
		}
		return int(i)
	default:
		return DefaultInt
	}
}

// asString coerces a decoded JSON value to string, defaulting to "".
// Non-string values are not stringified; a wrong-typed field must show
// up as the empty sentinel rather than a lossy rendering.
func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
