// Package coerce turns loosely-typed persisted values into integers and
// booleans without failing. Stored player data may be hand-edited, written by
// older builds or truncated; every reader goes through these helpers and
// falls back to a default instead of returning an error.
package coerce

import (
	"math"
	"strconv"
	"strings"
)

// round rounds half toward positive infinity, matching how the game has
// always rounded stored numbers (2.5 → 3, -2.5 → -2).
func round(f float64) int {
	return int(math.Floor(f + 0.5))
}

// ParseInt parses a stored scalar. Surrounding whitespace is ignored and an
// empty string counts as zero; anything non-numeric yields ok=false.
func ParseInt(s string) (n int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return round(f), true
}

// StringInt is ParseInt with a fallback for invalid input.
func StringInt(s string, fallback int) int {
	if n, ok := ParseInt(s); ok {
		return n
	}
	return fallback
}

// Int converts a value decoded from JSON (float64, string, bool, json.Number
// style strings) into an int, returning fallback for nil, objects, arrays and
// non-finite numbers.
func Int(v any, fallback int) int {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fallback
		}
		return round(x)
	case int:
		return x
	case int64:
		return int(x)
	case string:
		return StringInt(x, fallback)
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return fallback
	}
}

// Truthy reports whether a decoded JSON value counts as set: false, nil,
// zero, NaN and the empty string do not; everything else does.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
