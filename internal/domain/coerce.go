package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Float coerces a loosely-typed value into a float64. Malformed input
// coerces to 0, never to NaN or infinity — downstream math and sorting
// rely on every numeric field being a real number.
func Float(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(n), 64)
	case nil:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int coerces a loosely-typed value into an int, truncating fractions.
func Int(v any) int {
	return int(Float(v))
}
