package effect

import (
	"math"

	"github.com/alexisbeaulieu97/framefx/internal/dependency"
)

// Int returns name as an int, or def when absent or not numeric.
func (v Values) Int(name string, def int) int {
	if n, ok := dependency.Number(v[name]); ok {
		return int(math.Round(n))
	}
	return def
}

// Float returns name as a float64, or def when absent or not numeric.
func (v Values) Float(name string, def float64) float64 {
	if n, ok := dependency.Number(v[name]); ok {
		return n
	}
	return def
}

// Bool returns name as a bool, or def when absent or not a bool.
func (v Values) Bool(name string, def bool) bool {
	if b, ok := v[name].(bool); ok {
		return b
	}
	return def
}

// String returns name as a string, or def when absent or not a string.
func (v Values) String(name, def string) string {
	if s, ok := v[name].(string); ok {
		return s
	}
	return def
}

// Color returns name as a Color, or def when absent or unparsable.
func (v Values) Color(name string, def Color) Color {
	raw, ok := v[name]
	if !ok {
		return def
	}
	c, err := ParseColor(raw)
	if err != nil {
		return def
	}
	return c
}
