// Package dependency decides which parameters of an effect are visible given
// the current values of the parameters that control them.
package dependency

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Kind names a condition variant as it appears in declarative UI files.
type Kind string

const (
	KindEquals      Kind = "equals"
	KindNotEquals   Kind = "not_equals"
	KindContains    Kind = "contains"
	KindGreaterThan Kind = "greater_than"
	KindLessThan    Kind = "less_than"
	KindIsTrue      Kind = "is_true"
	KindIsFalse     Kind = "is_false"
)

// Condition is a closed set of predicates over a controlling value. Only the
// variants declared in this package implement it.
type Condition interface {
	Kind() Kind
	holds(value any) bool
}

// Equals holds when the controlling value equals Value.
type Equals struct{ Value any }

// NotEquals holds when the controlling value differs from Value.
type NotEquals struct{ Value any }

// Contains holds when the printed controlling value contains Substring.
type Contains struct{ Substring string }

// GreaterThan holds for numeric controlling values strictly above Threshold.
type GreaterThan struct{ Threshold float64 }

// LessThan holds for numeric controlling values strictly below Threshold.
type LessThan struct{ Threshold float64 }

// IsTrue holds for truthy controlling values.
type IsTrue struct{}

// IsFalse holds for falsy controlling values.
type IsFalse struct{}

func (Equals) Kind() Kind      { return KindEquals }
func (NotEquals) Kind() Kind   { return KindNotEquals }
func (Contains) Kind() Kind    { return KindContains }
func (GreaterThan) Kind() Kind { return KindGreaterThan }
func (LessThan) Kind() Kind    { return KindLessThan }
func (IsTrue) Kind() Kind      { return KindIsTrue }
func (IsFalse) Kind() Kind     { return KindIsFalse }

func (c Equals) holds(value any) bool    { return equal(value, c.Value) }
func (c NotEquals) holds(value any) bool { return !equal(value, c.Value) }
func (c Contains) holds(value any) bool {
	return strings.Contains(fmt.Sprint(value), c.Substring)
}

func (c GreaterThan) holds(value any) bool {
	n, ok := Number(value)
	return ok && n > c.Threshold
}

func (c LessThan) holds(value any) bool {
	n, ok := Number(value)
	return ok && n < c.Threshold
}

func (IsTrue) holds(value any) bool  { return Truthy(value) }
func (IsFalse) holds(value any) bool { return !Truthy(value) }

func (c Equals) String() string      { return fmt.Sprintf("equals(%v)", c.Value) }
func (c NotEquals) String() string   { return fmt.Sprintf("not_equals(%v)", c.Value) }
func (c Contains) String() string    { return fmt.Sprintf("contains(%q)", c.Substring) }
func (c GreaterThan) String() string { return fmt.Sprintf("greater_than(%g)", c.Threshold) }
func (c LessThan) String() string    { return fmt.Sprintf("less_than(%g)", c.Threshold) }
func (IsTrue) String() string        { return "is_true" }
func (IsFalse) String() string       { return "is_false" }

// Evaluate reports whether cond holds for the controlling value. A nil
// condition always holds.
func Evaluate(cond Condition, value any) bool {
	if cond == nil {
		return true
	}
	return cond.holds(value)
}

// Parse builds a condition from a declarative (kind, operand) pair. An empty
// kind means equals.
func Parse(kind string, operand any) (Condition, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case "", KindEquals:
		if operand == nil {
			return nil, fmt.Errorf("condition %s requires a value", KindEquals)
		}
		return Equals{Value: operand}, nil
	case KindNotEquals:
		if operand == nil {
			return nil, fmt.Errorf("condition %s requires a value", KindNotEquals)
		}
		return NotEquals{Value: operand}, nil
	case KindContains:
		s, ok := operand.(string)
		if !ok {
			return nil, fmt.Errorf("condition %s requires a string, got %T", KindContains, operand)
		}
		return Contains{Substring: s}, nil
	case KindGreaterThan:
		n, ok := Number(operand)
		if !ok {
			return nil, fmt.Errorf("condition %s requires a number, got %T", KindGreaterThan, operand)
		}
		return GreaterThan{Threshold: n}, nil
	case KindLessThan:
		n, ok := Number(operand)
		if !ok {
			return nil, fmt.Errorf("condition %s requires a number, got %T", KindLessThan, operand)
		}
		return LessThan{Threshold: n}, nil
	case KindIsTrue:
		return IsTrue{}, nil
	case KindIsFalse:
		return IsFalse{}, nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", kind)
	}
}

// Number converts integer and floating point values to float64. Booleans and
// strings are not numbers.
func Number(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// Truthy reports whether value counts as set: true, a non-zero number, a
// non-empty string or a non-empty collection.
func Truthy(value any) bool {
	if value == nil {
		return false
	}
	if b, ok := value.(bool); ok {
		return b
	}
	if n, ok := Number(value); ok {
		return n != 0
	}
	if s, ok := value.(string); ok {
		return s != ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// equal compares numbers numerically. A bool compared with a number counts
// as 1 or 0.
func equal(a, b any) bool {
	na, aNum := Number(a)
	nb, bNum := Number(b)
	if ab, ok := a.(bool); ok && bNum {
		na, aNum = boolNumber(ab), true
	}
	if bb, ok := b.(bool); ok && aNum {
		nb, bNum = boolNumber(bb), true
	}
	if aNum && bNum {
		return na == nb
	}
	if aNum != bNum {
		return false
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a).Kind() != reflect.TypeOf(b).Kind() {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func boolNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
