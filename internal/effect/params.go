package effect

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/framefx/internal/dependency"
	pkgerrors "github.com/alexisbeaulieu97/framefx/pkg/errors"
)

// ParamType is the value type of a parameter.
type ParamType string

const (
	TypeInt    ParamType = "int"
	TypeFloat  ParamType = "float"
	TypeBool   ParamType = "bool"
	TypeChoice ParamType = "choice"
	TypeFile   ParamType = "file"
	TypeColor  ParamType = "color"
)

// DefaultCategory is the display group of parameters that declare none.
const DefaultCategory = "General"

// Valid reports whether t is a known parameter type.
func (t ParamType) Valid() bool {
	switch t {
	case TypeInt, TypeFloat, TypeBool, TypeChoice, TypeFile, TypeColor:
		return true
	}
	return false
}

// ParameterSpec declares one tunable parameter of an effect.
type ParameterSpec struct {
	Name        string    `json:"name" yaml:"name" validate:"required,param_name"`
	Type        ParamType `json:"type" yaml:"type" validate:"required,param_type"`
	Default     any       `json:"default" yaml:"default"`
	Min         *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Step        float64   `json:"step,omitempty" yaml:"step,omitempty" validate:"gte=0"`
	Options     []string  `json:"options,omitempty" yaml:"options,omitempty" validate:"omitempty,dive,required"`
	FileFilter  string    `json:"file_filter,omitempty" yaml:"file_filter,omitempty"`
	Category    string    `json:"category,omitempty" yaml:"category,omitempty"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// Int declares an integer parameter in [min, max].
func Int(name string, def, min, max int) ParameterSpec {
	lo, hi := float64(min), float64(max)
	return ParameterSpec{Name: name, Type: TypeInt, Default: def, Min: &lo, Max: &hi, Step: 1}
}

// Float declares a floating point parameter in [min, max].
func Float(name string, def, min, max, step float64) ParameterSpec {
	return ParameterSpec{Name: name, Type: TypeFloat, Default: def, Min: &min, Max: &max, Step: step}
}

// Bool declares a boolean parameter.
func Bool(name string, def bool) ParameterSpec {
	return ParameterSpec{Name: name, Type: TypeBool, Default: def}
}

// Choice declares a parameter restricted to options.
func Choice(name, def string, options ...string) ParameterSpec {
	return ParameterSpec{Name: name, Type: TypeChoice, Default: def, Options: options}
}

// ColorParam declares a color parameter with a hex default.
func ColorParam(name, def string) ParameterSpec {
	return ParameterSpec{Name: name, Type: TypeColor, Default: def}
}

// File declares a file path parameter.
func File(name, filter string) ParameterSpec {
	return ParameterSpec{Name: name, Type: TypeFile, Default: "", FileFilter: filter}
}

// WithCategory sets the display group.
func (p ParameterSpec) WithCategory(category string) ParameterSpec {
	p.Category = category
	return p
}

// WithLabel sets the display label.
func (p ParameterSpec) WithLabel(label string) ParameterSpec {
	p.Label = label
	return p
}

// WithDescription sets the help text.
func (p ParameterSpec) WithDescription(description string) ParameterSpec {
	p.Description = description
	return p
}

// Group returns the display group, DefaultCategory when unset.
func (p ParameterSpec) Group() string {
	if strings.TrimSpace(p.Category) == "" {
		return DefaultCategory
	}
	return p.Category
}

// DisplayLabel returns Label, or Name when no label was declared.
func (p ParameterSpec) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// Validate checks the declaration and that its default satisfies it.
func (p ParameterSpec) Validate() error {
	if err := validatorInstance().Struct(p); err != nil {
		return fieldError("", err)
	}

	switch p.Type {
	case TypeInt, TypeFloat:
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			return pkgerrors.NewValidationError("min", fmt.Sprintf("%s: min %g exceeds max %g", p.Name, *p.Min, *p.Max), nil)
		}
		n, ok := dependency.Number(p.Default)
		if !ok {
			return pkgerrors.NewValidationError("default", fmt.Sprintf("%s: default %v is not a number", p.Name, p.Default), nil)
		}
		if p.Type == TypeInt && n != math.Trunc(n) {
			return pkgerrors.NewValidationError("default", fmt.Sprintf("%s: default %v is not an integer", p.Name, p.Default), nil)
		}
		if (p.Min != nil && n < *p.Min) || (p.Max != nil && n > *p.Max) {
			return pkgerrors.NewValidationError("default", fmt.Sprintf("%s: default %v outside [%s, %s]", p.Name, p.Default, bound(p.Min), bound(p.Max)), nil)
		}
	case TypeBool:
		if _, ok := p.Default.(bool); !ok {
			return pkgerrors.NewValidationError("default", fmt.Sprintf("%s: default %v is not a bool", p.Name, p.Default), nil)
		}
	case TypeChoice:
		if len(p.Options) == 0 {
			return pkgerrors.NewValidationError("options", fmt.Sprintf("%s: choice parameter needs options", p.Name), nil)
		}
		s, ok := p.Default.(string)
		if !ok || !contains(p.Options, s) {
			return pkgerrors.NewValidationError("default", fmt.Sprintf("%s: default %v is not one of %v", p.Name, p.Default, p.Options), nil)
		}
	case TypeColor:
		if _, err := ParseColor(p.Default); err != nil {
			return pkgerrors.NewValidationError("default", fmt.Sprintf("%s: %v", p.Name, err), err)
		}
	case TypeFile:
		if p.Default != nil {
			if _, ok := p.Default.(string); !ok {
				return pkgerrors.NewValidationError("default", fmt.Sprintf("%s: default %v is not a path", p.Name, p.Default), nil)
			}
		}
	}
	return nil
}

// Coerce converts value to the parameter type. Numbers are clamped to the
// declared range; strings are parsed for numeric and bool parameters.
func (p ParameterSpec) Coerce(value any) (any, error) {
	switch p.Type {
	case TypeInt:
		n, err := toNumber(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		return int(math.Round(p.clamp(n))), nil
	case TypeFloat:
		n, err := toNumber(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		return p.clamp(n), nil
	case TypeBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%s: %q is not a bool", p.Name, v)
			}
			return b, nil
		}
		if n, ok := dependency.Number(value); ok {
			return n != 0, nil
		}
		return nil, fmt.Errorf("%s: %v is not a bool", p.Name, value)
	case TypeChoice:
		s, ok := value.(string)
		if !ok || !contains(p.Options, s) {
			return nil, fmt.Errorf("%s: %v is not one of %v", p.Name, value, p.Options)
		}
		return s, nil
	case TypeColor:
		c, err := ParseColor(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		return c, nil
	case TypeFile:
		if value == nil {
			return "", nil
		}
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s: %v is not a path", p.Name, value)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%s: unknown parameter type %q", p.Name, p.Type)
}

// DefaultValue returns the coerced default, or the raw default when it does
// not coerce.
func (p ParameterSpec) DefaultValue() any {
	v, err := p.Coerce(p.Default)
	if err != nil {
		return p.Default
	}
	return v
}

func (p ParameterSpec) clamp(n float64) float64 {
	if p.Min != nil && n < *p.Min {
		n = *p.Min
	}
	if p.Max != nil && n > *p.Max {
		n = *p.Max
	}
	return n
}

// Defaults returns the default value of every spec.
func Defaults(specs []ParameterSpec) Values {
	out := make(Values, len(specs))
	for _, spec := range specs {
		out[spec.Name] = spec.DefaultValue()
	}
	return out
}

// ValidateValues coerces values against specs. Missing or invalid entries
// fall back to their defaults; names without a spec are dropped.
func ValidateValues(specs []ParameterSpec, values Values) Values {
	out := make(Values, len(specs))
	for _, spec := range specs {
		raw, ok := values[spec.Name]
		if !ok {
			out[spec.Name] = spec.DefaultValue()
			continue
		}
		coerced, err := spec.Coerce(raw)
		if err != nil {
			out[spec.Name] = spec.DefaultValue()
			continue
		}
		out[spec.Name] = coerced
	}
	return out
}

// ParameterGroup is a display group and its specs in declaration order.
type ParameterGroup struct {
	Title string
	Specs []ParameterSpec
}

// GroupParameters groups specs by display category, keeping the order in
// which categories and specs were declared.
func GroupParameters(specs []ParameterSpec) []ParameterGroup {
	var groups []ParameterGroup
	index := make(map[string]int)
	for _, spec := range specs {
		title := spec.Group()
		i, ok := index[title]
		if !ok {
			i = len(groups)
			index[title] = i
			groups = append(groups, ParameterGroup{Title: title})
		}
		groups[i].Specs = append(groups[i].Specs, spec)
	}
	return groups
}

func toNumber(value any) (float64, error) {
	if n, ok := dependency.Number(value); ok {
		return n, nil
	}
	if s, ok := value.(string); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil && !math.IsNaN(n) {
			return n, nil
		}
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return 0, fmt.Errorf("%v is not a number", value)
}

func bound(b *float64) string {
	if b == nil {
		return "-"
	}
	return strconv.FormatFloat(*b, 'g', -1, 64)
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
