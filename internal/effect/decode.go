package effect

import (
	"fmt"

	"github.com/alexisbeaulieu97/framefx/internal/dependency"
)

// SpecFromMap builds a ParameterSpec from a loosely typed record, as produced
// by script tables or decoded documents. The result still needs Validate.
func SpecFromMap(m map[string]any) (ParameterSpec, error) {
	spec := ParameterSpec{
		Name:        str(m["name"]),
		Type:        ParamType(str(m["type"])),
		Default:     m["default"],
		FileFilter:  str(m["file_filter"]),
		Category:    str(m["category"]),
		Label:       str(m["label"]),
		Description: str(m["description"]),
	}
	if spec.Name == "" {
		return spec, fmt.Errorf("parameter without name")
	}
	if v, ok := m["min"]; ok {
		n, ok := dependency.Number(v)
		if !ok {
			return spec, fmt.Errorf("%s: min %v is not a number", spec.Name, v)
		}
		spec.Min = &n
	}
	if v, ok := m["max"]; ok {
		n, ok := dependency.Number(v)
		if !ok {
			return spec, fmt.Errorf("%s: max %v is not a number", spec.Name, v)
		}
		spec.Max = &n
	}
	if v, ok := m["step"]; ok {
		n, ok := dependency.Number(v)
		if !ok {
			return spec, fmt.Errorf("%s: step %v is not a number", spec.Name, v)
		}
		spec.Step = n
	}
	if v, ok := m["options"]; ok {
		list, ok := v.([]any)
		if !ok {
			return spec, fmt.Errorf("%s: options must be a list", spec.Name)
		}
		for _, item := range list {
			spec.Options = append(spec.Options, fmt.Sprint(item))
		}
	}
	return spec, nil
}

// RuleFromMap builds a dependency rule from a record with controlling,
// dependent, condition (or type) and value keys.
func RuleFromMap(m map[string]any) (dependency.Rule, error) {
	rule := dependency.Rule{
		Controlling: str(m["controlling"]),
		Dependent:   str(m["dependent"]),
	}
	if rule.Controlling == "" || rule.Dependent == "" {
		return rule, fmt.Errorf("dependency needs controlling and dependent parameters")
	}
	kind := str(m["condition"])
	if kind == "" {
		kind = str(m["type"])
	}
	cond, err := dependency.Parse(kind, m["value"])
	if err != nil {
		return rule, fmt.Errorf("%s -> %s: %w", rule.Controlling, rule.Dependent, err)
	}
	rule.Condition = cond
	return rule, nil
}

// GroupFromMap builds a Group from a record with title and parameters keys.
func GroupFromMap(m map[string]any) Group {
	g := Group{Title: str(m["title"])}
	if list, ok := m["parameters"].([]any); ok {
		for _, item := range list {
			g.Parameters = append(g.Parameters, fmt.Sprint(item))
		}
	}
	return g
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
