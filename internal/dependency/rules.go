package dependency

// Rule links the value of a controlling parameter to the visibility of a
// dependent parameter.
type Rule struct {
	Controlling string
	Dependent   string
	Condition   Condition
}

// Visibility is the outcome of evaluating the rules of one dependent parameter.
type Visibility struct {
	Parameter string
	Visible   bool
}

type target struct {
	dependent string
	condition Condition
}

// Rules is the rule set of a single effect, keyed by controlling parameter.
// The zero value is ready to use.
type Rules struct {
	byControlling map[string][]target
	order         []string
}

// NewRules builds a rule set from rules, in order.
func NewRules(rules ...Rule) *Rules {
	r := &Rules{}
	for _, rule := range rules {
		r.Add(rule.Controlling, rule.Dependent, rule.Condition)
	}
	return r
}

// Add appends a rule. Rules naming an empty parameter are ignored.
func (r *Rules) Add(controlling, dependent string, cond Condition) bool {
	if controlling == "" || dependent == "" {
		return false
	}
	if r.byControlling == nil {
		r.byControlling = make(map[string][]target)
	}
	if _, ok := r.byControlling[controlling]; !ok {
		r.order = append(r.order, controlling)
	}
	r.byControlling[controlling] = append(r.byControlling[controlling], target{dependent: dependent, condition: cond})
	return true
}

// Len returns the number of rules.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, targets := range r.byControlling {
		n += len(targets)
	}
	return n
}

// All returns every rule in insertion order of the controlling parameters.
func (r *Rules) All() []Rule {
	if r == nil {
		return nil
	}
	out := make([]Rule, 0, r.Len())
	for _, controlling := range r.order {
		for _, t := range r.byControlling[controlling] {
			out = append(out, Rule{Controlling: controlling, Dependent: t.dependent, Condition: t.condition})
		}
	}
	return out
}

// Controlling returns the rules whose controlling parameter is param.
func (r *Rules) Controlling(param string) []Rule {
	if r == nil {
		return nil
	}
	targets := r.byControlling[param]
	out := make([]Rule, 0, len(targets))
	for _, t := range targets {
		out = append(out, Rule{Controlling: param, Dependent: t.dependent, Condition: t.condition})
	}
	return out
}

// VisibilityOf reports whether dependent is visible under values. Every rule
// targeting dependent must hold; rules whose controlling parameter has no
// value are skipped. A parameter without rules is visible.
func (r *Rules) VisibilityOf(dependent string, values map[string]any) bool {
	if r == nil {
		return true
	}
	for _, controlling := range r.order {
		for _, t := range r.byControlling[controlling] {
			if t.dependent != dependent {
				continue
			}
			value, ok := values[controlling]
			if !ok {
				continue
			}
			if !Evaluate(t.condition, value) {
				return false
			}
		}
	}
	return true
}

// Resolve re-evaluates every dependent controlled by changed, using values
// for the other controlling parameters. Results follow rule order, one per
// dependent.
func (r *Rules) Resolve(changed string, values map[string]any) []Visibility {
	if r == nil {
		return nil
	}
	targets := r.byControlling[changed]
	if len(targets) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(targets))
	out := make([]Visibility, 0, len(targets))
	for _, t := range targets {
		if _, dup := seen[t.dependent]; dup {
			continue
		}
		seen[t.dependent] = struct{}{}
		out = append(out, Visibility{Parameter: t.dependent, Visible: r.VisibilityOf(t.dependent, values)})
	}
	return out
}

// Map evaluates every named parameter.
func (r *Rules) Map(params []string, values map[string]any) map[string]bool {
	out := make(map[string]bool, len(params))
	for _, name := range params {
		out[name] = r.VisibilityOf(name, values)
	}
	return out
}
