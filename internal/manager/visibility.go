package manager

import (
	"github.com/alexisbeaulieu97/framefx/internal/dependency"
)

// AddDependency adds a rule to the current effect. It reports false without
// a current effect or with an empty parameter name.
func (m *Manager) AddDependency(controlling, dependent string, cond dependency.Condition) bool {
	if m.current == nil {
		return false
	}
	if !m.rulesFor(m.currentID).Add(controlling, dependent, cond) {
		return false
	}
	m.visibility = m.rulesFor(m.currentID).Map(paramNames(m.current), m.values)
	return true
}

// EvaluateVisibility reports whether dependent is visible when its
// controlling parameter holds value.
func (m *Manager) EvaluateVisibility(dependent string, value any, cond dependency.Condition) bool {
	visible := dependency.Evaluate(cond, value)
	m.log.Debug("evaluated visibility", "parameter", dependent, "condition", cond, "visible", visible)
	return visible
}

// OnParameterChanged re-evaluates every dependent of param and returns the
// results. The host decides what to do with them.
func (m *Manager) OnParameterChanged(param string, value any) []dependency.Visibility {
	if m.current == nil {
		return nil
	}
	rules := m.rulesFor(m.currentID)
	if len(rules.Controlling(param)) == 0 {
		return nil
	}
	values := m.values.Clone()
	values[param] = value

	results := rules.Resolve(param, values)
	if len(results) == 0 {
		return nil
	}
	if m.visibility == nil {
		m.visibility = make(map[string]bool, len(results))
	}
	for _, r := range results {
		m.visibility[r.Parameter] = r.Visible
	}
	return results
}

// Visibility returns the visibility of every parameter of the current
// effect. Parameters without rules are visible.
func (m *Manager) Visibility() map[string]bool {
	out := make(map[string]bool, len(m.visibility))
	for name, visible := range m.visibility {
		out[name] = visible
	}
	return out
}

// Rules returns the dependency rules of id.
func (m *Manager) Rules(id string) []dependency.Rule {
	return m.rules[id].All()
}

func (m *Manager) rulesFor(id string) *dependency.Rules {
	rules, ok := m.rules[id]
	if !ok {
		rules = dependency.NewRules()
		m.rules[id] = rules
	}
	return rules
}

// loadRules copies the descriptor's rules into the rule set of id the first
// time id becomes current.
func (m *Manager) loadRules(id string) {
	if _, loaded := m.rules[id]; loaded {
		return
	}
	rules := m.rulesFor(id)
	ui, ok := m.registry.UI(id)
	if !ok || ui == nil {
		return
	}
	for _, rule := range ui.Dependencies() {
		rules.Add(rule.Controlling, rule.Dependent, rule.Condition)
	}
}
