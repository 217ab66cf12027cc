package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cond  Condition
		value any
		want  bool
	}{
		{name: "equals match", cond: Equals{Value: "Custom"}, value: "Custom", want: true},
		{name: "equals mismatch", cond: Equals{Value: "Custom"}, value: "Auto", want: false},
		{name: "equals numeric across types", cond: Equals{Value: 3}, value: 3.0, want: true},
		{name: "equals string vs number", cond: Equals{Value: 3}, value: "3", want: false},
		{name: "equals bool", cond: Equals{Value: true}, value: true, want: true},
		{name: "equals one vs true", cond: Equals{Value: 1}, value: true, want: true},
		{name: "equals zero vs false", cond: Equals{Value: 0.0}, value: false, want: true},
		{name: "equals true vs two", cond: Equals{Value: true}, value: 2, want: false},
		{name: "not equals one vs true", cond: NotEquals{Value: 1}, value: true, want: false},
		{name: "equals true vs string", cond: Equals{Value: true}, value: "1", want: false},
		{name: "not equals", cond: NotEquals{Value: "Gray"}, value: "Black", want: true},
		{name: "not equals same", cond: NotEquals{Value: "Gray"}, value: "Gray", want: false},
		{name: "contains", cond: Contains{Substring: "Gauss"}, value: "Gaussian", want: true},
		{name: "contains printed number", cond: Contains{Substring: "4"}, value: 45, want: true},
		{name: "contains miss", cond: Contains{Substring: "x"}, value: "Median", want: false},
		{name: "greater than", cond: GreaterThan{Threshold: 30}, value: 45, want: true},
		{name: "greater than below", cond: GreaterThan{Threshold: 30}, value: 20, want: false},
		{name: "greater than equal", cond: GreaterThan{Threshold: 30}, value: 30, want: false},
		{name: "greater than non numeric", cond: GreaterThan{Threshold: 30}, value: "45", want: false},
		{name: "less than float", cond: LessThan{Threshold: 2.5}, value: 1.25, want: true},
		{name: "less than bool", cond: LessThan{Threshold: 2}, value: true, want: false},
		{name: "is true false", cond: IsTrue{}, value: false, want: false},
		{name: "is true true", cond: IsTrue{}, value: true, want: true},
		{name: "is true number", cond: IsTrue{}, value: 2, want: true},
		{name: "is true empty string", cond: IsTrue{}, value: "", want: false},
		{name: "is false zero", cond: IsFalse{}, value: 0, want: true},
		{name: "is false nil", cond: IsFalse{}, value: nil, want: true},
		{name: "nil condition", cond: nil, value: "anything", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Evaluate(tt.cond, tt.value))
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind    string
		operand any
		want    Condition
		wantErr bool
	}{
		{kind: "", operand: "Canny", want: Equals{Value: "Canny"}},
		{kind: "equals", operand: 3, want: Equals{Value: 3}},
		{kind: "NOT_EQUALS", operand: "Gray", want: NotEquals{Value: "Gray"}},
		{kind: "contains", operand: "ian", want: Contains{Substring: "ian"}},
		{kind: "greater_than", operand: 10, want: GreaterThan{Threshold: 10}},
		{kind: "less_than", operand: 0.5, want: LessThan{Threshold: 0.5}},
		{kind: "is_true", want: IsTrue{}},
		{kind: "is_false", want: IsFalse{}},
		{kind: "equals", operand: nil, wantErr: true},
		{kind: "contains", operand: 4, wantErr: true},
		{kind: "greater_than", operand: "ten", wantErr: true},
		{kind: "between", operand: 1, wantErr: true},
	}

	for _, tt := range tests {
		cond, err := Parse(tt.kind, tt.operand)
		if tt.wantErr {
			require.Error(t, err, "kind %q operand %v", tt.kind, tt.operand)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, cond)
	}
}

func TestRulesResolveIsConjunction(t *testing.T) {
	t.Parallel()

	rules := NewRules(
		Rule{Controlling: "mode", Dependent: "radius", Condition: Equals{Value: "Custom"}},
		Rule{Controlling: "strength", Dependent: "radius", Condition: GreaterThan{Threshold: 30}},
		Rule{Controlling: "mode", Dependent: "preview", Condition: IsTrue{}},
	)
	require.Equal(t, 3, rules.Len())
	require.Len(t, rules.Controlling("mode"), 2)

	values := map[string]any{"mode": "Custom", "strength": 45}
	got := rules.Resolve("mode", values)
	require.Equal(t, []Visibility{
		{Parameter: "radius", Visible: true},
		{Parameter: "preview", Visible: true},
	}, got)

	values["strength"] = 20
	got = rules.Resolve("strength", values)
	require.Equal(t, []Visibility{{Parameter: "radius", Visible: false}}, got)

	require.Nil(t, rules.Resolve("unrelated", values))
	require.True(t, rules.VisibilityOf("unrelated", values))
}

func TestRulesSkipMissingControllingValues(t *testing.T) {
	t.Parallel()

	var rules Rules
	require.True(t, rules.Add("algorithm", "threshold", Equals{Value: "Sobel"}))
	require.False(t, rules.Add("", "threshold", IsTrue{}))

	require.True(t, rules.VisibilityOf("threshold", map[string]any{}))
	require.False(t, rules.VisibilityOf("threshold", map[string]any{"algorithm": "Laplacian"}))

	visibility := rules.Map([]string{"algorithm", "threshold"}, map[string]any{"algorithm": "Sobel"})
	require.Equal(t, map[string]bool{"algorithm": true, "threshold": true}, visibility)
}

func TestNilRulesAreVisible(t *testing.T) {
	t.Parallel()

	var rules *Rules
	require.True(t, rules.VisibilityOf("anything", nil))
	require.Nil(t, rules.Resolve("anything", nil))
	require.Zero(t, rules.Len())
}
