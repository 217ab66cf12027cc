package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/plugin"
)

type showOptions struct {
	set        []string
	jsonOutput bool
}

func newShowCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show <effect-id>",
		Short: "Show an effect's metadata, parameters and their visibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, rootFlags, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "Set a parameter before evaluating visibility (name=value)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output effect details as JSON")

	return cmd
}

type parameterView struct {
	Group   string               `json:"group"`
	Spec    effect.ParameterSpec `json:"spec"`
	Value   any                  `json:"value"`
	Visible bool                 `json:"visible"`
}

type dependencyView struct {
	Controlling string `json:"controlling"`
	Dependent   string `json:"dependent"`
	Condition   string `json:"condition"`
}

type showJSONPayload struct {
	Effect       plugin.Descriptor `json:"effect"`
	Parameters   []parameterView   `json:"parameters"`
	Dependencies []dependencyView  `json:"dependencies,omitempty"`
}

func runShow(cmd *cobra.Command, rootFlags *rootFlags, id string, opts *showOptions) error {
	overrides, err := parseAssignments(opts.set)
	if err != nil {
		return newCommandError("show", "parsing --set", err, "Use --set name=value.")
	}

	app, err := newAppContext(cmd, rootFlags, "show")
	if err != nil {
		return err
	}
	defer app.Close()

	descriptor, ok := app.Manager.EffectMetadata(id)
	if !ok {
		return newCommandError("show", fmt.Sprintf("looking up effect %q", id), errUnknownEffect(id), "Run 'framefx list' to view loaded effects.")
	}
	if err := app.selectEffect(id, overrides); err != nil {
		return newCommandError("show", "setting parameters", err, "Run 'framefx show "+id+"' to view valid parameters.")
	}

	payload := showJSONPayload{Effect: descriptor, Parameters: parameterViews(app, id)}
	for _, rule := range app.Manager.Rules(id) {
		payload.Dependencies = append(payload.Dependencies, dependencyView{
			Controlling: rule.Controlling,
			Dependent:   rule.Dependent,
			Condition:   fmt.Sprint(rule.Condition),
		})
	}

	if opts.jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}
	return renderShowTable(cmd, payload)
}

// parameterViews lists parameters in the groups declared by the effect's UI,
// falling back to the specs' own categories.
func parameterViews(app *AppContext, id string) []parameterView {
	e, _ := app.Manager.Effect(id)
	specs := make(map[string]effect.ParameterSpec)
	for _, spec := range e.ParameterSpecs() {
		specs[spec.Name] = spec
	}
	values := app.Manager.Parameters()
	visibility := app.Manager.Visibility()

	var views []parameterView
	seen := make(map[string]bool)
	add := func(group string, spec effect.ParameterSpec) {
		seen[spec.Name] = true
		views = append(views, parameterView{Group: group, Spec: spec, Value: values[spec.Name], Visible: visibility[spec.Name]})
	}

	if ui, ok := app.Manager.EffectUI(id); ok {
		for _, group := range ui.Groups() {
			for _, name := range group.Parameters {
				if spec, ok := specs[name]; ok && !seen[name] {
					add(group.Title, spec)
				}
			}
		}
	}
	for _, group := range effect.GroupParameters(e.ParameterSpecs()) {
		for _, spec := range group.Specs {
			if !seen[spec.Name] {
				add(group.Title, spec)
			}
		}
	}
	return views
}

func renderShowTable(cmd *cobra.Command, payload showJSONPayload) error {
	out := cmd.OutOrStdout()
	st := newStyles(out)
	d := payload.Effect

	fmt.Fprintln(out, st.heading.Render(d.Name))
	fmt.Fprintf(out, "ID:       %s\n", d.ID)
	fmt.Fprintf(out, "Category: %s\n", d.Category)
	fmt.Fprintf(out, "Version:  %s\n", d.Version)
	fmt.Fprintf(out, "Author:   %s\n", valueOrFallback(d.Author, "(unknown)"))
	fmt.Fprintf(out, "Status:   %s\n", status(d.Enabled))
	if len(d.Tags) > 0 {
		fmt.Fprintf(out, "Tags:     %s\n", strings.Join(d.Tags, ", "))
	}
	fmt.Fprintf(out, "\nDescription:\n  %s\n", valueOrFallback(d.Description, "(none)"))

	group := ""
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range payload.Parameters {
		if p.Group != group {
			if err := writer.Flush(); err != nil {
				return err
			}
			group = p.Group
			fmt.Fprintf(out, "\n%s\n", st.label.Render(group))
		}
		fmt.Fprintf(writer, "  %s\t%s\t%s\t%s\t%s\n", st.visibility(p.Visible), p.Spec.Name, p.Spec.Type, formatValue(p.Value), describeRange(p.Spec))
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if len(payload.Dependencies) > 0 {
		fmt.Fprintf(out, "\n%s\n", st.label.Render("Dependencies"))
		for _, dep := range payload.Dependencies {
			fmt.Fprintf(out, "  %s visible when %s is %s\n", dep.Dependent, dep.Controlling, dep.Condition)
		}
	}
	return nil
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "-"
	case float64:
		return fmt.Sprintf("%g", v)
	case string:
		if v == "" {
			return `""`
		}
	}
	return fmt.Sprint(value)
}

func describeRange(spec effect.ParameterSpec) string {
	switch {
	case len(spec.Options) > 0:
		return strings.Join(spec.Options, " | ")
	case spec.Min != nil && spec.Max != nil:
		return fmt.Sprintf("%g..%g", *spec.Min, *spec.Max)
	case spec.FileFilter != "":
		return spec.FileFilter
	}
	return ""
}
