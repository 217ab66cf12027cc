package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/manager"
	"github.com/alexisbeaulieu97/framefx/internal/plugin"
)

func validateApplyOptions(opts applyOptions) error {
	if strings.TrimSpace(opts.InputPath) == "" {
		return fmt.Errorf("input image is required")
	}
	if strings.TrimSpace(opts.OutputPath) == "" {
		return fmt.Errorf("output image is required")
	}

	abs, err := filepath.Abs(opts.InputPath)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("input image does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory", abs)
	}

	return nil
}

// parseAssignments splits name=value pairs given with --set.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected name=value", pair)
		}
		out[name] = value
	}
	return out, nil
}

// setParameters coerces each value against the current effect's spec and
// stores it, in name order so visibility events are deterministic.
func setParameters(m *manager.Manager, values map[string]any) error {
	_, current, ok := m.CurrentEffect()
	if !ok {
		return fmt.Errorf("no current effect")
	}
	specs := make(map[string]effect.ParameterSpec)
	for _, spec := range current.ParameterSpecs() {
		specs[spec.Name] = spec
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec, ok := specs[name]
		if !ok {
			return fmt.Errorf("unknown parameter %q", name)
		}
		value, err := spec.Coerce(values[name])
		if err != nil {
			return err
		}
		m.SetParameter(name, value)
	}
	return nil
}

func errUnknownEffect(id string) error {
	return plugin.ErrPluginNotFound{ID: id}
}
