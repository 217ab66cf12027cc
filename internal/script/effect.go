package script

import (
	"fmt"
	"image"

	lua "github.com/yuin/gopher-lua"

	"github.com/alexisbeaulieu97/framefx/internal/effect"
)

// Effect adapts a Lua effect table to effect.Effect. The table's
// apply(r, g, b, params) is called per pixel and returns the new r, g, b.
// An optional cleanup() runs when the effect is cleaned up.
type Effect struct {
	*effect.Base

	script *Script
	table  *lua.LTable
	apply  *lua.LFunction
	ui     effect.UIDescriptor
}

// NewEffect builds an effect from the global table named global.
func (s *Script) NewEffect(global string) (*Effect, error) {
	if s.closed {
		return nil, ErrClosed
	}
	tbl, ok := s.L.GetGlobal(global).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("global %q is not a table", global)
	}
	return s.effectFromTable(tbl)
}

func (s *Script) effectFromTable(tbl *lua.LTable) (*Effect, error) {
	apply, ok := tbl.RawGetString("apply").(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("effect table has no apply function")
	}

	meta := effect.Metadata{
		Name:        stringField(tbl, "name"),
		Category:    stringField(tbl, "category"),
		Description: stringField(tbl, "description"),
		Version:     stringField(tbl, "version"),
		Author:      stringField(tbl, "author"),
	}
	if tags, ok := toGo(tbl.RawGetString("tags")).([]any); ok {
		for _, tag := range tags {
			meta.Tags = append(meta.Tags, fmt.Sprint(tag))
		}
	}

	specs, err := parseSpecs(tbl.RawGetString("parameters"))
	if err != nil {
		return nil, fmt.Errorf("effect %q: %w", meta.Name, err)
	}
	ui, err := parseUI(tbl.RawGetString("ui"))
	if err != nil {
		return nil, fmt.Errorf("effect %q: %w", meta.Name, err)
	}

	e := &Effect{
		Base:   effect.NewBase(meta, specs...),
		script: s,
		table:  tbl,
		apply:  apply,
		ui:     ui,
	}
	e.SetLogger(s.log)
	e.OnCleanup(e.release)
	return e, nil
}

// UI implements effect.UIProvider.
func (e *Effect) UI() effect.UIDescriptor {
	return e.ui
}

// Apply runs the script over every pixel of frame. A script error leaves
// frame unchanged.
func (e *Effect) Apply(frame *image.RGBA, params effect.Values) *image.RGBA {
	if frame == nil {
		return nil
	}
	if e.script.closed {
		e.Log().Warn("apply on closed script")
		return frame
	}

	L := e.script.L
	paramTable := toLua(L, params)
	out := effect.CloneFrame(frame)
	b := out.Bounds()

	release := e.script.deadline()
	defer release()

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := out.PixOffset(x, y)
			res, err := e.script.pcall(e.apply, 3,
				lua.LNumber(out.Pix[i]), lua.LNumber(out.Pix[i+1]), lua.LNumber(out.Pix[i+2]), paramTable)
			if err != nil {
				e.Log().Error(err, "script apply failed", "x", x, "y", y)
				return frame
			}
			for c := 0; c < 3; c++ {
				if v, ok := channel(res[c]); ok {
					out.Pix[i+c] = v
				}
			}
		}
	}
	return out
}

func (e *Effect) release() {
	if e.script.closed {
		return
	}
	fn, ok := e.table.RawGetString("cleanup").(*lua.LFunction)
	if !ok {
		return
	}
	if _, err := e.script.call(fn, 0); err != nil {
		e.Log().Error(err, "script cleanup failed")
	}
}

func parseSpecs(lv lua.LValue) ([]effect.ParameterSpec, error) {
	if lv == lua.LNil {
		return nil, nil
	}
	raw := toGo(lv)
	if m, ok := raw.(map[string]any); ok && len(m) == 0 {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("parameters must be a list")
	}
	specs := make([]effect.ParameterSpec, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parameters[%d] must be a table", i)
		}
		spec, err := effect.SpecFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("parameters[%d]: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseUI(lv lua.LValue) (effect.UIDescriptor, error) {
	if lv == lua.LNil {
		return nil, nil
	}
	m, ok := toGo(lv).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ui must be a table")
	}
	ui := &effect.StaticUI{}
	if groups, ok := m["groups"].([]any); ok {
		for _, item := range groups {
			if g, ok := item.(map[string]any); ok {
				ui.GroupList = append(ui.GroupList, effect.GroupFromMap(g))
			}
		}
	}
	if deps, ok := m["dependencies"].([]any); ok {
		for i, item := range deps {
			d, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ui.dependencies[%d] must be a table", i)
			}
			rule, err := effect.RuleFromMap(d)
			if err != nil {
				return nil, fmt.Errorf("ui.dependencies[%d]: %w", i, err)
			}
			ui.Rules = append(ui.Rules, rule)
		}
	}
	return ui, nil
}
