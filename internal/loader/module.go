package loader

import (
	"fmt"
	"path/filepath"
	goplugin "plugin"
	"strings"

	"github.com/alexisbeaulieu97/framefx/internal/catalog"
	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/script"
)

// RegisterSymbol is the exported entry point looked up in every module.
const RegisterSymbol = "Register"

// Module is an acquired code unit. Symbols are resolved by name; what a
// symbol holds depends on the implementation.
type Module interface {
	Name() string
	Path() string
	Lookup(symbol string) (any, bool)
	Symbols() []string
	Close() error
}

// catalogModule serves a module compiled into the binary.
type catalogModule struct {
	mod  catalog.Module
	path string
}

func (m *catalogModule) Name() string                     { return m.mod.Name() }
func (m *catalogModule) Path() string                     { return m.path }
func (m *catalogModule) Lookup(symbol string) (any, bool) { return m.mod.Lookup(symbol) }
func (m *catalogModule) Symbols() []string                { return m.mod.Symbols() }
func (m *catalogModule) Close() error                     { return nil }

// sharedObjectSymbols are probed in order since a Go plugin cannot list its
// exports.
var sharedObjectSymbols = []string{RegisterSymbol, "Effect", "NewEffect", "UI", "NewUI"}

// sharedObject serves a Go plugin built with -buildmode=plugin. The runtime
// cannot unload plugins, so Close only drops the reference.
type sharedObject struct {
	path string
	so   *goplugin.Plugin
}

func openSharedObject(path string) (*sharedObject, error) {
	so, err := goplugin.Open(path)
	if err != nil {
		return nil, err
	}
	return &sharedObject{path: path, so: so}, nil
}

func (m *sharedObject) Name() string { return moduleName(m.path) }
func (m *sharedObject) Path() string { return m.path }

func (m *sharedObject) Lookup(symbol string) (any, bool) {
	if m.so == nil {
		return nil, false
	}
	sym, err := m.so.Lookup(symbol)
	if err != nil {
		return nil, false
	}
	return sym, true
}

func (m *sharedObject) Symbols() []string {
	var names []string
	for _, name := range sharedObjectSymbols {
		if _, ok := m.Lookup(name); ok {
			names = append(names, name)
		}
	}
	return names
}

func (m *sharedObject) Close() error {
	m.so = nil
	return nil
}

// scriptModule exposes a Lua script through the same symbol surface: the
// entry point becomes Register and every effect table becomes a factory.
type scriptModule struct {
	script *script.Script
}

func openScript(path string, opts script.Options) (*scriptModule, error) {
	s, err := script.Load(path, opts)
	if err != nil {
		return nil, err
	}
	return &scriptModule{script: s}, nil
}

func (m *scriptModule) Name() string { return moduleName(m.script.Path()) }
func (m *scriptModule) Path() string { return m.script.Path() }

func (m *scriptModule) Lookup(symbol string) (any, bool) {
	if symbol == RegisterSymbol {
		if !m.script.HasEntryPoint() {
			return nil, false
		}
		return m.script.RunEntryPoint, true
	}
	for _, name := range m.script.EffectTables() {
		if name == symbol {
			return func() (effect.Effect, error) { return m.script.NewEffect(name) }, true
		}
	}
	return nil, false
}

func (m *scriptModule) Symbols() []string {
	var names []string
	if m.script.HasEntryPoint() {
		names = append(names, RegisterSymbol)
	}
	return append(names, m.script.EffectTables()...)
}

func (m *scriptModule) Close() error {
	m.script.Close()
	return nil
}

// openFile acquires a module from a code file, chosen by extension.
func openFile(path string, opts script.Options) (Module, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		return openScript(path, opts)
	case ".so":
		return openSharedObject(path)
	default:
		return nil, fmt.Errorf("unsupported module file %s", filepath.Base(path))
	}
}

func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
