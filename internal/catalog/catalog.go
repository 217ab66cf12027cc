// Package catalog holds effect modules compiled into the binary. Effect
// packages add themselves from init and the loader resolves them by the
// module name given in a plugin manifest.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	pkgerrors "github.com/alexisbeaulieu97/framefx/pkg/errors"
)

// Symbols maps exported names to values, typically a Register entry point
// or effect factories.
type Symbols map[string]any

// Module is a named, immutable symbol table.
type Module struct {
	name    string
	symbols Symbols
}

// Name returns the module name.
func (m Module) Name() string { return m.name }

// Lookup returns the symbol named name.
func (m Module) Lookup(name string) (any, bool) {
	v, ok := m.symbols[name]
	return v, ok
}

// Symbols returns the exported names in lexical order.
func (m Module) Symbols() []string {
	names := make([]string, 0, len(m.symbols))
	for name := range m.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	catalogMu sync.RWMutex
	modules   = make(map[string]Module)
)

// Register adds a module. Names must be unique.
func Register(name string, symbols Symbols) error {
	if name == "" {
		return pkgerrors.NewPluginError(name, fmt.Errorf("module name is empty"))
	}
	if len(symbols) == 0 {
		return pkgerrors.NewPluginError(name, fmt.Errorf("module exports no symbols"))
	}

	copied := make(Symbols, len(symbols))
	for k, v := range symbols {
		if v == nil {
			return pkgerrors.NewPluginError(name, fmt.Errorf("symbol %q is nil", k))
		}
		copied[k] = v
	}

	catalogMu.Lock()
	defer catalogMu.Unlock()

	if _, exists := modules[name]; exists {
		return pkgerrors.NewPluginError(name, fmt.Errorf("module already registered"))
	}
	modules[name] = Module{name: name, symbols: copied}
	return nil
}

// MustRegister is Register for init functions; it panics on failure.
func MustRegister(name string, symbols Symbols) {
	if err := Register(name, symbols); err != nil {
		panic(err)
	}
}

// Get returns the module registered as name.
func Get(name string) (Module, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	m, ok := modules[name]
	return m, ok
}

// Names lists registered modules in lexical order.
func Names() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes name. Used by tests.
func Unregister(name string) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	delete(modules, name)
}
