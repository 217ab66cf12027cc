// Package script runs effect plugins written in Lua. A script either defines
// a global register_plugin(registry) entry point or exposes global effect
// tables that carry a name and an apply function.
package script

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/alexisbeaulieu97/framefx/internal/logger"
)

// DefaultCallTimeout bounds a single call into a script.
const DefaultCallTimeout = 2 * time.Second

// EntryPoint is the global function called with the registrar.
const EntryPoint = "register_plugin"

// ErrClosed is returned when calling into a closed script.
var ErrClosed = errors.New("lua script is closed")

// Options configures a Script.
type Options struct {
	// CallTimeout bounds every call into Lua, including per-frame apply.
	CallTimeout time.Duration
	Logger      *logger.Logger
}

// Script is a loaded Lua file with its own interpreter state. It is not safe
// for concurrent use.
type Script struct {
	path    string
	L       *lua.LState
	timeout time.Duration
	log     *logger.Logger
	builtin map[string]bool
	closed  bool
}

// Load creates a sandboxed state and executes the file at path.
func Load(path string, opts Options) (*Script, error) {
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	s := &Script{
		path:    path,
		L:       L,
		timeout: timeout,
		log:     opts.Logger.With("script", path),
		builtin: globalNames(L),
	}

	if err := s.guard(func() error { return L.DoFile(path) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("execute %s: %w", path, err)
	}
	return s, nil
}

// openSafeLibraries opens the libraries a pixel transform needs. io, os,
// debug and package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Path returns the file the script was loaded from.
func (s *Script) Path() string { return s.path }

// Closed reports whether Close was called.
func (s *Script) Closed() bool { return s.closed }

// Close releases the interpreter. It is safe to call more than once.
func (s *Script) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}

// HasEntryPoint reports whether the script defines register_plugin.
func (s *Script) HasEntryPoint() bool {
	if s.closed {
		return false
	}
	_, ok := s.L.GetGlobal(EntryPoint).(*lua.LFunction)
	return ok
}

// EffectTables returns the globals that look like effects: tables with a
// string name and an apply function. Names are sorted.
func (s *Script) EffectTables() []string {
	if s.closed {
		return nil
	}
	var names []string
	s.globals().ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok || s.builtin[string(key)] {
			return
		}
		if tbl, ok := v.(*lua.LTable); ok && isEffectTable(tbl) {
			names = append(names, string(key))
		}
	})
	sort.Strings(names)
	return names
}

// Globals returns the names the script defined, sorted.
func (s *Script) Globals() []string {
	if s.closed {
		return nil
	}
	var names []string
	s.globals().ForEach(func(k, _ lua.LValue) {
		if key, ok := k.(lua.LString); ok && !s.builtin[string(key)] {
			names = append(names, string(key))
		}
	})
	sort.Strings(names)
	return names
}

// call invokes fn with args under the call timeout and returns nret results.
func (s *Script) call(fn *lua.LFunction, nret int, args ...lua.LValue) ([]lua.LValue, error) {
	if s.closed {
		return nil, ErrClosed
	}
	release := s.deadline()
	defer release()
	return s.pcall(fn, nret, args...)
}

// deadline arms the call timeout for a batch of pcalls.
func (s *Script) deadline() func() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.L.SetContext(ctx)
	return func() {
		s.L.RemoveContext()
		cancel()
	}
}

func (s *Script) pcall(fn *lua.LFunction, nret int, args ...lua.LValue) ([]lua.LValue, error) {
	top := s.L.GetTop()
	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}

	if err := s.guard(func() error { return s.L.PCall(len(args), nret, nil) }); err != nil {
		s.L.SetTop(top)
		return nil, err
	}

	results := make([]lua.LValue, nret)
	for i := 0; i < nret; i++ {
		results[i] = s.L.Get(top + i + 1)
	}
	s.L.SetTop(top)
	return results, nil
}

func (s *Script) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

func (s *Script) globals() *lua.LTable {
	return s.L.Get(lua.GlobalsIndex).(*lua.LTable)
}

func globalNames(L *lua.LState) map[string]bool {
	names := make(map[string]bool)
	L.Get(lua.GlobalsIndex).(*lua.LTable).ForEach(func(k, _ lua.LValue) {
		if key, ok := k.(lua.LString); ok {
			names[string(key)] = true
		}
	})
	return names
}

func isEffectTable(tbl *lua.LTable) bool {
	_, named := tbl.RawGetString("name").(lua.LString)
	_, applies := tbl.RawGetString("apply").(*lua.LFunction)
	return named && applies
}
