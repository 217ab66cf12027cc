package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/alexisbeaulieu97/framefx/internal/effect"
)

// RunEntryPoint calls register_plugin(registry). Inside the script,
// registry:register(tbl) turns tbl into an Effect, hands it to reg and
// returns the assigned id, or nil and a message on failure.
func (s *Script) RunEntryPoint(reg effect.Registrar) error {
	if s.closed {
		return ErrClosed
	}
	fn, ok := s.L.GetGlobal(EntryPoint).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("%s does not define %s", s.path, EntryPoint)
	}

	var firstErr error
	registry := s.L.NewTable()
	s.L.SetField(registry, "register", s.L.NewFunction(func(L *lua.LState) int {
		// Accept both registry.register(tbl) and registry:register(tbl).
		arg := 1
		if self, ok := L.Get(1).(*lua.LTable); ok && self == registry {
			arg = 2
		}
		tbl, ok := L.Get(arg).(*lua.LTable)
		if !ok {
			L.ArgError(arg, "effect table expected")
			return 0
		}

		id, err := s.register(reg, tbl)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		L.Push(lua.LString(id))
		return 1
	}))

	if _, err := s.call(fn, 0, registry); err != nil {
		return fmt.Errorf("%s: %w", EntryPoint, err)
	}
	return firstErr
}

func (s *Script) register(reg effect.Registrar, tbl *lua.LTable) (string, error) {
	e, err := s.effectFromTable(tbl)
	if err != nil {
		return "", err
	}
	return reg.Register(e, e.UI())
}
