package loader

import (
	"fmt"

	"github.com/alexisbeaulieu97/framefx/internal/effect"
)

// entryPoint resolves a Register symbol. Shared objects hand out pointers
// for exported variables, so both forms are accepted.
func entryPoint(sym any) (func(effect.Registrar) error, bool) {
	switch fn := sym.(type) {
	case func(effect.Registrar) error:
		return fn, fn != nil
	case *func(effect.Registrar) error:
		if fn == nil || *fn == nil {
			return nil, false
		}
		return *fn, true
	}
	return nil, false
}

// instantiate turns a symbol into an effect. ok is false when the symbol is
// not effect-shaped; err reports a factory that failed.
func instantiate(sym any) (e effect.Effect, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok, err = nil, true, fmt.Errorf("effect factory panicked: %v", r)
		}
	}()

	switch v := sym.(type) {
	case effect.Effect:
		return v, true, nil
	case *effect.Effect:
		if v == nil || *v == nil {
			return nil, false, nil
		}
		return *v, true, nil
	case func() effect.Effect:
		e = v()
		if e == nil {
			return nil, true, fmt.Errorf("effect factory returned nil")
		}
		return e, true, nil
	case func() (effect.Effect, error):
		e, err = v()
		if err == nil && e == nil {
			err = fmt.Errorf("effect factory returned nil")
		}
		return e, true, err
	}
	return nil, false, nil
}

// describe turns a symbol into a UI descriptor for e.
func describe(sym any, e effect.Effect) (effect.UIDescriptor, bool) {
	switch v := sym.(type) {
	case effect.Effect:
		// Effects that also describe themselves are handled by the registry.
		return nil, false
	case effect.UIDescriptor:
		return v, true
	case *effect.UIDescriptor:
		if v == nil || *v == nil {
			return nil, false
		}
		return *v, true
	case func() effect.UIDescriptor:
		return v(), true
	case func(effect.Effect) effect.UIDescriptor:
		return v(e), true
	}
	return nil, false
}
