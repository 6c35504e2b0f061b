package object

import (
	"fmt"
	"log/slog"
)

// Environment is a chain of scope frames. Lookup walks outward to the first
// frame declaring the name; assignment mutates that frame. A closure keeps a
// reference to the frame live at its definition point, extending its
// lifetime past the defining call.
type Environment struct {
	bindings map[string]*Binding
	outer    *Environment
}

type Binding struct {
	Value   Object
	Mutable bool
}

func NewEnvironment() *Environment {
	return &Environment{bindings: make(map[string]*Binding)}
}

// NewEnclosedEnvironment creates a child frame for a block or procedure call.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	slog.Debug("new enclosed environment")
	env := NewEnvironment()
	env.outer = outer
	return env
}

func (e *Environment) Outer() *Environment { return e.outer }

func (e *Environment) Get(name string) (Object, bool) {
	if b, ok := e.bindings[name]; ok {
		return b.Value, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return nil, false
}

// GetLocal looks in this frame only; it does not walk outers.
func (e *Environment) GetLocal(name string) (Object, bool) {
	b, ok := e.bindings[name]
	if !ok {
		return nil, false
	}
	return b.Value, true
}

// Define creates a binding in this frame. Redeclaring a name that already
// exists in the same frame is an error.
func (e *Environment) Define(name string, val Object, mutable bool) error {
	if _, exists := e.bindings[name]; exists {
		return fmt.Errorf("'%s' is already declared in this scope", name)
	}
	e.bindings[name] = &Binding{Value: val, Mutable: mutable}
	slog.Debug("define binding",
		slog.String("name", name),
		slog.Any("type", val.Type()),
		slog.Bool("mutable", mutable))
	return nil
}

// Assign writes to the nearest frame declaring name. It reports whether a
// binding was found; writing an immutable binding is an error.
func (e *Environment) Assign(name string, val Object) (bool, error) {
	if b, exists := e.bindings[name]; exists {
		if !b.Mutable {
			return true, fmt.Errorf("cannot assign to immutable '%s'", name)
		}
		b.Value = val
		return true, nil
	}
	if e.outer != nil {
		return e.outer.Assign(name, val)
	}
	return false, nil
}
