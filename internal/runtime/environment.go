package runtime

import (
	"fmt"

	"mcore/internal/symtab"
)

// ErrNotFound is returned by Lookup when sym is unbound anywhere in the
// environment chain.
type ErrNotFound struct{ Sym *symtab.Symbol }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("undefined variable: %s", e.Sym.Name) }

// Environment is a chained Symbol -> DataObject mapping with an optional
// parent, per spec §3. Each ProgFunction owns a persistent "local"
// environment; each call extends it into a fresh frame that is discarded
// when the call returns.
type Environment struct {
	parent   *Environment
	bindings map[*symtab.Symbol]DataObject
}

// NewEnvironment creates a root environment with no parent.
func NewEnvironment() *Environment {
	return &Environment{bindings: make(map[*symtab.Symbol]DataObject)}
}

// Extend produces a child environment with empty bindings, extend(parent)
// in spec §6.
func (e *Environment) Extend() *Environment {
	return &Environment{parent: e, bindings: make(map[*symtab.Symbol]DataObject)}
}

// Bind sets sym to obj in this frame (bind in spec §6).
func (e *Environment) Bind(sym *symtab.Symbol, obj DataObject) {
	e.bindings[sym] = obj
}

// Unbind removes sym from this frame only.
func (e *Environment) Unbind(sym *symtab.Symbol) {
	delete(e.bindings, sym)
}

// Lookup walks the chain from this frame to the root, returning
// ErrNotFound if sym is unbound everywhere (lookup in spec §6).
func (e *Environment) Lookup(sym *symtab.Symbol) (DataObject, error) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.bindings[sym]; ok {
			return v, nil
		}
	}
	return nil, &ErrNotFound{Sym: sym}
}

// LookupOrNil is Lookup without the error allocation, returning nil when
// unbound; used by hot paths (the JIT's environment-resident reads).
func (e *Environment) LookupOrNil(sym *symtab.Symbol) DataObject {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.bindings[sym]; ok {
			return v
		}
	}
	return nil
}

// Defined reports whether sym is bound anywhere in the chain.
func (e *Environment) Defined(sym *symtab.Symbol) bool {
	return e.LookupOrNil(sym) != nil
}

// OwnSymbols returns the symbols bound directly in this frame (not
// ancestors) — a snapshot of the frame's own symbol list.
func (e *Environment) OwnSymbols() symtab.Set {
	s := make(symtab.Set, len(e.bindings))
	for sym := range e.bindings {
		s.Add(sym)
	}
	return s
}
