// Package analysis implements the fixed-point analysis framework and the
// concrete analyses the JIT and interpreter consult: reaching
// definitions, live variables, type inference, bounds-check elimination,
// and array-copy placement.
//
// The memoizing request/cache shape mirrors
// sentra/internal/compiler/hoisting_compiler.go's two-pass
// collect-then-compile structure, generalized from "collect function
// declarations once" to "cache an analysis result keyed by the program
// point it was computed for".
package analysis

import (
	"fmt"
	"sync"

	"mcore/internal/iir"
)

// PassFunc is the computation a concrete analysis supplies to Manager.
// returnBottom is true exactly when the manager is breaking a recursion
// cycle: the callee must return the lattice's bottom/identity element
// without recursing further.
type PassFunc func(fn *iir.ProgFunction, body *iir.Seq, argTypeString string, returnBottom bool) (interface{}, error)

// key identifies one cached request. pass is compared by identity (a
// Go func value is not comparable, so passID is a caller-supplied
// stable name standing in for "identity of pass_fn").
type key struct {
	passID        string
	fn            *iir.ProgFunction
	body          *iir.Seq
	argTypeString string
}

// Manager memoizes analysis results by (pass, function, body,
// arg-type-string) and breaks recursive analysis cycles with an
// explicit pending set, per spec §4.3.
type Manager struct {
	mu      sync.Mutex
	cache   map[key]interface{}
	pending map[key]struct{}
}

// NewManager returns an empty analysis manager.
func NewManager() *Manager {
	return &Manager{
		cache:   make(map[key]interface{}),
		pending: make(map[key]struct{}),
	}
}

// Request runs pass (or returns its cached result) for the given
// function/body/arg-type-string triple. If this exact key is already
// being computed higher up the call stack — a recursive analysis, such
// as type inference following a recursive call — it returns bottom by
// invoking pass with returnBottom=true instead of recursing forever.
//
// On failure the partial cache entry is discarded and the error
// propagates; the manager never retries automatically.
func (m *Manager) Request(passID string, pass PassFunc, fn *iir.ProgFunction, body *iir.Seq, argTypeString string) (interface{}, error) {
	k := key{passID: passID, fn: fn, body: body, argTypeString: argTypeString}

	m.mu.Lock()
	if v, ok := m.cache[k]; ok {
		m.mu.Unlock()
		return v, nil
	}
	if _, busy := m.pending[k]; busy {
		m.mu.Unlock()
		return pass(fn, body, argTypeString, true)
	}
	m.pending[k] = struct{}{}
	m.mu.Unlock()

	result, err := pass(fn, body, argTypeString, false)

	m.mu.Lock()
	delete(m.pending, k)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("analysis %q on %s: %w", passID, fn.FuncName(), err)
	}
	m.cache[k] = result
	m.mu.Unlock()
	return result, nil
}

// Invalidate drops every cached result for fn — called when the JIT
// lowering step replaces fn's current body pointer, since cache keys
// are keyed by body identity and a new body can never hit the old
// entries, which would otherwise leak. The pending set is not touched.
func (m *Manager) Invalidate(fn *iir.ProgFunction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.cache {
		if k.fn == fn {
			delete(m.cache, k)
		}
	}
}
