// Package lowering implements the irreversible tree-to-tree rewrites of
// spec §4.2: loop unification, switch elimination, end-expression
// binding, short-circuit-to-control-flow, and split form. The passes run
// over a deep copy of OrigBody (some of them rewrite that copy in place),
// so OrigBody is left untouched and later requests can still report
// source positions (spec §3 lifecycles).
//
// The two-pass collect-then-rewrite shape mirrors
// sentra/internal/compiler/hoisting_compiler.go's HoistingCompiler,
// generalized from "hoist function declarations" to "rewrite one
// surface construct at a time".
package lowering

import (
	"mcore/internal/iir"
	"mcore/internal/symtab"
)

// Context threads the symbol table and current function through every
// pass so each can mint fresh temporaries via fn.NewTemp.
type Context struct {
	Symbols *symtab.Table
	Fn      *iir.ProgFunction
}

// Lower runs the full canonicalization pipeline over fn (and every
// nested child function) and installs the result as fn.CurBody,
// preserving fn.OrigBody.
func Lower(symbols *symtab.Table, fn *iir.ProgFunction) {
	for _, child := range fn.Children {
		Lower(symbols, child)
	}

	body := fn.OrigBody.DeepCopy()
	ctx := &Context{Symbols: symbols, Fn: fn}

	body = lowerLoops(ctx, body)
	body = lowerSwitch(ctx, body)
	bindEnds(body)
	body = lowerShortCircuit(ctx, body)
	body = splitForm(ctx, body)

	fn.CurBody = body
}
