package analysis

import (
	"mcore/internal/iir"
	"mcore/internal/symtab"
)

// CopyInfo instructs the JIT to clone Symbol before the owning statement
// mutates it, because one of MaskedAliases may otherwise observe the
// mutation (spec §4.4). It is only consulted when the jit_copy_enable
// configuration option is set; otherwise the JIT assumes copy-on-write
// semantics enforced by the runtime.
type CopyInfo struct {
	Symbol        *symtab.Symbol
	MaskedAliases symtab.Set
}

// CopyPlacement holds array-copy placement results: per-statement copy
// entries, a separate per-loop-header entry vector (copies that must be
// guarded by the loop's test so they don't run when the body won't), and
// per-function parameter-copy-before-first-use entries.
type CopyPlacement struct {
	Stmt       map[iir.Stmt][]CopyInfo
	LoopHeader map[*iir.LoopStmt][]CopyInfo
	Params     []CopyInfo
}

// ArrayCopyPass computes CopyPlacement for fn's body using reaching
// definitions (mgr-memoized) to approximate aliasing: two symbols alias
// at a mutation site if they may share a reaching definition, i.e. one
// was assigned directly from the other (`b = a;`) with no intervening
// redefinition. Calls get no special treatment: a call through an
// unknown callee does not invalidate the aliases reaching that point.
func ArrayCopyPass(mgr *Manager) PassFunc {
	return func(fn *iir.ProgFunction, body *iir.Seq, argTypeString string, returnBottom bool) (interface{}, error) {
		cp := &CopyPlacement{Stmt: map[iir.Stmt][]CopyInfo{}, LoopHeader: map[*iir.LoopStmt][]CopyInfo{}}
		if returnBottom {
			return cp, nil
		}

		rdResult, err := mgr.Request("reachingdefs", ReachingDefsPass, fn, body, argTypeString)
		if err != nil {
			return cp, err
		}
		rd := rdResult.(*ReachingDefs)

		for _, p := range fn.InParams {
			cp.Params = append(cp.Params, CopyInfo{Symbol: p, MaskedAliases: symtab.Set{}})
		}

		acpWalkSeq(cp, rd, body)
		return cp, nil
	}
}

func acpWalkSeq(cp *CopyPlacement, rd *ReachingDefs, seq *iir.Seq) {
	for _, st := range seq.Stmts {
		switch s := st.(type) {
		case *iir.AssignStmt:
			for _, l := range s.Left {
				if p, ok := l.(*iir.ParamExpr); ok {
					aliases := aliasesOf(rd, s, p.Sym)
					if len(aliases) > 0 {
						cp.Stmt[s] = append(cp.Stmt[s], CopyInfo{Symbol: p.Sym, MaskedAliases: aliases})
					}
				}
			}
		case *iir.IfElseStmt:
			acpWalkSeq(cp, rd, s.Then)
			if s.Else != nil {
				acpWalkSeq(cp, rd, s.Else)
			}
		case *iir.LoopStmt:
			acpWalkSeq(cp, rd, s.Init)
			acpWalkSeq(cp, rd, s.Body)
			acpWalkSeq(cp, rd, s.Incr)
			if guards := loopGuardCopies(cp, s); len(guards) > 0 {
				cp.LoopHeader[s] = guards
			}
		}
	}
}

// aliasesOf returns every symbol whose reaching definition at st is a
// direct `alias = sym` assignment — a plain-copy source for sym, hence a
// symbol that would observe an in-place mutation of sym.
func aliasesOf(rd *ReachingDefs, st iir.Stmt, sym *symtab.Symbol) symtab.Set {
	out := symtab.Set{}
	in := rd.Entry[st]
	for other, sites := range in {
		if other == sym {
			continue
		}
		for site := range sites {
			if site.Assign == nil {
				continue
			}
			if rsym, ok := site.Assign.Right.(*iir.SymbolExpr); ok && rsym.Sym == sym && len(site.Assign.Left) == 1 {
				if lsym, ok := site.Assign.Left[0].(*iir.SymbolExpr); ok && lsym.Sym == other {
					out.Add(other)
				}
			}
		}
	}
	return out
}

// loopGuardCopies collects the copy entries belonging to statements
// inside the loop body, including both branches of nested if-else
// statements (nested loops are not descended), one entry per symbol, so
// the copy can be guarded by the loop's test and skipped entirely when
// the body never executes. Where the aliasing source is bound is not
// examined.
func loopGuardCopies(cp *CopyPlacement, loop *iir.LoopStmt) []CopyInfo {
	var out []CopyInfo
	seen := symtab.Set{}
	var walk func(*iir.Seq)
	walk = func(seq *iir.Seq) {
		for _, st := range seq.Stmts {
			for _, c := range cp.Stmt[st] {
				if !seen.Has(c.Symbol) {
					seen.Add(c.Symbol)
					out = append(out, c)
				}
			}
			if inner, ok := st.(*iir.IfElseStmt); ok {
				walk(inner.Then)
				if inner.Else != nil {
					walk(inner.Else)
				}
			}
		}
	}
	walk(loop.Body)
	return out
}
