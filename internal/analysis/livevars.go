package analysis

import (
	"mcore/internal/iir"
	"mcore/internal/symtab"
)

// LiveVars holds, for every statement, the set of symbols live
// immediately before and immediately after it (spec §4.4, backward
// analysis, union join at merges, with loop back-edges folding the
// header's live-in back into the live-out of the body).
type LiveVars struct {
	Before map[iir.Stmt]symtab.Set
	After  map[iir.Stmt]symtab.Set
}

// LiveVarsPass runs the backward live-variables analysis over fn's body.
func LiveVarsPass(_ *iir.ProgFunction, body *iir.Seq, _ string, _ bool) (interface{}, error) {
	lv := &LiveVars{Before: map[iir.Stmt]symtab.Set{}, After: map[iir.Stmt]symtab.Set{}}
	lvRunSeq(lv, body, symtab.Set{})
	return lv, nil
}

// lvRunSeq threads the live-out fact backward through seq, returning the
// live-in fact for the whole sequence.
func lvRunSeq(lv *LiveVars, seq *iir.Seq, out symtab.Set) symtab.Set {
	cur := out
	for i := len(seq.Stmts) - 1; i >= 0; i-- {
		st := seq.Stmts[i]
		lv.After[st] = cur
		cur = lvTransfer(lv, st, cur)
		lv.Before[st] = cur
	}
	return cur
}

func lvTransfer(lv *LiveVars, st iir.Stmt, out symtab.Set) symtab.Set {
	switch s := st.(type) {
	case *iir.AssignStmt:
		in := out.Clone()
		for _, l := range s.Left {
			if sym := assignTargetSymbol(l); sym != nil {
				in.Remove(sym)
			}
		}
		return in.Union(s.SymbolUses())
	case *iir.ExprStmt:
		return out.Union(s.SymbolUses())
	case *iir.IfElseStmt:
		thenIn := lvRunSeq(lv, s.Then, out.Clone())
		var elseIn symtab.Set
		if s.Else != nil {
			elseIn = lvRunSeq(lv, s.Else, out.Clone())
		} else {
			elseIn = out.Clone()
		}
		return thenIn.Union(elseIn).Union(s.Cond.SymbolUses())
	case *iir.LoopStmt:
		cur := out
		for {
			incrIn := lvRunSeq(lv, s.Incr, cur.Clone())
			bodyIn := lvRunSeq(lv, s.Body, incrIn.Clone())
			testIn := lvRunSeq(lv, s.Test, bodyIn.Clone())
			// The loop may execute zero times: the header must also be
			// live for whatever follows the loop (out), and a
			// subsequent test iteration sees the body's live-in fed
			// back as the back-edge live-out.
			next := testIn.Union(out)
			if next.Equal(cur) {
				return next
			}
			cur = next
		}
	case *iir.BreakStmt, *iir.ContinueStmt, *iir.ReturnStmt:
		return out
	default:
		return out
	}
}
