package lowering

import "mcore/internal/iir"

// lowerSwitch rewrites every SwitchStmt into a chain of IfElseStmt
// testing the switch value against each case with BinEQ, the
// default/otherwise arm becoming the final else, per spec §4.2.
func lowerSwitch(ctx *Context, body *iir.Seq) *iir.Seq {
	return rewriteSeq(body, func(s iir.Stmt) []iir.Stmt {
		switch st := s.(type) {
		case *iir.SwitchStmt:
			return []iir.Stmt{switchToIfElse(ctx, st)}
		case *iir.IfElseStmt:
			st.Then = lowerSwitch(ctx, st.Then)
			if st.Else != nil {
				st.Else = lowerSwitch(ctx, st.Else)
			}
			return []iir.Stmt{st}
		case *iir.LoopStmt:
			st.Init = lowerSwitch(ctx, st.Init)
			st.Test = lowerSwitch(ctx, st.Test)
			st.Body = lowerSwitch(ctx, st.Body)
			st.Incr = lowerSwitch(ctx, st.Incr)
			return []iir.Stmt{st}
		default:
			return []iir.Stmt{s}
		}
	})
}

func switchToIfElse(ctx *Context, st *iir.SwitchStmt) iir.Stmt {
	var chain *iir.Seq
	if st.Default != nil {
		chain = lowerSwitch(ctx, st.Default)
	}
	for i := len(st.Cases) - 1; i >= 0; i-- {
		c := st.Cases[i]
		cond := &iir.BinaryOpExpr{Op: iir.BinEQ, Left: st.Value.DeepCopy(), Right: c.Value}
		then := lowerSwitch(ctx, c.Body)
		chain = iir.NewSeq(iir.NewIfElse(cond, then, chain))
	}
	if chain == nil {
		// A switch with no cases and no default arm is a no-op.
		return iir.NewExprStmt(&iir.IntConstExpr{Value: 0}, true)
	}
	return chain.Stmts[0]
}
