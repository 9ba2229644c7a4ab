package lowering

import "mcore/internal/iir"

// splitForm rewrites body into the canonical split form required by
// spec §3/§4.6: every sub-expression of a compound statement is a
// constant, a symbol, or a Param/CellIndex whose own arguments are
// already in split form; every other operation (unary, binary, range,
// matrix/cell literal, lambda, fn-handle) is hoisted into an assignment
// to a freshly minted temporary immediately preceding the statement that
// used it. This is the last lowering pass: analysis and the JIT both
// assume split-form input.
func splitForm(ctx *Context, body *iir.Seq) *iir.Seq {
	return rewriteSeq(body, func(s iir.Stmt) []iir.Stmt {
		switch st := s.(type) {
		case *iir.AssignStmt:
			var pre []iir.Stmt
			left := make([]iir.Expr, len(st.Left))
			for i, l := range st.Left {
				left[i] = splitLHS(ctx, l, &pre)
			}
			right := splitTop(ctx, st.Right, &pre)
			return append(pre, iir.NewAssign(left, right, st.Suppress))
		case *iir.ExprStmt:
			var pre []iir.Stmt
			e := splitArg(ctx, st.E, &pre)
			return append(pre, iir.NewExprStmt(e, st.Suppress))
		case *iir.IfElseStmt:
			var pre []iir.Stmt
			cond := splitArg(ctx, st.Cond, &pre)
			st.Then = splitForm(ctx, st.Then)
			if st.Else != nil {
				st.Else = splitForm(ctx, st.Else)
			}
			return append(pre, iir.NewIfElse(cond, st.Then, st.Else))
		case *iir.LoopStmt:
			st.Init = splitForm(ctx, st.Init)
			st.Test = splitForm(ctx, st.Test)
			st.Body = splitForm(ctx, st.Body)
			st.Incr = splitForm(ctx, st.Incr)
			return []iir.Stmt{st}
		default:
			return []iir.Stmt{s}
		}
	})
}

// splitLHS handles an assignment target: a bare Symbol needs no split,
// but a Param/CellIndex write target still has its own argument list
// split in place (the matrix head symbol itself is never hoisted).
func splitLHS(ctx *Context, e iir.Expr, pre *[]iir.Stmt) iir.Expr {
	switch n := e.(type) {
	case *iir.SymbolExpr:
		return n
	case *iir.ParamExpr:
		for i, a := range n.Args {
			n.Args[i] = splitArg(ctx, a, pre)
		}
		return n
	case *iir.CellIndexExpr:
		for i, a := range n.Args {
			n.Args[i] = splitArg(ctx, a, pre)
		}
		return n
	default:
		return splitTop(ctx, e, pre)
	}
}

// splitTop splits an expression that is allowed to remain a compound
// form at statement top level (the right-hand side of an Assign; an
// ExprStmt's expression and an IfElse condition go through splitArg) —
// it recurses into the node's own sub-expressions but does not hoist the
// node itself.
func splitTop(ctx *Context, e iir.Expr, pre *[]iir.Stmt) iir.Expr {
	switch n := e.(type) {
	case *iir.SymbolExpr, *iir.IntConstExpr, *iir.FPConstExpr, *iir.StringConstExpr:
		return n
	case *iir.ParamExpr:
		for i, a := range n.Args {
			n.Args[i] = splitArg(ctx, a, pre)
		}
		return n
	case *iir.CellIndexExpr:
		for i, a := range n.Args {
			n.Args[i] = splitArg(ctx, a, pre)
		}
		return n
	default:
		for i, sub := range n.SubExprs() {
			n.ReplaceSubExpr(i, splitArg(ctx, sub, pre))
		}
		return n
	}
}

// splitArg splits an expression that must itself reduce to a constant,
// symbol, or Param/CellIndex: any other shape is hoisted into a fresh
// temporary assignment appended to pre, and replaced by a reference to
// that temporary.
func splitArg(ctx *Context, e iir.Expr, pre *[]iir.Stmt) iir.Expr {
	switch n := e.(type) {
	case *iir.SymbolExpr, *iir.IntConstExpr, *iir.FPConstExpr, *iir.StringConstExpr:
		return n
	case *iir.ParamExpr:
		for i, a := range n.Args {
			n.Args[i] = splitArg(ctx, a, pre)
		}
		return n
	case *iir.CellIndexExpr:
		for i, a := range n.Args {
			n.Args[i] = splitArg(ctx, a, pre)
		}
		return n
	default:
		for i, sub := range n.SubExprs() {
			n.ReplaceSubExpr(i, splitArg(ctx, sub, pre))
		}
		temp := ctx.Fn.NewTemp(ctx.Symbols)
		*pre = append(*pre, iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: temp}}, n, true))
		return &iir.SymbolExpr{Sym: temp}
	}
}
