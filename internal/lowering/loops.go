package lowering

import "mcore/internal/iir"

// The bare `:` subscript (select every index along that dimension) is
// represented as the interned symbol ":" — the interpreter recognizes
// it by the symbol's name.

// lowerLoops rewrites every surface For/While statement (recursively,
// including inside If/Switch/Loop bodies already present) into the
// canonical LoopStmt form of spec §4.2.
func lowerLoops(ctx *Context, body *iir.Seq) *iir.Seq {
	return rewriteSeq(body, func(s iir.Stmt) []iir.Stmt {
		switch st := s.(type) {
		case *iir.ForStmt:
			st.Body = lowerLoops(ctx, st.Body)
			return []iir.Stmt{lowerFor(ctx, st)}
		case *iir.WhileStmt:
			st.Body = lowerLoops(ctx, st.Body)
			return []iir.Stmt{lowerWhile(ctx, st)}
		case *iir.IfElseStmt:
			st.Then = lowerLoops(ctx, st.Then)
			if st.Else != nil {
				st.Else = lowerLoops(ctx, st.Else)
			}
			return []iir.Stmt{st}
		case *iir.SwitchStmt:
			for i := range st.Cases {
				st.Cases[i].Body = lowerLoops(ctx, st.Cases[i].Body)
			}
			if st.Default != nil {
				st.Default = lowerLoops(ctx, st.Default)
			}
			return []iir.Stmt{st}
		case *iir.LoopStmt:
			st.Body = lowerLoops(ctx, st.Body)
			return []iir.Stmt{st}
		default:
			return []iir.Stmt{s}
		}
	})
}

func lowerFor(ctx *Context, st *iir.ForStmt) *iir.LoopStmt {
	tab := ctx.Symbols
	fn := ctx.Fn

	iterTemp := fn.NewTemp(tab)
	idxTemp := fn.NewTemp(tab)
	testVar := fn.NewTemp(tab)
	colon := tab.Intern(":")

	init := iir.NewSeq(
		iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: iterTemp}}, st.Iter, true),
		iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: idxTemp}}, &iir.IntConstExpr{Value: 1}, true),
	)

	numCols := &iir.ParamExpr{Sym: tab.Intern("numcols"), Args: []iir.Expr{&iir.SymbolExpr{Sym: iterTemp}}}
	test := iir.NewSeq(iir.NewAssign(
		[]iir.Expr{&iir.SymbolExpr{Sym: testVar}},
		&iir.BinaryOpExpr{Op: iir.BinLE, Left: &iir.SymbolExpr{Sym: idxTemp}, Right: numCols},
		true,
	))

	extractCol := iir.NewAssign(
		[]iir.Expr{&iir.SymbolExpr{Sym: st.Var}},
		&iir.ParamExpr{Sym: iterTemp, Args: []iir.Expr{&iir.SymbolExpr{Sym: colon}, &iir.SymbolExpr{Sym: idxTemp}}},
		true,
	)
	bodyStmts := append([]iir.Stmt{extractCol}, st.Body.Stmts...)

	incr := iir.NewSeq(iir.NewAssign(
		[]iir.Expr{&iir.SymbolExpr{Sym: idxTemp}},
		&iir.BinaryOpExpr{Op: iir.BinPlus, Left: &iir.SymbolExpr{Sym: idxTemp}, Right: &iir.IntConstExpr{Value: 1}},
		true,
	))

	return iir.NewLoop(init, test, iir.NewSeq(bodyStmts...), incr, testVar)
}

func lowerWhile(ctx *Context, st *iir.WhileStmt) *iir.LoopStmt {
	testVar := ctx.Fn.NewTemp(ctx.Symbols)
	test := iir.NewSeq(iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: testVar}}, st.Cond, true))
	return iir.NewLoop(iir.NewSeq(), test, st.Body, iir.NewSeq(), testVar)
}

// rewriteSeq applies f to every top-level statement of seq, flattening
// the results (a rewrite may expand one statement into several, as the
// for-loop column-extraction prologue does).
func rewriteSeq(seq *iir.Seq, f func(iir.Stmt) []iir.Stmt) *iir.Seq {
	var out []iir.Stmt
	for _, s := range seq.Stmts {
		out = append(out, f(s)...)
	}
	return iir.NewSeq(out...)
}
