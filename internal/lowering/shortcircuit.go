package lowering

import (
	"mcore/internal/iir"
	"mcore/internal/symtab"
)

// lowerShortCircuit rewrites short-circuit &&/|| expressions that sit at
// the top of a conditional test — an IfElseStmt's Cond, or a loop's
// computed TestVar — into nested IfElse chains, per spec §4.2. Array
// (non-short-circuit) & and | forms are left untouched; they are
// ordinary BinaryOpExpr nodes the type-inference/JIT layers handle like
// any other element-wise operator.
func lowerShortCircuit(ctx *Context, body *iir.Seq) *iir.Seq {
	return rewriteSeq(body, func(s iir.Stmt) []iir.Stmt {
		switch st := s.(type) {
		case *iir.IfElseStmt:
			st.Then = lowerShortCircuit(ctx, st.Then)
			if st.Else != nil {
				st.Else = lowerShortCircuit(ctx, st.Else)
			}
			if isShortCircuitTop(st.Cond) {
				condTemp := ctx.Fn.NewTemp(ctx.Symbols)
				pre := expandBoolExpr(ctx, condTemp, st.Cond)
				newIf := iir.NewIfElse(&iir.SymbolExpr{Sym: condTemp}, st.Then, st.Else)
				return append(pre.Stmts, newIf)
			}
			return []iir.Stmt{st}
		case *iir.LoopStmt:
			st.Init = lowerShortCircuit(ctx, st.Init)
			st.Body = lowerShortCircuit(ctx, st.Body)
			st.Incr = lowerShortCircuit(ctx, st.Incr)
			st.Test = lowerLoopTest(ctx, st.Test)
			return []iir.Stmt{st}
		default:
			return []iir.Stmt{s}
		}
	})
}

// lowerLoopTest expands a loop's single `testVar = cond` assignment when
// cond is a top-level short-circuit expression.
func lowerLoopTest(ctx *Context, test *iir.Seq) *iir.Seq {
	if len(test.Stmts) != 1 {
		return test
	}
	assign, ok := test.Stmts[0].(*iir.AssignStmt)
	if !ok || len(assign.Left) != 1 {
		return test
	}
	sym, ok := assign.Left[0].(*iir.SymbolExpr)
	if !ok || !isShortCircuitTop(assign.Right) {
		return test
	}
	return expandBoolExpr(ctx, sym.Sym, assign.Right)
}

func isShortCircuitTop(e iir.Expr) bool {
	b, ok := e.(*iir.BinaryOpExpr)
	return ok && b.Op.IsShortCircuit()
}

// expandBoolExpr produces a statement sequence that, when executed,
// leaves target bound to e's boolean value — expanding any top-level
// &&/|| recursively into nested IfElse, and falling back to a plain
// assignment for anything else (including non-short-circuit operators,
// since those are evaluated eagerly with no short-circuit semantics).
func expandBoolExpr(ctx *Context, target *symtab.Symbol, e iir.Expr) *iir.Seq {
	b, ok := e.(*iir.BinaryOpExpr)
	if !ok || !b.Op.IsShortCircuit() {
		return iir.NewSeq(iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: target}}, e, true))
	}

	leftTemp := ctx.Fn.NewTemp(ctx.Symbols)
	leftSeq := expandBoolExpr(ctx, leftTemp, b.Left)
	leftCond := &iir.SymbolExpr{Sym: leftTemp}

	var thenSeq, elseSeq *iir.Seq
	if b.Op == iir.BinAndAnd {
		thenSeq = expandBoolExpr(ctx, target, b.Right)
		elseSeq = iir.NewSeq(iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: target}}, &iir.IntConstExpr{Value: 0}, true))
	} else { // BinOrOr
		thenSeq = iir.NewSeq(iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: target}}, &iir.IntConstExpr{Value: 1}, true))
		elseSeq = expandBoolExpr(ctx, target, b.Right)
	}

	branch := iir.NewIfElse(leftCond, thenSeq, elseSeq)
	return iir.NewSeq(append(leftSeq.Stmts, branch)...)
}
