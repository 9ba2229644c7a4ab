package lowering

import (
	"mcore/internal/iir"
	"mcore/internal/symtab"
)

// endCtx is the subscript context an End expression is nested under: the
// enclosing matrix/cell symbol, its argument position, and whether it is
// the last argument (which widens the meaning to "product of the
// remaining dimensions"), per spec §4.2.
type endCtx struct {
	matrix *symtab.Symbol
	dim    int
	isLast bool
}

// bindEnds walks every expression in body, filling in the Associations
// of every End expression it finds. The pass never constructs new nodes;
// it mutates the End nodes' Associations slices in place.
func bindEnds(body *iir.Seq) {
	walkSeq(body, func(e iir.Expr) { bindEndsInExpr(e, nil) })
}

func bindEndsInExpr(e iir.Expr, ctx *endCtx) {
	switch n := e.(type) {
	case *iir.EndExpr:
		if ctx != nil {
			n.Associations = append(n.Associations, iir.EndAssoc{
				Matrix: ctx.matrix, DimIndex: ctx.dim, IsLast: ctx.isLast,
			})
		}
	case *iir.ParamExpr:
		for i, arg := range n.Args {
			bindEndsInExpr(arg, &endCtx{matrix: n.Sym, dim: i, isLast: i == len(n.Args)-1})
		}
	case *iir.CellIndexExpr:
		for i, arg := range n.Args {
			bindEndsInExpr(arg, &endCtx{matrix: n.Sym, dim: i, isLast: i == len(n.Args)-1})
		}
	default:
		for _, sub := range e.SubExprs() {
			bindEndsInExpr(sub, ctx)
		}
	}
}

// walkSeq visits every top-level expression slot reachable from seq
// (assignment sides, expression statements, conditions, loop tests),
// recursing into nested control flow.
func walkSeq(seq *iir.Seq, visit func(iir.Expr)) {
	for _, s := range seq.Stmts {
		switch st := s.(type) {
		case *iir.AssignStmt:
			for _, l := range st.Left {
				visit(l)
			}
			visit(st.Right)
		case *iir.ExprStmt:
			visit(st.E)
		case *iir.IfElseStmt:
			visit(st.Cond)
			walkSeq(st.Then, visit)
			if st.Else != nil {
				walkSeq(st.Else, visit)
			}
		case *iir.LoopStmt:
			walkSeq(st.Init, visit)
			walkSeq(st.Test, visit)
			walkSeq(st.Body, visit)
			walkSeq(st.Incr, visit)
		}
	}
}
