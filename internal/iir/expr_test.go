package iir

import (
	"testing"

	"mcore/internal/symtab"
)

func TestBinaryOpExprSubExprsAndReplace(t *testing.T) {
	tab := symtab.NewTable()
	x, y := tab.Intern("x"), tab.Intern("y")
	e := &BinaryOpExpr{Op: BinPlus, Left: &SymbolExpr{Sym: x}, Right: &SymbolExpr{Sym: y}}

	subs := e.SubExprs()
	if len(subs) != 2 {
		t.Fatalf("SubExprs() len = %d, want 2", len(subs))
	}

	z := tab.Intern("z")
	e.ReplaceSubExpr(1, &SymbolExpr{Sym: z})
	if e.Right.(*SymbolExpr).Sym != z {
		t.Fatalf("ReplaceSubExpr(1, ...) did not replace Right")
	}
	if e.Left.(*SymbolExpr).Sym != x {
		t.Fatalf("ReplaceSubExpr(1, ...) unexpectedly touched Left")
	}
}

func TestBinaryOpExprDeepCopyIsIndependent(t *testing.T) {
	tab := symtab.NewTable()
	x := tab.Intern("x")
	orig := &BinaryOpExpr{Op: BinMinus, Left: &SymbolExpr{Sym: x}, Right: &IntConstExpr{Value: 1}}
	copy := orig.DeepCopy().(*BinaryOpExpr)

	copy.Right.(*IntConstExpr).Value = 99
	if orig.Right.(*IntConstExpr).Value != 1 {
		t.Fatalf("DeepCopy shared the Right sub-expression with the original")
	}
}

func TestParamExprSymbolUsesIncludesHead(t *testing.T) {
	tab := symtab.NewTable()
	a, i := tab.Intern("a"), tab.Intern("i")
	p := &ParamExpr{Sym: a, Args: []Expr{&SymbolExpr{Sym: i}}}

	uses := p.SymbolUses()
	if !uses.Has(a) {
		t.Fatalf("ParamExpr.SymbolUses() missing head symbol %q", a.Name)
	}
	if !uses.Has(i) {
		t.Fatalf("ParamExpr.SymbolUses() missing argument symbol %q", i.Name)
	}
}

func TestRangeExprWithAndWithoutStep(t *testing.T) {
	start := &IntConstExpr{Value: 1}
	end := &IntConstExpr{Value: 10}

	noStep := &RangeExpr{Start: start, End: end}
	if len(noStep.SubExprs()) != 2 {
		t.Fatalf("no-step RangeExpr.SubExprs() len = %d, want 2", len(noStep.SubExprs()))
	}

	withStep := &RangeExpr{Start: start, Step: &IntConstExpr{Value: 2}, End: end}
	if len(withStep.SubExprs()) != 3 {
		t.Fatalf("stepped RangeExpr.SubExprs() len = %d, want 3", len(withStep.SubExprs()))
	}
	withStep.ReplaceSubExpr(1, &IntConstExpr{Value: 5})
	if withStep.Step.(*IntConstExpr).Value != 5 {
		t.Fatalf("ReplaceSubExpr(1, ...) did not update Step on a stepped range")
	}
}

func TestMatrixExprReplaceSubExprCrossesRows(t *testing.T) {
	m := &MatrixExpr{Rows: [][]Expr{
		{&IntConstExpr{Value: 1}, &IntConstExpr{Value: 2}},
		{&IntConstExpr{Value: 3}},
	}}
	// slot 2 is row 1's single element (0,1 consumed by row 0).
	m.ReplaceSubExpr(2, &IntConstExpr{Value: 42})
	if m.Rows[1][0].(*IntConstExpr).Value != 42 {
		t.Fatalf("ReplaceSubExpr(2, ...) did not reach row 1's element")
	}
}

func TestLambdaExprSymbolUsesExcludesBoundParams(t *testing.T) {
	tab := symtab.NewTable()
	x, y := tab.Intern("x"), tab.Intern("y")
	lam := &LambdaExpr{
		InParams: []*symtab.Symbol{x},
		Body:     &BinaryOpExpr{Op: BinPlus, Left: &SymbolExpr{Sym: x}, Right: &SymbolExpr{Sym: y}},
	}
	uses := lam.SymbolUses()
	if uses.Has(x) {
		t.Fatalf("LambdaExpr.SymbolUses() should exclude bound parameter %q", x.Name)
	}
	if !uses.Has(y) {
		t.Fatalf("LambdaExpr.SymbolUses() should include free variable %q", y.Name)
	}
}

func TestEndExprSymbolUsesFromAssociations(t *testing.T) {
	tab := symtab.NewTable()
	m := tab.Intern("m")
	e := &EndExpr{Associations: []EndAssoc{{Matrix: m, DimIndex: 0, IsLast: true}}}
	if !e.SymbolUses().Has(m) {
		t.Fatalf("EndExpr.SymbolUses() missing the bound matrix symbol")
	}
}

func TestLeafExprReplaceSubExprPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("IntConstExpr.ReplaceSubExpr should panic: it has no sub-expressions")
		}
	}()
	(&IntConstExpr{Value: 1}).ReplaceSubExpr(0, &IntConstExpr{Value: 2})
}
