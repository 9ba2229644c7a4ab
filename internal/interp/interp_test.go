package interp

import (
	"errors"
	"testing"

	"mcore/internal/iir"
	"mcore/internal/runtime"
	"mcore/internal/symtab"
)

func scalarArgs(vals ...float64) *runtime.Array {
	a := runtime.NewArrayObj(len(vals))
	for _, v := range vals {
		a.AddObject(runtime.NewScalar(runtime.MatrixF64, v))
	}
	return a
}

// f(a, b) = a + b
func addFunc(tab *symtab.Table) *iir.ProgFunction {
	a, b, out := tab.Intern("a"), tab.Intern("b"), tab.Intern("out")
	body := iir.NewSeq(iir.NewAssign(
		[]iir.Expr{&iir.SymbolExpr{Sym: out}},
		&iir.BinaryOpExpr{Op: iir.BinPlus, Left: &iir.SymbolExpr{Sym: a}, Right: &iir.SymbolExpr{Sym: b}},
		true,
	))
	return &iir.ProgFunction{
		Name: "add", InParams: []*symtab.Symbol{a, b}, OutParams: []*symtab.Symbol{out}, CurBody: body,
	}
}

func TestCallProgFunctionArithmetic(t *testing.T) {
	tab := symtab.NewTable()
	fn := addFunc(tab)
	in := New(tab)

	res, err := in.Call(fn, scalarArgs(2, 3), 1)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Size() != 1 {
		t.Fatalf("result array size = %d, want 1", res.Size())
	}
	v, _ := res.Get(0)
	m := v.(*runtime.Matrix)
	if got := m.GetScalarVal(); got != 5 {
		t.Fatalf("a+b = %v, want 5", got)
	}
}

func TestCallLibFunction(t *testing.T) {
	tab := symtab.NewTable()
	in := New(tab)
	lib := &iir.LibFunction{
		Name: "double",
		Native: func(args interface{}) (interface{}, error) {
			a := args.(*runtime.Array)
			v, _ := a.Get(0)
			m := v.(*runtime.Matrix)
			out := runtime.NewArrayObj(1)
			out.AddObject(runtime.NewScalar(runtime.MatrixF64, m.GetScalarVal()*2))
			return out, nil
		},
	}
	res, err := in.Call(lib, scalarArgs(4), 1)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	v, _ := res.Get(0)
	if got := v.(*runtime.Matrix).GetScalarVal(); got != 8 {
		t.Fatalf("double(4) = %v, want 8", got)
	}
}

func TestCallLibFunctionErrorWrapped(t *testing.T) {
	tab := symtab.NewTable()
	in := New(tab)
	lib := &iir.LibFunction{
		Name:   "boom",
		Native: func(args interface{}) (interface{}, error) { return nil, errors.New("native failure") },
	}
	if _, err := in.Call(lib, scalarArgs(), 0); err == nil {
		t.Fatalf("Call should propagate the native function's error")
	}
}

// if (0) out=1; else out=2;  -- the else branch should run.
func TestExecIfElseTakesElseBranch(t *testing.T) {
	tab := symtab.NewTable()
	out := tab.Intern("out")
	thenSeq := iir.NewSeq(iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: out}}, &iir.IntConstExpr{Value: 1}, true))
	elseSeq := iir.NewSeq(iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: out}}, &iir.IntConstExpr{Value: 2}, true))
	ifStmt := iir.NewIfElse(&iir.IntConstExpr{Value: 0}, thenSeq, elseSeq)
	fn := &iir.ProgFunction{Name: "f", OutParams: []*symtab.Symbol{out}, CurBody: iir.NewSeq(ifStmt)}

	in := New(tab)
	res, err := in.Call(fn, scalarArgs(), 1)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	v, _ := res.Get(0)
	if got := v.(*runtime.Matrix).GetScalarVal(); got != 2 {
		t.Fatalf("if(0) took the then branch, out = %v, want 2", got)
	}
}

// sum = 0; for i = [1 2 3]: sum = sum + i; end
func TestExecLoopAccumulates(t *testing.T) {
	tab := symtab.NewTable()
	sum, i, testVar := tab.Intern("sum"), tab.Intern("i"), tab.Intern("__test")

	init := iir.NewSeq(
		iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: sum}}, &iir.IntConstExpr{Value: 0}, true),
		iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: i}}, &iir.IntConstExpr{Value: 1}, true),
	)
	test := iir.NewSeq(iir.NewAssign(
		[]iir.Expr{&iir.SymbolExpr{Sym: testVar}},
		&iir.BinaryOpExpr{Op: iir.BinLE, Left: &iir.SymbolExpr{Sym: i}, Right: &iir.IntConstExpr{Value: 3}},
		true,
	))
	body := iir.NewSeq(iir.NewAssign(
		[]iir.Expr{&iir.SymbolExpr{Sym: sum}},
		&iir.BinaryOpExpr{Op: iir.BinPlus, Left: &iir.SymbolExpr{Sym: sum}, Right: &iir.SymbolExpr{Sym: i}},
		true,
	))
	incr := iir.NewSeq(iir.NewAssign(
		[]iir.Expr{&iir.SymbolExpr{Sym: i}},
		&iir.BinaryOpExpr{Op: iir.BinPlus, Left: &iir.SymbolExpr{Sym: i}, Right: &iir.IntConstExpr{Value: 1}},
		true,
	))
	loop := iir.NewLoop(init, test, body, incr, testVar)
	fn := &iir.ProgFunction{Name: "f", OutParams: []*symtab.Symbol{sum}, CurBody: iir.NewSeq(loop)}

	in := New(tab)
	res, err := in.Call(fn, scalarArgs(), 1)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	v, _ := res.Get(0)
	if got := v.(*runtime.Matrix).GetScalarVal(); got != 6 {
		t.Fatalf("sum of 1..3 = %v, want 6", got)
	}
}

// while true: out=out+1; if out==2: break; end end
func TestExecLoopBreakStopsIteration(t *testing.T) {
	tab := symtab.NewTable()
	out, testVar := tab.Intern("out"), tab.Intern("__test")

	init := iir.NewSeq(iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: out}}, &iir.IntConstExpr{Value: 0}, true))
	test := iir.NewSeq(iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: testVar}}, &iir.IntConstExpr{Value: 1}, true))
	breakIf := iir.NewIfElse(
		&iir.BinaryOpExpr{Op: iir.BinEQ, Left: &iir.SymbolExpr{Sym: out}, Right: &iir.IntConstExpr{Value: 2}},
		iir.NewSeq(&iir.BreakStmt{}),
		nil,
	)
	body := iir.NewSeq(
		iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: out}}, &iir.BinaryOpExpr{Op: iir.BinPlus, Left: &iir.SymbolExpr{Sym: out}, Right: &iir.IntConstExpr{Value: 1}}, true),
		breakIf,
	)
	loop := iir.NewLoop(init, test, body, iir.NewSeq(), testVar)
	fn := &iir.ProgFunction{Name: "f", OutParams: []*symtab.Symbol{out}, CurBody: iir.NewSeq(loop)}

	in := New(tab)
	res, err := in.Call(fn, scalarArgs(), 1)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	v, _ := res.Get(0)
	if got := v.(*runtime.Matrix).GetScalarVal(); got != 2 {
		t.Fatalf("loop should break at out=2, got %v", got)
	}
}

func TestAssignToParamWritesMatrixElement(t *testing.T) {
	tab := symtab.NewTable()
	m, out := tab.Intern("m"), tab.Intern("out")

	matLit := &iir.MatrixExpr{Rows: [][]iir.Expr{{&iir.IntConstExpr{Value: 1}, &iir.IntConstExpr{Value: 2}}}}
	assignM := iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: m}}, matLit, true)
	writeElem := iir.NewAssign(
		[]iir.Expr{&iir.ParamExpr{Sym: m, Args: []iir.Expr{&iir.IntConstExpr{Value: 1}}}},
		&iir.IntConstExpr{Value: 9}, true,
	)
	readOut := iir.NewAssign(
		[]iir.Expr{&iir.SymbolExpr{Sym: out}},
		&iir.ParamExpr{Sym: m, Args: []iir.Expr{&iir.IntConstExpr{Value: 1}}}, true,
	)
	fn := &iir.ProgFunction{
		Name: "f", OutParams: []*symtab.Symbol{out},
		CurBody: iir.NewSeq(assignM, writeElem, readOut),
	}

	in := New(tab)
	res, err := in.Call(fn, scalarArgs(), 1)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	v, _ := res.Get(0)
	if got := v.(*runtime.Matrix).GetScalarVal(); got != 9 {
		t.Fatalf("m(1) after write = %v, want 9", got)
	}
}

func TestJITHookShortCircuitsWhenOK(t *testing.T) {
	tab := symtab.NewTable()
	fn := addFunc(tab)
	in := New(tab)
	hookCalled := false
	in.JIT = func(f *iir.ProgFunction, args *runtime.Array, nargout int) (*runtime.Array, bool, error) {
		hookCalled = true
		out := runtime.NewArrayObj(1)
		out.AddObject(runtime.NewScalar(runtime.MatrixF64, 42))
		return out, true, nil
	}

	res, err := in.Call(fn, scalarArgs(2, 3), 1)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !hookCalled {
		t.Fatalf("JIT hook was not invoked")
	}
	v, _ := res.Get(0)
	if got := v.(*runtime.Matrix).GetScalarVal(); got != 42 {
		t.Fatalf("result = %v, want the JIT hook's 42 (tree-walk should not have run)", got)
	}
}

func TestJITHookFallsThroughWhenNotOK(t *testing.T) {
	tab := symtab.NewTable()
	fn := addFunc(tab)
	in := New(tab)
	in.JIT = func(f *iir.ProgFunction, args *runtime.Array, nargout int) (*runtime.Array, bool, error) {
		return nil, false, nil
	}

	res, err := in.Call(fn, scalarArgs(2, 3), 1)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	v, _ := res.Get(0)
	if got := v.(*runtime.Matrix).GetScalarVal(); got != 5 {
		t.Fatalf("result = %v, want 5 from the tree-walk fallback", got)
	}
}

// fact(n) { if n<=1 out=1; else out = n * fact(n-1); end }
func factFunc(tab *symtab.Table) *iir.ProgFunction {
	n, out := tab.Intern("n"), tab.Intern("out")
	factSym := tab.Intern("fact")

	thenSeq := iir.NewSeq(iir.NewAssign([]iir.Expr{&iir.SymbolExpr{Sym: out}}, &iir.IntConstExpr{Value: 1}, true))
	recCall := &iir.ParamExpr{
		Sym: factSym,
		Args: []iir.Expr{&iir.BinaryOpExpr{
			Op: iir.BinMinus, Left: &iir.SymbolExpr{Sym: n}, Right: &iir.IntConstExpr{Value: 1},
		}},
	}
	elseSeq := iir.NewSeq(iir.NewAssign(
		[]iir.Expr{&iir.SymbolExpr{Sym: out}},
		&iir.BinaryOpExpr{Op: iir.BinMTimes, Left: &iir.SymbolExpr{Sym: n}, Right: recCall},
		true,
	))
	ifStmt := iir.NewIfElse(
		&iir.BinaryOpExpr{Op: iir.BinLE, Left: &iir.SymbolExpr{Sym: n}, Right: &iir.IntConstExpr{Value: 1}},
		thenSeq, elseSeq,
	)
	return &iir.ProgFunction{
		Name: "fact", InParams: []*symtab.Symbol{n}, OutParams: []*symtab.Symbol{out},
		CurBody: iir.NewSeq(ifStmt),
	}
}

func TestEvalParamResolvesSelfRecursiveCall(t *testing.T) {
	tab := symtab.NewTable()
	fn := factFunc(tab)
	in := New(tab)

	res, err := in.Call(fn, scalarArgs(5), 1)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	v, _ := res.Get(0)
	if got := v.(*runtime.Matrix).GetScalarVal(); got != 120 {
		t.Fatalf("fact(5) = %v, want 120", got)
	}
}

func TestEvalParamResolvesGloballyBoundFunction(t *testing.T) {
	tab := symtab.NewTable()
	fn := addFunc(tab)
	in := New(tab)
	in.BindGlobal("add", fn)

	caller := &iir.ProgFunction{
		Name: "caller", OutParams: []*symtab.Symbol{tab.Intern("out")},
		CurBody: iir.NewSeq(iir.NewAssign(
			[]iir.Expr{&iir.SymbolExpr{Sym: tab.Intern("out")}},
			&iir.ParamExpr{Sym: tab.Intern("add"), Args: []iir.Expr{&iir.IntConstExpr{Value: 2}, &iir.IntConstExpr{Value: 3}}},
			true,
		)),
	}
	res, err := in.Call(caller, scalarArgs(), 1)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	v, _ := res.Get(0)
	if got := v.(*runtime.Matrix).GetScalarVal(); got != 5 {
		t.Fatalf("add(2,3) via bare name = %v, want 5", got)
	}
}

func TestFnHandleExprResolvesBoundFunction(t *testing.T) {
	tab := symtab.NewTable()
	fn := addFunc(tab)
	in := New(tab)
	in.BindGlobal("add", fn)

	env := in.localEnv(fn)
	handle := in.resolveFnHandle(tab.Intern("add"), env)
	if handle.Fn == nil {
		t.Fatalf("resolveFnHandle should have resolved add to its ProgFunction, got nil Fn")
	}
	res := in.callHandle(handle, []iir.Expr{&iir.IntConstExpr{Value: 2}, &iir.IntConstExpr{Value: 3}}, env, 1)
	if len(res) != 1 {
		t.Fatalf("callHandle returned %d values, want 1", len(res))
	}
	if got := res[0].(*runtime.Matrix).GetScalarVal(); got != 5 {
		t.Fatalf("add(2,3) via handle = %v, want 5", got)
	}
}

func TestScalarBoolEmptyMatrixIsFalse(t *testing.T) {
	m := runtime.NewMatrix(runtime.MatrixF64, 0, 0)
	if scalarBool(m) {
		t.Fatalf("scalarBool on an empty matrix should be false")
	}
}

func TestScalarBoolAllNonZeroIsTrue(t *testing.T) {
	m := runtime.NewMatrix(runtime.MatrixF64, 1, 2)
	m.Write1D(0, 1)
	m.Write1D(1, 1)
	if !scalarBool(m) {
		t.Fatalf("scalarBool should be true when every element is non-zero")
	}
	m.Write1D(1, 0)
	if scalarBool(m) {
		t.Fatalf("scalarBool should be false when any element is zero")
	}
}
