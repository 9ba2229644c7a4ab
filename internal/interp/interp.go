// Package interp implements the reference tree-walking interpreter of
// spec §4.5: the IIR's ground-truth semantics, the JIT's fallback for
// constructs it cannot lower, and the target the JIT's wrapper functions
// call back into for interpreter-call-through cases. Control-flow is
// modeled as an explicit status enum rather than the source's
// exception-style unwinding, per SPEC_FULL's "coroutine-free control
// flow" design note — the same shape sentra's internal/vm.go uses for its
// bytecode dispatch loop (a switch on opcode returning early on
// control-transferring instructions).
package interp

import (
	"fmt"
	"math"
	"sync"

	"mcore/internal/errors"
	"mcore/internal/iir"
	"mcore/internal/runtime"
	"mcore/internal/symtab"
)

// status is the non-local control-flow signal an exec* function returns,
// replacing the source's Break/Continue/Return exceptions.
type status int

const (
	normal status = iota
	brk
	cont
	ret
)

// JITHook lets the interpreter delegate a program-function call to a
// compiled version when one is enabled and appropriate (spec §4.5 step
// 1). A nil hook (or a hook returning ok=false) falls through to
// tree-walking.
type JITHook func(fn *iir.ProgFunction, args *runtime.Array, nargout int) (result *runtime.Array, ok bool, err error)

// Interp is the interpreter's shared state: the symbol table (for the
// `:`-colon and nargin/nargout synthetic symbols), the global function
// environment every call frame chains up to, and an optional JIT
// delegation hook.
type Interp struct {
	Symbols *symtab.Table
	JIT     JITHook

	// Globals is the root of every function's environment chain, the
	// shared table a bare Param head symbol resolves against when it
	// names a function rather than a local variable (spec §4.5,
	// mirroring original_source/interpreter.h's s_globalEnv).
	Globals *runtime.Environment

	colon   *symtab.Symbol
	nargin  *symtab.Symbol
	nargout *symtab.Symbol

	mu   sync.Mutex
	envs map[*iir.ProgFunction]*runtime.Environment
}

// New builds an interpreter over the given symbol table.
func New(symbols *symtab.Table) *Interp {
	return &Interp{
		Symbols: symbols,
		Globals: runtime.NewEnvironment(),
		colon:   symbols.Intern(":"),
		nargin:  symbols.Intern("nargin"),
		nargout: symbols.Intern("nargout"),
		envs:    make(map[*iir.ProgFunction]*runtime.Environment),
	}
}

// BindGlobal registers fn under name in the interpreter's global
// environment, so every call frame's Lookup chain can resolve a bare
// reference to it (spec §4.5's "head symbol resolves to a function
// binding" branch of Param evaluation).
func (in *Interp) BindGlobal(name string, fn iir.Function) {
	in.Globals.Bind(in.Symbols.Intern(name), &runtime.FunctionVal{Name: name, Fn: fn})
}

// Call implements the `call(function, arg_array, nargout) -> array`
// contract of spec §4.5.
func (in *Interp) Call(fn iir.Function, args *runtime.Array, nargout int) (*runtime.Array, error) {
	switch f := fn.(type) {
	case *iir.LibFunction:
		res, err := f.Native(args)
		if err != nil {
			return nil, &errors.RunError{Frames: []string{err.Error()}}
		}
		arr, ok := res.(*runtime.Array)
		if !ok {
			return nil, errors.NewRunError("library function did not return an array")
		}
		return arr, nil
	case *iir.ProgFunction:
		return in.callProg(f, args, nargout)
	default:
		return nil, errors.NewRunError("unknown function kind")
	}
}

func (in *Interp) callProg(fn *iir.ProgFunction, args *runtime.Array, nargout int) (result *runtime.Array, err error) {
	if in.JIT != nil {
		if res, ok, jerr := in.JIT(fn, args, nargout); ok {
			if jerr != nil {
				return nil, (&errors.RunError{Frames: []string{jerr.Error()}}).WithContext("error during call to " + fn.Name)
			}
			return res, nil
		}
	}

	env := in.localEnv(fn).Extend()
	env.Bind(in.nargin, runtime.NewScalar(runtime.MatrixI32, float64(args.Size())))
	env.Bind(in.nargout, runtime.NewScalar(runtime.MatrixI32, float64(nargout)))
	for i, p := range fn.InParams {
		if i < args.Size() {
			v, _ := args.Get(i)
			env.Bind(p, v)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*errors.RunError); ok {
				err = re.WithContext("error during call to " + fn.Name)
				return
			}
			panic(r)
		}
	}()

	in.execSeq(fn.CurBody, env)

	out := runtime.NewArrayObj(len(fn.OutParams))
	for _, p := range fn.OutParams {
		v := env.LookupOrNil(p)
		if v == nil {
			break
		}
		out.AddObject(v)
	}
	return out, nil
}

// localEnv returns fn's persistent local environment, lazily attached
// the first time the function is called (spec §3: "a per-function local
// environment is attached later").
func (in *Interp) localEnv(fn *iir.ProgFunction) *runtime.Environment {
	in.mu.Lock()
	defer in.mu.Unlock()
	if e, ok := in.envs[fn]; ok {
		return e
	}
	e := in.Globals.Extend()
	e.Bind(in.Symbols.Intern(fn.Name), &runtime.FunctionVal{Name: fn.Name, Fn: fn})
	in.envs[fn] = e
	return e
}

func (in *Interp) execSeq(seq *iir.Seq, env *runtime.Environment) status {
	for _, st := range seq.Stmts {
		if s := in.execStmt(st, env); s != normal {
			return s
		}
	}
	return normal
}

func (in *Interp) execStmt(st iir.Stmt, env *runtime.Environment) status {
	switch s := st.(type) {
	case *iir.AssignStmt:
		in.execAssign(s, env)
		return normal
	case *iir.ExprStmt:
		in.evalMulti(s.E, env, 0)
		return normal
	case *iir.IfElseStmt:
		cond := in.eval(s.Cond, env)
		if scalarBool(cond) {
			return in.execSeq(s.Then, env)
		} else if s.Else != nil {
			return in.execSeq(s.Else, env)
		}
		return normal
	case *iir.LoopStmt:
		return in.execLoop(s, env)
	case *iir.BreakStmt:
		return brk
	case *iir.ContinueStmt:
		return cont
	case *iir.ReturnStmt:
		return ret
	default:
		panic(errors.NewRunError(fmt.Sprintf("interp: unsupported statement kind %v", st.Kind())))
	}
}

func (in *Interp) execLoop(s *iir.LoopStmt, env *runtime.Environment) status {
	in.execSeq(s.Init, env)
	for {
		in.execSeq(s.Test, env)
		testVal := env.LookupOrNil(s.TestVar)
		if testVal == nil || !scalarBool(testVal) {
			return normal
		}
		switch st := in.execSeq(s.Body, env); st {
		case ret:
			return ret
		case brk:
			return normal
		}
		in.execSeq(s.Incr, env)
	}
}

func (in *Interp) execAssign(s *iir.AssignStmt, env *runtime.Environment) {
	vals := in.evalMulti(s.Right, env, len(s.Left))
	for i, l := range s.Left {
		if i >= len(vals) {
			break
		}
		in.assignTo(l, vals[i], env)
	}
}

func (in *Interp) assignTo(l iir.Expr, val runtime.DataObject, env *runtime.Environment) {
	switch e := l.(type) {
	case *iir.SymbolExpr:
		env.Bind(e.Sym, val)
	case *iir.ParamExpr:
		in.assignParam(e, val, env)
	case *iir.CellIndexExpr:
		in.assignCellIndex(e, val, env)
	default:
		panic(errors.NewRunError("interp: invalid assignment target"))
	}
}

func (in *Interp) assignParam(e *iir.ParamExpr, val runtime.DataObject, env *runtime.Environment) {
	head := env.LookupOrNil(e.Sym)
	m, ok := head.(*runtime.Matrix)
	if !ok {
		m = runtime.NewMatrix(runtime.MatrixF64, 0, 0)
		env.Bind(e.Sym, m)
	}
	idx := in.evalIndices(e, env, m)
	scalar, ok := val.(*runtime.Matrix)
	if !ok || !scalar.IsScalar() {
		panic(errors.NewRunError("interp: only scalar element writes are supported in this core"))
	}
	v := scalar.GetScalarVal()
	if len(idx) == 1 {
		if idx[0] < 0 {
			panic(errors.NewRunError("negative index in matrix read"))
		}
		if err := m.Write1D(idx[0], v); err != nil {
			panic(&errors.RunError{Frames: []string{err.Error()}})
		}
		return
	}
	if len(idx) == 2 {
		if idx[0] < 0 || idx[1] < 0 {
			panic(errors.NewRunError("negative index in matrix read"))
		}
		if err := m.Write2D(idx[0], idx[1], v); err != nil {
			panic(&errors.RunError{Frames: []string{err.Error()}})
		}
		return
	}
	panic(errors.NewRunError("interp: too many indices for matrix write"))
}

func (in *Interp) assignCellIndex(e *iir.CellIndexExpr, val runtime.DataObject, env *runtime.Environment) {
	head := env.LookupOrNil(e.Sym)
	c, ok := head.(*runtime.CellArrayObj)
	if !ok {
		c = runtime.NewCellArrayObj(1, 1)
		env.Bind(e.Sym, c)
	}
	idx := in.evalIndices(&iir.ParamExpr{Sym: e.Sym, Args: e.Args}, env, nil)
	if len(idx) != 2 {
		panic(errors.NewRunError("interp: cell index must have two subscripts"))
	}
	if err := c.Set(idx[0], idx[1], val); err != nil {
		panic(&errors.RunError{Frames: []string{err.Error()}})
	}
}

// eval evaluates e to a single value (its first return slot).
func (in *Interp) eval(e iir.Expr, env *runtime.Environment) runtime.DataObject {
	vals := in.evalMulti(e, env, 1)
	if len(vals) == 0 {
		panic(errors.NewRunError("insufficient number of return values"))
	}
	return vals[0]
}

// evalMulti evaluates e, expecting up to nargout result values
// (spec §4.5: expression evaluation dispatch).
func (in *Interp) evalMulti(e iir.Expr, env *runtime.Environment, nargout int) []runtime.DataObject {
	switch n := e.(type) {
	case *iir.IntConstExpr:
		return []runtime.DataObject{runtime.NewScalar(runtime.MatrixI32, float64(n.Value))}
	case *iir.FPConstExpr:
		return []runtime.DataObject{runtime.NewScalar(runtime.MatrixF64, n.Value)}
	case *iir.StringConstExpr:
		m := runtime.NewMatrix(runtime.CharArray, 1, len(n.Value))
		for i, ch := range n.Value {
			m.Write1D(i, float64(ch))
		}
		return []runtime.DataObject{m}
	case *iir.SymbolExpr:
		v, err := env.Lookup(n.Sym)
		if err != nil {
			panic(errors.NewRunError(err.Error()))
		}
		return []runtime.DataObject{v}
	case *iir.UnaryOpExpr:
		return []runtime.DataObject{in.evalUnary(n, env)}
	case *iir.BinaryOpExpr:
		return []runtime.DataObject{in.evalBinary(n, env)}
	case *iir.RangeExpr:
		return []runtime.DataObject{in.evalRange(n, env)}
	case *iir.EndExpr:
		return []runtime.DataObject{in.evalEnd(n, env)}
	case *iir.FnHandleExpr:
		return []runtime.DataObject{in.resolveFnHandle(n.Sym, env)}
	case *iir.LambdaExpr:
		return []runtime.DataObject{&runtime.FnHandleVal{Name: "@lambda", Fn: n}}
	case *iir.MatrixExpr:
		return []runtime.DataObject{in.evalMatrixLit(n, env)}
	case *iir.CellArrayExpr:
		return []runtime.DataObject{in.evalCellLit(n, env)}
	case *iir.ParamExpr:
		return in.evalParam(n, env, nargout)
	case *iir.CellIndexExpr:
		return in.evalCellIndex(n, env, nargout)
	default:
		panic(errors.NewRunError(fmt.Sprintf("interp: unsupported expression kind %v", e.Kind())))
	}
}

// resolveFnHandle looks sym up through env's chain (which runs through
// the interpreter's global function table) so an explicit @name handle
// carries the function it names rather than a bare, uncallable name.
func (in *Interp) resolveFnHandle(sym *symtab.Symbol, env *runtime.Environment) *runtime.FnHandleVal {
	if fv, ok := env.LookupOrNil(sym).(*runtime.FunctionVal); ok {
		return &runtime.FnHandleVal{Name: sym.Name, Fn: fv.Fn}
	}
	return &runtime.FnHandleVal{Name: sym.Name}
}

func (in *Interp) evalUnary(n *iir.UnaryOpExpr, env *runtime.Environment) runtime.DataObject {
	v := in.eval(n.Operand, env)
	m, ok := v.(*runtime.Matrix)
	if !ok {
		panic(errors.NewRunError("unary operator requires a matrix operand"))
	}
	switch n.Op {
	case iir.UnaryMinus:
		return runtime.ScalarArrayOp(func(_, e complex128) complex128 { return -e }, 0, m)
	case iir.UnaryNot:
		out, _ := m.Convert(runtime.LogicalArray)
		return runtime.ScalarArrayOp(func(_, e complex128) complex128 {
			if e == 0 {
				return 1
			}
			return 0
		}, 0, out.(*runtime.Matrix))
	case iir.UnaryTransposeArray, iir.UnaryTransposeMatrix:
		return transpose(m)
	default:
		panic(errors.NewRunError("unsupported unary operator"))
	}
}

func transpose(m runtime.DataObject) runtime.DataObject {
	mm := m.(*runtime.Matrix)
	dims := mm.Dims()
	out := runtime.NewMatrix(mm.ObjKind(), dims[1], dims[0])
	for r := 0; r < dims[0]; r++ {
		for c := 0; c < dims[1]; c++ {
			v, _ := mm.Read2D(r, c)
			out.Write2D(c, r, v)
		}
	}
	return out
}

func (in *Interp) evalBinary(n *iir.BinaryOpExpr, env *runtime.Environment) runtime.DataObject {
	if n.Op.IsShortCircuit() {
		panic(errors.NewRunError("interp: short-circuit operator reached evaluation; lowering should have eliminated it"))
	}
	l := in.eval(n.Left, env)
	r := in.eval(n.Right, env)
	lm, lok := l.(*runtime.Matrix)
	rm, rok := r.(*runtime.Matrix)
	if !lok || !rok {
		panic(errors.NewRunError("binary operator requires matrix operands"))
	}
	return dispatchBinary(n.Op, lm, rm)
}

func dispatchBinary(op iir.BinaryOp, l, r *runtime.Matrix) runtime.DataObject {
	switch op {
	case iir.BinMTimes:
		res, err := runtime.MatrixMult(l, r)
		if err != nil {
			panic(&errors.RunError{Frames: []string{err.Error()}})
		}
		return res
	case iir.BinMDiv:
		res, err := runtime.MatrixRightDiv(l, r)
		if err != nil {
			panic(&errors.RunError{Frames: []string{err.Error()}})
		}
		return res
	}
	opFn, isCompare := arithOp(op)
	if l.IsScalar() && !r.IsScalar() {
		return runtime.ScalarArrayOp(func(s, e complex128) complex128 { return opFn(s, e) }, scalarComplex(l), r)
	}
	if r.IsScalar() && !l.IsScalar() {
		return runtime.ScalarArrayOp(func(s, e complex128) complex128 { return opFn(e, s) }, scalarComplex(r), l)
	}
	res, err := runtime.BinArrayOp(opFn, l, r)
	if err != nil {
		panic(&errors.RunError{Frames: []string{err.Error()}})
	}
	if isCompare {
		logical, _ := res.Convert(runtime.LogicalArray)
		return logical
	}
	return res
}

func scalarComplex(m *runtime.Matrix) complex128 { return complex(m.GetScalarVal(), 0) }

func arithOp(op iir.BinaryOp) (fn func(a, b complex128) complex128, isCompare bool) {
	switch op {
	case iir.BinPlus:
		return func(a, b complex128) complex128 { return a + b }, false
	case iir.BinMinus:
		return func(a, b complex128) complex128 { return a - b }, false
	case iir.BinETimes:
		return func(a, b complex128) complex128 { return a * b }, false
	case iir.BinEDiv:
		return func(a, b complex128) complex128 { return a / b }, false
	case iir.BinEPow, iir.BinMPow:
		return cpow, false
	case iir.BinEQ:
		return boolOp(func(a, b complex128) bool { return a == b }), true
	case iir.BinNE:
		return boolOp(func(a, b complex128) bool { return a != b }), true
	case iir.BinLT:
		return boolOp(func(a, b complex128) bool { return real(a) < real(b) }), true
	case iir.BinLE:
		return boolOp(func(a, b complex128) bool { return real(a) <= real(b) }), true
	case iir.BinGT:
		return boolOp(func(a, b complex128) bool { return real(a) > real(b) }), true
	case iir.BinGE:
		return boolOp(func(a, b complex128) bool { return real(a) >= real(b) }), true
	case iir.BinAndElem:
		return boolOp(func(a, b complex128) bool { return a != 0 && b != 0 }), true
	case iir.BinOrElem:
		return boolOp(func(a, b complex128) bool { return a != 0 || b != 0 }), true
	default:
		panic(errors.NewRunError("unsupported binary operator"))
	}
}

func boolOp(pred func(a, b complex128) bool) func(a, b complex128) complex128 {
	return func(a, b complex128) complex128 {
		if pred(a, b) {
			return 1
		}
		return 0
	}
}

// cpow computes a^b for the real exponent common case; full complex
// exponentiation is out of this core's scope (spec §1 Non-goals: bit-exact
// numerical agreement is not required).
func cpow(a, b complex128) complex128 {
	if imag(a) == 0 && imag(b) == 0 {
		return complex(math.Pow(real(a), real(b)), 0)
	}
	return a
}

func (in *Interp) evalRange(n *iir.RangeExpr, env *runtime.Environment) runtime.DataObject {
	start := in.eval(n.Start, env).(*runtime.Matrix).GetScalarVal()
	end := in.eval(n.End, env).(*runtime.Matrix).GetScalarVal()
	step := 1.0
	if n.Step != nil {
		step = in.eval(n.Step, env).(*runtime.Matrix).GetScalarVal()
	}
	r := &runtime.RangeVal{Start: start, Step: step, End: end}
	vec := r.Expand()
	m := runtime.NewMatrix(runtime.MatrixF64, 1, len(vec))
	for i, v := range vec {
		m.Write1D(i, v)
	}
	return m
}

func (in *Interp) evalEnd(n *iir.EndExpr, env *runtime.Environment) runtime.DataObject {
	if len(n.Associations) == 0 {
		panic(errors.NewRunError("interp: unbound end expression"))
	}
	a := n.Associations[0]
	head := env.LookupOrNil(a.Matrix)
	m, ok := head.(*runtime.Matrix)
	if !ok {
		panic(errors.NewRunError("interp: end used outside a matrix subscript"))
	}
	dims := m.Dims()
	if a.IsLast {
		product := 1
		for i := a.DimIndex; i < len(dims); i++ {
			product *= dims[i]
		}
		return runtime.NewScalar(runtime.MatrixI32, float64(product))
	}
	if a.DimIndex >= len(dims) {
		return runtime.NewScalar(runtime.MatrixI32, 1)
	}
	return runtime.NewScalar(runtime.MatrixI32, float64(dims[a.DimIndex]))
}

func (in *Interp) evalMatrixLit(n *iir.MatrixExpr, env *runtime.Environment) runtime.DataObject {
	rows := len(n.Rows)
	if rows == 0 {
		return runtime.NewMatrix(runtime.MatrixF64, 0, 0)
	}
	cols := len(n.Rows[0])
	out := runtime.NewMatrix(runtime.MatrixF64, rows, cols)
	for r, row := range n.Rows {
		for c, expr := range row {
			v := in.eval(expr, env).(*runtime.Matrix).GetScalarVal()
			out.Write2D(r, c, v)
		}
	}
	return out
}

func (in *Interp) evalCellLit(n *iir.CellArrayExpr, env *runtime.Environment) runtime.DataObject {
	rows := len(n.Rows)
	if rows == 0 {
		return runtime.NewCellArrayObj(0, 0)
	}
	cols := len(n.Rows[0])
	out := runtime.NewCellArrayObj(rows, cols)
	for r, row := range n.Rows {
		for c, expr := range row {
			out.Set(r, c, in.eval(expr, env))
		}
	}
	return out
}

// evalIndices resolves a ParamExpr's argument list into 0-based integer
// indices. This core only supports scalar-position element access: a
// bare `:` resolves to the first index (0) of its dimension, and every
// other argument must evaluate to a scalar, so a multi-element range or
// matrix index panics with a RunError.
func (in *Interp) evalIndices(p *iir.ParamExpr, env *runtime.Environment, head *runtime.Matrix) []int {
	out := make([]int, 0, len(p.Args))
	for _, a := range p.Args {
		if sym, ok := a.(*iir.SymbolExpr); ok && sym.Sym.Name == ":" {
			out = append(out, 0)
			continue
		}
		v := in.eval(a, env)
		m, ok := v.(*runtime.Matrix)
		if !ok || !m.IsScalar() {
			panic(errors.NewRunError("interp: non-scalar index is not supported by this core's element-access path"))
		}
		out = append(out, int(m.GetScalarVal())-1)
	}
	return out
}

func (in *Interp) evalParam(n *iir.ParamExpr, env *runtime.Environment, nargout int) []runtime.DataObject {
	head := env.LookupOrNil(n.Sym)
	if head == nil {
		panic(errors.NewRunError("undefined variable: " + n.Sym.Name))
	}
	if fh, ok := head.(*runtime.FnHandleVal); ok {
		return in.callHandle(fh, n.Args, env, nargout)
	}
	if fv, ok := head.(*runtime.FunctionVal); ok {
		return in.callFn(fv.Name, fv.Fn, n.Args, env, nargout)
	}
	m, ok := head.(*runtime.Matrix)
	if !ok {
		panic(errors.NewRunError("interp: indexing is only supported on matrices in this core"))
	}
	idx := in.evalIndices(n, env, m)
	if len(idx) == 1 {
		v, err := m.Read1D(idx[0])
		if err != nil {
			panic(&errors.RunError{Frames: []string{err.Error()}})
		}
		return []runtime.DataObject{runtime.NewScalar(m.ObjKind(), v)}
	}
	if len(idx) == 2 {
		v, err := m.Read2D(idx[0], idx[1])
		if err != nil {
			panic(&errors.RunError{Frames: []string{err.Error()}})
		}
		return []runtime.DataObject{runtime.NewScalar(m.ObjKind(), v)}
	}
	panic(errors.NewRunError("interp: too many indices for matrix read"))
}

func (in *Interp) evalCellIndex(n *iir.CellIndexExpr, env *runtime.Environment, nargout int) []runtime.DataObject {
	head := env.LookupOrNil(n.Sym)
	c, ok := head.(*runtime.CellArrayObj)
	if !ok {
		panic(errors.NewRunError("interp: cell-index requires a cell array"))
	}
	idx := in.evalIndices(&iir.ParamExpr{Sym: n.Sym, Args: n.Args}, env, nil)
	if len(idx) != 2 {
		panic(errors.NewRunError("interp: cell index must have two subscripts"))
	}
	v, err := c.At(idx[0], idx[1])
	if err != nil {
		panic(&errors.RunError{Frames: []string{err.Error()}})
	}
	return []runtime.DataObject{v}
}

// callHandle evaluates a call through a bound function handle, expanding
// any cell-index argument (spec §4.6: "including cell-index expansion,
// which may yield multiple values per argument").
func (in *Interp) callHandle(fh *runtime.FnHandleVal, argExprs []iir.Expr, env *runtime.Environment, nargout int) []runtime.DataObject {
	return in.callFn(fh.Name, fh.Fn, argExprs, env, nargout)
}

// callFn dispatches a call to fnAny, the resolved callee of either an
// explicit @name handle or a bare Param head symbol bound to a Function
// value (spec §4.5's two outcomes of evaluating a Param expression).
func (in *Interp) callFn(name string, fnAny interface{}, argExprs []iir.Expr, env *runtime.Environment, nargout int) []runtime.DataObject {
	args := runtime.NewArrayObj(len(argExprs))
	for _, a := range argExprs {
		for _, v := range in.evalMulti(a, env, 1) {
			args.AddObject(v)
		}
	}
	switch fn := fnAny.(type) {
	case *iir.LambdaExpr:
		lamEnv := env.Extend()
		for i, p := range fn.InParams {
			if i < args.Size() {
				v, _ := args.Get(i)
				lamEnv.Bind(p, v)
			}
		}
		return []runtime.DataObject{in.eval(fn.Body, lamEnv)}
	case *iir.ProgFunction:
		res, err := in.callProg(fn, args, nargout)
		if err != nil {
			panic(err)
		}
		return res.Elements
	case *iir.LibFunction:
		res, err := in.Call(fn, args, nargout)
		if err != nil {
			panic(err)
		}
		return res.Elements
	default:
		panic(errors.NewRunError("interp: unresolved function handle " + name))
	}
}

// scalarBool implements the universal scalar-boolean rule of spec §4.5:
// non-zero scalar is true, a matrix requires every element true, and an
// empty matrix is false.
func scalarBool(v runtime.DataObject) bool {
	m, ok := v.(*runtime.Matrix)
	if !ok {
		return false
	}
	dims := m.Dims()
	n := dims[0] * dims[1]
	if n == 0 {
		return false
	}
	for i := 0; i < n; i++ {
		val, _ := m.Read1D(i)
		if val == 0 {
			return false
		}
	}
	return true
}
