// Type inference implements the flow-sensitive abstract interpretation of
// spec §4.4: a per-symbol set of candidate type descriptors at every
// program point. Field names follow original_source/typeinfer.h's TypeInfo
// class (objType/is2D/isScalar/isInteger/sizeKnown/matSize/function/
// cellTypes) renamed to Go idiom, per SPEC_FULL §3.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"mcore/internal/iir"
	"mcore/internal/runtime"
	"mcore/internal/symtab"
)

// TypeDescriptor is the abstract type for one value at one program point.
type TypeDescriptor struct {
	ObjKind    runtime.Kind
	Is2D       bool
	IsScalar   bool
	IsInteger  bool
	SizeKnown  bool
	SizeVector []int // meaningful only when SizeKnown
	FuncPtr    iir.Function // non-nil only for ObjKind == FnHandleKind
	CellTypes  TypeSet      // element-type union, meaningful only for CellArray
}

// UnknownDescriptor has every field at its least-informative value.
var UnknownDescriptor = TypeDescriptor{ObjKind: runtime.Unknown}

// key returns a string uniquely identifying d's field values, used for
// descriptor coalescing inside a TypeSet (spec §4.4: "identical
// descriptors coalesce").
func (d TypeDescriptor) key() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|%t|%t|%t|%t|%v", d.ObjKind, d.Is2D, d.IsScalar, d.IsInteger, d.SizeKnown, d.SizeVector)
	if d.FuncPtr != nil {
		sb.WriteString("|fn:" + d.FuncPtr.FuncName())
	}
	keys := make([]string, 0, len(d.CellTypes))
	for k := range d.CellTypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sb.WriteString("|cell:" + strings.Join(keys, ","))
	return sb.String()
}

func (d TypeDescriptor) String() string {
	s := d.ObjKind.String()
	if d.IsScalar {
		s += " scalar"
	}
	if d.IsInteger {
		s += " int"
	}
	if d.SizeKnown {
		s += fmt.Sprintf(" size=%v", d.SizeVector)
	}
	return s
}

// TypeSet is a disjunction over candidate descriptors, keyed by
// TypeDescriptor.key() so identical descriptors coalesce automatically.
type TypeSet map[string]TypeDescriptor

func singleton(d TypeDescriptor) TypeSet { return TypeSet{d.key(): d} }

func (s TypeSet) add(d TypeDescriptor) TypeSet {
	if s == nil {
		s = TypeSet{}
	}
	s[d.key()] = d
	return s
}

// widenThreshold bounds how large a joined TypeSet may grow before it is
// collapsed to the single UnknownDescriptor (spec §4.4 merge rule).
const widenThreshold = 6

// joinTypeSets unions two type sets, widening to Unknown once the
// combined cardinality exceeds widenThreshold.
func joinTypeSets(a, b TypeSet) TypeSet {
	out := make(TypeSet, len(a)+len(b))
	for k, d := range a {
		out[k] = d
	}
	for k, d := range b {
		out[k] = d
	}
	if len(out) > widenThreshold {
		return singleton(UnknownDescriptor)
	}
	return out
}

func equalTypeSets(a, b TypeSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// TypeSetString is a vector of candidate type sets, one per return-value
// slot of an expression that may yield several values.
type TypeSetString []TypeSet

// TypeMap is the per-symbol type-set fact at one program point.
type TypeMap map[*symtab.Symbol]TypeSet

func (m TypeMap) clone() TypeMap {
	out := make(TypeMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func joinTypeMaps(a, b TypeMap) TypeMap {
	out := a.clone()
	for sym, ts := range b {
		if cur, ok := out[sym]; ok {
			out[sym] = joinTypeSets(cur, ts)
		} else {
			out[sym] = ts
		}
	}
	return out
}

func equalTypeMaps(a, b TypeMap) bool {
	if len(a) != len(b) {
		return false
	}
	for sym, ts := range a {
		other, ok := b[sym]
		if !ok || !equalTypeSets(ts, other) {
			return false
		}
	}
	return true
}

// TypeInfo holds, for every statement, the per-symbol type-set fact on
// entry and on exit.
type TypeInfo struct {
	Entry map[iir.Stmt]TypeMap
	Exit  map[iir.Stmt]TypeMap
	// Expr caches the inferred TypeSetString of every expression visited,
	// keyed by the expression's identity — the JIT and bounds analysis
	// consult this for Param argument types.
	Expr map[iir.Expr]TypeSetString
}

// Inferer carries the state shared by one type-inference request: the
// analysis manager (for recursive program-function calls) and the
// library-function registry.
type Inferer struct {
	Manager *Manager
	Libs    map[string]*iir.LibFunction
	// Resolve looks up a program function by name for call sites whose
	// head symbol names a sibling/global function rather than a local
	// variable; nil entries are treated as "not a function".
	Resolve func(name string) *iir.ProgFunction
}

// TypeInferPass returns a PassFunc bound to inf, suitable for
// Manager.Request. argTypeString seeds the input parameters' type sets
// (spec §4.4: "caller-inferred argument types"); returnBottom (the
// recursion breaker) yields an empty TypeInfo with no facts recorded.
func (inf *Inferer) TypeInferPass() PassFunc {
	return func(fn *iir.ProgFunction, body *iir.Seq, argTypeString string, returnBottom bool) (interface{}, error) {
		ti := &TypeInfo{
			Entry: map[iir.Stmt]TypeMap{},
			Exit:  map[iir.Stmt]TypeMap{},
			Expr:  map[iir.Expr]TypeSetString{},
		}
		if returnBottom {
			return ti, nil
		}

		entry := TypeMap{}
		argTypes := decodeArgTypeString(argTypeString)
		for i, p := range fn.InParams {
			if i < len(argTypes) {
				entry[p] = argTypes[i]
			} else {
				entry[p] = singleton(UnknownDescriptor)
			}
		}

		tiRunSeq(inf, ti, body, entry)
		return ti, nil
	}
}

// decodeArgTypeString parses the canonicalized argument type-set string
// produced by EncodeArgTypes back into per-parameter TypeSets. The wire
// form is one tag per parameter ("i64", "f64", "bool", or "obj"), joined
// by ";" — adequate as a cache key and as a scalar-int/float/unknown
// seed, which is all the recursive-call path needs.
func decodeArgTypeString(s string) []TypeSet {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]TypeSet, len(parts))
	for i, p := range parts {
		out[i] = decodeOneArgType(p)
	}
	return out
}

func decodeOneArgType(tag string) TypeSet {
	switch tag {
	case "i64":
		return singleton(TypeDescriptor{ObjKind: runtime.MatrixI32, Is2D: true, IsScalar: true, IsInteger: true, SizeKnown: true, SizeVector: []int{1, 1}})
	case "f64":
		return singleton(TypeDescriptor{ObjKind: runtime.MatrixF64, Is2D: true, IsScalar: true, SizeKnown: true, SizeVector: []int{1, 1}})
	case "bool":
		return singleton(TypeDescriptor{ObjKind: runtime.LogicalArray, Is2D: true, IsScalar: true, IsInteger: true, SizeKnown: true, SizeVector: []int{1, 1}})
	default:
		return singleton(UnknownDescriptor)
	}
}

// EncodeArgTypes canonicalizes a slice of runtime DataObjects (an actual
// call's arguments) into the arg-type-string cache key spec §4.3
// requires — used by both the analysis manager and the JIT's per-version
// lookup.
func EncodeArgTypes(args []runtime.DataObject) string {
	tags := make([]string, len(args))
	for i, a := range args {
		tags[i] = tagOf(a)
	}
	return strings.Join(tags, ";")
}

func tagOf(obj runtime.DataObject) string {
	m, ok := obj.(*runtime.Matrix)
	if !ok || !m.IsScalar() {
		return "obj"
	}
	switch m.ObjKind() {
	case runtime.MatrixI32:
		return "i64"
	case runtime.LogicalArray:
		return "bool"
	default:
		return "f64"
	}
}

func tiRunSeq(inf *Inferer, ti *TypeInfo, seq *iir.Seq, in TypeMap) TypeMap {
	cur := in
	for _, st := range seq.Stmts {
		ti.Entry[st] = cur
		cur = tiTransfer(inf, ti, st, cur)
		ti.Exit[st] = cur
	}
	return cur
}

func tiTransfer(inf *Inferer, ti *TypeInfo, st iir.Stmt, in TypeMap) TypeMap {
	switch s := st.(type) {
	case *iir.AssignStmt:
		rhsTypes := tiEvalMulti(inf, ti, s.Right, in, len(s.Left))
		out := in.clone()
		for i, l := range s.Left {
			sym := assignTargetSymbol(l)
			if sym == nil {
				continue
			}
			var rt TypeSet
			if i < len(rhsTypes) {
				rt = rhsTypes[i]
			} else {
				rt = singleton(UnknownDescriptor)
			}
			out[sym] = rt
		}
		return out
	case *iir.ExprStmt:
		tiEvalMulti(inf, ti, s.E, in, 1)
		return in
	case *iir.IfElseStmt:
		tiEval(inf, ti, s.Cond, in)
		thenOut := tiRunSeq(inf, ti, s.Then, in.clone())
		var elseOut TypeMap
		if s.Else != nil {
			elseOut = tiRunSeq(inf, ti, s.Else, in.clone())
		} else {
			elseOut = in
		}
		return joinTypeMaps(thenOut, elseOut)
	case *iir.LoopStmt:
		cur := tiRunSeq(inf, ti, s.Init, in.clone())
		for i := 0; i < 50; i++ { // widen-after-N-iterations: after 50 non-converging rounds every symbol becomes Unknown
			testOut := tiRunSeq(inf, ti, s.Test, cur.clone())
			bodyOut := tiRunSeq(inf, ti, s.Body, testOut.clone())
			incrOut := tiRunSeq(inf, ti, s.Incr, bodyOut.clone())
			next := joinTypeMaps(cur, incrOut)
			if equalTypeMaps(next, cur) {
				cur = testOut
				break
			}
			if i == 49 {
				next = widenAll(next)
			}
			cur = next
		}
		return cur
	default:
		return in
	}
}

func widenAll(m TypeMap) TypeMap {
	out := make(TypeMap, len(m))
	for sym := range m {
		out[sym] = singleton(UnknownDescriptor)
	}
	return out
}

// tiEval evaluates e to a single TypeSet (its first return slot).
func tiEval(inf *Inferer, ti *TypeInfo, e iir.Expr, in TypeMap) TypeSet {
	ts := tiEvalMulti(inf, ti, e, in, 1)
	if len(ts) == 0 {
		return singleton(UnknownDescriptor)
	}
	return ts[0]
}

// tiEvalMulti evaluates e structurally per spec §4.4, caching the result
// in ti.Expr and returning up to nargout type sets.
func tiEvalMulti(inf *Inferer, ti *TypeInfo, e iir.Expr, in TypeMap, nargout int) TypeSetString {
	if cached, ok := ti.Expr[e]; ok {
		return cached
	}
	result := tiEvalMultiUncached(inf, ti, e, in, nargout)
	ti.Expr[e] = result
	return result
}

var scalarInt = TypeDescriptor{ObjKind: runtime.MatrixI32, Is2D: true, IsScalar: true, IsInteger: true, SizeKnown: true, SizeVector: []int{1, 1}}
var scalarF64 = TypeDescriptor{ObjKind: runtime.MatrixF64, Is2D: true, IsScalar: true, SizeKnown: true, SizeVector: []int{1, 1}}
var scalarLogical = TypeDescriptor{ObjKind: runtime.LogicalArray, Is2D: true, IsScalar: true, IsInteger: true, SizeKnown: true, SizeVector: []int{1, 1}}

func tiEvalMultiUncached(inf *Inferer, ti *TypeInfo, e iir.Expr, in TypeMap, nargout int) TypeSetString {
	switch n := e.(type) {
	case *iir.IntConstExpr:
		return TypeSetString{singleton(scalarInt)}
	case *iir.FPConstExpr:
		return TypeSetString{singleton(scalarF64)}
	case *iir.StringConstExpr:
		return TypeSetString{singleton(TypeDescriptor{ObjKind: runtime.CharArray, Is2D: true, SizeKnown: true, SizeVector: []int{1, len(n.Value)}})}
	case *iir.SymbolExpr:
		if ts, ok := in[n.Sym]; ok {
			return TypeSetString{ts}
		}
		return TypeSetString{singleton(UnknownDescriptor)}
	case *iir.UnaryOpExpr:
		operand := tiEval(inf, ti, n.Operand, in)
		return TypeSetString{unaryResultType(n.Op, operand)}
	case *iir.BinaryOpExpr:
		left := tiEval(inf, ti, n.Left, in)
		right := tiEval(inf, ti, n.Right, in)
		return TypeSetString{binaryResultType(n.Op, left, right)}
	case *iir.RangeExpr:
		tiEval(inf, ti, n.Start, in)
		tiEval(inf, ti, n.End, in)
		if n.Step != nil {
			tiEval(inf, ti, n.Step, in)
		}
		return TypeSetString{singleton(TypeDescriptor{ObjKind: runtime.RangeKind})}
	case *iir.EndExpr:
		return TypeSetString{singleton(scalarInt)}
	case *iir.FnHandleExpr:
		var fn iir.Function
		if inf.Resolve != nil {
			if pf := inf.Resolve(n.Sym.Name); pf != nil {
				fn = pf
			}
		}
		return TypeSetString{singleton(TypeDescriptor{ObjKind: runtime.FnHandleKind, FuncPtr: fn})}
	case *iir.LambdaExpr:
		return TypeSetString{singleton(TypeDescriptor{ObjKind: runtime.FnHandleKind})}
	case *iir.MatrixExpr:
		rows := len(n.Rows)
		cols := 0
		if rows > 0 {
			cols = len(n.Rows[0])
		}
		kind := runtime.MatrixF64
		allInt := true
		for _, row := range n.Rows {
			for _, c := range row {
				cd := tiEval(inf, ti, c, in)
				for _, d := range cd {
					if !d.IsInteger {
						allInt = false
					}
				}
			}
		}
		if allInt {
			kind = runtime.MatrixI32
		}
		return TypeSetString{singleton(TypeDescriptor{
			ObjKind: kind, Is2D: true, IsScalar: rows == 1 && cols == 1, IsInteger: allInt,
			SizeKnown: true, SizeVector: []int{rows, cols},
		})}
	case *iir.CellArrayExpr:
		rows := len(n.Rows)
		cols := 0
		if rows > 0 {
			cols = len(n.Rows[0])
		}
		var elemTypes TypeSet
		for _, row := range n.Rows {
			for _, c := range row {
				cd := tiEval(inf, ti, c, in)
				elemTypes = joinTypeSets(elemTypes, cd)
			}
		}
		return TypeSetString{singleton(TypeDescriptor{
			ObjKind: runtime.CellArray, Is2D: true, SizeKnown: true, SizeVector: []int{rows, cols}, CellTypes: elemTypes,
		})}
	case *iir.ParamExpr:
		for _, a := range n.Args {
			tiEval(inf, ti, a, in)
		}
		return tiEvalCallOrIndex(inf, ti, n, in, nargout)
	case *iir.CellIndexExpr:
		for _, a := range n.Args {
			tiEval(inf, ti, a, in)
		}
		headType := tiEval(inf, ti, &iir.SymbolExpr{Sym: n.Sym}, in)
		out := TypeSetString{}
		for i := 0; i < nargout; i++ {
			if i == 0 {
				merged := TypeSet{}
				for _, d := range headType {
					merged = joinTypeSets(merged, d.CellTypes)
				}
				if len(merged) == 0 {
					merged = singleton(UnknownDescriptor)
				}
				out = append(out, merged)
			} else {
				out = append(out, singleton(UnknownDescriptor))
			}
		}
		return out
	default:
		return TypeSetString{singleton(UnknownDescriptor)}
	}
}

// tiEvalCallOrIndex handles a ParamExpr: a head symbol bound to a
// function (library or program) is a call; otherwise it's matrix/cell
// indexing, which for a scalar-shaped index set yields a scalar of the
// indexed matrix's element kind.
func tiEvalCallOrIndex(inf *Inferer, ti *TypeInfo, n *iir.ParamExpr, in TypeMap, nargout int) TypeSetString {
	if lib, ok := inf.Libs[n.Sym.Name]; ok {
		return tiEvalLibCall(lib, n, in, nargout)
	}
	if inf.Resolve != nil {
		if pf := inf.Resolve(n.Sym.Name); pf != nil {
			return tiEvalProgCall(inf, pf, n, in, nargout)
		}
	}
	// Indexing: result element kind matches the head symbol's inferred
	// matrix kind; shape/scalarness of the result depend on the index
	// expressions, but this core conservatively reports a non-scalar
	// unless every index argument is itself scalar.
	headTs, ok := in[n.Sym]
	if !ok {
		return TypeSetString{singleton(UnknownDescriptor)}
	}
	allScalarIdx := true
	for _, a := range n.Args {
		for _, d := range tiEval(inf, ti, a, in) {
			if !d.IsScalar {
				allScalarIdx = false
			}
		}
	}
	out := TypeSet{}
	for _, d := range headTs {
		if !d.ObjKind.IsMatrix() {
			out = joinTypeSets(out, singleton(d))
			continue
		}
		res := TypeDescriptor{ObjKind: d.ObjKind, Is2D: true, IsScalar: allScalarIdx && len(n.Args) > 0, IsInteger: d.IsInteger}
		if allScalarIdx {
			res.SizeKnown = true
			res.SizeVector = []int{1, 1}
		}
		out = joinTypeSets(out, singleton(res))
	}
	if len(out) == 0 {
		out = singleton(UnknownDescriptor)
	}
	return TypeSetString{out}
}

func tiEvalLibCall(lib *iir.LibFunction, n *iir.ParamExpr, in TypeMap, nargout int) TypeSetString {
	if lib.TypeMap == nil {
		out := make(TypeSetString, nargout)
		for i := range out {
			out[i] = singleton(UnknownDescriptor)
		}
		return out
	}
	argTags := make([]string, len(n.Args))
	for i, a := range n.Args {
		if sym, ok := a.(*iir.SymbolExpr); ok {
			if ts, ok := in[sym.Sym]; ok {
				argTags[i] = tagOfTypeSet(ts)
				continue
			}
		}
		argTags[i] = "obj"
	}
	retTag := lib.TypeMap(strings.Join(argTags, ";"))
	out := TypeSetString{}
	for _, tag := range strings.Split(retTag, ";") {
		out = append(out, decodeOneArgType(tag))
	}
	for len(out) < nargout {
		out = append(out, singleton(UnknownDescriptor))
	}
	return out
}

func tagOfTypeSet(ts TypeSet) string {
	for _, d := range ts {
		if d.IsScalar && d.IsInteger {
			return "i64"
		}
		if d.IsScalar && d.ObjKind == runtime.LogicalArray {
			return "bool"
		}
		if d.IsScalar {
			return "f64"
		}
	}
	return "obj"
}

// tiEvalProgCall requests type inference on the callee with the
// caller-inferred argument types, breaking recursion via the manager's
// bottom flag (spec §4.4 "Program function calls").
func tiEvalProgCall(inf *Inferer, callee *iir.ProgFunction, n *iir.ParamExpr, in TypeMap, nargout int) TypeSetString {
	argTags := make([]string, len(n.Args))
	for i, a := range n.Args {
		if sym, ok := a.(*iir.SymbolExpr); ok {
			if ts, ok := in[sym.Sym]; ok {
				argTags[i] = tagOfTypeSet(ts)
				continue
			}
		}
		argTags[i] = "obj"
	}
	argTypeString := strings.Join(argTags, ";")

	result, err := inf.Manager.Request("typeinfer", inf.TypeInferPass(), callee, callee.CurBody, argTypeString)
	if err != nil {
		out := make(TypeSetString, nargout)
		for i := range out {
			out[i] = singleton(UnknownDescriptor)
		}
		return out
	}
	calleeInfo := result.(*TypeInfo)

	out := make(TypeSetString, 0, nargout)
	for i := 0; i < nargout && i < len(callee.OutParams); i++ {
		sym := callee.OutParams[i]
		exitFact := exitOf(calleeInfo, callee.CurBody)
		if ts, ok := exitFact[sym]; ok {
			out = append(out, ts)
		} else {
			out = append(out, singleton(UnknownDescriptor))
		}
	}
	for len(out) < nargout {
		out = append(out, singleton(UnknownDescriptor))
	}
	return out
}

// exitOf returns the fact at the end of body — the exit fact of its last
// statement, or an empty map for an empty body.
func exitOf(ti *TypeInfo, body *iir.Seq) TypeMap {
	if len(body.Stmts) == 0 {
		return TypeMap{}
	}
	last := body.Stmts[len(body.Stmts)-1]
	if m, ok := ti.Exit[last]; ok {
		return m
	}
	return TypeMap{}
}

// unaryResultType implements spec §4.4's unary arithmetic rule: result
// shape/scalarness/integerness mirror the operand except logical-not,
// which always yields a logical descriptor.
func unaryResultType(op iir.UnaryOp, operand TypeSet) TypeSet {
	out := TypeSet{}
	for _, d := range operand {
		r := d
		if op == iir.UnaryNot {
			r.ObjKind = runtime.LogicalArray
			r.IsInteger = true
		}
		out = joinTypeSets(out, singleton(r))
	}
	if len(out) == 0 {
		out = singleton(UnknownDescriptor)
	}
	return out
}

// binaryResultType implements spec §4.4's parametric arithmetic,
// matrix-multiplication, and comparison type-mapping rules.
func binaryResultType(op iir.BinaryOp, left, right TypeSet) TypeSet {
	out := TypeSet{}
	for _, l := range left {
		for _, r := range right {
			out = joinTypeSets(out, singleton(binaryPairType(op, l, r)))
		}
	}
	if len(out) == 0 {
		out = singleton(UnknownDescriptor)
	}
	return out
}

func isComparison(op iir.BinaryOp) bool {
	switch op {
	case iir.BinEQ, iir.BinNE, iir.BinLT, iir.BinLE, iir.BinGT, iir.BinGE:
		return true
	}
	return false
}

func binaryPairType(op iir.BinaryOp, l, r TypeDescriptor) TypeDescriptor {
	if isComparison(op) {
		return TypeDescriptor{
			ObjKind: runtime.LogicalArray, IsInteger: true,
			Is2D: l.Is2D && r.Is2D, IsScalar: l.IsScalar && r.IsScalar,
			SizeKnown: l.SizeKnown && r.SizeKnown, SizeVector: mergeSize(l, r),
		}
	}
	if l.ObjKind == runtime.Unknown || r.ObjKind == runtime.Unknown {
		return UnknownDescriptor
	}
	kind := runtime.MatrixF64
	if op != iir.BinMTimes && op != iir.BinMDiv && op != iir.BinMLDiv && op != iir.BinMPow {
		// Element-wise arithmetic merges two operand type sets: complex
		// if either is complex, otherwise integer-preserving when both
		// operands are integer-typed, otherwise f64 (spec §4.4).
		if l.ObjKind == runtime.MatrixC128 || r.ObjKind == runtime.MatrixC128 {
			kind = runtime.MatrixC128
		} else if l.IsInteger && r.IsInteger {
			kind = runtime.MatrixI32
		}
	} else if l.ObjKind == runtime.MatrixC128 || r.ObjKind == runtime.MatrixC128 {
		kind = runtime.MatrixC128
	}
	d := TypeDescriptor{
		ObjKind:   kind,
		Is2D:      l.Is2D && r.Is2D,
		IsScalar:  l.IsScalar && r.IsScalar,
		IsInteger: l.IsInteger && r.IsInteger && kind != runtime.MatrixF64 && kind != runtime.MatrixC128,
		SizeKnown: l.SizeKnown && r.SizeKnown,
	}
	if op == iir.BinMTimes && d.SizeKnown && len(l.SizeVector) == 2 && len(r.SizeVector) == 2 {
		d.SizeVector = []int{l.SizeVector[0], r.SizeVector[1]}
	} else {
		d.SizeVector = mergeSize(l, r)
	}
	return d
}

func mergeSize(l, r TypeDescriptor) []int {
	if l.IsScalar && r.SizeKnown {
		return r.SizeVector
	}
	if r.IsScalar && l.SizeKnown {
		return l.SizeVector
	}
	if l.SizeKnown && r.SizeKnown {
		return l.SizeVector
	}
	return nil
}
