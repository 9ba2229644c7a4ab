// Package nativeir wraps github.com/llir/llvm's IR builder (the pack's
// one native-code-generation library, surfaced in
// other_examples/bb9c4e55_golint-fixer-exp__cmd-bin2ll-ll.go.go building
// ir.Function/ir.BasicBlock trees by hand) behind the narrow shape
// spec §4.6's JIT specializer actually needs: one module per compiled
// version, one function per specialization, a handful of scalar
// instruction constructors, and a textual module as the emitted
// artifact. There is no pure-Go execution engine in the pack (llir/llvm
// itself only builds and prints IR, it does not JIT-execute it), so a
// Builder's output is the LLVM IR text of a compiled version rather
// than a callable function pointer; internal/jit treats that text as
// the artifact of a successful compile and always executes through
// internal/interp, exactly as if an out-of-process llc/lli picked the
// text back up. This is recorded as a deliberate Open Question
// resolution in DESIGN.md, not a silent gap.
package nativeir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// StorageType names the scalar LLVM types a JIT storage mode maps to
// (spec §4.6's storage-mode family: bool/i64/f64, plus an opaque
// pointer for boxed DataObject fallback).
type StorageType int

const (
	TypeBool StorageType = iota
	TypeI64
	TypeF64
	TypePtr
)

func llType(t StorageType) types.Type {
	switch t {
	case TypeBool:
		return types.I1
	case TypeI64:
		return types.I64
	case TypeF64:
		return types.Double
	default:
		return types.NewPointer(types.I8)
	}
}

// Module wraps one ir.Module: the compilation unit for a single
// function specialization (spec §4.6: one module per (function,
// arg-type-string) version, matching the analysis manager's own cache
// key shape).
type Module struct {
	mod *ir.Module
}

// NewModule starts an empty native-IR module named after the
// specialization it will hold.
func NewModule(name string) *Module {
	m := ir.NewModule()
	m.SourceFilename = name
	return &Module{mod: m}
}

// String renders the module as LLVM IR text, the artifact internal/jit
// stores as a CompiledFunction's body.
func (m *Module) String() string { return m.mod.String() }

// Func is one native function being built inside a Module.
type Func struct {
	fn     *ir.Func
	blocks map[string]*Block
}

// NewFunc declares a function with the given scalar parameter and
// return storage types, mirroring spec §4.6's per-function input/output
// struct shape collapsed to the common case of scalar args and a single
// scalar (or pointer, for boxed fallback) return.
func (m *Module) NewFunc(name string, ret StorageType, paramNames []string, paramTypes []StorageType) *Func {
	params := make([]*ir.Param, len(paramNames))
	for i, pn := range paramNames {
		params[i] = ir.NewParam(pn, llType(paramTypes[i]))
	}
	fn := m.mod.NewFunc(name, llType(ret), params...)
	return &Func{fn: fn, blocks: map[string]*Block{}}
}

// Param returns the i'th declared parameter as a usable value.
func (f *Func) Param(i int) value.Value { return f.fn.Params[i] }

// Block creates (or returns the already-created) basic block named
// name, the unit the JIT's branch-point/phi matching walks one per
// IfElse/Loop arm (spec §4.6).
func (f *Func) Block(name string) *Block {
	b, ok := f.blocks[name]
	if !ok {
		b = &Block{b: f.fn.NewBlock(name)}
		f.blocks[name] = b
	}
	return b
}

// Block wraps one ir.Block with the scalar instruction set the JIT's
// codegen walk actually issues: arithmetic, comparisons, branches, a
// bounds-check predicate, returns, and library/recursive calls.
type Block struct {
	b *ir.Block
}

func (b *Block) AddI(x, y value.Value) value.Value { return b.b.NewAdd(x, y) }
func (b *Block) SubI(x, y value.Value) value.Value { return b.b.NewSub(x, y) }
func (b *Block) MulI(x, y value.Value) value.Value { return b.b.NewMul(x, y) }
func (b *Block) SDivI(x, y value.Value) value.Value { return b.b.NewSDiv(x, y) }

func (b *Block) AddF(x, y value.Value) value.Value { return b.b.NewFAdd(x, y) }
func (b *Block) SubF(x, y value.Value) value.Value { return b.b.NewFSub(x, y) }
func (b *Block) MulF(x, y value.Value) value.Value { return b.b.NewFMul(x, y) }
func (b *Block) DivF(x, y value.Value) value.Value { return b.b.NewFDiv(x, y) }

// ICmp issues an integer comparison per spec §4.6's comparison dispatch
// table (BinEQ/NE/LT/LE/GT/GE lowered to one of these predicates).
func (b *Block) ICmp(pred enum.IPred, x, y value.Value) value.Value {
	return b.b.NewICmp(pred, x, y)
}

// FCmp is the floating-point counterpart of ICmp.
func (b *Block) FCmp(pred enum.FPred, x, y value.Value) value.Value {
	return b.b.NewFCmp(pred, x, y)
}

// BoundsCheck emits `idx >= 0 && idx < size`, returning an i1 the caller
// branches on; internal/jit only emits this when
// internal/analysis.BoundsInfo says the corresponding check was not
// eliminated.
func (b *Block) BoundsCheck(idx, size value.Value) value.Value {
	lower := b.b.NewICmp(enum.IPredSGE, idx, constant.NewInt(types.I64, 0))
	upper := b.b.NewICmp(enum.IPredSLT, idx, size)
	return b.b.NewAnd(lower, upper)
}

// CondBr terminates the block with a two-way branch.
func (b *Block) CondBr(cond value.Value, then, els *Block) {
	b.b.NewCondBr(cond, then.b, els.b)
}

// Br terminates the block with an unconditional branch.
func (b *Block) Br(target *Block) { b.b.NewBr(target.b) }

// Ret terminates the block returning x (or void if x is nil).
func (b *Block) Ret(x value.Value) {
	if x == nil {
		b.b.NewRet(nil)
		return
	}
	b.b.NewRet(x)
}

// Call issues a direct call to callee (spec §4.6's "library direct" and
// "JIT direct" call strategies both lower to this once the callee's
// native function value is resolved).
func (b *Block) Call(callee value.Value, args ...value.Value) value.Value {
	return b.b.NewCall(callee, args...)
}

// ConstI64 and ConstF64 build scalar constants for immediate operands.
func ConstI64(v int64) value.Value    { return constant.NewInt(types.I64, v) }
func ConstF64(v float64) value.Value  { return constant.NewFloat(types.Double, v) }
func ConstBool(v bool) value.Value {
	if v {
		return constant.NewInt(types.I1, 1)
	}
	return constant.NewInt(types.I1, 0)
}

// FuncRef declares (or reuses) an external function signature for a
// callee the module does not itself define, the shape a library-direct
// or recursive call resolves to before emitting Call.
func (m *Module) FuncRef(name string, ret StorageType, paramTypes []StorageType) value.Value {
	params := make([]*ir.Param, len(paramTypes))
	for i, pt := range paramTypes {
		params[i] = ir.NewParam(fmt.Sprintf("a%d", i), llType(pt))
	}
	return m.mod.NewFunc(name, llType(ret), params...)
}
