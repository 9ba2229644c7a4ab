package nativeir

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir/enum"
)

func TestNewFuncDeclaresParamsAndReturnType(t *testing.T) {
	mod := NewModule("test_mod")
	fn := mod.NewFunc("add", TypeF64, []string{"a", "b"}, []StorageType{TypeF64, TypeF64})
	entry := fn.Block("entry")
	sum := entry.AddF(fn.Param(0), fn.Param(1))
	entry.Ret(sum)

	out := mod.String()
	if !strings.Contains(out, "define double @add(double %a, double %b)") {
		t.Fatalf("module text missing expected function signature:\n%s", out)
	}
	if !strings.Contains(out, "fadd") {
		t.Fatalf("module text missing fadd instruction:\n%s", out)
	}
	if !strings.Contains(out, "ret double") {
		t.Fatalf("module text missing ret instruction:\n%s", out)
	}
}

func TestBlockIsReusedByName(t *testing.T) {
	mod := NewModule("m")
	fn := mod.NewFunc("f", TypeI64, nil, nil)
	b1 := fn.Block("entry")
	b2 := fn.Block("entry")
	if b1 != b2 {
		t.Fatalf("Block(\"entry\") called twice should return the same *Block")
	}
}

func TestCondBrEmitsBranchInstruction(t *testing.T) {
	mod := NewModule("m")
	fn := mod.NewFunc("f", TypeBool, []string{"x"}, []StorageType{TypeI64})
	entry := fn.Block("entry")
	thenB := fn.Block("then")
	elseB := fn.Block("else")
	cond := entry.ICmp(enum.IPredSGT, fn.Param(0), ConstI64(0))
	entry.CondBr(cond, thenB, elseB)
	thenB.Ret(ConstBool(true))
	elseB.Ret(ConstBool(false))

	out := mod.String()
	if !strings.Contains(out, "icmp sgt i64") {
		t.Fatalf("module text missing icmp instruction:\n%s", out)
	}
	if !strings.Contains(out, "br i1") {
		t.Fatalf("module text missing conditional branch:\n%s", out)
	}
}

func TestFuncRefDeclaresExternalFunction(t *testing.T) {
	mod := NewModule("m")
	ref := mod.FuncRef("sin", TypeF64, []StorageType{TypeF64})
	if ref == nil {
		t.Fatalf("FuncRef returned nil")
	}
	out := mod.String()
	if !strings.Contains(out, "@sin") {
		t.Fatalf("module text missing the declared external function:\n%s", out)
	}
}

func TestBoundsCheckCombinesLowerAndUpper(t *testing.T) {
	mod := NewModule("m")
	fn := mod.NewFunc("f", TypeBool, []string{"idx", "size"}, []StorageType{TypeI64, TypeI64})
	entry := fn.Block("entry")
	ok := entry.BoundsCheck(fn.Param(0), fn.Param(1))
	entry.Ret(ok)

	out := mod.String()
	if !strings.Contains(out, "and i1") {
		t.Fatalf("BoundsCheck should emit a logical and of the two comparisons:\n%s", out)
	}
}
