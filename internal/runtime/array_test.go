package runtime

import "testing"

func TestArrayAppendAndGet(t *testing.T) {
	a := NewArrayObj(0)
	a.AddObject(NewScalar(MatrixF64, 1))
	a.AddObject(NewScalar(MatrixF64, 2))

	if a.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", a.Size())
	}
	got, err := a.Get(1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if got.(*Matrix).GetScalarVal() != 2 {
		t.Fatalf("Get(1) = %v, want scalar 2", got)
	}
}

func TestArrayGetOutOfBounds(t *testing.T) {
	a := NewArrayObj(0)
	if _, err := a.Get(0); err == nil {
		t.Fatalf("Get(0) on an empty array should error")
	}
}

func TestArrayAppendConcatenates(t *testing.T) {
	a := NewArrayObj(0)
	a.AddObject(NewScalar(MatrixF64, 1))
	b := NewArrayObj(0)
	b.AddObject(NewScalar(MatrixF64, 2))
	b.AddObject(NewScalar(MatrixF64, 3))

	a.Append(b)
	if a.Size() != 3 {
		t.Fatalf("Append result size = %d, want 3", a.Size())
	}
}

func TestArrayCopyIsIndependent(t *testing.T) {
	a := NewArrayObj(0)
	a.AddObject(NewScalar(MatrixF64, 1))
	cp := a.Copy().(*Array)
	cp.AddObject(NewScalar(MatrixF64, 2))
	if a.Size() != 1 {
		t.Fatalf("Copy shared backing slice with the original: original size = %d, want 1", a.Size())
	}
}

func TestCellArrayAtSetBounds(t *testing.T) {
	c := NewCellArrayObj(2, 2)
	if err := c.Set(0, 0, NewScalar(MatrixF64, 7)); err != nil {
		t.Fatalf("Set(0,0): %v", err)
	}
	v, err := c.At(0, 0)
	if err != nil {
		t.Fatalf("At(0,0): %v", err)
	}
	if v.(*Matrix).GetScalarVal() != 7 {
		t.Fatalf("At(0,0) = %v, want scalar 7", v)
	}
	if _, err := c.At(5, 5); err == nil {
		t.Fatalf("At(5,5) on a 2x2 cell array should error")
	}
}

func TestBaseConvertRejectsMismatch(t *testing.T) {
	c := NewClassInstObj("Point")
	if _, err := c.Convert(MatrixF64); err == nil {
		t.Fatalf("Convert to an unrelated kind should fail for a class instance")
	}
	same, err := c.Convert(ClassInst)
	if err != nil || same != c {
		t.Fatalf("Convert to its own kind should be a no-op identity conversion")
	}
}

func TestKindIsMatrixRange(t *testing.T) {
	for _, k := range []Kind{MatrixI32, MatrixF32, MatrixF64, MatrixC128, LogicalArray, CharArray} {
		if !k.IsMatrix() {
			t.Fatalf("Kind %v should report IsMatrix() = true", k)
		}
	}
	for _, k := range []Kind{CellArray, StructInst, ClassInst, FunctionKind, RangeKind, ArrayKind, FnHandleKind} {
		if k.IsMatrix() {
			t.Fatalf("Kind %v should report IsMatrix() = false", k)
		}
	}
}

func TestFunctionValObjKindAndToString(t *testing.T) {
	fv := &FunctionVal{Name: "fact", Fn: nil}
	if fv.ObjKind() != FunctionKind {
		t.Fatalf("ObjKind() = %v, want FunctionKind", fv.ObjKind())
	}
	if fv.ToString() != "@fact" {
		t.Fatalf("ToString() = %q, want %q", fv.ToString(), "@fact")
	}
	if _, err := fv.Convert(MatrixF64); err == nil {
		t.Fatalf("Convert to an unrelated kind should fail for a function value")
	}
}

func TestRangeValExpand(t *testing.T) {
	r := &RangeVal{Start: 1, Step: 2, End: 7}
	got := r.Expand()
	want := []float64{1, 3, 5, 7}
	if len(got) != len(want) {
		t.Fatalf("Expand() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expand()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
