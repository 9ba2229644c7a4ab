// Package runtime implements the DataObject value model, the chained
// Environment, and the heterogeneous Array container described in
// spec §3 and exposed to the IIR layers through the runtime interface of
// spec §6. The object-header-plus-typed-struct shape mirrors
// sentra/internal/vmregister's Object/StringObj/ArrayObj family, traded
// down from that package's NaN-boxed 64-bit encoding (an execution-speed
// optimization orthogonal to this layer) to plain interface values, since
// the JIT (internal/jit) is the layer that actually needs an unboxed
// physical representation and picks its own storage modes there.
package runtime

import "fmt"

// Kind tags a DataObject's variant. The matrix kinds form a contiguous
// range (MatrixI32..CharArray) so the JIT and analyses can test
// "is-a-matrix" with a single range comparison, per spec §3.
type Kind int

const (
	MatrixI32 Kind = iota
	MatrixF32
	MatrixF64
	MatrixC128
	LogicalArray
	CharArray
	CellArray
	StructInst
	ClassInst
	FunctionKind
	RangeKind
	ArrayKind
	FnHandleKind
	Unknown
)

func (k Kind) String() string {
	names := [...]string{
		"i32", "f32", "f64", "c128", "logical", "char",
		"cell", "struct", "class", "function", "range", "array", "fnhandle", "unknown",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// IsMatrix reports whether k is one of the contiguous numeric/logical/char
// matrix kinds.
func (k Kind) IsMatrix() bool { return k >= MatrixI32 && k <= CharArray }

// DataObject is the runtime value sum type of spec §3. Every kind
// supports copy, a diagnostic string form, and (by default) a convert
// that rejects any conversion it doesn't explicitly implement.
type DataObject interface {
	ObjKind() Kind
	Copy() DataObject
	ToString() string
	Convert(target Kind) (DataObject, error)
}

// baseConvert is embedded by object kinds which support no conversions of
// their own; Convert returns an error unless target equals the object's
// own kind, matching spec §3's "default: throw unless source = target".
func baseConvert(self DataObject, target Kind) (DataObject, error) {
	if self.ObjKind() == target {
		return self, nil
	}
	return nil, fmt.Errorf("cannot convert %s to %s", self.ObjKind(), target)
}
