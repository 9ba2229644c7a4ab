package runtime

import (
	"fmt"
	"strings"
)

// Array is the heterogeneous vector used both as an argument list and as
// a multiple-return container, mirroring the shape (if not the NaN-boxed
// storage) of sentra/internal/vmregister's ArrayObj.
type Array struct {
	Elements []DataObject
}

// NewArrayObj creates an array with the given initial capacity reserved
// (create(reserve) in spec §6).
func NewArrayObj(reserve int) *Array {
	return &Array{Elements: make([]DataObject, 0, reserve)}
}

func (a *Array) ObjKind() Kind { return ArrayKind }

func (a *Array) Copy() DataObject {
	els := make([]DataObject, len(a.Elements))
	for i, e := range a.Elements {
		els[i] = e.Copy()
	}
	return &Array{Elements: els}
}

func (a *Array) ToString() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.ToString()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (a *Array) Convert(target Kind) (DataObject, error) { return baseConvert(a, target) }

// AddObject appends obj, add_object in spec §6.
func (a *Array) AddObject(obj DataObject) { a.Elements = append(a.Elements, obj) }

// Append concatenates other's elements onto a, append in spec §6.
func (a *Array) Append(other *Array) { a.Elements = append(a.Elements, other.Elements...) }

// Get returns the i-th element, get_array_obj in spec §6.
func (a *Array) Get(i int) (DataObject, error) {
	if i < 0 || i >= len(a.Elements) {
		return nil, fmt.Errorf("array index out of bounds")
	}
	return a.Elements[i], nil
}

// Size returns the element count, get_array_size in spec §6.
func (a *Array) Size() int { return len(a.Elements) }

// CellArrayObj is a heterogeneous 2-D cell array (distinct from Array,
// which is the unshaped argument/return container).
type CellArrayObj struct {
	Rows, Cols int
	Elements   []DataObject // column-major, like Matrix
}

func NewCellArrayObj(rows, cols int) *CellArrayObj {
	els := make([]DataObject, rows*cols)
	return &CellArrayObj{Rows: rows, Cols: cols, Elements: els}
}

func (c *CellArrayObj) ObjKind() Kind { return CellArray }
func (c *CellArrayObj) Copy() DataObject {
	els := make([]DataObject, len(c.Elements))
	for i, e := range c.Elements {
		if e != nil {
			els[i] = e.Copy()
		}
	}
	return &CellArrayObj{Rows: c.Rows, Cols: c.Cols, Elements: els}
}
func (c *CellArrayObj) ToString() string {
	parts := make([]string, 0, len(c.Elements))
	for _, e := range c.Elements {
		if e == nil {
			parts = append(parts, "[]")
			continue
		}
		parts = append(parts, e.ToString())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (c *CellArrayObj) Convert(target Kind) (DataObject, error) { return baseConvert(c, target) }

func (c *CellArrayObj) At(row, col int) (DataObject, error) {
	if row < 0 || row >= c.Rows || col < 0 || col >= c.Cols {
		return nil, fmt.Errorf("index out of bounds in matrix read")
	}
	return c.Elements[row+col*c.Rows], nil
}

func (c *CellArrayObj) Set(row, col int, val DataObject) error {
	if row < 0 || col < 0 {
		return fmt.Errorf("negative index in matrix read")
	}
	if row >= c.Rows || col >= c.Cols {
		return fmt.Errorf("index out of bounds in matrix read")
	}
	c.Elements[row+col*c.Rows] = val
	return nil
}

// StructInstObj is a single-struct instance of named fields.
type StructInstObj struct {
	Fields map[string]DataObject
}

func NewStructInstObj() *StructInstObj {
	return &StructInstObj{Fields: make(map[string]DataObject)}
}

func (s *StructInstObj) ObjKind() Kind { return StructInst }
func (s *StructInstObj) Copy() DataObject {
	fields := make(map[string]DataObject, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = v.Copy()
	}
	return &StructInstObj{Fields: fields}
}
func (s *StructInstObj) ToString() string {
	parts := make([]string, 0, len(s.Fields))
	for k, v := range s.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v.ToString()))
	}
	return "struct(" + strings.Join(parts, ", ") + ")"
}
func (s *StructInstObj) Convert(target Kind) (DataObject, error) { return baseConvert(s, target) }

// ClassInstObj is an instance of a user-defined class.
type ClassInstObj struct {
	ClassName string
	Fields    map[string]DataObject
}

func NewClassInstObj(className string) *ClassInstObj {
	return &ClassInstObj{ClassName: className, Fields: make(map[string]DataObject)}
}

func (c *ClassInstObj) ObjKind() Kind { return ClassInst }
func (c *ClassInstObj) Copy() DataObject {
	fields := make(map[string]DataObject, len(c.Fields))
	for k, v := range c.Fields {
		fields[k] = v.Copy()
	}
	return &ClassInstObj{ClassName: c.ClassName, Fields: fields}
}
func (c *ClassInstObj) ToString() string { return fmt.Sprintf("<%s instance>", c.ClassName) }
func (c *ClassInstObj) Convert(target Kind) (DataObject, error) { return baseConvert(c, target) }

// RangeVal is a materialized (or lazily described) start:step:end range.
type RangeVal struct {
	Start, Step, End float64
}

func (r *RangeVal) ObjKind() Kind { return RangeKind }
func (r *RangeVal) Copy() DataObject { cp := *r; return &cp }
func (r *RangeVal) ToString() string {
	return fmt.Sprintf("%g:%g:%g", r.Start, r.Step, r.End)
}
func (r *RangeVal) Convert(target Kind) (DataObject, error) {
	if target.IsMatrix() {
		vec := r.Expand()
		m := NewMatrix(target, 1, len(vec))
		for i, v := range vec {
			m.Write1D(i, v)
		}
		return m, nil
	}
	return baseConvert(r, target)
}

// Expand eagerly materializes the range into a value vector (the default
// `expand=true` indexing path of spec §4.5).
func (r *RangeVal) Expand() []float64 {
	var out []float64
	if r.Step == 0 {
		return out
	}
	if r.Step > 0 {
		for v := r.Start; v <= r.End+1e-9; v += r.Step {
			out = append(out, v)
		}
	} else {
		for v := r.Start; v >= r.End-1e-9; v += r.Step {
			out = append(out, v)
		}
	}
	return out
}

// FnHandleVal is a bound function pointer (@sym or an anonymous lambda).
type FnHandleVal struct {
	Name string
	Fn   interface{} // *iir.ProgFunction, *iir.LibFunction, or a lambda closure
}

func (f *FnHandleVal) ObjKind() Kind { return FnHandleKind }
func (f *FnHandleVal) Copy() DataObject { return f }
func (f *FnHandleVal) ToString() string { return "@" + f.Name }
func (f *FnHandleVal) Convert(target Kind) (DataObject, error) { return baseConvert(f, target) }

// FunctionVal is the binding a bare function name resolves to in the
// environment chain, distinct from FnHandleVal's explicit @name syntax
// (spec §3 lists Function and FnHandle as separate data kinds): the
// value a Param expression's head symbol finds when it names a callable
// rather than a variable.
type FunctionVal struct {
	Name string
	Fn   interface{} // *iir.ProgFunction or *iir.LibFunction
}

func (f *FunctionVal) ObjKind() Kind { return FunctionKind }
func (f *FunctionVal) Copy() DataObject { return f }
func (f *FunctionVal) ToString() string { return "@" + f.Name }
func (f *FunctionVal) Convert(target Kind) (DataObject, error) { return baseConvert(f, target) }
