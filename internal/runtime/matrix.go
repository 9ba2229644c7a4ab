package runtime

import (
	"fmt"
	"strings"
)

// Matrix is a dense, column-major 2-D numeric/logical/char matrix. A
// single element kind backs all matrix DataObject variants; ObjKind
// reports which one a particular Matrix was constructed as.
type Matrix struct {
	kind Kind
	rows int
	cols int
	data []complex128 // real kinds only use the real component
}

// NewMatrix allocates a zero-filled rows x cols matrix of the given kind.
func NewMatrix(kind Kind, rows, cols int) *Matrix {
	return &Matrix{kind: kind, rows: rows, cols: cols, data: make([]complex128, rows*cols)}
}

// NewScalar builds a 1x1 matrix of the given kind holding val, the
// `make_scalar` runtime primitive of spec §6.
func NewScalar(kind Kind, val float64) *Matrix {
	m := NewMatrix(kind, 1, 1)
	m.data[0] = complex(val, 0)
	return m
}

func (m *Matrix) ObjKind() Kind { return m.kind }

func (m *Matrix) Copy() DataObject {
	data := make([]complex128, len(m.data))
	copy(data, m.data)
	return &Matrix{kind: m.kind, rows: m.rows, cols: m.cols, data: data}
}

func (m *Matrix) ToString() string {
	var sb strings.Builder
	for r := 0; r < m.rows; r++ {
		if r > 0 {
			sb.WriteString("; ")
		}
		for c := 0; c < m.cols; c++ {
			if c > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%g", real(m.at(r, c)))
		}
	}
	return "[" + sb.String() + "]"
}

func (m *Matrix) Convert(target Kind) (DataObject, error) {
	if target == m.kind {
		return m, nil
	}
	if target.IsMatrix() {
		data := make([]complex128, len(m.data))
		copy(data, m.data)
		return &Matrix{kind: target, rows: m.rows, cols: m.cols, data: data}, nil
	}
	return baseConvert(m, target)
}

// Dims returns the matrix's dimension vector, get_size_array in spec §6.
func (m *Matrix) Dims() []int { return []int{m.rows, m.cols} }

// DimCount returns the number of dimensions (always 2 for this core; the
// source language's N-D arrays are out of scope per spec Non-goals).
func (m *Matrix) DimCount() int { return 2 }

// IsScalar reports whether m is a 1x1 matrix.
func (m *Matrix) IsScalar() bool { return m.rows == 1 && m.cols == 1 }

func (m *Matrix) at(r, c int) complex128 { return m.data[r+c*m.rows] }

// GetScalarVal extracts the scalar value of a 1x1 matrix, the
// `get_scalar_val` runtime primitive of spec §6.
func (m *Matrix) GetScalarVal() float64 {
	return real(m.data[0])
}

// Read2D reads element (row, col) (0-based), read_2d in spec §6.
func (m *Matrix) Read2D(row, col int) (float64, error) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return 0, fmt.Errorf("index out of bounds in matrix read")
	}
	return real(m.at(row, col)), nil
}

// Read1D reads the linear (column-major) element at index i (0-based).
func (m *Matrix) Read1D(i int) (float64, error) {
	if i < 0 || i >= len(m.data) {
		return 0, fmt.Errorf("index out of bounds in matrix read")
	}
	return real(m.data[i]), nil
}

// Write2D writes element (row, col), expanding the matrix first if the
// index lies beyond the current dimensions (write_2d + expand_matrix in
// spec §6).
func (m *Matrix) Write2D(row, col int, val float64) error {
	if row < 0 || col < 0 {
		return fmt.Errorf("negative index in matrix read")
	}
	if row >= m.rows || col >= m.cols {
		m.expand(row+1, col+1)
	}
	m.data[row+col*m.rows] = complex(val, 0)
	return nil
}

// Write1D writes the linear element at index i, expanding a row vector
// (or a matrix with no rows) along its columns, or a column vector along
// its rows, as needed; an index past the end of a matrix with several
// rows and several columns is an error.
func (m *Matrix) Write1D(i int, val float64) error {
	if i < 0 {
		return fmt.Errorf("negative index in matrix read")
	}
	if i >= len(m.data) {
		if m.rows <= 1 {
			m.expand(1, i+1)
		} else if m.cols <= 1 {
			m.expand(i+1, 1)
		} else {
			return fmt.Errorf("index out of bounds in matrix read")
		}
	}
	m.data[i] = complex(val, 0)
	return nil
}

// expand grows the matrix to at least newRows x newCols, per
// expand_matrix in spec §6.
func (m *Matrix) expand(newRows, newCols int) {
	if newRows <= m.rows {
		newRows = m.rows
	}
	if newCols <= m.cols {
		newCols = m.cols
	}
	data := make([]complex128, newRows*newCols)
	for c := 0; c < m.cols; c++ {
		for r := 0; r < m.rows; r++ {
			data[r+c*newRows] = m.at(r, c)
		}
	}
	m.rows, m.cols, m.data = newRows, newCols, data
}

// BinArrayOp applies a binary element-wise operator to two matrices of
// matching shape, bin_array_op in spec §6.
func BinArrayOp(op func(a, b complex128) complex128, a, b *Matrix) (*Matrix, error) {
	if a.rows != b.rows || a.cols != b.cols {
		return nil, fmt.Errorf("matrix dimensions must agree")
	}
	out := NewMatrix(widestKind(a.kind, b.kind), a.rows, a.cols)
	for i := range out.data {
		out.data[i] = op(a.data[i], b.data[i])
	}
	return out, nil
}

// ScalarArrayOp applies op(scalar, element) across every element of m,
// lhs_scalar_array_op in spec §6 (rhs_scalar_array_op is the mirror with
// arguments swapped by the caller).
func ScalarArrayOp(op func(scalar, elem complex128) complex128, scalar complex128, m *Matrix) *Matrix {
	out := NewMatrix(m.kind, m.rows, m.cols)
	for i, v := range m.data {
		out.data[i] = op(scalar, v)
	}
	return out
}

// MatrixMult implements BLAS-shaped matrix multiplication (matrix_mult in
// spec §6) using the naive O(n^3) algorithm; a real runtime would dispatch
// to an external BLAS per spec §1's explicit scope exclusion.
func MatrixMult(a, b *Matrix) (*Matrix, error) {
	if a.cols != b.rows {
		return nil, fmt.Errorf("inner matrix dimensions must agree")
	}
	out := NewMatrix(widestKind(a.kind, b.kind), a.rows, b.cols)
	for i := 0; i < a.rows; i++ {
		for j := 0; j < b.cols; j++ {
			var sum complex128
			for k := 0; k < a.cols; k++ {
				sum += a.at(i, k) * b.at(k, j)
			}
			out.data[i+j*a.rows] = sum
		}
	}
	return out, nil
}

// MatrixRightDiv implements A/B via A * inv(B) for the common scalar-B
// case; matrix_right_div in spec §6.
func MatrixRightDiv(a *Matrix, b *Matrix) (*Matrix, error) {
	if !b.IsScalar() {
		return nil, fmt.Errorf("general matrix right division is not supported")
	}
	s := b.data[0]
	out := NewMatrix(a.kind, a.rows, a.cols)
	for i, v := range a.data {
		out.data[i] = v / s
	}
	return out, nil
}

func widestKind(a, b Kind) Kind {
	if a == MatrixC128 || b == MatrixC128 {
		return MatrixC128
	}
	if a == MatrixF64 || b == MatrixF64 {
		return MatrixF64
	}
	if a == MatrixF32 || b == MatrixF32 {
		return MatrixF32
	}
	return MatrixI32
}
