// Package linalg implements the vector and matrix primitives used by the
// network. Every function is pure: inputs are never modified and results are
// freshly allocated.
package linalg

import (
	"math/rand"

	"github.com/pkg/errors"
)

var (
	// ErrShapeMismatch reports operands whose dimensions are incompatible.
	ErrShapeMismatch = errors.New("linalg: shape mismatch")
	// ErrConversion reports a matrix that cannot be flattened into a vector.
	ErrConversion = errors.New("linalg: conversion")
)

// Vector is an ordered sequence of reals.
type Vector []float64

// Matrix is a row-major sequence of equal-length vectors.
type Matrix []Vector

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make(Vector, cols)
	}
	return m
}

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	return append(Vector(nil), v...)
}

// Clone returns a deep copy of m.
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = row.Clone()
	}
	return out
}

// Shape returns the row and column counts. The column count is taken from the
// first row; use Validate to check the rectangular invariant.
func (m Matrix) Shape() (rows, cols int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// Validate reports ErrShapeMismatch when rows differ in length.
func (m Matrix) Validate() error {
	_, cols := m.Shape()
	for i, row := range m {
		if len(row) != cols {
			return errors.Wrapf(ErrShapeMismatch, "row %d has %d columns, want %d", i, len(row), cols)
		}
	}
	return nil
}

// Dot returns the sum of element-wise products of a and b.
func Dot(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Wrapf(ErrShapeMismatch, "dot: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}

// Transpose swaps the rows and columns of m.
func Transpose(m Matrix) (Matrix, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.WithMessage(err, "transpose")
	}
	rows, cols := m.Shape()
	out := NewMatrix(cols, rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c][r] = m[r][c]
		}
	}
	return out, nil
}

// Column promotes v to a column matrix, one element per row.
func Column(v Vector) Matrix {
	out := make(Matrix, len(v))
	for i, x := range v {
		out[i] = Vector{x}
	}
	return out
}

// Sum adds a and b pairwise.
func Sum(a, b Vector) (Vector, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(ErrShapeMismatch, "sum: %d vs %d", len(a), len(b))
	}
	out := make(Vector, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out, nil
}

// Sub subtracts b from a pairwise.
func Sub(a, b Vector) (Vector, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(ErrShapeMismatch, "sub: %d vs %d", len(a), len(b))
	}
	out := make(Vector, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out, nil
}

// SubMatrix subtracts b from a row by row.
func SubMatrix(a, b Matrix) (Matrix, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(ErrShapeMismatch, "sub: %d rows vs %d rows", len(a), len(b))
	}
	out := make(Matrix, len(a))
	for i := range a {
		row, err := Sub(a[i], b[i])
		if err != nil {
			return nil, errors.WithMessagef(err, "row %d", i)
		}
		out[i] = row
	}
	return out, nil
}

// Scale multiplies every element of v by k.
func Scale(v Vector, k float64) Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = x * k
	}
	return out
}

// MatVec computes v·m. It requires len(v) == rows(m) and returns a vector of
// length cols(m).
func MatVec(v Vector, m Matrix) (Vector, error) {
	if len(v) != len(m) {
		return nil, errors.Wrapf(ErrShapeMismatch, "product: vector length %d, matrix rows %d", len(v), len(m))
	}
	t, err := Transpose(m)
	if err != nil {
		return nil, err
	}
	out := make(Vector, len(t))
	for i, col := range t {
		out[i], err = Dot(col, v)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MatMul applies MatVec to every row of a.
func MatMul(a, b Matrix) (Matrix, error) {
	out := make(Matrix, len(a))
	for i, row := range a {
		p, err := MatVec(row, b)
		if err != nil {
			return nil, errors.WithMessagef(err, "row %d", i)
		}
		out[i] = p
	}
	return out, nil
}

// ReLU returns max(0, x) for every element.
func ReLU(v Vector) Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		if x > 0 {
			out[i] = x
		}
	}
	return out
}

// ReLUMatrix broadcasts ReLU over every row.
func ReLUMatrix(m Matrix) Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = ReLU(row)
	}
	return out
}

// ReLUGate keeps delta where the matching value is positive and zeroes it
// elsewhere.
func ReLUGate(delta, values Matrix) (Matrix, error) {
	if len(delta) != len(values) {
		return nil, errors.Wrapf(ErrShapeMismatch, "gate: %d rows vs %d rows", len(delta), len(values))
	}
	out := make(Matrix, len(delta))
	for i := range delta {
		if len(delta[i]) != len(values[i]) {
			return nil, errors.Wrapf(ErrShapeMismatch, "gate row %d: %d vs %d", i, len(delta[i]), len(values[i]))
		}
		out[i] = make(Vector, len(delta[i]))
		for j, d := range delta[i] {
			if values[i][j] > 0 {
				out[i][j] = d
			}
		}
	}
	return out, nil
}

// SumSquares returns the sum of squared elements.
func SumSquares(v Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return sum
}

// ToVector flattens a single-row matrix.
func ToVector(m Matrix) (Vector, error) {
	if len(m) != 1 {
		return nil, errors.Wrapf(ErrConversion, "matrix has %d rows, want 1", len(m))
	}
	return m[0], nil
}

// ToMatrix wraps v as a single-row matrix.
func ToMatrix(v Vector) Matrix {
	return Matrix{v}
}

// RandomVector fills a vector of length n with uniform values in [-1, 1).
func RandomVector(n int, rng *rand.Rand) Vector {
	out := make(Vector, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

// RandomMatrix fills a rows x cols matrix with uniform values in [-1, 1).
func RandomMatrix(rows, cols int, rng *rand.Rand) Matrix {
	out := make(Matrix, rows)
	for i := range out {
		out[i] = RandomVector(cols, rng)
	}
	return out
}
