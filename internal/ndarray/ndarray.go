// Package ndarray provides a minimal row-major N-dimensional float64 array.
//
// It carries just enough structure for the synthesizers: shape bookkeeping,
// axis normalization and moving one axis to the trailing position so that a
// reduction can run over contiguous memory regardless of batch shape.
package ndarray

import (
	"errors"
	"fmt"
)

// ErrShape is returned when data and shape disagree or an axis is invalid.
var ErrShape = errors.New("ndarray: shape mismatch")

// Array is a row-major N-d array. A zero-dimensional array holds one value.
type Array struct {
	shape []int
	data  []float64
}

// New wraps data with the given shape. The data slice is copied.
func New(data []float64, shape ...int) (*Array, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative dimension %d", ErrShape, d)
		}
		n *= d
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShape, len(data), shape)
	}
	return &Array{
		shape: append([]int(nil), shape...),
		data:  append([]float64(nil), data...),
	}, nil
}

// Vector returns a 1-D array holding a copy of values.
func Vector(values []float64) *Array {
	return &Array{
		shape: []int{len(values)},
		data:  append([]float64(nil), values...),
	}
}

// Scalar returns a zero-dimensional array.
func Scalar(v float64) *Array {
	return &Array{shape: []int{}, data: []float64{v}}
}

// Zeros returns a zero-filled array of the given shape.
func Zeros(shape ...int) *Array {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Array{shape: append([]int{}, shape...), data: make([]float64, n)}
}

// Shape returns a copy of the array's dimensions.
func (a *Array) Shape() []int {
	return append([]int{}, a.shape...)
}

// NDim returns the number of dimensions.
func (a *Array) NDim() int {
	return len(a.shape)
}

// Size returns the total number of elements.
func (a *Array) Size() int {
	return len(a.data)
}

// Data returns a copy of the flattened row-major values.
func (a *Array) Data() []float64 {
	return append([]float64(nil), a.data...)
}

// Raw exposes the backing slice without copying. Callers must not retain it
// across mutations of the array.
func (a *Array) Raw() []float64 {
	return a.data
}

// Item returns the single value of a one-element array.
func (a *Array) Item() (float64, error) {
	if len(a.data) != 1 {
		return 0, fmt.Errorf("%w: Item on array of size %d", ErrShape, len(a.data))
	}
	return a.data[0], nil
}

// At returns the element at the given multi-index.
func (a *Array) At(idx ...int) float64 {
	return a.data[a.offset(idx)]
}

// Set stores v at the given multi-index.
func (a *Array) Set(v float64, idx ...int) {
	a.data[a.offset(idx)] = v
}

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("ndarray: %d indices for %d dimensions", len(idx), len(a.shape)))
	}
	off := 0
	for i, j := range idx {
		if j < 0 || j >= a.shape[i] {
			panic(fmt.Sprintf("ndarray: index %d out of range for axis %d with size %d", j, i, a.shape[i]))
		}
		off = off*a.shape[i] + j
	}
	return off
}

// SameShape reports whether a and b have identical dimensions.
func (a *Array) SameShape(b *Array) bool {
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	return true
}

// NormalizeAxis maps a possibly negative axis onto [0, ndim).
func NormalizeAxis(axis, ndim int) (int, error) {
	if axis < -ndim || axis >= ndim {
		return 0, fmt.Errorf("%w: axis %d out of range for %d dimensions", ErrShape, axis, ndim)
	}
	if axis < 0 {
		axis += ndim
	}
	return axis, nil
}

// MoveAxisToEnd returns a new array whose given axis has been moved to the
// last position. The remaining axes keep their relative order.
func (a *Array) MoveAxisToEnd(axis int) (*Array, error) {
	axis, err := NormalizeAxis(axis, len(a.shape))
	if err != nil {
		return nil, err
	}

	outer, inner := 1, 1
	for _, d := range a.shape[:axis] {
		outer *= d
	}
	for _, d := range a.shape[axis+1:] {
		inner *= d
	}
	n := a.shape[axis]

	shape := make([]int, 0, len(a.shape))
	shape = append(shape, a.shape[:axis]...)
	shape = append(shape, a.shape[axis+1:]...)
	shape = append(shape, n)

	out := make([]float64, len(a.data))
	for o := 0; o < outer; o++ {
		for i := 0; i < n; i++ {
			src := (o*n + i) * inner
			for k := 0; k < inner; k++ {
				out[(o*inner+k)*n+i] = a.data[src+k]
			}
		}
	}
	return &Array{shape: shape, data: out}, nil
}

// Transpose reverses the axis order of a 2-D array.
func (a *Array) Transpose() (*Array, error) {
	if len(a.shape) != 2 {
		return nil, fmt.Errorf("%w: Transpose needs 2 dimensions, got %d", ErrShape, len(a.shape))
	}
	return a.MoveAxisToEnd(0)
}
