// Package numarray implements the small n-dimensional numeric array
// library the expression evaluator exposes under the reserved `np.`
// namespace, plus the `@{…}` matrix-producing
// evaluation and `.T`/`@` operators.
//
// Arrays are row-major flat buffers, the same dense layout convention
// used by the pack's matrix-ops example (katalvlaran/lvlath); unlike
// that library pizza3go's arrays are read-only value types, consistent
// with the "Evaluator values are frozen after assignment" discipline
// requires.
package numarray

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ovitrac/pizza3go/internal/value"
)

var (
	ErrShapeMismatch = errors.New("numarray: shape mismatch")
	ErrNotMatrix     = errors.New("numarray: operand is not 2-D")
	ErrBadLiteral    = errors.New("numarray: malformed array literal")
)

// Array is a dense n-dimensional array of float64.
type Array struct {
	shape []int
	data  []float64
}

func (*Array) Kind() value.Kind { return value.KindArray }

// New builds an Array from an explicit shape and row-major data.
func New(shape []int, data []float64) *Array {
	return &Array{shape: append([]int(nil), shape...), data: append([]float64(nil), data...)}
}

// Scalar wraps a single float64 as a one-element 1-D array (shape
// [1]), the result of `np.array(x)` on a bare number.
func Scalar(x float64) *Array { return &Array{shape: []int{1}, data: []float64{x}} }

// Row builds a 1-D row array from a value slice (used by the
// `$[start:stop]` range shorthand and by `np.array` on a flat list).
func Row(vals []float64) *Array {
	return &Array{shape: []int{len(vals)}, data: append([]float64(nil), vals...)}
}

// Matrix builds a 2-D array from rows of equal length (`$[a b; c d]`).
func Matrix(rows [][]float64) (*Array, error) {
	if len(rows) == 0 {
		return &Array{shape: []int{0, 0}}, nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: ragged rows (%d vs %d)", ErrShapeMismatch, len(r), cols)
		}
		data = append(data, r...)
	}
	return &Array{shape: []int{len(rows), cols}, data: data}, nil
}

func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }
func (a *Array) Len() int { return len(a.data) }
func (a *Array) Data() []float64 {
	return append([]float64(nil), a.data...)
}

func (a *Array) rows() int {
	if len(a.shape) == 0 {
		return 0
	}
	if len(a.shape) == 1 {
		return 1
	}
	return a.shape[0]
}
func (a *Array) cols() int {
	if len(a.shape) == 0 {
		return 0
	}
	if len(a.shape) == 1 {
		return a.shape[0]
	}
	return a.shape[1]
}

// AtLeast2D implements `np.atleast_2d`: a 1-D row becomes a 1xN matrix,
// already-2D-or-higher arrays pass through.
func (a *Array) AtLeast2D() *Array {
	if len(a.shape) >= 2 {
		return a
	}
	return &Array{shape: []int{1, a.cols()}, data: a.data}
}

// T transposes a 2-D array; higher/lower rank arrays are returned
// unchanged (mirrors numpy's no-op behavior for rank != 2, which is
// the only rank pizza3go's templates exercise through `.T`).
func (a *Array) T() *Array {
	if len(a.shape) != 2 {
		return a
	}
	r, c := a.shape[0], a.shape[1]
	out := make([]float64, len(a.data))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[j*r+i] = a.data[i*c+j]
		}
	}
	return &Array{shape: []int{c, r}, data: out}
}

// MatMul implements the `@` operator. A 1xN times Nx1 (or the
// transpose pairing used throughout the forcefield examples, `v.T @
// v`) yields the outer/inner product per ordinary matrix rules.
func (a *Array) MatMul(b *Array) (*Array, error) {
	am := a.AtLeast2D()
	bm := b.AtLeast2D()
	ar, ac := am.shape[0], am.shape[1]
	br, bc := bm.shape[0], bm.shape[1]
	if ac != br {
		return nil, fmt.Errorf("%w: (%d,%d) @ (%d,%d)", ErrShapeMismatch, ar, ac, br, bc)
	}
	out := make([]float64, ar*bc)
	for i := 0; i < ar; i++ {
		for j := 0; j < bc; j++ {
			var sum float64
			for k := 0; k < ac; k++ {
				sum += am.data[i*ac+k] * bm.data[k*bc+j]
			}
			out[i*bc+j] = sum
		}
	}
	return &Array{shape: []int{ar, bc}, data: out}, nil
}

// ElementWise applies op to every pair of elements of two
// equal-shaped arrays, or broadcasts a 1-element array against any
// shape (scalar broadcast), matching the arithmetic `${…}` needs over
// `@{…}` results.
func ElementWise(a, b *Array, op func(x, y float64) float64) (*Array, error) {
	switch {
	case len(a.data) == len(b.data):
		out := make([]float64, len(a.data))
		for i := range a.data {
			out[i] = op(a.data[i], b.data[i])
		}
		return &Array{shape: a.shape, data: out}, nil
	case len(b.data) == 1:
		out := make([]float64, len(a.data))
		for i := range a.data {
			out[i] = op(a.data[i], b.data[0])
		}
		return &Array{shape: a.shape, data: out}, nil
	case len(a.data) == 1:
		out := make([]float64, len(b.data))
		for i := range b.data {
			out[i] = op(a.data[0], b.data[i])
		}
		return &Array{shape: b.shape, data: out}, nil
	default:
		return nil, fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, a.shape, b.shape)
	}
}

// Stack joins same-shaped arrays along a new leading axis, used to
// build the 3-D/4-D arrays allows via nested `$[…]`
// brackets.
func Stack(arrs []*Array) (*Array, error) {
	if len(arrs) == 0 {
		return &Array{}, nil
	}
	shape := arrs[0].shape
	n := len(arrs[0].data)
	for _, a := range arrs[1:] {
		if len(a.data) != n || !sameShape(a.shape, shape) {
			return nil, fmt.Errorf("%w: cannot stack %v and %v", ErrShapeMismatch, shape, a.shape)
		}
	}
	out := make([]float64, 0, n*len(arrs))
	for _, a := range arrs {
		out = append(out, a.data...)
	}
	newShape := append([]int{len(arrs)}, shape...)
	return &Array{shape: newShape, data: out}, nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Flatten implements `np.ndarray.flatten` / the whitelisted `.flatten()`
// method allows.
func (a *Array) Flatten() *Array {
	return &Array{shape: []int{len(a.data)}, data: append([]float64(nil), a.data...)}
}

// Reshape implements the whitelisted `.reshape` method.
func (a *Array) Reshape(shape []int) (*Array, error) {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n != len(a.data) {
		return nil, fmt.Errorf("%w: cannot reshape %v into %v", ErrShapeMismatch, a.shape, shape)
	}
	return &Array{shape: append([]int(nil), shape...), data: append([]float64(nil), a.data...)}, nil
}

// SigFigs controls how many significant digits Text renders for
// partially-evaluated arrays.
const DefaultSigFigs = 4

func (a *Array) Text() string { return a.Format(DefaultSigFigs, false) }
func (a *Array) Repr() string { return a.Format(-1, false) }

// Format renders the array either in full bracketed-nested-list form,
// or — when compact is true and the array is at least 2x2 — as the
// `[r×c dtype]` summary prescribes for values embedded in
// longer strings.
func (a *Array) Format(sigFigs int, compact bool) string {
	if compact && a.rows() >= 2 && a.cols() >= 2 {
		return fmt.Sprintf("[%d×%d float64]", a.rows(), a.cols())
	}
	return a.nested(sigFigs, a.shape, a.data)
}

func (a *Array) nested(sigFigs int, shape []int, data []float64) string {
	if len(shape) == 0 {
		return formatFloat(data[0], sigFigs)
	}
	if len(shape) == 1 {
		parts := make([]string, len(data))
		for i, v := range data {
			parts[i] = formatFloat(v, sigFigs)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	stride := 1
	for _, s := range shape[1:] {
		stride *= s
	}
	n := shape[0]
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = a.nested(sigFigs, shape[1:], data[i*stride:(i+1)*stride])
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatFloat(v float64, sigFigs int) string {
	if sigFigs <= 0 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', sigFigs, 64)
}
