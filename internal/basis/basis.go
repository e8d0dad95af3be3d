package basis

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrDomainMismatch = fmt.Errorf("basis domains are not equal")
	ErrCoefShape      = fmt.Errorf("coefficient matrix shape does not match the basis")
)

// Interval is the 1-D domain of a basis system.
type Interval struct {
	Lo, Hi float64
}

func (r Interval) Len() float64 {
	return r.Hi - r.Lo
}

func (r Interval) Contains(t float64) bool {
	return t >= r.Lo && t <= r.Hi
}

func (r Interval) String() string {
	return fmt.Sprintf("[%g, %g]", r.Lo, r.Hi)
}

// Basis is a finite system of functions spanning the space in which each
// functional datum is approximated. Implementations are immutable: every
// transformation returns a new value.
//
// Evaluate returns the matrix of basis function values with one row per basis
// function and one column per evaluation point.
type Basis interface {
	NBasis() int
	DimDomain() int
	DimCodomain() int
	DomainRange() Interval
	Evaluate(points []float64) (*mat.Dense, error)
	// Rescale maps the basis onto a new domain interval.
	Rescale(r Interval) Basis
	// DerivativeBasisAndCoefs returns the basis of the derivative of order
	// >= 1 together with the transformed coefficient matrix.
	DerivativeBasisAndCoefs(coefs *mat.Dense, order int) (Basis, *mat.Dense, error)
	// AddConstant returns coefficients representing f_i + c_i for a scalar
	// (len 1) or per-sample constant vector.
	AddConstant(coefs *mat.Dense, c []float64) (*mat.Dense, error)
	// ProductBasis returns a basis able to represent pointwise products of
	// functions expressed in the two operand bases.
	ProductBasis(other Basis) (Basis, error)
	Equal(other Basis) bool
	String() string
}

// AddSameBasis adds coefficient matrices of two objects sharing a basis.
func AddSameBasis(b, other Basis, c1, c2 *mat.Dense) (*mat.Dense, error) {
	if !b.Equal(other) {
		return nil, ErrDifferent(b, other)
	}
	r1, k1 := c1.Dims()
	r2, k2 := c2.Dims()
	if r1 != r2 || k1 != k2 {
		return nil, fmt.Errorf("%w: got %dx%d and %dx%d", ErrCoefShape, r1, k1, r2, k2)
	}
	sum := mat.NewDense(r1, k1, nil)
	sum.Add(c1, c2)
	return sum, nil
}

// ScaleCoefficients multiplies each coefficient row by a factor. A single
// factor applies to every sample.
func ScaleCoefficients(coefs *mat.Dense, factors []float64) (*mat.Dense, error) {
	rows, cols := coefs.Dims()
	if len(factors) != 1 && len(factors) != rows {
		return nil, fmt.Errorf(
			"%w: %d scale factors for %d samples", ErrCoefShape, len(factors), rows,
		)
	}
	scaled := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		f := factors[0]
		if len(factors) > 1 {
			f = factors[i]
		}
		for j := 0; j < cols; j++ {
			scaled.Set(i, j, coefs.At(i, j)*f)
		}
	}
	return scaled, nil
}

// ErrDifferent reports an arithmetic attempt across distinct bases. Callers
// match it with errors.Is against ErrDomainMismatch-style sentinels upstream.
func ErrDifferent(b, other Basis) error {
	return fmt.Errorf("operation not supported between %v and %v", b, other)
}

// constantShift adds a scalar or per-sample constant to a single coefficient
// column, scaled by the inverse value of the constant basis function.
func constantShift(coefs *mat.Dense, c []float64, col int, scale float64) (*mat.Dense, error) {
	rows, cols := coefs.Dims()
	if len(c) != 1 && len(c) != rows {
		return nil, fmt.Errorf("%w: %d constants for %d samples", ErrCoefShape, len(c), rows)
	}
	shifted := mat.NewDense(rows, cols, nil)
	shifted.Copy(coefs)
	for i := 0; i < rows; i++ {
		v := c[0]
		if len(c) > 1 {
			v = c[i]
		}
		shifted.Set(i, col, shifted.At(i, col)+v*scale)
	}
	return shifted, nil
}

// defaultProductBasis is the family-agnostic product rule: a B-spline system
// large enough for the product of the operands.
func defaultProductBasis(a, b Basis) Basis {
	order := a.NBasis() + b.NBasis()
	if order > 8 {
		order = 8
	}
	nBasis := a.NBasis() + b.NBasis()
	if nBasis < order+1 {
		nBasis = order + 1
	}
	bs, _ := NewBSpline(a.DomainRange(), nBasis, order)
	return bs
}

// Linspace returns n evenly spaced points covering the interval.
func Linspace(r Interval, n int) []float64 {
	return floats.Span(make([]float64, n), r.Lo, r.Hi)
}
