package basis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// BSpline is a clamped B-spline basis of the given order (degree + 1) over a
// knot sequence. The knot slice holds the domain endpoints and the interior
// breakpoints without repetition; endpoint multiplicity is handled internally.
type BSpline struct {
	knots []float64
	order int
}

// NewBSpline builds a B-spline basis with uniformly spaced knots.
func NewBSpline(domain Interval, nBasis, order int) (*BSpline, error) {
	if order < 1 {
		return nil, fmt.Errorf("spline order must be at least 1, got %d", order)
	}
	if nBasis < order {
		return nil, fmt.Errorf("spline needs nBasis >= order, got %d < %d", nBasis, order)
	}
	if domain.Len() <= 0 {
		return nil, fmt.Errorf("invalid domain range %v", domain)
	}
	knots := Linspace(domain, nBasis-order+2)
	return &BSpline{knots: knots, order: order}, nil
}

// NewBSplineKnots builds a B-spline basis over explicit breakpoints.
func NewBSplineKnots(knots []float64, order int) (*BSpline, error) {
	if len(knots) < 2 {
		return nil, fmt.Errorf("spline needs at least two knots, got %d", len(knots))
	}
	if order < 1 {
		return nil, fmt.Errorf("spline order must be at least 1, got %d", order)
	}
	owned := make([]float64, len(knots))
	copy(owned, knots)
	return &BSpline{knots: owned, order: order}, nil
}

func (b *BSpline) NBasis() int      { return len(b.knots) + b.order - 2 }
func (b *BSpline) DimDomain() int   { return 1 }
func (b *BSpline) DimCodomain() int { return 1 }
func (b *BSpline) Order() int       { return b.order }

func (b *BSpline) DomainRange() Interval {
	return Interval{Lo: b.knots[0], Hi: b.knots[len(b.knots)-1]}
}

// fullKnots returns the clamped knot vector with endpoint multiplicity equal
// to the order.
func (b *BSpline) fullKnots() []float64 {
	full := make([]float64, 0, len(b.knots)+2*(b.order-1))
	for i := 0; i < b.order-1; i++ {
		full = append(full, b.knots[0])
	}
	full = append(full, b.knots...)
	for i := 0; i < b.order-1; i++ {
		full = append(full, b.knots[len(b.knots)-1])
	}
	return full
}

// coxDeBoor evaluates N_{i,k}(t) over the full knot vector by the standard
// recurrence, with the 0/0 convention mapped to 0.
func coxDeBoor(full []float64, i, k int, t, hi float64) float64 {
	if k == 1 {
		if full[i] <= t && t < full[i+1] {
			return 1
		}
		// Right-closed on the last nonempty span.
		if t == hi && full[i] < full[i+1] && full[i+1] == hi {
			return 1
		}
		return 0
	}
	var left, right float64
	if d := full[i+k-1] - full[i]; d > 0 {
		left = (t - full[i]) / d * coxDeBoor(full, i, k-1, t, hi)
	}
	if d := full[i+k] - full[i+1]; d > 0 {
		right = (full[i+k] - t) / d * coxDeBoor(full, i+1, k-1, t, hi)
	}
	return left + right
}

func (b *BSpline) Evaluate(points []float64) (*mat.Dense, error) {
	full := b.fullKnots()
	hi := b.knots[len(b.knots)-1]
	lo := b.knots[0]
	nBasis := b.NBasis()
	values := mat.NewDense(nBasis, len(points), nil)
	for j, t := range points {
		// Splines are not defined outside the knot span; clamp.
		if t < lo {
			t = lo
		} else if t > hi {
			t = hi
		}
		for i := 0; i < nBasis; i++ {
			values.Set(i, j, coxDeBoor(full, i, b.order, t, hi))
		}
	}
	return values, nil
}

func (b *BSpline) Rescale(r Interval) Basis {
	old := b.DomainRange()
	scale := r.Len() / old.Len()
	knots := make([]float64, len(b.knots))
	for i, t := range b.knots {
		knots[i] = r.Lo + (t-old.Lo)*scale
	}
	return &BSpline{knots: knots, order: b.order}
}

func (b *BSpline) DerivativeBasisAndCoefs(coefs *mat.Dense, order int) (Basis, *mat.Dense, error) {
	if order < 1 {
		return nil, nil, fmt.Errorf("derivative order must be positive, got %d", order)
	}
	if order >= b.order {
		return nil, nil, fmt.Errorf(
			"derivative order %d exceeds spline degree %d", order, b.order-1,
		)
	}
	current := mat.DenseCopyOf(coefs)
	deriv := b
	for o := 0; o < order; o++ {
		full := deriv.fullKnots()
		k := deriv.order
		rows, cols := current.Dims()
		next := mat.NewDense(rows, cols-1, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols-1; j++ {
				d := full[j+k] - full[j+1]
				if d > 0 {
					next.Set(i, j, float64(k-1)*(current.At(i, j+1)-current.At(i, j))/d)
				}
			}
		}
		current = next
		deriv = &BSpline{knots: deriv.knots, order: k - 1}
	}
	return deriv, current, nil
}

// AddConstant exploits the partition of unity: a constant shifts every
// coefficient equally.
func (b *BSpline) AddConstant(coefs *mat.Dense, c []float64) (*mat.Dense, error) {
	rows, cols := coefs.Dims()
	if len(c) != 1 && len(c) != rows {
		return nil, fmt.Errorf("%w: %d constants for %d samples", ErrCoefShape, len(c), rows)
	}
	shifted := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		v := c[0]
		if len(c) > 1 {
			v = c[i]
		}
		for j := 0; j < cols; j++ {
			shifted.Set(i, j, coefs.At(i, j)+v)
		}
	}
	return shifted, nil
}

func (b *BSpline) ProductBasis(other Basis) (Basis, error) {
	if b.DomainRange() != other.DomainRange() {
		return nil, ErrDomainMismatch
	}
	if _, ok := other.(*Constant); ok {
		return b.Rescale(b.DomainRange()), nil
	}
	return defaultProductBasis(b, other), nil
}

func (b *BSpline) Equal(other Basis) bool {
	o, ok := other.(*BSpline)
	if !ok || o.order != b.order || len(o.knots) != len(b.knots) {
		return false
	}
	for i := range b.knots {
		if b.knots[i] != o.knots[i] {
			return false
		}
	}
	return true
}

func (b *BSpline) String() string {
	return fmt.Sprintf(
		"BSpline(domain=%v, nBasis=%d, order=%d)", b.DomainRange(), b.NBasis(), b.order,
	)
}
