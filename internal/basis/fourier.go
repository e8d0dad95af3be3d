package basis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Fourier is the normalized trigonometric basis
// 1/sqrt(T), sin(wt)/sqrt(T/2), cos(wt)/sqrt(T/2), sin(2wt)/sqrt(T/2), ...
// with w = 2*pi/period.
type Fourier struct {
	domain Interval
	nBasis int
	period float64
}

// NewFourier builds a Fourier basis. A non-positive period defaults to the
// domain length.
func NewFourier(domain Interval, nBasis int, period float64) (*Fourier, error) {
	if nBasis < 1 {
		return nil, fmt.Errorf("fourier basis needs at least one function, got %d", nBasis)
	}
	if domain.Len() <= 0 {
		return nil, fmt.Errorf("invalid domain range %v", domain)
	}
	if period <= 0 {
		period = domain.Len()
	}
	return &Fourier{domain: domain, nBasis: nBasis, period: period}, nil
}

func (b *Fourier) NBasis() int           { return b.nBasis }
func (b *Fourier) DimDomain() int        { return 1 }
func (b *Fourier) DimCodomain() int      { return 1 }
func (b *Fourier) DomainRange() Interval { return b.domain }
func (b *Fourier) Period() float64       { return b.period }

func (b *Fourier) omega() float64 { return 2 * math.Pi / b.period }

func (b *Fourier) Evaluate(points []float64) (*mat.Dense, error) {
	values := mat.NewDense(b.nBasis, len(points), nil)
	constNorm := 1 / math.Sqrt(b.period)
	trigNorm := 1 / math.Sqrt(b.period/2)
	w := b.omega()
	for j, t := range points {
		values.Set(0, j, constNorm)
		for k := 1; k < b.nBasis; k++ {
			r := float64((k + 1) / 2)
			if k%2 == 1 {
				values.Set(k, j, math.Sin(r*w*t)*trigNorm)
			} else {
				values.Set(k, j, math.Cos(r*w*t)*trigNorm)
			}
		}
	}
	return values, nil
}

// Rescale maps the basis onto a new interval, scaling the period by the
// ratio of the interval lengths.
func (b *Fourier) Rescale(r Interval) Basis {
	period := b.period * r.Len() / b.domain.Len()
	return &Fourier{domain: r, nBasis: b.nBasis, period: period}
}

func (b *Fourier) DerivativeBasisAndCoefs(coefs *mat.Dense, order int) (Basis, *mat.Dense, error) {
	if order < 1 {
		return nil, nil, fmt.Errorf("derivative order must be positive, got %d", order)
	}
	rows, _ := coefs.Dims()
	w := b.omega()
	current := mat.DenseCopyOf(coefs)
	for o := 0; o < order; o++ {
		next := mat.NewDense(rows, b.nBasis, nil)
		for i := 0; i < rows; i++ {
			for k := 1; k+1 < b.nBasis; k += 2 {
				r := float64((k + 1) / 2)
				s, c := current.At(i, k), current.At(i, k+1)
				next.Set(i, k, -r*w*c)
				next.Set(i, k+1, r*w*s)
			}
			// A trailing unpaired sine term derives into a cosine outside
			// the basis; it is dropped.
		}
		current = next
	}
	return &Fourier{domain: b.domain, nBasis: b.nBasis, period: b.period}, current, nil
}

func (b *Fourier) AddConstant(coefs *mat.Dense, c []float64) (*mat.Dense, error) {
	return constantShift(coefs, c, 0, math.Sqrt(b.period))
}

func (b *Fourier) ProductBasis(other Basis) (Basis, error) {
	if b.DomainRange() != other.DomainRange() {
		return nil, ErrDomainMismatch
	}
	switch o := other.(type) {
	case *Constant:
		return b.Rescale(b.domain), nil
	case *Fourier:
		if o.period == b.period {
			return &Fourier{domain: b.domain, nBasis: b.nBasis + o.nBasis - 1, period: b.period}, nil
		}
	}
	return defaultProductBasis(b, other), nil
}

func (b *Fourier) Equal(other Basis) bool {
	o, ok := other.(*Fourier)
	return ok && o.domain == b.domain && o.nBasis == b.nBasis && o.period == b.period
}

func (b *Fourier) String() string {
	return fmt.Sprintf("Fourier(domain=%v, nBasis=%d, period=%g)", b.domain, b.nBasis, b.period)
}
