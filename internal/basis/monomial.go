package basis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Monomial is the basis of powers 1, t, t^2, ..., t^(n-1).
type Monomial struct {
	domain Interval
	nBasis int
}

func NewMonomial(domain Interval, nBasis int) (*Monomial, error) {
	if nBasis < 1 {
		return nil, fmt.Errorf("monomial basis needs at least one function, got %d", nBasis)
	}
	if domain.Len() <= 0 {
		return nil, fmt.Errorf("invalid domain range %v", domain)
	}
	return &Monomial{domain: domain, nBasis: nBasis}, nil
}

func (b *Monomial) NBasis() int           { return b.nBasis }
func (b *Monomial) DimDomain() int        { return 1 }
func (b *Monomial) DimCodomain() int      { return 1 }
func (b *Monomial) DomainRange() Interval { return b.domain }

func (b *Monomial) Evaluate(points []float64) (*mat.Dense, error) {
	values := mat.NewDense(b.nBasis, len(points), nil)
	for j, t := range points {
		pow := 1.0
		for k := 0; k < b.nBasis; k++ {
			values.Set(k, j, pow)
			pow *= t
		}
	}
	return values, nil
}

func (b *Monomial) Rescale(r Interval) Basis {
	return &Monomial{domain: r, nBasis: b.nBasis}
}

func (b *Monomial) DerivativeBasisAndCoefs(coefs *mat.Dense, order int) (Basis, *mat.Dense, error) {
	if order < 1 {
		return nil, nil, fmt.Errorf("derivative order must be positive, got %d", order)
	}
	rows, _ := coefs.Dims()
	current := mat.DenseCopyOf(coefs)
	nBasis := b.nBasis
	for o := 0; o < order; o++ {
		if nBasis == 1 {
			current = mat.NewDense(rows, 1, nil)
			break
		}
		next := mat.NewDense(rows, nBasis-1, nil)
		for i := 0; i < rows; i++ {
			for k := 1; k < nBasis; k++ {
				next.Set(i, k-1, current.At(i, k)*float64(k))
			}
		}
		current = next
		nBasis--
	}
	return &Monomial{domain: b.domain, nBasis: nBasis}, current, nil
}

func (b *Monomial) AddConstant(coefs *mat.Dense, c []float64) (*mat.Dense, error) {
	return constantShift(coefs, c, 0, 1)
}

func (b *Monomial) ProductBasis(other Basis) (Basis, error) {
	if b.DomainRange() != other.DomainRange() {
		return nil, ErrDomainMismatch
	}
	switch o := other.(type) {
	case *Constant:
		return b.Rescale(b.domain), nil
	case *Monomial:
		return &Monomial{domain: b.domain, nBasis: b.nBasis + o.nBasis - 1}, nil
	default:
		return defaultProductBasis(b, other), nil
	}
}

func (b *Monomial) Equal(other Basis) bool {
	o, ok := other.(*Monomial)
	return ok && o.domain == b.domain && o.nBasis == b.nBasis
}

func (b *Monomial) String() string {
	return fmt.Sprintf("Monomial(domain=%v, nBasis=%d)", b.domain, b.nBasis)
}
