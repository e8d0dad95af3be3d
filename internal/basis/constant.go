package basis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Constant is the single-function basis spanning constant functions.
type Constant struct {
	domain Interval
}

func NewConstant(domain Interval) *Constant {
	return &Constant{domain: domain}
}

func (b *Constant) NBasis() int           { return 1 }
func (b *Constant) DimDomain() int        { return 1 }
func (b *Constant) DimCodomain() int      { return 1 }
func (b *Constant) DomainRange() Interval { return b.domain }

func (b *Constant) Evaluate(points []float64) (*mat.Dense, error) {
	values := mat.NewDense(1, len(points), nil)
	for j := range points {
		values.Set(0, j, 1)
	}
	return values, nil
}

func (b *Constant) Rescale(r Interval) Basis {
	return NewConstant(r)
}

func (b *Constant) DerivativeBasisAndCoefs(coefs *mat.Dense, order int) (Basis, *mat.Dense, error) {
	rows, _ := coefs.Dims()
	return NewConstant(b.domain), mat.NewDense(rows, 1, nil), nil
}

func (b *Constant) AddConstant(coefs *mat.Dense, c []float64) (*mat.Dense, error) {
	return constantShift(coefs, c, 0, 1)
}

func (b *Constant) ProductBasis(other Basis) (Basis, error) {
	if b.DomainRange() != other.DomainRange() {
		return nil, ErrDomainMismatch
	}
	return other.Rescale(other.DomainRange()), nil
}

func (b *Constant) Equal(other Basis) bool {
	o, ok := other.(*Constant)
	return ok && o.domain == b.domain
}

func (b *Constant) String() string {
	return fmt.Sprintf("Constant(domain=%v)", b.domain)
}
