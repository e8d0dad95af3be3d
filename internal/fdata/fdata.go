// Package fdata holds the two representations of functional data: sampled
// values over a grid (FDataGrid) and coefficients over a basis system
// (FDataBasis). Values are immutable; every transformation returns a new
// instance.
package fdata

import (
	"fmt"

	"github.com/go-fda/fda/internal/basis"
)

// Default mesh sizes used when an evaluation grid is not supplied.
const (
	coarseMeshSize = 201
	fineMeshSize   = 501
	basisMinFactor = 10
)

var (
	// ErrBasisSize reports a coefficient matrix whose column count differs
	// from the number of basis functions.
	ErrBasisSize = fmt.Errorf("coefficient columns must equal the number of basis functions")
	// ErrDifferentBasis signals arithmetic between objects with distinct
	// bases; the operation is not supported rather than invalid.
	ErrDifferentBasis = fmt.Errorf("objects do not share a basis")
	// ErrNotSupported marks operations outside the basis representation,
	// such as concatenating coordinates or dividing by a function.
	ErrNotSupported = fmt.Errorf("operation not supported in basis representation")
	// ErrShiftLength reports a per-sample shift vector of the wrong length.
	ErrShiftLength = fmt.Errorf("shift vector length must equal the number of samples")
	// ErrSampleCount reports elementwise comparison of collections with
	// different sample counts.
	ErrSampleCount = fmt.Errorf("sample counts differ")
	// ErrGridShape reports rows of uneven length or a point/value mismatch.
	ErrGridShape = fmt.Errorf("data matrix shape does not match the grid points")
)

// Extrapolation governs evaluation outside the domain range.
type Extrapolation int

const (
	// ExtrapolateNone evaluates the underlying representation as-is.
	ExtrapolateNone Extrapolation = iota
	// ExtrapolateBounds clamps evaluation points into the domain.
	ExtrapolateBounds
	// ExtrapolateZeros yields zero outside the domain.
	ExtrapolateZeros
)

// FData is the read surface common to both representations.
type FData interface {
	NSamples() int
	DimDomain() int
	DimCodomain() int
	DomainRange() basis.Interval
	// ToGrid discretizes the object; nil points selects a default mesh.
	ToGrid(points []float64) (*FDataGrid, error)
	SampleNames() []string
}

// metadata is the optional naming and evaluation policy shared by both
// representations.
type metadata struct {
	sampleNames     []string
	argumentNames   []string
	coordinateNames []string
	extrapolation   Extrapolation
}

type Option func(*metadata)

func WithSampleNames(names ...string) Option {
	return func(m *metadata) {
		m.sampleNames = names
	}
}

func WithArgumentNames(names ...string) Option {
	return func(m *metadata) {
		m.argumentNames = names
	}
}

func WithCoordinateNames(names ...string) Option {
	return func(m *metadata) {
		m.coordinateNames = names
	}
}

func WithExtrapolation(e Extrapolation) Option {
	return func(m *metadata) {
		m.extrapolation = e
	}
}

func (m *metadata) validate(nSamples, dimDomain, dimCodomain int) error {
	if m.sampleNames != nil && len(m.sampleNames) != nSamples {
		return fmt.Errorf(
			"%d sample names for %d samples", len(m.sampleNames), nSamples,
		)
	}
	if m.argumentNames != nil && len(m.argumentNames) != dimDomain {
		return fmt.Errorf(
			"%d argument names for domain dimension %d", len(m.argumentNames), dimDomain,
		)
	}
	if m.coordinateNames != nil && len(m.coordinateNames) != dimCodomain {
		return fmt.Errorf(
			"%d coordinate names for codomain dimension %d", len(m.coordinateNames), dimCodomain,
		)
	}
	return nil
}

// Take selects sample rows of either representation.
func Take(f FData, idx []int) (FData, error) {
	switch v := f.(type) {
	case *FDataGrid:
		return v.Select(idx)
	case *FDataBasis:
		return v.Select(idx)
	default:
		return nil, fmt.Errorf("unknown functional data type %T", f)
	}
}

// MeanOf collapses the samples of either representation to a single weighted
// mean sample. Nil weights give the plain mean; weights are renormalized to
// sum to one.
func MeanOf(f FData, w []float64) (FData, error) {
	switch v := f.(type) {
	case *FDataGrid:
		return v.MeanWeighted(w)
	case *FDataBasis:
		return v.MeanWeighted(w)
	default:
		return nil, fmt.Errorf("unknown functional data type %T", f)
	}
}

// Append concatenates the samples of compatible objects, preserving order.
func Append(f FData, others ...FData) (FData, error) {
	switch v := f.(type) {
	case *FDataGrid:
		rest := make([]*FDataGrid, len(others))
		for i, o := range others {
			g, ok := o.(*FDataGrid)
			if !ok {
				return nil, fmt.Errorf("cannot append %T to *FDataGrid", o)
			}
			rest[i] = g
		}
		return v.Concatenate(rest...)
	case *FDataBasis:
		rest := make([]*FDataBasis, len(others))
		for i, o := range others {
			b, ok := o.(*FDataBasis)
			if !ok {
				return nil, fmt.Errorf("cannot append %T to *FDataBasis", o)
			}
			rest[i] = b
		}
		return v.Concatenate(rest...)
	default:
		return nil, fmt.Errorf("unknown functional data type %T", f)
	}
}

func normalizeWeights(w []float64, n int) ([]float64, error) {
	if w == nil {
		return nil, nil
	}
	if len(w) != n {
		return nil, fmt.Errorf("%d weights for %d samples", len(w), n)
	}
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum == 0 {
		return nil, fmt.Errorf("weights sum to zero")
	}
	normalized := make([]float64, n)
	for i, v := range w {
		normalized[i] = v / sum
	}
	return normalized, nil
}
