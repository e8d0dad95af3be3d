// Package metric defines distances between functional data objects and the
// adapter that exposes them to a flat-vector neighbor index.
package metric

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"

	"github.com/go-fda/fda/internal/fdata"
)

var ErrSampleMismatch = fmt.Errorf("objects have different sample counts")

// Metric measures the distance between two single-sample functional objects
// in discretized form.
type Metric interface {
	Distance(x, y *fdata.FDataGrid) (float64, error)
}

// Fitter is implemented by metrics needing a training pass before use.
type Fitter interface {
	Fit(x *fdata.FDataGrid) error
}

// Func adapts a plain function to the Metric interface.
type Func func(x, y *fdata.FDataGrid) (float64, error)

func (f Func) Distance(x, y *fdata.FDataGrid) (float64, error) {
	return f(x, y)
}

// Lp is the L^p distance ( integral |x-y|^p )^(1/p) over the shared domain,
// integrated with Simpson's rule over the grid of x (trapezoid rule on a
// mesh too short for it).
type Lp struct {
	P float64
}

// L2 is the default functional distance.
var L2 = Lp{P: 2}

func (m Lp) Distance(x, y *fdata.FDataGrid) (float64, error) {
	if m.P < 1 {
		return 0, fmt.Errorf("lp distance needs p >= 1, got %g", m.P)
	}
	if x.NSamples() != 1 || y.NSamples() != 1 {
		return 0, fmt.Errorf(
			"%w: distance is defined between single samples, got %d and %d",
			ErrSampleMismatch, x.NSamples(), y.NSamples(),
		)
	}
	points := x.GridPoints()
	xv, err := x.Evaluate(points)
	if err != nil {
		return 0, err
	}
	yv, err := y.Evaluate(points)
	if err != nil {
		return 0, err
	}
	diff := make([]float64, len(points))
	for j := range points {
		diff[j] = math.Pow(math.Abs(xv.At(0, j)-yv.At(0, j)), m.P)
	}
	return math.Pow(quadrature(points, diff), 1/m.P), nil
}

// quadrature integrates sampled values over points. Simpson's rule needs at
// least three points; a two-point mesh falls back to the trapezoid rule and
// a single point spans a zero-width domain.
func quadrature(points, values []float64) float64 {
	switch {
	case len(points) < 2:
		return 0
	case len(points) == 2:
		return integrate.Trapezoidal(points, values)
	default:
		return integrate.Simpsons(points, values)
	}
}

// Pairwise fills a matrix with distances between every sample of x and every
// sample of y.
func Pairwise(m Metric, x, y *fdata.FDataGrid) (*mat.Dense, error) {
	nx, ny := x.NSamples(), y.NSamples()
	distances := mat.NewDense(nx, ny, nil)
	for i := 0; i < nx; i++ {
		xi, err := x.Select([]int{i})
		if err != nil {
			return nil, err
		}
		for j := 0; j < ny; j++ {
			yj, err := y.Select([]int{j})
			if err != nil {
				return nil, err
			}
			d, err := m.Distance(xi, yj)
			if err != nil {
				return nil, fmt.Errorf("distance between samples %d and %d: %w", i, j, err)
			}
			distances.Set(i, j, d)
		}
	}
	return distances, nil
}

// GridAdapter turns a functional metric into a flat-vector distance usable by
// a multivariate neighbor index. It captures the grid points at fit time and
// reconstructs single-sample grids from flat vectors by a fixed reshape.
type GridAdapter struct {
	metric Metric
	points []float64
}

func NewGridAdapter(m Metric, gridPoints []float64) *GridAdapter {
	points := make([]float64, len(gridPoints))
	copy(points, gridPoints)
	return &GridAdapter{metric: m, points: points}
}

// Distance reconstructs both operands as single-sample grids over the
// captured points and delegates to the wrapped metric.
func (a *GridAdapter) Distance(vec, vec1 []float64) (float64, error) {
	x, err := a.reshape(vec)
	if err != nil {
		return 0, err
	}
	y, err := a.reshape(vec1)
	if err != nil {
		return 0, err
	}
	return a.metric.Distance(x, y)
}

func (a *GridAdapter) reshape(vec []float64) (*fdata.FDataGrid, error) {
	if len(vec) != len(a.points) {
		return nil, fmt.Errorf(
			"flat vector has %d values for %d grid points", len(vec), len(a.points),
		)
	}
	return fdata.NewGrid([][]float64{vec}, a.points)
}
