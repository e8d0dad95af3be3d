package fdata

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/go-fda/fda/internal/basis"
	"github.com/go-fda/fda/pkg/math/lsq"
)

// FDataGrid is the discretized representation: one row of values per sample,
// observed at shared grid points. Only 1-D domain and codomain are handled.
type FDataGrid struct {
	meta       metadata
	dataMatrix *mat.Dense
	gridPoints []float64
	domain     basis.Interval
}

// NewGrid builds a discretized functional data object. The domain defaults to
// the span of the grid points.
func NewGrid(data [][]float64, points []float64, opts ...Option) (*FDataGrid, error) {
	if len(data) == 0 || len(points) == 0 {
		return nil, fmt.Errorf("%w: empty data or grid", ErrGridShape)
	}
	if !sort.Float64sAreSorted(points) {
		return nil, fmt.Errorf("grid points must be sorted in increasing order")
	}
	matrix := mat.NewDense(len(data), len(points), nil)
	for i, row := range data {
		if len(row) != len(points) {
			return nil, fmt.Errorf(
				"%w: sample %d has %d values for %d grid points",
				ErrGridShape, i, len(row), len(points),
			)
		}
		matrix.SetRow(i, row)
	}
	owned := make([]float64, len(points))
	copy(owned, points)
	g := &FDataGrid{
		dataMatrix: matrix,
		gridPoints: owned,
		domain:     basis.Interval{Lo: owned[0], Hi: owned[len(owned)-1]},
	}
	for _, opt := range opts {
		opt(&g.meta)
	}
	if err := g.meta.validate(len(data), 1, 1); err != nil {
		return nil, err
	}
	return g, nil
}

func newGridDense(values *mat.Dense, points []float64, domain basis.Interval, meta metadata) *FDataGrid {
	return &FDataGrid{meta: meta, dataMatrix: values, gridPoints: points, domain: domain}
}

func (g *FDataGrid) NSamples() int {
	rows, _ := g.dataMatrix.Dims()
	return rows
}

func (g *FDataGrid) NPoints() int             { return len(g.gridPoints) }
func (g *FDataGrid) DimDomain() int           { return 1 }
func (g *FDataGrid) DimCodomain() int         { return 1 }
func (g *FDataGrid) DomainRange() basis.Interval { return g.domain }
func (g *FDataGrid) SampleNames() []string    { return g.meta.sampleNames }

// GridPoints returns a copy of the evaluation grid.
func (g *FDataGrid) GridPoints() []float64 {
	points := make([]float64, len(g.gridPoints))
	copy(points, g.gridPoints)
	return points
}

// DataMatrix returns a copy of the sample-by-point value matrix.
func (g *FDataGrid) DataMatrix() *mat.Dense {
	return mat.DenseCopyOf(g.dataMatrix)
}

// Sample returns a copy of the values of one sample.
func (g *FDataGrid) Sample(i int) ([]float64, error) {
	if i < 0 || i >= g.NSamples() {
		return nil, fmt.Errorf("sample index %d out of range [0, %d)", i, g.NSamples())
	}
	row := make([]float64, g.NPoints())
	mat.Row(row, i, g.dataMatrix)
	return row, nil
}

// evaluateSample linearly interpolates sample i at point t, clamping outside
// the observed grid.
func (g *FDataGrid) evaluateSample(i int, t float64) float64 {
	points := g.gridPoints
	if t <= points[0] {
		return g.dataMatrix.At(i, 0)
	}
	if t >= points[len(points)-1] {
		return g.dataMatrix.At(i, len(points)-1)
	}
	j := sort.SearchFloat64s(points, t)
	if points[j] == t {
		return g.dataMatrix.At(i, j)
	}
	t0, t1 := points[j-1], points[j]
	v0, v1 := g.dataMatrix.At(i, j-1), g.dataMatrix.At(i, j)
	return v0 + (v1-v0)*(t-t0)/(t1-t0)
}

// Evaluate interpolates every sample at the given points.
func (g *FDataGrid) Evaluate(points []float64) (*mat.Dense, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no evaluation points")
	}
	values := mat.NewDense(g.NSamples(), len(points), nil)
	for i := 0; i < g.NSamples(); i++ {
		for j, t := range points {
			values.Set(i, j, g.evaluateSample(i, t))
		}
	}
	return values, nil
}

// ToGrid returns the object itself for nil points, or a resampled copy.
func (g *FDataGrid) ToGrid(points []float64) (*FDataGrid, error) {
	if points == nil {
		return g, nil
	}
	values, err := g.Evaluate(points)
	if err != nil {
		return nil, err
	}
	owned := make([]float64, len(points))
	copy(owned, points)
	return newGridDense(values, owned, g.domain, g.meta), nil
}

// ToBasis projects the samples onto a basis by least squares.
func (g *FDataGrid) ToBasis(b basis.Basis, method lsq.Method) (*FDataBasis, error) {
	values, err := b.Evaluate(g.gridPoints)
	if err != nil {
		return nil, fmt.Errorf("evaluating basis: %w", err)
	}
	var phi mat.Dense
	phi.CloneFrom(values.T())
	var y mat.Dense
	y.CloneFrom(g.dataMatrix.T())
	solved, err := lsq.Solve(&phi, &y, method)
	if err != nil {
		return nil, fmt.Errorf("projecting onto %v: %w", b, err)
	}
	var coefs mat.Dense
	coefs.CloneFrom(solved.T())
	return newBasisDense(b, &coefs, g.meta)
}

// Mean returns the pointwise arithmetic mean as a single-sample grid.
func (g *FDataGrid) Mean() (*FDataGrid, error) {
	return g.MeanWeighted(nil)
}

// MeanWeighted returns the pointwise weighted mean. Nil weights give the
// plain mean; weights are renormalized to sum to one.
func (g *FDataGrid) MeanWeighted(w []float64) (*FDataGrid, error) {
	n := g.NSamples()
	weights, err := normalizeWeights(w, n)
	if err != nil {
		return nil, err
	}
	mean := mat.NewDense(1, g.NPoints(), nil)
	for j := 0; j < g.NPoints(); j++ {
		var v float64
		for i := 0; i < n; i++ {
			if weights == nil {
				v += g.dataMatrix.At(i, j) / float64(n)
			} else {
				v += g.dataMatrix.At(i, j) * weights[i]
			}
		}
		mean.Set(0, j, v)
	}
	meta := g.meta
	meta.sampleNames = []string{"mean"}
	return newGridDense(mean, g.GridPoints(), g.domain, meta), nil
}

// GMean returns the pointwise geometric mean. All values must be positive.
func (g *FDataGrid) GMean() (*FDataGrid, error) {
	n := g.NSamples()
	gmean := mat.NewDense(1, g.NPoints(), nil)
	for j := 0; j < g.NPoints(); j++ {
		var logSum float64
		for i := 0; i < n; i++ {
			v := g.dataMatrix.At(i, j)
			if v <= 0 {
				return nil, fmt.Errorf(
					"geometric mean undefined: non-positive value at sample %d, point %d", i, j,
				)
			}
			logSum += math.Log(v)
		}
		gmean.Set(0, j, math.Exp(logSum/float64(n)))
	}
	meta := g.meta
	meta.sampleNames = []string{"gmean"}
	return newGridDense(gmean, g.GridPoints(), g.domain, meta), nil
}

// Var returns the pointwise population variance as a single-sample grid.
func (g *FDataGrid) Var() (*FDataGrid, error) {
	n := g.NSamples()
	variance := mat.NewDense(1, g.NPoints(), nil)
	col := make([]float64, n)
	for j := 0; j < g.NPoints(); j++ {
		mat.Col(col, j, g.dataMatrix)
		mean := stat.Mean(col, nil)
		var ss float64
		for _, v := range col {
			d := v - mean
			ss += d * d
		}
		variance.Set(0, j, ss/float64(n))
	}
	meta := g.meta
	meta.sampleNames = []string{"var"}
	return newGridDense(variance, g.GridPoints(), g.domain, meta), nil
}

// Cov returns the sample covariance matrix between grid points.
func (g *FDataGrid) Cov() (*mat.SymDense, error) {
	if g.NSamples() < 2 {
		return nil, fmt.Errorf("covariance needs at least two samples, got %d", g.NSamples())
	}
	cov := mat.NewSymDense(g.NPoints(), nil)
	stat.CovarianceMatrix(cov, g.dataMatrix, nil)
	return cov, nil
}

// Add returns the pointwise sum with another grid over the same points.
func (g *FDataGrid) Add(other *FDataGrid) (*FDataGrid, error) {
	return g.combine(other, func(a, b float64) float64 { return a + b })
}

// Sub returns the pointwise difference with another grid over the same points.
func (g *FDataGrid) Sub(other *FDataGrid) (*FDataGrid, error) {
	return g.combine(other, func(a, b float64) float64 { return a - b })
}

func (g *FDataGrid) combine(other *FDataGrid, op func(a, b float64) float64) (*FDataGrid, error) {
	if g.NPoints() != other.NPoints() {
		return nil, fmt.Errorf(
			"%w: %d and %d grid points", ErrGridShape, g.NPoints(), other.NPoints(),
		)
	}
	n, m := g.NSamples(), other.NSamples()
	if n != m && n != 1 && m != 1 {
		return nil, fmt.Errorf("%w: %d and %d", ErrSampleCount, n, m)
	}
	rows := n
	if m > rows {
		rows = m
	}
	values := mat.NewDense(rows, g.NPoints(), nil)
	for i := 0; i < rows; i++ {
		gi, oi := i, i
		if n == 1 {
			gi = 0
		}
		if m == 1 {
			oi = 0
		}
		for j := 0; j < g.NPoints(); j++ {
			values.Set(i, j, op(g.dataMatrix.At(gi, j), other.dataMatrix.At(oi, j)))
		}
	}
	meta := g.meta
	meta.sampleNames = nil
	return newGridDense(values, g.GridPoints(), g.domain, meta), nil
}

// Compose evaluates each sample of g at the values of the matching sample of
// other: (g_i ∘ other_i)(t) = g_i(other_i(t)). Nil points default to the
// other object's grid.
func (g *FDataGrid) Compose(other *FDataGrid, points []float64) (*FDataGrid, error) {
	if g.NSamples() != other.NSamples() {
		return nil, fmt.Errorf(
			"%w: %d and %d", ErrSampleCount, g.NSamples(), other.NSamples(),
		)
	}
	if points == nil {
		points = other.GridPoints()
	}
	inner, err := other.Evaluate(points)
	if err != nil {
		return nil, err
	}
	values := mat.NewDense(g.NSamples(), len(points), nil)
	for i := 0; i < g.NSamples(); i++ {
		for j := range points {
			values.Set(i, j, g.evaluateSample(i, inner.At(i, j)))
		}
	}
	owned := make([]float64, len(points))
	copy(owned, points)
	meta := g.meta
	return newGridDense(values, owned, other.domain, meta), nil
}

// Concatenate joins the samples of grids observed at identical points.
func (g *FDataGrid) Concatenate(others ...*FDataGrid) (*FDataGrid, error) {
	total := g.NSamples()
	for _, o := range others {
		if o.NPoints() != g.NPoints() {
			return nil, fmt.Errorf(
				"%w: %d and %d grid points", ErrGridShape, g.NPoints(), o.NPoints(),
			)
		}
		for j := range g.gridPoints {
			if g.gridPoints[j] != o.gridPoints[j] {
				return nil, fmt.Errorf("grids are observed at different points")
			}
		}
		total += o.NSamples()
	}
	values := mat.NewDense(total, g.NPoints(), nil)
	names := make([]string, 0, total)
	row := 0
	for _, part := range append([]*FDataGrid{g}, others...) {
		for i := 0; i < part.NSamples(); i++ {
			values.SetRow(row, part.dataMatrix.RawRowView(i))
			row++
		}
		names = appendNames(names, part.meta.sampleNames, part.NSamples())
	}
	meta := g.meta
	meta.sampleNames = finishNames(names)
	return newGridDense(values, g.GridPoints(), g.domain, meta), nil
}

// Select returns a new grid holding the given sample rows.
func (g *FDataGrid) Select(idx []int) (*FDataGrid, error) {
	values := mat.NewDense(len(idx), g.NPoints(), nil)
	var names []string
	if g.meta.sampleNames != nil {
		names = make([]string, len(idx))
	}
	for r, i := range idx {
		if i < 0 || i >= g.NSamples() {
			return nil, fmt.Errorf("sample index %d out of range [0, %d)", i, g.NSamples())
		}
		values.SetRow(r, g.dataMatrix.RawRowView(i))
		if names != nil {
			names[r] = g.meta.sampleNames[i]
		}
	}
	meta := g.meta
	meta.sampleNames = names
	return newGridDense(values, g.GridPoints(), g.domain, meta), nil
}

// Equals compares grid points and the full value matrix.
func (g *FDataGrid) Equals(other *FDataGrid) bool {
	if other == nil || g.NPoints() != other.NPoints() || g.NSamples() != other.NSamples() {
		return false
	}
	for j := range g.gridPoints {
		if g.gridPoints[j] != other.gridPoints[j] {
			return false
		}
	}
	return mat.Equal(g.dataMatrix, other.dataMatrix)
}

// Flatten returns samples as flat vectors, one per row, for consumption by a
// multivariate index.
func (g *FDataGrid) Flatten() *mat.Dense {
	return mat.DenseCopyOf(g.dataMatrix)
}

func appendNames(dst []string, names []string, n int) []string {
	if names == nil {
		for i := 0; i < n; i++ {
			dst = append(dst, "")
		}
		return dst
	}
	return append(dst, names...)
}

func finishNames(names []string) []string {
	for _, name := range names {
		if name != "" {
			return names
		}
	}
	return nil
}
