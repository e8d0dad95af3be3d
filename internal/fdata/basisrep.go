package fdata

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/go-fda/fda/internal/basis"
	"github.com/go-fda/fda/pkg/math/lsq"
)

// FDataBasis represents each sample as a coefficient vector over a shared
// basis system: f_i(t) = sum_k coefs[i][k] * phi_k(t).
type FDataBasis struct {
	meta  metadata
	basis basis.Basis
	coefs *mat.Dense
}

// NewBasisRep builds a basis representation from a coefficient matrix with
// one row per sample. The column count must equal the number of basis
// functions.
func NewBasisRep(b basis.Basis, coefficients [][]float64, opts ...Option) (*FDataBasis, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("%w: no coefficient rows", ErrBasisSize)
	}
	coefs := mat.NewDense(len(coefficients), b.NBasis(), nil)
	for i, row := range coefficients {
		if len(row) != b.NBasis() {
			return nil, fmt.Errorf(
				"%w: row %d has %d columns, basis has %d functions",
				ErrBasisSize, i, len(row), b.NBasis(),
			)
		}
		coefs.SetRow(i, row)
	}
	meta := metadata{}
	for _, opt := range opts {
		opt(&meta)
	}
	return newBasisDense(b, coefs, meta)
}

// NewBasisRepVec promotes a single coefficient vector to a one-sample object.
func NewBasisRepVec(b basis.Basis, coefficients []float64, opts ...Option) (*FDataBasis, error) {
	return NewBasisRep(b, [][]float64{coefficients}, opts...)
}

func newBasisDense(b basis.Basis, coefs *mat.Dense, meta metadata) (*FDataBasis, error) {
	rows, cols := coefs.Dims()
	if cols != b.NBasis() {
		return nil, fmt.Errorf(
			"%w: got %d columns, basis has %d functions", ErrBasisSize, cols, b.NBasis(),
		)
	}
	if err := meta.validate(rows, b.DimDomain(), b.DimCodomain()); err != nil {
		return nil, err
	}
	return &FDataBasis{meta: meta, basis: b, coefs: coefs}, nil
}

// FromData fits basis coefficients to discretized observations by least
// squares, one sample per row of data.
func FromData(data [][]float64, points []float64, b basis.Basis, method lsq.Method, opts ...Option) (*FDataBasis, error) {
	grid, err := NewGrid(data, points, opts...)
	if err != nil {
		return nil, err
	}
	return grid.ToBasis(b, method)
}

func (fd *FDataBasis) NSamples() int {
	rows, _ := fd.coefs.Dims()
	return rows
}

func (fd *FDataBasis) NBasis() int                  { return fd.basis.NBasis() }
func (fd *FDataBasis) Basis() basis.Basis           { return fd.basis }
func (fd *FDataBasis) DimDomain() int               { return fd.basis.DimDomain() }
func (fd *FDataBasis) DimCodomain() int             { return fd.basis.DimCodomain() }
func (fd *FDataBasis) DomainRange() basis.Interval  { return fd.basis.DomainRange() }
func (fd *FDataBasis) SampleNames() []string        { return fd.meta.sampleNames }
func (fd *FDataBasis) Extrapolation() Extrapolation { return fd.meta.extrapolation }

// Coefficients returns a copy of the sample-by-basis coefficient matrix.
func (fd *FDataBasis) Coefficients() *mat.Dense {
	return mat.DenseCopyOf(fd.coefs)
}

// Copy returns a new instance with metadata overrides applied. Overrides of
// the wrong length fail the same way they do at construction.
func (fd *FDataBasis) Copy(opts ...Option) (*FDataBasis, error) {
	meta := fd.meta
	for _, opt := range opts {
		opt(&meta)
	}
	return newBasisDense(fd.basis, mat.DenseCopyOf(fd.coefs), meta)
}

func (fd *FDataBasis) withCoefs(b basis.Basis, coefs *mat.Dense, sampleNames []string) (*FDataBasis, error) {
	meta := fd.meta
	meta.sampleNames = sampleNames
	return newBasisDense(b, coefs, meta)
}

// Evaluate computes every sample at a shared set of points, returning a
// samples-by-points matrix.
func (fd *FDataBasis) Evaluate(points []float64) (*mat.Dense, error) {
	eval := points
	if fd.meta.extrapolation == ExtrapolateBounds {
		eval = clampPoints(points, fd.DomainRange())
	}
	values, err := fd.basis.Evaluate(eval)
	if err != nil {
		return nil, fmt.Errorf("evaluating basis: %w", err)
	}
	var res mat.Dense
	res.Mul(fd.coefs, values)
	if fd.meta.extrapolation == ExtrapolateZeros {
		zeroOutside(&res, points, fd.DomainRange())
	}
	return &res, nil
}

// EvaluateUnaligned computes sample i at the points of row i.
func (fd *FDataBasis) EvaluateUnaligned(points *mat.Dense) (*mat.Dense, error) {
	rows, cols := points.Dims()
	if rows != fd.NSamples() {
		return nil, fmt.Errorf(
			"%w: %d point rows for %d samples", ErrSampleCount, rows, fd.NSamples(),
		)
	}
	res := mat.NewDense(rows, cols, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, points)
		eval := row
		if fd.meta.extrapolation == ExtrapolateBounds {
			eval = clampPoints(row, fd.DomainRange())
		}
		values, err := fd.basis.Evaluate(eval)
		if err != nil {
			return nil, fmt.Errorf("evaluating basis: %w", err)
		}
		for j := 0; j < cols; j++ {
			var v float64
			for k := 0; k < fd.NBasis(); k++ {
				v += fd.coefs.At(i, k) * values.At(k, j)
			}
			if fd.meta.extrapolation == ExtrapolateZeros && !fd.DomainRange().Contains(row[j]) {
				v = 0
			}
			res.Set(i, j, v)
		}
	}
	return res, nil
}

// ShiftOption tunes Shift and ShiftSamples.
type ShiftOption func(*shiftOptions)

type shiftOptions struct {
	evalPoints []float64
	restrict   bool
	method     lsq.Method
}

// WithShiftEvalPoints supplies the discretization grid instead of the
// automatic one.
func WithShiftEvalPoints(points []float64) ShiftOption {
	return func(o *shiftOptions) {
		o.evalPoints = points
	}
}

// WithRestrictDomain restricts the shifted domain to the intersection valid
// for all shifts.
func WithRestrictDomain() ShiftOption {
	return func(o *shiftOptions) {
		o.restrict = true
	}
}

// WithShiftMethod selects the least-squares refit strategy.
func WithShiftMethod(m lsq.Method) ShiftOption {
	return func(o *shiftOptions) {
		o.method = m
	}
}

func (fd *FDataBasis) shiftGrid(o shiftOptions) []float64 {
	if o.evalPoints != nil {
		return o.evalPoints
	}
	n := fd.NBasis()*basisMinFactor + 1
	if n < coarseMeshSize {
		n = coarseMeshSize
	}
	return basis.Linspace(fd.DomainRange(), n)
}

// Shift applies the same time shift to every sample: the basis domain is
// moved analytically and the values refit.
func (fd *FDataBasis) Shift(delta float64, opts ...ShiftOption) (*FDataBasis, error) {
	var o shiftOptions
	for _, opt := range opts {
		opt(&o)
	}
	points := fd.shiftGrid(o)
	domain := fd.DomainRange()
	shifted := fd.basis.Rescale(basis.Interval{Lo: domain.Lo + delta, Hi: domain.Hi + delta})

	values, err := fd.Evaluate(points)
	if err != nil {
		return nil, err
	}
	moved := make([]float64, len(points))
	for i, t := range points {
		moved[i] = t + delta
	}
	return fromDense(values, moved, shifted, o.method, fd.meta)
}

// ShiftSamples applies one shift per sample, evaluating each sample on its
// shifted grid and refitting on the common one.
func (fd *FDataBasis) ShiftSamples(shifts []float64, opts ...ShiftOption) (*FDataBasis, error) {
	if len(shifts) != fd.NSamples() {
		return nil, fmt.Errorf(
			"%w: got %d shifts for %d samples", ErrShiftLength, len(shifts), fd.NSamples(),
		)
	}
	var o shiftOptions
	for _, opt := range opts {
		opt(&o)
	}
	points := fd.shiftGrid(o)
	domain := fd.DomainRange()

	if o.restrict {
		minShift, maxShift := shifts[0], shifts[0]
		for _, s := range shifts[1:] {
			minShift = math.Min(minShift, s)
			maxShift = math.Max(maxShift, s)
		}
		domain = basis.Interval{
			Lo: domain.Lo - math.Min(minShift, 0),
			Hi: domain.Hi - math.Max(maxShift, 0),
		}
		kept := points[:0:0]
		for _, t := range points {
			if domain.Contains(t) {
				kept = append(kept, t)
			}
		}
		points = kept
	}

	shifted := mat.NewDense(fd.NSamples(), len(points), nil)
	for i := 0; i < fd.NSamples(); i++ {
		for j, t := range points {
			shifted.Set(i, j, t+shifts[i])
		}
	}
	values, err := fd.EvaluateUnaligned(shifted)
	if err != nil {
		return nil, err
	}
	return fromDense(values, points, fd.basis.Rescale(domain), o.method, fd.meta)
}

// Derivative differentiates every sample. Order zero returns a copy.
func (fd *FDataBasis) Derivative(order int) (*FDataBasis, error) {
	if order < 0 {
		return nil, fmt.Errorf("derivative order must be non-negative, got %d", order)
	}
	if order == 0 {
		return fd.Copy()
	}
	derivBasis, coefs, err := fd.basis.DerivativeBasisAndCoefs(fd.coefs, order)
	if err != nil {
		return nil, err
	}
	return fd.withCoefs(derivBasis, coefs, fd.meta.sampleNames)
}

// Add sums two objects sharing a basis.
func (fd *FDataBasis) Add(other *FDataBasis) (*FDataBasis, error) {
	if !fd.basis.Equal(other.basis) {
		return nil, fmt.Errorf("%w: %v and %v", ErrDifferentBasis, fd.basis, other.basis)
	}
	coefs, err := basis.AddSameBasis(fd.basis, other.basis, fd.coefs, other.coefs)
	if err != nil {
		return nil, err
	}
	return fd.withCoefs(fd.basis, coefs, nil)
}

// Sub subtracts an object sharing the same basis.
func (fd *FDataBasis) Sub(other *FDataBasis) (*FDataBasis, error) {
	negated, err := other.Scale([]float64{-1})
	if err != nil {
		return nil, err
	}
	return fd.Add(negated)
}

// AddConstant shifts every sample by a scalar (len 1) or per-sample constant.
func (fd *FDataBasis) AddConstant(c []float64) (*FDataBasis, error) {
	coefs, err := fd.basis.AddConstant(fd.coefs, c)
	if err != nil {
		return nil, err
	}
	return fd.withCoefs(fd.basis, coefs, nil)
}

// SubConstant subtracts a scalar or per-sample constant.
func (fd *FDataBasis) SubConstant(c []float64) (*FDataBasis, error) {
	negated := make([]float64, len(c))
	for i, v := range c {
		negated[i] = -v
	}
	return fd.AddConstant(negated)
}

// Scale multiplies samples by a scalar (len 1) or per-sample factor.
func (fd *FDataBasis) Scale(factors []float64) (*FDataBasis, error) {
	coefs, err := basis.ScaleCoefficients(fd.coefs, factors)
	if err != nil {
		return nil, err
	}
	return fd.withCoefs(fd.basis, coefs, nil)
}

// Div divides samples by a scalar or per-sample constant. Division by a
// functional divisor is not supported.
func (fd *FDataBasis) Div(divisors []float64) (*FDataBasis, error) {
	reciprocal := make([]float64, len(divisors))
	for i, v := range divisors {
		if v == 0 {
			return nil, fmt.Errorf("division by zero at divisor %d", i)
		}
		reciprocal[i] = 1 / v
	}
	return fd.Scale(reciprocal)
}

// Mul approximates the pointwise product of two functional objects: both are
// discretized on a shared fine grid, multiplied, and refit in the product
// basis. A single-sample operand broadcasts against the other.
func (fd *FDataBasis) Mul(other *FDataBasis, method lsq.Method) (*FDataBasis, error) {
	if fd.DomainRange() != other.DomainRange() {
		return nil, fmt.Errorf("%w: domains %v and %v", ErrNotSupported,
			fd.DomainRange(), other.DomainRange())
	}
	n, m := fd.NSamples(), other.NSamples()
	if n != m && n != 1 && m != 1 {
		return nil, fmt.Errorf("%w: %d and %d", ErrSampleCount, n, m)
	}
	product, err := fd.basis.ProductBasis(other.basis)
	if err != nil {
		return nil, err
	}
	nb := fd.NBasis()
	if other.NBasis() > nb {
		nb = other.NBasis()
	}
	nPoints := basisMinFactor*nb + 1
	if nPoints < coarseMeshSize {
		nPoints = coarseMeshSize
	}
	points := basis.Linspace(fd.DomainRange(), nPoints)

	left, err := fd.Evaluate(points)
	if err != nil {
		return nil, err
	}
	right, err := other.Evaluate(points)
	if err != nil {
		return nil, err
	}
	rows := n
	if m > rows {
		rows = m
	}
	values := mat.NewDense(rows, nPoints, nil)
	for i := 0; i < rows; i++ {
		li, ri := i, i
		if n == 1 {
			li = 0
		}
		if m == 1 {
			ri = 0
		}
		for j := 0; j < nPoints; j++ {
			values.Set(i, j, left.At(li, j)*right.At(ri, j))
		}
	}
	return fromDense(values, points, product, method, metadata{extrapolation: fd.meta.extrapolation})
}

// ToGrid discretizes the object. Nil points select a linear mesh of
// max(501, 10*nBasis) points over the domain.
func (fd *FDataBasis) ToGrid(points []float64) (*FDataGrid, error) {
	if points == nil {
		n := basisMinFactor * fd.NBasis()
		if n < fineMeshSize {
			n = fineMeshSize
		}
		points = basis.Linspace(fd.DomainRange(), n)
	}
	values, err := fd.Evaluate(points)
	if err != nil {
		return nil, err
	}
	owned := make([]float64, len(points))
	copy(owned, points)
	return newGridDense(values, owned, fd.DomainRange(), fd.meta), nil
}

// ToBasis re-expresses the object in another basis through discretization and
// least squares. An equal target basis returns a copy unchanged.
func (fd *FDataBasis) ToBasis(b basis.Basis, method lsq.Method) (*FDataBasis, error) {
	if fd.basis.Equal(b) {
		return fd.Copy()
	}
	grid, err := fd.ToGrid(nil)
	if err != nil {
		return nil, err
	}
	return grid.ToBasis(b, method)
}

// Mean returns the arithmetic mean sample, computed directly on coefficients.
func (fd *FDataBasis) Mean() (*FDataBasis, error) {
	return fd.MeanWeighted(nil)
}

// MeanWeighted returns the weighted mean sample. Nil weights give the plain
// mean; weights are renormalized to sum to one.
func (fd *FDataBasis) MeanWeighted(w []float64) (*FDataBasis, error) {
	n := fd.NSamples()
	weights, err := normalizeWeights(w, n)
	if err != nil {
		return nil, err
	}
	mean := mat.NewDense(1, fd.NBasis(), nil)
	for k := 0; k < fd.NBasis(); k++ {
		var v float64
		for i := 0; i < n; i++ {
			if weights == nil {
				v += fd.coefs.At(i, k) / float64(n)
			} else {
				v += fd.coefs.At(i, k) * weights[i]
			}
		}
		mean.Set(0, k, v)
	}
	return fd.withCoefs(fd.basis, mean, []string{"mean"})
}

// GMean computes the geometric mean through the grid representation.
func (fd *FDataBasis) GMean(points []float64, method lsq.Method) (*FDataBasis, error) {
	grid, err := fd.ToGrid(points)
	if err != nil {
		return nil, err
	}
	gmean, err := grid.GMean()
	if err != nil {
		return nil, err
	}
	return gmean.ToBasis(fd.basis, method)
}

// Var computes the pointwise variance through the grid representation.
func (fd *FDataBasis) Var(points []float64, method lsq.Method) (*FDataBasis, error) {
	grid, err := fd.ToGrid(points)
	if err != nil {
		return nil, err
	}
	variance, err := grid.Var()
	if err != nil {
		return nil, err
	}
	return variance.ToBasis(fd.basis, method)
}

// Cov computes the covariance matrix through the grid representation.
func (fd *FDataBasis) Cov(points []float64) (*mat.SymDense, error) {
	grid, err := fd.ToGrid(points)
	if err != nil {
		return nil, err
	}
	return grid.Cov()
}

// Compose computes (f_i ∘ other_i) through discretization, refitting into a
// copy of the basis rescaled to the inner function's domain.
func (fd *FDataBasis) Compose(other *FDataGrid, method lsq.Method) (*FDataBasis, error) {
	grid, err := fd.ToGrid(nil)
	if err != nil {
		return nil, err
	}
	composed, err := grid.Compose(other, nil)
	if err != nil {
		return nil, err
	}
	rescaled := fd.basis.Rescale(other.DomainRange())
	return composed.ToBasis(rescaled, method)
}

// Concatenate joins samples of objects sharing a basis, preserving order.
func (fd *FDataBasis) Concatenate(others ...*FDataBasis) (*FDataBasis, error) {
	total := fd.NSamples()
	for _, o := range others {
		if !fd.basis.Equal(o.basis) {
			return nil, fmt.Errorf("%w: %v and %v", ErrDifferentBasis, fd.basis, o.basis)
		}
		total += o.NSamples()
	}
	coefs := mat.NewDense(total, fd.NBasis(), nil)
	names := make([]string, 0, total)
	row := 0
	for _, part := range append([]*FDataBasis{fd}, others...) {
		for i := 0; i < part.NSamples(); i++ {
			coefs.SetRow(row, part.coefs.RawRowView(i))
			row++
		}
		names = appendNames(names, part.meta.sampleNames, part.NSamples())
	}
	return fd.withCoefs(fd.basis, coefs, finishNames(names))
}

// Sample selects a single sample as a new one-sample object.
func (fd *FDataBasis) Sample(i int) (*FDataBasis, error) {
	return fd.Select([]int{i})
}

// Select returns a new object holding the given sample rows.
func (fd *FDataBasis) Select(idx []int) (*FDataBasis, error) {
	coefs := mat.NewDense(len(idx), fd.NBasis(), nil)
	var names []string
	if fd.meta.sampleNames != nil {
		names = make([]string, len(idx))
	}
	for r, i := range idx {
		if i < 0 || i >= fd.NSamples() {
			return nil, fmt.Errorf("sample index %d out of range [0, %d)", i, fd.NSamples())
		}
		coefs.SetRow(r, fd.coefs.RawRowView(i))
		if names != nil {
			names[r] = fd.meta.sampleNames[i]
		}
	}
	return fd.withCoefs(fd.basis, coefs, names)
}

// Slice returns samples in [lo, hi).
func (fd *FDataBasis) Slice(lo, hi int) (*FDataBasis, error) {
	if lo < 0 || hi > fd.NSamples() || lo > hi {
		return nil, fmt.Errorf("slice [%d, %d) out of range [0, %d)", lo, hi, fd.NSamples())
	}
	idx := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		idx = append(idx, i)
	}
	return fd.Select(idx)
}

// Equals is structural equality: identical basis and identical coefficients.
func (fd *FDataBasis) Equals(other *FDataBasis) bool {
	if other == nil || !fd.basis.Equal(other.basis) {
		return false
	}
	return mat.Equal(fd.coefs, other.coefs)
}

// EqualSamples compares the objects sample by sample. The bases must be
// equal and the sample counts must match.
func (fd *FDataBasis) EqualSamples(other *FDataBasis) ([]bool, error) {
	if !fd.basis.Equal(other.basis) {
		return nil, fmt.Errorf("%w: %v and %v", ErrDifferentBasis, fd.basis, other.basis)
	}
	if fd.NSamples() != other.NSamples() {
		return nil, fmt.Errorf(
			"%w: %d and %d", ErrSampleCount, fd.NSamples(), other.NSamples(),
		)
	}
	equal := make([]bool, fd.NSamples())
	for i := range equal {
		equal[i] = true
		for k := 0; k < fd.NBasis(); k++ {
			if fd.coefs.At(i, k) != other.coefs.At(i, k) {
				equal[i] = false
				break
			}
		}
	}
	return equal, nil
}

// NaNSamples flags samples whose coefficients are all NaN.
func (fd *FDataBasis) NaNSamples() []bool {
	flags := make([]bool, fd.NSamples())
	for i := range flags {
		flags[i] = true
		for k := 0; k < fd.NBasis(); k++ {
			if !math.IsNaN(fd.coefs.At(i, k)) {
				flags[i] = false
				break
			}
		}
	}
	return flags
}

func (fd *FDataBasis) String() string {
	return fmt.Sprintf("FDataBasis(basis=%v, nSamples=%d)", fd.basis, fd.NSamples())
}

func fromDense(values *mat.Dense, points []float64, b basis.Basis, method lsq.Method, meta metadata) (*FDataBasis, error) {
	owned := make([]float64, len(points))
	copy(owned, points)
	grid := newGridDense(values, owned, b.DomainRange(), metadata{extrapolation: meta.extrapolation})
	return grid.ToBasis(b, method)
}

func clampPoints(points []float64, r basis.Interval) []float64 {
	clamped := make([]float64, len(points))
	for i, t := range points {
		switch {
		case t < r.Lo:
			clamped[i] = r.Lo
		case t > r.Hi:
			clamped[i] = r.Hi
		default:
			clamped[i] = t
		}
	}
	return clamped
}

func zeroOutside(values *mat.Dense, points []float64, r basis.Interval) {
	rows, _ := values.Dims()
	for j, t := range points {
		if !r.Contains(t) {
			for i := 0; i < rows; i++ {
				values.Set(i, j, 0)
			}
		}
	}
}
