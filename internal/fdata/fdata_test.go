package fdata

import (
	"errors"
	"math"
	"testing"

	"github.com/go-fda/fda/internal/basis"
	"github.com/go-fda/fda/pkg/math/lsq"
)

const tol = 1e-9

func monomial(t *testing.T, nBasis int) basis.Basis {
	t.Helper()
	b, err := basis.NewMonomial(basis.Interval{Lo: 0, Hi: 1}, nBasis)
	if err != nil {
		t.Fatalf("NewMonomial: %v", err)
	}
	return b
}

func TestNewGrid_Validation(t *testing.T) {
	t.Parallel()
	if _, err := NewGrid([][]float64{{1, 2}}, []float64{1, 0}); err == nil {
		t.Fatal("expected an error for unsorted grid points")
	}
	if _, err := NewGrid([][]float64{{1, 2, 3}}, []float64{0, 1}); err == nil {
		t.Fatal("expected an error for a row not matching the grid")
	}
}

func TestNewBasisRep_CoefficientShape(t *testing.T) {
	t.Parallel()
	b := monomial(t, 3)
	if _, err := NewBasisRep(b, [][]float64{{1, 2}}); !errors.Is(err, ErrBasisSize) {
		t.Fatalf("got %v, want ErrBasisSize", err)
	}
}

func TestFromData_RoundTrip(t *testing.T) {
	t.Parallel()
	// Quadratic samples are represented exactly in a cubic monomial basis.
	points := basis.Linspace(basis.Interval{Lo: 0, Hi: 1}, 9)
	data := make([][]float64, 2)
	for i := range data {
		row := make([]float64, len(points))
		for j, p := range points {
			row[j] = float64(i+1) * (1 + p + p*p)
		}
		data[i] = row
	}
	for _, method := range []lsq.Method{lsq.Cholesky, lsq.QR} {
		rep, err := FromData(data, points, monomial(t, 3), method)
		if err != nil {
			t.Fatalf("FromData(%q): %v", method, err)
		}
		values, err := rep.Evaluate(points)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		for i := range data {
			for j := range points {
				if math.Abs(values.At(i, j)-data[i][j]) > 1e-8 {
					t.Fatalf("method %q: sample %d at %g: got %g, want %g",
						method, i, points[j], values.At(i, j), data[i][j])
				}
			}
		}
	}
}

func TestBasisRep_Mean(t *testing.T) {
	t.Parallel()
	b := monomial(t, 4)
	rep, err := NewBasisRep(b, [][]float64{
		{0.5, 1, 2, 0.5},
		{1.5, 1, 4, 0.5},
	})
	if err != nil {
		t.Fatalf("NewBasisRep: %v", err)
	}
	mean, err := rep.Mean()
	if err != nil {
		t.Fatalf("Mean: %v", err)
	}
	if mean.NSamples() != 1 {
		t.Fatalf("mean sample count = %d, want 1", mean.NSamples())
	}
	want := []float64{1, 1, 3, 0.5}
	coefs := mean.Coefficients()
	for k, v := range want {
		if math.Abs(coefs.At(0, k)-v) > tol {
			t.Errorf("mean coef %d = %g, want %g", k, coefs.At(0, k), v)
		}
	}
}

func TestBasisRep_DerivativeOrderZero(t *testing.T) {
	t.Parallel()
	b := monomial(t, 3)
	rep, err := NewBasisRep(b, [][]float64{{1, 2, 3}})
	if err != nil {
		t.Fatalf("NewBasisRep: %v", err)
	}
	same, err := rep.Derivative(0)
	if err != nil {
		t.Fatalf("Derivative(0): %v", err)
	}
	if !rep.Equals(same) {
		t.Error("zero-order derivative should equal the source")
	}
	if _, err := rep.Derivative(-1); err == nil {
		t.Fatal("expected an error for a negative order")
	}
}

func TestBasisRep_Derivative(t *testing.T) {
	t.Parallel()
	b := monomial(t, 3)
	// f(t) = 1 + 2t + 3t^2, f'(t) = 2 + 6t
	rep, err := NewBasisRep(b, [][]float64{{1, 2, 3}})
	if err != nil {
		t.Fatalf("NewBasisRep: %v", err)
	}
	deriv, err := rep.Derivative(1)
	if err != nil {
		t.Fatalf("Derivative: %v", err)
	}
	values, err := deriv.Evaluate([]float64{0, 0.5, 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := []float64{2, 5, 8}
	for j, v := range want {
		if math.Abs(values.At(0, j)-v) > tol {
			t.Errorf("derivative value %d = %g, want %g", j, values.At(0, j), v)
		}
	}
}

func TestBasisRep_Arithmetic(t *testing.T) {
	t.Parallel()
	b := monomial(t, 3)
	x, _ := NewBasisRep(b, [][]float64{{1, 2, 3}})
	y, _ := NewBasisRep(b, [][]float64{{2, 1, 0}})

	sum, err := x.Add(y)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	coefs := sum.Coefficients()
	for k, want := range []float64{3, 3, 3} {
		if coefs.At(0, k) != want {
			t.Errorf("sum coef %d = %g, want %g", k, coefs.At(0, k), want)
		}
	}

	diff, err := sum.Sub(y)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if !diff.Equals(x) {
		t.Error("add then subtract should restore the source")
	}

	scaled, err := x.Scale([]float64{2})
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if scaled.Coefficients().At(0, 2) != 6 {
		t.Errorf("scaled coef = %g, want 6", scaled.Coefficients().At(0, 2))
	}

	shifted, err := x.AddConstant([]float64{10})
	if err != nil {
		t.Fatalf("AddConstant: %v", err)
	}
	if shifted.Coefficients().At(0, 0) != 11 {
		t.Errorf("shifted constant coef = %g, want 11", shifted.Coefficients().At(0, 0))
	}

	other, _ := NewBasisRep(monomial(t, 2), [][]float64{{1, 1}})
	if _, err := x.Add(other); !errors.Is(err, ErrDifferentBasis) {
		t.Fatalf("got %v, want ErrDifferentBasis", err)
	}
}

func TestBasisRep_Concatenate(t *testing.T) {
	t.Parallel()
	b := monomial(t, 2)
	first, _ := NewBasisRep(b, [][]float64{{1, 0}, {2, 0}, {3, 0}})
	second, _ := NewBasisRep(b, [][]float64{{4, 0}, {5, 0}})
	all, err := first.Concatenate(second)
	if err != nil {
		t.Fatalf("Concatenate: %v", err)
	}
	if all.NSamples() != 5 {
		t.Fatalf("NSamples = %d, want 5", all.NSamples())
	}
	coefs := all.Coefficients()
	for i, want := range []float64{1, 2, 3, 4, 5} {
		if coefs.At(i, 0) != want {
			t.Errorf("sample %d coef = %g, want %g", i, coefs.At(i, 0), want)
		}
	}

	crossBasis, _ := NewBasisRep(monomial(t, 3), [][]float64{{1, 1, 1}})
	if _, err := first.Concatenate(crossBasis); err == nil {
		t.Fatal("expected an error concatenating across bases")
	}
}

func TestBasisRep_EqualSamples(t *testing.T) {
	t.Parallel()
	b := monomial(t, 2)
	x, _ := NewBasisRep(b, [][]float64{{1, 0}, {2, 0}})
	y, _ := NewBasisRep(b, [][]float64{{1, 0}, {3, 0}})
	eq, err := x.EqualSamples(y)
	if err != nil {
		t.Fatalf("EqualSamples: %v", err)
	}
	if !eq[0] || eq[1] {
		t.Errorf("EqualSamples = %v, want [true false]", eq)
	}

	short, _ := NewBasisRep(b, [][]float64{{1, 0}})
	if _, err := x.EqualSamples(short); !errors.Is(err, ErrSampleCount) {
		t.Fatalf("got %v, want ErrSampleCount", err)
	}
	crossBasis, _ := NewBasisRep(monomial(t, 3), [][]float64{{1, 0, 0}, {2, 0, 0}})
	if _, err := x.EqualSamples(crossBasis); !errors.Is(err, ErrDifferentBasis) {
		t.Fatalf("got %v, want ErrDifferentBasis", err)
	}
}

func TestBasisRep_ShiftByZero(t *testing.T) {
	t.Parallel()
	b := monomial(t, 3)
	rep, _ := NewBasisRep(b, [][]float64{{1, 2, 3}})
	shifted, err := rep.Shift(0)
	if err != nil {
		t.Fatalf("Shift: %v", err)
	}
	points := basis.Linspace(basis.Interval{Lo: 0, Hi: 1}, 7)
	got, err := shifted.Evaluate(points)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want, err := rep.Evaluate(points)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for j := range points {
		if math.Abs(got.At(0, j)-want.At(0, j)) > 1e-6 {
			t.Errorf("shift by zero changed value at %g: %g vs %g", points[j], got.At(0, j), want.At(0, j))
		}
	}
}

func TestBasisRep_ShiftSamplesLengthCheck(t *testing.T) {
	t.Parallel()
	b := monomial(t, 3)
	rep, _ := NewBasisRep(b, [][]float64{{1, 2, 3}, {0, 1, 0}})
	if _, err := rep.ShiftSamples([]float64{0.1}); !errors.Is(err, ErrShiftLength) {
		t.Fatalf("got %v, want ErrShiftLength", err)
	}
}

func TestGrid_Statistics(t *testing.T) {
	t.Parallel()
	points := []float64{0, 0.5, 1}
	g, err := NewGrid([][]float64{
		{1, 2, 3},
		{3, 4, 5},
	}, points)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}

	mean, err := g.Mean()
	if err != nil {
		t.Fatalf("Mean: %v", err)
	}
	for j, want := range []float64{2, 3, 4} {
		if mean.DataMatrix().At(0, j) != want {
			t.Errorf("mean at %d = %g, want %g", j, mean.DataMatrix().At(0, j), want)
		}
	}

	v, err := g.Var()
	if err != nil {
		t.Fatalf("Var: %v", err)
	}
	for j := range points {
		if math.Abs(v.DataMatrix().At(0, j)-1) > tol {
			t.Errorf("var at %d = %g, want 1", j, v.DataMatrix().At(0, j))
		}
	}

	gm, err := g.GMean()
	if err != nil {
		t.Fatalf("GMean: %v", err)
	}
	if math.Abs(gm.DataMatrix().At(0, 0)-math.Sqrt(3)) > tol {
		t.Errorf("gmean at 0 = %g, want sqrt(3)", gm.DataMatrix().At(0, 0))
	}

	neg, _ := NewGrid([][]float64{{-1, 1, 1}}, points)
	if _, err := neg.GMean(); err == nil {
		t.Fatal("expected an error for non-positive values")
	}
}

func TestGrid_InterpolatedEvaluate(t *testing.T) {
	t.Parallel()
	g, err := NewGrid([][]float64{{0, 2, 4}}, []float64{0, 1, 2})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	values, err := g.Evaluate([]float64{0.5, 1.5, 3})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// Linear interpolation between grid points, clamped past the domain.
	for j, want := range []float64{1, 3, 4} {
		if math.Abs(values.At(0, j)-want) > tol {
			t.Errorf("value %d = %g, want %g", j, values.At(0, j), want)
		}
	}
}

func TestTakeMeanOfAppendHelpers(t *testing.T) {
	t.Parallel()
	points := []float64{0, 0.5, 1}
	g, _ := NewGrid([][]float64{
		{1, 1, 1},
		{2, 2, 2},
		{5, 5, 5},
	}, points)

	taken, err := Take(g, []int{0, 2})
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if taken.NSamples() != 2 {
		t.Fatalf("taken samples = %d, want 2", taken.NSamples())
	}

	mean, err := MeanOf(taken, []float64{0.5, 0.5})
	if err != nil {
		t.Fatalf("MeanOf: %v", err)
	}
	grid, err := mean.ToGrid(nil)
	if err != nil {
		t.Fatalf("ToGrid: %v", err)
	}
	if grid.DataMatrix().At(0, 0) != 3 {
		t.Errorf("weighted mean = %g, want 3", grid.DataMatrix().At(0, 0))
	}

	all, err := Append(taken, mean)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if all.NSamples() != 3 {
		t.Errorf("appended samples = %d, want 3", all.NSamples())
	}
}

func TestBasisToGridRoundTrip(t *testing.T) {
	t.Parallel()
	b := monomial(t, 3)
	rep, _ := NewBasisRep(b, [][]float64{{1, -2, 0.5}})
	grid, err := rep.ToGrid(nil)
	if err != nil {
		t.Fatalf("ToGrid: %v", err)
	}
	back, err := grid.ToBasis(b, lsq.Cholesky)
	if err != nil {
		t.Fatalf("ToBasis: %v", err)
	}
	orig := rep.Coefficients()
	got := back.Coefficients()
	for k := 0; k < 3; k++ {
		if math.Abs(got.At(0, k)-orig.At(0, k)) > 1e-6 {
			t.Errorf("round-trip coef %d = %g, want %g", k, got.At(0, k), orig.At(0, k))
		}
	}
}

func TestCopy_MetadataOverrides(t *testing.T) {
	t.Parallel()
	rep, err := NewBasisRep(monomial(t, 3), [][]float64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("NewBasisRep: %v", err)
	}
	if _, err := rep.Copy(WithSampleNames("only-one")); err == nil {
		t.Fatal("expected an error for a sample-name override of the wrong length")
	}
	cp, err := rep.Copy(WithSampleNames("a", "b"))
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if got := cp.SampleNames(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("sample names = %v, want [a b]", got)
	}
	same, err := rep.Copy()
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if !same.Equals(rep) {
		t.Error("plain copy is not equal to the source")
	}
}
