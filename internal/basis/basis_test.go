package basis

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const tol = 1e-9

func TestMonomial_Evaluate(t *testing.T) {
	t.Parallel()
	b, err := NewMonomial(Interval{0, 1}, 3)
	if err != nil {
		t.Fatalf("NewMonomial: %v", err)
	}
	points := []float64{0, 0.5, 2}
	values, err := b.Evaluate(points)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := [][]float64{
		{1, 1, 1},
		{0, 0.5, 2},
		{0, 0.25, 4},
	}
	for k := range want {
		for j := range want[k] {
			if math.Abs(values.At(k, j)-want[k][j]) > tol {
				t.Errorf("phi_%d(%g) = %g, want %g", k, points[j], values.At(k, j), want[k][j])
			}
		}
	}
}

func TestMonomial_Derivative(t *testing.T) {
	t.Parallel()
	b, err := NewMonomial(Interval{0, 1}, 4)
	if err != nil {
		t.Fatalf("NewMonomial: %v", err)
	}
	// f(t) = 1 + 2t + 3t^2 + 4t^3, f'(t) = 2 + 6t + 12t^2
	coefs := mat.NewDense(1, 4, []float64{1, 2, 3, 4})
	db, dc, err := b.DerivativeBasisAndCoefs(coefs, 1)
	if err != nil {
		t.Fatalf("DerivativeBasisAndCoefs: %v", err)
	}
	if db.NBasis() != 3 {
		t.Fatalf("derivative basis size = %d, want 3", db.NBasis())
	}
	want := []float64{2, 6, 12}
	for k, v := range want {
		if math.Abs(dc.At(0, k)-v) > tol {
			t.Errorf("derivative coef %d = %g, want %g", k, dc.At(0, k), v)
		}
	}
}

func TestMonomial_DerivativeOfConstant(t *testing.T) {
	t.Parallel()
	b, err := NewMonomial(Interval{0, 1}, 1)
	if err != nil {
		t.Fatalf("NewMonomial: %v", err)
	}
	coefs := mat.NewDense(1, 1, []float64{3})
	db, dc, err := b.DerivativeBasisAndCoefs(coefs, 1)
	if err != nil {
		t.Fatalf("DerivativeBasisAndCoefs: %v", err)
	}
	if db.NBasis() != 1 || dc.At(0, 0) != 0 {
		t.Errorf("derivative of a constant: nBasis=%d coef=%g, want 1 and 0", db.NBasis(), dc.At(0, 0))
	}
}

func TestFourier_Evaluate(t *testing.T) {
	t.Parallel()
	b, err := NewFourier(Interval{0, 1}, 3, 0)
	if err != nil {
		t.Fatalf("NewFourier: %v", err)
	}
	values, err := b.Evaluate([]float64{0, 0.25})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// Period 1: phi_0 = 1, phi_1 = sqrt(2) sin(2 pi t), phi_2 = sqrt(2) cos(2 pi t).
	if math.Abs(values.At(0, 0)-1) > tol {
		t.Errorf("phi_0(0) = %g, want 1", values.At(0, 0))
	}
	if math.Abs(values.At(1, 0)) > tol {
		t.Errorf("phi_1(0) = %g, want 0", values.At(1, 0))
	}
	if math.Abs(values.At(1, 1)-math.Sqrt2) > tol {
		t.Errorf("phi_1(0.25) = %g, want sqrt(2)", values.At(1, 1))
	}
	if math.Abs(values.At(2, 1)) > tol {
		t.Errorf("phi_2(0.25) = %g, want 0", values.At(2, 1))
	}
}

func TestFourier_Derivative(t *testing.T) {
	t.Parallel()
	b, err := NewFourier(Interval{0, 1}, 3, 0)
	if err != nil {
		t.Fatalf("NewFourier: %v", err)
	}
	// f = sin term only: coefs (0, 1, 0). f' shifts weight onto the cosine
	// term with factor omega.
	coefs := mat.NewDense(1, 3, []float64{0, 1, 0})
	_, dc, err := b.DerivativeBasisAndCoefs(coefs, 1)
	if err != nil {
		t.Fatalf("DerivativeBasisAndCoefs: %v", err)
	}
	w := 2 * math.Pi
	if math.Abs(dc.At(0, 0)) > tol || math.Abs(dc.At(0, 1)) > tol {
		t.Errorf("unexpected constant/sine weight: %v %v", dc.At(0, 0), dc.At(0, 1))
	}
	if math.Abs(dc.At(0, 2)-w) > tol {
		t.Errorf("cosine weight = %g, want %g", dc.At(0, 2), w)
	}
}

func TestFourier_RescaleScalesPeriod(t *testing.T) {
	t.Parallel()
	b, err := NewFourier(Interval{0, 1}, 3, 0)
	if err != nil {
		t.Fatalf("NewFourier: %v", err)
	}
	r := b.Rescale(Interval{0, 2}).(*Fourier)
	if r.Period() != 2 {
		t.Errorf("rescaled period = %g, want 2", r.Period())
	}
}

func TestBSpline_PartitionOfUnity(t *testing.T) {
	t.Parallel()
	b, err := NewBSpline(Interval{0, 1}, 7, 4)
	if err != nil {
		t.Fatalf("NewBSpline: %v", err)
	}
	points := Linspace(Interval{0, 1}, 11)
	values, err := b.Evaluate(points)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for j := range points {
		var sum float64
		for i := 0; i < b.NBasis(); i++ {
			v := values.At(i, j)
			if v < -tol {
				t.Errorf("negative basis value %g at t=%g", v, points[j])
			}
			sum += v
		}
		if math.Abs(sum-1) > tol {
			t.Errorf("basis sum at t=%g is %g, want 1", points[j], sum)
		}
	}
}

func TestBSpline_EndpointEvaluation(t *testing.T) {
	t.Parallel()
	b, err := NewBSpline(Interval{0, 1}, 5, 3)
	if err != nil {
		t.Fatalf("NewBSpline: %v", err)
	}
	values, err := b.Evaluate([]float64{0, 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// Clamped splines interpolate the endpoints with the first and last
	// basis functions.
	if math.Abs(values.At(0, 0)-1) > tol {
		t.Errorf("first basis at lo = %g, want 1", values.At(0, 0))
	}
	if math.Abs(values.At(b.NBasis()-1, 1)-1) > tol {
		t.Errorf("last basis at hi = %g, want 1", values.At(b.NBasis()-1, 1))
	}
}

func TestBSpline_DerivativeOrderTooHigh(t *testing.T) {
	t.Parallel()
	b, err := NewBSpline(Interval{0, 1}, 5, 3)
	if err != nil {
		t.Fatalf("NewBSpline: %v", err)
	}
	coefs := mat.NewDense(1, b.NBasis(), nil)
	if _, _, err := b.DerivativeBasisAndCoefs(coefs, 3); err == nil {
		t.Fatal("expected an error deriving past the spline degree")
	}
}

func TestBSpline_DerivativeOfLinearRamp(t *testing.T) {
	t.Parallel()
	b, err := NewBSpline(Interval{0, 1}, 4, 2)
	if err != nil {
		t.Fatalf("NewBSpline: %v", err)
	}
	// Order-2 splines with coefficients equal to the knot values represent
	// f(t) = t; the derivative is the constant 1.
	coefs := mat.NewDense(1, 4, []float64{0, 1.0 / 3, 2.0 / 3, 1})
	db, dc, err := b.DerivativeBasisAndCoefs(coefs, 1)
	if err != nil {
		t.Fatalf("DerivativeBasisAndCoefs: %v", err)
	}
	points := []float64{0.1, 0.5, 0.9}
	values, err := db.Evaluate(points)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for j := range points {
		var sum float64
		for i := 0; i < db.NBasis(); i++ {
			sum += dc.At(0, i) * values.At(i, j)
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("derivative at t=%g is %g, want 1", points[j], sum)
		}
	}
}

func TestProductBasis(t *testing.T) {
	t.Parallel()
	domain := Interval{0, 1}
	m3, _ := NewMonomial(domain, 3)
	m4, _ := NewMonomial(domain, 4)
	prod, err := m3.ProductBasis(m4)
	if err != nil {
		t.Fatalf("ProductBasis: %v", err)
	}
	if prod.NBasis() != 6 {
		t.Errorf("monomial product size = %d, want 6", prod.NBasis())
	}

	f3, _ := NewFourier(domain, 3, 0)
	f5, _ := NewFourier(domain, 5, 0)
	prod, err = f3.ProductBasis(f5)
	if err != nil {
		t.Fatalf("ProductBasis: %v", err)
	}
	if prod.NBasis() != 7 {
		t.Errorf("fourier product size = %d, want 7", prod.NBasis())
	}

	c := NewConstant(domain)
	prod, err = m3.ProductBasis(c)
	if err != nil {
		t.Fatalf("ProductBasis with constant: %v", err)
	}
	if !prod.Equal(m3) {
		t.Errorf("product with constant should keep the basis, got %v", prod)
	}

	shifted, _ := NewMonomial(Interval{0, 2}, 3)
	if _, err := m3.ProductBasis(shifted); err == nil {
		t.Fatal("expected a domain mismatch error")
	}
}

func TestAddSameBasisRejectsDifferent(t *testing.T) {
	t.Parallel()
	domain := Interval{0, 1}
	m3, _ := NewMonomial(domain, 3)
	f3, _ := NewFourier(domain, 3, 0)
	c := mat.NewDense(1, 3, []float64{1, 2, 3})
	if _, err := AddSameBasis(m3, f3, c, c); err == nil {
		t.Fatal("expected an error adding across bases")
	}
	sum, err := AddSameBasis(m3, m3, c, c)
	if err != nil {
		t.Fatalf("AddSameBasis: %v", err)
	}
	if sum.At(0, 1) != 4 {
		t.Errorf("sum coef = %g, want 4", sum.At(0, 1))
	}
}
