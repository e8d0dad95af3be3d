package lsq

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSolve_ExactSystem(t *testing.T) {
	t.Parallel()
	// y = 2 + 3t sampled without noise: the fit recovers the coefficients.
	ts := []float64{0, 1, 2, 3}
	phi := mat.NewDense(len(ts), 2, nil)
	y := mat.NewDense(len(ts), 1, nil)
	for i, x := range ts {
		phi.Set(i, 0, 1)
		phi.Set(i, 1, x)
		y.Set(i, 0, 2+3*x)
	}
	for _, method := range []Method{Cholesky, QR, ""} {
		coefs, err := Solve(phi, y, method)
		if err != nil {
			t.Fatalf("Solve(%q): %v", method, err)
		}
		if math.Abs(coefs.At(0, 0)-2) > 1e-9 || math.Abs(coefs.At(1, 0)-3) > 1e-9 {
			t.Errorf("Solve(%q) = (%g, %g), want (2, 3)", method, coefs.At(0, 0), coefs.At(1, 0))
		}
	}
}

func TestSolve_CholeskyQRAgree(t *testing.T) {
	t.Parallel()
	phi := mat.NewDense(5, 3, []float64{
		1, 0, 0,
		1, 1, 1,
		1, 2, 4,
		1, 3, 9,
		1, 4, 16,
	})
	y := mat.NewDense(5, 2, []float64{
		1, 0,
		2.1, 1,
		4.8, 2,
		10.2, 3,
		16.9, 4,
	})
	chol, err := Solve(phi, y, Cholesky)
	if err != nil {
		t.Fatalf("Solve(cholesky): %v", err)
	}
	qr, err := Solve(phi, y, QR)
	if err != nil {
		t.Fatalf("Solve(qr): %v", err)
	}
	rows, cols := chol.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.Abs(chol.At(i, j)-qr.At(i, j)) > 1e-8 {
				t.Fatalf("methods disagree at (%d,%d): %g vs %g", i, j, chol.At(i, j), qr.At(i, j))
			}
		}
	}
}

func TestSolve_Errors(t *testing.T) {
	t.Parallel()
	phi := mat.NewDense(2, 3, nil)
	y := mat.NewDense(2, 1, nil)
	if _, err := Solve(phi, y, Cholesky); err == nil {
		t.Fatal("expected an error for an underdetermined system")
	}

	phi = mat.NewDense(3, 2, nil)
	y = mat.NewDense(4, 1, nil)
	if _, err := Solve(phi, y, Cholesky); err == nil {
		t.Fatal("expected a shape error")
	}

	phi = mat.NewDense(3, 2, []float64{1, 0, 1, 1, 1, 2})
	y = mat.NewDense(3, 1, []float64{0, 1, 2})
	if _, err := Solve(phi, y, Method("lu")); err == nil {
		t.Fatal("expected an error for an unknown method")
	}
}
