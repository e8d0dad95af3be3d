// Package lsq solves dense least-squares systems Phi*C = Y for the
// coefficient matrix C minimizing the Frobenius norm of the residual.
package lsq

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

type Method string

const (
	// Cholesky solves the normal equations (Phi' Phi) C = Phi' Y. Fast, but
	// can lose accuracy on ill-conditioned systems.
	Cholesky Method = "cholesky"
	// QR factorizes Phi directly. Slower and numerically stable.
	QR Method = "qr"
)

var ErrShape = fmt.Errorf("design matrix and observations have different row counts")

// Solve returns the k x n coefficient matrix for a m x k design matrix phi
// and m x n observation matrix y.
func Solve(phi, y *mat.Dense, method Method) (*mat.Dense, error) {
	m, k := phi.Dims()
	my, n := y.Dims()
	if m != my {
		return nil, fmt.Errorf("%w: %d and %d", ErrShape, m, my)
	}
	if m < k {
		return nil, fmt.Errorf("underdetermined system: %d observations for %d terms", m, k)
	}

	switch method {
	case QR:
		var qr mat.QR
		qr.Factorize(phi)
		coefs := mat.NewDense(k, n, nil)
		if err := qr.SolveTo(coefs, false, y); err != nil {
			return nil, fmt.Errorf("qr solve: %w", err)
		}
		return coefs, nil
	case Cholesky, "":
		var gram mat.Dense
		gram.Mul(phi.T(), phi)
		sym := mat.NewSymDense(k, nil)
		for i := 0; i < k; i++ {
			for j := i; j < k; j++ {
				sym.SetSym(i, j, gram.At(i, j))
			}
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(sym); !ok {
			return nil, fmt.Errorf("cholesky factorization failed: matrix is not positive definite")
		}
		var rhs mat.Dense
		rhs.Mul(phi.T(), y)
		coefs := mat.NewDense(k, n, nil)
		if err := chol.SolveTo(coefs, &rhs); err != nil {
			return nil, fmt.Errorf("cholesky solve: %w", err)
		}
		return coefs, nil
	default:
		return nil, fmt.Errorf("unknown least-squares method %q", method)
	}
}
