package neighbors

import (
	"fmt"

	"gonum.org/v1/gonum/integrate"

	"github.com/go-fda/fda/internal/fdata"
)

// r2Score is the coefficient of determination over flat numeric arrays,
// optionally sample weighted. Best score 1.0; can be negative; 0.0 matches
// an estimator that always predicts the weighted mean response.
func r2Score(yTrue, yPred, sampleWeight []float64) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("%w: %d targets, %d predictions", ErrSampleMismatch, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return 0, fmt.Errorf("neighbors: score on empty target set")
	}
	w, err := scoreWeights(sampleWeight, len(yTrue))
	if err != nil {
		return 0, err
	}
	var mean float64
	for i, y := range yTrue {
		mean += w[i] * y
	}
	var num, den float64
	for i := range yTrue {
		ru := yTrue[i] - yPred[i]
		rv := yTrue[i] - mean
		num += w[i] * ru * ru
		den += w[i] * rv * rv
	}
	if den == 0 {
		return 0, fmt.Errorf("neighbors: score undefined for a constant target")
	}
	return 1 - num/den, nil
}

// functionalR2 is the functional coefficient of determination: with the
// residual function u = y - pred and the total deviation v = y - mean(y),
// it returns 1 - integral(sum u^2) / integral(sum v^2), sums running over
// samples with optional renormalized sample weights.
func functionalR2(y, pred fdata.FData, sampleWeight []float64) (float64, error) {
	if y.DimDomain() != 1 || y.DimCodomain() != 1 || pred.DimDomain() != 1 || pred.DimCodomain() != 1 {
		return 0, ErrMultivariateScore
	}
	yg, err := y.ToGrid(nil)
	if err != nil {
		return 0, fmt.Errorf("discretize targets: %w", err)
	}
	pg, err := pred.ToGrid(yg.GridPoints())
	if err != nil {
		return 0, fmt.Errorf("discretize predictions: %w", err)
	}
	n := yg.NSamples()
	if pg.NSamples() != n {
		return 0, fmt.Errorf("%w: %d targets, %d predictions", ErrSampleMismatch, n, pg.NSamples())
	}
	w, err := scoreWeights(sampleWeight, n)
	if err != nil {
		return 0, err
	}
	mean, err := yg.MeanWeighted(sampleWeight)
	if err != nil {
		return 0, fmt.Errorf("mean response: %w", err)
	}

	points := yg.GridPoints()
	yMat := yg.DataMatrix()
	pMat := pg.DataMatrix()
	mMat := mean.DataMatrix()
	u2 := make([]float64, len(points))
	v2 := make([]float64, len(points))
	for i := 0; i < n; i++ {
		for j := range points {
			ru := yMat.At(i, j) - pMat.At(i, j)
			rv := yMat.At(i, j) - mMat.At(0, j)
			u2[j] += w[i] * ru * ru
			v2[j] += w[i] * rv * rv
		}
	}
	num := quadrature(points, u2)
	den := quadrature(points, v2)
	if den == 0 {
		return 0, fmt.Errorf("neighbors: score undefined for a constant target")
	}
	return 1 - num/den, nil
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

// scoreWeights returns per-sample weights summing to one; a nil input means
// uniform weighting.
func scoreWeights(w []float64, n int) ([]float64, error) {
	if w == nil {
		out := make([]float64, n)
		for i := range out {
			out[i] = 1 / float64(n)
		}
		return out, nil
	}
	if len(w) != n {
		return nil, fmt.Errorf("%w: %d samples, %d sample weights", ErrSampleMismatch, n, len(w))
	}
	return renormalize(w)
}
