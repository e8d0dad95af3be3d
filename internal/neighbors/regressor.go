package neighbors

import (
	"fmt"

	"github.com/go-fda/fda/internal/fdata"
)

// regressor carries the fitted responses shared by the k-nearest and
// fixed-radius regressors. Whether the response is numeric or functional is
// decided once, by which fit entry point the caller used, and drives every
// later call.
type regressor struct {
	core
	y          []float64
	fy         fdata.FData
	functional bool
}

func (r *regressor) fitNumeric(x *fdata.FDataGrid, y []float64) error {
	if x.NSamples() != len(y) {
		return fmt.Errorf("%w: %d samples, %d responses", ErrSampleMismatch, x.NSamples(), len(y))
	}
	if err := r.fit(x); err != nil {
		return err
	}
	r.y = append([]float64(nil), y...)
	r.fy = nil
	r.functional = false
	return nil
}

func (r *regressor) fitFunctional(x *fdata.FDataGrid, y fdata.FData) error {
	if x.NSamples() != y.NSamples() {
		return fmt.Errorf("%w: %d samples, %d responses", ErrSampleMismatch, x.NSamples(), y.NSamples())
	}
	if err := r.fit(x); err != nil {
		return err
	}
	r.fy = y
	r.y = nil
	r.functional = true
	return nil
}

func (r *regressor) predictNumeric(x *fdata.FDataGrid, query neighborQuery, orphan func(i int) (float64, bool)) ([]float64, error) {
	if r.functional {
		return nil, fmt.Errorf("neighbors: estimator fitted with a functional response, use PredictFunctional")
	}
	dist, ind, err := r.predictNeighbors(x, nil, query)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(ind))
	var orphans []int
	for i := range ind {
		if len(ind[i]) == 0 {
			if v, ok := orphan(i); ok {
				out[i] = v
				continue
			}
			orphans = append(orphans, i)
			continue
		}
		w, err := r.neighborWeights(dist[i])
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = weightedAverage(r.y, ind[i], w)
	}
	if len(orphans) > 0 {
		return nil, &NoNeighborsError{Indices: orphans, Radius: r.cfg.radius}
	}
	return out, nil
}

// predictFunctional averages the neighbor response functions per query and
// concatenates the averages in query order.
func (r *regressor) predictFunctional(x *fdata.FDataGrid, query neighborQuery, orphan func(i int) (fdata.FData, bool)) (fdata.FData, error) {
	if !r.functional {
		return nil, fmt.Errorf("neighbors: estimator fitted with a numeric response, use Predict")
	}
	dist, ind, err := r.predictNeighbors(x, nil, query)
	if err != nil {
		return nil, err
	}
	means := make([]fdata.FData, len(ind))
	var orphans []int
	for i := range ind {
		if len(ind[i]) == 0 {
			if resp, ok := orphan(i); ok {
				means[i] = resp
				continue
			}
			orphans = append(orphans, i)
			continue
		}
		w, err := r.neighborWeights(dist[i])
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		taken, err := fdata.Take(r.fy, ind[i])
		if err != nil {
			return nil, fmt.Errorf("sample %d: select neighbor responses: %w", i, err)
		}
		mean, err := fdata.MeanOf(taken, w)
		if err != nil {
			return nil, fmt.Errorf("sample %d: average neighbor responses: %w", i, err)
		}
		means[i] = mean
	}
	if len(orphans) > 0 {
		return nil, &NoNeighborsError{Indices: orphans, Radius: r.cfg.radius}
	}
	if len(means) == 0 {
		return nil, fmt.Errorf("neighbors: predict on empty query set")
	}
	return fdata.Append(means[0], means[1:]...)
}

// KNeighborsRegressor predicts the weighted average response of the k
// nearest training samples. It is fitted either with a numeric response
// vector (Fit) or a functional response collection (FitFunctional).
type KNeighborsRegressor struct {
	regressor
}

func NewKNeighborsRegressor(opts ...Option) *KNeighborsRegressor {
	return &KNeighborsRegressor{regressor: regressor{core: newCore(opts...)}}
}

func (r *KNeighborsRegressor) Fit(x *fdata.FDataGrid, y []float64) error {
	return r.fitNumeric(x, y)
}

func (r *KNeighborsRegressor) FitFunctional(x *fdata.FDataGrid, y fdata.FData) error {
	return r.fitFunctional(x, y)
}

func (r *KNeighborsRegressor) Predict(x *fdata.FDataGrid) ([]float64, error) {
	return r.predictNumeric(x, kQuery(r.cfg.nNeighbors), noNumericFallback)
}

func (r *KNeighborsRegressor) PredictFunctional(x *fdata.FDataGrid) (fdata.FData, error) {
	return r.predictFunctional(x, kQuery(r.cfg.nNeighbors), noFunctionalFallback)
}

// Score returns the coefficient of determination of the numeric
// predictions, optionally sample weighted.
func (r *KNeighborsRegressor) Score(x *fdata.FDataGrid, y []float64, sampleWeight []float64) (float64, error) {
	pred, err := r.Predict(x)
	if err != nil {
		return 0, err
	}
	return r2Score(y, pred, sampleWeight)
}

// ScoreFunctional returns the functional coefficient of determination of
// the predicted functions against the observed response collection.
func (r *KNeighborsRegressor) ScoreFunctional(x *fdata.FDataGrid, y fdata.FData, sampleWeight []float64) (float64, error) {
	pred, err := r.PredictFunctional(x)
	if err != nil {
		return 0, err
	}
	return functionalR2(y, pred, sampleWeight)
}

// RadiusNeighborsRegressor predicts the weighted average response of the
// training samples within the configured radius. Queries without neighbors
// take the configured fallback response, or fail naming every affected
// sample index.
type RadiusNeighborsRegressor struct {
	regressor
	outlierValue    float64
	hasOutlierValue bool
	outlierResponse fdata.FData
}

func NewRadiusNeighborsRegressor(opts ...Option) *RadiusNeighborsRegressor {
	return &RadiusNeighborsRegressor{regressor: regressor{core: newCore(opts...)}}
}

// SetOutlierValue configures the numeric fallback for queries with no
// neighbor within the radius.
func (r *RadiusNeighborsRegressor) SetOutlierValue(v float64) {
	r.outlierValue = v
	r.hasOutlierValue = true
}

// SetOutlierResponse configures the functional fallback, a single-sample
// collection in the same representation as the fitted responses.
func (r *RadiusNeighborsRegressor) SetOutlierResponse(resp fdata.FData) {
	r.outlierResponse = resp
}

func (r *RadiusNeighborsRegressor) Fit(x *fdata.FDataGrid, y []float64) error {
	return r.fitNumeric(x, y)
}

func (r *RadiusNeighborsRegressor) FitFunctional(x *fdata.FDataGrid, y fdata.FData) error {
	return r.fitFunctional(x, y)
}

func (r *RadiusNeighborsRegressor) Predict(x *fdata.FDataGrid) ([]float64, error) {
	return r.predictNumeric(x, radiusQuery(r.cfg.radius), func(int) (float64, bool) {
		return r.outlierValue, r.hasOutlierValue
	})
}

func (r *RadiusNeighborsRegressor) PredictFunctional(x *fdata.FDataGrid) (fdata.FData, error) {
	return r.predictFunctional(x, radiusQuery(r.cfg.radius), func(int) (fdata.FData, bool) {
		return r.outlierResponse, r.outlierResponse != nil
	})
}

func (r *RadiusNeighborsRegressor) Score(x *fdata.FDataGrid, y []float64, sampleWeight []float64) (float64, error) {
	pred, err := r.Predict(x)
	if err != nil {
		return 0, err
	}
	return r2Score(y, pred, sampleWeight)
}

func (r *RadiusNeighborsRegressor) ScoreFunctional(x *fdata.FDataGrid, y fdata.FData, sampleWeight []float64) (float64, error) {
	pred, err := r.PredictFunctional(x)
	if err != nil {
		return 0, err
	}
	return functionalR2(y, pred, sampleWeight)
}

func noNumericFallback(int) (float64, bool) { return 0, false }

func noFunctionalFallback(int) (fdata.FData, bool) { return nil, false }
