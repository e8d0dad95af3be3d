package neighbors

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/go-fda/fda/internal/fdata"
)

// KNeighborsClassifier assigns every query sample the weighted majority
// label of its k nearest training samples.
type KNeighborsClassifier struct {
	core
	labels []string
}

func NewKNeighborsClassifier(opts ...Option) *KNeighborsClassifier {
	return &KNeighborsClassifier{core: newCore(opts...)}
}

// Fit indexes the training samples and retains their labels.
func (c *KNeighborsClassifier) Fit(x *fdata.FDataGrid, y []string) error {
	if x.NSamples() != len(y) {
		return fmt.Errorf("%w: %d samples, %d labels", ErrSampleMismatch, x.NSamples(), len(y))
	}
	if err := c.fit(x); err != nil {
		return err
	}
	c.labels = append([]string(nil), y...)
	return nil
}

// FitDistances indexes a pairwise training distance matrix with labels.
func (c *KNeighborsClassifier) FitDistances(dist *mat.Dense, y []string) error {
	rows, _ := dist.Dims()
	if rows != len(y) {
		return fmt.Errorf("%w: %d samples, %d labels", ErrSampleMismatch, rows, len(y))
	}
	if err := c.fitDistances(dist); err != nil {
		return err
	}
	c.labels = append([]string(nil), y...)
	return nil
}

// Predict returns one label per query sample.
func (c *KNeighborsClassifier) Predict(x *fdata.FDataGrid) ([]string, error) {
	return c.predictLabels(x, nil, kQuery(c.cfg.nNeighbors))
}

// PredictDistances predicts from a query-to-training distance matrix in the
// precomputed-distance mode.
func (c *KNeighborsClassifier) PredictDistances(dist *mat.Dense) ([]string, error) {
	return c.predictLabels(nil, dist, kQuery(c.cfg.nNeighbors))
}

// Score returns the fraction of correctly classified samples.
func (c *KNeighborsClassifier) Score(x *fdata.FDataGrid, y []string) (float64, error) {
	pred, err := c.Predict(x)
	if err != nil {
		return 0, err
	}
	return accuracy(pred, y)
}

func (c *KNeighborsClassifier) predictLabels(x *fdata.FDataGrid, dist *mat.Dense, query neighborQuery) ([]string, error) {
	d, ind, err := c.predictNeighbors(x, dist, query)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ind))
	for i := range ind {
		w, err := c.neighborWeights(d[i])
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = vote(c.labels, ind[i], w)
	}
	return out, nil
}

// RadiusNeighborsClassifier assigns every query sample the weighted
// majority label among the training samples within the configured radius.
// Samples without neighbors take the outlier label if one is configured and
// fail otherwise.
type RadiusNeighborsClassifier struct {
	core
	labels       []string
	outlierLabel string
	hasOutlier   bool
}

func NewRadiusNeighborsClassifier(opts ...Option) *RadiusNeighborsClassifier {
	return &RadiusNeighborsClassifier{core: newCore(opts...)}
}

// SetOutlierLabel configures the label returned for queries with no
// neighbor within the radius.
func (c *RadiusNeighborsClassifier) SetOutlierLabel(label string) {
	c.outlierLabel = label
	c.hasOutlier = true
}

func (c *RadiusNeighborsClassifier) Fit(x *fdata.FDataGrid, y []string) error {
	if x.NSamples() != len(y) {
		return fmt.Errorf("%w: %d samples, %d labels", ErrSampleMismatch, x.NSamples(), len(y))
	}
	if err := c.fit(x); err != nil {
		return err
	}
	c.labels = append([]string(nil), y...)
	return nil
}

func (c *RadiusNeighborsClassifier) Predict(x *fdata.FDataGrid) ([]string, error) {
	return c.predictLabels(x, nil)
}

func (c *RadiusNeighborsClassifier) PredictDistances(dist *mat.Dense) ([]string, error) {
	return c.predictLabels(nil, dist)
}

func (c *RadiusNeighborsClassifier) Score(x *fdata.FDataGrid, y []string) (float64, error) {
	pred, err := c.Predict(x)
	if err != nil {
		return 0, err
	}
	return accuracy(pred, y)
}

func (c *RadiusNeighborsClassifier) predictLabels(x *fdata.FDataGrid, dist *mat.Dense) ([]string, error) {
	d, ind, err := c.predictNeighbors(x, dist, radiusQuery(c.cfg.radius))
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ind))
	var orphans []int
	for i := range ind {
		if len(ind[i]) == 0 {
			if c.hasOutlier {
				out[i] = c.outlierLabel
				continue
			}
			orphans = append(orphans, i)
			continue
		}
		w, err := c.neighborWeights(d[i])
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = vote(c.labels, ind[i], w)
	}
	if len(orphans) > 0 {
		return nil, &NoNeighborsError{Indices: orphans, Radius: c.cfg.radius}
	}
	return out, nil
}

// vote returns the label with the largest summed weight. Ties break toward
// the lexicographically smallest label so predictions are deterministic.
func vote(labels []string, ind []int, w []float64) string {
	tally := make(map[string]float64, len(ind))
	for i, j := range ind {
		tally[labels[j]] += w[i]
	}
	var best string
	bestWeight := -1.0
	keys := make([]string, 0, len(tally))
	for label := range tally {
		keys = append(keys, label)
	}
	sort.Strings(keys)
	for _, label := range keys {
		if tally[label] > bestWeight {
			best, bestWeight = label, tally[label]
		}
	}
	return best
}

func accuracy(pred, y []string) (float64, error) {
	if len(pred) != len(y) {
		return 0, fmt.Errorf("%w: %d predictions, %d labels", ErrSampleMismatch, len(pred), len(y))
	}
	if len(y) == 0 {
		return 0, fmt.Errorf("neighbors: score on empty label set")
	}
	var hits int
	for i := range y {
		if pred[i] == y[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(y)), nil
}
