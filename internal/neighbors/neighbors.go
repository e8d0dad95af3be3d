// Package neighbors implements neighbor-based estimators over functional
// data: unsupervised nearest-neighbor lookup, k-nearest and fixed-radius
// classification and regression. Functional samples are flattened onto a
// common grid and searched through the index engine; distances come from a
// functional metric, a vector metric or caller supplied matrices.
package neighbors

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/go-fda/fda/internal/fdata"
	"github.com/go-fda/fda/internal/metric"
	"github.com/go-fda/fda/internal/neighbors/index"
)

var (
	ErrNotFitted         = fmt.Errorf("neighbors: estimator is not fitted, call Fit first")
	ErrSampleMismatch    = fmt.Errorf("neighbors: input and response sample counts differ")
	ErrWeightLength      = fmt.Errorf("neighbors: weights length does not match neighbor count")
	ErrMultivariateScore = fmt.Errorf("neighbors: functional score requires a one-dimensional domain and codomain")
	ErrPrecomputedQuery  = fmt.Errorf("neighbors: estimator fitted with a precomputed metric, query with distance matrices")
)

// NoNeighborsError reports every query sample that had no neighbor within
// the configured radius.
type NoNeighborsError struct {
	Indices []int
	Radius  float64
}

func (e *NoNeighborsError) Error() string {
	return fmt.Sprintf(
		"neighbors: no neighbors found within radius %g for samples %v: widen the radius or configure a fallback response",
		e.Radius, e.Indices,
	)
}

// Weights selects the neighbor weighting policy.
type Weights string

const (
	// Uniform weights every neighbor equally.
	Uniform Weights = "uniform"
	// Distance weights neighbors by reciprocal distance. When one or more
	// neighbors sit at distance exactly zero, the zero-distance neighbors
	// share the full weight and the rest get none.
	Distance Weights = "distance"
	// Custom delegates to the configured WeightsFn.
	Custom Weights = "custom"
)

// WeightsFn maps raw neighbor distances to weights of the same length. The
// weights are renormalized to sum to one afterwards.
type WeightsFn func(dist []float64) ([]float64, error)

type config struct {
	nNeighbors int
	radius     float64
	weights    Weights
	weightsFn  WeightsFn
	algorithm  index.Algorithm
	leafSize   int
	nJobs      int

	metric           metric.Metric
	vectorMetric     index.DistanceFn
	precomputed      bool
	precomputeMetric bool
	multivariate     bool
}

func defaultConfig() config {
	return config{
		nNeighbors: 5,
		radius:     1.0,
		weights:    Uniform,
		algorithm:  index.Auto,
		leafSize:   30,
		nJobs:      1,
		metric:     metric.L2,
	}
}

type Option func(*config)

func WithNNeighbors(k int) Option { return func(c *config) { c.nNeighbors = k } }

func WithRadius(r float64) Option { return func(c *config) { c.radius = r } }

func WithWeights(w Weights) Option { return func(c *config) { c.weights = w } }

// WithWeightsFn installs a custom weighting callback and switches the policy
// to Custom.
func WithWeightsFn(fn WeightsFn) Option {
	return func(c *config) {
		c.weights = Custom
		c.weightsFn = fn
	}
}

func WithAlgorithm(alg index.Algorithm) Option { return func(c *config) { c.algorithm = alg } }

func WithLeafSize(n int) Option { return func(c *config) { c.leafSize = n } }

func WithNJobs(n int) Option { return func(c *config) { c.nJobs = n } }

// WithMetric sets the functional metric used on flattened samples.
func WithMetric(m metric.Metric) Option { return func(c *config) { c.metric = m } }

// WithPrecomputedDistances declares that the caller supplies pairwise
// distance matrices instead of functional data.
func WithPrecomputedDistances() Option { return func(c *config) { c.precomputed = true } }

// WithPrecomputeMetric retains the training data at fit time and lets
// predict recompute query-to-training distances under the functional
// metric. Raw neighbor queries are not supported in this mode.
func WithPrecomputeMetric() Option { return func(c *config) { c.precomputeMetric = true } }

// WithVectorMetric treats the metric as already vector-compatible and
// searches the flattened samples with fn directly. A nil fn means Euclidean.
func WithVectorMetric(fn index.DistanceFn) Option {
	return func(c *config) {
		c.multivariate = true
		c.vectorMetric = fn
	}
}

// fitMode is the strategy selected once at fit time. Every later call
// switches on it instead of recombining the configuration flags.
type fitMode int

const (
	fitModeNone fitMode = iota
	// fitModeAdapter searches flattened samples under the functional
	// metric wrapped by a grid adapter.
	fitModeAdapter
	// fitModePrecomputed answers queries from caller supplied distance
	// matrices.
	fitModePrecomputed
	// fitModeVector searches flattened samples under a plain vector
	// metric.
	fitModeVector
	// fitModePrecompute cached the training pairwise distances at fit
	// time; predict recomputes distances against the retained training
	// set.
	fitModePrecompute
)

// core carries the fitted search state shared by every estimator.
type core struct {
	cfg  config
	mode fitMode

	engine *index.Engine
	pre    *index.Precomputed

	gridPoints []float64
	fitX       *fdata.FDataGrid
	nFit       int
}

func newCore(opts ...Option) core {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return core{cfg: cfg}
}

func (c *core) fitted() bool { return c.mode != fitModeNone }

func (c *core) engineOpts() []index.Option {
	return []index.Option{
		index.WithNNeighbors(c.cfg.nNeighbors),
		index.WithRadius(c.cfg.radius),
		index.WithAlgorithm(c.cfg.algorithm),
		index.WithLeafSize(c.cfg.leafSize),
		index.WithNJobs(c.cfg.nJobs),
	}
}

// fit indexes functional training data following the configured metric mode.
func (c *core) fit(x *fdata.FDataGrid) error {
	if c.cfg.precomputed {
		return fmt.Errorf("neighbors: precomputed-distance estimator requires FitDistances")
	}
	if f, ok := c.cfg.metric.(metric.Fitter); ok {
		if err := f.Fit(x); err != nil {
			return fmt.Errorf("fit metric: %w", err)
		}
	}
	c.gridPoints = x.GridPoints()
	c.nFit = x.NSamples()

	switch {
	case c.cfg.precomputeMetric:
		c.pre = index.NewPrecomputed(c.engineOpts()...)
		if err := c.pre.FitN(x.NSamples()); err != nil {
			return err
		}
		c.fitX = x
		c.mode = fitModePrecompute
	case c.cfg.multivariate:
		fn := c.cfg.vectorMetric
		opts := c.engineOpts()
		if fn == nil {
			fn = euclidean
		} else {
			// Plane pruning in the k-d tree assumes coordinate differences
			// lower-bound the metric; only the built-in Euclidean distance
			// guarantees that for arbitrary data.
			opts = append(opts, index.WithAlgorithm(index.BruteForce))
		}
		c.engine = index.New(fn, opts...)
		if err := c.engine.Fit(x.Flatten()); err != nil {
			return err
		}
		c.mode = fitModeVector
	default:
		adapter := metric.NewGridAdapter(c.cfg.metric, c.gridPoints)
		// Plane pruning in the k-d tree assumes coordinate differences
		// lower-bound the metric, which quadrature weighted functional
		// metrics do not guarantee.
		opts := append(c.engineOpts(), index.WithAlgorithm(index.BruteForce))
		c.engine = index.New(adapter.Distance, opts...)
		if err := c.engine.Fit(x.Flatten()); err != nil {
			return err
		}
		c.mode = fitModeAdapter
	}
	return nil
}

// fitDistances indexes a square pairwise training distance matrix.
func (c *core) fitDistances(dist *mat.Dense) error {
	c.pre = index.NewPrecomputed(c.engineOpts()...)
	if err := c.pre.Fit(dist); err != nil {
		return err
	}
	rows, _ := dist.Dims()
	c.nFit = rows
	c.mode = fitModePrecomputed
	return nil
}

// flatten resamples x onto the training grid and flattens it for the index.
// A nil x queries the training samples themselves.
func (c *core) flatten(x *fdata.FDataGrid) (*mat.Dense, error) {
	if x == nil {
		return nil, nil
	}
	resampled, err := x.ToGrid(c.gridPoints)
	if err != nil {
		return nil, fmt.Errorf("resample queries onto the training grid: %w", err)
	}
	return resampled.Flatten(), nil
}

// kneighbors answers functional k-nearest queries in the vector-backed
// modes; nil x queries the training set with self-exclusion.
func (c *core) kneighbors(x *fdata.FDataGrid, k int) ([][]float64, [][]int, error) {
	if !c.fitted() {
		return nil, nil, ErrNotFitted
	}
	switch c.mode {
	case fitModePrecomputed, fitModePrecompute:
		return nil, nil, ErrPrecomputedQuery
	}
	queries, err := c.flatten(x)
	if err != nil {
		return nil, nil, err
	}
	return c.engine.Kneighbors(queries, k)
}

func (c *core) radiusNeighbors(x *fdata.FDataGrid, r float64) ([][]float64, [][]int, error) {
	if !c.fitted() {
		return nil, nil, ErrNotFitted
	}
	switch c.mode {
	case fitModePrecomputed, fitModePrecompute:
		return nil, nil, ErrPrecomputedQuery
	}
	queries, err := c.flatten(x)
	if err != nil {
		return nil, nil, err
	}
	return c.engine.RadiusNeighbors(queries, r)
}

// predictNeighbors resolves the neighbor sets consumed by predict. Unlike
// the raw query operations it also serves the precomputed modes: caller
// supplied distances in fitModePrecomputed, freshly computed query-to-training
// distances in fitModePrecompute.
func (c *core) predictNeighbors(x *fdata.FDataGrid, dist *mat.Dense, query neighborQuery) ([][]float64, [][]int, error) {
	if !c.fitted() {
		return nil, nil, ErrNotFitted
	}
	switch c.mode {
	case fitModePrecomputed:
		if dist == nil {
			return nil, nil, fmt.Errorf("neighbors: precomputed-distance estimator requires a query distance matrix")
		}
		return query.precomputed(c.pre, dist)
	case fitModePrecompute:
		if x == nil {
			return nil, nil, fmt.Errorf("neighbors: functional query data required")
		}
		resampled, err := x.ToGrid(c.gridPoints)
		if err != nil {
			return nil, nil, err
		}
		d, err := metric.Pairwise(c.cfg.metric, resampled, c.fitX)
		if err != nil {
			return nil, nil, fmt.Errorf("compute query distances: %w", err)
		}
		return query.precomputed(c.pre, d)
	default:
		if x == nil {
			return nil, nil, fmt.Errorf("neighbors: functional query data required")
		}
		queries, err := c.flatten(x)
		if err != nil {
			return nil, nil, err
		}
		return query.engine(c.engine, queries)
	}
}

// neighborQuery abstracts k-nearest vs fixed-radius resolution for the
// predict path.
type neighborQuery struct {
	engine      func(e *index.Engine, queries *mat.Dense) ([][]float64, [][]int, error)
	precomputed func(p *index.Precomputed, dist *mat.Dense) ([][]float64, [][]int, error)
}

func kQuery(k int) neighborQuery {
	return neighborQuery{
		engine: func(e *index.Engine, queries *mat.Dense) ([][]float64, [][]int, error) {
			return e.Kneighbors(queries, k)
		},
		precomputed: func(p *index.Precomputed, dist *mat.Dense) ([][]float64, [][]int, error) {
			return p.Kneighbors(dist, k)
		},
	}
}

func radiusQuery(r float64) neighborQuery {
	return neighborQuery{
		engine: func(e *index.Engine, queries *mat.Dense) ([][]float64, [][]int, error) {
			return e.RadiusNeighbors(queries, r)
		},
		precomputed: func(p *index.Precomputed, dist *mat.Dense) ([][]float64, [][]int, error) {
			return p.RadiusNeighbors(dist, r)
		},
	}
}

func euclidean(vec, vec1 []float64) (float64, error) {
	if len(vec) != len(vec1) {
		return 0, fmt.Errorf("neighbors: vector lengths differ: %d vs %d", len(vec), len(vec1))
	}
	var sum float64
	for i := range vec {
		d := vec[i] - vec1[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
