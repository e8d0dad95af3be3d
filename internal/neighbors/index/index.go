// Package index provides the low level nearest-neighbor search engine:
// brute force and k-d tree lookups over fitted row vectors, plus sparse
// neighborhood graphs. It knows nothing about prediction; the neighbors
// package composes it into estimators.
package index

import (
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/go-fda/fda/pkg/container/kdtree"
	"github.com/go-fda/fda/pkg/pqueue"
)

// Algorithm selects the search structure.
type Algorithm string

const (
	// Auto picks a k-d tree for data sets large enough to amortize the
	// build cost and falls back to brute force otherwise.
	Auto       Algorithm = "auto"
	BruteForce Algorithm = "brute"
	KDTree     Algorithm = "kd_tree"
)

// DistanceFn measures the distance between two fitted row vectors.
type DistanceFn func(vec, vec1 []float64) (float64, error)

var (
	ErrNotFitted = fmt.Errorf("index: engine is not fitted")
	ErrQueryDim  = fmt.Errorf("index: query dimension does not match fitted data")
)

type Option func(*Engine)

func WithNNeighbors(k int) Option { return func(e *Engine) { e.nNeighbors = k } }

func WithRadius(r float64) Option { return func(e *Engine) { e.radius = r } }

func WithAlgorithm(alg Algorithm) Option { return func(e *Engine) { e.algorithm = alg } }

func WithLeafSize(n int) Option { return func(e *Engine) { e.leafSize = n } }

// WithNJobs bounds query fan-out. Values below 1 use GOMAXPROCS.
func WithNJobs(n int) Option { return func(e *Engine) { e.nJobs = n } }

// Engine answers k-nearest and fixed-radius queries against a fitted set of
// row vectors under an arbitrary distance function.
type Engine struct {
	distFn     DistanceFn
	algorithm  Algorithm
	leafSize   int
	nJobs      int
	nNeighbors int
	radius     float64

	fitX     *mat.Dense
	tree     *kdtree.Tree
	resolved Algorithm
}

func New(distFn DistanceFn, opts ...Option) *Engine {
	e := &Engine{
		distFn:     distFn,
		algorithm:  Auto,
		leafSize:   30,
		nJobs:      1,
		nNeighbors: 5,
		radius:     1.0,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) NNeighbors() int { return e.nNeighbors }

func (e *Engine) Radius() float64 { return e.radius }

// NFitted returns the number of fitted samples, zero before Fit.
func (e *Engine) NFitted() int {
	if e.fitX == nil {
		return 0
	}
	r, _ := e.fitX.Dims()
	return r
}

// Fit indexes the row vectors of x. The matrix is retained, not copied.
func (e *Engine) Fit(x *mat.Dense) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("index: fit on empty matrix %dx%d", rows, cols)
	}
	e.fitX = x
	e.resolved = e.algorithm
	if e.resolved == Auto {
		if rows > 2*e.leafSize {
			e.resolved = KDTree
		} else {
			e.resolved = BruteForce
		}
	}
	if e.resolved == KDTree {
		points := make([]kdtree.Point, rows)
		for i := 0; i < rows; i++ {
			points[i] = kdtree.Point{Vec: e.fitX.RawRowView(i), ID: i}
		}
		e.tree = kdtree.New(kdtree.DistanceFn(e.distFn))
		e.tree.Build(points...)
	}
	return nil
}

// Kneighbors returns the k nearest fitted samples for every row of queries,
// distances ascending. A nil queries matrix queries the fitted samples
// themselves, excluding each sample from its own neighborhood.
func (e *Engine) Kneighbors(queries *mat.Dense, k int) (dist [][]float64, ind [][]int, err error) {
	if e.fitX == nil {
		return nil, nil, ErrNotFitted
	}
	if k <= 0 {
		k = e.nNeighbors
	}
	nFit, _ := e.fitX.Dims()
	selfQuery := queries == nil
	if selfQuery {
		queries = e.fitX
	}
	if k > nFit || selfQuery && k > nFit-1 {
		return nil, nil, fmt.Errorf("index: expected k <= %d fitted samples, got k=%d", nFit, k)
	}
	nq, _ := queries.Dims()
	dist = make([][]float64, nq)
	ind = make([][]int, nq)
	err = e.forEachQuery(nq, func(i int) error {
		exclude := -1
		if selfQuery {
			exclude = i
		}
		d, idx, err := e.kQuery(queries.RawRowView(i), k, exclude)
		if err != nil {
			return fmt.Errorf("query %d: %w", i, err)
		}
		dist[i], ind[i] = d, idx
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return dist, ind, nil
}

// RadiusNeighbors returns, per query row, every fitted sample with distance
// at most r, ordered by ascending distance. Rows may have different lengths
// and may be empty. Radius <= 0 uses the configured radius. A nil queries
// matrix behaves like Kneighbors with self-exclusion.
func (e *Engine) RadiusNeighbors(queries *mat.Dense, r float64) (dist [][]float64, ind [][]int, err error) {
	if e.fitX == nil {
		return nil, nil, ErrNotFitted
	}
	if r <= 0 {
		r = e.radius
	}
	selfQuery := queries == nil
	if selfQuery {
		queries = e.fitX
	}
	nq, _ := queries.Dims()
	dist = make([][]float64, nq)
	ind = make([][]int, nq)
	err = e.forEachQuery(nq, func(i int) error {
		exclude := -1
		if selfQuery {
			exclude = i
		}
		d, idx, err := e.radiusQuery(queries.RawRowView(i), r, exclude)
		if err != nil {
			return fmt.Errorf("query %d: %w", i, err)
		}
		dist[i], ind[i] = d, idx
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return dist, ind, nil
}

func (e *Engine) kQuery(vec []float64, k int, exclude int) ([]float64, []int, error) {
	if len(vec) != e.dim() {
		return nil, nil, ErrQueryDim
	}
	if e.resolved == KDTree {
		want := k
		if exclude >= 0 {
			want++
		}
		if n := e.tree.Len(); want > n {
			want = n
		}
		points, distances, err := e.tree.KNN(vec, want)
		if err != nil {
			return nil, nil, err
		}
		dist := make([]float64, 0, k)
		ind := make([]int, 0, k)
		for i, p := range points {
			if p.ID == exclude {
				continue
			}
			if len(ind) == k {
				break
			}
			dist = append(dist, distances[i])
			ind = append(ind, p.ID)
		}
		return dist, ind, nil
	}
	return e.bruteK(vec, k, exclude)
}

func (e *Engine) bruteK(vec []float64, k int, exclude int) ([]float64, []int, error) {
	nFit, _ := e.fitX.Dims()
	queue := pqueue.New(pqueue.WithCap(k))
	for j := 0; j < nFit; j++ {
		if j == exclude {
			continue
		}
		d, err := e.distFn(vec, e.fitX.RawRowView(j))
		if err != nil {
			return nil, nil, err
		}
		queue.Push(j, d)
	}
	values, dist := queue.PopAll()
	ind := make([]int, len(values))
	for i, v := range values {
		ind[i] = v.(int)
	}
	return dist, ind, nil
}

func (e *Engine) radiusQuery(vec []float64, r float64, exclude int) ([]float64, []int, error) {
	if len(vec) != e.dim() {
		return nil, nil, ErrQueryDim
	}
	var dist []float64
	var ind []int
	if e.resolved == KDTree {
		points, distances, err := e.tree.Radius(vec, r)
		if err != nil {
			return nil, nil, err
		}
		for i, p := range points {
			if p.ID == exclude {
				continue
			}
			dist = append(dist, distances[i])
			ind = append(ind, p.ID)
		}
	} else {
		nFit, _ := e.fitX.Dims()
		for j := 0; j < nFit; j++ {
			if j == exclude {
				continue
			}
			d, err := e.distFn(vec, e.fitX.RawRowView(j))
			if err != nil {
				return nil, nil, err
			}
			if d <= r {
				dist = append(dist, d)
				ind = append(ind, j)
			}
		}
	}
	sortByDistance(dist, ind)
	return dist, ind, nil
}

func (e *Engine) dim() int {
	_, cols := e.fitX.Dims()
	return cols
}

// forEachQuery runs fn for every query index, fanning out to an errgroup
// when more than one worker is allowed.
func (e *Engine) forEachQuery(n int, fn func(i int) error) error {
	workers := e.nJobs
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || n < 2 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}

func sortByDistance(dist []float64, ind []int) {
	order := make([]int, len(dist))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if dist[order[a]] != dist[order[b]] {
			return dist[order[a]] < dist[order[b]]
		}
		return ind[order[a]] < ind[order[b]]
	})
	sortedDist := make([]float64, len(dist))
	sortedInd := make([]int, len(ind))
	for i, o := range order {
		sortedDist[i], sortedInd[i] = dist[o], ind[o]
	}
	copy(dist, sortedDist)
	copy(ind, sortedInd)
}
