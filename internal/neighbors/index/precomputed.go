package index

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Precomputed answers neighbor queries from distance matrices instead of
// vectors: Fit takes an nFit x nFit pairwise distance matrix and every query
// row holds the distances from one query sample to the fitted samples.
type Precomputed struct {
	nNeighbors int
	radius     float64
	nFit       int
}

func NewPrecomputed(opts ...Option) *Precomputed {
	e := &Engine{nNeighbors: 5, radius: 1.0, nJobs: 1, leafSize: 30}
	for _, opt := range opts {
		opt(e)
	}
	return &Precomputed{nNeighbors: e.nNeighbors, radius: e.radius}
}

func (p *Precomputed) NNeighbors() int { return p.nNeighbors }

func (p *Precomputed) Radius() float64 { return p.radius }

func (p *Precomputed) NFitted() int { return p.nFit }

// Fit records the fitted sample count from a square distance matrix.
func (p *Precomputed) Fit(dist *mat.Dense) error {
	rows, cols := dist.Dims()
	if rows != cols {
		return fmt.Errorf("index: precomputed fit needs a square distance matrix, got %dx%d", rows, cols)
	}
	if rows == 0 {
		return fmt.Errorf("index: precomputed fit on empty matrix")
	}
	p.nFit = rows
	return nil
}

// FitN records the fitted sample count directly, for callers that compute
// query distances on demand and never hold a training matrix.
func (p *Precomputed) FitN(n int) error {
	if n <= 0 {
		return fmt.Errorf("index: precomputed fit on empty training set")
	}
	p.nFit = n
	return nil
}

// Kneighbors selects the k smallest entries of every row of dist.
func (p *Precomputed) Kneighbors(dist *mat.Dense, k int) ([][]float64, [][]int, error) {
	if p.nFit == 0 {
		return nil, nil, ErrNotFitted
	}
	if k <= 0 {
		k = p.nNeighbors
	}
	if k > p.nFit {
		return nil, nil, fmt.Errorf("index: expected k <= %d fitted samples, got k=%d", p.nFit, k)
	}
	rows, cols := dist.Dims()
	if cols != p.nFit {
		return nil, nil, ErrQueryDim
	}
	outDist := make([][]float64, rows)
	outInd := make([][]int, rows)
	for i := 0; i < rows; i++ {
		row := dist.RawRowView(i)
		d := make([]float64, p.nFit)
		ind := make([]int, p.nFit)
		copy(d, row)
		for j := range ind {
			ind[j] = j
		}
		sortByDistance(d, ind)
		outDist[i], outInd[i] = d[:k], ind[:k]
	}
	return outDist, outInd, nil
}

// RadiusNeighbors selects, per row of dist, every entry at most r.
func (p *Precomputed) RadiusNeighbors(dist *mat.Dense, r float64) ([][]float64, [][]int, error) {
	if p.nFit == 0 {
		return nil, nil, ErrNotFitted
	}
	if r <= 0 {
		r = p.radius
	}
	rows, cols := dist.Dims()
	if cols != p.nFit {
		return nil, nil, ErrQueryDim
	}
	outDist := make([][]float64, rows)
	outInd := make([][]int, rows)
	for i := 0; i < rows; i++ {
		row := dist.RawRowView(i)
		var d []float64
		var ind []int
		for j, v := range row {
			if v <= r {
				d = append(d, v)
				ind = append(ind, j)
			}
		}
		sortByDistance(d, ind)
		outDist[i], outInd[i] = d, ind
	}
	return outDist, outInd, nil
}
