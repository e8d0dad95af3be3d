package neighbors

import (
	"gonum.org/v1/gonum/mat"

	"github.com/go-fda/fda/internal/fdata"
	"github.com/go-fda/fda/internal/neighbors/index"
)

// NearestNeighbors is the unsupervised neighbor searcher: it fits functional
// data (or a pairwise distance matrix) and answers k-nearest and
// fixed-radius queries.
type NearestNeighbors struct {
	core
}

func NewNearestNeighbors(opts ...Option) *NearestNeighbors {
	return &NearestNeighbors{core: newCore(opts...)}
}

// Fit indexes the training samples.
func (n *NearestNeighbors) Fit(x *fdata.FDataGrid) error { return n.fit(x) }

// FitDistances indexes a square pairwise training distance matrix for the
// precomputed-distance mode.
func (n *NearestNeighbors) FitDistances(dist *mat.Dense) error { return n.fitDistances(dist) }

// Kneighbors returns the k nearest training samples per query, distances
// ascending. A nil x queries the training samples themselves, each excluded
// from its own neighborhood; pass the training data explicitly to include
// every sample in its own list at distance zero. k <= 0 uses the configured
// neighbor count.
func (n *NearestNeighbors) Kneighbors(x *fdata.FDataGrid, k int) ([][]float64, [][]int, error) {
	return n.kneighbors(x, k)
}

// KneighborsDistances answers k-nearest queries from a query-to-training
// distance matrix in the precomputed-distance mode.
func (n *NearestNeighbors) KneighborsDistances(dist *mat.Dense, k int) ([][]float64, [][]int, error) {
	if !n.fitted() {
		return nil, nil, ErrNotFitted
	}
	if n.mode != fitModePrecomputed {
		return nil, nil, ErrPrecomputedQuery
	}
	return n.pre.Kneighbors(dist, k)
}

// RadiusNeighbors returns, per query, every training sample within r,
// boundary included, with per-query variable length results. r <= 0 uses
// the configured radius.
func (n *NearestNeighbors) RadiusNeighbors(x *fdata.FDataGrid, r float64) ([][]float64, [][]int, error) {
	return n.radiusNeighbors(x, r)
}

// RadiusNeighborsDistances answers fixed-radius queries from a
// query-to-training distance matrix in the precomputed-distance mode.
func (n *NearestNeighbors) RadiusNeighborsDistances(dist *mat.Dense, r float64) ([][]float64, [][]int, error) {
	if !n.fitted() {
		return nil, nil, ErrNotFitted
	}
	if n.mode != fitModePrecomputed {
		return nil, nil, ErrPrecomputedQuery
	}
	return n.pre.RadiusNeighbors(dist, r)
}

// KneighborsGraph returns the k-neighbor relation as a sparse matrix of
// shape nQueries x nFitted.
func (n *NearestNeighbors) KneighborsGraph(x *fdata.FDataGrid, k int, mode index.GraphMode) (*index.CSR, error) {
	if !n.fitted() {
		return nil, ErrNotFitted
	}
	switch n.mode {
	case fitModePrecomputed, fitModePrecompute:
		return nil, ErrPrecomputedQuery
	}
	queries, err := n.flatten(x)
	if err != nil {
		return nil, err
	}
	return n.engine.KneighborsGraph(queries, k, mode)
}

// RadiusNeighborsGraph returns the fixed-radius relation as a sparse matrix
// of shape nQueries x nFitted.
func (n *NearestNeighbors) RadiusNeighborsGraph(x *fdata.FDataGrid, r float64, mode index.GraphMode) (*index.CSR, error) {
	if !n.fitted() {
		return nil, ErrNotFitted
	}
	switch n.mode {
	case fitModePrecomputed, fitModePrecompute:
		return nil, ErrPrecomputedQuery
	}
	queries, err := n.flatten(x)
	if err != nil {
		return nil, err
	}
	return n.engine.RadiusNeighborsGraph(queries, r, mode)
}
