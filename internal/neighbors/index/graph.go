package index

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// GraphMode selects what the graph stores for each edge.
type GraphMode string

const (
	// Connectivity stores 1 for every neighbor edge.
	Connectivity GraphMode = "connectivity"
	// Distance stores the edge distance.
	Distance GraphMode = "distance"
)

// CSR is a sparse matrix in compressed sparse row form. Row i owns the
// entries Indices[Indptr[i]:Indptr[i+1]] with values at the same positions
// in Data.
type CSR struct {
	Indptr  []int
	Indices []int
	Data    []float64
	Rows    int
	Cols    int
}

// NNZ returns the number of stored entries.
func (c *CSR) NNZ() int { return len(c.Indices) }

// Row returns the column indices and values of row i.
func (c *CSR) Row(i int) ([]int, []float64) {
	lo, hi := c.Indptr[i], c.Indptr[i+1]
	return c.Indices[lo:hi], c.Data[lo:hi]
}

// KneighborsGraph returns the k-neighbor relation as a sparse matrix of
// shape nQueries x nFitted. A nil queries matrix builds the graph of the
// fitted samples against themselves, diagonal excluded.
func (e *Engine) KneighborsGraph(queries *mat.Dense, k int, mode GraphMode) (*CSR, error) {
	dist, ind, err := e.Kneighbors(queries, k)
	if err != nil {
		return nil, err
	}
	return e.assemble(dist, ind, mode)
}

// RadiusNeighborsGraph returns the fixed-radius relation as a sparse matrix
// of shape nQueries x nFitted, rows of varying density.
func (e *Engine) RadiusNeighborsGraph(queries *mat.Dense, r float64, mode GraphMode) (*CSR, error) {
	dist, ind, err := e.RadiusNeighbors(queries, r)
	if err != nil {
		return nil, err
	}
	return e.assemble(dist, ind, mode)
}

func (e *Engine) assemble(dist [][]float64, ind [][]int, mode GraphMode) (*CSR, error) {
	if mode != Connectivity && mode != Distance {
		return nil, fmt.Errorf("index: unknown graph mode %q", mode)
	}
	nFit, _ := e.fitX.Dims()
	graph := &CSR{
		Indptr: make([]int, len(ind)+1),
		Rows:   len(ind),
		Cols:   nFit,
	}
	for i, row := range ind {
		graph.Indptr[i+1] = graph.Indptr[i] + len(row)
		graph.Indices = append(graph.Indices, row...)
		if mode == Distance {
			graph.Data = append(graph.Data, dist[i]...)
		} else {
			for range row {
				graph.Data = append(graph.Data, 1)
			}
		}
	}
	return graph, nil
}
