package index

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func euclidean(vec, vec1 []float64) (float64, error) {
	var sum float64
	for i := range vec {
		d := vec[i] - vec1[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

func fitted(t *testing.T, alg Algorithm) *Engine {
	t.Helper()
	x := mat.NewDense(5, 2, []float64{
		0, 0,
		1, 0,
		0, 1,
		4, 4,
		5, 5,
	})
	e := New(euclidean, WithAlgorithm(alg), WithNNeighbors(2))
	if err := e.Fit(x); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return e
}

func TestEngine_Kneighbors(t *testing.T) {
	t.Parallel()
	for _, alg := range []Algorithm{BruteForce, KDTree} {
		alg := alg
		t.Run(string(alg), func(t *testing.T) {
			t.Parallel()
			e := fitted(t, alg)
			queries := mat.NewDense(1, 2, []float64{0.1, 0.1})
			dist, ind, err := e.Kneighbors(queries, 3)
			if err != nil {
				t.Fatalf("Kneighbors: %v", err)
			}
			if len(ind[0]) != 3 {
				t.Fatalf("got %d neighbors, want 3", len(ind[0]))
			}
			if ind[0][0] != 0 {
				t.Errorf("nearest = %d, want 0", ind[0][0])
			}
			for i := 1; i < len(dist[0]); i++ {
				if dist[0][i] < dist[0][i-1] {
					t.Errorf("distances not ascending: %v", dist[0])
				}
			}
		})
	}
}

func TestEngine_KneighborsSelfExcluded(t *testing.T) {
	t.Parallel()
	e := fitted(t, BruteForce)
	_, ind, err := e.Kneighbors(nil, 2)
	if err != nil {
		t.Fatalf("Kneighbors: %v", err)
	}
	for i, row := range ind {
		for _, j := range row {
			if j == i {
				t.Errorf("sample %d returned itself as a neighbor", i)
			}
		}
	}
}

func TestEngine_RadiusNeighbors(t *testing.T) {
	t.Parallel()
	e := fitted(t, KDTree)
	queries := mat.NewDense(2, 2, []float64{
		0, 0,
		10, 10,
	})
	dist, ind, err := e.RadiusNeighbors(queries, 1)
	if err != nil {
		t.Fatalf("RadiusNeighbors: %v", err)
	}
	if len(ind[0]) != 3 {
		t.Errorf("query 0: got %d neighbors, want 3 (radius inclusive)", len(ind[0]))
	}
	if len(ind[1]) != 0 {
		t.Errorf("query 1: got %d neighbors, want 0", len(ind[1]))
	}
	if dist[0][0] != 0 {
		t.Errorf("query 0 nearest distance = %v, want 0", dist[0][0])
	}
}

func TestEngine_NotFitted(t *testing.T) {
	t.Parallel()
	e := New(euclidean)
	if _, _, err := e.Kneighbors(nil, 1); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("got %v, want ErrNotFitted", err)
	}
}

func TestEngine_KTooLarge(t *testing.T) {
	t.Parallel()
	e := fitted(t, BruteForce)
	if _, _, err := e.Kneighbors(nil, 10); err == nil {
		t.Fatal("expected an error for k exceeding the fitted samples")
	}
}

func TestEngine_KneighborsGraph(t *testing.T) {
	t.Parallel()
	e := fitted(t, BruteForce)
	graph, err := e.KneighborsGraph(nil, 2, Connectivity)
	if err != nil {
		t.Fatalf("KneighborsGraph: %v", err)
	}
	if graph.Rows != 5 || graph.Cols != 5 {
		t.Fatalf("graph shape = %dx%d, want 5x5", graph.Rows, graph.Cols)
	}
	if graph.NNZ() != 10 {
		t.Errorf("nnz = %d, want 10", graph.NNZ())
	}
	for _, v := range graph.Data {
		if v != 1 {
			t.Errorf("connectivity data = %v, want all ones", graph.Data)
			break
		}
	}
}

func TestPrecomputed_Kneighbors(t *testing.T) {
	t.Parallel()
	fitDist := mat.NewDense(3, 3, []float64{
		0, 1, 2,
		1, 0, 3,
		2, 3, 0,
	})
	p := NewPrecomputed(WithNNeighbors(2))
	if err := p.Fit(fitDist); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	queries := mat.NewDense(1, 3, []float64{5, 0.5, 4})
	dist, ind, err := p.Kneighbors(queries, 2)
	if err != nil {
		t.Fatalf("Kneighbors: %v", err)
	}
	if ind[0][0] != 1 || ind[0][1] != 2 {
		t.Errorf("ind = %v, want [1 2]", ind[0])
	}
	if dist[0][0] != 0.5 || dist[0][1] != 4 {
		t.Errorf("dist = %v, want [0.5 4]", dist[0])
	}
}

func TestPrecomputed_RadiusNeighbors(t *testing.T) {
	t.Parallel()
	fitDist := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	p := NewPrecomputed()
	if err := p.Fit(fitDist); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	queries := mat.NewDense(1, 2, []float64{2, 0.5})
	_, ind, err := p.RadiusNeighbors(queries, 0.5)
	if err != nil {
		t.Fatalf("RadiusNeighbors: %v", err)
	}
	if len(ind[0]) != 1 || ind[0][0] != 1 {
		t.Errorf("ind = %v, want [1] (boundary inclusive)", ind[0])
	}
}
