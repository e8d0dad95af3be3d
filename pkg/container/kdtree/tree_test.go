package kdtree

import (
	"math"
	"testing"
)

func euclidean(vec, vec1 []float64) (float64, error) {
	var sum float64
	for i := range vec {
		d := vec[i] - vec1[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

func TestTree_KNN(t *testing.T) {
	t.Parallel()
	points := []Point{
		{Vec: []float64{0, 0}, ID: 0},
		{Vec: []float64{1, 0}, ID: 1},
		{Vec: []float64{0, 1}, ID: 2},
		{Vec: []float64{5, 5}, ID: 3},
		{Vec: []float64{-3, 2}, ID: 4},
		{Vec: []float64{2, 2}, ID: 5},
	}
	tree := New(euclidean)
	tree.Build(points...)
	if tree.Len() != len(points) {
		t.Fatalf("Len() = %d, want %d", tree.Len(), len(points))
	}

	got, distances, err := tree.KNN([]float64{0.1, 0.1}, 3)
	if err != nil {
		t.Fatalf("KNN: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("KNN returned %d points, want 3", len(got))
	}
	wantIDs := []int{0, 1, 2}
	for i, p := range got {
		if p.ID != wantIDs[i] {
			t.Errorf("neighbor %d: got ID %d, want %d", i, p.ID, wantIDs[i])
		}
	}
	for i := 1; i < len(distances); i++ {
		if distances[i] < distances[i-1] {
			t.Errorf("distances not ascending: %v", distances)
		}
	}
}

func TestTree_KNNMoreThanLen(t *testing.T) {
	t.Parallel()
	tree := New(euclidean)
	tree.Build(Point{Vec: []float64{1}, ID: 0}, Point{Vec: []float64{2}, ID: 1})
	got, _, err := tree.KNN([]float64{0}, 5)
	if err != nil {
		t.Fatalf("KNN: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("KNN returned %d points, want 2", len(got))
	}
}

func TestTree_Radius(t *testing.T) {
	t.Parallel()
	tree := New(euclidean)
	tree.Build(
		Point{Vec: []float64{0, 0}, ID: 0},
		Point{Vec: []float64{3, 0}, ID: 1},
		Point{Vec: []float64{0, 4}, ID: 2},
		Point{Vec: []float64{10, 10}, ID: 3},
	)
	got, distances, err := tree.Radius([]float64{0, 0}, 4)
	if err != nil {
		t.Fatalf("Radius: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Radius returned %d points, want 3 (boundary inclusive)", len(got))
	}
	seen := map[int]float64{}
	for i, p := range got {
		seen[p.ID] = distances[i]
	}
	if d, ok := seen[2]; !ok || d != 4 {
		t.Errorf("point at exactly the radius missing or wrong distance: %v", seen)
	}
	if _, ok := seen[3]; ok {
		t.Errorf("point outside the radius returned")
	}
}

func TestTree_EmptyKNN(t *testing.T) {
	t.Parallel()
	tree := New(euclidean)
	if _, _, err := tree.KNN([]float64{0}, 1); err == nil {
		t.Fatal("expected an error for an empty tree")
	}
}
