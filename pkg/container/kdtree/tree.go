/*
 * Copyright 2020 Dennis Kuhnert
 * Copyright 2020 Ivanov Nikita
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package kdtree implements a k-d tree over indexed float vectors with
// distance-bounded nearest-neighbor and radius queries under a caller
// supplied distance function.
package kdtree

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-fda/fda/pkg/pqueue"
)

// Point is an indexed vector. ID is the position of the point in the fitted
// data set and travels with it through the tree.
type Point struct {
	Vec []float64
	ID  int
}

// DistanceFn measures the distance between two vectors of equal length.
type DistanceFn func(vec, vec1 []float64) (float64, error)

func New(distFn DistanceFn) *Tree {
	return &Tree{distFn: distFn}
}

type Tree struct {
	root   *node
	len    int
	distFn DistanceFn
}

type node struct {
	key   Point
	left  *node
	right *node
}

func (t *Tree) Len() int { return t.len }

// Build replaces the tree contents with a balanced tree over the points.
func (t *Tree) Build(points ...Point) {
	owned := make([]Point, len(points))
	copy(owned, points)
	t.len = len(owned)
	t.root = buildRecursive(owned, 0)
}

func buildRecursive(points []Point, dim int) *node {
	if len(points) == 0 {
		return nil
	}
	if len(points) == 1 {
		return &node{key: points[0]}
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Vec[dim] < points[j].Vec[dim]
	})
	mid := len(points) / 2
	nextDim := (dim + 1) % len(points[mid].Vec)
	return &node{
		key:   points[mid],
		left:  buildRecursive(points[:mid], nextDim),
		right: buildRecursive(points[mid+1:], nextDim),
	}
}

// KNN returns up to k points nearest to vec, ordered by ascending distance.
func (t *Tree) KNN(vec []float64, k int) ([]Point, []float64, error) {
	if t.root == nil || k <= 0 {
		return nil, nil, fmt.Errorf("empty tree or non-positive k")
	}
	queue := pqueue.New(pqueue.WithCap(k))
	if err := t.search(t.root, vec, 0, func(p Point, d float64) {
		queue.Push(p, d)
	}, func() float64 {
		if queue.Full() {
			return queue.Worst()
		}
		return math.MaxFloat64
	}); err != nil {
		return nil, nil, err
	}
	values, distances := queue.PopAll()
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = v.(Point)
	}
	return points, distances, nil
}

// Radius returns every point within the radius of vec, boundary included.
// The result order is not defined.
func (t *Tree) Radius(vec []float64, radius float64) ([]Point, []float64, error) {
	if t.root == nil {
		return nil, nil, nil
	}
	var points []Point
	var distances []float64
	err := t.search(t.root, vec, 0, func(p Point, d float64) {
		if d <= radius {
			points = append(points, p)
			distances = append(distances, d)
		}
	}, func() float64 { return radius })
	if err != nil {
		return nil, nil, err
	}
	return points, distances, nil
}

// search walks the tree depth first, visiting every node whose subtree may
// contain a point within the current bound. The bound callback returns the
// pruning distance; visit receives every candidate with its distance.
func (t *Tree) search(n *node, vec []float64, dim int, visit func(Point, float64), bound func() float64) error {
	if n == nil {
		return nil
	}
	d, err := t.distFn(vec, n.key.Vec)
	if err != nil {
		return fmt.Errorf("compute distance: %w", err)
	}
	visit(n.key, d)

	near, far := n.left, n.right
	if vec[dim] >= n.key.Vec[dim] {
		near, far = far, near
	}
	nextDim := (dim + 1) % len(vec)
	if err := t.search(near, vec, nextDim, visit, bound); err != nil {
		return err
	}
	// The far side can only contain closer points when the splitting plane
	// is within the pruning bound.
	if math.Abs(vec[dim]-n.key.Vec[dim]) <= bound() {
		if err := t.search(far, vec, nextDim, visit, bound); err != nil {
			return err
		}
	}
	return nil
}

// Points returns the stored points in tree order.
func (t *Tree) Points() []Point {
	var points []Point
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		walk(n.left)
		points = append(points, n.key)
		walk(n.right)
	}
	walk(t.root)
	return points
}
