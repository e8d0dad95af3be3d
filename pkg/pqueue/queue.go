// Package pqueue provides a bounded priority queue keeping the items with the
// smallest priorities seen so far.
package pqueue

import (
	"container/heap"
	"sort"
)

type Option func(*Queue)

// WithCap bounds the queue to the n smallest items.
func WithCap(n int) Option {
	return func(q *Queue) {
		q.cap = n
	}
}

type item struct {
	value interface{}
	prior float64
}

// maxHeap orders items by descending priority so the worst retained item sits
// on top and is evicted first.
type maxHeap []item

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].prior > h[j].prior }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func New(opts ...Option) *Queue {
	q := &Queue{cap: -1}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

type Queue struct {
	cap   int
	items maxHeap
}

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) Cap() int { return q.cap }

// Full reports whether the queue holds its maximum number of items.
func (q *Queue) Full() bool {
	return q.cap >= 0 && len(q.items) >= q.cap
}

// Worst returns the largest retained priority. Meaningless on an empty queue.
func (q *Queue) Worst() float64 {
	if len(q.items) == 0 {
		return 0
	}
	return q.items[0].prior
}

// Push inserts a value, evicting the worst item when the bound is exceeded.
func (q *Queue) Push(value interface{}, priority float64) {
	if q.Full() {
		if priority >= q.items[0].prior {
			return
		}
		q.items[0] = item{value: value, prior: priority}
		heap.Fix(&q.items, 0)
		return
	}
	heap.Push(&q.items, item{value: value, prior: priority})
}

// PopAll empties the queue, returning values and priorities ordered by
// ascending priority.
func (q *Queue) PopAll() ([]interface{}, []float64) {
	sorted := make([]item, len(q.items))
	copy(sorted, q.items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].prior < sorted[j].prior })
	values := make([]interface{}, len(sorted))
	priors := make([]float64, len(sorted))
	for i, it := range sorted {
		values[i] = it.value
		priors[i] = it.prior
	}
	q.items = q.items[:0]
	return values, priors
}
