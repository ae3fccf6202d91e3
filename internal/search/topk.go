package search

import (
	"container/heap"

	"github.com/deidaraiorek/vecsearch/internal/domain"
)

// MaxResults is the number of documents returned per query.
const MaxResults = 10

// scoreHeap is a min-heap ordered by score, then by document id.
type scoreHeap []domain.ScoredDoc

func (h scoreHeap) Len() int { return len(h) }

func (h scoreHeap) Less(i, j int) bool {
	return less(h[i], h[j])
}

func (h scoreHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoreHeap) Push(x any) {
	*h = append(*h, x.(domain.ScoredDoc))
}

func (h *scoreHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func less(a, b domain.ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.DocID < b.DocID
}

// TopK keeps the capacity best documents seen so far.
type TopK struct {
	items    scoreHeap
	capacity int
}

func NewTopK(capacity int) *TopK {
	items := make(scoreHeap, 0, capacity+1)
	heap.Init(&items)
	return &TopK{items: items, capacity: capacity}
}

// Offer adds doc, evicting the current minimum once the capacity is exceeded.
func (t *TopK) Offer(doc domain.ScoredDoc) {
	if t.capacity <= 0 {
		return
	}
	if len(t.items) == t.capacity && !less(t.items[0], doc) {
		return
	}
	heap.Push(&t.items, doc)
	if len(t.items) > t.capacity {
		heap.Pop(&t.items)
	}
}

func (t *TopK) Len() int { return len(t.items) }

// Drain empties the heap and returns its documents best first.
func (t *TopK) Drain() []domain.ScoredDoc {
	result := make([]domain.ScoredDoc, len(t.items))
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&t.items).(domain.ScoredDoc)
	}
	return result
}
