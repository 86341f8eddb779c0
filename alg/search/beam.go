package search

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"
)

// Scored is one agenda entry. Seq is the generation number assigned when the
// entry was pushed; it breaks score ties.
type Scored[T any] struct {
	Value T
	Score float64
	Seq   int
}

// Better orders entries best first: higher score, then earlier generation.
func Better[T any](a, b Scored[T]) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Seq < b.Seq
}

// Bucket keeps at most Size entries, discarding the worst entry (lowest
// score, latest generation among equal scores) when full. Internally it is a
// heap with the worst entry at the root, so the kept set is exactly the
// Size best entries under Better regardless of insertion order.
type Bucket[T any] struct {
	Size    int
	entries worstFirst[T]
	sorted  bool
}

func NewBucket[T any](size int) *Bucket[T] {
	if size <= 0 {
		panic(fmt.Sprintf("bucket size must be positive, got %d", size))
	}
	return &Bucket[T]{Size: size, entries: make(worstFirst[T], 0, size)}
}

// Push inserts v unless the bucket is full and v is worse than every kept
// entry. It reports whether v was kept.
func (b *Bucket[T]) Push(v T, score float64, seq int) bool {
	entry := Scored[T]{v, score, seq}
	if b.sorted {
		heap.Init(&b.entries)
		b.sorted = false
	}
	if len(b.entries) < b.Size {
		heap.Push(&b.entries, entry)
		return true
	}
	if !Better(entry, b.entries[0]) {
		return false
	}
	b.entries[0] = entry
	heap.Fix(&b.entries, 0)
	return true
}

// Prune truncates the bucket to its n best entries and lowers Size to n.
func (b *Bucket[T]) Prune(n int) {
	if n <= 0 {
		panic(fmt.Sprintf("prune size must be positive, got %d", n))
	}
	b.Size = n
	if len(b.entries) <= n {
		return
	}
	b.sort()
	b.entries = b.entries[:n]
}

// Sorted returns the entries best first. The slice aliases the bucket and is
// valid until the next Push or Prune.
func (b *Bucket[T]) Sorted() []Scored[T] {
	b.sort()
	return b.entries
}

// Best returns the top entry.
func (b *Bucket[T]) Best() (Scored[T], bool) {
	if len(b.entries) == 0 {
		return Scored[T]{}, false
	}
	return b.Sorted()[0], true
}

// Worst returns the lowest ranked kept entry.
func (b *Bucket[T]) Worst() (Scored[T], bool) {
	if len(b.entries) == 0 {
		return Scored[T]{}, false
	}
	sorted := b.Sorted()
	return sorted[len(sorted)-1], true
}

func (b *Bucket[T]) Len() int { return len(b.entries) }

func (b *Bucket[T]) Clear() {
	b.entries = b.entries[:0]
	b.sorted = false
}

func (b *Bucket[T]) sort() {
	if b.sorted {
		return
	}
	sort.Slice(b.entries, func(i, j int) bool { return Better(b.entries[i], b.entries[j]) })
	b.sorted = true
}

func (b *Bucket[T]) String() string {
	sorted := b.Sorted()
	strs := make([]string, len(sorted))
	for i, e := range sorted {
		strs[i] = fmt.Sprintf("%v:%v", e.Value, e.Score)
	}
	return strings.Join(strs, " , ")
}

// worstFirst is a heap with the worst entry at the root.
type worstFirst[T any] []Scored[T]

var _ heap.Interface = &worstFirst[int]{}

func (w worstFirst[T]) Len() int           { return len(w) }
func (w worstFirst[T]) Less(i, j int) bool { return Better(w[j], w[i]) }
func (w worstFirst[T]) Swap(i, j int)      { w[i], w[j] = w[j], w[i] }

func (w *worstFirst[T]) Push(x any) {
	*w = append(*w, x.(Scored[T]))
}

func (w *worstFirst[T]) Pop() any {
	old := *w
	n := len(old)
	e := old[n-1]
	*w = old[:n-1]
	return e
}
