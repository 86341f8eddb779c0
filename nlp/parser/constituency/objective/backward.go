package objective

import (
	"sort"

	"srparse/alg/arena"
)

// Entry is the error signal of one parser state: Loss is the derivative of
// the objective with respect to the state's score, Delta the derivative with
// respect to its hidden vector, filled in by the gradient pass.
type Entry struct {
	Loss  float64
	Delta []float64
}

// Backward maps the states of one run to their error signal. Handles of
// different runs must not be mixed in one Backward.
type Backward struct {
	Entries map[arena.Handle]*Entry
	steps   map[int]struct{}
}

func NewBackward() *Backward {
	return &Backward{
		Entries: make(map[arena.Handle]*Entry),
		steps:   make(map[int]struct{}),
	}
}

// Accumulate adds loss to the entry of h.
func (b *Backward) Accumulate(h arena.Handle, loss float64) {
	b.Get(h).Loss += loss
}

// Get returns the entry of h, creating an empty one.
func (b *Backward) Get(h arena.Handle) *Entry {
	e, exists := b.Entries[h]
	if !exists {
		e = &Entry{}
		b.Entries[h] = e
	}
	return e
}

// Visit records that states of step received an error signal.
func (b *Backward) Visit(step int) {
	b.steps[step] = struct{}{}
}

// Steps returns the visited steps, last first.
func (b *Backward) Steps() []int {
	steps := make([]int, 0, len(b.steps))
	for s := range b.steps {
		steps = append(steps, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(steps)))
	return steps
}

// Merge adds the entries and steps of other, which must address the same run.
func (b *Backward) Merge(other *Backward) {
	for h, e := range other.Entries {
		mine := b.Get(h)
		mine.Loss += e.Loss
		if e.Delta != nil {
			if mine.Delta == nil {
				mine.Delta = make([]float64, len(e.Delta))
			}
			for i, d := range e.Delta {
				mine.Delta[i] += d
			}
		}
	}
	for s := range other.steps {
		b.steps[s] = struct{}{}
	}
}

func (b *Backward) Len() int { return len(b.Entries) }

// Total is the sum of the score derivatives.
func (b *Backward) Total() float64 {
	var total float64
	for _, e := range b.Entries {
		total += e.Loss
	}
	return total
}

func (b *Backward) Clear() {
	clear(b.Entries)
	clear(b.steps)
}
