package search

import "fmt"

// Agenda holds one bucket per search step. The number of steps is fixed when
// the agenda is created, so two searches over equally sized problems always
// produce agendas of equal length.
type Agenda[T any] struct {
	Buckets []*Bucket[T]
	seq     int
}

// NewAgenda creates steps buckets: every bucket is bounded by beam except the
// last one, which is bounded by kbest.
func NewAgenda[T any](steps, beam, kbest int) *Agenda[T] {
	if steps <= 0 {
		panic(fmt.Sprintf("agenda needs at least one step, got %d", steps))
	}
	a := &Agenda[T]{Buckets: make([]*Bucket[T], steps)}
	for i := range a.Buckets {
		a.Buckets[i] = NewBucket[T](beam)
	}
	a.Buckets[steps-1].Size = kbest
	return a
}

// Len is the number of steps, including empty ones.
func (a *Agenda[T]) Len() int { return len(a.Buckets) }

func (a *Agenda[T]) At(step int) *Bucket[T] { return a.Buckets[step] }

// Insert pushes v into the bucket of step with the next generation number.
func (a *Agenda[T]) Insert(step int, v T, score float64) bool {
	kept := a.Buckets[step].Push(v, score, a.seq)
	a.seq++
	return kept
}

// Generated is the number of entries ever inserted.
func (a *Agenda[T]) Generated() int { return a.seq }

// Last returns the highest step with a non-empty bucket, or -1.
func (a *Agenda[T]) Last() int {
	for i := len(a.Buckets) - 1; i >= 0; i-- {
		if a.Buckets[i].Len() > 0 {
			return i
		}
	}
	return -1
}

func (a *Agenda[T]) Clear() {
	for _, b := range a.Buckets {
		b.Clear()
	}
	a.seq = 0
}
