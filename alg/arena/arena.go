// Package arena provides chunked, bulk-freed pools of fixed-size records.
//
// Records are addressed by opaque handles rather than pointers. Chunks are
// never reallocated, so a *T obtained from Get stays valid until Clear.
// Pools are not safe for concurrent use; give every goroutine its own.
package arena

import "fmt"

// ChunkSize is the number of records carved out of one backing chunk.
const ChunkSize = 4096

// Handle addresses one record in a Pool or Vectors arena.
type Handle int32

// Nil is the zero handle: it never addresses a record.
const Nil Handle = -1

func (h Handle) chunk() int  { return int(h) / ChunkSize }
func (h Handle) offset() int { return int(h) % ChunkSize }

// Valid reports whether h may address a record.
func (h Handle) Valid() bool { return h >= 0 }

func (h Handle) String() string {
	if h < 0 {
		return "nil"
	}
	return fmt.Sprintf("#%d", int(h))
}

type Pool[T any] struct {
	chunks [][]T
	cursor int
	free   []Handle
	freed  []bool
	live   int
}

func NewPool[T any]() *Pool[T] {
	return &Pool[T]{}
}

// Allocate returns a zeroed record, reusing a freed slot when one exists.
func (p *Pool[T]) Allocate() Handle {
	var zero T
	if n := len(p.free); n > 0 {
		h := p.free[n-1]
		p.free = p.free[:n-1]
		p.freed[h] = false
		p.chunks[h.chunk()][h.offset()] = zero
		p.live++
		return h
	}
	if p.cursor == len(p.chunks)*ChunkSize {
		p.chunks = append(p.chunks, make([]T, ChunkSize))
	}
	h := Handle(p.cursor)
	p.cursor++
	p.freed = append(p.freed, false)
	p.live++
	return h
}

// Deallocate returns the slot of h to the free list. The record must not be
// referenced afterwards; freeing it twice panics.
func (p *Pool[T]) Deallocate(h Handle) {
	if !p.owns(h) {
		panic(fmt.Sprintf("deallocate of foreign handle %v", h))
	}
	if p.freed[h] {
		panic(fmt.Sprintf("double deallocate of handle %v", h))
	}
	p.freed[h] = true
	p.free = append(p.free, h)
	p.live--
}

// Clone allocates a new record holding a shallow copy of h.
func (p *Pool[T]) Clone(h Handle) Handle {
	src := *p.Get(h)
	dst := p.Allocate()
	*p.Get(dst) = src
	return dst
}

func (p *Pool[T]) Get(h Handle) *T {
	if !p.owns(h) {
		panic(fmt.Sprintf("get of foreign handle %v", h))
	}
	return &p.chunks[h.chunk()][h.offset()]
}

// Clear releases every chunk. Handles issued before Clear are invalid.
func (p *Pool[T]) Clear() {
	p.chunks = nil
	p.cursor = 0
	p.free = p.free[:0]
	p.freed = p.freed[:0]
	p.live = 0
}

// Len is the number of live records.
func (p *Pool[T]) Len() int { return p.live }

// Cap is the number of records the allocated chunks can hold.
func (p *Pool[T]) Cap() int { return len(p.chunks) * ChunkSize }

func (p *Pool[T]) owns(h Handle) bool {
	return h >= 0 && int(h) < p.cursor
}
