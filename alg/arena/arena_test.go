package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	A, B int
	Ref  Handle
}

func TestPoolAllocateStable(t *testing.T) {
	p := NewPool[record]()
	first := p.Allocate()
	ptr := p.Get(first)
	ptr.A = 7
	// force several new chunks; the first record must not move
	for i := 0; i < 3*ChunkSize; i++ {
		p.Allocate()
	}
	assert.Same(t, ptr, p.Get(first))
	assert.Equal(t, 7, p.Get(first).A)
	assert.Equal(t, 3*ChunkSize+1, p.Len())
	assert.Equal(t, 4*ChunkSize, p.Cap())
}

func TestPoolFreeListReuse(t *testing.T) {
	p := NewPool[record]()
	a := p.Allocate()
	b := p.Allocate()
	p.Get(b).A = 42
	p.Deallocate(b)
	require.Equal(t, 1, p.Len())

	c := p.Allocate()
	assert.Equal(t, b, c, "freed slot should be reused first")
	assert.Zero(t, p.Get(c).A, "reused slot must be zeroed")
	assert.NotEqual(t, a, c)
}

func TestPoolClone(t *testing.T) {
	p := NewPool[record]()
	a := p.Allocate()
	*p.Get(a) = record{A: 1, B: 2, Ref: Nil}
	b := p.Clone(a)
	require.NotEqual(t, a, b)
	assert.Equal(t, *p.Get(a), *p.Get(b))
	p.Get(b).A = 9
	assert.Equal(t, 1, p.Get(a).A)
}

func TestPoolClearNoStaleData(t *testing.T) {
	p := NewPool[record]()
	var handles []Handle
	for i := 0; i < ChunkSize+10; i++ {
		h := p.Allocate()
		*p.Get(h) = record{A: -1, B: -1, Ref: h}
		handles = append(handles, h)
	}
	p.Clear()
	assert.Zero(t, p.Len())
	assert.Zero(t, p.Cap())
	for range handles {
		h := p.Allocate()
		assert.Equal(t, record{}, *p.Get(h))
	}
}

func TestPoolForeignHandlePanics(t *testing.T) {
	p := NewPool[record]()
	assert.Panics(t, func() { p.Get(Nil) })
	assert.Panics(t, func() { p.Get(Handle(3)) })
}

func TestPoolDoubleDeallocatePanics(t *testing.T) {
	p := NewPool[record]()
	h := p.Allocate()
	p.Deallocate(h)
	assert.Panics(t, func() { p.Deallocate(h) })
	assert.Equal(t, 0, p.Len())

	again := p.Allocate()
	require.Equal(t, h, again)
	other := p.Allocate()
	assert.NotEqual(t, again, other)
	assert.NotPanics(t, func() { p.Deallocate(again) })

	p.Clear()
	h = p.Allocate()
	p.Deallocate(h)
	assert.Panics(t, func() { p.Deallocate(h) })
}

func TestVectors(t *testing.T) {
	v := NewVectors(3)
	a := v.Allocate()
	require.Len(t, a, 3)
	a[0], a[1], a[2] = 1, 2, 3

	b := v.Clone(a)
	assert.Equal(t, []float64{1, 2, 3}, b)
	b[0] = 5
	assert.Equal(t, 1.0, a[0])

	// appending to a vector must not spill into its neighbour
	_ = append(a, 99)
	assert.Equal(t, 5.0, b[0])

	v.Deallocate(b)
	c := v.Allocate()
	assert.Equal(t, []float64{0, 0, 0}, c)
	assert.Equal(t, 2, v.Len())
}

func TestVectorsClearNoStaleData(t *testing.T) {
	v := NewVectors(4)
	for i := 0; i < 100; i++ {
		vec := v.Allocate()
		for j := range vec {
			vec[j] = 0xdead
		}
	}
	v.Clear()
	for i := 0; i < 100; i++ {
		for _, x := range v.Allocate() {
			require.Zero(t, x)
		}
	}
}

func TestVectorsZeroWidth(t *testing.T) {
	v := NewVectors(0)
	vec := v.Allocate()
	assert.Empty(t, vec)
	assert.NotPanics(t, func() { v.Deallocate(vec) })
	assert.Zero(t, v.Len())
}

func TestVectorsAssign(t *testing.T) {
	v := NewVectors(2)
	v.Allocate()
	v.Assign(5)
	assert.Equal(t, 5, v.Width())
	assert.Zero(t, v.Len())
	assert.Len(t, v.Allocate(), 5)
}

func TestVectorsForeignPanics(t *testing.T) {
	v := NewVectors(3)
	assert.Panics(t, func() { v.Deallocate(make([]float64, 3, 8)) })
	assert.Panics(t, func() { v.Deallocate(make([]float64, 2)) })
}
