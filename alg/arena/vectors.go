package arena

import "fmt"

// Vectors is an arena of fixed-width float64 vectors. The width is fixed at
// construction and only changed by Assign, which discards every vector.
type Vectors struct {
	width  int
	chunks [][]float64
	cursor int
	free   [][]float64
}

func NewVectors(width int) *Vectors {
	if width < 0 {
		panic("negative vector width")
	}
	return &Vectors{width: width}
}

func (v *Vectors) Width() int { return v.width }

// Allocate returns a zeroed vector of Width() elements backed by chunk
// storage. Zero-width arenas return an empty slice and keep no state.
func (v *Vectors) Allocate() []float64 {
	if v.width == 0 {
		return []float64{}
	}
	if n := len(v.free); n > 0 {
		vec := v.free[n-1]
		v.free = v.free[:n-1]
		clear(vec)
		return vec
	}
	if v.cursor == len(v.chunks)*ChunkSize {
		v.chunks = append(v.chunks, make([]float64, ChunkSize*v.width))
	}
	vec := v.slot(v.cursor)
	v.cursor++
	return vec
}

// Deallocate returns vec to the free list. vec must have been returned by
// Allocate or Clone on this arena since the last Clear.
func (v *Vectors) Deallocate(vec []float64) {
	if v.width == 0 {
		return
	}
	if len(vec) != v.width || cap(vec) != v.width {
		panic(fmt.Sprintf("deallocate of foreign vector (len %d cap %d)", len(vec), cap(vec)))
	}
	v.free = append(v.free, vec)
}

// Clone allocates a new vector holding a copy of src.
func (v *Vectors) Clone(src []float64) []float64 {
	dst := v.Allocate()
	copy(dst, src)
	return dst
}

func (v *Vectors) Clear() {
	v.chunks = nil
	v.cursor = 0
	v.free = nil
}

// Assign changes the vector width, discarding every existing vector.
func (v *Vectors) Assign(width int) {
	if width < 0 {
		panic("negative vector width")
	}
	v.Clear()
	v.width = width
}

// Len is the number of vectors handed out and not deallocated.
func (v *Vectors) Len() int { return v.cursor - len(v.free) }

func (v *Vectors) slot(i int) []float64 {
	chunk := v.chunks[i/ChunkSize]
	start := (i % ChunkSize) * v.width
	return chunk[start : start+v.width : start+v.width]
}
