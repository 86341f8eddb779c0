package constituency

import (
	"fmt"

	"srparse/alg/arena"
	"srparse/alg/transition"
	nlp "srparse/nlp/types"
	"srparse/util"
)

// Label indexes a label set built by NewLabels. Label 0 is the empty label
// carried by AXIOM, SHIFT, FINAL and IDLE states.
type Label int32

const EMPTY_LABEL Label = 0

// NewLabels creates a label set with the empty label at index 0.
func NewLabels(labels ...string) *util.EnumSet {
	set := util.NewEnumSet(len(labels) + 1)
	set.Add("")
	for _, l := range labels {
		if l != "" {
			set.Add(l)
		}
	}
	return set
}

// LabelOf looks up a label without interning it.
func LabelOf(set *util.EnumSet, label string) (Label, bool) {
	i, ok := set.IndexOf(label)
	return Label(i), ok
}

// State is one parser configuration. The constituent on top of the stack of
// a SHIFT, UNARY or REDUCE state is the state itself; Stack points to the
// state holding the constituent beneath it, down to the AXIOM.
type State struct {
	Step      int
	Next      int
	Unary     int
	Operation transition.Operation
	Label     Label
	Span      nlp.Span
	Head      int

	Stack      arena.Handle
	Derivation arena.Handle
	Reduced    arena.Handle

	Score  float64
	Hidden []float64
}

func (s *State) String() string {
	return fmt.Sprintf("%d %v/%d [%d,%d) next=%d score=%.4f", s.Step, s.Operation, s.Label, s.Span.Start, s.Span.End, s.Next, s.Score)
}

// States is the per-sentence arena holding parser states and their hidden
// vectors. States are released only by Clear.
type States struct {
	pool    *arena.Pool[State]
	vectors *arena.Vectors
}

func NewStates(width int) *States {
	return &States{
		pool:    arena.NewPool[State](),
		vectors: arena.NewVectors(width),
	}
}

// Width is the hidden vector width.
func (s *States) Width() int { return s.vectors.Width() }

// Assign changes the hidden width and discards every state.
func (s *States) Assign(width int) {
	s.pool.Clear()
	s.vectors.Assign(width)
}

func (s *States) Get(h arena.Handle) *State {
	return s.pool.Get(h)
}

// New allocates a state with a zeroed hidden vector and nil back references.
func (s *States) New() (arena.Handle, *State) {
	h := s.pool.Allocate()
	st := s.pool.Get(h)
	st.Stack, st.Derivation, st.Reduced = arena.Nil, arena.Nil, arena.Nil
	st.Hidden = s.vectors.Allocate()
	return h, st
}

// Axiom allocates the initial state of a derivation.
func (s *States) Axiom() arena.Handle {
	h, st := s.New()
	st.Operation = transition.AXIOM
	st.Head = -1
	return h
}

// Clone copies the state of h, hidden vector included.
func (s *States) Clone(h arena.Handle) arena.Handle {
	c := s.pool.Clone(h)
	st := s.pool.Get(c)
	st.Hidden = s.vectors.Clone(st.Hidden)
	return c
}

// Release returns a scratch state to the arena. It must not be referenced by
// any other state.
func (s *States) Release(h arena.Handle) {
	s.vectors.Deallocate(s.pool.Get(h).Hidden)
	s.pool.Deallocate(h)
}

func (s *States) Clear() {
	s.pool.Clear()
	s.vectors.Clear()
}

// Len is the number of live states.
func (s *States) Len() int { return s.pool.Len() }

// Chain returns the derivation of h from the AXIOM to h.
func (s *States) Chain(h arena.Handle) []arena.Handle {
	var chain []arena.Handle
	for ; h.Valid(); h = s.Get(h).Derivation {
		chain = append(chain, h)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Depth is the number of constituents on the stack of h.
func (s *States) Depth(h arena.Handle) int {
	st := s.Get(h)
	if st.Operation.IsFinished() {
		return s.Depth(st.Derivation)
	}
	var depth int
	for ; h.Valid() && !s.Get(h).Operation.IsAxiom(); h = s.Get(h).Stack {
		depth++
	}
	return depth
}
