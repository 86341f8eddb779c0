package constituency

import (
	"fmt"

	"srparse/alg/arena"
	"srparse/alg/search"
	"srparse/alg/transition"
	nlp "srparse/nlp/types"
	"srparse/util"
)

// Run is the result of decoding one sentence. Its handles address States and
// are valid until the next decode with the same parser.
type Run struct {
	States *States
	Words  []string
	Labels *util.EnumSet
	Agenda *search.Agenda[arena.Handle]

	// Step is the last step with a non-empty bucket.
	Step int
}

func (r *Run) Get(h arena.Handle) *State { return r.States.Get(h) }

func (r *Run) Label(l Label) string { return r.Labels.ValueOf(int(l)) }

// Final is the bucket of the last step reached.
func (r *Run) Final() *search.Bucket[arena.Handle] { return r.Agenda.At(r.Step) }

// Finished returns the finished states of the final bucket, best first.
func (r *Run) Finished() []arena.Handle {
	var finished []arena.Handle
	for _, e := range r.Final().Sorted() {
		if r.Get(e.Value).Operation.IsFinished() {
			finished = append(finished, e.Value)
		}
	}
	return finished
}

// Best returns the highest scoring finished state.
func (r *Run) Best() (arena.Handle, bool) {
	finished := r.Finished()
	if len(finished) == 0 {
		return arena.Nil, false
	}
	return finished[0], true
}

// Input rebuilds what the scorer saw when it produced h.
func (r *Run) Input(h arena.Handle) Input {
	st := r.Get(h)
	in := Input{Operation: st.Operation, Label: st.Label, Head: st.Head}
	if st.Head >= 0 {
		in.Word = r.Words[st.Head]
	}
	switch {
	case st.Operation.IsAxiom(), st.Operation.IsShift():
	case st.Operation.IsReduce():
		in.Left = r.Get(st.Reduced).Hidden
		in.Right = r.Get(st.Derivation).Hidden
	default:
		in.Left = r.Get(st.Derivation).Hidden
	}
	return in
}

// Tree reconstructs the binarized tree derived by h. FINAL and IDLE states
// yield the tree of their predecessor; the AXIOM yields nil.
func (r *Run) Tree(h arena.Handle) *nlp.Tree {
	st := r.Get(h)
	op := st.Operation
	switch {
	case op.IsAxiom():
		return nil
	case op.IsFinished():
		return r.Tree(st.Derivation)
	case op.IsShift():
		return nlp.Leaf(r.Words[st.Span.Start])
	case op.IsUnary():
		return nlp.Node(r.Label(st.Label), r.Tree(st.Derivation))
	case op.IsReduce():
		return nlp.Node(r.Label(st.Label), r.Tree(st.Reduced), r.Tree(st.Derivation))
	}
	panic(fmt.Sprintf("unknown operation %v", op))
}

// Actions lists the transitions leading to h, in the form produced by
// Extract.
func (r *Run) Actions(h arena.Handle) transition.Actions {
	chain := r.States.Chain(h)
	actions := make(transition.Actions, 0, len(chain))
	for _, c := range chain[1:] {
		st := r.Get(c)
		a := transition.Action{Operation: st.Operation, Label: r.Label(st.Label)}
		if st.Head >= 0 {
			a.Head = r.Words[st.Head]
		}
		actions = append(actions, a)
	}
	return actions
}
