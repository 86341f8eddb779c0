package constituency

import (
	"srparse/alg/arena"
	nlp "srparse/nlp/types"
)

// ForestNode is a packed node: every edge is one alternative list of
// children deriving the same labeled span.
type ForestNode struct {
	Label string
	Span  nlp.Span
	Leaf  bool
	Edges [][]arena.Handle
}

type signature struct {
	label   Label
	span    nlp.Span
	closure int
	leaf    bool
}

// Forest packs the derivations of several states. Sub-derivations shared by
// more than one state appear once.
type Forest struct {
	Nodes *arena.Pool[ForestNode]
	Roots []arena.Handle

	run   *Run
	memo  map[arena.Handle]arena.Handle
	nodes map[signature]arena.Handle
}

// Forest builds the packed forest of the given states, typically the k-best
// list of Finished.
func (r *Run) Forest(handles []arena.Handle) *Forest {
	f := &Forest{
		Nodes: arena.NewPool[ForestNode](),
		run:   r,
		memo:  make(map[arena.Handle]arena.Handle),
		nodes: make(map[signature]arena.Handle),
	}
	roots := make(map[arena.Handle]bool)
	for _, h := range handles {
		n := f.add(h)
		if n.Valid() && !roots[n] {
			roots[n] = true
			f.Roots = append(f.Roots, n)
		}
	}
	return f
}

func (f *Forest) Get(h arena.Handle) *ForestNode { return f.Nodes.Get(h) }

func (f *Forest) Len() int { return f.Nodes.Len() }

func (f *Forest) add(h arena.Handle) arena.Handle {
	if n, seen := f.memo[h]; seen {
		return n
	}
	st := f.run.Get(h)
	op := st.Operation
	var (
		n        arena.Handle
		children []arena.Handle
	)
	switch {
	case op.IsAxiom():
		n = arena.Nil
	case op.IsFinished():
		n = f.add(st.Derivation)
	case op.IsShift():
		n = f.node(signature{span: st.Span, leaf: true}, f.run.Words[st.Span.Start])
	case op.IsUnary():
		children = []arena.Handle{f.add(st.Derivation)}
		n = f.node(signature{label: st.Label, span: st.Span, closure: op.Closure()}, f.run.Label(st.Label))
	case op.IsReduce():
		children = []arena.Handle{f.add(st.Reduced), f.add(st.Derivation)}
		n = f.node(signature{label: st.Label, span: st.Span}, f.run.Label(st.Label))
	}
	if children != nil {
		f.edge(n, children)
	}
	f.memo[h] = n
	return n
}

func (f *Forest) node(sig signature, label string) arena.Handle {
	if n, exists := f.nodes[sig]; exists {
		return n
	}
	n := f.Nodes.Allocate()
	*f.Nodes.Get(n) = ForestNode{Label: label, Span: sig.span, Leaf: sig.leaf}
	f.nodes[sig] = n
	return n
}

func (f *Forest) edge(n arena.Handle, children []arena.Handle) {
	node := f.Nodes.Get(n)
	for _, e := range node.Edges {
		if equalHandles(e, children) {
			return
		}
	}
	node.Edges = append(node.Edges, children)
}

func equalHandles(a, b []arena.Handle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Tree unpacks the first alternative of every node below n.
func (f *Forest) Tree(n arena.Handle) *nlp.Tree {
	node := f.Get(n)
	if node.Leaf {
		return nlp.Leaf(node.Label)
	}
	edge := node.Edges[0]
	t := &nlp.Tree{Label: node.Label, Children: make([]*nlp.Tree, len(edge))}
	for i, c := range edge {
		t.Children[i] = f.Tree(c)
	}
	return t
}
