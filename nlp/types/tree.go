package types

import (
	"strings"

	"srparse/util"
)

// Tree is a constituency tree. Leaves carry the word in Label and have no
// children.
type Tree struct {
	Label    string
	Children []*Tree
}

var _ util.Equaler = &Tree{}

func Leaf(word string) *Tree {
	return &Tree{Label: word}
}

func Node(label string, children ...*Tree) *Tree {
	return &Tree{Label: label, Children: children}
}

func (t *Tree) IsLeaf() bool { return len(t.Children) == 0 }

func (t *Tree) IsUnary() bool { return len(t.Children) == 1 }

// IsPreterminal is true for a node whose only child is a leaf.
func (t *Tree) IsPreterminal() bool {
	return t.IsUnary() && t.Children[0].IsLeaf()
}

// Yield returns the leaf words left to right.
func (t *Tree) Yield() []string {
	var words []string
	t.Walk(func(n *Tree) {
		if n.IsLeaf() {
			words = append(words, n.Label)
		}
	})
	return words
}

// Walk visits t in pre-order.
func (t *Tree) Walk(visit func(*Tree)) {
	visit(t)
	for _, c := range t.Children {
		c.Walk(visit)
	}
}

// Size is the number of nodes, leaves included.
func (t *Tree) Size() int {
	n := 0
	t.Walk(func(*Tree) { n++ })
	return n
}

func (t *Tree) Copy() *Tree {
	c := &Tree{Label: t.Label}
	if len(t.Children) > 0 {
		c.Children = make([]*Tree, len(t.Children))
		for i, child := range t.Children {
			c.Children[i] = child.Copy()
		}
	}
	return c
}

func (t *Tree) Equal(otherEq util.Equaler) bool {
	other, ok := otherEq.(*Tree)
	if !ok || t == nil || other == nil {
		return ok && t == other
	}
	if t.Label != other.Label || len(t.Children) != len(other.Children) {
		return false
	}
	for i, c := range t.Children {
		if !c.Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Bracket is a labeled constituent span.
type Bracket struct {
	Label string
	Span
}

// Brackets lists the labeled spans of every non-leaf node. When
// skipPreterminals is set, nodes directly above a leaf are left out, as
// evalb does for part-of-speech tags.
func (t *Tree) Brackets(skipPreterminals bool) []Bracket {
	var (
		brackets []Bracket
		walk     func(n *Tree, start int) int
	)
	walk = func(n *Tree, start int) int {
		if n.IsLeaf() {
			return start + 1
		}
		end := start
		for _, c := range n.Children {
			end = walk(c, end)
		}
		if !(skipPreterminals && n.IsPreterminal()) {
			brackets = append(brackets, Bracket{n.Label, Span{start, end}})
		}
		return end
	}
	walk(t, 0)
	return brackets
}

func (t *Tree) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Tree) write(b *strings.Builder) {
	if t.IsLeaf() {
		b.WriteString(t.Label)
		return
	}
	b.WriteByte('(')
	b.WriteString(t.Label)
	for _, c := range t.Children {
		b.WriteByte(' ')
		c.write(b)
	}
	b.WriteByte(')')
}
