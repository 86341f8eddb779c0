package types

import (
	"fmt"
	"strings"
)

// IntermediateSuffix marks labels of nodes introduced by binarization.
const IntermediateSuffix = "^"

type Binarization int

const (
	BinarizeLeft Binarization = iota
	BinarizeRight
)

func (b Binarization) String() string {
	switch b {
	case BinarizeLeft:
		return "left"
	case BinarizeRight:
		return "right"
	default:
		return fmt.Sprintf("Binarization(%d)", int(b))
	}
}

func ParseBinarization(s string) (Binarization, error) {
	switch s {
	case "left", "":
		return BinarizeLeft, nil
	case "right":
		return BinarizeRight, nil
	}
	return 0, fmt.Errorf("unknown binarization %q", s)
}

func IsIntermediate(label string) bool {
	return strings.HasSuffix(label, IntermediateSuffix)
}

func Intermediate(label string) string {
	if IsIntermediate(label) {
		return label
	}
	return label + IntermediateSuffix
}

// Binarize returns a copy of t where every node has at most two children.
// Left binarization nests the leftmost children: (X a b c) becomes
// (X (X^ a b) c); right binarization gives (X a (X^ b c)).
func Binarize(t *Tree, dir Binarization) *Tree {
	if t.IsLeaf() {
		return Leaf(t.Label)
	}
	children := make([]*Tree, len(t.Children))
	for i, c := range t.Children {
		children[i] = Binarize(c, dir)
	}
	if len(children) <= 2 {
		return Node(t.Label, children...)
	}
	inter := Intermediate(t.Label)
	if dir == BinarizeLeft {
		acc := Node(inter, children[0], children[1])
		for _, c := range children[2 : len(children)-1] {
			acc = Node(inter, acc, c)
		}
		return Node(t.Label, acc, children[len(children)-1])
	}
	n := len(children)
	acc := Node(inter, children[n-2], children[n-1])
	for i := n - 3; i >= 1; i-- {
		acc = Node(inter, children[i], acc)
	}
	return Node(t.Label, children[0], acc)
}

// Debinarize splices intermediate nodes back into their parents.
func Debinarize(t *Tree) *Tree {
	if t.IsLeaf() {
		return Leaf(t.Label)
	}
	n := &Tree{Label: t.Label}
	for _, c := range t.Children {
		d := Debinarize(c)
		if !d.IsLeaf() && IsIntermediate(d.Label) {
			n.Children = append(n.Children, d.Children...)
		} else {
			n.Children = append(n.Children, d)
		}
	}
	return n
}

// IsBinary reports whether no node of t has more than two children.
func IsBinary(t *Tree) bool {
	binary := true
	t.Walk(func(n *Tree) {
		if len(n.Children) > 2 {
			binary = false
		}
	})
	return binary
}
