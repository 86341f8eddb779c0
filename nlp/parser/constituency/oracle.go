package constituency

import (
	"errors"
	"fmt"

	"srparse/alg/transition"
	nlp "srparse/nlp/types"
)

var ErrNotBinary = errors.New("tree is not binary")

// Extract returns the canonical derivation of a binarized tree and its
// terminals. Leaves are shifted, unary nodes follow their child with a UNARY
// of increasing closure and binary nodes follow both children with a REDUCE.
// The REDUCE takes its head from the right child when that child is a
// binarization intermediate, from the left child otherwise. The derivation
// ends with FINAL.
func Extract(tree *nlp.Tree) (transition.Actions, []string, error) {
	o := &oracle{}
	head, _, err := o.extract(tree)
	if err != nil {
		return nil, nil, err
	}
	o.actions = append(o.actions, transition.Action{Operation: transition.FINAL, Head: head})
	return o.actions, o.words, nil
}

type oracle struct {
	actions transition.Actions
	words   []string
}

// extract returns the head word of t and the closure of its unary chain.
func (o *oracle) extract(t *nlp.Tree) (string, int, error) {
	switch len(t.Children) {
	case 0:
		o.words = append(o.words, t.Label)
		o.actions = append(o.actions, transition.Action{Operation: transition.SHIFT, Head: t.Label})
		return t.Label, 0, nil
	case 1:
		head, closure, err := o.extract(t.Children[0])
		if err != nil {
			return "", 0, err
		}
		o.actions = append(o.actions, transition.Action{
			Operation: transition.Unary(closure + 1),
			Label:     t.Label,
			Head:      head,
		})
		return head, closure + 1, nil
	case 2:
		left, _, err := o.extract(t.Children[0])
		if err != nil {
			return "", 0, err
		}
		right, _, err := o.extract(t.Children[1])
		if err != nil {
			return "", 0, err
		}
		a := transition.Action{Operation: transition.REDUCE_LEFT, Label: t.Label, Head: left}
		if r := t.Children[1]; !r.IsLeaf() && nlp.IsIntermediate(r.Label) {
			a.Operation, a.Head = transition.REDUCE_RIGHT, right
		}
		o.actions = append(o.actions, a)
		return a.Head, 0, nil
	default:
		return "", 0, fmt.Errorf("%w: %q has %d children", ErrNotBinary, t.Label, len(t.Children))
	}
}

// Oracle binarizes gold and replays its derivation through the parser.
func (p *Parser) Oracle(gold *nlp.Tree, dir nlp.Binarization) (*Run, transition.Actions, error) {
	actions, words, err := Extract(nlp.Binarize(gold, dir))
	if err != nil {
		return nil, nil, err
	}
	run, err := p.ParseOracle(words, actions)
	if err != nil {
		return nil, nil, err
	}
	return run, actions, nil
}
