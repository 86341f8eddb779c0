package eval

import (
	"fmt"

	nlp "srparse/nlp/types"
)

// Brackets matches the labeled brackets of test against gold as evalb does:
// preterminals are left out and every gold bracket matches at most once.
func Brackets(gold, test *nlp.Tree) *Result {
	r := &Result{}
	goldCount := make(map[nlp.Bracket]int)
	for _, b := range gold.Brackets(true) {
		goldCount[b]++
	}
	if test != nil {
		for _, b := range test.Brackets(true) {
			if goldCount[b] > 0 {
				goldCount[b]--
				r.TP++
			} else {
				r.FP++
			}
		}
	}
	for _, n := range goldCount {
		r.FN += n
	}
	r.Crossing = CrossingBrackets(gold, test)
	return r
}

// CrossingBrackets counts the brackets of test whose span crosses the span
// of some gold bracket.
func CrossingBrackets(gold, test *nlp.Tree) int {
	if test == nil {
		return 0
	}
	goldBrackets := gold.Brackets(true)
	var crossing int
	for _, b := range test.Brackets(true) {
		for _, g := range goldBrackets {
			if b.Crosses(g.Span) {
				crossing++
				break
			}
		}
	}
	return crossing
}

// Corpus scores aligned gold and test trees. A nil test tree counts every
// gold bracket as missed.
func Corpus(gold, test []*nlp.Tree) (*Total, error) {
	if len(gold) != len(test) {
		return nil, fmt.Errorf("%d gold trees but %d test trees", len(gold), len(test))
	}
	total := &Total{Results: make([]*Result, 0, len(gold))}
	for i, g := range gold {
		if test[i] != nil {
			if gy, ty := len(g.Yield()), len(test[i].Yield()); gy != ty {
				return nil, fmt.Errorf("tree %d: gold has %d words, test has %d", i+1, gy, ty)
			}
		}
		total.Add(Brackets(g, test[i]))
	}
	return total, nil
}
