package objective

import (
	"math"

	"srparse/alg/arena"
	"srparse/alg/search"
	"srparse/eval"
	"srparse/nlp/parser/constituency"
	nlp "srparse/nlp/types"
)

// LossFunc is the loss of a test tree given the gold trees it may match.
type LossFunc func(gold []*nlp.Tree, test *nlp.Tree) float64

// LabeledF1Loss is 1 - F1 of the labeled brackets of test against the best
// matching gold tree. A pair with no scorable brackets on either side, such
// as two one word sentences, matches perfectly.
func LabeledF1Loss(gold []*nlp.Tree, test *nlp.Tree) float64 {
	var best float64
	for _, g := range gold {
		r := eval.Brackets(g, test)
		if r.TP+r.FP+r.FN == 0 {
			return 0
		}
		best = math.Max(best, r.F1())
	}
	return 1 - best
}

// CrossingLoss is the number of brackets of test crossing the best matching
// gold tree.
func CrossingLoss(gold []*nlp.Tree, test *nlp.Tree) float64 {
	best := math.Inf(1)
	for _, g := range gold {
		best = math.Min(best, float64(eval.CrossingBrackets(g, test)))
	}
	return best
}

// Expected is the expectation of a tree loss under the softmax of
// Scale*score over the finished candidates. The derivative of the
// expectation with respect to the score of candidate c is
// Scale * p(c) * (loss(c) - expectation).
type Expected struct {
	Scale float64
	Loss  LossFunc
}

func (e *Expected) compute(candidates, oracles *constituency.Run, cb *Backward) (Result, error) {
	if err := checkLengths(candidates, oracles); err != nil {
		return Result{}, err
	}
	finished, golds := candidates.Finished(), oracles.Finished()
	if len(finished) == 0 || len(golds) == 0 {
		return Result{Step: -1}, nil
	}
	gold := make([]*nlp.Tree, len(golds))
	for i, h := range golds {
		gold[i] = nlp.Debinarize(oracles.Tree(h))
	}
	entries := make([]search.Scored[arena.Handle], len(finished))
	losses := make([]float64, len(finished))
	for i, h := range finished {
		entries[i] = search.Scored[arena.Handle]{Value: h, Score: candidates.Get(h).Score, Seq: i}
		losses[i] = e.Loss(gold, nlp.Debinarize(candidates.Tree(h)))
	}
	probs := probabilities(entries, e.Scale)
	var expected float64
	for i := range finished {
		expected += probs[i] * losses[i]
	}
	if expected <= 0 {
		return Result{Step: -1}, nil
	}
	for i, h := range finished {
		cb.Accumulate(h, e.Scale*probs[i]*(losses[i]-expected))
	}
	cb.Visit(candidates.Step)
	return Result{Loss: expected, Found: true, Step: candidates.Step}, nil
}

// Evalb minimizes the expected labeled bracket error.
type Evalb struct {
	Expected
}

func (e *Evalb) Name() string { return "evalb" }

func (e *Evalb) Compute(candidates, oracles *constituency.Run, cb, ob *Backward) (Result, error) {
	return e.compute(candidates, oracles, cb)
}

// CrossBracket minimizes the expected number of crossing brackets.
type CrossBracket struct {
	Expected
}

func (c *CrossBracket) Name() string { return "cross" }

func (c *CrossBracket) Compute(candidates, oracles *constituency.Run, cb, ob *Backward) (Result, error) {
	return c.compute(candidates, oracles, cb)
}
