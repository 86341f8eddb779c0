// Package objective compares a candidate beam search run against an oracle
// run over the same sentence and turns the difference into a loss and an
// error signal on the states responsible for it.
package objective

import (
	"errors"
	"fmt"
	"math"

	"srparse/alg/arena"
	"srparse/alg/search"
	"srparse/nlp/parser/constituency"
)

var ErrBeamMismatch = errors.New("candidate and oracle agendas differ in length")

// Result of one comparison. Step is the step the loss was computed at, -1
// when no violation was found.
type Result struct {
	Loss  float64
	Found bool
	Step  int
}

// Objective computes the loss of candidates against oracles, writing score
// derivatives of candidate states into cb and of oracle states into ob.
type Objective interface {
	Name() string
	Compute(candidates, oracles *constituency.Run, cb, ob *Backward) (Result, error)
}

// New returns the objective called name: early, late, all, max, evalb or
// cross.
func New(name string, scale float64) (Objective, error) {
	m := Margin{Scale: scale}
	switch name {
	case "early":
		return &Early{m}, nil
	case "late":
		return &Late{Margin: m}, nil
	case "all":
		return &Late{Margin: m, All: true}, nil
	case "max":
		return &Max{m}, nil
	case "evalb":
		return &Evalb{Expected{Scale: scale, Loss: LabeledF1Loss}}, nil
	case "cross":
		return &CrossBracket{Expected{Scale: scale, Loss: CrossingLoss}}, nil
	}
	return nil, fmt.Errorf("unknown objective %q", name)
}

func checkLengths(candidates, oracles *constituency.Run) error {
	if c, o := candidates.Agenda.Len(), oracles.Agenda.Len(); c != o {
		return fmt.Errorf("%w: %d candidate steps, %d oracle steps", ErrBeamMismatch, c, o)
	}
	return nil
}

// MarginError is the hinge loss of a candidate scored above an oracle, 0 when
// the candidate does not outscore the oracle.
func MarginError(oracle, candidate float64) float64 {
	if candidate <= oracle {
		return 0
	}
	return math.Max(0, 1-(oracle-candidate))
}

// probabilities is the softmax of scale*score over entries, computed in log
// space.
func probabilities(entries []search.Scored[arena.Handle], scale float64) []float64 {
	probs := make([]float64, len(entries))
	if len(entries) == 0 {
		return probs
	}
	top := math.Inf(-1)
	for _, e := range entries {
		top = math.Max(top, scale*e.Score)
	}
	var sum float64
	for _, e := range entries {
		sum += math.Exp(scale*e.Score - top)
	}
	logZ := top + math.Log(sum)
	for i, e := range entries {
		probs[i] = math.Exp(scale*e.Score - logZ)
	}
	return probs
}
