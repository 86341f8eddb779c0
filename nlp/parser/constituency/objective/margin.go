package objective

import (
	"srparse/alg/arena"
	"srparse/alg/search"
	"srparse/nlp/parser/constituency"
)

// Margin holds what the margin objectives share: pairs of candidate and
// oracle states at one step are weighted by their joint probability under a
// softmax of Scale*score within each beam.
type Margin struct {
	Scale float64
}

type step struct {
	index      int
	candidates []search.Scored[arena.Handle]
	oracles    []search.Scored[arena.Handle]
}

// steps lists the steps where both runs have survivors.
func steps(candidates, oracles *constituency.Run) []step {
	var result []step
	for s := 0; s < candidates.Agenda.Len(); s++ {
		cb, ob := candidates.Agenda.At(s), oracles.Agenda.At(s)
		if cb.Len() == 0 || ob.Len() == 0 {
			continue
		}
		result = append(result, step{s, cb.Sorted(), ob.Sorted()})
	}
	return result
}

// suffer writes the pairs of st selected by keep, among those where the
// candidate outscores the oracle, and returns their expected error.
func (m *Margin) suffer(st step, keep func(i, j int) bool, cb, ob *Backward) Result {
	pc := probabilities(st.candidates, m.Scale)
	po := probabilities(st.oracles, m.Scale)
	result := Result{Step: -1}
	for i, c := range st.candidates {
		for j, o := range st.oracles {
			if !keep(i, j) {
				continue
			}
			err := MarginError(o.Score, c.Score)
			if err <= 0 {
				continue
			}
			joint := pc[i] * po[j]
			result.Loss += joint * err
			result.Found = true
			cb.Accumulate(c.Value, joint)
			ob.Accumulate(o.Value, -joint)
		}
	}
	if result.Found {
		result.Step = st.index
		cb.Visit(st.index)
		ob.Visit(st.index)
	}
	return result
}

func all(i, j int) bool  { return true }
func best(i, j int) bool { return i == 0 && j == 0 }

// Early stops at the first step where even the worst surviving candidate
// outscores the best oracle, and charges every violating pair there.
type Early struct {
	Margin
}

func (e *Early) Name() string { return "early" }

func (e *Early) Compute(candidates, oracles *constituency.Run, cb, ob *Backward) (Result, error) {
	if err := checkLengths(candidates, oracles); err != nil {
		return Result{}, err
	}
	for _, st := range steps(candidates, oracles) {
		worst := st.candidates[len(st.candidates)-1]
		if MarginError(st.oracles[0].Score, worst.Score) > 0 {
			return e.suffer(st, all, cb, ob), nil
		}
	}
	return Result{Step: -1}, nil
}

// Late charges the best candidate against the best oracle at the last step
// where the candidate wins. With All it charges every violating pair of the
// last step both runs reach.
type Late struct {
	Margin
	All bool
}

func (l *Late) Name() string {
	if l.All {
		return "all"
	}
	return "late"
}

func (l *Late) Compute(candidates, oracles *constituency.Run, cb, ob *Backward) (Result, error) {
	if err := checkLengths(candidates, oracles); err != nil {
		return Result{}, err
	}
	sts := steps(candidates, oracles)
	if len(sts) == 0 {
		return Result{Step: -1}, nil
	}
	if l.All {
		return l.suffer(sts[len(sts)-1], all, cb, ob), nil
	}
	for i := len(sts) - 1; i >= 0; i-- {
		st := sts[i]
		if MarginError(st.oracles[0].Score, st.candidates[0].Score) > 0 {
			return l.suffer(st, best, cb, ob), nil
		}
	}
	return Result{Step: -1}, nil
}

// Max charges the best candidate against the best oracle at the step where
// their margin error is largest; the earliest such step on ties.
type Max struct {
	Margin
}

func (m *Max) Name() string { return "max" }

func (m *Max) Compute(candidates, oracles *constituency.Run, cb, ob *Backward) (Result, error) {
	if err := checkLengths(candidates, oracles); err != nil {
		return Result{}, err
	}
	var (
		worst    step
		maxError float64
	)
	for _, st := range steps(candidates, oracles) {
		if err := MarginError(st.oracles[0].Score, st.candidates[0].Score); err > maxError {
			worst, maxError = st, err
		}
	}
	if maxError <= 0 {
		return Result{Step: -1}, nil
	}
	return m.suffer(worst, best, cb, ob), nil
}
