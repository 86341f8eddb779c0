// Package constituency implements a shift-reduce constituency parser decoded
// with beam search over arena allocated states.
//
// Transition system (S = stack of constituents, i = next input word):
//
//	SHIFT        (S      , i) => (S|w_i       , i+1)   if: i < n
//	REDUCE-X     (S|a|b  , i) => (S|X(a,b)    , i)     head from a (LEFT) or b (RIGHT)
//	UNARY-X      (S|a    , i) => (S|X(a)      , i)     if: closure < U, unaries < U*n
//	FINAL        (a      , n) => finished              if: label(a) = goal
//	IDLE         finished     => finished
package constituency

import (
	"errors"
	"fmt"
	"log"
	"runtime"

	"srparse/alg/arena"
	"srparse/alg/search"
	"srparse/alg/transition"
	nlp "srparse/nlp/types"
	"srparse/util"

	"golang.org/x/sync/errgroup"
)

var (
	ErrIllegal      = errors.New("illegal transition")
	ErrUnknownLabel = errors.New("unknown label")
)

// ShowBeam logs every bucket after it is filled.
var ShowBeam bool = false

// Model describes the search space. It is read only during decoding.
type Model interface {
	BeamSize() int
	KBest() int
	UnaryLimit() int
	GoalLabel() Label
	Labels() *util.EnumSet
	Width() int
}

// Input is what a Scorer sees of one transition. Left and Right are the hidden
// vectors of the constituents the transition consumes: both for REDUCE, Left
// only for UNARY, FINAL and IDLE, none for SHIFT.
type Input struct {
	Operation transition.Operation
	Label     Label
	Head      int
	Word      string
	Left      []float64
	Right     []float64
}

// Scorer scores a transition and writes the hidden vector of the resulting
// state. Implementations must be safe for concurrent use when the parser runs
// with Concurrent set.
type Scorer interface {
	Score(in *Input, hidden []float64) float64
}

// Descriptor is a fixed Model.
type Descriptor struct {
	Beam, K, Unaries, Hidden int
	Goal                     Label
	LabelSet                 *util.EnumSet
}

var _ Model = &Descriptor{}

func (d *Descriptor) BeamSize() int         { return d.Beam }
func (d *Descriptor) KBest() int            { return d.K }
func (d *Descriptor) UnaryLimit() int       { return d.Unaries }
func (d *Descriptor) GoalLabel() Label      { return d.Goal }
func (d *Descriptor) Labels() *util.EnumSet { return d.LabelSet }
func (d *Descriptor) Width() int            { return d.Hidden }

// MaxStep is the last step any derivation of n words can reach.
func MaxStep(n, unaryLimit int) int {
	return 2*n + unaryLimit*n
}

type Parser struct {
	Model  Model
	Scorer Scorer
	States *States

	// Pad extends finished derivations with IDLE up to MaxStep.
	Pad bool
	// Concurrent scores the successors of a step in parallel.
	Concurrent bool
}

func NewParser(m Model, s Scorer) *Parser {
	return &Parser{Model: m, Scorer: s, States: NewStates(m.Width())}
}

type candidate struct {
	from  arena.Handle
	op    transition.Operation
	label Label
}

// Parse runs beam search over words. Search exhaustion is not an error: the
// returned run then has no finished state.
func (p *Parser) Parse(words []string) (*Run, error) {
	return p.decode(words, nil, false)
}

// ParseOracle forces the derivation along gold. Any action that is illegal in
// the state it is applied to fails with ErrIllegal.
func (p *Parser) ParseOracle(words []string, gold transition.Actions) (*Run, error) {
	return p.decode(words, gold, true)
}

func (p *Parser) decode(words []string, gold transition.Actions, oracle bool) (*Run, error) {
	beamSize, kbest := p.Model.BeamSize(), p.Model.KBest()
	if oracle {
		beamSize, kbest = 1, 1
	}
	if beamSize < 1 || kbest < 1 {
		return nil, fmt.Errorf("beam size %d and kbest %d must be positive", beamSize, kbest)
	}
	if p.States.Width() != p.Model.Width() {
		p.States.Assign(p.Model.Width())
	} else {
		p.States.Clear()
	}
	run := &Run{
		States: p.States,
		Words:  words,
		Labels: p.Model.Labels(),
		Agenda: search.NewAgenda[arena.Handle](MaxStep(len(words), p.Model.UnaryLimit())+1, beamSize, kbest),
	}
	run.Agenda.Insert(0, run.States.Axiom(), 0)
	var cands []candidate
	for step := 0; step < run.Agenda.Len()-1; step++ {
		bucket := run.Agenda.At(step)
		if bucket.Len() == 0 {
			break
		}
		entries := bucket.Sorted()
		if !p.Pad && p.allFinished(entries) {
			break
		}
		cands = cands[:0]
		if oracle {
			c, err := p.forced(run, entries[0].Value, step, gold)
			if err != nil {
				return nil, err
			}
			cands = append(cands, c)
		} else {
			for _, e := range entries {
				cands = p.expand(run, e.Value, cands)
			}
		}
		p.advance(run, step+1, cands)
		if ShowBeam {
			log.Println("Step", step+1, "generated", len(cands), "beam", run.Agenda.At(step+1))
		}
	}
	run.Step = run.Agenda.Last()
	if oracle && run.Step < len(gold) {
		return nil, fmt.Errorf("%w: %d actions left after step %d", ErrIllegal, len(gold)-run.Step, run.Step)
	}
	run.Agenda.At(run.Step).Prune(kbest)
	return run, nil
}

func (p *Parser) allFinished(entries []search.Scored[arena.Handle]) bool {
	for _, e := range entries {
		if !p.States.Get(e.Value).Operation.IsFinished() {
			return false
		}
	}
	return true
}

func (p *Parser) canShift(run *Run, st *State) bool {
	return st.Next < len(run.Words)
}

func (p *Parser) canReduce(run *Run, st *State) bool {
	return st.Stack.Valid() && !run.States.Get(st.Stack).Operation.IsAxiom()
}

func (p *Parser) canUnary(run *Run, st *State) bool {
	u := p.Model.UnaryLimit()
	return !st.Operation.IsAxiom() && st.Unary < u*len(run.Words) && st.Operation.Closure() < u
}

func (p *Parser) canFinal(run *Run, st *State) bool {
	return st.Next == len(run.Words) &&
		!st.Operation.IsAxiom() &&
		st.Stack.Valid() && run.States.Get(st.Stack).Operation.IsAxiom() &&
		st.Label == p.Model.GoalLabel()
}

// expand appends every legal successor of h to cands.
func (p *Parser) expand(run *Run, h arena.Handle, cands []candidate) []candidate {
	st := run.States.Get(h)
	if st.Operation.IsFinished() {
		return append(cands, candidate{h, transition.IDLE, EMPTY_LABEL})
	}
	if p.canShift(run, st) {
		cands = append(cands, candidate{h, transition.SHIFT, EMPTY_LABEL})
	}
	numLabels := Label(run.Labels.Len())
	if p.canReduce(run, st) {
		for l := EMPTY_LABEL + 1; l < numLabels; l++ {
			cands = append(cands,
				candidate{h, transition.REDUCE_LEFT, l},
				candidate{h, transition.REDUCE_RIGHT, l})
		}
	}
	if p.canUnary(run, st) {
		op := transition.Unary(st.Operation.Closure() + 1)
		for l := EMPTY_LABEL + 1; l < numLabels; l++ {
			cands = append(cands, candidate{h, op, l})
		}
	}
	if p.canFinal(run, st) {
		cands = append(cands, candidate{h, transition.FINAL, EMPTY_LABEL})
	}
	return cands
}

// forced checks the gold action of step against the state h.
func (p *Parser) forced(run *Run, h arena.Handle, step int, gold transition.Actions) (candidate, error) {
	st := run.States.Get(h)
	if step >= len(gold) {
		if st.Operation.IsFinished() {
			return candidate{h, transition.IDLE, EMPTY_LABEL}, nil
		}
		return candidate{}, fmt.Errorf("%w: derivation ends at step %d before FINAL", ErrIllegal, step)
	}
	action := gold[step]
	label := EMPTY_LABEL
	if action.Label != "" {
		l, ok := LabelOf(run.Labels, action.Label)
		if !ok {
			return candidate{}, fmt.Errorf("%w %q at step %d", ErrUnknownLabel, action.Label, step+1)
		}
		label = l
	}
	illegal := func(reason string) (candidate, error) {
		return candidate{}, fmt.Errorf("%w: %v at step %d: %s", ErrIllegal, action, step+1, reason)
	}
	op := action.Operation
	switch {
	case st.Operation.IsFinished():
		if !op.IsIdle() {
			return illegal("derivation already finished")
		}
		label = EMPTY_LABEL
	case op.IsShift():
		if !p.canShift(run, st) {
			return illegal("input exhausted")
		}
		if action.Head != "" && action.Head != run.Words[st.Next] {
			return illegal(fmt.Sprintf("next word is %q", run.Words[st.Next]))
		}
		label = EMPTY_LABEL
	case op.IsReduce():
		if !p.canReduce(run, st) {
			return illegal("fewer than two constituents on the stack")
		}
		if label == EMPTY_LABEL {
			return illegal("missing label")
		}
	case op.IsUnary():
		if !p.canUnary(run, st) {
			return illegal("unary limit reached")
		}
		if label == EMPTY_LABEL {
			return illegal("missing label")
		}
		if op.Closure() != st.Operation.Closure()+1 {
			return illegal(fmt.Sprintf("closure is %d", st.Operation.Closure()+1))
		}
	case op.IsFinal():
		if !p.canFinal(run, st) {
			return illegal("not a complete goal constituent")
		}
		label = EMPTY_LABEL
	default:
		return illegal("unexpected operation")
	}
	return candidate{h, op, label}, nil
}

// advance builds and scores the successors in cands, inserts them into the
// bucket of step and releases the states that did not survive.
func (p *Parser) advance(run *Run, step int, cands []candidate) {
	handles := make([]arena.Handle, len(cands))
	inputs := make([]Input, len(cands))
	for i, c := range cands {
		handles[i] = p.build(run, c)
		inputs[i] = run.Input(handles[i])
	}
	score := func(i int) {
		st := run.States.Get(handles[i])
		st.Score += p.Scorer.Score(&inputs[i], st.Hidden)
	}
	if p.Concurrent && len(cands) > 1 {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i := range cands {
			i := i
			g.Go(func() error {
				score(i)
				return nil
			})
		}
		g.Wait()
	} else {
		for i := range cands {
			score(i)
		}
	}
	bucket := run.Agenda.At(step)
	for _, h := range handles {
		run.Agenda.Insert(step, h, run.States.Get(h).Score)
	}
	kept := make(map[arena.Handle]struct{}, bucket.Len())
	for _, e := range bucket.Sorted() {
		kept[e.Value] = struct{}{}
	}
	for _, h := range handles {
		if _, ok := kept[h]; !ok {
			run.States.Release(h)
		}
	}
}

// build allocates the state reached from c.from by c.op. Its score is the
// score of the predecessor until the scorer adds the transition score.
func (p *Parser) build(run *Run, c candidate) arena.Handle {
	from := run.States.Get(c.from)
	h, st := run.States.New()
	st.Step = from.Step + 1
	st.Next = from.Next
	st.Unary = from.Unary
	st.Operation = c.op
	st.Label = c.label
	st.Span = from.Span
	st.Head = from.Head
	st.Stack = from.Stack
	st.Derivation = c.from
	st.Score = from.Score
	switch {
	case c.op.IsShift():
		st.Next = from.Next + 1
		st.Span = nlp.Span{Start: from.Next, End: from.Next + 1}
		st.Head = from.Next
		st.Stack = c.from
	case c.op.IsReduce():
		left := run.States.Get(from.Stack)
		st.Stack = left.Stack
		st.Reduced = from.Stack
		st.Span = left.Span.Union(from.Span)
		if c.op.IsLeft() {
			st.Head = left.Head
		}
	case c.op.IsUnary():
		st.Unary = from.Unary + 1
	}
	return h
}
