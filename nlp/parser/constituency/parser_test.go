package constituency

import (
	"errors"
	"testing"

	"srparse/alg/arena"
	"srparse/alg/transition"
	nlp "srparse/nlp/types"
	"srparse/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableScorer sums the weights of "KIND", "KIND label" and "KIND label word".
type tableScorer struct {
	labels  *util.EnumSet
	weights map[string]float64
}

func (s *tableScorer) Score(in *Input, hidden []float64) float64 {
	kind := in.Operation.String()
	if in.Operation.IsUnary() {
		kind = "UNARY"
	}
	label := s.labels.ValueOf(int(in.Label))
	if label == "" {
		label = "_"
	}
	score := s.weights[kind] + s.weights[kind+" "+label] + s.weights[kind+" "+label+" "+in.Word]
	for i := range hidden {
		hidden[i] = score + float64(i)
	}
	return score
}

func toyModel(beam, kbest, unaries int, labels ...string) *Descriptor {
	set := NewLabels(labels...)
	goal, _ := LabelOf(set, "S")
	return &Descriptor{Beam: beam, K: kbest, Unaries: unaries, Hidden: 2, Goal: goal, LabelSet: set}
}

func toyParser(m *Descriptor, weights map[string]float64) *Parser {
	return NewParser(m, &tableScorer{m.LabelSet, weights})
}

var (
	simpleTree = nlp.Node("S",
		nlp.Node("NP", nlp.Leaf("the"), nlp.Leaf("dog")),
		nlp.Node("VP", nlp.Leaf("barks")))
	simpleActions = transition.Actions{
		{Operation: transition.SHIFT, Head: "the"},
		{Operation: transition.SHIFT, Head: "dog"},
		{Operation: transition.REDUCE_LEFT, Label: "NP", Head: "the"},
		{Operation: transition.SHIFT, Head: "barks"},
		{Operation: transition.Unary(1), Label: "VP", Head: "barks"},
		{Operation: transition.REDUCE_LEFT, Label: "S", Head: "the"},
		{Operation: transition.FINAL, Head: "the"},
	}
	wideTree = nlp.Node("S",
		nlp.Node("NP", nlp.Node("DT", nlp.Leaf("the")), nlp.Node("JJ", nlp.Leaf("big")), nlp.Node("NN", nlp.Leaf("dog"))),
		nlp.Node("VP", nlp.Node("VBZ", nlp.Leaf("barks"))))
	wideLabels = []string{"S", "NP", "NP^", "VP", "DT", "JJ", "NN", "VBZ"}
)

func TestExtract(t *testing.T) {
	actions, words, err := Extract(nlp.Binarize(simpleTree, nlp.BinarizeLeft))
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "dog", "barks"}, words)
	assert.Equal(t, simpleActions, actions)
	assert.Equal(t, 3, actions.Count(transition.Operation.IsShift))

	_, _, err = Extract(wideTree)
	assert.True(t, errors.Is(err, ErrNotBinary))
}

func TestExtractRightIntermediate(t *testing.T) {
	actions, _, err := Extract(nlp.Binarize(wideTree, nlp.BinarizeRight))
	require.NoError(t, err)
	var (
		right []transition.Action
		maxC  int
	)
	for _, a := range actions {
		if a.Operation.IsRight() {
			right = append(right, a)
		}
		if c := a.Operation.Closure(); c > maxC {
			maxC = c
		}
	}
	// (NP (DT the) (NP^ (JJ big) (NN dog))) reduces NP with the head of NP^
	require.Len(t, right, 1)
	assert.Equal(t, transition.Action{Operation: transition.REDUCE_RIGHT, Label: "NP", Head: "big"}, right[0])
	assert.Equal(t, 2, maxC, "VP over VBZ over barks")
}

func TestOracleRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name    string
		tree    *nlp.Tree
		dir     nlp.Binarization
		unaries int
		labels  []string
	}{
		{"simple-left", simpleTree, nlp.BinarizeLeft, 1, []string{"NP", "VP", "S"}},
		{"wide-left", wideTree, nlp.BinarizeLeft, 2, wideLabels},
		{"wide-right", wideTree, nlp.BinarizeRight, 2, wideLabels},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := toyParser(toyModel(4, 1, tc.unaries, tc.labels...), nil)
			run, actions, err := p.Oracle(tc.tree, tc.dir)
			require.NoError(t, err)
			best, ok := run.Best()
			require.True(t, ok)
			assert.Equal(t, len(actions), run.Step)
			assert.Equal(t, actions, run.Actions(best))

			binarized := run.Tree(best)
			assert.True(t, nlp.Binarize(tc.tree, tc.dir).Equal(binarized), binarized.String())
			assert.True(t, tc.tree.Equal(nlp.Debinarize(binarized)))
		})
	}
}

func TestOracleIllegal(t *testing.T) {
	m := toyModel(4, 1, 1, "NP", "VP", "S")
	words := []string{"the", "dog", "barks"}
	replace := func(i int, a transition.Action) transition.Actions {
		gold := append(transition.Actions(nil), simpleActions...)
		gold[i] = a
		return gold
	}
	for name, tc := range map[string]struct {
		gold transition.Actions
		err  error
	}{
		"reduce-first":    {replace(0, transition.Action{Operation: transition.REDUCE_LEFT, Label: "NP"}), ErrIllegal},
		"wrong-word":      {replace(1, transition.Action{Operation: transition.SHIFT, Head: "cat"}), ErrIllegal},
		"unknown-label":   {replace(2, transition.Action{Operation: transition.REDUCE_LEFT, Label: "PP"}), ErrUnknownLabel},
		"bad-closure":     {replace(4, transition.Action{Operation: transition.Unary(2), Label: "VP"}), ErrIllegal},
		"early-final":     {replace(3, transition.Action{Operation: transition.FINAL}), ErrIllegal},
		"missing-final":   {simpleActions[:6], ErrIllegal},
		"trailing":        {append(append(transition.Actions(nil), simpleActions...), transition.Action{Operation: transition.SHIFT}), ErrIllegal},
		"unlabeled-unary": {replace(4, transition.Action{Operation: transition.Unary(1)}), ErrIllegal},
	} {
		p := toyParser(m, nil)
		_, err := p.ParseOracle(words, tc.gold)
		assert.True(t, errors.Is(err, tc.err), "%s: %v", name, err)
	}

	// stacked unaries beyond the limit
	p := toyParser(toyModel(4, 1, 1, wideLabels...), nil)
	_, _, err := p.Oracle(wideTree, nlp.BinarizeLeft)
	assert.True(t, errors.Is(err, ErrIllegal), "%v", err)

	// the root must carry the goal label
	p = toyParser(toyModel(4, 1, 1, "NP", "VP", "S"), nil)
	_, _, err = p.Oracle(nlp.Node("NP", nlp.Leaf("the"), nlp.Leaf("dog")), nlp.BinarizeLeft)
	assert.True(t, errors.Is(err, ErrIllegal), "%v", err)
}

func TestReduceSpansAndHeads(t *testing.T) {
	words := []string{"a", "b", "c"}
	gold := transition.Actions{
		{Operation: transition.SHIFT},
		{Operation: transition.SHIFT},
		{Operation: transition.SHIFT},
		{Operation: transition.REDUCE_RIGHT, Label: "NP"},
		{Operation: transition.REDUCE_LEFT, Label: "S"},
		{Operation: transition.FINAL},
	}
	p := toyParser(toyModel(1, 1, 0, "NP", "S"), nil)
	run, err := p.ParseOracle(words, gold)
	require.NoError(t, err)
	best, ok := run.Best()
	require.True(t, ok)

	chain := run.States.Chain(best)
	require.Len(t, chain, len(gold)+1)
	right, left := run.Get(chain[4]), run.Get(chain[5])

	// REDUCE-RIGHT combines b (reduced, below) with c (predecessor, top)
	assert.Equal(t, nlp.Span{Start: 1, End: 3}, right.Span)
	assert.Equal(t, run.Get(right.Reduced).Span.Union(run.Get(right.Derivation).Span), right.Span)
	assert.Equal(t, run.Get(right.Reduced).Span.End, run.Get(right.Derivation).Span.Start)
	assert.Equal(t, 2, right.Head)

	// REDUCE-LEFT combines a with NP(b c), head a
	assert.Equal(t, nlp.Span{Start: 0, End: 3}, left.Span)
	assert.Equal(t, nlp.Span{Start: 0, End: 1}, run.Get(left.Reduced).Span)
	assert.Equal(t, chain[4], left.Derivation)
	assert.Equal(t, 0, left.Head)
	assert.Equal(t, "(S a (NP b c))", run.Tree(best).String())
}

var toyWeights = map[string]float64{
	"UNARY":                -1,
	"REDUCE-RIGHT":         -0.25,
	"REDUCE-LEFT NP dog":   2,
	"REDUCE-LEFT NP the":   0.3,
	"REDUCE-LEFT S the":    0.5,
	"REDUCE-RIGHT S barks": 0.7,
	"SHIFT _ barks":        0.1,
}

var toySentences = [][]string{
	{"barks"},
	{"the", "dog"},
	{"the", "dog", "barks"},
	{"the", "big", "dog", "barks", "loudly"},
}

// checkDerivation verifies the invariants every completed derivation holds.
func checkDerivation(t *testing.T, run *Run, h arena.Handle, unaries int) {
	n := len(run.Words)
	chain := run.States.Chain(h)
	last := run.Get(h)
	require.Equal(t, last.Step+1, len(chain))
	assert.True(t, run.Get(chain[0]).Operation.IsAxiom())

	var shifts, finalStep int
	for i := 1; i < len(chain); i++ {
		prev, cur := run.Get(chain[i-1]), run.Get(chain[i])
		assert.Equal(t, prev.Step+1, cur.Step)
		assert.LessOrEqual(t, cur.Span.Start, cur.Span.End)
		if cur.Operation.IsShift() {
			shifts++
			assert.Equal(t, prev.Next+1, cur.Next)
		} else {
			assert.Equal(t, prev.Next, cur.Next)
		}
		if cur.Operation.IsReduce() {
			assert.Equal(t, run.Get(cur.Reduced).Span.Union(prev.Span), cur.Span)
		}
		if cur.Operation.IsFinal() {
			finalStep = cur.Step
		}
	}
	assert.Equal(t, n, shifts)
	assert.Positive(t, finalStep)
	assert.LessOrEqual(t, finalStep, MaxStep(n, unaries))
	assert.LessOrEqual(t, last.Unary, unaries*n)
}

func TestParseInvariants(t *testing.T) {
	for _, labels := range [][]string{{"S"}, {"NP", "S"}} {
		for _, unaries := range []int{0, 1, 2} {
			m := toyModel(64, 4, unaries, labels...)
			p := toyParser(m, toyWeights)
			for _, words := range toySentences {
				run, err := p.Parse(words)
				require.NoError(t, err)
				finished := run.Finished()
				if unaries == 0 && len(words) == 1 {
					assert.Empty(t, finished, "a single word needs a unary to become S")
					continue
				}
				if len(labels) == 1 {
					// every complete constituent is an S, so search cannot dead end
					require.NotEmpty(t, finished, "%v U=%d", words, unaries)
				}
				assert.LessOrEqual(t, len(finished), 4)
				for _, h := range finished {
					checkDerivation(t, run, h, unaries)
					tree := run.Tree(h)
					assert.Equal(t, words, tree.Yield())
					assert.Equal(t, "S", tree.Label)
				}
			}
		}
	}
}

func TestParseBestScore(t *testing.T) {
	p := toyParser(toyModel(16, 4, 1, "NP", "S"), toyWeights)
	run, err := p.Parse([]string{"the", "dog", "barks"})
	require.NoError(t, err)
	best, ok := run.Best()
	require.True(t, ok)
	// NP(dog barks) is worth 2, S(the NP) 0.5 and shifting barks 0.1
	assert.Equal(t, "(S the (NP dog barks))", run.Tree(best).String())
	assert.InDelta(t, 2.6, run.Get(best).Score, 1e-9)

	scores := make([]float64, 0)
	for _, h := range run.Finished() {
		scores = append(scores, run.Get(h).Score)
	}
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i-1], scores[i])
	}
}

func TestPruningBound(t *testing.T) {
	const beam, kbest = 3, 2
	p := toyParser(toyModel(beam, kbest, 1, "NP", "S"), toyWeights)
	for _, words := range toySentences {
		run, err := p.Parse(words)
		require.NoError(t, err)
		for s := 0; s < run.Agenda.Len(); s++ {
			bound := beam
			if s == run.Step || s == run.Agenda.Len()-1 {
				bound = kbest
			}
			assert.LessOrEqual(t, run.Agenda.At(s).Len(), bound, "step %d", s)
		}
	}
}

func TestPad(t *testing.T) {
	words := []string{"the", "dog", "barks"}
	m := toyModel(4, 2, 1, "NP", "VP", "S")
	p := toyParser(m, toyWeights)
	p.Pad = true

	cand, err := p.Parse(words)
	require.NoError(t, err)
	assert.Equal(t, MaxStep(3, 1), cand.Step)
	best, ok := cand.Best()
	require.True(t, ok)
	assert.True(t, cand.Get(best).Operation.IsIdle())

	p2 := toyParser(m, toyWeights)
	p2.Pad = true
	gold, _, err := p2.Oracle(simpleTree, nlp.BinarizeLeft)
	require.NoError(t, err)
	assert.Equal(t, cand.Agenda.Len(), gold.Agenda.Len())
	assert.Equal(t, MaxStep(3, 1), gold.Step)
	g, ok := gold.Best()
	require.True(t, ok)
	assert.True(t, simpleTree.Equal(gold.Tree(g)))
}

func TestExhaustedSearch(t *testing.T) {
	p := toyParser(toyModel(4, 2, 0, "NP", "S"), nil)
	run, err := p.Parse([]string{"barks"})
	require.NoError(t, err)
	_, ok := run.Best()
	assert.False(t, ok)

	run, err = p.Parse(nil)
	require.NoError(t, err)
	_, ok = run.Best()
	assert.False(t, ok)

	_, err = toyParser(toyModel(0, 2, 0, "S"), nil).Parse([]string{"a"})
	assert.Error(t, err)
}

func TestConcurrentMatchesSequential(t *testing.T) {
	m := toyModel(6, 3, 1, "NP", "S")
	seq, conc := toyParser(m, toyWeights), toyParser(m, toyWeights)
	conc.Concurrent = true
	for _, words := range toySentences {
		a, err := seq.Parse(words)
		require.NoError(t, err)
		b, err := conc.Parse(words)
		require.NoError(t, err)
		fa, fb := a.Finished(), b.Finished()
		require.Equal(t, len(fa), len(fb))
		for i := range fa {
			assert.Equal(t, a.Actions(fa[i]), b.Actions(fb[i]))
			assert.Equal(t, a.Get(fa[i]).Score, b.Get(fb[i]).Score)
		}
	}
}

func TestForest(t *testing.T) {
	p := toyParser(toyModel(4, 1, 1, "NP", "VP", "S"), nil)
	run, _, err := p.Oracle(simpleTree, nlp.BinarizeLeft)
	require.NoError(t, err)
	best, _ := run.Best()
	f := run.Forest([]arena.Handle{best, best})
	require.Len(t, f.Roots, 1)
	assert.Equal(t, simpleTree.Size(), f.Len())
	assert.True(t, simpleTree.Equal(f.Tree(f.Roots[0])))

	words := []string{"the", "dog", "barks"}
	p = toyParser(toyModel(16, 8, 1, "NP", "S"), toyWeights)
	run, err = p.Parse(words)
	require.NoError(t, err)
	finished := run.Finished()
	require.Greater(t, len(finished), 1)
	f = run.Forest(finished)
	require.NotEmpty(t, f.Roots)
	assert.LessOrEqual(t, len(f.Roots), len(finished))

	var size int
	for _, h := range finished {
		size += run.Tree(h).Size()
	}
	assert.Less(t, f.Len(), size, "shared sub-derivations are packed")
	leaves := 0
	for h := arena.Handle(0); int(h) < f.Len(); h++ {
		if f.Get(h).Leaf {
			leaves++
		}
	}
	assert.Equal(t, len(words), leaves)
	for _, r := range f.Roots {
		assert.Equal(t, words, f.Tree(r).Yield())
	}
}

func TestStates(t *testing.T) {
	s := NewStates(3)
	axiom := s.Axiom()
	assert.Equal(t, 0, s.Depth(axiom))
	h, st := s.New()
	st.Operation = transition.SHIFT
	st.Stack = axiom
	st.Derivation = axiom
	st.Hidden[0] = 7
	assert.Equal(t, 1, s.Depth(h))
	assert.Equal(t, []arena.Handle{axiom, h}, s.Chain(h))

	c := s.Clone(h)
	s.Get(c).Hidden[0] = 9
	assert.Equal(t, 7.0, s.Get(h).Hidden[0])
	s.Release(c)
	assert.Equal(t, 2, s.Len())

	s.Clear()
	assert.Zero(t, s.Len())
	fresh, st := s.New()
	assert.Equal(t, arena.Nil, st.Stack)
	assert.Equal(t, []float64{0, 0, 0}, s.Get(fresh).Hidden)
}
