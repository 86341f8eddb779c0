package objective

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"srparse/alg/arena"
	"srparse/alg/search"
	"srparse/nlp/parser/constituency"
	nlp "srparse/nlp/types"
	"srparse/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weights struct {
	labels *util.EnumSet
	table  map[string]float64
}

func (w *weights) Score(in *constituency.Input, hidden []float64) float64 {
	kind := in.Operation.String()
	if in.Operation.IsUnary() {
		kind = "UNARY"
	}
	label := w.labels.ValueOf(int(in.Label))
	score := w.table[kind] + w.table[kind+" "+label] + w.table[kind+" "+label+" "+in.Word]
	for i := range hidden {
		hidden[i] = score
	}
	return score
}

var gold = nlp.Node("S", nlp.Node("NP", nlp.Leaf("the"), nlp.Leaf("dog")), nlp.Leaf("barks"))

// decode runs the candidate and oracle searches of gold on separate parsers.
func decode(t *testing.T, beam int, table map[string]float64) (*constituency.Run, *constituency.Run) {
	labels := constituency.NewLabels("NP", "S")
	goal, _ := constituency.LabelOf(labels, "S")
	m := &constituency.Descriptor{Beam: beam, K: beam, Unaries: 1, Hidden: 1, Goal: goal, LabelSet: labels}
	scorer := &weights{labels, table}

	cp := constituency.NewParser(m, scorer)
	cp.Pad = true
	candidates, err := cp.Parse(gold.Yield())
	require.NoError(t, err)

	op := constituency.NewParser(m, scorer)
	op.Pad = true
	oracles, _, err := op.Oracle(gold, nlp.BinarizeLeft)
	require.NoError(t, err)
	return candidates, oracles
}

func TestMarginError(t *testing.T) {
	assert.Equal(t, 0.0, MarginError(1, 1))
	assert.Equal(t, 0.0, MarginError(2, 1))
	assert.Equal(t, 1.5, MarginError(1, 1.5))
	assert.Equal(t, 3.0, MarginError(0, 2))
}

func TestProbabilities(t *testing.T) {
	probs := probabilities([]search.Scored[arena.Handle]{{Value: 0, Score: 1000}, {Value: 1, Score: 1000}, {Value: 2, Score: -1000}}, 1)
	assert.InDelta(t, 0.5, probs[0], 1e-12)
	assert.InDelta(t, 0.5, probs[1], 1e-12)
	assert.InDelta(t, 0, probs[2], 1e-12)
	assert.Empty(t, probabilities(nil, 1))
}

func TestMax(t *testing.T) {
	table := map[string]float64{
		"REDUCE-LEFT NP dog": 2,
		"UNARY":              -5,
		"REDUCE-RIGHT":       -10,
	}
	candidates, oracles := decode(t, 4, table)
	best, ok := candidates.Best()
	require.True(t, ok)
	assert.Equal(t, "(S the (NP dog barks))", candidates.Tree(best).String())
	assert.Equal(t, 2.0, candidates.Get(best).Score)
	require.Equal(t, candidates.Agenda.Len(), oracles.Agenda.Len())

	cb, ob := NewBackward(), NewBackward()
	obj, err := New("max", 1)
	require.NoError(t, err)
	result, err := obj.Compute(candidates, oracles, cb, ob)
	require.NoError(t, err)

	// the candidate beam at step 4 scores 2, 0, 0, 0 against a gold 0
	p := math.Exp(2) / (math.Exp(2) + 3)
	assert.True(t, result.Found)
	assert.Equal(t, 4, result.Step)
	assert.InDelta(t, 3*p, result.Loss, 1e-9)
	require.Equal(t, 1, cb.Len())
	require.Equal(t, 1, ob.Len())
	assert.InDelta(t, p, cb.Total(), 1e-9)
	assert.InDelta(t, -p, ob.Total(), 1e-9)
	assert.Equal(t, []int{4}, cb.Steps())
	for h := range cb.Entries {
		assert.Equal(t, 4, candidates.Get(h).Step)
	}
}

// steps of a beam 1 run against the oracle (the dog) barks:
//
//	step      1    2    3    4    5
//	candidate 0.5  1.0  1.5  3.5  3.5
//	oracle    0.5  1.0  1.0  1.5  1.5
var policyTable = map[string]float64{
	"REDUCE-LEFT NP dog": 2,
	"UNARY":              -5,
	"REDUCE-RIGHT":       -10,
	"SHIFT":              0.5,
}

func TestStepPolicies(t *testing.T) {
	candidates, oracles := decode(t, 1, policyTable)
	for _, tc := range []struct {
		name string
		step int
		loss float64
	}{
		{"early", 3, 1.5},
		{"max", 4, 3},
		{"late", 5, 3},
	} {
		obj, err := New(tc.name, 1)
		require.NoError(t, err)
		cb, ob := NewBackward(), NewBackward()
		result, err := obj.Compute(candidates, oracles, cb, ob)
		require.NoError(t, err)
		assert.True(t, result.Found, tc.name)
		assert.Equal(t, tc.step, result.Step, tc.name)
		assert.InDelta(t, tc.loss, result.Loss, 1e-9, tc.name)
		assert.Equal(t, []int{tc.step}, cb.Steps(), tc.name)
		assert.Equal(t, 1, cb.Len(), tc.name)
		assert.InDelta(t, 1, cb.Total(), 1e-9, tc.name)
		assert.InDelta(t, -1, ob.Total(), 1e-9, tc.name)
		for h := range cb.Entries {
			assert.Equal(t, tc.step, candidates.Get(h).Step, tc.name)
		}
	}
}

func TestExpectedLoss(t *testing.T) {
	const scale = 2
	table := map[string]float64{
		"REDUCE-LEFT NP dog": 2,
		"UNARY":              -5,
		"REDUCE-RIGHT":       -10,
	}
	candidates, oracles := decode(t, 8, table)
	finished := candidates.Finished()
	require.GreaterOrEqual(t, len(finished), 2)
	golds := []*nlp.Tree{gold}

	for name, loss := range map[string]LossFunc{"evalb": LabeledF1Loss, "cross": CrossingLoss} {
		var (
			z        float64
			expected float64
			probs    = make([]float64, len(finished))
			losses   = make([]float64, len(finished))
		)
		for i, h := range finished {
			probs[i] = math.Exp(scale * candidates.Get(h).Score)
			z += probs[i]
			losses[i] = loss(golds, nlp.Debinarize(candidates.Tree(h)))
		}
		for i := range probs {
			probs[i] /= z
			expected += probs[i] * losses[i]
		}
		require.Greater(t, expected, 0.0, name)

		obj, err := New(name, scale)
		require.NoError(t, err)
		cb, ob := NewBackward(), NewBackward()
		result, err := obj.Compute(candidates, oracles, cb, ob)
		require.NoError(t, err)
		assert.True(t, result.Found, name)
		assert.Equal(t, candidates.Step, result.Step, name)
		assert.InDelta(t, expected, result.Loss, 1e-9, name)
		assert.Zero(t, ob.Len(), name)
		for i, h := range finished {
			assert.InDelta(t, scale*probs[i]*(losses[i]-expected), cb.Get(h).Loss, 1e-9, name)
		}
	}
}

func TestLateAndAll(t *testing.T) {
	table := map[string]float64{
		"REDUCE-LEFT NP dog": 2,
		"UNARY":              -5,
		"REDUCE-RIGHT":       -10,
	}
	candidates, oracles := decode(t, 4, table)
	last := candidates.Agenda.Len() - 1

	late, _ := New("late", 1)
	cb, ob := NewBackward(), NewBackward()
	result, err := late.Compute(candidates, oracles, cb, ob)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, last, result.Step)
	assert.Equal(t, 1, cb.Len())

	all, _ := New("all", 1)
	cb, ob = NewBackward(), NewBackward()
	result, err = all.Compute(candidates, oracles, cb, ob)
	require.NoError(t, err)
	assert.Equal(t, last, result.Step)
	assert.GreaterOrEqual(t, cb.Len(), 1)
	assert.InDelta(t, cb.Total(), -ob.Total(), 1e-9)
}

func TestNoViolation(t *testing.T) {
	// gold wins every step
	table := map[string]float64{
		"REDUCE-LEFT NP the": 3,
		"REDUCE-LEFT S the":  3,
		"UNARY":              -5,
		"REDUCE-RIGHT":       -10,
		"REDUCE-LEFT NP dog": -10,
		"REDUCE-LEFT S dog":  -10,
	}
	candidates, oracles := decode(t, 8, table)
	for _, name := range []string{"early", "late", "all", "max"} {
		obj, err := New(name, 1)
		require.NoError(t, err)
		cb, ob := NewBackward(), NewBackward()
		result, err := obj.Compute(candidates, oracles, cb, ob)
		require.NoError(t, err)
		assert.False(t, result.Found, name)
		assert.Equal(t, -1, result.Step, name)
		assert.Zero(t, cb.Len(), name)
		assert.Zero(t, ob.Len(), name)
	}
}

func TestNonNegative(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	keys := []string{"SHIFT", "UNARY", "FINAL", "REDUCE-LEFT", "REDUCE-RIGHT"}
	for _, k := range []string{"REDUCE-LEFT", "REDUCE-RIGHT", "UNARY"} {
		for _, l := range []string{"NP", "S"} {
			keys = append(keys, k+" "+l)
			for _, w := range gold.Yield() {
				keys = append(keys, k+" "+l+" "+w)
			}
		}
	}
	for round := 0; round < 20; round++ {
		table := make(map[string]float64, len(keys))
		for _, k := range keys {
			table[k] = r.NormFloat64()
		}
		candidates, oracles := decode(t, 1+r.Intn(6), table)
		for _, name := range []string{"early", "late", "all", "max", "evalb", "cross"} {
			obj, err := New(name, 1)
			require.NoError(t, err)
			assert.Equal(t, name, obj.Name())
			cb, ob := NewBackward(), NewBackward()
			result, err := obj.Compute(candidates, oracles, cb, ob)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, result.Loss, 0.0, name)
			assert.Equal(t, result.Found, result.Step >= 0, name)
			switch name {
			case "evalb", "cross":
				assert.Zero(t, ob.Len(), name)
				assert.InDelta(t, 0, cb.Total(), 1e-9, name)
			default:
				assert.GreaterOrEqual(t, cb.Total(), 0.0, name)
				assert.LessOrEqual(t, ob.Total(), 0.0, name)
			}
		}
	}
}

func TestBeamMismatch(t *testing.T) {
	candidates, oracles := decode(t, 2, nil)
	oracles.Agenda.Buckets = oracles.Agenda.Buckets[:3]
	for _, name := range []string{"early", "late", "all", "max", "evalb", "cross"} {
		obj, _ := New(name, 1)
		_, err := obj.Compute(candidates, oracles, NewBackward(), NewBackward())
		assert.True(t, errors.Is(err, ErrBeamMismatch), name)
	}
	_, err := New("nope", 1)
	assert.Error(t, err)
}

func TestBackward(t *testing.T) {
	b := NewBackward()
	b.Accumulate(1, 0.5)
	b.Accumulate(1, 0.25)
	b.Visit(2)
	b.Visit(5)

	other := NewBackward()
	other.Accumulate(3, -1)
	other.Get(1).Delta = []float64{1, 2}
	other.Visit(3)
	b.Merge(other)

	assert.Equal(t, 2, b.Len())
	assert.InDelta(t, -0.25, b.Total(), 1e-12)
	assert.Equal(t, []float64{1, 2}, b.Get(arena.Handle(1)).Delta)
	assert.Equal(t, []int{5, 3, 2}, b.Steps())

	b.Clear()
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Steps())
}

func TestLosses(t *testing.T) {
	test := nlp.Node("S", nlp.Leaf("the"), nlp.Node("NP", nlp.Leaf("dog"), nlp.Leaf("barks")))
	assert.Equal(t, 0.0, LabeledF1Loss([]*nlp.Tree{gold}, gold))
	assert.InDelta(t, 0.5, LabeledF1Loss([]*nlp.Tree{gold}, test), 1e-12)
	assert.Equal(t, 0.0, LabeledF1Loss([]*nlp.Tree{test, gold}, test))
	assert.Equal(t, 1.0, CrossingLoss([]*nlp.Tree{gold}, test))

	word := nlp.Node("S", nlp.Leaf("barks"))
	assert.Equal(t, 0.0, LabeledF1Loss([]*nlp.Tree{word}, word))
	unary := nlp.Node("S", nlp.Node("VP", nlp.Leaf("barks")))
	assert.Equal(t, 0.0, LabeledF1Loss([]*nlp.Tree{unary}, unary))
	assert.Equal(t, 0.0, CrossingLoss([]*nlp.Tree{gold, test}, test))
}
