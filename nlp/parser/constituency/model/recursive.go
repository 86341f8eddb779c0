// Package model implements a recursive neural scorer for the constituency
// parser. The hidden vector of a state is computed from the hidden vectors of
// the constituents it consumes and the embedding of its head word:
//
//	h     = tanh(W_k [left; right; e(word)] + b_{k,l})
//	score = v_{k,l} . h + c_{k,l}
//
// where k is the operation kind and l the label. Missing inputs are zero.
package model

import (
	"fmt"
	"math"
	"math/rand"

	"srparse/alg/learn"
	"srparse/alg/transition"
	"srparse/nlp/parser/constituency"
	nlp "srparse/nlp/types"
	"srparse/util"
)

// Unknown is the word at index 0 of every vocabulary.
const Unknown = "<unk>"

const numKinds = int(transition.IDLE) + 1

type Recursive struct {
	constituency.Descriptor
	Words *util.EnumSet

	Embed []float64 // words x H
	W     []float64 // kinds x H x 3H
	B     []float64 // kinds x labels x H
	V     []float64 // kinds x labels x H
	C     []float64 // kinds x labels

	// RunID identifies the training run that produced the parameters.
	RunID string
}

var (
	_ learn.Model         = &Recursive{}
	_ constituency.Model  = &Recursive{}
	_ constituency.Scorer = &Recursive{}
)

// Vocabulary interns the words of trees after Unknown and freezes the set.
func Vocabulary(trees []*nlp.Tree) *util.EnumSet {
	words := util.NewEnumSet(1024)
	words.Add(Unknown)
	for _, t := range trees {
		for _, w := range t.Yield() {
			words.Add(w)
		}
	}
	words.Frozen = true
	return words
}

// NewRecursive creates a model with zero parameters shaped for d and words.
func NewRecursive(d constituency.Descriptor, words *util.EnumSet) *Recursive {
	h, rows := d.Hidden, numKinds*d.LabelSet.Len()
	return &Recursive{
		Descriptor: d,
		Words:      words,
		Embed:      make([]float64, words.Len()*h),
		W:          make([]float64, numKinds*h*3*h),
		B:          make([]float64, rows*h),
		V:          make([]float64, rows*h),
		C:          make([]float64, rows),
	}
}

// Randomize draws the embeddings and weights uniformly from a range scaled
// by the layer width. Biases stay zero.
func (m *Recursive) Randomize(seed int64) {
	r := rand.New(rand.NewSource(seed))
	fill := func(p []float64, scale float64) {
		for i := range p {
			p[i] = (2*r.Float64() - 1) * scale
		}
	}
	h := float64(m.Hidden)
	if h == 0 {
		return
	}
	fill(m.Embed, 1/math.Sqrt(h))
	fill(m.W, 1/math.Sqrt(3*h))
	fill(m.V, 1/math.Sqrt(h))
}

func (m *Recursive) params() [][]float64 {
	return [][]float64{m.Embed, m.W, m.B, m.V, m.C}
}

// Check verifies that the parameter shapes agree with the descriptor and
// vocabulary.
func (m *Recursive) Check() error {
	if m.LabelSet == nil || m.Words == nil {
		return fmt.Errorf("model without label set or vocabulary")
	}
	shape := NewRecursive(m.Descriptor, m.Words)
	names := []string{"embeddings", "weights", "biases", "output weights", "output biases"}
	for i, p := range m.params() {
		if want := len(shape.params()[i]); len(p) != want {
			return fmt.Errorf("%s have %d parameters, expected %d", names[i], len(p), want)
		}
	}
	return nil
}

func (m *Recursive) word(w string) int {
	return m.Words.IndexOr(w, 0)
}

// index returns the kind and the kind x label row of an operation.
func (m *Recursive) index(op transition.Operation, label constituency.Label) (int, int) {
	k := int(op.Kind())
	return k, k*m.LabelSet.Len() + int(label)
}

// input fills x with [left; right; e(word)].
func (m *Recursive) input(in *constituency.Input, x []float64) {
	h := m.Hidden
	clear(x)
	copy(x[:h], in.Left)
	copy(x[h:2*h], in.Right)
	w := m.word(in.Word)
	copy(x[2*h:], m.Embed[w*h:(w+1)*h])
}

func (m *Recursive) Score(in *constituency.Input, hidden []float64) float64 {
	h := m.Hidden
	x := make([]float64, 3*h)
	m.input(in, x)
	k, row := m.index(in.Operation, in.Label)
	w := m.W[k*h*3*h : (k+1)*h*3*h]
	b, v := m.B[row*h:(row+1)*h], m.V[row*h:(row+1)*h]
	score := m.C[row]
	for i := 0; i < h; i++ {
		a := b[i]
		for j, xj := range x {
			a += w[i*3*h+j] * xj
		}
		hidden[i] = math.Tanh(a)
		score += v[i] * hidden[i]
	}
	return score
}

// New returns a model of the same shape with zero parameters.
func (m *Recursive) New() learn.Model {
	n := NewRecursive(m.Descriptor, m.Words)
	n.RunID = m.RunID
	return n
}

func (m *Recursive) SetRunID(id string) { m.RunID = id }

func (m *Recursive) Copy() learn.Model {
	n := m.New().(*Recursive)
	n.AddModel(m)
	return n
}

func (m *Recursive) AddModel(other learn.Model) {
	o := other.(*Recursive)
	op := o.params()
	for i, p := range m.params() {
		for j := range p {
			p[j] += op[i][j]
		}
	}
}

func (m *Recursive) ScalarDivide(d float64) {
	for _, p := range m.params() {
		for j := range p {
			p[j] /= d
		}
	}
}

func (m *Recursive) Apply(gradient learn.Model, rate float64) {
	gp := gradient.(*Recursive).params()
	for i, p := range m.params() {
		for j := range p {
			p[j] -= rate * gp[i][j]
		}
	}
}

// Norm is the euclidean norm of all parameters.
func (m *Recursive) Norm() float64 {
	var sum float64
	for _, p := range m.params() {
		for _, x := range p {
			sum += x * x
		}
	}
	return math.Sqrt(sum)
}
