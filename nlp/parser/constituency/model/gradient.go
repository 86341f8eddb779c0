package model

import (
	"sort"

	"srparse/alg/arena"
	"srparse/alg/learn"
	"srparse/nlp/parser/constituency"
	"srparse/nlp/parser/constituency/objective"
)

// Gradient backpropagates the error signal of b through the derivations of
// run. States are visited last step first: the score of a state includes the
// score of its predecessor, so the score derivative flows down the
// derivation, and the hidden derivative flows into the states whose hidden
// vectors it consumed. The entries of b are extended along the way.
func (m *Recursive) Gradient(run *constituency.Run, b *objective.Backward, into learn.Model) {
	g := into.(*Recursive)
	h := m.Hidden
	pending := make([][]arena.Handle, run.Agenda.Len())
	queued := make(map[arena.Handle]bool, len(b.Entries))
	enqueue := func(s arena.Handle) {
		if queued[s] {
			return
		}
		queued[s] = true
		step := run.Get(s).Step
		pending[step] = append(pending[step], s)
	}
	for s := range b.Entries {
		enqueue(s)
	}

	x := make([]float64, 3*h)
	dx := make([]float64, 3*h)
	da := make([]float64, h)
	for step := len(pending) - 1; step > 0; step-- {
		sort.Slice(pending[step], func(i, j int) bool { return pending[step][i] < pending[step][j] })
		for _, s := range pending[step] {
			e := b.Entries[s]
			if e.Loss == 0 && e.Delta == nil {
				continue
			}
			st := run.Get(s)
			in := run.Input(s)
			m.input(&in, x)
			k, row := m.index(in.Operation, in.Label)
			w := m.W[k*h*3*h : (k+1)*h*3*h]
			gw := g.W[k*h*3*h : (k+1)*h*3*h]
			v := m.V[row*h : (row+1)*h]
			gv, gb := g.V[row*h:(row+1)*h], g.B[row*h:(row+1)*h]

			g.C[row] += e.Loss
			for i := 0; i < h; i++ {
				dh := e.Loss * v[i]
				if e.Delta != nil {
					dh += e.Delta[i]
				}
				gv[i] += e.Loss * st.Hidden[i]
				da[i] = dh * (1 - st.Hidden[i]*st.Hidden[i])
				gb[i] += da[i]
			}
			clear(dx)
			for i := 0; i < h; i++ {
				if da[i] == 0 {
					continue
				}
				for j, xj := range x {
					gw[i*3*h+j] += da[i] * xj
					dx[j] += da[i] * w[i*3*h+j]
				}
			}

			left, right := inputs(st)
			m.push(b, left, dx[:h], enqueue)
			m.push(b, right, dx[h:2*h], enqueue)
			word := m.word(in.Word)
			ge := g.Embed[word*h : (word+1)*h]
			for i, d := range dx[2*h:] {
				ge[i] += d
			}
			if e.Loss != 0 && st.Derivation.Valid() {
				b.Accumulate(st.Derivation, e.Loss)
				enqueue(st.Derivation)
			}
		}
	}
}

// inputs returns the states whose hidden vectors feed st, as in Run.Input.
func inputs(st *constituency.State) (arena.Handle, arena.Handle) {
	switch op := st.Operation; {
	case op.IsAxiom(), op.IsShift():
		return arena.Nil, arena.Nil
	case op.IsReduce():
		return st.Reduced, st.Derivation
	default:
		return st.Derivation, arena.Nil
	}
}

func (m *Recursive) push(b *objective.Backward, s arena.Handle, delta []float64, enqueue func(arena.Handle)) {
	if !s.Valid() {
		return
	}
	e := b.Get(s)
	if e.Delta == nil {
		e.Delta = make([]float64, m.Hidden)
	}
	for i, d := range delta {
		e.Delta[i] += d
	}
	enqueue(s)
}
