package learn

import (
	"srparse/nlp/parser/constituency"
	"srparse/nlp/parser/constituency/objective"
)

// Model is a trainable scoring model. Parameters are read only while a batch
// is decoded; gradients are accumulated into zero copies obtained from New.
type Model interface {
	constituency.Model
	constituency.Scorer

	New() Model
	Copy() Model
	AddModel(Model)
	ScalarDivide(float64)

	// Gradient adds to into the parameter derivatives of the error signal in
	// b, whose handles address run.
	Gradient(run *constituency.Run, b *objective.Backward, into Model)
	// Apply moves the parameters against gradient.
	Apply(gradient Model, rate float64)
	// SetRunID stamps the training run; models built by New and Copy
	// carry it along.
	SetRunID(id string)
}

type UpdateStrategy interface {
	Init(m Model, iterations int)
	Update(model Model)
	Finalize(m Model) Model
}

type TrivialStrategy struct{}

func (u *TrivialStrategy) Init(m Model, iterations int) {

}

func (u *TrivialStrategy) Update(m Model) {

}

func (u *TrivialStrategy) Finalize(m Model) Model {
	return m
}

// AveragedStrategy returns the average of the parameters seen after every
// update.
type AveragedStrategy struct {
	P, N       float64
	accumModel Model
}

func (u *AveragedStrategy) Init(m Model, iterations int) {
	u.N = 0
	u.P = float64(iterations)
	u.accumModel = m.New()
}

func (u *AveragedStrategy) Update(m Model) {
	u.accumModel.AddModel(m)
	u.N += 1
}

func (u *AveragedStrategy) Finalize(m Model) Model {
	if u.N == 0 {
		return m
	}
	u.accumModel.ScalarDivide(u.N)
	return u.accumModel
}
