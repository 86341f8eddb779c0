// Package learn trains a scoring model from treebank trees with mini-batch
// gradient descent on a structured objective.
package learn

import (
	"context"
	"errors"
	"fmt"
	"log"

	"srparse/nlp/parser/constituency"
	"srparse/nlp/parser/constituency/objective"
	nlp "srparse/nlp/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TrainAllOut logs every sentence.
var TrainAllOut bool = false

type StopCondition func(curIt, numIt, generations int, model Model) bool

func DefaultStopCondition(iteration, iterations, generations int, model Model) bool {
	return iteration < iterations
}

// Stats summarizes the sentences of one iteration.
type Stats struct {
	Sentences  int
	Correct    int
	Skipped    int
	Violations int
	Loss       float64
}

func (s *Stats) Add(other Stats) {
	s.Sentences += other.Sentences
	s.Correct += other.Correct
	s.Skipped += other.Skipped
	s.Violations += other.Violations
	s.Loss += other.Loss
}

func (s Stats) String() string {
	return fmt.Sprintf("sentences %d correct %d skipped %d violations %d loss %.4f",
		s.Sentences, s.Correct, s.Skipped, s.Violations, s.Loss)
}

// Trainer decodes every tree twice, unconstrained and along its gold
// derivation, and descends the gradient of the objective between the two
// runs. Sentences of a batch are spread over Workers goroutines, each with
// its own parsers, arenas and gradient; the gradients are summed and applied
// once per batch.
type Trainer struct {
	Model        Model
	Objective    objective.Objective
	Updater      UpdateStrategy
	Binarization nlp.Binarization
	Iterations   int
	BatchSize    int
	Workers      int
	Rate         float64
	Pad          bool
	Concurrent   bool
	Log          bool

	// RunID names the run in log prefixes; a random one is drawn by Init.
	RunID string

	FailedInstances int
	Continue        StopCondition

	// Last holds the statistics of the last iteration.
	Last Stats

	workers []*worker
}

func (t *Trainer) Init(newModel Model) {
	t.Model = newModel
	if t.RunID == "" {
		t.RunID = uuid.NewString()
	}
	if t.Updater == nil {
		t.Updater = &TrivialStrategy{}
	}
	if t.Continue == nil {
		t.Continue = DefaultStopCondition
	}
	t.Model.SetRunID(t.RunID)
	t.Updater.Init(t.Model, t.Iterations)
}

// Train runs the iterations over trees and returns the final model, the
// average model under AveragedStrategy.
func (t *Trainer) Train(ctx context.Context, trees []*nlp.Tree) (Model, error) {
	if t.Model == nil {
		panic("Model not initialized")
	}
	if t.BatchSize < 1 || t.Workers < 1 {
		return nil, fmt.Errorf("batch size %d and workers %d must be positive", t.BatchSize, t.Workers)
	}
	t.workers = make([]*worker, t.Workers)
	for i := range t.workers {
		t.workers[i] = newWorker(t)
	}
	prevPrefix := log.Prefix()
	defer log.SetPrefix(prevPrefix)
	id := t.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	var generations int
	for i := 0; t.Continue(i, t.Iterations, generations, t.Model); i++ {
		log.SetPrefix(fmt.Sprintf("IT #%d %s ", i, id) + prevPrefix)
		var stats Stats
		for start := 0; start < len(trees); start += t.BatchSize {
			batch := trees[start:min(start+t.BatchSize, len(trees))]
			s, err := t.batch(ctx, batch)
			if err != nil {
				return nil, err
			}
			stats.Add(s)
			generations++
			t.Updater.Update(t.Model)
		}
		if i == 0 {
			t.FailedInstances = stats.Skipped
		}
		t.Last = stats
		if t.Log {
			log.Println(stats)
		}
	}
	t.Model = t.Updater.Finalize(t.Model)
	return t.Model, nil
}

func (t *Trainer) batch(ctx context.Context, trees []*nlp.Tree) (Stats, error) {
	n := min(t.Workers, len(trees))
	g, gCtx := errgroup.WithContext(ctx)
	for w := 0; w < n; w++ {
		w := w
		wk := t.workers[w]
		wk.reset()
		g.Go(func() error {
			for i := w; i < len(trees); i += n {
				if err := gCtx.Err(); err != nil {
					return err
				}
				if err := wk.learn(trees[i]); err != nil {
					return fmt.Errorf("sentence %d of batch: %w", i, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	grad, stats := t.workers[0].grad, t.workers[0].stats
	for _, wk := range t.workers[1:n] {
		grad.AddModel(wk.grad)
		stats.Add(wk.stats)
	}
	grad.ScalarDivide(float64(len(trees)))
	t.Model.Apply(grad, t.Rate)
	return stats, nil
}

type worker struct {
	t                   *Trainer
	candidates, oracles *constituency.Parser
	cb, ob              *objective.Backward
	grad                Model
	stats               Stats
}

func newWorker(t *Trainer) *worker {
	w := &worker{
		t:          t,
		candidates: constituency.NewParser(t.Model, t.Model),
		oracles:    constituency.NewParser(t.Model, t.Model),
		cb:         objective.NewBackward(),
		ob:         objective.NewBackward(),
	}
	w.candidates.Pad, w.oracles.Pad = t.Pad, t.Pad
	w.candidates.Concurrent = t.Concurrent
	return w
}

func (w *worker) reset() {
	w.grad = w.t.Model.New()
	w.stats = Stats{}
}

// skippable errors make a tree unusable for training without failing the run.
func skippable(err error) bool {
	return errors.Is(err, constituency.ErrIllegal) ||
		errors.Is(err, constituency.ErrUnknownLabel) ||
		errors.Is(err, constituency.ErrNotBinary)
}

func (w *worker) learn(tree *nlp.Tree) error {
	t := w.t
	oracles, _, err := w.oracles.Oracle(tree, t.Binarization)
	if err != nil {
		if !skippable(err) {
			return err
		}
		if t.Log {
			log.Println("Skipped", tree, err)
		}
		w.stats.Skipped++
		sentencesTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	candidates, err := w.candidates.Parse(oracles.Words)
	if err != nil {
		return err
	}
	w.cb.Clear()
	w.ob.Clear()
	result, err := t.Objective.Compute(candidates, oracles, w.cb, w.ob)
	if err != nil {
		return err
	}
	w.stats.Sentences++
	gold, _ := oracles.Best()
	if best, ok := candidates.Best(); ok && candidates.Tree(best).Equal(oracles.Tree(gold)) {
		w.stats.Correct++
		sentencesTotal.WithLabelValues("correct").Inc()
	} else {
		sentencesTotal.WithLabelValues("incorrect").Inc()
	}
	if !result.Found {
		return nil
	}
	w.stats.Violations++
	w.stats.Loss += result.Loss
	violationsTotal.WithLabelValues(t.Objective.Name()).Inc()
	lossHistogram.Observe(result.Loss)
	if TrainAllOut {
		log.Printf("Violation at step %d of %d; loss %v", result.Step, candidates.Agenda.Len()-1, result.Loss)
	}
	t.Model.Gradient(candidates, w.cb, w.grad)
	t.Model.Gradient(oracles, w.ob, w.grad)
	return nil
}
