package learn

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sentencesTotal counts training sentences by result
	sentencesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srparse_train_sentences_total",
		Help: "Training sentences processed by result (correct, incorrect, skipped)",
	}, []string{"result"})

	// violationsTotal counts sentences whose objective found a violation
	violationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srparse_train_violations_total",
		Help: "Training sentences with a positive loss by objective",
	}, []string{"objective"})

	// lossHistogram tracks the loss of violating sentences
	lossHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "srparse_train_loss",
		Help:    "Objective loss per violating training sentence",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
