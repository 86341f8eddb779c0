package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"srparse/alg/learn"
	"srparse/nlp/parser/constituency/model"
	"srparse/nlp/parser/constituency/objective"
	"srparse/util"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TrainConfigOut(c *model.Config, labels []string) {
	log.Println("Configuration")
	log.Printf("Objective:\t\t%s", c.Objective)
	log.Printf("Binarization:\t\t%s", c.Binarize)
	log.Printf("Iterations:\t\t%d", c.Iterations)
	log.Printf("Beam Size:\t\t%d", c.BeamSize)
	log.Printf("K-Best:\t\t%d", c.KBest)
	log.Printf("Unary Limit:\t\t%d", c.UnaryLimit)
	log.Printf("Hidden:\t\t%d", c.Hidden)
	log.Printf("Learning Rate:\t\t%v", c.LearningRate)
	log.Printf("Batch Size:\t\t%d", c.BatchSize)
	log.Printf("Workers:\t\t%d", c.Workers)
	log.Printf("Averaged:\t\t%v", c.Averaged)
	log.Printf("Beam Concurrent:\t%v", c.Concurrent)
	log.Printf("Goal:\t\t\t%s", c.Goal)
	log.Printf("Labels:\t\t%s", strings.Join(labels, " "))
	log.Println()
	log.Println("Data")
	log.Printf("Train file:\t\t%s", input)
	log.Printf("Out model file:\t%s", output)
	if confFile != "" {
		log.Printf("Config file:\t\t%s", confFile)
	}
}

// TrainConfig reads -conf, or the defaults without it, and applies the
// command line overrides.
func TrainConfig() (*model.Config, error) {
	var (
		c   *model.Config
		err error
	)
	if confFile != "" {
		if !VerifyExists(confFile) {
			return nil, fmt.Errorf("missing config file %s", confFile)
		}
		c, err = model.ReadConfigFile(confFile)
	} else {
		c, err = model.ReadConfig(strings.NewReader(""))
	}
	if err != nil {
		return nil, err
	}
	if Iterations > 0 {
		c.Iterations = Iterations
	}
	if objectiveName != "" {
		c.Objective = objectiveName
	}
	if Workers > 0 {
		c.Workers = Workers
	}
	if binarizeLeft || binarizeRight {
		dir, err := Binarization()
		if err != nil {
			return nil, err
		}
		c.Binarize = dir.String()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ServeMetrics exposes the default prometheus registry on addr until ctx is
// done.
func ServeMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		server.Close()
	}()
	go func() {
		log.Println("Serving metrics on", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Println("Metrics server failed:", err)
		}
	}()
}

func Train(cmd *commander.Command, args []string) error {
	if err := VerifyFlags(cmd, []string{"input"}); err != nil {
		return err
	}
	if !VerifyExists(input) {
		return fmt.Errorf("missing training file %s", input)
	}
	c, err := TrainConfig()
	if err != nil {
		return err
	}
	trees, err := readTrees(input)
	if err != nil {
		return err
	}
	labels, err := c.ResolveLabels(trees)
	if err != nil {
		return err
	}
	if allOut {
		TrainConfigOut(c, labels)
		log.Println()
		log.Println("Read", len(trees), "trees from", input)
	}
	m, err := c.Build(trees)
	if err != nil {
		return err
	}
	obj, err := objective.New(c.Objective, c.Scale)
	if err != nil {
		return err
	}
	var updater learn.UpdateStrategy = &learn.TrivialStrategy{}
	if c.Averaged {
		updater = &learn.AveragedStrategy{}
	}
	trainer := &learn.Trainer{
		Objective:    obj,
		Updater:      updater,
		Binarization: c.Binarization(),
		Iterations:   c.Iterations,
		BatchSize:    c.BatchSize,
		Workers:      c.Workers,
		Rate:         c.LearningRate,
		Pad:          c.Pad,
		Concurrent:   c.Concurrent,
		Log:          allOut,
	}
	trainer.Init(m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if metricAddr != "" {
		ServeMetrics(ctx, metricAddr)
	}

	if allOut {
		log.Println("Training", c.Iterations, "iteration(s), run", trainer.RunID)
	}
	startTime := time.Now()
	trained, err := trainer.Train(ctx, trees)
	if err != nil {
		return err
	}
	if debugLevel > 0 {
		util.LogMemory("training")
	}
	if allOut {
		log.Println("TRAIN Total Time:", time.Since(startTime))
		log.Println("Last iteration:", trainer.Last)
		if trainer.FailedInstances > 0 {
			log.Println("Skipped", trainer.FailedInstances, "trees without a legal derivation")
		}
	}
	final := trained.(*model.Recursive)
	if allOut {
		log.Println("Writing model to", output)
	}
	if output == STDIO {
		return final.Save(os.Stdout)
	}
	return model.WriteModel(output, final)
}

func TrainCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Train,
		UsageLine: "train <file options> [arguments]",
		Short:     "trains a parsing model from a treebank",
		Long: `
trains a parsing model from a treebank of parenthesized trees

	$ ./srparse train -input <treebank> -output <model> [-conf <config.yaml>] [-it n] [-objective max|early|late|all|evalb|cross] [-workers w] [-metrics :addr]

`,
		Flag: *flag.NewFlagSet("train", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&confFile, "conf", "", "Optional - Training Configuration File (yaml)")
	cmd.Flag.StringVar(&input, "input", STDIO, "Training Trees File (- for stdin)")
	cmd.Flag.StringVar(&output, "output", STDIO, "Output Model File (- for stdout)")
	cmd.Flag.IntVar(&Iterations, "it", 0, "Number of Iterations (0 = config's)")
	cmd.Flag.StringVar(&objectiveName, "objective", "", "Objective [max, early, late, all, evalb, cross] (empty = config's)")
	cmd.Flag.IntVar(&Workers, "workers", 0, "Number of training workers (0 = config's)")
	cmd.Flag.StringVar(&metricAddr, "metrics", "", "Optional - address to serve prometheus metrics on, e.g. :9090")
	cmd.Flag.BoolVar(&binarizeLeft, "binarize-left", false, "Left binarization (overrides config)")
	cmd.Flag.BoolVar(&binarizeRight, "binarize-right", false, "Right binarization (overrides config)")
	cmd.Flag.IntVar(&limit, "limit", 0, "limit training set")
	return cmd
}
