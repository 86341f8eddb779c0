package app

import (
	"fmt"
	"io"
	"log"

	"srparse/eval"
	"srparse/nlp/format/ptb"
	nlp "srparse/nlp/types"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
)

func EvalConfigOut() {
	log.Println("Configuration")
	log.Println("Data")
	log.Printf("Gold file:\t\t%s", goldFile)
	log.Printf("Parsed result file:\t%s", testFile)
}

// readParsed reads parser output, a tree per line with blank lines for
// sentences that were not parsed.
func readParsed(name string) ([]*nlp.Tree, error) {
	r, err := openInput(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	trees, err := ptb.ReadLines(r, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return trees, nil
}

// WriteEval prints the corpus totals in the layout of evalb's summary.
func WriteEval(w io.Writer, total *eval.Total) error {
	_, err := fmt.Fprintf(w, `Number of sentence        = %6d
Bracketing Recall         = %6.2f
Bracketing Precision      = %6.2f
Bracketing FMeasure       = %6.2f
Complete match            = %6.2f
Average crossing          = %6.2f
`,
		total.Population,
		100*total.Recall(),
		100*total.Precision(),
		100*total.F1(),
		100*total.ExactMatch(),
		total.AverageCrossing())
	return err
}

func Eval(cmd *commander.Command, args []string) error {
	if err := VerifyFlags(cmd, []string{"gold", "test"}); err != nil {
		return err
	}
	if allOut {
		EvalConfigOut()
	}
	if !VerifyExists(goldFile) || !VerifyExists(testFile) {
		return fmt.Errorf("missing gold or test file")
	}
	gold, err := readTrees(goldFile)
	if err != nil {
		return err
	}
	test, err := readParsed(testFile)
	if err != nil {
		return err
	}
	// trailing blank lines are not sentences
	for len(test) > len(gold) && test[len(test)-1] == nil {
		test = test[:len(test)-1]
	}
	total, err := eval.Corpus(gold, test)
	if err != nil {
		return err
	}
	return writeTo(output, func(w io.Writer) error {
		return WriteEval(w, total)
	})
}

func EvalCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Eval,
		UsageLine: "eval <file options> [arguments]",
		Short:     "scores parsed trees against gold trees",
		Long: `
computes labeled bracket precision, recall and F1 against a gold treebank

	$ ./srparse eval -gold <trees> -test <parsed trees>

`,
		Flag: *flag.NewFlagSet("eval", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&goldFile, "gold", "", "Gold Trees File")
	cmd.Flag.StringVar(&testFile, "test", "", "Parsed Trees File (one tree per line)")
	cmd.Flag.StringVar(&output, "output", STDIO, "Output File (- for stdout)")
	cmd.Flag.IntVar(&limit, "limit", 0, "limit number of gold trees")
	return cmd
}
