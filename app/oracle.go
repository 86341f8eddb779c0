package app

import (
	"errors"
	"fmt"
	"io"
	"log"

	"srparse/alg/transition"
	"srparse/nlp/parser/constituency"
	"srparse/nlp/parser/constituency/model"
	nlp "srparse/nlp/types"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
)

// OracleActions extracts the gold derivation of every tree. With a parser the
// derivations are also replayed, so labels unknown to its model and illegal
// trees are reported.
func OracleActions(trees []*nlp.Tree, dir nlp.Binarization, parser *constituency.Parser) ([]transition.Actions, error) {
	derivations := make([]transition.Actions, len(trees))
	var skipped int
	for i, tree := range trees {
		var (
			actions transition.Actions
			err     error
		)
		if parser != nil {
			_, actions, err = parser.Oracle(tree, dir)
		} else {
			actions, _, err = constituency.Extract(nlp.Binarize(tree, dir))
		}
		switch {
		case err == nil:
			derivations[i] = actions
		case errors.Is(err, constituency.ErrIllegal), errors.Is(err, constituency.ErrUnknownLabel):
			log.Println("Skipped tree", i+1, err)
			skipped++
		default:
			return nil, fmt.Errorf("tree %d: %w", i+1, err)
		}
	}
	if skipped > 0 {
		log.Println("Skipped", skipped, "of", len(trees), "trees")
	}
	return derivations, nil
}

func Oracle(cmd *commander.Command, args []string) error {
	dir, err := Binarization()
	if err != nil {
		return err
	}
	var parser *constituency.Parser
	if modelFile != "" {
		m, err := model.ReadModel(modelFile)
		if err != nil {
			return err
		}
		parser = constituency.NewParser(m, m)
	}
	trees, err := readTrees(input)
	if err != nil {
		return err
	}
	if allOut && output != STDIO {
		log.Println("Read", len(trees), "trees from", input)
	}
	derivations, err := OracleActions(trees, dir, parser)
	if err != nil {
		return err
	}
	return writeTo(output, func(w io.Writer) error {
		return transition.WriteActions(w, derivations)
	})
}

func OracleCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Oracle,
		UsageLine: "oracle <file options> [arguments]",
		Short:     "writes the gold derivations of a treebank",
		Long: `
writes the shift-reduce derivation of every binarized tree, an action per line

	$ ./srparse oracle -input <trees> -output <actions> [-model <model>] [-binarize-left|-binarize-right]

`,
		Flag: *flag.NewFlagSet("oracle", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&input, "input", STDIO, "Input Trees File (- for stdin)")
	cmd.Flag.StringVar(&output, "output", STDIO, "Output Actions File (- for stdout)")
	cmd.Flag.StringVar(&modelFile, "model", "", "Optional - Model File to replay the derivations with")
	cmd.Flag.BoolVar(&binarizeLeft, "binarize-left", false, "Left binarization (default)")
	cmd.Flag.BoolVar(&binarizeRight, "binarize-right", false, "Right binarization")
	cmd.Flag.IntVar(&limit, "limit", 0, "limit number of trees")
	return cmd
}
