package app

import (
	"io"
	"log"

	"srparse/nlp/format/ptb"
	nlp "srparse/nlp/types"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
)

var debinarize bool

func Binarize(cmd *commander.Command, args []string) error {
	if err := VerifyFlags(cmd, []string{"input", "output"}); err != nil {
		return err
	}
	dir, err := Binarization()
	if err != nil {
		return err
	}
	trees, err := readTrees(input)
	if err != nil {
		return err
	}
	if allOut && output != STDIO {
		log.Println("Read", len(trees), "trees from", input)
	}
	results := make([]*nlp.Tree, len(trees))
	for i, tree := range trees {
		if debinarize {
			results[i] = nlp.Debinarize(tree)
		} else {
			results[i] = nlp.Binarize(tree, dir)
		}
	}
	return writeTo(output, func(w io.Writer) error {
		return ptb.Write(w, results)
	})
}

func BinarizeCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Binarize,
		UsageLine: "binarize <file options> [arguments]",
		Short:     "binarizes or debinarizes a treebank",
		Long: `
binarizes a treebank, introducing intermediate X^ nodes for wide constituents

	$ ./srparse binarize -input <trees> -output <trees> [-binarize-left|-binarize-right] [-undo]

`,
		Flag: *flag.NewFlagSet("binarize", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&input, "input", STDIO, "Input Trees File (- for stdin)")
	cmd.Flag.StringVar(&output, "output", STDIO, "Output Trees File (- for stdout)")
	cmd.Flag.BoolVar(&binarizeLeft, "binarize-left", false, "Left binarization (default)")
	cmd.Flag.BoolVar(&binarizeRight, "binarize-right", false, "Right binarization")
	cmd.Flag.BoolVar(&debinarize, "undo", false, "Remove intermediate nodes instead")
	cmd.Flag.IntVar(&limit, "limit", 0, "limit number of trees")
	return cmd
}
