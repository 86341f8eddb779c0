package app

import (
	"fmt"
	"io"
	"log"
	"time"

	"srparse/nlp/format/ptb"
	"srparse/nlp/format/raw"
	"srparse/nlp/parser/constituency"
	"srparse/nlp/parser/constituency/model"
	nlp "srparse/nlp/types"
	"srparse/util"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
)

func ParseConfigOut(m *model.Recursive) {
	log.Println("Configuration")
	log.Printf("Model file:\t\t%s", modelFile)
	log.Printf("Run ID:\t\t%s", m.RunID)
	log.Printf("Beam Size:\t\t%d", m.BeamSize())
	log.Printf("K-Best:\t\t%d", m.KBest())
	log.Printf("Unary Limit:\t\t%d", m.UnaryLimit())
	log.Printf("Labels:\t\t%d", m.Labels().Len()-1)
	log.Printf("Beam Concurrent:\t%v", ConcurrentBeam)
	log.Println()
	log.Println("Data")
	log.Printf("Input file:\t\t%s", input)
	log.Printf("Output file:\t\t%s", output)
}

func readSentences(name string) ([]nlp.BasicSentence, error) {
	r, err := openInput(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if tokenPerLine {
		return raw.Read(r, limit)
	}
	return raw.ReadLines(r, limit)
}

// ParseSentences decodes every sentence with parser. With kbest > 1 all
// finished derivations of a sentence are returned best first, followed by a
// nil separator; otherwise the best tree, or nil when the search failed.
func ParseSentences(parser *constituency.Parser, sents []nlp.BasicSentence, kbest int) ([]*nlp.Tree, error) {
	var (
		trees  = make([]*nlp.Tree, 0, len(sents))
		failed int
	)
	for i, sent := range sents {
		if debugLevel > 0 {
			log.Println("Parsing instance", i)
		}
		run, err := parser.Parse(sent.Tokens())
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i, err)
		}
		finished := run.Finished()
		if len(finished) == 0 {
			failed++
		}
		if kbest <= 1 {
			if len(finished) == 0 {
				trees = append(trees, nil)
			} else {
				trees = append(trees, nlp.Debinarize(run.Tree(finished[0])))
			}
			continue
		}
		for _, h := range finished {
			trees = append(trees, nlp.Debinarize(run.Tree(h)))
		}
		trees = append(trees, nil)
	}
	if failed > 0 {
		log.Println("No parse found for", failed, "sentence(s)")
	}
	return trees, nil
}

func Parse(cmd *commander.Command, args []string) error {
	if err := VerifyFlags(cmd, []string{"model"}); err != nil {
		return err
	}
	if !VerifyExists(modelFile) || !VerifyExists(input) {
		return fmt.Errorf("missing model or input file")
	}
	m, err := model.ReadModel(modelFile)
	if err != nil {
		return err
	}
	if BeamSize > 0 {
		m.Beam = BeamSize
	}
	if KBest > 0 {
		m.K = KBest
	}
	if allOut {
		ParseConfigOut(m)
		log.Println()
	}
	if debugLevel > 0 {
		util.LogMemory("loading model")
	}
	sents, err := readSentences(input)
	if err != nil {
		return err
	}
	if allOut {
		log.Println("Read", len(sents), "sentences from", input)
	}
	parser := constituency.NewParser(m, m)
	parser.Concurrent = ConcurrentBeam

	startTime := time.Now()
	trees, err := ParseSentences(parser, sents, m.KBest())
	if err != nil {
		return err
	}
	if allOut {
		log.Println("PARSE Total Time:", time.Since(startTime))
	}
	return writeTo(output, func(w io.Writer) error {
		return ptb.Write(w, trees)
	})
}

func ParseCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Parse,
		UsageLine: "parse <file options> [arguments]",
		Short:     "parses sentences with a trained model",
		Long: `
parses raw sentences, one whitespace tokenized sentence per line

	$ ./srparse parse -model <model> -input <sentences> -output <trees> [-kbest k] [-beam b]

`,
		Flag: *flag.NewFlagSet("parse", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&modelFile, "model", "", "Model File")
	cmd.Flag.StringVar(&input, "input", STDIO, "Input Sentences File (- for stdin)")
	cmd.Flag.StringVar(&output, "output", STDIO, "Output Trees File (- for stdout)")
	cmd.Flag.IntVar(&BeamSize, "beam", 0, "Beam Size (0 = model's)")
	cmd.Flag.IntVar(&KBest, "kbest", 0, "Number of derivations kept at the last step (0 = model's)")
	cmd.Flag.BoolVar(&ConcurrentBeam, "bconc", false, "Concurrent Beam")
	cmd.Flag.BoolVar(&tokenPerLine, "tokens", false, "Input has a token per line, sentences separated by blank lines")
	cmd.Flag.IntVar(&limit, "limit", 0, "limit number of sentences")
	return cmd
}
