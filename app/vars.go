package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"srparse/alg/learn"
	"srparse/nlp/format/ptb"
	"srparse/nlp/parser/constituency"
	nlp "srparse/nlp/types"

	"github.com/gonuts/commander"
)

const STDIO = "-"

var (
	allOut bool = true

	// file names
	input      string
	output     string
	modelFile  string
	confFile   string
	goldFile   string
	testFile   string
	metricAddr string

	// processing options
	Iterations, BeamSize, KBest, Workers int
	ConcurrentBeam                       bool
	objectiveName                        string
	limit                                int
	tokenPerLine                         bool

	binarizeLeft, binarizeRight bool
	debugLevel                  int
)

// SetDebug turns on the logging switches up to level.
func SetDebug(level int) {
	debugLevel = level
	learn.TrainAllOut = level >= 2
	constituency.ShowBeam = level >= 3
}

// Binarization resolves the -binarize-left and -binarize-right flags; left is
// the default.
func Binarization() (nlp.Binarization, error) {
	if binarizeLeft && binarizeRight {
		return nlp.BinarizeLeft, errors.New("-binarize-left and -binarize-right are mutually exclusive")
	}
	if binarizeRight {
		return nlp.BinarizeRight, nil
	}
	return nlp.BinarizeLeft, nil
}

func VerifyExists(filename string) bool {
	if filename == STDIO {
		return true
	}
	_, err := os.Stat(filename)
	if err != nil {
		log.Println("Error accessing file", filename)
		log.Println(err)
		return false
	}
	return true
}

func VerifyFlags(cmd *commander.Command, required []string) error {
	for _, flag := range required {
		f := cmd.Flag.Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag -%s", flag)
		}
		if f.Value.String() == "" {
			cmd.Usage()
			return fmt.Errorf("required flag -%s not set", f.Name)
		}
	}
	return nil
}

func openInput(name string) (io.ReadCloser, error) {
	if name == STDIO {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func createOutput(name string) (io.WriteCloser, error) {
	if name == STDIO {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(name)
}

func readTrees(name string) ([]*nlp.Tree, error) {
	r, err := openInput(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	trees, err := ptb.Read(r, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return trees, nil
}

// writeTo opens name and hands it to write, closing it afterwards.
func writeTo(name string, write func(io.Writer) error) error {
	w, err := createOutput(name)
	if err != nil {
		return err
	}
	if err := write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
