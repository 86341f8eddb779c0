package model

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"srparse/nlp/parser/constituency"
	"srparse/nlp/parser/constituency/objective"
	nlp "srparse/nlp/types"
	"srparse/util/conf"

	"gopkg.in/yaml.v3"
)

var ErrConfig = errors.New("invalid configuration")

// Config holds the search and training settings read from a yaml file.
type Config struct {
	BeamSize     int      `yaml:"beam_size"`
	KBest        int      `yaml:"kbest"`
	UnaryLimit   int      `yaml:"unary_limit"`
	Goal         string   `yaml:"goal"`
	Hidden       int      `yaml:"hidden"`
	Scale        float64  `yaml:"scale"`
	LearningRate float64  `yaml:"learning_rate"`
	Iterations   int      `yaml:"iterations"`
	BatchSize    int      `yaml:"batch_size"`
	Workers      int      `yaml:"workers"`
	Objective    string   `yaml:"objective"`
	Binarize     string   `yaml:"binarize"`
	Averaged     bool     `yaml:"averaged"`
	Pad          bool     `yaml:"pad"`
	Concurrent   bool     `yaml:"concurrent"`
	Seed         int64    `yaml:"seed"`
	Labels       []string `yaml:"labels"`
	LabelsFile   string   `yaml:"labels_file"`
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.BeamSize == 0 {
		c.BeamSize = 16
	}
	if c.KBest == 0 {
		c.KBest = 1
	}
	if c.UnaryLimit == 0 {
		c.UnaryLimit = 3
	}
	if c.Goal == "" {
		c.Goal = "S"
	}
	if c.Hidden == 0 {
		c.Hidden = 16
	}
	if c.Scale == 0 {
		c.Scale = 1
	}
	if c.LearningRate == 0 {
		c.LearningRate = 0.05
	}
	if c.Iterations == 0 {
		c.Iterations = 10
	}
	if c.BatchSize == 0 {
		c.BatchSize = 16
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Objective == "" {
		c.Objective = "max"
	}
	if c.Binarize == "" {
		c.Binarize = nlp.BinarizeLeft.String()
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
}

func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
	}
	switch {
	case c.BeamSize < 1:
		return invalid("beam_size %d", c.BeamSize)
	case c.KBest < 1:
		return invalid("kbest %d", c.KBest)
	case c.UnaryLimit < 0:
		return invalid("unary_limit %d", c.UnaryLimit)
	case c.Hidden < 0:
		return invalid("hidden %d", c.Hidden)
	case c.Scale <= 0:
		return invalid("scale %v", c.Scale)
	case c.LearningRate <= 0:
		return invalid("learning_rate %v", c.LearningRate)
	case c.Iterations < 1:
		return invalid("iterations %d", c.Iterations)
	case c.BatchSize < 1:
		return invalid("batch_size %d", c.BatchSize)
	case c.Workers < 1:
		return invalid("workers %d", c.Workers)
	case len(c.Labels) > 0 && c.LabelsFile != "":
		return invalid("both labels and labels_file are set")
	}
	if _, err := objective.New(c.Objective, c.Scale); err != nil {
		return invalid("%v", err)
	}
	if _, err := nlp.ParseBinarization(c.Binarize); err != nil {
		return invalid("%v", err)
	}
	return nil
}

// Binarization is the parsed binarize setting.
func (c *Config) Binarization() nlp.Binarization {
	b, _ := nlp.ParseBinarization(c.Binarize)
	return b
}

// ReadConfig decodes a yaml configuration, fills defaults and validates it.
// Unknown keys are errors.
func ReadConfig(reader io.Reader) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	c.Defaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func ReadConfigFile(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadConfig(f)
}

// TreeLabels collects the sorted labels of the binarized trees, leaves
// excluded.
func TreeLabels(trees []*nlp.Tree, dir nlp.Binarization) []string {
	seen := make(map[string]bool)
	for _, t := range trees {
		nlp.Binarize(t, dir).Walk(func(n *nlp.Tree) {
			if !n.IsLeaf() {
				seen[n.Label] = true
			}
		})
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// ResolveLabels returns the inline labels, else those of labels_file, else
// the labels of trees.
func (c *Config) ResolveLabels(trees []*nlp.Tree) ([]string, error) {
	labels := c.Labels
	switch {
	case len(labels) > 0:
	case c.LabelsFile != "":
		lc, err := conf.ReadFile(c.LabelsFile)
		if err != nil {
			return nil, err
		}
		labels = lc.Values
	default:
		labels = TreeLabels(trees, c.Binarization())
	}
	for _, l := range labels {
		if l == c.Goal {
			return labels, nil
		}
	}
	return nil, fmt.Errorf("%w: goal label %q is not among the labels", ErrConfig, c.Goal)
}

// Descriptor builds the search description for labels.
func (c *Config) Descriptor(labels []string) constituency.Descriptor {
	set := constituency.NewLabels(labels...)
	set.Frozen = true
	goal, _ := constituency.LabelOf(set, c.Goal)
	return constituency.Descriptor{
		Beam:     c.BeamSize,
		K:        c.KBest,
		Unaries:  c.UnaryLimit,
		Hidden:   c.Hidden,
		Goal:     goal,
		LabelSet: set,
	}
}

// Build creates a randomly initialized model for trees.
func (c *Config) Build(trees []*nlp.Tree) (*Recursive, error) {
	labels, err := c.ResolveLabels(trees)
	if err != nil {
		return nil, err
	}
	m := NewRecursive(c.Descriptor(labels), Vocabulary(trees))
	m.Randomize(c.Seed)
	return m, nil
}
