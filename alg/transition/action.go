package transition

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Action is one step of a reference derivation.
type Action struct {
	Operation Operation
	Label     string
	Head      string
}

func (a Action) String() string {
	fields := []string{a.Operation.String()}
	if a.Label != "" || a.Head != "" {
		label := a.Label
		if label == "" {
			label = "_"
		}
		fields = append(fields, label)
	}
	if a.Head != "" {
		fields = append(fields, a.Head)
	}
	return strings.Join(fields, " ")
}

func (a Action) Equal(other Action) bool {
	return a == other
}

type Actions []Action

func (as Actions) String() string {
	strs := make([]string, len(as))
	for i, a := range as {
		strs[i] = a.String()
	}
	return strings.Join(strs, "\n")
}

// Count returns how many actions satisfy pred.
func (as Actions) Count(pred func(Operation) bool) int {
	var n int
	for _, a := range as {
		if pred(a.Operation) {
			n++
		}
	}
	return n
}

// ParseAction reads the "OP [label [head]]" form produced by Action.String.
func ParseAction(line string) (Action, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || len(fields) > 3 {
		return Action{}, fmt.Errorf("malformed action %q", line)
	}
	op, err := ParseOperation(fields[0])
	if err != nil {
		return Action{}, err
	}
	a := Action{Operation: op}
	if len(fields) > 1 && fields[1] != "_" {
		a.Label = fields[1]
	}
	if len(fields) > 2 {
		a.Head = fields[2]
	}
	return a, nil
}

// NoDerivation is the line written for a missing derivation, keeping the
// derivations of a file aligned with the trees they came from.
const NoDerivation = "_"

// WriteActions writes one action per line, derivations separated by a
// blank line. An empty derivation is written as NoDerivation.
func WriteActions(writer io.Writer, derivations []Actions) error {
	w := bufio.NewWriter(writer)
	for _, d := range derivations {
		if len(d) == 0 {
			if _, err := fmt.Fprintln(w, NoDerivation); err != nil {
				return err
			}
		}
		for _, a := range d {
			if _, err := fmt.Fprintln(w, a.String()); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ReadActions is the inverse of WriteActions; a NoDerivation block is read
// as a nil derivation.
func ReadActions(reader io.Reader) ([]Actions, error) {
	var (
		result  []Actions
		current Actions
		missing bool
		lineNum int
	)
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if len(current) > 0 || missing {
				result = append(result, current)
				current, missing = nil, false
			}
			continue
		}
		if line == NoDerivation {
			if len(current) > 0 || missing {
				return nil, fmt.Errorf("line %d: %s inside a derivation", lineNum, NoDerivation)
			}
			missing = true
			continue
		}
		if missing {
			return nil, fmt.Errorf("line %d: action after %s", lineNum, NoDerivation)
		}
		a, err := ParseAction(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		current = append(current, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(current) > 0 || missing {
		result = append(result, current)
	}
	return result, nil
}
