// Package ptb reads and writes parenthesized constituency trees:
//
//	(S (NP (DT the) (NN dog)) (VP (VBZ barks)))
//
// Trees may span several lines. A root node with an empty label and a single
// child, as written by the Penn treebank, is unwrapped.
package ptb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	nlp "srparse/nlp/types"
)

var ErrSyntax = errors.New("ptb: syntax error")

type token struct {
	kind rune // '(' ')' or 'w'
	text string
	line int
}

type lexer struct {
	r    *bufio.Reader
	line int
	peek *token
}

func (l *lexer) next() (*token, error) {
	if l.peek != nil {
		t := l.peek
		l.peek = nil
		return t, nil
	}
	var b strings.Builder
	for {
		c, _, err := l.r.ReadRune()
		if err == io.EOF {
			if b.Len() > 0 {
				return &token{'w', b.String(), l.line}, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		switch {
		case c == '(' || c == ')':
			if b.Len() > 0 {
				l.r.UnreadRune()
				return &token{'w', b.String(), l.line}, nil
			}
			return &token{c, string(c), l.line}, nil
		case unicode.IsSpace(c):
			var t *token
			if b.Len() > 0 {
				t = &token{'w', b.String(), l.line}
			}
			if c == '\n' {
				l.line++
			}
			if t != nil {
				return t, nil
			}
		default:
			b.WriteRune(c)
		}
	}
}

func (l *lexer) unread(t *token) { l.peek = t }

func syntaxError(line int, format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
}

// parse reads one node; the opening parenthesis was already consumed.
func (l *lexer) parse(open *token) (*nlp.Tree, error) {
	node := &nlp.Tree{}
	t, err := l.next()
	if err == io.EOF {
		return nil, syntaxError(open.line, "unterminated tree")
	}
	if err != nil {
		return nil, err
	}
	if t.kind == 'w' {
		node.Label = t.text
	} else {
		l.unread(t)
	}
	for {
		t, err = l.next()
		if err == io.EOF {
			return nil, syntaxError(open.line, "unterminated tree")
		}
		if err != nil {
			return nil, err
		}
		switch t.kind {
		case ')':
			if len(node.Children) == 0 {
				return nil, syntaxError(t.line, "node %q has no children", node.Label)
			}
			return node, nil
		case '(':
			child, err := l.parse(t)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		default:
			node.Children = append(node.Children, nlp.Leaf(t.text))
		}
	}
}

// Read parses every tree in reader. A limit > 0 stops after that many trees.
func Read(reader io.Reader, limit int) ([]*nlp.Tree, error) {
	var (
		trees []*nlp.Tree
		l     = &lexer{r: bufio.NewReader(reader), line: 1}
	)
	for limit <= 0 || len(trees) < limit {
		t, err := l.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if t.kind != '(' {
			return nil, syntaxError(t.line, "expected '(' got %q", t.text)
		}
		tree, err := l.parse(t)
		if err != nil {
			return nil, err
		}
		if tree.Label == "" && len(tree.Children) == 1 && !tree.Children[0].IsLeaf() {
			tree = tree.Children[0]
		}
		trees = append(trees, tree)
	}
	return trees, nil
}

func ReadFile(filename string, limit int) ([]*nlp.Tree, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file, limit)
}

// ReadLines reads one tree per line, the format of Write: an empty line is a
// nil tree.
func ReadLines(reader io.Reader, limit int) ([]*nlp.Tree, error) {
	var trees []*nlp.Tree
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		if limit > 0 && len(trees) >= limit {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			trees = append(trees, nil)
			continue
		}
		tree, err := ReadString(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		trees = append(trees, tree)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return trees, nil
}

// ReadString parses exactly one tree.
func ReadString(s string) (*nlp.Tree, error) {
	trees, err := Read(strings.NewReader(s), 0)
	if err != nil {
		return nil, err
	}
	if len(trees) != 1 {
		return nil, fmt.Errorf("%w: expected one tree, found %d", ErrSyntax, len(trees))
	}
	return trees[0], nil
}

// Write outputs one tree per line. A nil tree is written as an empty line, the
// output for a sentence that could not be parsed.
func Write(writer io.Writer, trees []*nlp.Tree) error {
	w := bufio.NewWriter(writer)
	for _, tree := range trees {
		if tree != nil {
			if _, err := w.WriteString(tree.String()); err != nil {
				return err
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

func WriteFile(filename string, trees []*nlp.Tree) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return Write(file, trees)
}
