// Package raw reads unparsed sentences, either a token per line with blank
// lines between sentences, or a whitespace tokenized sentence per line.
package raw

import (
	"bufio"
	"io"
	"os"
	"strings"

	nlp "srparse/nlp/types"
)

func Read(reader io.Reader, limit int) ([]nlp.BasicSentence, error) {
	var sentences []nlp.BasicSentence
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	currentSent := make(nlp.BasicSentence, 0, 10)
	for scanner.Scan() {
		curLine := strings.TrimSpace(scanner.Text())
		// an empty line indicates a new record
		if len(curLine) == 0 {
			if len(currentSent) == 0 {
				continue
			}
			sentences = append(sentences, currentSent)
			if limit > 0 && len(sentences) >= limit {
				return sentences, nil
			}
			currentSent = make(nlp.BasicSentence, 0, 10)
		} else {
			currentSent = append(currentSent, nlp.Token(curLine))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(currentSent) > 0 {
		sentences = append(sentences, currentSent)
	}
	return sentences, nil
}

// ReadLines reads one whitespace tokenized sentence per line.
func ReadLines(reader io.Reader, limit int) ([]nlp.BasicSentence, error) {
	var sentences []nlp.BasicSentence
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		sentences = append(sentences, nlp.NewSentence(fields))
		if limit > 0 && len(sentences) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sentences, nil
}

func ReadFile(filename string, limit int) ([]nlp.BasicSentence, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Read(file, limit)
}

func Write(writer io.Writer, sents []nlp.BasicSentence) error {
	w := bufio.NewWriter(writer)
	for _, sent := range sents {
		for _, token := range sent {
			w.WriteString(string(token))
			w.WriteByte('\n')
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}

func WriteFile(filename string, sents []nlp.BasicSentence) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return Write(file, sents)
}
