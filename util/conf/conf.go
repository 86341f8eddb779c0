// Package conf reads line based list files, such as label inventories.
// Blank lines and lines starting with '#' are skipped and surrounding
// whitespace is trimmed.
package conf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrDuplicate = errors.New("conf: duplicate value")

type Conf struct {
	Values []string
}

func (c *Conf) Len() int { return len(c.Values) }

// Read collects the values of reader in order; a repeated value is an error
// naming both lines.
func Read(reader io.Reader) (*Conf, error) {
	var (
		scanner = bufio.NewScanner(reader)
		seen    = make(map[string]int)
		c       = new(Conf)
		lineNum int
	)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if prev, ok := seen[line]; ok {
			return nil, fmt.Errorf("%w %q on line %d (first on line %d)", ErrDuplicate, line, lineNum, prev)
		}
		seen[line] = lineNum
		c.Values = append(c.Values, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func ReadFile(filename string) (*Conf, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	c, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}
