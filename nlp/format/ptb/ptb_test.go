package ptb

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	nlp "srparse/nlp/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treebank = `( (S (NP (DT the)
      (NN dog))
    (VP (VBZ barks))))
(S (NP John) (VP runs))
`

func TestRead(t *testing.T) {
	trees, err := Read(strings.NewReader(treebank), 0)
	require.NoError(t, err)
	require.Len(t, trees, 2)
	assert.Equal(t, "(S (NP (DT the) (NN dog)) (VP (VBZ barks)))", trees[0].String())
	assert.Equal(t, []string{"John", "runs"}, trees[1].Yield())

	limited, err := Read(strings.NewReader(treebank), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestWriteRead(t *testing.T) {
	trees, err := Read(strings.NewReader(treebank), 0)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, append(trees, nil)))
	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "", lines[2])

	again, err := Read(&buf, 0)
	require.NoError(t, err)
	require.Len(t, again, 2)
	for i := range trees {
		assert.True(t, trees[i].Equal(again[i]))
	}
}

func TestReadLines(t *testing.T) {
	trees, err := ReadLines(strings.NewReader("(S (NP the dog) (VP barks))\n\n(S (NP dogs) (VP bark))\n"), 0)
	require.NoError(t, err)
	require.Len(t, trees, 3)
	assert.Nil(t, trees[1])
	assert.Equal(t, []string{"dogs", "bark"}, trees[2].Yield())

	_, err = ReadLines(strings.NewReader("(S (NP the dog)\n(VP barks))"), 0)
	assert.True(t, errors.Is(err, ErrSyntax))
}

func TestReadString(t *testing.T) {
	tree, err := ReadString("(S (NP the dog) (VP barks))")
	require.NoError(t, err)
	assert.True(t, tree.Equal(nlp.Node("S",
		nlp.Node("NP", nlp.Leaf("the"), nlp.Leaf("dog")),
		nlp.Node("VP", nlp.Leaf("barks")))))
}

func TestReadErrors(t *testing.T) {
	for _, input := range []string{
		"(S (NP the dog)",
		"S (NP the)",
		"(S ())",
		"(S (NP the)))",
		"",
	} {
		_, err := ReadString(input)
		assert.True(t, errors.Is(err, ErrSyntax), "input %q: %v", input, err)
	}
}
