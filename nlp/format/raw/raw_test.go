package raw

import (
	"bytes"
	"strings"
	"testing"

	nlp "srparse/nlp/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWrite(t *testing.T) {
	sents := []nlp.BasicSentence{
		nlp.NewSentence([]string{"the", "dog", "barks"}),
		nlp.NewSentence([]string{"John", "runs"}),
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sents))
	assert.Equal(t, "the\ndog\nbarks\n\nJohn\nruns\n\n", buf.String())

	read, err := Read(&buf, 0)
	require.NoError(t, err)
	require.Len(t, read, 2)
	for i := range sents {
		assert.True(t, sents[i].Equal(read[i]))
	}
}

func TestReadUnterminated(t *testing.T) {
	read, err := Read(strings.NewReader("a\nb\n\n\nc"), 0)
	require.NoError(t, err)
	require.Len(t, read, 2)
	assert.Equal(t, "c", read[1].String())

	limited, err := Read(strings.NewReader("a\n\nb\n\n"), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestReadLines(t *testing.T) {
	read, err := ReadLines(strings.NewReader("the dog  barks\n\nJohn runs\n"), 0)
	require.NoError(t, err)
	require.Len(t, read, 2)
	assert.Equal(t, []string{"the", "dog", "barks"}, read[0].Tokens())
}
