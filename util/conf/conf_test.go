package conf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	c, err := Read(strings.NewReader("# labels\nS\n\n  NP \n#VP\nVP"))
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "NP", "VP"}, c.Values)
}

func TestReadFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "labels.conf")
	require.NoError(t, os.WriteFile(name, []byte("S\nNP\n"), 0o644))
	c, err := ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "NP"}, c.Values)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestReadDuplicate(t *testing.T) {
	_, err := Read(strings.NewReader("S\nNP\n# c\nS\n"))
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "line 4 (first on line 1)")
}
