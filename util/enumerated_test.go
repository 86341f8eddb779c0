package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumSet(t *testing.T) {
	e := NewEnumSet(2)
	i, isNew := e.Add("S")
	assert.Equal(t, 0, i)
	assert.True(t, isNew)
	e.Add("NP")
	i, isNew = e.Add("S")
	assert.Equal(t, 0, i)
	assert.False(t, isNew)

	assert.Equal(t, 2, e.Len())
	assert.Equal(t, "NP", e.ValueOf(1))
	assert.Equal(t, []string{"S", "NP"}, e.Values())
	assert.Equal(t, 1, e.IndexOr("NP", -1))
	assert.Equal(t, -1, e.IndexOr("VP", -1))
	assert.Panics(t, func() { e.ValueOf(2) })

	e.Frozen = true
	assert.NotPanics(t, func() { e.Add("S") })
	assert.Panics(t, func() { e.Add("VP") })
}
