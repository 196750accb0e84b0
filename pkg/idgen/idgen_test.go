package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterGeneratorIsMonotonic(t *testing.T) {
	t.Parallel()
	g := NewCounterGenerator("call_")
	assert.Equal(t, "call_1", g.Next())
	assert.Equal(t, "call_2", g.Next())
	assert.Equal(t, "call_3", g.Next())
}

func TestUUIDGeneratorProducesDistinctIDs(t *testing.T) {
	t.Parallel()
	g := NewUUIDGenerator()
	a := g.Next()
	b := g.Next()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}
