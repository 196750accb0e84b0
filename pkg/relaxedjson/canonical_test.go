package relaxedjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringifyRoundTripsThroughParse(t *testing.T) {
	t.Parallel()
	v, err := Parse(`{"location":"Seoul","unit":"celsius"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"location":"Seoul","unit":"celsius"}`, Stringify(v))
}

func TestStringifyIsIdempotent(t *testing.T) {
	t.Parallel()
	v, err := Parse(`{"b":2,"a":[1,2,3],"c":null,"d":true}`)
	require.NoError(t, err)
	first := Stringify(v)
	reparsed, err := Parse(first)
	require.NoError(t, err)
	assert.Equal(t, first, Stringify(reparsed))
}

func TestStringifyGrowingObjectOnlyAppends(t *testing.T) {
	t.Parallel()
	partial, err := Parse(`{"location":"Seoul"}`)
	require.NoError(t, err)
	full, err := Parse(`{"location":"Seoul","unit":"celsius"}`)
	require.NoError(t, err)

	a := Stringify(partial)
	b := Stringify(full)
	require.True(t, len(b) >= len(a))
	assert.Equal(t, a, b[:len(a)])
}
