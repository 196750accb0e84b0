package relaxedjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStandardJSON(t *testing.T) {
	t.Parallel()
	v, err := Parse(`{"location":"Seoul","unit":"celsius"}`)
	require.NoError(t, err)
	obj, ok := v.(*Object)
	require.True(t, ok)
	loc, _ := obj.Get("location")
	assert.Equal(t, "Seoul", loc)
}

func TestParseSingleQuotesAndUnquotedKeys(t *testing.T) {
	t.Parallel()
	v, err := Parse(`{location: 'Seoul', unit: 'celsius'}`)
	require.NoError(t, err)
	obj := v.(*Object)
	loc, _ := obj.Get("location")
	assert.Equal(t, "Seoul", loc)
}

func TestParseTrailingCommas(t *testing.T) {
	t.Parallel()
	v, err := Parse(`{"a":1,"b":[1,2,3,],}`)
	require.NoError(t, err)
	obj := v.(*Object)
	b, _ := obj.Get("b")
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, b)
}

func TestParsePythonLiterals(t *testing.T) {
	t.Parallel()
	v, err := Parse(`{"active": True, "missing": None, "broken": False}`)
	require.NoError(t, err)
	obj := v.(*Object)
	active, _ := obj.Get("active")
	assert.Equal(t, true, active)
	missing, _ := obj.Get("missing")
	assert.Nil(t, missing)
	broken, _ := obj.Get("broken")
	assert.Equal(t, false, broken)
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	t.Parallel()
	v, err := Parse(`{"z":1,"a":2,"m":3}`)
	require.NoError(t, err)
	obj := v.(*Object)
	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	t.Parallel()
	_, err := Parse(`{"a":1} garbage`)
	assert.Error(t, err)
}
