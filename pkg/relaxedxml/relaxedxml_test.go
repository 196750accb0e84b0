package relaxedxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlatLeafElements(t *testing.T) {
	t.Parallel()
	v, err := Parse(`<location>Seoul</location><unit>celsius</unit>`, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Seoul", v["location"])
	assert.Equal(t, "celsius", v["unit"])
}

func TestParseRepeatedElementsBecomeArray(t *testing.T) {
	t.Parallel()
	v, err := Parse(`<command>rm</command><command>rm</command><command>-rf</command>`, Options{})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"rm", "rm", "-rf"}, v["command"])
}

func TestParseSelfClosingElement(t *testing.T) {
	t.Parallel()
	v, err := Parse(`<force/>`, Options{})
	require.NoError(t, err)
	assert.Equal(t, "", v["force"])
}

func TestParseNestedElement(t *testing.T) {
	t.Parallel()
	v, err := Parse(`<options><verbose>true</verbose></options>`, Options{})
	require.NoError(t, err)
	nested, ok := v["options"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "true", nested["verbose"])
}

func TestParseUnterminatedFailsWithoutRepair(t *testing.T) {
	t.Parallel()
	_, err := Parse(`<location>Seoul`, Options{})
	assert.Error(t, err)
}

func TestParseUnterminatedRepairsWhenEnabled(t *testing.T) {
	t.Parallel()
	v, err := Parse(`<location>Seoul`, Options{Repair: true})
	require.NoError(t, err)
	assert.Equal(t, "Seoul", v["location"])
}

func TestParseNoChildNodesTreatsAngleBracketsAsLiteral(t *testing.T) {
	t.Parallel()
	v, err := Parse(`<code>if a < b { return }</code>`, Options{NoChildNodes: map[string]bool{"code": true}})
	require.NoError(t, err)
	assert.Equal(t, "if a < b { return }", v["code"])
}
