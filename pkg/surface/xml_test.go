package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-ai/toolbridge/pkg/provider"
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
	"github.com/kestrel-ai/toolbridge/pkg/streamparser"
)

func xmlTestTools() []types.ToolDefinition {
	return []types.ToolDefinition{
		{Name: "search", Description: "searches the web"},
	}
}

func TestXmlParseGeneratedText(t *testing.T) {
	p, err := NewXml(xmlTestTools())
	require.NoError(t, err)

	text := "before<search><q>cats</q></search>after"
	parts, err := p.ParseGeneratedText(text, xmlTestTools(), streamparser.DefaultParseOptions())
	require.NoError(t, err)
	require.Len(t, parts, 3)

	textBefore, ok := parts[0].(types.TextContent)
	require.True(t, ok)
	assert.Equal(t, "before", textBefore.Text)

	tc, ok := parts[1].(types.ToolCallContent)
	require.True(t, ok)
	assert.Equal(t, "search", tc.ToolName)
	assert.JSONEq(t, `{"q":"cats"}`, tc.Input)

	textAfter, ok := parts[2].(types.TextContent)
	require.True(t, ok)
	assert.Equal(t, "after", textAfter.Text)
}

func TestXmlRepeatedChildElementsBecomeArray(t *testing.T) {
	p, err := NewXml(xmlTestTools())
	require.NoError(t, err)

	text := "<search><command>rm</command><command>rm</command><command>-rf</command></search>"
	parts, err := p.ParseGeneratedText(text, xmlTestTools(), streamparser.DefaultParseOptions())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	tc, ok := parts[0].(types.ToolCallContent)
	require.True(t, ok)
	assert.JSONEq(t, `{"command":["rm","rm","-rf"]}`, tc.Input)
}

func TestXmlMultipleOccurrences(t *testing.T) {
	p, err := NewXml(xmlTestTools())
	require.NoError(t, err)

	text := "<search><q>cats</q></search> and <search><q>dogs</q></search>"
	parts, err := p.ParseGeneratedText(text, xmlTestTools(), streamparser.DefaultParseOptions())
	require.NoError(t, err)
	require.Len(t, parts, 3)
	tc1, ok := parts[0].(types.ToolCallContent)
	require.True(t, ok)
	assert.JSONEq(t, `{"q":"cats"}`, tc1.Input)
	tc2, ok := parts[2].(types.ToolCallContent)
	require.True(t, ok)
	assert.JSONEq(t, `{"q":"dogs"}`, tc2.Input)
}

func TestXmlLinePrefixedFallback(t *testing.T) {
	p, err := NewXml(xmlTestTools())
	require.NoError(t, err)

	text := "search:\n<q>cats</q>\n"
	parts, err := p.ParseGeneratedText(text, xmlTestTools(), streamparser.DefaultParseOptions())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	tc, ok := parts[0].(types.ToolCallContent)
	require.True(t, ok)
	assert.Equal(t, "search", tc.ToolName)
	assert.JSONEq(t, `{"q":"cats"}`, tc.Input)
}

func TestXmlSelfClosingRootRepair(t *testing.T) {
	p, err := NewXml(xmlTestTools())
	require.NoError(t, err)

	text := "<search\n<q>cats</q>\n/>"
	parts, err := p.ParseGeneratedText(text, xmlTestTools(), streamparser.DefaultParseOptions())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	tc, ok := parts[0].(types.ToolCallContent)
	require.True(t, ok)
	assert.Equal(t, "search", tc.ToolName)
	assert.JSONEq(t, `{"q":"cats"}`, tc.Input)
}

func TestXmlStreamingOneCharAtATime(t *testing.T) {
	p, err := NewXml(xmlTestTools())
	require.NoError(t, err)
	parser, err := p.CreateStreamParser(xmlTestTools(), streamparser.DefaultParseOptions())
	require.NoError(t, err)

	text := "leading text<search><q>cats</q></search>trailing text"
	var allParts []provider.StreamPart
	for _, ch := range text {
		allParts = append(allParts, parser.Push(provider.StreamPart{Kind: provider.PartKindTextDelta, Delta: string(ch)})...)
	}
	allParts = append(allParts, parser.Flush()...)

	var textOut string
	var sawToolCall bool
	for _, part := range allParts {
		if part.Kind == provider.PartKindTextDelta {
			textOut += part.Delta
		}
		if part.Kind == provider.PartKindToolCall {
			sawToolCall = true
			assert.Equal(t, "search", part.ToolName)
			assert.JSONEq(t, `{"q":"cats"}`, part.Input)
		}
	}
	assert.True(t, sawToolCall)
	assert.Equal(t, "leading texttrailing text", textOut)
}

func TestXmlStreamingDeltaConcatenationEqualsFinalInput(t *testing.T) {
	p, err := NewXml(xmlTestTools())
	require.NoError(t, err)
	parser, err := p.CreateStreamParser(xmlTestTools(), streamparser.DefaultParseOptions())
	require.NoError(t, err)

	// A single string value split mid-string, one character at a time: the
	// re-serialised canonical snapshot's closing quote and brace shift on
	// every chunk, so progressive deltas must be withheld until the tool
	// call actually closes rather than emitted as growing (non-prefix)
	// snapshots.
	text := "<search><q>cats</q></search>"
	var deltas string
	var finalInput string
	for _, ch := range text {
		for _, part := range parser.Push(provider.StreamPart{Kind: provider.PartKindTextDelta, Delta: string(ch)}) {
			if part.Kind == provider.PartKindToolInputDelta {
				deltas += part.Delta
			}
			if part.Kind == provider.PartKindToolCall {
				finalInput = part.Input
			}
		}
	}
	for _, part := range parser.Flush() {
		if part.Kind == provider.PartKindToolInputDelta {
			deltas += part.Delta
		}
		if part.Kind == provider.PartKindToolCall {
			finalInput = part.Input
		}
	}

	require.NotEmpty(t, finalInput)
	assert.Equal(t, finalInput, deltas, "concatenation of tool-input deltas must equal the final tool-call input")
	assert.JSONEq(t, `{"q":"cats"}`, finalInput)
}

func TestXmlSelfClosingToolCallToleratesWhitespaceBeforeSlash(t *testing.T) {
	p, err := NewXml(xmlTestTools())
	require.NoError(t, err)

	parts, err := p.ParseGeneratedText("<search />", xmlTestTools(), streamparser.DefaultParseOptions())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	tc, ok := parts[0].(types.ToolCallContent)
	require.True(t, ok)
	assert.Equal(t, "search", tc.ToolName)
	assert.Equal(t, "{}", tc.Input)
}

func TestXmlSelfClosingToolCall(t *testing.T) {
	p, err := NewXml(xmlTestTools())
	require.NoError(t, err)

	parts, err := p.ParseGeneratedText("<search/>", xmlTestTools(), streamparser.DefaultParseOptions())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	tc, ok := parts[0].(types.ToolCallContent)
	require.True(t, ok)
	assert.Equal(t, "search", tc.ToolName)
}

func TestXmlExtractToolCallSegments(t *testing.T) {
	p, err := NewXml(xmlTestTools())
	require.NoError(t, err)

	text := "x<search><q>cats</q></search>y<search><q>dogs</q></search>z"
	segments, err := p.ExtractToolCallSegments(text, xmlTestTools())
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Contains(t, segments[0], "cats")
	assert.Contains(t, segments[1], "dogs")
}
