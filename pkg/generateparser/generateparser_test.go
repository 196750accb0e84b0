package generateparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanXMLCallsFindsMultipleOccurrencesInOrder(t *testing.T) {
	text := "hi<search><q>cats</q></search> and <search><q>dogs</q></search> bye"
	intervals := ScanXMLCalls(text, []string{"search"})
	require.Len(t, intervals, 2)
	assert.Contains(t, intervals[0].Body, "cats")
	assert.Contains(t, intervals[1].Body, "dogs")
	assert.Less(t, intervals[0].TagStart, intervals[1].TagStart)
}

func TestScanXMLCallsSkipsUnclosedOccurrence(t *testing.T) {
	text := "<search><q>cats</q></search> <search><q>unterminated"
	intervals := ScanXMLCalls(text, []string{"search"})
	require.Len(t, intervals, 1)
	assert.Contains(t, intervals[0].Body, "cats")
}

func TestScanXMLCallsNestedSameNameTracksDepth(t *testing.T) {
	text := "<outer><outer>inner</outer> tail</outer>"
	intervals := ScanXMLCalls(text, []string{"outer"})
	require.Len(t, intervals, 1)
	assert.Equal(t, "<outer>inner</outer> tail", intervals[0].Body)
}

func TestScanXMLCallsOrdersByStartPositionBeforeDeclarationOrder(t *testing.T) {
	text := "<b/><a/>"
	intervals := ScanXMLCalls(text, []string{"a", "b"})
	require.Len(t, intervals, 2)
	assert.Equal(t, "b", intervals[0].ToolName)
	assert.Equal(t, "a", intervals[1].ToolName)
}

func TestScanXMLCallsSelfClosingHasEmptyBody(t *testing.T) {
	text := "<ping/>"
	intervals := ScanXMLCalls(text, []string{"ping"})
	require.Len(t, intervals, 1)
	assert.Equal(t, "", intervals[0].Body)
}

func TestScanXMLCallsSelfClosingToleratesSpaceBeforeSlash(t *testing.T) {
	text := "<ping />"
	intervals := ScanXMLCalls(text, []string{"ping"})
	require.Len(t, intervals, 1)
	assert.Equal(t, "", intervals[0].Body)
	assert.Equal(t, text, text[intervals[0].TagStart:intervals[0].End])
}

func TestLinePrefixedFallback(t *testing.T) {
	text := "search:\n<q>cats</q>\ntrailing"
	interval, ok := LinePrefixedFallback(text, []string{"search"})
	require.True(t, ok)
	assert.Equal(t, "search", interval.ToolName)
	assert.Equal(t, "<q>cats</q>", interval.Body)
}

func TestLinePrefixedFallbackRejectsUnknownName(t *testing.T) {
	text := "notatool:\n<q>cats</q>\n"
	_, ok := LinePrefixedFallback(text, []string{"search"})
	assert.False(t, ok)
}

func TestRepairSelfClosingRoot(t *testing.T) {
	text := "<search\n<q>cats</q>\n/>"
	rewritten, ok := RepairSelfClosingRoot(text, []string{"search"})
	require.True(t, ok)
	intervals := ScanXMLCalls(rewritten, []string{"search"})
	require.Len(t, intervals, 1)
	assert.Contains(t, intervals[0].Body, "cats")
}

func TestScanDelimitedFindsMultipleOccurrences(t *testing.T) {
	text := "x<tool_call>{\"a\":1}</tool_call>y<tool_call>{\"a\":2}</tool_call>z"
	intervals := ScanDelimited(text, "<tool_call>", "</tool_call>")
	require.Len(t, intervals, 2)
	assert.Equal(t, `{"a":1}`, intervals[0].Body)
	assert.Equal(t, `{"a":2}`, intervals[1].Body)
}
