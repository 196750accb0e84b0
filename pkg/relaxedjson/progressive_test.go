package relaxedjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindKeyValueStart(t *testing.T) {
	t.Parallel()
	body := `{"name":"get_weather","arguments":{"location":"Seoul"}}`
	idx, ok := FindKeyValueStart(body, "name")
	require.True(t, ok)
	assert.Equal(t, byte('"'), body[idx])

	idx2, ok2 := FindKeyValueStart(body, "arguments")
	require.True(t, ok2)
	assert.Equal(t, byte('{'), body[idx2])

	_, ok3 := FindKeyValueStart(body, "missing")
	assert.False(t, ok3)
}

func TestScanValueSpanString(t *testing.T) {
	t.Parallel()
	end, complete := ScanValueSpan(`"get_weather","arguments":{}`, 0)
	require.True(t, complete)
	assert.Equal(t, `"get_weather"`, `"get_weather","arguments":{}`[:end])
}

func TestScanValueSpanIncompleteString(t *testing.T) {
	t.Parallel()
	_, complete := ScanValueSpan(`"get_wea`, 0)
	assert.False(t, complete)
}

func TestScanValueSpanBalancedObject(t *testing.T) {
	t.Parallel()
	s := `{"location":"Seoul","unit":"celsius"}}`
	end, complete := ScanValueSpan(s, 0)
	require.True(t, complete)
	assert.Equal(t, `{"location":"Seoul","unit":"celsius"}`, s[:end])
}

func TestScanValueSpanIncompleteObject(t *testing.T) {
	t.Parallel()
	_, complete := ScanValueSpan(`{"location":"Seoul"`, 0)
	assert.False(t, complete)
}

func TestScanValueSpanLiteralNeedsTerminator(t *testing.T) {
	t.Parallel()
	_, complete := ScanValueSpan(`tru`, 0)
	assert.False(t, complete)

	end, complete2 := ScanValueSpan(`true}`, 0)
	require.True(t, complete2)
	assert.Equal(t, "true", "true}"[:end])
}
