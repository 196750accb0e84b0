package toolbridgeerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMalformedToolBodyErrorUnwraps(t *testing.T) {
	t.Parallel()
	cause := errors.New("unexpected end of input")
	err := &MalformedToolBodyError{ToolName: "get_weather", RawSegment: "<tool>...", Cause: cause}
	assert.True(t, IsMalformedToolBody(err))
	assert.ErrorIs(t, err, cause)
}

func TestUnterminatedToolCallErrorUnwraps(t *testing.T) {
	t.Parallel()
	cause := errors.New("truncated")
	err := &UnterminatedToolCallError{ToolName: "search", Cause: cause}
	assert.True(t, IsUnterminatedToolCall(err))
	assert.False(t, IsMalformedToolBody(err))
}

func TestInvariantViolationError(t *testing.T) {
	t.Parallel()
	err := &InvariantViolationError{Invariant: "id-discipline", Detail: "id changed mid tool call"}
	assert.True(t, IsInvariantViolation(err))
	assert.Contains(t, err.Error(), "id-discipline")
}
