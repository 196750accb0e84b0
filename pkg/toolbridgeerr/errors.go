// Package toolbridgeerr defines toolbridge's typed errors, following the
// shape of pkg/provider/errors/errors.go (sentinel errors plus a small
// number of typed errors with Error()/Unwrap() and an Is* helper).
package toolbridgeerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that don't carry extra structured
// metadata worth a dedicated type.
var (
	// ErrDuplicateToolName is returned at middleware/StreamParser
	// construction time when two declared tools share a name (§9 Open
	// Question c).
	ErrDuplicateToolName = errors.New("toolbridge: duplicate tool name")

	// ErrEmptyToolName is returned when a ToolDefinition has no name.
	ErrEmptyToolName = errors.New("toolbridge: tool definition has an empty name")
)

// MalformedToolBodyError is §7.1: a tool-call closer was found but the body
// failed to parse even after repair.
type MalformedToolBodyError struct {
	ToolName   string
	RawSegment string
	Cause      error
}

func (e *MalformedToolBodyError) Error() string {
	return fmt.Sprintf("toolbridge: malformed tool body for %q: %v", e.ToolName, e.Cause)
}

func (e *MalformedToolBodyError) Unwrap() error { return e.Cause }

// IsMalformedToolBody reports whether err is a *MalformedToolBodyError.
func IsMalformedToolBody(err error) bool {
	var target *MalformedToolBodyError
	return errors.As(err, &target)
}

// UnterminatedToolCallError is §7.2: the stream finished while still
// Inside(T) and the body remained unparseable even after tail truncation.
type UnterminatedToolCallError struct {
	ToolName   string
	RawSegment string
	Cause      error
}

func (e *UnterminatedToolCallError) Error() string {
	return fmt.Sprintf("toolbridge: unterminated tool call for %q: %v", e.ToolName, e.Cause)
}

func (e *UnterminatedToolCallError) Unwrap() error { return e.Cause }

// IsUnterminatedToolCall reports whether err is an *UnterminatedToolCallError.
func IsUnterminatedToolCall(err error) bool {
	var target *UnterminatedToolCallError
	return errors.As(err, &target)
}

// InvariantViolationError signals a parser invariant the caller should treat
// as a bug report rather than a recoverable parse failure (§7, §9).
type InvariantViolationError struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("toolbridge: invariant violated (%s): %s", e.Invariant, e.Detail)
}

// IsInvariantViolation reports whether err is an *InvariantViolationError.
func IsInvariantViolation(err error) bool {
	var target *InvariantViolationError
	return errors.As(err, &target)
}

// ErrorMeta holds a failed tool call's name, raw segment and cause.
// ParseOptions.OnError does not receive this type; it receives
// streamparser.ErrorMeta.
type ErrorMeta struct {
	ToolName   string
	RawSegment string
	Cause      error
}
