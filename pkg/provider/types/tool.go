package types

import "github.com/kestrel-ai/toolbridge/pkg/schema"

// ToolDefinition describes a tool the host application has declared to the
// middleware. It is immutable after the middleware is constructed (§3).
type ToolDefinition struct {
	// Name must be a non-empty identifier, unique within a middleware instance.
	Name string

	// Description helps the model decide when to use the tool (optional).
	Description string

	// InputSchema is a read-only projection over the tool's parameter shape,
	// used for post-parse value coercion (schema.View, the Go name for
	// spec.md's SchemaView).
	InputSchema *schema.View
}

// ToolCall is a tool call produced by the StreamParser or GenerateParser.
type ToolCall struct {
	// ID is a stable, opaque identifier shared across ToolInputStart,
	// ToolInputDelta, ToolInputEnd, and this ToolCall (§9 Id discipline).
	ID string

	ToolName string

	// Input is the canonical JSON string for the call's arguments. The
	// concatenation of every ToolInputDelta.Delta emitted for this ID must
	// equal Input verbatim (§3).
	Input string
}

// ToolChoiceType is how the model should choose tools.
type ToolChoiceType string

const (
	ToolChoiceAuto     ToolChoiceType = "auto"
	ToolChoiceNone     ToolChoiceType = "none"
	ToolChoiceRequired ToolChoiceType = "required"
	ToolChoiceTool     ToolChoiceType = "tool"
)

// ToolChoice specifies how the model should choose tools.
type ToolChoice struct {
	Type     ToolChoiceType
	ToolName string // only used when Type is ToolChoiceTool
}

func AutoToolChoice() ToolChoice     { return ToolChoice{Type: ToolChoiceAuto} }
func NoneToolChoice() ToolChoice     { return ToolChoice{Type: ToolChoiceNone} }
func RequiredToolChoice() ToolChoice { return ToolChoice{Type: ToolChoiceRequired} }
func SpecificToolChoice(toolName string) ToolChoice {
	return ToolChoice{Type: ToolChoiceTool, ToolName: toolName}
}
