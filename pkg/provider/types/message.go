package types

// MessageRole represents the role of a message sender in a conversation.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Message represents a single message in a conversation.
type Message struct {
	Role MessageRole `json:"role"`

	// Content parts of the message (text, tool calls, tool results, etc.)
	Content []ContentPart `json:"content"`

	// Optional name for the message sender
	Name string `json:"name,omitempty"`
}

// ContentPart is a part of message content. The middleware only needs to
// recognise text, tool-call, and tool-result parts; anything else flows
// through as UnknownContent (§7.3).
type ContentPart interface {
	ContentType() string
}

// TextContent is plain text content.
type TextContent struct {
	Text string `json:"text"`
}

func (t TextContent) ContentType() string { return "text" }

// ReasoningContent is a model's exposed reasoning/thinking trace.
type ReasoningContent struct {
	Text string `json:"text"`
}

func (r ReasoningContent) ContentType() string { return "reasoning" }

// ToolCallContent represents a tool call rendered into an assistant message
// (used when replaying a prior turn back to the model).
type ToolCallContent struct {
	ID       string `json:"id"`
	ToolName string `json:"toolName"`

	// Input is the canonical JSON string for the call's arguments.
	Input string `json:"input"`
}

func (t ToolCallContent) ContentType() string { return "tool-call" }

// ToolResultContent is the result of executing a tool. ToolCallMiddleware's
// parameter transform does not collapse it into text; prompt messages
// carrying it are passed on unchanged.
type ToolResultContent struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`

	// Result of the tool execution.
	Result interface{} `json:"result,omitempty"`

	// Error, set instead of Result if the tool call failed.
	Error string `json:"error,omitempty"`
}

func (t ToolResultContent) ContentType() string { return "tool-result" }

// UnknownContent preserves an upstream content part the middleware does not
// interpret, so prompt construction can forward it best-effort instead of
// silently dropping it (§7.3).
type UnknownContent struct {
	Kind string      `json:"kind"`
	Raw  interface{} `json:"raw,omitempty"`
}

func (u UnknownContent) ContentType() string { return "unknown" }

// Prompt is either a simple text prompt or a list of messages.
type Prompt struct {
	Messages []Message
	System   string
	Text     string
}

func (p Prompt) IsSimple() bool   { return p.Text != "" && len(p.Messages) == 0 }
func (p Prompt) IsMessages() bool { return len(p.Messages) > 0 }

// SimpleTextResult builds a ToolResultContent carrying a plain text result.
func SimpleTextResult(toolCallID, toolName, result string) ToolResultContent {
	return ToolResultContent{ToolCallID: toolCallID, ToolName: toolName, Result: result}
}

// ErrorResult builds a ToolResultContent representing a failed tool call.
func ErrorResult(toolCallID, toolName, errorMsg string) ToolResultContent {
	return ToolResultContent{ToolCallID: toolCallID, ToolName: toolName, Error: errorMsg}
}
