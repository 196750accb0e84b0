// Package provider defines the boundary between toolbridge and a host
// language-model provider: the LanguageModel interface a provider shim must
// satisfy, and the StreamPart union the middleware consumes and produces.
package provider

import (
	"context"
	"io"

	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
)

// LanguageModel is the host provider shim the middleware wraps. The core
// never inspects provider-specific fields; it only consumes DoGenerate's
// ContentPart list and DoStream's StreamPart sequence (§6).
type LanguageModel interface {
	SpecificationVersion() string
	Provider() string
	ModelID() string

	SupportsTools() bool
	SupportsStructuredOutput() bool
	SupportsImageInput() bool

	DoGenerate(ctx context.Context, opts *GenerateOptions) (*types.GenerateResult, error)
	DoStream(ctx context.Context, opts *GenerateOptions) (TextStream, error)
}

// GenerateOptions holds the parameters for a single generate/stream call.
type GenerateOptions struct {
	Prompt types.Prompt

	Temperature      *float64
	MaxTokens        *int
	TopP             *float64
	TopK             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	StopSequences    []string

	Tools      []types.ToolDefinition
	ToolChoice types.ToolChoice

	ResponseFormat *ResponseFormat

	Seed    *int
	Headers map[string]string
}

// ResponseFormat constrains the model's output, used by the tool-choice
// coercion path (§6) to request a JSON object matching a tool schema.
type ResponseFormat struct {
	// Type is one of "text", "json", "json_schema".
	Type string

	// Schema is the JSON-Schema-like shape the response must match.
	Schema interface{}

	Name        string
	Description string
}

// TextStream is a streaming StreamPart source.
type TextStream interface {
	io.ReadCloser

	// Next returns the next part in the stream, or io.EOF when done.
	Next() (*StreamPart, error)

	Err() error
}

// PartKind is the discriminant of a StreamPart (§3).
type PartKind string

const (
	PartKindTextStart      PartKind = "text-start"
	PartKindTextDelta      PartKind = "text-delta"
	PartKindTextEnd        PartKind = "text-end"
	PartKindToolInputStart PartKind = "tool-input-start"
	PartKindToolInputDelta PartKind = "tool-input-delta"
	PartKindToolInputEnd   PartKind = "tool-input-end"
	PartKindToolCall       PartKind = "tool-call"
	PartKindFinish         PartKind = "finish"
	PartKindError          PartKind = "error"
	PartKindPassThrough    PartKind = "pass-through"
)

// StreamPart is the tagged union of §3: upstream input to the StreamParser
// (TextDelta, Finish, Error, PassThrough) and the richer downstream output
// the StreamParser additionally emits (TextStart, TextEnd, ToolInputStart,
// ToolInputDelta, ToolInputEnd, ToolCall). Only the fields relevant to Kind
// are populated; this mirrors the teacher's ChunkType/StreamChunk pair
// (pkg/provider/language_model.go) widened to the finer-grained kinds
// spec.md's StreamParser requires.
type StreamPart struct {
	Kind PartKind

	// ID identifies the logical text block or tool call this part belongs
	// to. Present on every kind except Finish, Error, and PassThrough.
	ID string

	// Delta is the incremental text for TextDelta, or the incremental
	// canonical-JSON fragment for ToolInputDelta.
	Delta string

	// ToolName is set on ToolInputStart and ToolCall.
	ToolName string

	// Input is the canonical JSON string, set only on ToolCall.
	Input string

	// FinishReason and Usage are set on Finish.
	FinishReason types.FinishReason
	Usage        *types.Usage

	// Err is set on Error.
	Err error

	// Raw carries a PassThrough part's untouched upstream payload.
	Raw interface{}
}
