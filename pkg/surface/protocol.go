// Package surface implements the SurfaceProtocol polymorphic capability
// (spec §4.1): the four textual conventions a model can be asked to emit
// tool calls in, each implementing the same contract over a shared
// streamparser.Parser engine.
package surface

import (
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
	"github.com/kestrel-ai/toolbridge/pkg/streamparser"
)

// ToolSystemPromptTemplate renders the declared tools into the body of a
// system-prompt fragment; a nil value means "use the variant's default".
type ToolSystemPromptTemplate func(tools []types.ToolDefinition) string

// Protocol is the SurfaceProtocol contract (§4.1).
type Protocol interface {
	// Name identifies the variant, e.g. "json-tagged", "xml".
	Name() string

	// FormatTools builds the tool-advertising system-prompt fragment.
	FormatTools(tools []types.ToolDefinition, templateFn ToolSystemPromptTemplate) string

	// FormatToolCall renders a ToolCall into this protocol's textual form,
	// for replaying assistant turns back to the model.
	FormatToolCall(tc types.ToolCall) string

	// ParseGeneratedText is the non-streaming complete-text parse (§4.3).
	ParseGeneratedText(text string, tools []types.ToolDefinition, opts *streamparser.ParseOptions) ([]types.ContentPart, error)

	// CreateStreamParser builds a StreamParser bound to this variant and
	// the declared tools (§4.4).
	CreateStreamParser(tools []types.ToolDefinition, opts *streamparser.ParseOptions) (*streamparser.Parser, error)

	// ExtractToolCallSegments returns the raw textual segments of every
	// tool call found in text, in order of appearance (used for replay and
	// debugging; overlapping segments are not permitted).
	ExtractToolCallSegments(text string, tools []types.ToolDefinition) ([]string, error)
}

// validateTools rejects duplicate or empty tool names at construction time
// (§9 Open Question c).
func validateTools(tools []types.ToolDefinition) (map[string]types.ToolDefinition, []string, error) {
	byName := make(map[string]types.ToolDefinition, len(tools))
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			return nil, nil, errEmptyToolName
		}
		if _, dup := byName[t.Name]; dup {
			return nil, nil, errDuplicateToolName(t.Name)
		}
		byName[t.Name] = t
		names = append(names, t.Name)
	}
	return byName, names, nil
}
