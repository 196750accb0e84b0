package middleware

import (
	"context"
	"io"

	"github.com/kestrel-ai/toolbridge/pkg/provider"
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
)

// SimulateStreamingMiddleware returns middleware that converts non-streaming
// generate responses into simulated streams.
//
// This is useful for providers that don't support streaming natively, or for
// testing streaming behavior with non-streaming responses.
//
// Example:
//
//	middleware := SimulateStreamingMiddleware()
//	wrapped := WrapLanguageModel(model, []*LanguageModelMiddleware{middleware}, nil, nil)
//
//	// Now stream calls will use generate internally and simulate streaming
//	stream, err := wrapped.DoStream(ctx, opts)
func SimulateStreamingMiddleware() *LanguageModelMiddleware {
	return &LanguageModelMiddleware{
		SpecificationVersion: "v3",

		// Only wrap stream, not generate
		WrapStream: func(
			ctx context.Context,
			doGenerate func() (*types.GenerateResult, error),
			doStream func() (provider.TextStream, error),
			params *provider.GenerateOptions,
			model provider.LanguageModel,
		) (provider.TextStream, error) {
			// Call generate instead of stream
			result, err := doGenerate()
			if err != nil {
				return nil, err
			}

			// Create a simulated stream from the result
			return &simulatedStream{
				result:  result,
				parts:   nil, // Will be built lazily
				current: 0,
			}, nil
		},
	}
}

// simulatedStream simulates a streaming response from a GenerateResult
type simulatedStream struct {
	result  *types.GenerateResult
	parts   []*provider.StreamPart
	current int
	closed  bool
}

// buildParts creates the sequence of parts that simulate streaming
func (s *simulatedStream) buildParts() {
	if s.parts != nil {
		return
	}

	s.parts = []*provider.StreamPart{}

	// Emit parts in content order: each text part as a start/delta/end
	// triple, each tool call as one complete part carrying its own ID.
	toolCallIndex := 0
	for _, part := range s.result.Content {
		switch p := part.(type) {
		case types.TextContent:
			if len(p.Text) == 0 {
				continue
			}
			id := "sim-text-0"
			s.parts = append(s.parts,
				&provider.StreamPart{Kind: provider.PartKindTextStart, ID: id},
				&provider.StreamPart{Kind: provider.PartKindTextDelta, ID: id, Delta: p.Text},
				&provider.StreamPart{Kind: provider.PartKindTextEnd, ID: id},
			)
		case types.ToolCallContent:
			s.parts = append(s.parts, &provider.StreamPart{
				Kind:     provider.PartKindToolCall,
				ID:       p.ID,
				ToolName: p.ToolName,
				Input:    p.Input,
			})
			toolCallIndex++
		}
	}

	// Emit finish part carrying usage
	usage := s.result.Usage
	s.parts = append(s.parts, &provider.StreamPart{
		Kind:         provider.PartKindFinish,
		FinishReason: s.result.FinishReason,
		Usage:        &usage,
	})
}

// Next returns the next part in the simulated stream
func (s *simulatedStream) Next() (*provider.StreamPart, error) {
	if s.closed {
		return nil, io.EOF
	}

	// Build parts on first access
	if s.parts == nil {
		s.buildParts()
	}

	// Check if we've reached the end
	if s.current >= len(s.parts) {
		return nil, io.EOF
	}

	part := s.parts[s.current]
	s.current++
	return part, nil
}

// Read implements io.Reader (required by TextStream interface)
func (s *simulatedStream) Read(p []byte) (n int, err error) {
	// Simulated streams don't support raw reading
	// Return EOF to indicate no raw data available
	return 0, io.EOF
}

// Close closes the simulated stream
func (s *simulatedStream) Close() error {
	s.closed = true
	return nil
}

// Err returns any error from the stream (always nil for simulated streams)
func (s *simulatedStream) Err() error {
	return nil
}
