package middleware

import (
	"context"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kestrel-ai/toolbridge/pkg/provider"
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
	"github.com/kestrel-ai/toolbridge/pkg/streamparser"
	"github.com/kestrel-ai/toolbridge/pkg/surface"
	"github.com/kestrel-ai/toolbridge/pkg/telemetry"
)

// ToolCallMiddlewareOptions configures ToolCallMiddleware.
type ToolCallMiddlewareOptions struct {
	// Protocol is the SurfaceProtocol variant to render tool calls in (e.g.
	// surface.NewJsonTagged, surface.NewXml).
	Protocol surface.Protocol

	// Tools are the tool definitions to advertise and parse calls for.
	Tools []types.ToolDefinition

	// Template overrides the default tool-advertising system-prompt
	// fragment; nil uses the protocol's built-in rendering.
	Template surface.ToolSystemPromptTemplate

	// ParseOptions configures the underlying StreamParser/GenerateParser;
	// nil uses streamparser.DefaultParseOptions().
	ParseOptions *streamparser.ParseOptions

	// Telemetry configures the OpenTelemetry spans opened around the parse
	// boundary (SPEC_FULL.md §2 Tracing); nil disables tracing.
	Telemetry *telemetry.Settings
}

// NewToolCallMiddleware builds the middleware that lets a host application
// bolt structured tool calling onto a model whose wire format can't natively
// carry it: it lifts the declared tools into a system-prompt fragment via
// opts.Protocol, strips the native Tools field from outgoing requests (the
// model is never told to use a tool-calling wire feature it doesn't have),
// and reparses the model's text output back into typed
// ToolCallContent/StreamPart tool calls.
//
// Construction fails if opts.Tools contains a duplicate or empty tool name,
// surfaced via opts.Protocol.CreateStreamParser.
func NewToolCallMiddleware(opts ToolCallMiddlewareOptions) (*LanguageModelMiddleware, error) {
	if _, err := opts.Protocol.CreateStreamParser(opts.Tools, opts.ParseOptions); err != nil {
		return nil, err
	}

	fragment := opts.Protocol.FormatTools(opts.Tools, opts.Template)
	tracer := telemetry.GetTracer(opts.Telemetry)

	return &LanguageModelMiddleware{
		SpecificationVersion: "v3",

		TransformParams: func(
			ctx context.Context,
			callType string,
			params *provider.GenerateOptions,
			model provider.LanguageModel,
		) (*provider.GenerateOptions, error) {
			updated := *params
			if updated.Prompt.System == "" {
				updated.Prompt.System = fragment
			} else {
				updated.Prompt.System = strings.TrimRight(updated.Prompt.System, "\n") + "\n\n" + fragment
			}
			updated.Tools = nil
			updated.ToolChoice = types.ToolChoice{}
			return &updated, nil
		},

		WrapGenerate: func(
			ctx context.Context,
			doGenerate func() (*types.GenerateResult, error),
			doStream func() (provider.TextStream, error),
			params *provider.GenerateOptions,
			model provider.LanguageModel,
		) (*types.GenerateResult, error) {
			result, err := doGenerate()
			if err != nil {
				return nil, err
			}

			parsed, err := telemetry.RecordSpan(ctx, tracer, telemetry.SpanOptions{
				Name:        "toolbridge.parse_generated_text",
				Attributes:  []attribute.KeyValue{attribute.String("toolbridge.protocol", opts.Protocol.Name())},
				EndWhenDone: true,
			}, func(_ context.Context, span trace.Span) ([]types.ContentPart, error) {
				parsed, err := opts.Protocol.ParseGeneratedText(resultText(result), opts.Tools, opts.ParseOptions)
				if err == nil {
					span.SetAttributes(attribute.Int("toolbridge.tool_calls", countToolCalls(parsed)))
				}
				return parsed, err
			})
			if err != nil {
				return nil, err
			}
			return withParsedContent(result, parsed), nil
		},

		WrapStream: func(
			ctx context.Context,
			doGenerate func() (*types.GenerateResult, error),
			doStream func() (provider.TextStream, error),
			params *provider.GenerateOptions,
			model provider.LanguageModel,
		) (provider.TextStream, error) {
			stream, err := doStream()
			if err != nil {
				return nil, err
			}

			parser, err := opts.Protocol.CreateStreamParser(opts.Tools, opts.ParseOptions)
			if err != nil {
				return nil, err
			}

			return &toolCallStream{ctx: ctx, stream: stream, parser: parser, tracer: tracer}, nil
		},
	}, nil
}

func countToolCalls(parts []types.ContentPart) int {
	n := 0
	for _, part := range parts {
		if _, ok := part.(types.ToolCallContent); ok {
			n++
		}
	}
	return n
}

// toolCallStream drives the incoming TextStream through a streamparser.Parser,
// fanning every upstream StreamPart out into zero or more downstream parts.
// A single upstream part can yield several downstream parts (e.g. a
// TextDelta that closes a tool-call body also produces ToolInputEnd and
// ToolCall), so parts are buffered and drained one at a time.
type toolCallStream struct {
	ctx    context.Context
	stream provider.TextStream
	parser *streamparser.Parser
	tracer trace.Tracer

	pending []provider.StreamPart
	done    bool
}

func (s *toolCallStream) Next() (*provider.StreamPart, error) {
	for {
		if len(s.pending) > 0 {
			part := s.pending[0]
			s.pending = s.pending[1:]
			if part.Kind == provider.PartKindToolCall {
				s.recordToolCallSpan(part)
			}
			return &part, nil
		}
		if s.done {
			return nil, io.EOF
		}

		part, err := s.stream.Next()
		if err != nil {
			s.done = true
			if err != io.EOF {
				return nil, err
			}
			s.pending = s.parser.Flush()
			continue
		}

		s.pending = s.parser.Push(*part)
	}
}

// recordToolCallSpan opens and immediately closes a span marking a single
// parsed tool call.
func (s *toolCallStream) recordToolCallSpan(part provider.StreamPart) {
	_, span := s.tracer.Start(s.ctx, "toolbridge.tool_call")
	span.SetAttributes(attribute.String("toolbridge.tool_name", part.ToolName))
	span.End()
}

// Read is unused by middleware callers, which only drive the stream via Next.
func (s *toolCallStream) Read(p []byte) (n int, err error) {
	return 0, io.EOF
}

func (s *toolCallStream) Close() error {
	return s.stream.Close()
}

func (s *toolCallStream) Err() error {
	return s.stream.Err()
}
