package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	internalhttp "github.com/kestrel-ai/toolbridge/pkg/internal/http"
	providererrors "github.com/kestrel-ai/toolbridge/pkg/provider/errors"
	"github.com/kestrel-ai/toolbridge/pkg/provider"
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
	"github.com/kestrel-ai/toolbridge/pkg/providerutils/prompt"
	"github.com/kestrel-ai/toolbridge/pkg/providerutils/streaming"
	"github.com/kestrel-ai/toolbridge/pkg/providerutils/tool"
)

// LanguageModel implements the provider.LanguageModel interface for Ollama
type LanguageModel struct {
	provider *Provider
	modelID  string
}

// NewLanguageModel creates a new Ollama language model
func NewLanguageModel(provider *Provider, modelID string) *LanguageModel {
	return &LanguageModel{
		provider: provider,
		modelID:  modelID,
	}
}

// SpecificationVersion returns the specification version
func (m *LanguageModel) SpecificationVersion() string {
	return "v3"
}

// Provider returns the provider name
func (m *LanguageModel) Provider() string {
	return "ollama"
}

// ModelID returns the model ID
func (m *LanguageModel) ModelID() string {
	return m.modelID
}

// SupportsTools returns whether the model supports tool calling
func (m *LanguageModel) SupportsTools() bool {
	return true
}

// SupportsStructuredOutput returns whether the model supports structured output
func (m *LanguageModel) SupportsStructuredOutput() bool {
	return true
}

// SupportsImageInput returns whether the model accepts image inputs
func (m *LanguageModel) SupportsImageInput() bool {
	return false
}

// DoGenerate performs non-streaming text generation
func (m *LanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	reqBody := m.buildRequestBody(opts, false)
	var response ollamaResponse
	err := m.provider.client.PostJSON(ctx, "/v1/chat/completions", reqBody, &response)
	if err != nil {
		return nil, m.handleError(err)
	}
	return m.convertResponse(response), nil
}

// DoStream performs streaming text generation
func (m *LanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
	reqBody := m.buildRequestBody(opts, true)
	httpResp, err := m.provider.client.DoStream(ctx, internalhttp.Request{
		Method: http.MethodPost,
		Path:   "/v1/chat/completions",
		Body:   reqBody,
		Headers: map[string]string{
			"Accept": "text/event-stream",
		},
	})
	if err != nil {
		return nil, m.handleError(err)
	}
	return newOllamaStream(httpResp.Body), nil
}

func (m *LanguageModel) buildRequestBody(opts *provider.GenerateOptions, stream bool) map[string]interface{} {
	body := map[string]interface{}{
		"model":  m.modelID,
		"stream": stream,
	}
	if opts.Prompt.IsMessages() {
		body["messages"] = prompt.ToOpenAIMessages(opts.Prompt.Messages)
	} else if opts.Prompt.IsSimple() {
		body["messages"] = prompt.ToOpenAIMessages(prompt.SimpleTextToMessages(opts.Prompt.Text))
	}
	if opts.Prompt.System != "" {
		messages := body["messages"].([]map[string]interface{})
		systemMsg := map[string]interface{}{
			"role":    "system",
			"content": opts.Prompt.System,
		}
		body["messages"] = append([]map[string]interface{}{systemMsg}, messages...)
	}
	if opts.MaxTokens != nil {
		body["max_tokens"] = *opts.MaxTokens
	}
	if opts.Temperature != nil {
		body["temperature"] = *opts.Temperature
	}
	if opts.TopP != nil {
		body["top_p"] = *opts.TopP
	}
	if opts.StopSequences != nil && len(opts.StopSequences) > 0 {
		body["stop"] = opts.StopSequences
	}
	if len(opts.Tools) > 0 {
		body["tools"] = tool.ToOpenAIFormat(opts.Tools)
		if opts.ToolChoice.Type != "" {
			body["tool_choice"] = tool.ConvertToolChoiceToOpenAI(opts.ToolChoice)
		}
	}
	if opts.ResponseFormat != nil {
		body["response_format"] = map[string]interface{}{
			"type": opts.ResponseFormat.Type,
		}
	}
	return body
}

func (m *LanguageModel) convertResponse(response ollamaResponse) *types.GenerateResult {
	if len(response.Choices) == 0 {
		return &types.GenerateResult{FinishReason: types.FinishReasonOther}
	}
	choice := response.Choices[0]
	inputTokens := int64(response.Usage.PromptTokens)
	outputTokens := int64(response.Usage.CompletionTokens)
	totalTokens := int64(response.Usage.TotalTokens)

	var content []types.ContentPart
	if choice.Message.Content != "" {
		content = append(content, types.TextContent{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		content = append(content, types.ToolCallContent{
			ID:       tc.ID,
			ToolName: tc.Function.Name,
			Input:    normalizeToolArguments(tc.Function.Arguments),
		})
	}

	return &types.GenerateResult{
		Content:      content,
		FinishReason: convertFinishReason(choice.FinishReason),
		Usage: types.Usage{
			InputTokens:  &inputTokens,
			OutputTokens: &outputTokens,
			TotalTokens:  &totalTokens,
		},
	}
}

// normalizeToolArguments re-serializes the upstream arguments string so the
// result is canonical JSON even if Ollama emits non-canonical whitespace.
func normalizeToolArguments(raw string) string {
	if raw == "" {
		return "{}"
	}
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	out, err := json.Marshal(v)
	if err != nil {
		return raw
	}
	return string(out)
}

func (m *LanguageModel) handleError(err error) error {
	return providererrors.NewProviderError("ollama", 0, "", err.Error(), err)
}

func convertFinishReason(reason string) types.FinishReason {
	switch reason {
	case "stop":
		return types.FinishReasonStop
	case "length":
		return types.FinishReasonLength
	case "tool_calls":
		return types.FinishReasonToolCalls
	default:
		return types.FinishReasonOther
	}
}

type ollamaResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type ollamaStreamChunk struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
		Delta        struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
	} `json:"choices"`
}

type ollamaStream struct {
	reader io.ReadCloser
	parser *streaming.SSEParser
	err    error

	textOpen bool
	pending  *provider.StreamPart
}

func newOllamaStream(reader io.ReadCloser) *ollamaStream {
	return &ollamaStream{reader: reader, parser: streaming.NewSSEParser(reader)}
}

func (s *ollamaStream) Read(p []byte) (n int, err error) { return s.reader.Read(p) }
func (s *ollamaStream) Close() error                     { return s.reader.Close() }

func (s *ollamaStream) Next() (*provider.StreamPart, error) {
	if s.pending != nil {
		part := s.pending
		s.pending = nil
		return part, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	event, err := s.parser.Next()
	if err != nil {
		s.err = err
		if s.textOpen {
			s.textOpen = false
			return &provider.StreamPart{Kind: provider.PartKindTextEnd, ID: "ollama-text"}, nil
		}
		return nil, err
	}
	if streaming.IsStreamDone(event) {
		s.err = io.EOF
		if s.textOpen {
			s.textOpen = false
			return &provider.StreamPart{Kind: provider.PartKindTextEnd, ID: "ollama-text"}, nil
		}
		return nil, io.EOF
	}
	var chunkData ollamaStreamChunk
	if err := json.Unmarshal([]byte(event.Data), &chunkData); err != nil {
		return nil, fmt.Errorf("failed to parse stream chunk: %w", err)
	}
	if len(chunkData.Choices) > 0 {
		choice := chunkData.Choices[0]
		if choice.Delta.Content != "" {
			if !s.textOpen {
				s.textOpen = true
				return &provider.StreamPart{Kind: provider.PartKindTextStart, ID: "ollama-text"}, nil
			}
			return &provider.StreamPart{Kind: provider.PartKindTextDelta, ID: "ollama-text", Delta: choice.Delta.Content}, nil
		}
		if len(choice.Delta.ToolCalls) > 0 {
			tc := choice.Delta.ToolCalls[0]
			return &provider.StreamPart{
				Kind:     provider.PartKindToolCall,
				ID:       tc.ID,
				ToolName: tc.Function.Name,
				Input:    normalizeToolArguments(tc.Function.Arguments),
			}, nil
		}
		if choice.FinishReason != "" {
			finish := &provider.StreamPart{Kind: provider.PartKindFinish, FinishReason: convertFinishReason(choice.FinishReason)}
			if s.textOpen {
				s.textOpen = false
				s.pending = finish
				return &provider.StreamPart{Kind: provider.PartKindTextEnd, ID: "ollama-text"}, nil
			}
			return finish, nil
		}
	}
	return s.Next()
}

func (s *ollamaStream) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
