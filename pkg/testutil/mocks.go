// Package testutil provides mock implementations of the provider
// interfaces, for exercising pkg/middleware and pkg/registry without a
// real backend.
package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/kestrel-ai/toolbridge/pkg/provider"
	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
)

// MockLanguageModel is a mock implementation of provider.LanguageModel.
type MockLanguageModel struct {
	DoGenerateFunc func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error)
	DoStreamFunc   func(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error)

	ProviderName      string
	ModelName         string
	ToolSupport       bool
	StructuredSupport bool
	ImageSupport      bool

	mu            sync.Mutex
	GenerateCalls []*provider.GenerateOptions
	StreamCalls   []*provider.GenerateOptions
}

func (m *MockLanguageModel) SpecificationVersion() string { return "v3" }
func (m *MockLanguageModel) Provider() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}
func (m *MockLanguageModel) ModelID() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}
func (m *MockLanguageModel) SupportsTools() bool            { return m.ToolSupport }
func (m *MockLanguageModel) SupportsStructuredOutput() bool { return m.StructuredSupport }
func (m *MockLanguageModel) SupportsImageInput() bool       { return m.ImageSupport }

func (m *MockLanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, opts)
	m.mu.Unlock()

	if m.DoGenerateFunc != nil {
		return m.DoGenerateFunc(ctx, opts)
	}
	inputTokens, outputTokens, totalTokens := int64(10), int64(5), int64(15)
	return &types.GenerateResult{
		Content:      []types.ContentPart{types.TextContent{Text: "mock response"}},
		FinishReason: types.FinishReasonStop,
		Usage:        types.Usage{InputTokens: &inputTokens, OutputTokens: &outputTokens, TotalTokens: &totalTokens},
	}, nil
}

func (m *MockLanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
	m.mu.Lock()
	m.StreamCalls = append(m.StreamCalls, opts)
	m.mu.Unlock()

	if m.DoStreamFunc != nil {
		return m.DoStreamFunc(ctx, opts)
	}
	return NewMockTextStream([]provider.StreamPart{
		{Kind: provider.PartKindTextStart, ID: "text-1"},
		{Kind: provider.PartKindTextDelta, ID: "text-1", Delta: "mock "},
		{Kind: provider.PartKindTextDelta, ID: "text-1", Delta: "response"},
		{Kind: provider.PartKindTextEnd, ID: "text-1"},
		{Kind: provider.PartKindFinish, FinishReason: types.FinishReasonStop},
	}), nil
}

// MockTextStream is a mock implementation of provider.TextStream.
type MockTextStream struct {
	parts  []provider.StreamPart
	index  int
	err    error
	closed bool
	mu     sync.Mutex
}

// NewMockTextStream creates a new MockTextStream that yields parts in order.
func NewMockTextStream(parts []provider.StreamPart) *MockTextStream {
	return &MockTextStream{parts: parts}
}

// NewMockTextStreamWithError creates a MockTextStream whose first Next call
// returns err.
func NewMockTextStreamWithError(err error) *MockTextStream {
	return &MockTextStream{err: err}
}

func (m *MockTextStream) Next() (*provider.StreamPart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if m.closed || m.index >= len(m.parts) {
		return nil, io.EOF
	}
	part := &m.parts[m.index]
	m.index++
	return part, nil
}

func (m *MockTextStream) Read(p []byte) (n int, err error) {
	part, err := m.Next()
	if err != nil {
		return 0, err
	}
	if part.Kind == provider.PartKindTextDelta {
		copy(p, part.Delta)
		return len(part.Delta), nil
	}
	return 0, nil
}

func (m *MockTextStream) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockTextStream) Err() error { return m.err }

// MockProvider is a mock implementation of provider.Provider.
type MockProvider struct {
	ProviderName      string
	LanguageModelFunc func(modelID string) (provider.LanguageModel, error)
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) LanguageModel(modelID string) (provider.LanguageModel, error) {
	if m.LanguageModelFunc != nil {
		return m.LanguageModelFunc(modelID)
	}
	return &MockLanguageModel{ProviderName: m.Name(), ModelName: modelID}, nil
}
