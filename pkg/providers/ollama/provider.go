package ollama

import (
	"github.com/kestrel-ai/toolbridge/pkg/internal/http"
	"github.com/kestrel-ai/toolbridge/pkg/provider"
)

// Provider implements the provider.Provider interface for Ollama
type Provider struct {
	config Config
	client *http.Client
}

// Config contains configuration for the Ollama provider
type Config struct {
	// BaseURL is the base URL for the Ollama API (default: http://localhost:11434)
	BaseURL string
}

// New creates a new Ollama provider with the given configuration
func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	client := http.NewClient(http.Config{
		BaseURL: baseURL,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	})

	return &Provider{
		config: cfg,
		client: client,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "ollama"
}

// LanguageModel returns a language model by ID
func (p *Provider) LanguageModel(modelID string) (provider.LanguageModel, error) {
	if modelID == "" {
		modelID = "llama2"
	}

	return NewLanguageModel(p, modelID), nil
}

// Client returns the HTTP client for making API requests
func (p *Provider) Client() *http.Client {
	return p.client
}
