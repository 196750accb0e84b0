package provider

// Provider resolves model IDs to LanguageModel instances for a single
// backend (Ollama, a hosted API, etc). Scoped to text generation only — the
// teacher's EmbeddingModel/ImageModel/SpeechModel/TranscriptionModel/
// RerankingModel methods are out of scope here.
type Provider interface {
	// Name returns the provider name for logging and telemetry.
	Name() string

	// LanguageModel returns a language model by ID, or an error if the
	// model ID is not supported.
	LanguageModel(modelID string) (LanguageModel, error)
}
