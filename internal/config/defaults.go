package config

// defaultEmbeddingModels maps each provider to its default model.
var defaultEmbeddingModels = map[ProviderType]string{
	ProviderOpenAI: "text-embedding-3-small",
	ProviderOllama: "nomic-embed-text",
}

// DefaultOllamaURL is the local Ollama endpoint.
const DefaultOllamaURL = "http://localhost:11434"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CorpusDir:         ".",
		DataDir:           ".docdex",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    defaultEmbeddingModels[ProviderOpenAI],
		OllamaURL:         DefaultOllamaURL,
		ChunkSize:         1000,
		ChunkOverlap:      200,
		EmbedBatchSize:    5,
		MaxFileSize:       1 << 20,
		Worker: WorkerConfig{
			Count:             2,
			MaxRetries:        3,
			StaleAfterSeconds: 300,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelayMS: 500,
			Multiplier:  2.0,
			MaxDelayMS:  8000,
		},
		Server: ServerConfig{
			Port:           8420,
			AllowedOrigins: []string{"*"},
		},
	}
}

// DefaultEmbeddingModel returns the default model for the given provider,
// falling back to the OpenAI default for unknown providers.
func DefaultEmbeddingModel(provider ProviderType) string {
	if model, ok := defaultEmbeddingModels[provider]; ok {
		return model
	}
	return defaultEmbeddingModels[ProviderOpenAI]
}
