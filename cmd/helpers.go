package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ziadkadry99/docdex/internal/config"
	"github.com/ziadkadry99/docdex/internal/embeddings"
	"github.com/ziadkadry99/docdex/internal/walker"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docdex init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
// This is the shared version used by the serve, mcp and resync commands.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	retry := retryPolicyFromConfig(cfg)

	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel), cfg.EmbedBatchSize, retry), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, 768, cfg.OllamaURL, cfg.EmbedBatchSize, retry), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// retryPolicyFromConfig converts the config retry block into a policy.
func retryPolicyFromConfig(cfg *config.Config) embeddings.RetryPolicy {
	policy := embeddings.DefaultRetryPolicy()
	if cfg.Retry.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.BaseDelayMS > 0 {
		policy.BaseDelay = time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond
	}
	if cfg.Retry.Multiplier > 0 {
		policy.Multiplier = cfg.Retry.Multiplier
	}
	if cfg.Retry.MaxDelayMS > 0 {
		policy.MaxDelay = time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond
	}
	return policy
}

// walkerConfigFromConfig builds the corpus traversal settings.
func walkerConfigFromConfig(cfg *config.Config) walker.Config {
	return walker.Config{
		RootDir:     cfg.CorpusDir,
		Include:     cfg.Include,
		Exclude:     cfg.Exclude,
		MaxFileSize: cfg.MaxFileSize,
	}
}
