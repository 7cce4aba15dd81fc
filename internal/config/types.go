package config

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level docdex configuration, corresponding to .docdex.yml.
type Config struct {
	CorpusDir         string       `yaml:"corpus_dir" koanf:"corpus_dir"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	OllamaURL         string       `yaml:"ollama_url" koanf:"ollama_url"`
	ChunkSize         int          `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap      int          `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	EmbedBatchSize    int          `yaml:"embed_batch_size" koanf:"embed_batch_size"`
	Include           []string     `yaml:"include" koanf:"include"`
	Exclude           []string     `yaml:"exclude" koanf:"exclude"`
	MaxFileSize       int64        `yaml:"max_file_size" koanf:"max_file_size"`
	Worker            WorkerConfig `yaml:"worker" koanf:"worker"`
	Retry             RetryConfig  `yaml:"retry" koanf:"retry"`
	Server            ServerConfig `yaml:"server" koanf:"server"`
}

// WorkerConfig holds worker pool settings.
type WorkerConfig struct {
	Count             int `yaml:"count" koanf:"count"`
	MaxRetries        int `yaml:"max_retries" koanf:"max_retries"`
	StaleAfterSeconds int `yaml:"stale_after_seconds" koanf:"stale_after_seconds"`
}

// RetryConfig holds embedding request retry settings.
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts" koanf:"max_attempts"`
	BaseDelayMS int     `yaml:"base_delay_ms" koanf:"base_delay_ms"`
	Multiplier  float64 `yaml:"multiplier" koanf:"multiplier"`
	MaxDelayMS  int     `yaml:"max_delay_ms" koanf:"max_delay_ms"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
}
