package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EmbeddingProvider != ProviderOpenAI {
		t.Errorf("provider = %q, want openai default", cfg.EmbeddingProvider)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Errorf("chunking defaults = %d/%d, want 1000/200", cfg.ChunkSize, cfg.ChunkOverlap)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docdex.yml")
	content := `
corpus_dir: ./docs
embedding_provider: ollama
embedding_model: nomic-embed-text
chunk_size: 500
worker:
  count: 4
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CorpusDir != "./docs" {
		t.Errorf("corpus_dir = %q", cfg.CorpusDir)
	}
	if cfg.EmbeddingProvider != ProviderOllama {
		t.Errorf("provider = %q", cfg.EmbeddingProvider)
	}
	if cfg.ChunkSize != 500 {
		t.Errorf("chunk_size = %d", cfg.ChunkSize)
	}
	if cfg.Worker.Count != 4 {
		t.Errorf("worker.count = %d", cfg.Worker.Count)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("server.port = %d", cfg.Server.Port)
	}
	// Unset fields keep defaults.
	if cfg.ChunkOverlap != 200 {
		t.Errorf("chunk_overlap = %d, want default 200", cfg.ChunkOverlap)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DOCDEX_EMBEDDING_MODEL", "text-embedding-3-large")
	t.Setenv("DOCDEX_CHUNK_SIZE", "750")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EmbeddingModel != "text-embedding-3-large" {
		t.Errorf("embedding_model = %q, env override ignored", cfg.EmbeddingModel)
	}
	if cfg.ChunkSize != 750 {
		t.Errorf("chunk_size = %d, env override ignored", cfg.ChunkSize)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docdex.yml")

	cfg := DefaultConfig()
	cfg.CorpusDir = "./notes"
	cfg.EmbeddingProvider = ProviderOllama
	cfg.EmbeddingModel = "nomic-embed-text"
	cfg.Include = []string{"**/*.md"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.CorpusDir != "./notes" || loaded.EmbeddingProvider != ProviderOllama {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if len(loaded.Include) != 1 || loaded.Include[0] != "**/*.md" {
		t.Errorf("include = %v", loaded.Include)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.EmbeddingProvider = "cohere" }, "embedding_provider"},
		{"empty model", func(c *Config) { c.EmbeddingModel = "" }, "embedding_model"},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, "chunk_size"},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 1000 }, "chunk_overlap"},
		{"zero batch", func(c *Config) { c.EmbedBatchSize = 0 }, "embed_batch_size"},
		{"zero workers", func(c *Config) { c.Worker.Count = 0 }, "worker.count"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted invalid config")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestDefaultEmbeddingModel(t *testing.T) {
	if got := DefaultEmbeddingModel(ProviderOllama); got != "nomic-embed-text" {
		t.Errorf("ollama default = %q", got)
	}
	if got := DefaultEmbeddingModel("unknown"); got != "text-embedding-3-small" {
		t.Errorf("unknown provider default = %q", got)
	}
}
