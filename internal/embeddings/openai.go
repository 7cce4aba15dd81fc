package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBatchSize caps how many chunks go into a single embedding request.
// Small batches bound request payload size and per-call latency.
const DefaultBatchSize = 5

// OpenAIModel represents a supported OpenAI embedding model.
type OpenAIModel string

const (
	ModelTextEmbedding3Small OpenAIModel = "text-embedding-3-small"
	ModelTextEmbedding3Large OpenAIModel = "text-embedding-3-large"
)

func (m OpenAIModel) dimensions() int {
	switch m {
	case ModelTextEmbedding3Small:
		return 1536
	case ModelTextEmbedding3Large:
		return 3072
	default:
		return 1536
	}
}

// OpenAIEmbedder generates embeddings using OpenAI's API, batching inputs
// and retrying transient failures with exponential backoff.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     OpenAIModel
	batchSize int
	retry     RetryPolicy
}

// NewOpenAIEmbedder creates a new OpenAI embedder with the given API key and
// model. batchSize <= 0 uses DefaultBatchSize.
func NewOpenAIEmbedder(apiKey string, model OpenAIModel, batchSize int, retry RetryPolicy) *OpenAIEmbedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &OpenAIEmbedder{
		client:    openai.NewClient(apiKey),
		model:     model,
		batchSize: batchSize,
		retry:     retry,
	}
}

func (e *OpenAIEmbedder) Name() string {
	return string(e.model)
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.model.dimensions()
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	allEmbeddings := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		vectors, err := e.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		allEmbeddings = append(allEmbeddings, vectors...)
	}

	return allEmbeddings, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var vectors [][]float32

	err := e.retry.Do(ctx, func() error {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return classifyOpenAIError(fmt.Errorf("openai embedding request: %w", err))
		}

		if len(resp.Data) != len(batch) {
			// Dropped entries would silently misalign texts[i] with
			// vectors[i] downstream.
			return Permanent(fmt.Errorf("openai returned %d embeddings, expected %d", len(resp.Data), len(batch)))
		}

		vectors = make([][]float32, len(batch))
		for _, emb := range resp.Data {
			if emb.Index < 0 || emb.Index >= len(batch) {
				return Permanent(fmt.Errorf("openai returned embedding with out-of-range index %d", emb.Index))
			}
			vectors[emb.Index] = emb.Embedding
		}
		for i, v := range vectors {
			if v == nil {
				return Permanent(fmt.Errorf("openai response missing embedding for input %d", i))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

// Health probes the API with a model listing, which is cheap and requires
// valid credentials.
func (e *OpenAIEmbedder) Health(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai unreachable: %w", err)
	}
	return nil
}
