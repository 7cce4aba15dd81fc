package embeddings

import "context"

// Embedder defines the interface for generating text embeddings.
//
// Implementations must return exactly one vector per input text, in input
// order. A provider response that drops or reorders entries is a contract
// violation and must surface as an error, never as misaligned results.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// HealthChecker is implemented by embedders that can report provider
// reachability with a cheap probe instead of a real embedding request.
type HealthChecker interface {
	Health(ctx context.Context) error
}
