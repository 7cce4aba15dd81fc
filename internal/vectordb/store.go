package vectordb

import "context"

// VectorStore defines the interface for persisting embedded chunks and
// answering similarity queries.
//
// No similarity threshold is applied anywhere in the store: callers control
// result volume purely via limit. A fixed threshold suppresses legitimate
// matches on small or heterogeneous corpora (a 0.7 cutoff was observed to
// filter out every result when the best match scored 0.46).
type VectorStore interface {
	// Upsert adds or overwrites points. Re-upserting an existing id
	// replaces it, so the operation is idempotent.
	Upsert(ctx context.Context, points []Point) error

	// Query returns up to limit points ranked by similarity to the given
	// vector, optionally restricted by filter.
	Query(ctx context.Context, vector []float32, filter *Filter, limit int) ([]Result, error)

	// DeleteByFile removes every point whose payload file_path matches.
	DeleteByFile(ctx context.Context, filePath string) error

	// Count returns the total number of stored points.
	Count() int

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error
}
