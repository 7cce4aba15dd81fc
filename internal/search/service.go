// Package search embeds query strings and answers ranked similarity
// queries against the vector index, optionally fusing in literal keyword
// matches.
package search

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/docdex/internal/embeddings"
	"github.com/ziadkadry99/docdex/internal/vectordb"
)

// DefaultLimit caps results when the caller does not specify one.
const DefaultLimit = 10

// Service answers semantic search requests. Errors from the embedder or
// the vector store fail the whole request; partial results are never
// returned.
type Service struct {
	embedder embeddings.Embedder
	store    vectordb.VectorStore
	literal  *LiteralIndex // nil disables literal-match merging
}

// NewService creates a search service. literal may be nil, in which case
// results come from the vector store alone.
func NewService(embedder embeddings.Embedder, store vectordb.VectorStore, literal *LiteralIndex) *Service {
	return &Service{
		embedder: embedder,
		store:    store,
		literal:  literal,
	}
}

// Search embeds the query, runs a similarity query restricted by the
// optional folder, and returns up to limit results in descending score
// order.
func (s *Service) Search(ctx context.Context, query string, folder *string, limit int) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}

	var filter *vectordb.Filter
	if folder != nil && *folder != "" {
		filter = &vectordb.Filter{Folder: folder}
	}

	vecResults, err := s.store.Query(ctx, vectors[0], filter, limit)
	if err != nil {
		return nil, fmt.Errorf("querying vector index: %w", err)
	}

	if s.literal == nil {
		return mapVectorResults(vecResults), nil
	}

	litResults, err := s.literal.Match(query, folder, limit)
	if err != nil {
		return nil, fmt.Errorf("literal match: %w", err)
	}

	return fuseResults(vecResults, litResults, limit), nil
}

func mapVectorResults(results []vectordb.Result) []Result {
	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{
			FilePath:   r.Payload.FilePath,
			ChunkText:  r.Text,
			ChunkIndex: r.Payload.ChunkIndex,
			Score:      r.Score,
			Folder:     r.Payload.Folder,
			FileType:   r.Payload.FileType,
			WordCount:  r.Payload.WordCount,
			CharCount:  r.Payload.CharCount,
		}
	}
	return out
}
