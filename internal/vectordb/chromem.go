package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/docdex/internal/embeddings"
)

const (
	collectionName = "documents"
	snapshotName   = "chromem.gob.gz"
	addConcurrency = 2
)

// ChromemStore implements VectorStore using chromem-go. Vectors are
// computed upstream by the embedding client; chromem only stores and
// searches them.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore. The embedder is
// only used as chromem's fallback embedding func; normal writes carry
// precomputed vectors.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedFunc:  ef,
	}, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		docs[i] = chromem.Document{
			ID:        p.ID,
			Content:   p.Text,
			Embedding: p.Vector,
			Metadata:  payloadToMap(p.Payload),
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, addConcurrency); err != nil {
		return fmt.Errorf("chromem upsert: %w", err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, vector []float32, filter *Filter, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, limit, buildWhereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{
			ID:      r.ID,
			Text:    r.Content,
			Payload: mapToPayload(r.Metadata),
			Score:   r.Similarity,
		}
	}
	return out, nil
}

func (s *ChromemStore) DeleteByFile(ctx context.Context, filePath string) error {
	if s.collection.Count() == 0 {
		return nil
	}
	where := map[string]string{"file_path": filePath}
	if err := s.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("chromem delete %s: %w", filePath, err)
	}
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	return s.db.ExportToFile(filepath.Join(dir, snapshotName), true, "")
}

// Load restores a previously persisted snapshot. A missing snapshot is
// not an error; the store simply starts empty.
func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	path := filepath.Join(dir, snapshotName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := s.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

// payloadToMap flattens a Payload into chromem's string metadata.
func payloadToMap(p Payload) map[string]string {
	return map[string]string{
		"file_path":   p.FilePath,
		"folder":      p.Folder,
		"chunk_index": strconv.Itoa(p.ChunkIndex),
		"file_type":   p.FileType,
		"word_count":  strconv.Itoa(p.WordCount),
		"char_count":  strconv.Itoa(p.CharCount),
	}
}

func mapToPayload(m map[string]string) Payload {
	chunkIndex, _ := strconv.Atoi(m["chunk_index"])
	wordCount, _ := strconv.Atoi(m["word_count"])
	charCount, _ := strconv.Atoi(m["char_count"])

	return Payload{
		FilePath:   m["file_path"],
		Folder:     m["folder"],
		ChunkIndex: chunkIndex,
		FileType:   m["file_type"],
		WordCount:  wordCount,
		CharCount:  charCount,
	}
}

func buildWhereClause(filter *Filter) map[string]string {
	if filter == nil || filter.Folder == nil || *filter.Folder == "" {
		return nil
	}
	return map[string]string{"folder": *filter.Folder}
}
