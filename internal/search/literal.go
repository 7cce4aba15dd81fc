package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/ziadkadry99/docdex/internal/vectordb"
)

// LiteralResult is a keyword match from the literal index.
type LiteralResult struct {
	ID      string
	Score   float64
	Text    string
	Payload vectordb.Payload
}

// LiteralIndex maintains an in-memory keyword index over the same chunks
// the vector store holds, giving the search service a secondary
// literal-match result set to merge with semantic hits. It mirrors the
// vector store: workers call Index/DeleteByFile alongside every upsert and
// delete, so both stay in step.
type LiteralIndex struct {
	mu     sync.RWMutex
	idx    bleve.Index
	meta   map[string]literalMeta
	byFile map[string]map[string]struct{}
}

type literalMeta struct {
	text    string
	payload vectordb.Payload
}

type literalDoc struct {
	Text string `json:"text"`
}

// NewLiteralIndex creates an empty in-memory literal index.
func NewLiteralIndex() (*LiteralIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating literal index: %w", err)
	}
	return &LiteralIndex{
		idx:    idx,
		meta:   make(map[string]literalMeta),
		byFile: make(map[string]map[string]struct{}),
	}, nil
}

// Index adds or overwrites chunks. Ids are the same deterministic chunk
// ids the vector store uses.
func (l *LiteralIndex) Index(points []vectordb.Point) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range points {
		if err := l.idx.Index(p.ID, literalDoc{Text: p.Text}); err != nil {
			return fmt.Errorf("indexing chunk %s: %w", p.ID, err)
		}
		l.meta[p.ID] = literalMeta{text: p.Text, payload: p.Payload}
		ids, ok := l.byFile[p.Payload.FilePath]
		if !ok {
			ids = make(map[string]struct{})
			l.byFile[p.Payload.FilePath] = ids
		}
		ids[p.ID] = struct{}{}
	}
	return nil
}

// DeleteByFile removes every chunk belonging to the given file.
func (l *LiteralIndex) DeleteByFile(filePath string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id := range l.byFile[filePath] {
		if err := l.idx.Delete(id); err != nil {
			return fmt.Errorf("deleting chunk %s: %w", id, err)
		}
		delete(l.meta, id)
	}
	delete(l.byFile, filePath)
	return nil
}

// Match returns chunks whose text matches the query terms, ranked by
// bleve's relevance score, optionally restricted to a folder.
func (l *LiteralIndex) Match(query string, folder *string, limit int) ([]LiteralResult, error) {
	if limit <= 0 {
		limit = 10
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	// Over-fetch so a folder filter applied post-hoc can still fill limit.
	req.Size = limit * 4

	res, err := l.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("literal search: %w", err)
	}

	var out []LiteralResult
	for _, hit := range res.Hits {
		m, ok := l.meta[hit.ID]
		if !ok {
			continue
		}
		if folder != nil && *folder != "" && m.payload.Folder != *folder {
			continue
		}
		out = append(out, LiteralResult{
			ID:      hit.ID,
			Score:   hit.Score,
			Text:    m.text,
			Payload: m.payload,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of indexed chunks.
func (l *LiteralIndex) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.meta)
}
