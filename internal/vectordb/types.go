package vectordb

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Point is the persisted unit in the vector index: one embedded chunk of a
// document plus its payload metadata.
type Point struct {
	ID      string
	Vector  []float32
	Text    string
	Payload Payload
}

// Payload holds the metadata stored alongside each vector.
type Payload struct {
	FilePath   string
	Folder     string
	ChunkIndex int
	FileType   string
	WordCount  int
	CharCount  int
}

// Result pairs a stored point with its similarity score.
type Result struct {
	ID      string
	Text    string
	Payload Payload
	Score   float32
}

// Filter restricts query results by payload fields.
type Filter struct {
	Folder *string
}

// PointID derives the deterministic point id for a chunk. Re-processing the
// same file with unchanged chunk boundaries overwrites instead of
// duplicating.
func PointID(filePath string, chunkIndex int) string {
	return fmt.Sprintf("chunk:%s:%d", filePath, chunkIndex)
}

// FileType returns the extension-derived type of a document path, without
// the leading dot.
func FileType(filePath string) string {
	ext := strings.TrimPrefix(filepath.Ext(filePath), ".")
	if ext == "" {
		return "txt"
	}
	return strings.ToLower(ext)
}
