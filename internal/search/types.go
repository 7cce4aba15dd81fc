package search

// Result is the read-only projection returned to search callers. It is
// never persisted.
type Result struct {
	FilePath   string  `json:"file_path"`
	ChunkText  string  `json:"chunk_text"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
	Folder     string  `json:"folder"`
	FileType   string  `json:"file_type"`
	WordCount  int     `json:"word_count"`
	CharCount  int     `json:"char_count"`
}
