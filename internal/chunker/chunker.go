// Package chunker splits document text into overlapping fixed-size chunks
// suitable for embedding. Splitting is deterministic: the same text and
// parameters always produce the same chunks.
package chunker

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultOverlap is how many characters consecutive chunks share.
	DefaultOverlap = 200
)

// Chunk is a contiguous slice of a document's text. Chunks are ephemeral
// values passed between the chunker and the embedding client; they are
// never persisted standalone.
type Chunk struct {
	FilePath  string
	Folder    string
	Index     int
	Text      string
	CharCount int
	WordCount int
}

// Split breaks text into overlapping chunks of at most chunkSize characters.
// Window boundaries are retracted to the nearest preceding whitespace so a
// chunk never ends mid-word, unless the window contains no whitespace at all
// (a single long token), in which case it cuts at the rune boundary at or
// before chunkSize. Each window starts chunkSize-overlap characters after
// the previous window's start, likewise snapped to a rune boundary.
//
// Text shorter than chunkSize yields exactly one chunk; empty text yields
// zero chunks.
func Split(filePath, text string, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 2
		}
	}

	if len(strings.TrimSpace(text)) == 0 {
		return nil
	}

	folder := folderOf(filePath)
	stride := chunkSize - overlap

	var chunks []Chunk
	for start := 0; start < len(text); start += stride {
		// Byte-offset windows can land inside a multi-byte rune; back both
		// edges off to rune boundaries so chunk text is always valid UTF-8.
		begin := runeStart(text, start)
		end := start + chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = runeStart(text, end)
			if cut := lastSpaceBefore(text, begin, end); cut > begin {
				// Retract to a word boundary when the window would split a word.
				if !isSpace(text[end-1]) && !isSpace(text[end]) {
					end = cut
				}
			}
		}

		segment := text[begin:end]
		if strings.TrimSpace(segment) != "" {
			chunks = append(chunks, Chunk{
				FilePath:  filePath,
				Folder:    folder,
				Index:     len(chunks),
				Text:      segment,
				CharCount: len(segment),
				WordCount: len(strings.Fields(segment)),
			})
		}

		if end == len(text) {
			break
		}
	}

	return chunks
}

// runeStart retracts a byte offset to the start of the rune it falls
// inside. Offsets already on a rune boundary are returned unchanged.
func runeStart(text string, i int) int {
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// lastSpaceBefore returns the index just past the last whitespace byte in
// text[start:end], or start if the window has no whitespace.
func lastSpaceBefore(text string, start, end int) int {
	for i := end - 1; i > start; i-- {
		if isSpace(text[i]) {
			return i + 1
		}
	}
	return start
}

func isSpace(b byte) bool {
	return unicode.IsSpace(rune(b))
}

// folderOf derives the folder payload field from a document path.
// Top-level files report an empty folder.
func folderOf(filePath string) string {
	dir := filepath.ToSlash(filepath.Dir(filePath))
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
