package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitEmptyText(t *testing.T) {
	if got := Split("a.md", "", 1000, 200); len(got) != 0 {
		t.Errorf("Split(empty) = %d chunks, want 0", len(got))
	}
	if got := Split("a.md", "   \n\t  ", 1000, 200); len(got) != 0 {
		t.Errorf("Split(whitespace) = %d chunks, want 0", len(got))
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks := Split("notes/a.md", "hello world", 1000, 200)
	if len(chunks) != 1 {
		t.Fatalf("Split = %d chunks, want 1", len(chunks))
	}
	c := chunks[0]
	if c.Text != "hello world" {
		t.Errorf("Text = %q, want %q", c.Text, "hello world")
	}
	if c.Index != 0 {
		t.Errorf("Index = %d, want 0", c.Index)
	}
	if c.CharCount != 11 {
		t.Errorf("CharCount = %d, want 11", c.CharCount)
	}
	if c.WordCount != 2 {
		t.Errorf("WordCount = %d, want 2", c.WordCount)
	}
	if c.Folder != "notes" {
		t.Errorf("Folder = %q, want %q", c.Folder, "notes")
	}
}

func TestSplitTopLevelFileHasEmptyFolder(t *testing.T) {
	chunks := Split("readme.md", "some text", 1000, 200)
	if len(chunks) != 1 {
		t.Fatalf("Split = %d chunks, want 1", len(chunks))
	}
	if chunks[0].Folder != "" {
		t.Errorf("Folder = %q, want empty", chunks[0].Folder)
	}
}

func TestSplitNeverCutsMidWord(t *testing.T) {
	// Many short words so whitespace is always available within a window.
	text := strings.Repeat("alpha beta gamma delta ", 200)
	chunks := Split("a.md", text, 100, 20)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	valid := map[string]bool{"alpha": true, "beta": true, "gamma": true, "delta": true}
	for i, c := range chunks {
		words := strings.Fields(c.Text)
		// A window start may land mid-word (starts are fixed-stride), but
		// the end must never cut one, so every word past the first must be
		// complete.
		for j, w := range words {
			if j == 0 && i > 0 {
				continue
			}
			if !valid[w] {
				t.Errorf("chunk %d contains split word %q", i, w)
			}
		}
	}
}

func TestSplitLongTokenCutsAtChunkSize(t *testing.T) {
	text := strings.Repeat("x", 2500)
	chunks := Split("a.md", text, 1000, 200)
	if len(chunks) == 0 {
		t.Fatal("expected chunks for long token")
	}
	if len(chunks[0].Text) != 1000 {
		t.Errorf("first chunk length = %d, want 1000", len(chunks[0].Text))
	}
}

func TestSplitMultiByteRunesStayIntact(t *testing.T) {
	// CJK prose has no ASCII whitespace, so every window boundary lands in
	// the middle of the text; none may land in the middle of a rune.
	text := strings.Repeat("漢", 500) // 1500 bytes
	chunks := Split("a.md", text, 1000, 200)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %d contains invalid UTF-8", c.Index)
		}
		for _, r := range c.Text {
			if r != '漢' {
				t.Errorf("chunk %d contains mangled rune %q", c.Index, r)
				break
			}
		}
	}
	// The chunk set must still cover the final rune of the document.
	last := chunks[len(chunks)-1].Text
	if !strings.HasSuffix(text, last) {
		t.Error("last chunk does not end at the end of the text")
	}
}

func TestSplitOverlapSharesContext(t *testing.T) {
	text := strings.Repeat("word ", 500) // 2500 chars
	chunks := Split("a.md", text, 1000, 200)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Second window starts 800 chars after the first, so the first 200
	// characters of chunk 1's window overlap chunk 0's tail.
	if !strings.HasPrefix(text[800:], chunks[1].Text[:50]) {
		t.Error("chunk 1 does not start at the expected overlapped offset")
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 100)
	a := Split("a.md", text, 1000, 200)
	b := Split("a.md", text, 1000, 200)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitIndicesAreSequential(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 200)
	chunks := Split("a.md", text, 500, 100)
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has Index %d", i, c.Index)
		}
	}
}
