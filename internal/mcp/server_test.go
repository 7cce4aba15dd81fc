package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/docdex/internal/db"
	"github.com/ziadkadry99/docdex/internal/jobs"
	"github.com/ziadkadry99/docdex/internal/search"
	"github.com/ziadkadry99/docdex/internal/vectordb"
)

// mockEmbedder maps known words onto axis-aligned vectors so ranking is
// deterministic.
type mockEmbedder struct{}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 3)
		lower := strings.ToLower(text)
		if strings.Contains(lower, "deploy") {
			vec[0] = 1
		}
		if strings.Contains(lower, "recipe") {
			vec[1] = 1
		}
		if vec[0] == 0 && vec[1] == 0 {
			vec[2] = 1
		}
		result[i] = vec
	}
	return result, nil
}
func (m *mockEmbedder) Dimensions() int { return 3 }
func (m *mockEmbedder) Name() string    { return "mock" }

func setupMCP(t *testing.T) (*Server, *jobs.Store, vectordb.VectorStore) {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	jobStore := jobs.NewStore(database, jobs.DefaultMaxRetries)

	embedder := &mockEmbedder{}
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	svc := search.NewService(embedder, store, nil)
	return NewServer(svc, jobStore, store), jobStore, store
}

func indexDoc(t *testing.T, store vectordb.VectorStore, path, text string, vec []float32) {
	t.Helper()
	payload := vectordb.Payload{FilePath: path, ChunkIndex: 0, CharCount: len(text)}
	err := store.Upsert(context.Background(), []vectordb.Point{
		{ID: vectordb.PointID(path, 0), Vector: vec, Text: text, Payload: payload},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		tool     mcp.Tool
		wantName string
	}{
		{searchDocumentsTool, "search_documents"},
		{indexStatusTool, "index_status"},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestHandleSearchDocuments(t *testing.T) {
	srv, _, store := setupMCP(t)
	indexDoc(t, store, "ops/deploy.md", "How to deploy the service", []float32{1, 0, 0})
	indexDoc(t, store, "kitchen/pasta.md", "A pasta recipe", []float32{0, 1, 0})
	ctx := context.Background()

	t.Run("basic search", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query": "deploy instructions",
		}

		result, err := srv.handleSearchDocuments(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := textOf(t, result)
		if !strings.Contains(text, "ops/deploy.md") {
			t.Errorf("result text missing best match:\n%s", text)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleSearchDocuments(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})

	t.Run("empty index", func(t *testing.T) {
		emptySrv, _, _ := setupMCP(t)
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query": "anything",
		}

		result, err := emptySrv.handleSearchDocuments(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Error("empty results should not be an error")
		}
		if !strings.Contains(textOf(t, result), "No results") {
			t.Errorf("empty index should explain itself: %s", textOf(t, result))
		}
	})
}

func TestHandleIndexStatus(t *testing.T) {
	srv, jobStore, store := setupMCP(t)
	indexDoc(t, store, "a.md", "text", []float32{0, 0, 1})

	if _, err := jobStore.Enqueue(context.Background(), "a.md", "text", jobs.ActionUpdate, 0); err != nil {
		t.Fatal(err)
	}

	req := mcp.CallToolRequest{}
	result, err := srv.handleIndexStatus(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	text := textOf(t, result)
	if !strings.Contains(text, "Indexed passages: 1") {
		t.Errorf("status missing passage count:\n%s", text)
	}
	if !strings.Contains(text, "1 pending") {
		t.Errorf("status missing pending count:\n%s", text)
	}
}
