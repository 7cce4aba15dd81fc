package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docdex/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database, 3)
}

func TestEnqueueAndClaim(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, "a.md", "hello world", ActionCreate, 0)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if id == "" {
		t.Fatal("Enqueue returned empty id")
	}

	job, ok, err := store.ClaimNext(ctx, "worker-1")
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if !ok {
		t.Fatal("ClaimNext found no job")
	}
	if job.ID != id {
		t.Errorf("claimed %s, want %s", job.ID, id)
	}
	if job.Status != StatusProcessing {
		t.Errorf("Status = %s, want processing", job.Status)
	}
	if job.WorkerID != "worker-1" {
		t.Errorf("WorkerID = %s, want worker-1", job.WorkerID)
	}
	if job.Content != "hello world" {
		t.Errorf("Content = %q, want snapshot", job.Content)
	}

	// Queue is now empty for claiming.
	_, ok, err = store.ClaimNext(ctx, "worker-2")
	if err != nil {
		t.Fatalf("second ClaimNext: %v", err)
	}
	if ok {
		t.Error("second claim should find nothing")
	}
}

func TestEnqueueSupersedesPending(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id1, err := store.Enqueue(ctx, "a.md", "version 1", ActionCreate, 0)
	if err != nil {
		t.Fatalf("Enqueue v1: %v", err)
	}
	id2, err := store.Enqueue(ctx, "a.md", "version 2", ActionUpdate, 5)
	if err != nil {
		t.Fatalf("Enqueue v2: %v", err)
	}
	if id1 != id2 {
		t.Errorf("superseding enqueue created a new job: %s vs %s", id1, id2)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Pending != 1 {
		t.Errorf("Pending = %d, want 1", stats.Pending)
	}

	job, ok, err := store.ClaimNext(ctx, "w")
	if err != nil || !ok {
		t.Fatalf("ClaimNext: ok=%v err=%v", ok, err)
	}
	if job.Content != "version 2" {
		t.Errorf("worker saw %q, want latest content", job.Content)
	}
	if job.Action != ActionUpdate {
		t.Errorf("Action = %s, want update", job.Action)
	}
	if job.Priority != 5 {
		t.Errorf("Priority = %d, want 5", job.Priority)
	}
}

func TestEnqueueSupersedeResetsRetries(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, "a.md", "v1", ActionCreate, 0)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// Two transient failures leave the job pending with retries=2.
	for i := 0; i < 2; i++ {
		if _, ok, err := store.ClaimNext(ctx, "w"); err != nil || !ok {
			t.Fatalf("ClaimNext: ok=%v err=%v", ok, err)
		}
		if err := store.MarkFailed(ctx, id, errors.New("embedder timeout")); err != nil {
			t.Fatalf("MarkFailed: %v", err)
		}
	}

	id2, err := store.Enqueue(ctx, "a.md", "v2", ActionUpdate, 0)
	if err != nil {
		t.Fatalf("superseding Enqueue: %v", err)
	}
	if id2 != id {
		t.Fatalf("supersede created a new job: %s vs %s", id2, id)
	}

	job, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// New content gets the full retry budget, not the failed attempts of
	// the content it replaced.
	if job.Retries != 0 {
		t.Errorf("Retries = %d after supersede, want 0", job.Retries)
	}
	if job.Error != "" {
		t.Errorf("Error = %q after supersede, want cleared", job.Error)
	}
}

func TestEnqueueDoesNotSupersedeProcessing(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, "a.md", "v1", ActionCreate, 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, ok, err := store.ClaimNext(ctx, "w"); err != nil || !ok {
		t.Fatalf("ClaimNext: ok=%v err=%v", ok, err)
	}

	// A new enqueue while the first is processing gets its own row.
	if _, err := store.Enqueue(ctx, "a.md", "v2", ActionUpdate, 0); err != nil {
		t.Fatalf("Enqueue during processing: %v", err)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Pending != 1 || stats.Processing != 1 {
		t.Errorf("stats = %+v, want 1 pending and 1 processing", stats)
	}
}

func TestClaimOrderPriorityThenAge(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, "low.md", "", ActionCreate, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Enqueue(ctx, "high.md", "", ActionCreate, 10); err != nil {
		t.Fatal(err)
	}

	job, ok, err := store.ClaimNext(ctx, "w")
	if err != nil || !ok {
		t.Fatalf("ClaimNext: ok=%v err=%v", ok, err)
	}
	if job.FilePath != "high.md" {
		t.Errorf("claimed %s first, want high.md", job.FilePath)
	}
}

func TestClaimIsExclusiveUnderConcurrency(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	const n = 20
	for i := 0; i < n; i++ {
		if _, err := store.Enqueue(ctx, fileName(i), "", ActionCreate, 0); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	claimed := make(map[string]int)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(workerID string) {
			defer wg.Done()
			for {
				job, ok, err := store.ClaimNext(ctx, workerID)
				if err != nil {
					t.Errorf("ClaimNext: %v", err)
					return
				}
				if !ok {
					return
				}
				mu.Lock()
				claimed[job.ID]++
				mu.Unlock()
			}
		}(fileName(w))
	}
	wg.Wait()

	if len(claimed) != n {
		t.Errorf("claimed %d distinct jobs, want %d", len(claimed), n)
	}
	for id, count := range claimed {
		if count != 1 {
			t.Errorf("job %s claimed %d times", id, count)
		}
	}
}

func TestMarkFailedRequeuesUntilMaxRetries(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, "a.md", "x", ActionCreate, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Two failures leave the job reclaimable.
	for i := 0; i < 2; i++ {
		if _, ok, err := store.ClaimNext(ctx, "w"); err != nil || !ok {
			t.Fatalf("claim %d: ok=%v err=%v", i, ok, err)
		}
		if err := store.MarkFailed(ctx, id, errors.New("embed timeout")); err != nil {
			t.Fatalf("MarkFailed %d: %v", i, err)
		}
		job, err := store.Get(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if job.Status != StatusPending {
			t.Errorf("after failure %d: status = %s, want pending", i+1, job.Status)
		}
		if job.Retries != i+1 {
			t.Errorf("after failure %d: retries = %d, want %d", i+1, job.Retries, i+1)
		}
	}

	// Third failure parks it permanently.
	if _, ok, err := store.ClaimNext(ctx, "w"); err != nil || !ok {
		t.Fatalf("final claim: ok=%v err=%v", ok, err)
	}
	if err := store.MarkFailed(ctx, id, errors.New("embed timeout")); err != nil {
		t.Fatalf("final MarkFailed: %v", err)
	}

	job, err := store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != StatusFailed {
		t.Errorf("status = %s, want failed", job.Status)
	}
	if job.Error != "embed timeout" {
		t.Errorf("Error = %q, want last failure message", job.Error)
	}

	// Permanently failed jobs are never claimed again.
	if _, ok, err := store.ClaimNext(ctx, "w"); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Error("failed job was claimed again")
	}
}

func TestMarkCompleted(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, "a.md", "x", ActionCreate, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.ClaimNext(ctx, "w"); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkCompleted(ctx, id); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Completed != 1 {
		t.Errorf("Completed = %d, want 1", stats.Completed)
	}

	if err := store.MarkCompleted(ctx, "no-such-job"); err == nil {
		t.Error("MarkCompleted on unknown job should error")
	}
}

func TestReclaimStale(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, "a.md", "x", ActionCreate, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.ClaimNext(ctx, "crashed-worker"); err != nil {
		t.Fatal(err)
	}

	// Fresh claims are not stale.
	n, err := store.ReclaimStale(ctx, time.Minute)
	if err != nil {
		t.Fatalf("ReclaimStale: %v", err)
	}
	if n != 0 {
		t.Errorf("reclaimed %d fresh jobs, want 0", n)
	}

	// With a zero threshold everything processing counts as stale.
	time.Sleep(10 * time.Millisecond)
	n, err = store.ReclaimStale(ctx, 0)
	if err != nil {
		t.Fatalf("ReclaimStale: %v", err)
	}
	if n != 1 {
		t.Errorf("reclaimed %d jobs, want 1", n)
	}

	job, err := store.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != StatusPending {
		t.Errorf("status = %s, want pending after reclaim", job.Status)
	}
	if job.WorkerID != "" {
		t.Errorf("WorkerID = %q, want cleared", job.WorkerID)
	}
}

func TestEnqueueRejectsInvalidInput(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, "a.md", "", Action("rename"), 0); err == nil {
		t.Error("invalid action accepted")
	}
	if _, err := store.Enqueue(ctx, "", "", ActionCreate, 0); err == nil {
		t.Error("empty file_path accepted")
	}
}

func TestProcessFileRoute(t *testing.T) {
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)

	body, _ := json.Marshal(processFileRequest{
		FilePath: "docs/a.md",
		Content:  "hello",
		Action:   ActionCreate,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/process-file", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	var resp processFileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.JobID == "" {
		t.Error("response missing job_id")
	}

	// Stats endpoint reflects the enqueue.
	req = httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats jobStatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Stats.Pending != 1 {
		t.Errorf("Pending = %d, want 1", stats.Stats.Pending)
	}
}

func TestProcessFileRouteRejectsBadAction(t *testing.T) {
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)

	req := httptest.NewRequest(http.MethodPost, "/api/process-file",
		bytes.NewReader([]byte(`{"file_path":"a.md","action":"rename"}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func fileName(i int) string {
	return "file-" + string(rune('a'+i%26)) + ".md"
}
