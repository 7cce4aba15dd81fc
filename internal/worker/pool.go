// Package worker runs the indexing pipeline: claimed jobs flow through
// chunking, embedding and vector upsert, with retry and failure recording
// on the job row.
package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ziadkadry99/docdex/internal/chunker"
	"github.com/ziadkadry99/docdex/internal/embeddings"
	"github.com/ziadkadry99/docdex/internal/jobs"
	"github.com/ziadkadry99/docdex/internal/search"
	"github.com/ziadkadry99/docdex/internal/vectordb"
)

// Config controls pool behaviour. Zero values fall back to defaults.
type Config struct {
	Workers       int           // concurrent worker loops (default 2)
	IdleSleep     time.Duration // sleep when the queue is empty (default 1s)
	ChunkSize     int
	ChunkOverlap  int
	StaleAfter    time.Duration // processing jobs older than this get reclaimed (default 5m)
	SweepInterval time.Duration // how often the stale sweep runs (default 30s)
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.IdleSleep <= 0 {
		c.IdleSleep = time.Second
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = chunker.DefaultChunkSize
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = chunker.DefaultOverlap
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 5 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 30 * time.Second
	}
	return c
}

// Pool is a fixed-size set of independent worker loops. Workers share no
// mutable state beyond the job store's atomic claim, so no locking is
// needed between them.
type Pool struct {
	cfg      Config
	store    *jobs.Store
	embedder embeddings.Embedder
	index    vectordb.VectorStore
	literal  *search.LiteralIndex // nil disables literal-index maintenance

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a worker pool. literal may be nil.
func NewPool(cfg Config, store *jobs.Store, embedder embeddings.Embedder, index vectordb.VectorStore, literal *search.LiteralIndex) *Pool {
	return &Pool{
		cfg:      cfg.withDefaults(),
		store:    store,
		embedder: embedder,
		index:    index,
		literal:  literal,
	}
}

// Start launches the worker loops and the stale-job sweeper. It returns
// immediately; call Stop to drain.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.cfg.Workers; i++ {
		workerID := fmt.Sprintf("worker-%d", i+1)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx, workerID)
		}()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sweep(ctx)
	}()
}

// Stop signals all loops to exit and waits for them to finish their
// current job.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// run is a single worker loop: claim, process, record, repeat. A job
// failure is recorded on the job row and never crashes the loop.
func (p *Pool) run(ctx context.Context, workerID string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, ok, err := p.store.ClaimNext(ctx, workerID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("%s: claim failed: %v", workerID, err)
			ok = false
		}
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.IdleSleep):
			}
			continue
		}

		if err := p.process(ctx, job); err != nil {
			log.Printf("%s: job %s (%s %s) failed: %v", workerID, job.ID, job.Action, job.FilePath, err)
			if markErr := p.store.MarkFailed(ctx, job.ID, err); markErr != nil {
				log.Printf("%s: recording failure for job %s: %v", workerID, job.ID, markErr)
			}
			continue
		}

		if err := p.store.MarkCompleted(ctx, job.ID); err != nil {
			log.Printf("%s: completing job %s: %v", workerID, job.ID, err)
		}
	}
}

// process runs one claimed job through the pipeline. The job store
// transition to processing is already committed before any of this I/O
// happens, so no lock is held across network calls.
func (p *Pool) process(ctx context.Context, job *jobs.Job) error {
	if job.Action == jobs.ActionDelete {
		return p.deleteFile(ctx, job.FilePath)
	}

	// Clearing the old chunk set first handles files whose chunk count
	// shrank, which would otherwise leave orphaned trailing chunks.
	if err := p.deleteFile(ctx, job.FilePath); err != nil {
		return err
	}

	chunks := chunker.Split(job.FilePath, job.Content, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		// Empty or unsupported content indexes nothing; the job completes
		// as a no-op.
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	fileType := vectordb.FileType(job.FilePath)
	points := make([]vectordb.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectordb.Point{
			ID:     vectordb.PointID(c.FilePath, c.Index),
			Vector: vectors[i],
			Text:   c.Text,
			Payload: vectordb.Payload{
				FilePath:   c.FilePath,
				Folder:     c.Folder,
				ChunkIndex: c.Index,
				FileType:   fileType,
				WordCount:  c.WordCount,
				CharCount:  c.CharCount,
			},
		}
	}

	if err := p.index.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}
	if p.literal != nil {
		if err := p.literal.Index(points); err != nil {
			return fmt.Errorf("updating literal index: %w", err)
		}
	}
	return nil
}

func (p *Pool) deleteFile(ctx context.Context, filePath string) error {
	if err := p.index.DeleteByFile(ctx, filePath); err != nil {
		return fmt.Errorf("deleting points for %s: %w", filePath, err)
	}
	if p.literal != nil {
		if err := p.literal.DeleteByFile(filePath); err != nil {
			return fmt.Errorf("deleting literal entries for %s: %w", filePath, err)
		}
	}
	return nil
}

// sweep periodically reclaims jobs stranded in processing by crashed
// workers.
func (p *Pool) sweep(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.store.ReclaimStale(ctx, p.cfg.StaleAfter)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("stale sweep: %v", err)
				}
				continue
			}
			if n > 0 {
				log.Printf("stale sweep: reclaimed %d stranded jobs", n)
			}
		}
	}
}
