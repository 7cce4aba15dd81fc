// Package resync reconciles the search index with the document corpus on
// disk. It walks the corpus, detects new, changed and removed documents via
// content hashes, and enqueues indexing jobs for the differences.
package resync

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/ziadkadry99/docdex/internal/jobs"
	"github.com/ziadkadry99/docdex/internal/progress"
	"github.com/ziadkadry99/docdex/internal/walker"
)

// Priority is the job priority used for resync-enqueued work. It sits
// below the default so that live edits submitted through the API are
// processed first.
const Priority = -1

// Enqueuer is the subset of the job store the coordinator needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, filePath, content string, action jobs.Action, priority int) (string, error)
}

// Options controls a single resync run.
type Options struct {
	Force  bool // Re-enqueue every document regardless of stored hashes.
	DryRun bool // Count what would happen without enqueueing or saving state.
}

// Summary reports what a resync run did (or, for dry runs, would do).
type Summary struct {
	Scanned  int `json:"scanned"`
	Enqueued int `json:"enqueued"`
	Deleted  int `json:"deleted"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// Coordinator walks the corpus and schedules indexing work for documents
// that drifted from the recorded state.
type Coordinator struct {
	store    Enqueuer
	walkCfg  walker.Config
	dataDir  string
	reporter progress.Reporter
}

// NewCoordinator builds a coordinator. reporter may be nil for quiet runs
// (e.g. when triggered over HTTP).
func NewCoordinator(store Enqueuer, walkCfg walker.Config, dataDir string, reporter progress.Reporter) *Coordinator {
	return &Coordinator{
		store:    store,
		walkCfg:  walkCfg,
		dataDir:  dataDir,
		reporter: reporter,
	}
}

// Run performs one reconciliation pass. New and changed documents are
// enqueued as create/update jobs, documents recorded in state but missing
// on disk as delete jobs. Hashes are recorded at enqueue time, so a crash
// mid-run leaves unprocessed files marked dirty for the next pass.
func (c *Coordinator) Run(ctx context.Context, opts Options) (*Summary, error) {
	files, err := walker.Walk(c.walkCfg)
	if err != nil {
		return nil, fmt.Errorf("resync: walk corpus: %w", err)
	}

	state, err := LoadState(c.dataDir)
	if err != nil {
		return nil, fmt.Errorf("resync: load state: %w", err)
	}

	summary := &Summary{Scanned: len(files)}
	seen := make(map[string]bool, len(files))

	if c.reporter != nil {
		c.reporter.Start(len(files))
		defer c.reporter.Finish()
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[file.RelPath] = true

		if c.reporter != nil {
			c.reporter.Update(i+1, file.RelPath)
		}

		if !opts.Force && !state.IsChanged(file.RelPath, file.ContentHash) {
			summary.Skipped++
			continue
		}

		if opts.DryRun {
			summary.Enqueued++
			continue
		}

		content, err := os.ReadFile(file.Path)
		if err != nil {
			summary.Errors++
			continue
		}

		action := jobs.ActionUpdate
		if _, known := state.FileHashes[file.RelPath]; !known {
			action = jobs.ActionCreate
		}

		if _, err := c.store.Enqueue(ctx, file.RelPath, string(content), action, Priority); err != nil {
			summary.Errors++
			continue
		}

		state.FileHashes[file.RelPath] = file.ContentHash
		summary.Enqueued++
	}

	// Documents recorded in state but no longer on disk get delete jobs.
	for _, relPath := range sortedKeys(state.FileHashes) {
		if seen[relPath] {
			continue
		}
		if opts.DryRun {
			summary.Deleted++
			continue
		}
		if _, err := c.store.Enqueue(ctx, relPath, "", jobs.ActionDelete, Priority); err != nil {
			summary.Errors++
			continue
		}
		delete(state.FileHashes, relPath)
		summary.Deleted++
	}

	if !opts.DryRun {
		if err := state.Save(c.dataDir); err != nil {
			return nil, fmt.Errorf("resync: save state: %w", err)
		}
	}

	return summary, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
