package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/docdex/internal/db"
)

// DefaultMaxRetries is how many failures a job survives before it is
// parked as permanently failed.
const DefaultMaxRetries = 3

// Store is the durable, crash-safe queue of pending work items, backed by
// a single-writer SQLite database. All mutating operations serialize
// through one write lock; reads run concurrently with writes.
type Store struct {
	db         *db.DB
	mu         sync.Mutex
	maxRetries int
}

// NewStore creates a Store backed by the given database. maxRetries <= 0
// uses DefaultMaxRetries.
func NewStore(database *db.DB, maxRetries int) *Store {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Store{db: database, maxRetries: maxRetries}
}

// Enqueue records work for a file and returns the job id.
//
// If a pending job already exists for the same file path, that row is
// reused: content, action and priority are refreshed in place. This keeps
// the queue from growing under rapid successive edits and guarantees a
// worker only ever sees the latest snapshot for a path.
func (s *Store) Enqueue(ctx context.Context, filePath, content string, action Action, priority int) (string, error) {
	if !action.Valid() {
		return "", fmt.Errorf("invalid action %q", action)
	}
	if filePath == "" {
		return "", errors.New("file_path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin enqueue: %w", err)
	}
	defer tx.Rollback()

	var existingID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM jobs WHERE file_path = ? AND status = 'pending' LIMIT 1`,
		filePath,
	).Scan(&existingID)

	switch {
	case err == nil:
		// Superseding enqueue: replace the stale pending work in place.
		// Retries reset too; earlier failures belonged to content this
		// submission just replaced.
		_, err = tx.ExecContext(ctx, `
			UPDATE jobs
			SET content = ?, action = ?, priority = ?, retries = 0, error = '', updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now')
			WHERE id = ?`,
			content, string(action), priority, existingID,
		)
		if err != nil {
			return "", fmt.Errorf("superseding enqueue for %s: %w", filePath, err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit enqueue: %w", err)
		}
		return existingID, nil

	case errors.Is(err, sql.ErrNoRows):
		id := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO jobs (id, file_path, content, action, priority)
			VALUES (?, ?, ?, ?, ?)`,
			id, filePath, content, string(action), priority,
		)
		if err != nil {
			return "", fmt.Errorf("inserting job for %s: %w", filePath, err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit enqueue: %w", err)
		}
		return id, nil

	default:
		return "", fmt.Errorf("checking pending job for %s: %w", filePath, err)
	}
}

// ClaimNext atomically selects the oldest, highest-priority pending job
// and transitions it to processing under the caller's worker id. Returns
// ok=false when the queue is empty. Two workers can never claim the same
// job: claims serialize through the store's write lock and commit in a
// single transaction.
func (s *Store) ClaimNext(ctx context.Context, workerID string) (*Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback()

	job, err := scanJob(tx.QueryRowContext(ctx, `
		SELECT id, file_path, content, action, status, priority, retries, error, worker_id, created_at, updated_at
		FROM jobs
		WHERE status = 'pending'
		ORDER BY priority DESC, created_at ASC
		LIMIT 1`,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("selecting next job: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'processing', worker_id = ?, updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now')
		WHERE id = ?`,
		workerID, job.ID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("claiming job %s: %w", job.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit claim: %w", err)
	}

	job.Status = StatusProcessing
	job.WorkerID = workerID
	return job, true, nil
}

// MarkCompleted transitions a job to completed.
func (s *Store) MarkCompleted(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'completed', error = '', worker_id = '', updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now')
		WHERE id = ?`,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("completing job %s: %w", jobID, err)
	}
	return requireRow(res, jobID)
}

// MarkFailed records a failure for a job. If the job still has retry
// budget it is requeued as pending with retries+1; otherwise it is parked
// as permanently failed with the error message retained.
func (s *Store) MarkFailed(ctx context.Context, jobID string, jobErr error) error {
	msg := ""
	if jobErr != nil {
		msg = jobErr.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark failed: %w", err)
	}
	defer tx.Rollback()

	var retries int
	if err := tx.QueryRowContext(ctx, `SELECT retries FROM jobs WHERE id = ?`, jobID).Scan(&retries); err != nil {
		return fmt.Errorf("loading job %s: %w", jobID, err)
	}

	retries++
	status := StatusPending
	if retries >= s.maxRetries {
		status = StatusFailed
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = ?, retries = ?, error = ?, worker_id = '', updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now')
		WHERE id = ?`,
		string(status), retries, msg, jobID,
	)
	if err != nil {
		return fmt.Errorf("failing job %s: %w", jobID, err)
	}
	return tx.Commit()
}

// ReclaimStale sweeps processing jobs whose updated_at is older than
// olderThan back to pending. A crashed worker would otherwise strand its
// claimed job forever. Returns the number of reclaimed jobs.
func (s *Store) ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := fmt.Sprintf("-%d seconds", int(olderThan.Seconds()))
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'pending', worker_id = '', updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now')
		WHERE status = 'processing' AND updated_at < strftime('%Y-%m-%d %H:%M:%f', 'now', ?)`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaiming stale jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Get returns a single job by id.
func (s *Store) Get(ctx context.Context, jobID string) (*Job, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx, `
		SELECT id, file_path, content, action, status, priority, retries, error, worker_id, created_at, updated_at
		FROM jobs WHERE id = ?`,
		jobID,
	))
	if err != nil {
		return nil, fmt.Errorf("loading job %s: %w", jobID, err)
	}
	return job, nil
}

// GetStats returns job counts per status. Snapshot read; runs without the
// write lock.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("querying job stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scanning job stats: %w", err)
		}
		switch Status(status) {
		case StatusPending:
			stats.Pending = count
		case StatusProcessing:
			stats.Processing = count
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

// RecentFailures returns the most recently failed jobs with their error
// messages, for operator diagnosis.
func (s *Store) RecentFailures(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, content, action, status, priority, retries, error, worker_id, created_at, updated_at
		FROM jobs
		WHERE status = 'failed'
		ORDER BY updated_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying failed jobs: %w", err)
	}
	defer rows.Close()

	var failures []Job
	for rows.Next() {
		job, err := scanJobRows(rows)
		if err != nil {
			return nil, err
		}
		job.Content = "" // no need to ship payloads to operators
		failures = append(failures, *job)
	}
	return failures, rows.Err()
}

// Ping verifies that the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var action, status string
	err := row.Scan(
		&job.ID, &job.FilePath, &job.Content, &action, &status,
		&job.Priority, &job.Retries, &job.Error, &job.WorkerID,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Action = Action(action)
	job.Status = Status(status)
	return &job, nil
}

func scanJobRows(rows *sql.Rows) (*Job, error) {
	job, err := scanJob(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning job row: %w", err)
	}
	return job, nil
}

func requireRow(res sql.Result, jobID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s not found", jobID)
	}
	return nil
}
