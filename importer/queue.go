package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/tabstash/core"
)

// Config holds the import queue's batching and concurrency parameters.
type Config struct {
	// MaxConcurrentJobs caps how many jobs run at once; further submissions
	// wait in the queued phase.
	MaxConcurrentJobs int

	// ImportBatchSize is the sub-batch size for the import phase.
	ImportBatchSize int

	// ProcessBatchSize is the sub-batch size for enrichment. Smaller than
	// ImportBatchSize because enrichment calls are far more expensive.
	ProcessBatchSize int

	// MaxRetries bounds import sub-batch attempts.
	MaxRetries int

	// RetryBaseDelay is the initial backoff between import retries.
	RetryBaseDelay time.Duration

	// Retention is how long terminal jobs stay queryable before being
	// purged from memory.
	Retention time.Duration
}

// DefaultConfig returns the standard queue parameters.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs: 2,
		ImportBatchSize:   50,
		ProcessBatchSize:  25,
		MaxRetries:        3,
		RetryBaseDelay:    500 * time.Millisecond,
		Retention:         24 * time.Hour,
	}
}

func (c *Config) normalize() {
	defaults := DefaultConfig()
	if c.MaxConcurrentJobs <= 0 {
		c.MaxConcurrentJobs = defaults.MaxConcurrentJobs
	}
	if c.ImportBatchSize <= 0 {
		c.ImportBatchSize = defaults.ImportBatchSize
	}
	if c.ProcessBatchSize <= 0 {
		c.ProcessBatchSize = defaults.ProcessBatchSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = defaults.RetryBaseDelay
	}
	if c.Retention <= 0 {
		c.Retention = defaults.Retention
	}
}

// Queue runs bulk tab imports: each job imports its records in sub-batches,
// then enriches the successfully imported ones in smaller sub-batches,
// reporting progress along the way. A worker pool caps how many jobs are
// active at once.
type Queue struct {
	cfg      Config
	importer TabImporter
	enricher Enricher
	pool     *ants.Pool
	logger   *slog.Logger

	mu     sync.Mutex
	jobs   map[string]*job
	closed bool
}

// Option configures a Queue.
type Option func(*Queue) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) error {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger
		return nil
	}
}

// NewQueue creates an import queue.
func NewQueue(tabImporter TabImporter, enricher Enricher, cfg Config, opts ...Option) (*Queue, error) {
	if tabImporter == nil {
		return nil, ErrTabImporterRequired
	}
	if enricher == nil {
		return nil, ErrEnricherRequired
	}

	cfg.normalize()

	pool, err := ants.NewPool(cfg.MaxConcurrentJobs)
	if err != nil {
		return nil, err
	}

	q := &Queue{
		cfg:      cfg,
		importer: tabImporter,
		enricher: enricher,
		pool:     pool,
		logger:   slog.Default(),
		jobs:     make(map[string]*job),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(q); err != nil {
			pool.Release()
			return nil, err
		}
	}

	return q, nil
}

// Submit enqueues a job and returns its id immediately; the job starts when
// a concurrency slot frees up. The observer (may be nil) receives progress
// snapshots as the job advances. Terminal jobs past the retention window
// are purged opportunistically on each submission.
func (q *Queue) Submit(userID string, tabs []core.NewTab, observer ProgressObserver) (string, error) {
	if len(tabs) == 0 {
		return "", ErrEmptyJob
	}

	j := &job{
		id:       uuid.NewString(),
		userID:   userID,
		tabs:     append([]core.NewTab(nil), tabs...),
		observer: observer,
		phase:    PhaseQueued,
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", ErrQueueClosed
	}
	q.purgeExpiredLocked(time.Now())
	q.jobs[j.id] = j
	q.mu.Unlock()

	q.notify(j)

	// pool.Submit blocks while all slots are busy; hand it off so Submit
	// returns without waiting for a slot
	go func() {
		if err := q.pool.Submit(func() { q.run(j) }); err != nil {
			q.logger.Error("failed to schedule import job", "jobId", j.id, "err", err)
			j.fail(time.Now(), fmt.Sprintf("scheduling failed: %v", err))
			q.notify(j)
		}
	}()

	return j.id, nil
}

// Progress returns the current snapshot for a job.
func (q *Queue) Progress(jobID string) (Progress, error) {
	q.mu.Lock()
	j, ok := q.jobs[jobID]
	q.mu.Unlock()
	if !ok {
		return Progress{}, ErrJobNotFound
	}
	return j.snapshot(time.Now()), nil
}

// Cancel stops a job that has not yet finished. Already-imported records
// stay in the store; the job turns failed with a "cancelled by user" error.
func (q *Queue) Cancel(jobID string) error {
	q.mu.Lock()
	j, ok := q.jobs[jobID]
	q.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	if err := j.cancel(time.Now()); err != nil {
		return err
	}
	if j.currentPhase().Terminal() {
		q.notify(j)
	}
	return nil
}

// PurgeExpired removes terminal jobs older than the retention window,
// returning how many were dropped.
func (q *Queue) PurgeExpired(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.purgeExpiredLocked(now)
}

func (q *Queue) purgeExpiredLocked(now time.Time) int {
	purged := 0
	for id, j := range q.jobs {
		if finishedAt, terminal := j.terminalAt(); terminal && now.Sub(finishedAt) > q.cfg.Retention {
			delete(q.jobs, id)
			purged++
		}
	}
	return purged
}

// Release shuts down the worker pool. The queue should not be used after
// calling Release.
func (q *Queue) Release() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.pool.Release()
}

func (q *Queue) run(j *job) {
	ctx := context.Background()

	if !j.begin(time.Now()) {
		// Cancelled while still queued
		return
	}
	q.notify(j)

	imported := q.importPhase(ctx, j)
	if j.currentPhase().Terminal() {
		q.notify(j)
		return
	}

	j.setPhase(PhaseProcessing)
	q.notify(j)

	q.processPhase(ctx, j, imported)
	if j.currentPhase().Terminal() {
		q.notify(j)
		return
	}

	j.finish(time.Now())
	q.notify(j)
}

// importPhase walks the job's tabs in sub-batches, retrying batch-level
// failures with backoff. Retry exhaustion fails the batch and everything
// after it; ids imported before that point still proceed to enrichment.
func (q *Queue) importPhase(ctx context.Context, j *job) []core.ID {
	imported := make([]core.ID, 0, len(j.tabs))

	for offset := 0; offset < len(j.tabs); offset += q.cfg.ImportBatchSize {
		if j.isCancelled() {
			j.fail(time.Now(), "cancelled by user")
			return imported
		}

		end := offset + q.cfg.ImportBatchSize
		if end > len(j.tabs) {
			end = len(j.tabs)
		}
		batch := j.tabs[offset:end]

		var results []core.ImportResult
		err := RetryWithBackoff(ctx, func() error {
			rs, err := q.importer.ImportTabs(ctx, j.userID, batch)
			if err != nil {
				return err
			}
			results = rs
			return nil
		}, q.cfg.MaxRetries, q.cfg.RetryBaseDelay)
		if err != nil {
			remaining := len(j.tabs) - offset
			j.recordBatch(remaining, remaining,
				fmt.Sprintf("%v: import batch at offset %d: %v", ErrRetriesExhausted, offset, err))
			q.logger.Error("import sub-batch failed after retries",
				"jobId", j.id, "offset", offset, "err", err)
			q.notify(j)
			return imported
		}

		failures := 0
		var errs []string
		for i, result := range results {
			if result.Failed() {
				failures++
				errs = append(errs, fmt.Sprintf("import %s: %s", batch[i].URL, result.Err))
			} else {
				imported = append(imported, result.Id)
			}
		}
		// Import-failed tabs are done; imported ones count as processed
		// once enriched
		j.recordBatch(failures, failures, errs...)
		q.notify(j)
	}

	return imported
}

// processPhase enriches imported ids in sub-batches. Enrichment failures
// are counted per batch but never abort the job.
func (q *Queue) processPhase(ctx context.Context, j *job, ids []core.ID) {
	for offset := 0; offset < len(ids); offset += q.cfg.ProcessBatchSize {
		if j.isCancelled() {
			j.fail(time.Now(), "cancelled by user")
			return
		}

		end := offset + q.cfg.ProcessBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[offset:end]

		failed, err := q.enricher.EnrichTabRecords(ctx, batch...)
		var errs []string
		if err != nil {
			failed = len(batch)
			errs = append(errs, fmt.Sprintf("enrich batch at offset %d: %v", offset, err))
			q.logger.Warn("enrichment sub-batch failed", "jobId", j.id, "offset", offset, "err", err)
		} else if failed > 0 {
			errs = append(errs, fmt.Sprintf("%d records failed enrichment in batch at offset %d", failed, offset))
		}
		if failed > len(batch) {
			failed = len(batch)
		}
		j.recordBatch(len(batch), failed, errs...)
		q.notify(j)
	}
}

// notify delivers a progress snapshot to the job's observer. Observer
// panics are caught and logged; the job itself is never affected.
func (q *Queue) notify(j *job) {
	if j.observer == nil {
		return
	}
	progress := j.snapshot(time.Now())

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("progress observer panicked", "jobId", j.id, "panic", r)
		}
	}()
	j.observer(progress)
}
