package importer

import (
	"sync"
	"time"

	"github.com/poiesic/tabstash/core"
)

// Phase is the lifecycle state of an import job.
type Phase string

const (
	PhaseQueued     Phase = "queued"
	PhaseImporting  Phase = "importing"
	PhaseProcessing Phase = "processing"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// Terminal reports whether the phase is an end state.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// Progress is a snapshot of an import job's state. SuccessfulTabs is always
// ProcessedTabs minus FailedTabs.
type Progress struct {
	JobID              string
	Phase              Phase
	TotalTabs          int
	ProcessedTabs      int
	SuccessfulTabs     int
	FailedTabs         int
	Errors             []string
	StartedAt          time.Time
	CompletedAt        time.Time
	EstimatedRemaining time.Duration
}

// job holds the mutable state of one import. Only the worker running the
// job mutates it; Progress and Cancel may be called from any goroutine.
type job struct {
	id       string
	userID   string
	tabs     []core.NewTab
	observer ProgressObserver

	mu         sync.Mutex
	phase      Phase
	processed  int
	failed     int
	errors     []string
	startedAt  time.Time
	finishedAt time.Time
	cancelled  bool
}

func (j *job) snapshot(now time.Time) Progress {
	j.mu.Lock()
	defer j.mu.Unlock()

	p := Progress{
		JobID:          j.id,
		Phase:          j.phase,
		TotalTabs:      len(j.tabs),
		ProcessedTabs:  j.processed,
		SuccessfulTabs: j.processed - j.failed,
		FailedTabs:     j.failed,
		Errors:         append([]string(nil), j.errors...),
		StartedAt:      j.startedAt,
		CompletedAt:    j.finishedAt,
	}

	if !j.phase.Terminal() && j.processed > 0 && !j.startedAt.IsZero() {
		elapsed := now.Sub(j.startedAt)
		perRecord := elapsed / time.Duration(j.processed)
		p.EstimatedRemaining = perRecord * time.Duration(len(j.tabs)-j.processed)
	}
	return p
}

func (j *job) setPhase(phase Phase) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.phase = phase
}

// begin moves a queued job to importing. Returns false if the job was
// cancelled before a worker picked it up.
func (j *job) begin(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancelled || j.phase.Terminal() {
		return false
	}
	j.phase = PhaseImporting
	j.startedAt = now
	return true
}

// recordBatch accounts for one finished sub-batch: processed records, how
// many of them failed, and their error messages.
func (j *job) recordBatch(processed, failed int, errs ...string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.processed += processed
	j.failed += failed
	j.errors = append(j.errors, errs...)
}

// finish moves the job to its terminal phase: completed only with zero
// failures, failed otherwise.
func (j *job) finish(now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.failed == 0 {
		j.phase = PhaseCompleted
	} else {
		j.phase = PhaseFailed
	}
	j.finishedAt = now
}

// fail moves the job straight to the failed terminal phase, counting every
// unattempted record as failed so totals still add up.
func (j *job) fail(now time.Time, msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.failLocked(now, msg)
}

func (j *job) failLocked(now time.Time, msg string) {
	j.phase = PhaseFailed
	j.errors = append(j.errors, msg)
	remaining := len(j.tabs) - j.processed
	j.processed += remaining
	j.failed += remaining
	j.finishedAt = now
}

// cancel flags the job for cancellation. A job still waiting for a worker
// slot is failed immediately; an active job is failed by its worker at the
// next sub-batch boundary.
func (j *job) cancel(now time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.phase.Terminal() {
		return ErrJobFinished
	}
	j.cancelled = true
	if j.phase == PhaseQueued {
		j.failLocked(now, "cancelled by user")
	}
	return nil
}

func (j *job) isCancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

func (j *job) currentPhase() Phase {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.phase
}

func (j *job) terminalAt() (time.Time, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.phase.Terminal() {
		return time.Time{}, false
	}
	return j.finishedAt, true
}
