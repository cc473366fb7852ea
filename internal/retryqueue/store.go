// Package retryqueue owns the durable retry jobs that guarantee every alert
// reading eventually receives an analysis. The Service holds the backoff
// policy and state machine; Store implementations hold the rows.
package retryqueue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

var (
	// ErrNotFound is returned when no job matches the given identity.
	ErrNotFound = errors.New("retryqueue: job not found")

	// ErrDuplicateActive is returned by Insert when an active job for the
	// same reading already holds the uniqueness slot.
	ErrDuplicateActive = errors.New("retryqueue: active job already exists for reading")

	// ErrInvalidFilter is returned by List for an unknown status filter.
	ErrInvalidFilter = errors.New("retryqueue: invalid status filter")
)

// StatusFilter selects jobs for List. "all" disables filtering.
type StatusFilter string

const FilterAll StatusFilter = "all"

// Valid reports whether f is "all" or one of the four job statuses.
func (f StatusFilter) Valid() bool {
	return f == FilterAll || domain.JobStatus(f).Valid()
}

// Store is the durable home of RetryJob rows. Guarded transitions return
// false without error when the row was not in the expected prior status —
// a concurrent writer won, and the caller should skip the job.
type Store interface {
	// ActiveByReading returns the pending or processing job for a reading,
	// or ErrNotFound.
	ActiveByReading(ctx context.Context, readingID uuid.UUID) (*domain.RetryJob, error)

	// Insert stores a new job. Returns ErrDuplicateActive when an active job
	// for the same reading already exists.
	Insert(ctx context.Context, job *domain.RetryJob) error

	// Requeue refreshes an existing active job after a new failure for its
	// reading: last_error and next_retry_at are replaced. Status and
	// attempts are left untouched, so a processing job keeps its claim.
	// Returns ErrNotFound when the job is gone or already terminal.
	Requeue(ctx context.Context, id uuid.UUID, lastError string, nextRetryAt time.Time) error

	// Get returns a job by id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*domain.RetryJob, error)

	// SelectBatch returns pending jobs due at now, oldest due first, capped
	// at limit. Read-only.
	SelectBatch(ctx context.Context, limit int, now time.Time) ([]domain.RetryJob, error)

	// MarkProcessing transitions pending -> processing.
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkCompleted transitions processing -> completed.
	MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error)

	// Reschedule transitions processing -> pending with the post-increment
	// attempt count and its backoff-derived retry time.
	Reschedule(ctx context.Context, id uuid.UUID, attempts int, lastError string, nextRetryAt time.Time) (bool, error)

	// MarkFailed transitions processing -> failed (terminal) with the final
	// attempt count.
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) (bool, error)

	// Reset unconditionally returns a job to pending with attempts = 0,
	// regardless of prior status. Operator recovery path.
	Reset(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error

	// Delete removes the row entirely.
	Delete(ctx context.Context, id uuid.UUID) error

	// Stats returns per-status counts plus the total.
	Stats(ctx context.Context) (domain.RetryStats, error)

	// List returns jobs matching filter, newest updated first, with the
	// total match count for pagination.
	List(ctx context.Context, filter StatusFilter, limit, offset int) ([]domain.RetryJob, int64, error)
}
