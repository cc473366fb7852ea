package retryqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

// Backoff policy defaults. Delays grow 15s, 1m, 4m, 16m, 64m, ... so a
// struggling classification service is not hammered, while a transient blip
// recovers within seconds.
const (
	DefaultBaseDelay   = 15 * time.Second
	DefaultMaxDelay    = 24 * time.Hour
	backoffFactor      = 4
	DefaultMaxAttempts = 5
)

// Service implements the retry queue's enqueue semantics, backoff policy,
// and state machine on top of a Store.
type Service struct {
	store       Store
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMaxAttempts overrides the attempts ceiling for new jobs.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithClock overrides the clock. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backoff returns the delay before the next retry after the given number of
// attempts: min(base * 4^attempts, cap). Non-decreasing and bounded.
func (s *Service) Backoff(attempts int) time.Duration {
	d := s.baseDelay
	for i := 0; i < attempts; i++ {
		d *= backoffFactor
		if d >= s.maxDelay {
			return s.maxDelay
		}
	}
	return d
}

// Enqueue records a failed analysis for durable retry. Upsert semantics: an
// existing active job for the reading absorbs the new failure (last_error
// replaced, next_retry_at reset to the base delay, attempts untouched);
// otherwise a fresh job starts at attempts = 0. A failed existence check is
// tolerated by falling straight through to insert — the partial unique index
// on active jobs catches the race, and the loser retries as an update.
func (s *Service) Enqueue(ctx context.Context, readingID, playerID uuid.UUID, cause error) (uuid.UUID, error) {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	retryAt := s.now().Add(s.Backoff(0))

	existing, err := s.store.ActiveByReading(ctx, readingID)
	switch {
	case err == nil:
		if err := s.store.Requeue(ctx, existing.ID, msg, retryAt); err != nil {
			s.logger.Error("requeue existing job failed, inserting new",
				"reading_id", readingID, "job_id", existing.ID, "err", err)
		} else {
			return existing.ID, nil
		}
	case !errors.Is(err, ErrNotFound):
		s.logger.Error("active job lookup failed, inserting new",
			"reading_id", readingID, "err", err)
	}

	job := &domain.RetryJob{
		ID:          uuid.New(),
		ReadingID:   readingID,
		PlayerID:    playerID,
		Attempts:    0,
		MaxAttempts: s.maxAttempts,
		Status:      domain.JobPending,
		LastError:   &msg,
		NextRetryAt: retryAt,
	}
	err = s.store.Insert(ctx, job)
	if errors.Is(err, ErrDuplicateActive) {
		// Lost the insert race; the winner's row absorbs this failure.
		winner, lookupErr := s.store.ActiveByReading(ctx, readingID)
		if lookupErr != nil {
			return uuid.Nil, fmt.Errorf("enqueue reading %s: %w", readingID, lookupErr)
		}
		if err := s.store.Requeue(ctx, winner.ID, msg, retryAt); err != nil {
			return uuid.Nil, fmt.Errorf("enqueue reading %s: %w", readingID, err)
		}
		return winner.ID, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue reading %s: %w", readingID, err)
	}
	return job.ID, nil
}

// SelectBatch returns up to limit due pending jobs, oldest due first.
func (s *Service) SelectBatch(ctx context.Context, limit int) ([]domain.RetryJob, error) {
	return s.store.SelectBatch(ctx, limit, s.now())
}

// MarkProcessing claims a pending job. false means a concurrent claimer won.
func (s *Service) MarkProcessing(ctx context.Context, job *domain.RetryJob) (bool, error) {
	ok, err := s.store.MarkProcessing(ctx, job.ID)
	if ok {
		job.Status = domain.JobProcessing
	}
	return ok, err
}

// MarkCompleted finishes a processing job after its reading has a stored
// analysis.
func (s *Service) MarkCompleted(ctx context.Context, job *domain.RetryJob) error {
	ok, err := s.store.MarkCompleted(ctx, job.ID)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Warn("stale completion ignored", "job_id", job.ID)
		return nil
	}
	job.Status = domain.JobCompleted
	return nil
}

// RecordFailure increments the job's attempt count and either reschedules it
// with the grown backoff delay or, at the ceiling, marks it failed. Returns
// true when the job went terminal.
func (s *Service) RecordFailure(ctx context.Context, job *domain.RetryJob, cause error) (bool, error) {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	attempts := job.Attempts + 1

	if attempts >= job.MaxAttempts {
		ok, err := s.store.MarkFailed(ctx, job.ID, attempts, msg)
		if err != nil {
			return false, err
		}
		if !ok {
			s.logger.Warn("stale failure transition ignored", "job_id", job.ID)
			return false, nil
		}
		job.Attempts = attempts
		job.Status = domain.JobFailed
		return true, nil
	}

	retryAt := s.now().Add(s.Backoff(attempts))
	ok, err := s.store.Reschedule(ctx, job.ID, attempts, msg, retryAt)
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Warn("stale reschedule ignored", "job_id", job.ID)
		return false, nil
	}
	job.Attempts = attempts
	job.Status = domain.JobPending
	job.NextRetryAt = retryAt
	return false, nil
}

// Reset unconditionally returns a job to pending with a zeroed attempt count.
// Escape hatch for failed (or even completed) jobs; operator action only.
func (s *Service) Reset(ctx context.Context, id uuid.UUID) error {
	return s.store.Reset(ctx, id, s.now().Add(s.Backoff(0)))
}

// Delete removes a job entirely, freeing its reading for a future enqueue.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// Get returns a single job by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.RetryJob, error) {
	return s.store.Get(ctx, id)
}

// Stats returns per-status counts for the admin surface.
func (s *Service) Stats(ctx context.Context) (domain.RetryStats, error) {
	return s.store.Stats(ctx)
}

// List returns one page of jobs, newest updated first. page is 1-based.
func (s *Service) List(ctx context.Context, filter StatusFilter, page, pageSize int) ([]domain.RetryJob, int64, error) {
	if !filter.Valid() {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return s.store.List(ctx, filter, pageSize, (page-1)*pageSize)
}
