package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a retry job.
//
//	enqueue:    (none)     -> pending
//	claim:      pending    -> processing
//	success:    processing -> completed            (terminal)
//	failure:    processing -> pending | failed     (failed when attempts hit the ceiling)
//	reset:      any        -> pending              (operator action)
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Valid reports whether s is one of the four known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobPending, JobProcessing, JobCompleted, JobFailed:
		return true
	}
	return false
}

// Terminal reports whether s admits no further automatic transition.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// RetryJob is a durable record of an outstanding obligation to (re)obtain an
// analysis for a specific reading. At most one job per reading is active
// (pending or processing) at a time.
type RetryJob struct {
	ID          uuid.UUID `json:"id"`
	ReadingID   uuid.UUID `json:"reading_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	Status      JobStatus `json:"status"`
	LastError   *string   `json:"last_error"`
	NextRetryAt time.Time `json:"next_retry_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Active reports whether the job still holds the per-reading uniqueness slot.
func (j *RetryJob) Active() bool {
	return j.Status == JobPending || j.Status == JobProcessing
}

// RetryStats summarizes the queue for the admin surface.
type RetryStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Total      int64 `json:"total"`
}
