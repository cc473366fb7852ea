package retryqueue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

// MemoryStore is an in-process Store. It backs tests and the
// database-free development mode; it is safe for concurrent use within one
// process and durable for exactly as long as the process lives.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.RetryJob
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[uuid.UUID]*domain.RetryJob),
		now:  time.Now,
	}
}

func (m *MemoryStore) ActiveByReading(ctx context.Context, readingID uuid.UUID) (*domain.RetryJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.ReadingID == readingID && job.Active() {
			cp := *job
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) Insert(ctx context.Context, job *domain.RetryJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.jobs {
		if existing.ReadingID == job.ReadingID && existing.Active() {
			return ErrDuplicateActive
		}
	}
	cp := *job
	now := m.now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.jobs[cp.ID] = &cp
	return nil
}

func (m *MemoryStore) Requeue(ctx context.Context, id uuid.UUID, lastError string, nextRetryAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || !job.Active() {
		return ErrNotFound
	}
	job.LastError = &lastError
	job.NextRetryAt = nextRetryAt
	job.UpdatedAt = m.now()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*domain.RetryJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *MemoryStore) SelectBatch(ctx context.Context, limit int, now time.Time) ([]domain.RetryJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []domain.RetryJob
	for _, job := range m.jobs {
		if job.Status == domain.JobPending && !job.NextRetryAt.After(now) {
			due = append(due, *job)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextRetryAt.Before(due[j].NextRetryAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// transition applies fn under the lock when the job exists and is in the
// required prior status. Mirrors the guarded UPDATEs of the Postgres store.
func (m *MemoryStore) transition(id uuid.UUID, from domain.JobStatus, fn func(*domain.RetryJob)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.Status != from {
		return false, nil
	}
	fn(job)
	job.UpdatedAt = m.now()
	return true, nil
}

func (m *MemoryStore) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.transition(id, domain.JobPending, func(j *domain.RetryJob) {
		j.Status = domain.JobProcessing
	})
}

func (m *MemoryStore) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.transition(id, domain.JobProcessing, func(j *domain.RetryJob) {
		j.Status = domain.JobCompleted
	})
}

func (m *MemoryStore) Reschedule(ctx context.Context, id uuid.UUID, attempts int, lastError string, nextRetryAt time.Time) (bool, error) {
	return m.transition(id, domain.JobProcessing, func(j *domain.RetryJob) {
		j.Status = domain.JobPending
		j.Attempts = attempts
		j.LastError = &lastError
		j.NextRetryAt = nextRetryAt
	})
}

func (m *MemoryStore) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) (bool, error) {
	return m.transition(id, domain.JobProcessing, func(j *domain.RetryJob) {
		j.Status = domain.JobFailed
		j.Attempts = attempts
		j.LastError = &lastError
	})
}

func (m *MemoryStore) Reset(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	job.Status = domain.JobPending
	job.Attempts = 0
	job.NextRetryAt = nextRetryAt
	job.UpdatedAt = m.now()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *MemoryStore) Stats(ctx context.Context) (domain.RetryStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats domain.RetryStats
	for _, job := range m.jobs {
		switch job.Status {
		case domain.JobPending:
			stats.Pending++
		case domain.JobProcessing:
			stats.Processing++
		case domain.JobCompleted:
			stats.Completed++
		case domain.JobFailed:
			stats.Failed++
		}
		stats.Total++
	}
	return stats, nil
}

func (m *MemoryStore) List(ctx context.Context, filter StatusFilter, limit, offset int) ([]domain.RetryJob, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.RetryJob
	for _, job := range m.jobs {
		if filter == FilterAll || domain.JobStatus(filter) == job.Status {
			matched = append(matched, *job)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}
