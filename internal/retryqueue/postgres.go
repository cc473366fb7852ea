package retryqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

// uniqueViolation is the PostgreSQL error code raised when the partial unique
// index on active jobs rejects a second insert for the same reading.
const uniqueViolation = "23505"

// PostgresStore keeps retry jobs in the analysis_retry_queue table. All
// transitions are single-row guarded UPDATEs; RowsAffected()==1 is the fence
// against concurrent writers.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const jobColumns = `id, reading_id, player_id, attempts, max_attempts,
       status, last_error, next_retry_at, created_at, updated_at`

func scanJob(row pgx.Row, job *domain.RetryJob) error {
	var status string
	err := row.Scan(
		&job.ID,
		&job.ReadingID,
		&job.PlayerID,
		&job.Attempts,
		&job.MaxAttempts,
		&status,
		&job.LastError,
		&job.NextRetryAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return err
	}
	job.Status = domain.JobStatus(status)
	return nil
}

func (s *PostgresStore) ActiveByReading(ctx context.Context, readingID uuid.UUID) (*domain.RetryJob, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM analysis_retry_queue
		WHERE reading_id = $1
		  AND status IN ('pending', 'processing')`, readingID)

	job := &domain.RetryJob{}
	if err := scanJob(row, job); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select active job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) Insert(ctx context.Context, job *domain.RetryJob) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analysis_retry_queue
		    (id, reading_id, player_id, attempts, max_attempts,
		     status, last_error, next_retry_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.ReadingID, job.PlayerID, job.Attempts, job.MaxAttempts,
		string(job.Status), job.LastError, job.NextRetryAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateActive
		}
		return fmt.Errorf("insert retry job: %w", err)
	}
	return nil
}

// Requeue leaves status alone: a pending job stays pending, and a processing
// job keeps its claim so the worker's in-flight attempt is not double-run.
func (s *PostgresStore) Requeue(ctx context.Context, id uuid.UUID, lastError string, nextRetryAt time.Time) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE analysis_retry_queue SET
			last_error    = $1,
			next_retry_at = $2,
			updated_at    = NOW()
		WHERE id = $3
		  AND status IN ('pending', 'processing')`, lastError, nextRetryAt, id)
	if err != nil {
		return fmt.Errorf("requeue job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*domain.RetryJob, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM analysis_retry_queue
		WHERE id = $1`, id)

	job := &domain.RetryJob{}
	if err := scanJob(row, job); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) SelectBatch(ctx context.Context, limit int, now time.Time) ([]domain.RetryJob, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM analysis_retry_queue
		WHERE status = 'pending'
		  AND next_retry_at <= $1
		ORDER BY next_retry_at ASC
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("select batch: %w", err)
	}
	defer rows.Close()

	var jobs []domain.RetryJob
	for rows.Next() {
		var job domain.RetryJob
		if err := scanJob(rows, &job); err != nil {
			return nil, fmt.Errorf("scan batch row: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := s.pool.Exec(ctx, `
		UPDATE analysis_retry_queue SET
			status     = 'processing',
			updated_at = NOW()
		WHERE id = $1
		  AND status = 'pending'`, id)
	if err != nil {
		return false, fmt.Errorf("mark processing: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := s.pool.Exec(ctx, `
		UPDATE analysis_retry_queue SET
			status     = 'completed',
			updated_at = NOW()
		WHERE id = $1
		  AND status = 'processing'`, id)
	if err != nil {
		return false, fmt.Errorf("mark completed: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (s *PostgresStore) Reschedule(ctx context.Context, id uuid.UUID, attempts int, lastError string, nextRetryAt time.Time) (bool, error) {
	result, err := s.pool.Exec(ctx, `
		UPDATE analysis_retry_queue SET
			status        = 'pending',
			attempts      = $1,
			last_error    = $2,
			next_retry_at = $3,
			updated_at    = NOW()
		WHERE id = $4
		  AND status = 'processing'`, attempts, lastError, nextRetryAt, id)
	if err != nil {
		return false, fmt.Errorf("reschedule job: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) (bool, error) {
	result, err := s.pool.Exec(ctx, `
		UPDATE analysis_retry_queue SET
			status     = 'failed',
			attempts   = $1,
			last_error = $2,
			updated_at = NOW()
		WHERE id = $3
		  AND status = 'processing'`, attempts, lastError, id)
	if err != nil {
		return false, fmt.Errorf("mark failed: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (s *PostgresStore) Reset(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE analysis_retry_queue SET
			status        = 'pending',
			attempts      = 0,
			next_retry_at = $1,
			updated_at    = NOW()
		WHERE id = $2`, nextRetryAt, id)
	if err != nil {
		return fmt.Errorf("reset job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM analysis_retry_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (domain.RetryStats, error) {
	var stats domain.RetryStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*)
		FROM analysis_retry_queue`).Scan(
		&stats.Pending, &stats.Processing, &stats.Completed, &stats.Failed, &stats.Total)
	if err != nil {
		return domain.RetryStats{}, fmt.Errorf("queue stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) List(ctx context.Context, filter StatusFilter, limit, offset int) ([]domain.RetryJob, int64, error) {
	where := ""
	args := []any{limit, offset}
	if filter != FilterAll {
		where = "WHERE status = $3"
		args = append(args, string(filter))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`, COUNT(*) OVER() AS total
		FROM analysis_retry_queue
		`+where+`
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.RetryJob
	var total int64
	for rows.Next() {
		var job domain.RetryJob
		var status string
		err := rows.Scan(
			&job.ID, &job.ReadingID, &job.PlayerID, &job.Attempts, &job.MaxAttempts,
			&status, &job.LastError, &job.NextRetryAt, &job.CreatedAt, &job.UpdatedAt,
			&total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan job row: %w", err)
		}
		job.Status = domain.JobStatus(status)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// An empty page past the end still needs the true total.
	if len(jobs) == 0 {
		countWhere := ""
		countArgs := []any{}
		if filter != FilterAll {
			countWhere = "WHERE status = $1"
			countArgs = append(countArgs, string(filter))
		}
		if err := s.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM analysis_retry_queue `+countWhere, countArgs...,
		).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count jobs: %w", err)
		}
	}
	return jobs, total, nil
}
