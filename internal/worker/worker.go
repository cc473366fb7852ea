// Package worker drains the analysis retry queue: a single periodic loop
// that claims due jobs, re-invokes the external classifier with a generous
// deadline, and writes results back onto readings.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

const (
	DefaultInterval      = 30 * time.Second
	DefaultBatchSize     = 3
	DefaultInvokeTimeout = 45 * time.Second
)

// Queue is the slice of the retry queue service the worker drives.
type Queue interface {
	SelectBatch(ctx context.Context, limit int) ([]domain.RetryJob, error)
	MarkProcessing(ctx context.Context, job *domain.RetryJob) (bool, error)
	MarkCompleted(ctx context.Context, job *domain.RetryJob) error
	RecordFailure(ctx context.Context, job *domain.RetryJob, cause error) (bool, error)
}

// ReadingSource resolves jobs back into readings and players and persists
// the analyses the worker obtains.
type ReadingSource interface {
	Reading(ctx context.Context, id uuid.UUID) (*domain.Reading, error)
	Player(ctx context.Context, id uuid.UUID) (*domain.Player, error)
	SaveAnalysis(ctx context.Context, readingID uuid.UUID, a *domain.AnalysisResult) error
}

// Analyzer obtains an analysis for a reading. The worker wraps calls in its
// own generous deadline; it is not latency-sensitive the way the inline
// ingestion path is.
type Analyzer interface {
	Invoke(ctx context.Context, reading domain.Reading, player domain.Player) (*domain.AnalysisResult, error)
}

// Result is the outcome of one drain pass.
type Result struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Worker runs the periodic drain loop. All retry-loop state lives here:
// the single-flight flag, the optional cross-instance lease, and the
// counters. One Worker per process.
type Worker struct {
	queue    Queue
	readings ReadingSource
	analyzer Analyzer

	interval      time.Duration
	batchSize     int
	invokeTimeout time.Duration

	// busy is the process-local single-flight guard: a tick that fires while
	// a pass is still running is skipped entirely, never queued.
	busy atomic.Bool

	// lease, when set, elects a single draining instance per tick across a
	// horizontally scaled deployment. nil means the process-local flag is
	// the only guard.
	lease Lease

	metrics *Metrics
	logger  *slog.Logger

	startDone     chan struct{}
	startDoneOnce sync.Once
}

// Lease grants exclusive drain rights for one pass.
type Lease interface {
	// Acquire returns true when this instance may drain now.
	Acquire(ctx context.Context) (bool, error)
	// Release ends the lease after the pass.
	Release(ctx context.Context)
}

// Config bundles the worker's tunables. Zero values fall back to defaults.
type Config struct {
	Interval      time.Duration
	BatchSize     int
	InvokeTimeout time.Duration
	Lease         Lease
	Metrics       *Metrics
}

func New(queue Queue, readings ReadingSource, analyzer Analyzer, cfg Config, logger *slog.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.InvokeTimeout <= 0 {
		cfg.InvokeTimeout = DefaultInvokeTimeout
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics()
	}
	return &Worker{
		queue:         queue,
		readings:      readings,
		analyzer:      analyzer,
		interval:      cfg.Interval,
		batchSize:     cfg.BatchSize,
		invokeTimeout: cfg.InvokeTimeout,
		lease:         cfg.Lease,
		metrics:       cfg.Metrics,
		logger:        logger,
		startDone:     make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval, until ctx is
// canceled. The loop itself never dies on a failed pass; errors are logged
// and the next tick proceeds.
func (w *Worker) Start(ctx context.Context) {
	defer w.startDoneOnce.Do(func() { close(w.startDone) })

	w.logger.Info("retry worker starting",
		"interval", w.interval,
		"batch_size", w.batchSize)

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retry worker stopping")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// DrainAndWait blocks until the loop exits (after ctx cancellation passed to
// Start) or the caller's own deadline is reached.
func (w *Worker) DrainAndWait(ctx context.Context) error {
	select {
	case <-w.startDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) tick(ctx context.Context) {
	result, err := w.RunPass(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("drain pass failed", "err", err)
		return
	}
	if result.Processed > 0 {
		w.logger.Info("drain pass finished",
			"processed", result.Processed,
			"succeeded", result.Succeeded,
			"failed", result.Failed)
	}
}

// RunPass drains up to batchSize due jobs once. Also the entry point for the
// admin on-demand drain. A pass that loses the single-flight race or the
// cross-instance lease returns an empty Result.
func (w *Worker) RunPass(ctx context.Context, batchSize int) (Result, error) {
	if !w.busy.CompareAndSwap(false, true) {
		w.metrics.PassesSkipped.Inc()
		w.logger.Debug("drain pass skipped, previous pass still running")
		return Result{}, nil
	}
	defer w.busy.Store(false)

	if w.lease != nil {
		ok, err := w.lease.Acquire(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("acquire drain lease: %w", err)
		}
		if !ok {
			w.metrics.PassesSkipped.Inc()
			w.logger.Debug("drain pass skipped, another instance holds the lease")
			return Result{}, nil
		}
		defer w.lease.Release(ctx)
	}

	w.metrics.PassesRun.Inc()

	jobs, err := w.queue.SelectBatch(ctx, batchSize)
	if err != nil {
		return Result{}, fmt.Errorf("select batch: %w", err)
	}

	var result Result
	for i := range jobs {
		job := &jobs[i]

		ok, err := w.queue.MarkProcessing(ctx, job)
		if err != nil {
			w.logger.Error("claim failed", "job_id", job.ID, "err", err)
			continue
		}
		if !ok {
			// Another instance claimed it between select and update.
			continue
		}

		result.Processed++
		if err := w.processJob(ctx, job); err != nil {
			result.Failed++
			w.recordFailure(ctx, job, err)
		} else {
			result.Succeeded++
			w.metrics.JobsSucceeded.Inc()
			if err := w.queue.MarkCompleted(ctx, job); err != nil {
				// The analysis is already stored; the job will be retried
				// and complete cheaply next time.
				w.logger.Error("mark completed failed", "job_id", job.ID, "err", err)
			}
		}
	}
	return result, nil
}

// processJob resolves one job into a reading and player, re-invokes the
// analyzer, and stores the result. Returned errors drive a reschedule or the
// terminal failed state; they never abort the batch.
func (w *Worker) processJob(ctx context.Context, job *domain.RetryJob) error {
	log := w.logger.With("job_id", job.ID, "reading_id", job.ReadingID, "attempt", job.Attempts)

	reading, err := w.readings.Reading(ctx, job.ReadingID)
	if err != nil {
		return fmt.Errorf("fetch reading: %w", err)
	}

	player, err := w.readings.Player(ctx, job.PlayerID)
	if err != nil {
		// A missing player degrades the analysis, it does not fail the job.
		log.Warn("player lookup failed, using placeholder", "player_id", job.PlayerID, "err", err)
		p := domain.PlaceholderPlayer(job.PlayerID)
		player = &p
	}

	invokeCtx, cancel := context.WithTimeout(ctx, w.invokeTimeout)
	defer cancel()

	result, err := w.analyzer.Invoke(invokeCtx, *reading, *player)
	if err != nil {
		return fmt.Errorf("invoke analysis: %w", err)
	}

	if err := w.readings.SaveAnalysis(ctx, reading.ID, result); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	log.Info("retry analysis stored", "source", result.Source, "risk_level", result.RiskLevel)
	return nil
}

func (w *Worker) recordFailure(ctx context.Context, job *domain.RetryJob, cause error) {
	terminal, err := w.queue.RecordFailure(ctx, job, cause)
	if err != nil {
		w.logger.Error("record failure failed", "job_id", job.ID, "err", err)
		return
	}
	if terminal {
		w.metrics.JobsFailed.Inc()
		w.logger.Warn("job exhausted retries",
			"job_id", job.ID,
			"reading_id", job.ReadingID,
			"attempts", job.Attempts,
			"err", cause)
	} else {
		w.metrics.JobsRescheduled.Inc()
		w.logger.Warn("job rescheduled",
			"job_id", job.ID,
			"attempts", job.Attempts,
			"next_retry_at", job.NextRetryAt,
			"err", cause)
	}
}
