package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

// ErrUnavailable is returned when no external classifier is configured.
// The fallback path handles it like any other classification failure.
var ErrUnavailable = errors.New("analysis: external classifier not configured")

// Classifier is the external classification service.
type Classifier interface {
	Classify(ctx context.Context, reading domain.Reading, player domain.Player) (*domain.AnalysisResult, error)
}

// Enqueuer accepts failed classification attempts for durable retry.
type Enqueuer interface {
	Enqueue(ctx context.Context, readingID, playerID uuid.UUID, cause error) (uuid.UUID, error)
}

// Invoker calls the external classifier with a bounded deadline and degrades
// to locally generated analyses when the call fails. Alert readings that miss
// their analysis are guaranteed a retry job; non-alert readings never reach
// the external service at all.
type Invoker struct {
	classifier    Classifier
	queue         Enqueuer
	inlineTimeout time.Duration
	logger        *slog.Logger
}

// NewInvoker builds an Invoker. classifier may be nil, in which case every
// alert invocation takes the fallback path.
func NewInvoker(classifier Classifier, queue Enqueuer, inlineTimeout time.Duration, logger *slog.Logger) *Invoker {
	if inlineTimeout <= 0 {
		inlineTimeout = 5 * time.Second
	}
	return &Invoker{
		classifier:    classifier,
		queue:         queue,
		inlineTimeout: inlineTimeout,
		logger:        logger,
	}
}

// Invoke obtains an analysis for the reading under the deadline carried by
// ctx. Non-alert readings get the deterministic basic analysis. Alert
// readings go to the external classifier; its error (including ctx deadline
// expiry) is returned as-is so the caller decides between fallback-and-queue
// (inline path) and reschedule (worker path). The deadline is propagated into
// the external call itself — a timed-out call is canceled, not abandoned.
func (inv *Invoker) Invoke(ctx context.Context, reading domain.Reading, player domain.Player) (*domain.AnalysisResult, error) {
	if reading.State != domain.StateAlert {
		return Basic(reading, player), nil
	}
	if inv.classifier == nil {
		return nil, ErrUnavailable
	}

	result, err := inv.classifier.Classify(ctx, reading, player)
	if err != nil {
		return nil, fmt.Errorf("classify reading %s: %w", reading.ID, err)
	}
	return result, nil
}

// InvokeInline is the ingestion-time path for alert readings: it races the
// external call against the inline deadline and always comes back with a
// usable result. On any failure it enqueues a retry job and returns the
// fallback analysis together with the cause; err == nil means the result is
// externally verified.
func (inv *Invoker) InvokeInline(ctx context.Context, reading domain.Reading, player domain.Player) (*domain.AnalysisResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, inv.inlineTimeout)
	defer cancel()

	result, err := inv.Invoke(callCtx, reading, player)
	if err == nil {
		return result, nil
	}

	inv.logger.Warn("inline analysis failed, queueing retry",
		"reading_id", reading.ID,
		"player_id", reading.PlayerID,
		"err", err)

	if reading.State == domain.StateAlert && inv.queue != nil {
		if _, qerr := inv.queue.Enqueue(ctx, reading.ID, reading.PlayerID, err); qerr != nil {
			// The reading keeps its fallback analysis either way; a lost
			// enqueue only loses the eventual upgrade to a verified result.
			inv.logger.Error("enqueue retry failed",
				"reading_id", reading.ID,
				"err", qerr)
		}
	}

	return Fallback(reading, player), err
}
