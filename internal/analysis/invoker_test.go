package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClassifier struct {
	result *domain.AnalysisResult
	err    error
	delay  time.Duration
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, _ domain.Reading, _ domain.Player) (*domain.AnalysisResult, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

type fakeEnqueuer struct {
	readings []uuid.UUID
	causes   []error
	err      error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, readingID, _ uuid.UUID, cause error) (uuid.UUID, error) {
	f.readings = append(f.readings, readingID)
	f.causes = append(f.causes, cause)
	return uuid.New(), f.err
}

func testReading(state domain.ReadingState) domain.Reading {
	return domain.Reading{
		ID:       uuid.New(),
		PlayerID: uuid.New(),
		Metrics: domain.Metrics{
			Temperature: 39.5,
			HeartRate:   130,
			BloodOxygen: 88,
			Hydration:   55,
			Respiration: 27,
			Fatigue:     60,
		},
		State: state,
	}
}

func verifiedResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		Summary:        "Verified assessment",
		RiskLevel:      domain.RiskHigh,
		PriorityAction: "Immediate medical evaluation",
		Source:         domain.SourceAI,
	}
}

func TestInvokeNonAlertUsesBasic(t *testing.T) {
	classifier := &fakeClassifier{result: verifiedResult()}
	inv := NewInvoker(classifier, &fakeEnqueuer{}, time.Second, testLogger())

	result, err := inv.Invoke(context.Background(), testReading(domain.StateNormal), domain.Player{Name: "X"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceBasic, result.Source)
	assert.Zero(t, classifier.calls)
}

func TestInvokeAlertReturnsClassifierResult(t *testing.T) {
	classifier := &fakeClassifier{result: verifiedResult()}
	inv := NewInvoker(classifier, &fakeEnqueuer{}, time.Second, testLogger())

	result, err := inv.Invoke(context.Background(), testReading(domain.StateAlert), domain.Player{Name: "X"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceAI, result.Source)
}

func TestInvokeAlertWithoutClassifier(t *testing.T) {
	inv := NewInvoker(nil, &fakeEnqueuer{}, time.Second, testLogger())

	_, err := inv.Invoke(context.Background(), testReading(domain.StateAlert), domain.Player{Name: "X"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestInvokeAlertPropagatesError(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("upstream 503")}
	queue := &fakeEnqueuer{}
	inv := NewInvoker(classifier, queue, time.Second, testLogger())

	_, err := inv.Invoke(context.Background(), testReading(domain.StateAlert), domain.Player{Name: "X"})
	require.Error(t, err)
	// The worker path owns its own retry bookkeeping.
	assert.Empty(t, queue.readings)
}

func TestInvokeInlineVerified(t *testing.T) {
	classifier := &fakeClassifier{result: verifiedResult()}
	queue := &fakeEnqueuer{}
	inv := NewInvoker(classifier, queue, time.Second, testLogger())

	result, err := inv.InvokeInline(context.Background(), testReading(domain.StateAlert), domain.Player{Name: "X"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceAI, result.Source)
	assert.Empty(t, queue.readings, "a verified result needs no retry job")
}

func TestInvokeInlineFailureFallsBackAndEnqueues(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("upstream 503")}
	queue := &fakeEnqueuer{}
	inv := NewInvoker(classifier, queue, time.Second, testLogger())

	reading := testReading(domain.StateAlert)
	result, err := inv.InvokeInline(context.Background(), reading, domain.Player{Name: "Jonas Meyer", Position: "Defender"})

	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.SourceFallback, result.Source)
	require.Equal(t, []uuid.UUID{reading.ID}, queue.readings)
	assert.ErrorContains(t, queue.causes[0], "upstream 503")
}

func TestInvokeInlineDeadline(t *testing.T) {
	classifier := &fakeClassifier{result: verifiedResult(), delay: 200 * time.Millisecond}
	queue := &fakeEnqueuer{}
	inv := NewInvoker(classifier, queue, 10*time.Millisecond, testLogger())

	reading := testReading(domain.StateAlert)
	result, err := inv.InvokeInline(context.Background(), reading, domain.Player{Name: "X"})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.SourceFallback, result.Source)
	assert.Equal(t, []uuid.UUID{reading.ID}, queue.readings)
}

func TestInvokeInlineEnqueueFailureStillReturnsFallback(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("upstream 503")}
	queue := &fakeEnqueuer{err: errors.New("db down")}
	inv := NewInvoker(classifier, queue, time.Second, testLogger())

	result, err := inv.InvokeInline(context.Background(), testReading(domain.StateAlert), domain.Player{Name: "X"})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.SourceFallback, result.Source)
}
