package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
	"github.com/mi3lix9/health-monitor-360-ig/internal/retryqueue"
	"github.com/mi3lix9/health-monitor-360-ig/internal/store"
	"github.com/mi3lix9/health-monitor-360-ig/internal/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAnalyzer struct {
	result  *domain.AnalysisResult
	err     error
	players []domain.Player
}

func (f *fakeAnalyzer) InvokeInline(_ context.Context, _ domain.Reading, player domain.Player) (*domain.AnalysisResult, error) {
	f.players = append(f.players, player)
	return f.result, f.err
}

type fakeDrainer struct {
	result worker.Result
	err    error
	calls  []int
}

func (f *fakeDrainer) RunPass(_ context.Context, batchSize int) (worker.Result, error) {
	f.calls = append(f.calls, batchSize)
	return f.result, f.err
}

type testEnv struct {
	store    *store.MemoryStore
	queue    *retryqueue.Service
	analyzer *fakeAnalyzer
	drainer  *fakeDrainer
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	queue := retryqueue.NewService(retryqueue.NewMemoryStore(), testLogger())
	analyzer := &fakeAnalyzer{}
	drainer := &fakeDrainer{}
	app := NewApp(st, queue, analyzer, drainer, testLogger())
	return &testEnv{
		store:    st,
		queue:    queue,
		analyzer: analyzer,
		drainer:  drainer,
		handler:  NewRouter(app),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedPlayer(t *testing.T) domain.Player {
	t.Helper()
	player := domain.Player{Name: "Karim Haddad", Position: "Midfielder", Team: "FC Atlas", JerseyNumber: 8}
	require.NoError(t, e.store.InsertPlayer(context.Background(), &player))
	return player
}

func normalPayload(playerID uuid.UUID) map[string]any {
	return map[string]any{
		"player_id":    playerID,
		"temperature":  36.9,
		"heart_rate":   72,
		"blood_oxygen": 98,
		"hydration":    85,
		"respiration":  16,
		"fatigue":      20,
	}
}

func alertPayload(playerID uuid.UUID) map[string]any {
	return map[string]any{
		"player_id":    playerID,
		"temperature":  39.4,
		"heart_rate":   135,
		"blood_oxygen": 87,
		"hydration":    55,
		"respiration":  27,
		"fatigue":      40,
	}
}

func decodeReading(t *testing.T, rec *httptest.ResponseRecorder) readingResponse {
	t.Helper()
	var resp readingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateReadingNormalGetsBasicAnalysis(t *testing.T) {
	env := newTestEnv(t)
	player := env.seedPlayer(t)

	rec := env.do(t, http.MethodPost, "/api/readings", normalPayload(player.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeReading(t, rec)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Message)
	assert.Equal(t, domain.StateNormal, resp.Data.State)
	require.NotNil(t, resp.Data.Analysis)
	assert.Equal(t, domain.SourceBasic, resp.Data.Analysis.Source)

	// The analyzer is reserved for alert readings.
	assert.Empty(t, env.analyzer.players)

	stored, err := env.store.Reading(context.Background(), resp.Data.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Analysis)
}

func TestCreateReadingAlertVerified(t *testing.T) {
	env := newTestEnv(t)
	player := env.seedPlayer(t)
	env.analyzer.result = &domain.AnalysisResult{
		Summary:        "Verified assessment",
		RiskLevel:      domain.RiskHigh,
		PriorityAction: "Immediate medical evaluation",
		Source:         domain.SourceAI,
	}

	rec := env.do(t, http.MethodPost, "/api/readings", alertPayload(player.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeReading(t, rec)
	assert.Equal(t, domain.StateAlert, resp.Data.State)
	assert.Equal(t, msgAlertVerified, resp.Message)
	require.NotNil(t, resp.Data.Analysis)
	assert.Equal(t, domain.SourceAI, resp.Data.Analysis.Source)

	require.Len(t, env.analyzer.players, 1)
	assert.Equal(t, player.Name, env.analyzer.players[0].Name)
}

func TestCreateReadingAlertTimeoutMessage(t *testing.T) {
	env := newTestEnv(t)
	player := env.seedPlayer(t)
	env.analyzer.result = &domain.AnalysisResult{Summary: "fallback", Source: domain.SourceFallback}
	env.analyzer.err = fmt.Errorf("classify: %w", context.DeadlineExceeded)

	rec := env.do(t, http.MethodPost, "/api/readings", alertPayload(player.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeReading(t, rec)
	assert.Equal(t, msgAlertPending, resp.Message)
	require.NotNil(t, resp.Data.Analysis)
	assert.Equal(t, domain.SourceFallback, resp.Data.Analysis.Source)
}

func TestCreateReadingAlertFailureMessage(t *testing.T) {
	env := newTestEnv(t)
	player := env.seedPlayer(t)
	env.analyzer.result = &domain.AnalysisResult{Summary: "fallback", Source: domain.SourceFallback}
	env.analyzer.err = errors.New("upstream 503")

	rec := env.do(t, http.MethodPost, "/api/readings", alertPayload(player.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeReading(t, rec)
	assert.Equal(t, msgAlertQueued, resp.Message)
}

func TestCreateReadingUnknownPlayerUsesPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	env.analyzer.result = &domain.AnalysisResult{Summary: "ok", Source: domain.SourceAI}

	rec := env.do(t, http.MethodPost, "/api/readings", alertPayload(uuid.New()))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.analyzer.players, 1)
	assert.Equal(t, "Unknown Player", env.analyzer.players[0].Name)
}

func TestCreateReadingZeroMetricIsAlert(t *testing.T) {
	env := newTestEnv(t)
	player := env.seedPlayer(t)
	env.analyzer.result = &domain.AnalysisResult{
		Summary:        "Severe dehydration",
		RiskLevel:      domain.RiskHigh,
		PriorityAction: "Immediate rehydration",
		Source:         domain.SourceAI,
	}

	payload := normalPayload(player.ID)
	payload["hydration"] = 0

	rec := env.do(t, http.MethodPost, "/api/readings", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeReading(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, domain.StateAlert, resp.Data.State)
	assert.Zero(t, resp.Data.Hydration)
}

func TestCreateReadingRejectsOutOfRangeMetric(t *testing.T) {
	env := newTestEnv(t)
	player := env.seedPlayer(t)

	payload := normalPayload(player.ID)
	payload["blood_oxygen"] = 140

	rec := env.do(t, http.MethodPost, "/api/readings", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReadingRejectsBadPayload(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/readings", map[string]any{"temperature": 37.0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/readings", bytes.NewBufferString("{not json"))
	rec2 := httptest.NewRecorder()
	env.handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestGetReadingNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/readings/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPlayerReadings(t *testing.T) {
	env := newTestEnv(t)
	player := env.seedPlayer(t)

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/api/readings", normalPayload(player.ID))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/players/"+player.ID.String()+"/readings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []domain.Reading `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 3)
}

func TestCreateAndListPlayers(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/players", map[string]any{
		"name": "Diego Fuentes", "position": "Goalkeeper", "team": "FC Atlas", "jersey_number": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/players", map[string]any{"team": "FC Atlas"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []domain.Player `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 1)
}

func seedRetryJob(t *testing.T, env *testEnv) uuid.UUID {
	t.Helper()
	id, err := env.queue.Enqueue(context.Background(), uuid.New(), uuid.New(), errors.New("timeout"))
	require.NoError(t, err)
	return id
}

func TestAdminStatsAndList(t *testing.T) {
	env := newTestEnv(t)
	seedRetryJob(t, env)
	seedRetryJob(t, env)

	rec := env.do(t, http.MethodGet, "/api/admin/retry-queue/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.RetryStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(2), stats.Total)

	rec = env.do(t, http.MethodGet, "/api/admin/retry-queue?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []domain.RetryJob `json:"items"`
		Total int64             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Items, 2)
	assert.Equal(t, int64(2), list.Total)

	rec = env.do(t, http.MethodGet, "/api/admin/retry-queue?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminResetAndDelete(t *testing.T) {
	env := newTestEnv(t)
	id := seedRetryJob(t, env)

	rec := env.do(t, http.MethodPost, "/api/admin/retry-queue/"+id.String()+"/reset", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/admin/retry-queue/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/admin/retry-queue/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/admin/retry-queue/not-a-uuid/reset", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminProcess(t *testing.T) {
	env := newTestEnv(t)
	env.drainer.result = worker.Result{Processed: 2, Succeeded: 1, Failed: 1}

	rec := env.do(t, http.MethodPost, "/api/admin/retry-queue/process", map[string]any{"batch_size": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	var result worker.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, env.drainer.result, result)
	assert.Equal(t, []int{5}, env.drainer.calls)

	rec = env.do(t, http.MethodPost, "/api/admin/retry-queue/process", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{5, worker.DefaultBatchSize}, env.drainer.calls)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
