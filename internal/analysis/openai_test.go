package analysis

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

type fakeCompleter struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func newTestClassifier(completer ChatCompleter) *OpenAIClassifier {
	return &OpenAIClassifier{client: completer, model: defaultModel, logger: testLogger()}
}

func TestClassifyDecodesResponse(t *testing.T) {
	completer := &fakeCompleter{content: `{
		"summary": "Elevated temperature with tachycardia",
		"recommendations": ["Remove from play", "Cooling protocol"],
		"risk_level": "high",
		"potential_issues": ["Heat stress"],
		"replacement_needed": true,
		"recovery_time_estimate": "24-48 hours",
		"priority_action": "Immediate medical evaluation"
	}`}
	c := newTestClassifier(completer)

	reading := testReading(domain.StateAlert)
	result, err := c.Classify(context.Background(), reading, domain.Player{Name: "Jonas Meyer", Position: "Defender"})
	require.NoError(t, err)

	assert.Equal(t, "Elevated temperature with tachycardia", result.Summary)
	assert.Equal(t, domain.RiskHigh, result.RiskLevel)
	assert.True(t, result.ReplacementNeeded)
	assert.Equal(t, domain.SourceAI, result.Source)
	assert.Equal(t, 90, result.ConfidenceLevel)

	require.Len(t, completer.lastReq.Messages, 2)
	prompt := completer.lastReq.Messages[1].Content
	assert.Contains(t, prompt, "Jonas Meyer")
	assert.Contains(t, prompt, "Defender")
	assert.Contains(t, prompt, "ALERT")
	require.NotNil(t, completer.lastReq.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, completer.lastReq.ResponseFormat.Type)
}

func TestClassifyTransportError(t *testing.T) {
	c := newTestClassifier(&fakeCompleter{err: errors.New("connection refused")})

	_, err := c.Classify(context.Background(), testReading(domain.StateAlert), domain.Player{})
	assert.ErrorContains(t, err, "connection refused")
}

func TestClassifyRejectsBadReplies(t *testing.T) {
	cases := map[string]string{
		"not json":       `analysis: player is fine`,
		"empty summary":  `{"summary": "", "risk_level": "high", "priority_action": "act"}`,
		"no priority":    `{"summary": "ok", "risk_level": "high", "priority_action": ""}`,
		"bad risk level": `{"summary": "ok", "risk_level": "catastrophic", "priority_action": "act"}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClassifier(&fakeCompleter{content: content})
			_, err := c.Classify(context.Background(), testReading(domain.StateAlert), domain.Player{})
			assert.Error(t, err)
		})
	}
}

func TestNewOpenAIClassifierRequiresKey(t *testing.T) {
	_, err := NewOpenAIClassifier("  ", "", testLogger())
	assert.Error(t, err)

	c, err := NewOpenAIClassifier("sk-test", "", testLogger())
	require.NoError(t, err)
	assert.Equal(t, defaultModel, c.model)
}
