package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
	"github.com/mi3lix9/health-monitor-360-ig/internal/vitals"
)

const (
	defaultModel = "gpt-4o-mini"
	aiConfidence = 90

	systemPrompt = `You are a sports medicine AI. Respond with a single JSON object and nothing else, using exactly these keys:
"summary" (string), "recommendations" (array of strings), "risk_level" ("low"|"medium"|"high"), "potential_issues" (array of strings), "replacement_needed" (boolean), "recovery_time_estimate" (string, optional), "priority_action" (string).`
)

// ChatCompleter is the slice of the OpenAI client the classifier needs.
// *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClassifier calls an OpenAI chat model and decodes its JSON reply into
// an AnalysisResult. Malformed or incomplete replies are reported as errors
// so the caller's fallback and retry machinery engages.
type OpenAIClassifier struct {
	client ChatCompleter
	model  string
	logger *slog.Logger
}

// NewOpenAIClassifier builds a classifier from an API key. model may be empty.
func NewOpenAIClassifier(apiKey, model string, logger *slog.Logger) (*OpenAIClassifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("analysis: OpenAI API key is empty")
	}
	if model == "" {
		model = defaultModel
		logger.Warn("OPENAI_MODEL not set, using default", "model", model)
	}
	return &OpenAIClassifier{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}, nil
}

// Classify implements Classifier. The ctx deadline bounds the HTTP call.
func (c *OpenAIClassifier) Classify(ctx context.Context, reading domain.Reading, player domain.Player) (*domain.AnalysisResult, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.2,
		MaxTokens:   500,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(reading, player)},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	if err := validateResult(&result); err != nil {
		return nil, err
	}

	result.Source = domain.SourceAI
	result.ConfidenceLevel = aiConfidence

	c.logger.Debug("classification received",
		"reading_id", reading.ID,
		"risk_level", result.RiskLevel,
		"finish_reason", resp.Choices[0].FinishReason)
	return &result, nil
}

// validateResult rejects structurally incomplete replies. An in-band bad
// response is treated the same as a transport failure.
func validateResult(a *domain.AnalysisResult) error {
	if strings.TrimSpace(a.Summary) == "" {
		return fmt.Errorf("invalid analysis response: empty summary")
	}
	if strings.TrimSpace(a.PriorityAction) == "" {
		return fmt.Errorf("invalid analysis response: empty priority_action")
	}
	switch a.RiskLevel {
	case domain.RiskLow, domain.RiskMedium, domain.RiskHigh:
	default:
		return fmt.Errorf("invalid analysis response: unknown risk_level %q", a.RiskLevel)
	}
	return nil
}

// buildPrompt summarizes the reading against normal ranges. Kept concise to
// bound token usage on the latency-sensitive inline path.
func buildPrompt(reading domain.Reading, player domain.Player) string {
	temp := vitals.NormalRanges["temperature"]
	hr := vitals.NormalRanges["heart_rate"]
	ox := vitals.NormalRanges["blood_oxygen"]
	hyd := vitals.NormalRanges["hydration"]
	resp := vitals.NormalRanges["respiration"]

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these health readings for football player %s (%s):\n\n",
		player.Name, player.Position)
	fmt.Fprintf(&b, "Temperature: %.1f°C (Normal: %.1f-%.1f°C)\n",
		reading.Temperature, temp.Min, temp.Max)
	fmt.Fprintf(&b, "Heart Rate: %.0f BPM (Normal: %.0f-%.0f)\n",
		reading.HeartRate, hr.Min, hr.Max)
	fmt.Fprintf(&b, "Blood Oxygen: %.1f%% (Normal: %.0f-%.0f%%)\n",
		reading.BloodOxygen, ox.Min, ox.Max)
	fmt.Fprintf(&b, "Hydration: %.1f%% (Normal: %.0f-%.0f%%)\n",
		reading.Hydration, hyd.Min, hyd.Max)
	fmt.Fprintf(&b, "Respiration: %.0f breaths/min (Normal: %.0f-%.0f)\n",
		reading.Respiration, resp.Min, resp.Max)
	fmt.Fprintf(&b, "Fatigue: %.0f/100 (Lower is better, >%.0f = significant fatigue)\n",
		reading.Fatigue, vitals.FatigueWarn)
	fmt.Fprintf(&b, "\nCurrent state: ALERT - requires immediate attention\n")
	return b.String()
}
