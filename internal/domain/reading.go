package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReadingState is the severity classification of a reading, derived once at
// ingestion and immutable thereafter.
type ReadingState string

const (
	StateNormal  ReadingState = "normal"
	StateWarning ReadingState = "warning"
	StateAlert   ReadingState = "alert"
)

// Metrics holds one sample of the six monitored vital signs. Zero is a
// legitimate measurement (a fully depleted hydration sensor reads 0), so
// validation only bounds ranges and never requires non-zero values.
type Metrics struct {
	Temperature float64 `json:"temperature" validate:"gte=0"`
	HeartRate   float64 `json:"heart_rate" validate:"gte=0"`
	BloodOxygen float64 `json:"blood_oxygen" validate:"gte=0,lte=100"`
	Hydration   float64 `json:"hydration" validate:"gte=0,lte=100"`
	Respiration float64 `json:"respiration" validate:"gte=0"`
	Fatigue     float64 `json:"fatigue" validate:"gte=0,lte=100"`
}

// Reading is one timestamped set of vital-sign metrics for a player.
type Reading struct {
	ID       uuid.UUID `json:"id"`
	PlayerID uuid.UUID `json:"player_id"`
	Metrics
	State     ReadingState    `json:"state"`
	Analysis  *AnalysisResult `json:"analysis,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	CreatedAt time.Time       `json:"created_at"`
}

// Player is the monitored subject a reading belongs to.
type Player struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Position     string    `json:"position"`
	Team         string    `json:"team"`
	JerseyNumber int       `json:"jersey_number"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PlaceholderPlayer stands in when the player lookup fails. A missing player
// must never abort analysis of an alert reading.
func PlaceholderPlayer(id uuid.UUID) Player {
	return Player{ID: id, Name: "Unknown Player", Position: "Unknown Position"}
}

// RiskLevel is the overall risk classification inside an AnalysisResult.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// AnalysisSource records how an AnalysisResult was produced, so callers can
// never mistake a locally synthesized fallback for a verified result.
type AnalysisSource string

const (
	// SourceAI marks a result returned by the external classification service.
	SourceAI AnalysisSource = "ai"
	// SourceFallback marks a locally synthesized result returned because the
	// external service failed or timed out.
	SourceFallback AnalysisSource = "fallback"
	// SourceBasic marks the deterministic analysis attached to normal and
	// warning readings without consulting the external service.
	SourceBasic AnalysisSource = "basic"
)

// AnalysisResult is the structured clinical-style analysis of a reading.
type AnalysisResult struct {
	Summary              string         `json:"summary"`
	Recommendations      []string       `json:"recommendations"`
	RiskLevel            RiskLevel      `json:"risk_level"`
	PotentialIssues      []string       `json:"potential_issues"`
	ReplacementNeeded    bool           `json:"replacement_needed"`
	RecoveryTimeEstimate string         `json:"recovery_time_estimate,omitempty"`
	PriorityAction       string         `json:"priority_action"`
	Source               AnalysisSource `json:"source"`
	ConfidenceLevel      int            `json:"confidence_level"`
}

// Verified reports whether the result came from the external service rather
// than a local fallback path.
func (a *AnalysisResult) Verified() bool {
	return a != nil && a.Source == SourceAI
}
