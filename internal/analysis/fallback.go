// Package analysis produces structured clinical-style analyses of readings,
// either through the external classification service or, when that service
// is unavailable, through deterministic local generation.
package analysis

import (
	"fmt"
	"strings"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
	"github.com/mi3lix9/health-monitor-360-ig/internal/vitals"
)

const (
	fallbackConfidence = 60
	basicConfidence    = 70
)

// Fallback synthesizes an alert-grade analysis without consulting the
// external service. It never fails and is used both as the immediate answer
// when the service errors and as the provisional answer while a retry is
// queued. The result is tagged SourceFallback so callers can tell it apart
// from a verified one.
func Fallback(reading domain.Reading, player domain.Player) *domain.AnalysisResult {
	a := &domain.AnalysisResult{
		Summary: fmt.Sprintf(
			"PRELIMINARY ANALYSIS: %s's health readings indicate a critical alert state requiring immediate attention. "+
				"This analysis is based on limited data and should be supplemented with medical evaluation.",
			player.Name),
		Recommendations: []string{
			"Remove player from field immediately for medical assessment",
			"Monitor vital signs continuously",
			"Begin standard recovery protocols appropriate for position",
			"Prepare substitute player",
			"Document all symptoms and readings for medical staff",
		},
		RiskLevel:            domain.RiskHigh,
		ReplacementNeeded:    true,
		PriorityAction:       "Immediate removal from play and medical evaluation",
		RecoveryTimeEstimate: "To be determined after medical assessment",
		Source:               domain.SourceFallback,
		ConfidenceLevel:      fallbackConfidence,
	}

	a.PotentialIssues = alertIssues(reading.Metrics)
	if len(a.PotentialIssues) == 0 {
		a.PotentialIssues = append(a.PotentialIssues, "Critical health concern detected in combined metrics")
	}
	a.PotentialIssues = append(a.PotentialIssues, positionCaveat(player.Position))

	return a
}

// Basic builds the deterministic analysis attached to normal and warning
// readings. No external call, no retry bookkeeping.
func Basic(reading domain.Reading, player domain.Player) *domain.AnalysisResult {
	a := &domain.AnalysisResult{
		RiskLevel:       domain.RiskLow,
		PotentialIssues: warningIssues(reading.Metrics),
		Source:          domain.SourceBasic,
		ConfidenceLevel: basicConfidence,
	}

	if reading.State == domain.StateNormal {
		a.Summary = fmt.Sprintf("%s's health readings are within normal ranges.", player.Name)
		a.Recommendations = []string{
			"Continue regular monitoring",
			"Maintain current training regimen",
			"Ensure proper hydration and nutrition",
		}
		a.PriorityAction = "Continue normal monitoring protocols"
	} else {
		a.RiskLevel = domain.RiskMedium
		a.Summary = fmt.Sprintf(
			"%s's health readings show some values outside normal ranges that require monitoring.", player.Name)
		a.Recommendations = []string{
			"Monitor the player's condition more frequently",
			"Consider adjusting training intensity",
			"Ensure proper hydration and rest",
		}
		a.PriorityAction = "Monitor player closely and consider adjustments to training load"
	}

	return a
}

// alertIssues names each metric sitting in its alert band.
func alertIssues(m domain.Metrics) []string {
	var issues []string

	switch {
	case m.Temperature < vitals.TempAlertLow:
		issues = append(issues, "Hypothermia risk: Body temperature below safe threshold")
	case m.Temperature > vitals.TempAlertHigh:
		issues = append(issues, "Hyperthermia risk: Body temperature above safe threshold")
	}

	switch {
	case m.HeartRate < vitals.HeartAlertLow:
		issues = append(issues, "Bradycardia: Abnormally low heart rate")
	case m.HeartRate > vitals.HeartAlertHigh:
		issues = append(issues, "Tachycardia: Abnormally elevated heart rate")
	}

	if m.BloodOxygen < vitals.OxygenAlert {
		issues = append(issues, "Hypoxemia: Critically low blood oxygen levels")
	}
	if m.Hydration < vitals.HydrationAlert {
		issues = append(issues, "Severe dehydration: Urgent rehydration needed")
	}

	switch {
	case m.Respiration < vitals.RespAlertLow:
		issues = append(issues, "Respiratory depression: Abnormally slow breathing rate")
	case m.Respiration > vitals.RespAlertHigh:
		issues = append(issues, "Hyperventilation: Abnormally rapid breathing rate")
	}

	if m.Fatigue > vitals.FatigueAlert {
		issues = append(issues, "Extreme fatigue: High risk of injury and performance impairment")
	}

	return issues
}

// warningIssues names each metric outside its normal range.
func warningIssues(m domain.Metrics) []string {
	var issues []string
	if m.Temperature < vitals.TempWarnLow || m.Temperature > vitals.TempWarnHigh {
		issues = append(issues, "Abnormal body temperature")
	}
	if m.HeartRate < vitals.HeartWarnLow || m.HeartRate > vitals.HeartWarnHigh {
		issues = append(issues, "Irregular heart rate")
	}
	if m.BloodOxygen < vitals.OxygenWarn {
		issues = append(issues, "Low blood oxygen levels")
	}
	if m.Hydration < vitals.HydrationWarn {
		issues = append(issues, "Dehydration")
	}
	if m.Respiration < vitals.RespWarnLow || m.Respiration > vitals.RespWarnHigh {
		issues = append(issues, "Abnormal respiration rate")
	}
	if m.Fatigue > vitals.FatigueWarn {
		issues = append(issues, "Excessive fatigue")
	}
	return issues
}

// positionCaveat maps a player's position to the performance concern an alert
// state raises for that role.
func positionCaveat(position string) string {
	switch strings.ToLower(position) {
	case "goalkeeper":
		return "Alert state may affect reaction time and decision making"
	case "defender":
		return "Alert state may compromise defensive positioning and tackling safety"
	case "midfielder":
		return "Alert state may impact stamina and field coverage capabilities"
	case "forward":
		return "Alert state may affect sprint capacity and finishing ability"
	default:
		return "Alert state may compromise overall performance and safety"
	}
}
