// Package vitals classifies readings against the two nested threshold bands
// each metric carries. The band tables here are the single source of truth:
// the fallback generator and the classifier prompt both derive from them.
package vitals

import "github.com/mi3lix9/health-monitor-360-ig/internal/domain"

// Range is the inclusive normal range for one metric, used when building the
// classification prompt and the basic analysis.
type Range struct {
	Min float64
	Max float64
}

// NormalRanges maps metric names to their normal ranges. Fatigue has no lower
// bound concern; its Max is the warning threshold.
var NormalRanges = map[string]Range{
	"temperature":  {Min: 36.5, Max: 37.5},
	"heart_rate":   {Min: 60, Max: 100},
	"blood_oxygen": {Min: 95, Max: 100},
	"hydration":    {Min: 70, Max: 100},
	"respiration":  {Min: 12, Max: 20},
	"fatigue":      {Min: 0, Max: 30},
}

// Alert-band boundaries. A value beyond any of these makes the whole reading
// an alert regardless of the other metrics.
const (
	TempAlertLow   = 36.0
	TempAlertHigh  = 38.0
	HeartAlertLow  = 50.0
	HeartAlertHigh = 120.0
	OxygenAlert    = 90.0
	HydrationAlert = 60.0
	RespAlertLow   = 10.0
	RespAlertHigh  = 25.0
	FatigueAlert   = 50.0
)

// Warning-band boundaries, nested inside the alert bands.
const (
	TempWarnLow   = 36.5
	TempWarnHigh  = 37.5
	HeartWarnLow  = 60.0
	HeartWarnHigh = 100.0
	OxygenWarn    = 95.0
	HydrationWarn = 70.0
	RespWarnLow   = 12.0
	RespWarnHigh  = 20.0
	FatigueWarn   = 30.0
)

// Classify maps a reading's metrics to a severity state. The alert check runs
// first: a single alert-band breach outweighs any number of warning-band
// breaches. Pure and total over the numeric domain.
func Classify(m domain.Metrics) domain.ReadingState {
	if AlertBreached(m) {
		return domain.StateAlert
	}
	if WarningBreached(m) {
		return domain.StateWarning
	}
	return domain.StateNormal
}

// AlertBreached reports whether any metric crossed its alert-band boundary.
func AlertBreached(m domain.Metrics) bool {
	return m.Temperature < TempAlertLow || m.Temperature > TempAlertHigh ||
		m.HeartRate < HeartAlertLow || m.HeartRate > HeartAlertHigh ||
		m.BloodOxygen < OxygenAlert ||
		m.Hydration < HydrationAlert ||
		m.Respiration < RespAlertLow || m.Respiration > RespAlertHigh ||
		m.Fatigue > FatigueAlert
}

// WarningBreached reports whether any metric crossed its warning-band boundary.
func WarningBreached(m domain.Metrics) bool {
	return m.Temperature < TempWarnLow || m.Temperature > TempWarnHigh ||
		m.HeartRate < HeartWarnLow || m.HeartRate > HeartWarnHigh ||
		m.BloodOxygen < OxygenWarn ||
		m.Hydration < HydrationWarn ||
		m.Respiration < RespWarnLow || m.Respiration > RespWarnHigh ||
		m.Fatigue > FatigueWarn
}
