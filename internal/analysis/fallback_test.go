package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

func alertMetrics() domain.Metrics {
	return domain.Metrics{
		Temperature: 39.5,
		HeartRate:   130,
		BloodOxygen: 88,
		Hydration:   55,
		Respiration: 27,
		Fatigue:     60,
	}
}

func TestFallbackNamesEachBreachedMetric(t *testing.T) {
	reading := domain.Reading{Metrics: alertMetrics(), State: domain.StateAlert}
	player := domain.Player{Name: "Jonas Meyer", Position: "Defender"}

	a := Fallback(reading, player)

	assert.Contains(t, a.Summary, "PRELIMINARY ANALYSIS")
	assert.Contains(t, a.Summary, "Jonas Meyer")
	assert.Equal(t, domain.RiskHigh, a.RiskLevel)
	assert.True(t, a.ReplacementNeeded)
	assert.Equal(t, domain.SourceFallback, a.Source)
	assert.Equal(t, 60, a.ConfidenceLevel)
	assert.Len(t, a.Recommendations, 5)

	assert.Contains(t, a.PotentialIssues, "Hyperthermia risk: Body temperature above safe threshold")
	assert.Contains(t, a.PotentialIssues, "Tachycardia: Abnormally elevated heart rate")
	assert.Contains(t, a.PotentialIssues, "Hypoxemia: Critically low blood oxygen levels")
	assert.Contains(t, a.PotentialIssues, "Severe dehydration: Urgent rehydration needed")
	assert.Contains(t, a.PotentialIssues, "Hyperventilation: Abnormally rapid breathing rate")
	assert.Contains(t, a.PotentialIssues, "Extreme fatigue: High risk of injury and performance impairment")
}

func TestFallbackLowSideIssues(t *testing.T) {
	reading := domain.Reading{
		Metrics: domain.Metrics{
			Temperature: 35.5,
			HeartRate:   45,
			BloodOxygen: 97,
			Hydration:   85,
			Respiration: 8,
			Fatigue:     20,
		},
		State: domain.StateAlert,
	}

	a := Fallback(reading, domain.Player{Name: "X", Position: "Forward"})

	assert.Contains(t, a.PotentialIssues, "Hypothermia risk: Body temperature below safe threshold")
	assert.Contains(t, a.PotentialIssues, "Bradycardia: Abnormally low heart rate")
	assert.Contains(t, a.PotentialIssues, "Respiratory depression: Abnormally slow breathing rate")
}

func TestFallbackGenericIssueWhenNoSingleMetricBreaches(t *testing.T) {
	// All metrics individually non-alert; the caller decided the state.
	reading := domain.Reading{
		Metrics: domain.Metrics{
			Temperature: 37.0,
			HeartRate:   80,
			BloodOxygen: 97,
			Hydration:   85,
			Respiration: 16,
			Fatigue:     20,
		},
		State: domain.StateAlert,
	}

	a := Fallback(reading, domain.Player{Name: "X", Position: "Goalkeeper"})
	assert.Contains(t, a.PotentialIssues, "Critical health concern detected in combined metrics")
}

func TestFallbackPositionCaveats(t *testing.T) {
	reading := domain.Reading{Metrics: alertMetrics(), State: domain.StateAlert}

	cases := map[string]string{
		"Goalkeeper": "Alert state may affect reaction time and decision making",
		"Defender":   "Alert state may compromise defensive positioning and tackling safety",
		"Midfielder": "Alert state may impact stamina and field coverage capabilities",
		"Forward":    "Alert state may affect sprint capacity and finishing ability",
		"Libero":     "Alert state may compromise overall performance and safety",
	}
	for position, want := range cases {
		a := Fallback(reading, domain.Player{Name: "X", Position: position})
		assert.Contains(t, a.PotentialIssues, want, "position %s", position)
	}
}

func TestBasicNormalReading(t *testing.T) {
	reading := domain.Reading{
		Metrics: domain.Metrics{
			Temperature: 36.9,
			HeartRate:   72,
			BloodOxygen: 98,
			Hydration:   85,
			Respiration: 16,
			Fatigue:     20,
		},
		State: domain.StateNormal,
	}

	a := Basic(reading, domain.Player{Name: "Karim Haddad", Position: "Midfielder"})

	assert.Contains(t, a.Summary, "within normal ranges")
	assert.Equal(t, domain.RiskLow, a.RiskLevel)
	assert.False(t, a.ReplacementNeeded)
	assert.Equal(t, domain.SourceBasic, a.Source)
	assert.Equal(t, 70, a.ConfidenceLevel)
	assert.Empty(t, a.PotentialIssues)
}

func TestBasicWarningReading(t *testing.T) {
	reading := domain.Reading{
		Metrics: domain.Metrics{
			Temperature: 37.8,
			HeartRate:   105,
			BloodOxygen: 93,
			Hydration:   65,
			Respiration: 22,
			Fatigue:     40,
		},
		State: domain.StateWarning,
	}

	a := Basic(reading, domain.Player{Name: "Karim Haddad", Position: "Midfielder"})

	require.Equal(t, domain.RiskMedium, a.RiskLevel)
	assert.Contains(t, a.Summary, "require monitoring")
	assert.Contains(t, a.PotentialIssues, "Abnormal body temperature")
	assert.Contains(t, a.PotentialIssues, "Irregular heart rate")
	assert.Contains(t, a.PotentialIssues, "Low blood oxygen levels")
	assert.Contains(t, a.PotentialIssues, "Dehydration")
	assert.Contains(t, a.PotentialIssues, "Abnormal respiration rate")
	assert.Contains(t, a.PotentialIssues, "Excessive fatigue")
}
