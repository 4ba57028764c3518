package sampling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-lab-sample-tracker/internal/lab"
)

func f(v float64) *float64 { return &v }

func TestNextSampleNumber(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		ids    []string
		want   int
	}{
		{"empty", "AM", nil, 1},
		{"gaps", "AM", []string{"LDJ01234-AM1", "LDJ01234-AM3", "LDJ01234-AM5"}, 6},
		{"other prefix ignored", "AM", []string{"LDJ01234-LP9", "LDJ01234-AM2"}, 3},
		{"lead", "LP", []string{"P-LP10", "P-LP2"}, 11},
		{"case insensitive", "am", []string{"p-AM4"}, 5},
		{"non matching", "AM", []string{"AM", "AMx", "notes"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextSampleNumber(tt.prefix, tt.ids))
		})
	}
}

func TestFormatSampleID(t *testing.T) {
	assert.Equal(t, "LDJ01234-AM6", FormatSampleID("LDJ01234", "AM", 6))
	assert.Equal(t, "LP2", FormatSampleID("", "LP", 2))
}

func TestPrefixFor(t *testing.T) {
	assert.Equal(t, "AM", PrefixFor(lab.JobAirMonitoring, nil))
	assert.Equal(t, "LP", PrefixFor(lab.JobLeadMonitoring, map[string]string{}))
	assert.Equal(t, "PB", PrefixFor(lab.JobLeadMonitoring, map[string]string{"lead_monitoring": "pb"}))
}

func TestFlowrateFailed(t *testing.T) {
	assert.False(t, FlowrateFailed(2.0, 2.2, DefaultFlowrateTolerance))
	assert.False(t, FlowrateFailed(2.0, 1.8, DefaultFlowrateTolerance))
	assert.True(t, FlowrateFailed(2.0, 2.21, DefaultFlowrateTolerance))
	assert.True(t, FlowrateFailed(2.0, 1.79, DefaultFlowrateTolerance))
	assert.True(t, FlowrateFailed(0, 1.0, DefaultFlowrateTolerance))
}

func TestFormatFlowrate(t *testing.T) {
	assert.Equal(t, "2.0", FormatFlowrate(2))
	assert.Equal(t, "2.5", FormatFlowrate(2.5))
	assert.Equal(t, "2.25", FormatFlowrate(2.25))
	assert.Equal(t, "2.33", FormatFlowrate(2.333))
	assert.Equal(t, "2.1", FormatFlowrate(AverageFlowrate(2.0, 2.2)))
}

func TestSampledMinutes_AcrossMidnight(t *testing.T) {
	start := time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)
	assert.InDelta(t, 240, SampledMinutes(start, end), 1e-9)
}

func TestEvaluate(t *testing.T) {
	s := lab.Sample{InitialFlowrate: f(2.0), FinalFlowrate: f(2.4)}
	Evaluate(&s, DefaultFlowrateTolerance)
	require.NotNil(t, s.AverageFlowrate)
	assert.InDelta(t, 2.2, *s.AverageFlowrate, 1e-9)
	assert.Equal(t, lab.SampleFailed, s.Status)

	s = lab.Sample{InitialFlowrate: f(2.0), FinalFlowrate: f(2.1)}
	Evaluate(&s, DefaultFlowrateTolerance)
	assert.Equal(t, lab.SamplePassed, s.Status)

	s = lab.Sample{InitialFlowrate: f(2.0)}
	Evaluate(&s, DefaultFlowrateTolerance)
	assert.Equal(t, lab.SamplePending, s.Status)
	assert.Nil(t, s.AverageFlowrate)

	at := time.Now()
	s = lab.Sample{IsFieldBlank: true, InitialFlowrate: f(2.0), Analysis: &lab.SampleAnalysis{AnalysedAt: &at}}
	Evaluate(&s, DefaultFlowrateTolerance)
	assert.Equal(t, lab.SampleAnalysed, s.Status)
	assert.Nil(t, s.AverageFlowrate)
}

func TestEvaluate_ZeroTolerance(t *testing.T) {
	s := lab.Sample{InitialFlowrate: f(2.0), FinalFlowrate: f(2.0)}
	Evaluate(&s, 0)
	assert.Equal(t, lab.SamplePassed, s.Status)

	s = lab.Sample{InitialFlowrate: f(2.0), FinalFlowrate: f(2.02)}
	Evaluate(&s, 0)
	assert.Equal(t, lab.SampleFailed, s.Status)

	s = lab.Sample{InitialFlowrate: f(2.0), FinalFlowrate: f(2.02)}
	Evaluate(&s, -1)
	assert.Equal(t, lab.SamplePassed, s.Status)
}

func TestReportAirResult(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	at := end
	s := lab.Sample{
		FullSampleID:    "P-AM1",
		StartTime:       &start,
		EndTime:         &end,
		AverageFlowrate: f(2.0),
		Analysis:        &lab.SampleAnalysis{FibresCounted: 20, FieldsCounted: 100, AnalysedAt: &at},
	}

	conc, reported, err := ReportAirResult(DefaultCountingParams, s)
	require.NoError(t, err)
	require.NotNil(t, conc)
	assert.InDelta(t, 0.02043, *conc, 1e-4)
	assert.Equal(t, "0.02", reported)

	s.Analysis.FibresCounted = 5
	_, reported, err = ReportAirResult(DefaultCountingParams, s)
	require.NoError(t, err)
	assert.Equal(t, "<0.01", reported)

	s.Analysis.Uncountable = true
	conc, reported, err = ReportAirResult(DefaultCountingParams, s)
	require.NoError(t, err)
	assert.Nil(t, conc)
	assert.Equal(t, "Uncountable", reported)
}

func TestConcentration_Validation(t *testing.T) {
	_, err := Concentration(DefaultCountingParams, 10, 0, 2, 60)
	assert.True(t, lab.IsValidation(err))
	_, err = Concentration(DefaultCountingParams, 10, 100, 0, 60)
	assert.True(t, lab.IsValidation(err))
}

func TestLeadConcentration(t *testing.T) {
	c, err := LeadConcentration(12, 480)
	require.NoError(t, err)
	assert.InDelta(t, 25, c, 1e-9)
}
