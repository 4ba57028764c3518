package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-lab-sample-tracker/internal/lab"
)

func ptr[T any](v T) *T { return &v }

func completedSample(id string) lab.Sample {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	return lab.Sample{FullSampleID: id, EndTime: &now, FinalFlowrate: ptr(2.0)}
}

func analysed(s lab.Sample) lab.Sample {
	at := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	s.Analysis = &lab.SampleAnalysis{FieldsCounted: 100, AnalysedAt: &at}
	return s
}

func TestTransition_FullLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	sh := lab.Shift{Status: string(Ongoing)}
	samples := []lab.Sample{completedSample("P1-AM1"), {FullSampleID: "P1-AM2", IsFieldBlank: true}}

	require.NoError(t, Transition(&sh, samples, SamplingComplete, "", now))
	require.NoError(t, Transition(&sh, samples, SamplesSubmitted, "J. Field", now))
	assert.Equal(t, "J. Field", sh.SubmittedBy)
	require.NotNil(t, sh.SamplesReceivedDate)

	err := Transition(&sh, samples, AnalysisComplete, "A. Lab", now)
	require.Error(t, err)
	assert.True(t, lab.IsValidation(err))

	samples = []lab.Sample{analysed(samples[0]), analysed(samples[1])}
	require.NoError(t, Transition(&sh, samples, AnalysisComplete, "A. Lab", now))
	assert.Equal(t, "A. Lab", sh.AnalysedBy)
	require.NoError(t, Transition(&sh, samples, ShiftComplete, "", now))
	assert.Equal(t, string(ShiftComplete), sh.Status)
}

func TestTransition_RejectsSkippingStages(t *testing.T) {
	sh := lab.Shift{Status: string(Ongoing)}
	err := Transition(&sh, []lab.Sample{completedSample("P1-AM1")}, AnalysisComplete, "x", time.Now())
	require.Error(t, err)
	assert.True(t, lab.IsValidation(err))
	assert.Equal(t, string(Ongoing), sh.Status)
}

func TestCanTransition_SamplingNeedsFinalReadings(t *testing.T) {
	sh := lab.Shift{Status: string(Ongoing)}

	err := CanTransition(sh, nil, SamplingComplete)
	assert.True(t, lab.IsValidation(err))

	err = CanTransition(sh, []lab.Sample{{FullSampleID: "P1-AM1"}}, SamplingComplete)
	assert.ErrorContains(t, err, "P1-AM1")

	// field blanks carry no flow readings
	err = CanTransition(sh, []lab.Sample{{FullSampleID: "P1-AM1", IsFieldBlank: true}}, SamplingComplete)
	assert.NoError(t, err)
}

func TestApprove_LocksShift(t *testing.T) {
	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	sh := lab.Shift{Status: string(AnalysisComplete)}

	require.NoError(t, Approve(&sh, "Q. Manager", now))
	assert.Equal(t, string(ShiftComplete), sh.Status)
	assert.False(t, Editable(sh))
	assert.Equal(t, Label{Status: ShiftComplete, Text: "Shift Complete", Color: "red"}, DisplayStatus(sh))

	err := Transition(&sh, nil, ShiftComplete, "", now)
	assert.True(t, errors.Is(err, lab.ErrLocked))
	assert.ErrorIs(t, Approve(&sh, "Q. Manager", now), lab.ErrLocked)
	assert.ErrorIs(t, CanAddSample(sh), lab.ErrLocked)

	acts := AvailableActions(sh, nil)
	assert.Equal(t, Actions{Reset: true, GenerateReport: true}, acts)
}

func TestApprove_RequiresAnalysis(t *testing.T) {
	sh := lab.Shift{Status: string(SamplesSubmitted)}
	err := Approve(&sh, "Q. Manager", time.Now())
	assert.True(t, lab.IsValidation(err))
	assert.Empty(t, sh.ReportApprovedBy)
}

func TestReset_ClearsApprovalKeepsSubmission(t *testing.T) {
	issued := time.Now()
	sh := lab.Shift{
		Status:           string(ShiftComplete),
		SubmittedBy:      "J. Field",
		AnalysedBy:       "A. Lab",
		AnalysisDate:     &issued,
		ReportApprovedBy: "Q. Manager",
		ReportIssueDate:  &issued,
	}
	Reset(&sh)

	assert.Equal(t, string(Ongoing), sh.Status)
	assert.Empty(t, sh.ReportApprovedBy)
	assert.Nil(t, sh.ReportIssueDate)
	assert.Empty(t, sh.AnalysedBy)
	assert.Nil(t, sh.AnalysisDate)
	assert.Equal(t, "J. Field", sh.SubmittedBy)
	assert.True(t, Editable(sh))
}

func TestAvailableActions_Ongoing(t *testing.T) {
	sh := lab.Shift{}
	acts := AvailableActions(sh, []lab.Sample{completedSample("P1-AM1")})
	assert.True(t, acts.Edit)
	assert.True(t, acts.AddSample)
	assert.True(t, acts.CompleteSampling)
	assert.False(t, acts.SubmitToLab)
	assert.False(t, acts.Approve)
	assert.False(t, acts.Reset)
	assert.False(t, acts.GenerateReport)
}

func TestDisplayStatus(t *testing.T) {
	assert.Equal(t, "Samples Submitted to Lab", DisplayStatus(lab.Shift{Status: "samples_submitted_to_lab"}).Text)
	assert.Equal(t, "Ongoing", DisplayStatus(lab.Shift{}).Text)
	assert.Equal(t, "grey", DisplayStatus(lab.Shift{Status: "archived"}).Color)
}

func TestJobStatus(t *testing.T) {
	assert.Equal(t, "in_progress", JobStatus(nil))
	assert.Equal(t, "in_progress", JobStatus([]lab.Shift{{Status: "shift_complete"}, {Status: "ongoing"}}))
	assert.Equal(t, "complete", JobStatus([]lab.Shift{{Status: "shift_complete"}, {Status: "shift_complete"}}))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Analysis_Complete ")
	require.NoError(t, err)
	assert.Equal(t, AnalysisComplete, st)

	_, err = ParseStatus("done")
	assert.True(t, lab.IsValidation(err))
}
