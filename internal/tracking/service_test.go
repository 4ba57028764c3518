package tracking

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go-lab-sample-tracker/internal/config"
	"go-lab-sample-tracker/internal/connectors/store"
	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/workflow"
)

var clockNow = time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.NewStore(config.Config{DBDriver: "sqlite", DBConnTimeout: 5 * time.Second, DBQueryTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := NewService(st, config.DefaultLabSettings(), 3, zaptest.NewLogger(t))
	svc.now = func() time.Time { return clockNow }
	return svc
}

func seedJob(t *testing.T, svc *Service, kind lab.JobKind, allowance int) *lab.Job {
	t.Helper()
	ctx := context.Background()
	client := lab.Client{Name: "Harbour Council"}
	require.NoError(t, svc.Store().CreateClient(ctx, &client))
	project := lab.Project{ProjectID: "LDJ01234", ClientID: client.ID, Name: "Depot", Address: "1 Wharf Rd"}
	require.NoError(t, svc.Store().CreateProject(ctx, &project))
	job := lab.Job{ProjectID: project.ID, Kind: kind, Name: "Stage 1", SampleAllowance: allowance}
	require.NoError(t, svc.Store().CreateJob(ctx, &job))
	return &job
}

func str(v string) *string   { return &v }
func num(v float64) *float64 { return &v }
func flag(v bool) *bool      { return &v }
func at(h, m int) *time.Time { t := time.Date(2026, 3, 2, h, m, 0, 0, time.UTC); return &t }

func airSample(location string, initial, final float64) SampleInput {
	return SampleInput{
		Location:        str(location),
		StartTime:       at(7, 0),
		EndTime:         at(11, 0),
		InitialFlowrate: num(initial),
		FinalFlowrate:   num(final),
	}
}

func TestService_ShiftLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	job := seedJob(t, svc, lab.JobAirMonitoring, 0)

	sh, err := svc.CreateShift(ctx, job.ID, ShiftDetails{Date: str("2026-03-02"), Supervisor: str("R. Site")})
	require.NoError(t, err)
	assert.Equal(t, string(workflow.Ongoing), sh.Status)

	s1, err := svc.CreateSample(ctx, sh.ID, airSample("Enclosure entry", 2.0, 2.0))
	require.NoError(t, err)
	assert.Equal(t, "LDJ01234-AM1", s1.FullSampleID)
	assert.Equal(t, lab.SamplePassed, s1.Status)
	assert.Equal(t, lab.SampleAir, s1.Type)

	s2, err := svc.CreateSample(ctx, sh.ID, airSample("Boundary", 2.0, 2.6))
	require.NoError(t, err)
	assert.Equal(t, "LDJ01234-AM2", s2.FullSampleID)
	assert.Equal(t, lab.SampleFailed, s2.Status)

	blank, err := svc.CreateSample(ctx, sh.ID, SampleInput{IsFieldBlank: flag(true)})
	require.NoError(t, err)
	assert.Equal(t, lab.SamplePending, blank.Status)

	_, err = svc.TransitionShift(ctx, sh.ID, workflow.SamplingComplete, "")
	require.NoError(t, err)
	_, err = svc.CreateSample(ctx, sh.ID, airSample("Late", 2, 2))
	assert.True(t, lab.IsValidation(err))

	_, err = svc.TransitionShift(ctx, sh.ID, workflow.SamplesSubmitted, "R. Site")
	require.NoError(t, err)

	_, err = svc.TransitionShift(ctx, sh.ID, workflow.AnalysisComplete, "A. Lab")
	assert.True(t, lab.IsValidation(err))

	s1, err = svc.RecordAnalysis(ctx, s1.ID, AnalysisInput{FieldsCounted: 100, FibresCounted: 20})
	require.NoError(t, err)
	assert.Equal(t, "0.02", s1.Analysis.ReportedConcentration)
	assert.Equal(t, lab.SampleAnalysed, s1.Status)

	s2, err = svc.RecordAnalysis(ctx, s2.ID, AnalysisInput{FieldsCounted: 100, FibresCounted: 5})
	require.NoError(t, err)
	assert.Equal(t, "<0.01", s2.Analysis.ReportedConcentration)
	assert.Equal(t, lab.SampleFailed, s2.Status)

	blank, err = svc.RecordAnalysis(ctx, blank.ID, AnalysisInput{FieldsCounted: 100, FibresCounted: 1})
	require.NoError(t, err)
	assert.Equal(t, "1 fibres / 100 fields", blank.Analysis.ReportedConcentration)

	sh, err = svc.TransitionShift(ctx, sh.ID, workflow.AnalysisComplete, "A. Lab")
	require.NoError(t, err)
	assert.Equal(t, "A. Lab", sh.AnalysedBy)

	sh, err = svc.ApproveShift(ctx, sh.ID, "Q. Manager")
	require.NoError(t, err)
	assert.Equal(t, string(workflow.ShiftComplete), sh.Status)

	stored, err := svc.Store().GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "complete", stored.Status)

	_, err = svc.UpdateSample(ctx, s1.ID, SampleInput{Notes: str("late edit")})
	assert.ErrorIs(t, err, lab.ErrLocked)
	_, err = svc.UpdateShift(ctx, sh.ID, ShiftDetails{Notes: str("late edit")})
	assert.ErrorIs(t, err, lab.ErrLocked)
	assert.ErrorIs(t, svc.DeleteSample(ctx, s1.ID), lab.ErrLocked)
	_, err = svc.CreateMarker(ctx, sh.ID, MarkerInput{X: 0.5, Y: 0.5})
	assert.ErrorIs(t, err, lab.ErrLocked)

	view, err := svc.ShiftView(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, "red", view.Display.Color)
	assert.Equal(t, workflow.Actions{Reset: true, GenerateReport: true}, view.Actions)

	rendered, err := svc.RenderReport(ctx, ReportShift, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, "LDJ01234_ShiftReport_2026-03-02.pdf", rendered.Filename)
	assert.True(t, bytes.HasPrefix(rendered.Data, []byte("%PDF")))

	sh, err = svc.ResetShift(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, string(workflow.Ongoing), sh.Status)
	assert.Empty(t, sh.ReportApprovedBy)

	stored, err = svc.Store().GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", stored.Status)

	// analysis survives a reset
	again, err := svc.Store().GetSample(ctx, s1.ID)
	require.NoError(t, err)
	assert.True(t, again.HasAnalysis())
}

func TestService_SampleAllowance(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	job := seedJob(t, svc, lab.JobAirMonitoring, 2)
	sh, err := svc.CreateShift(ctx, job.ID, ShiftDetails{Date: str("2026-03-02")})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.CreateSample(ctx, sh.ID, airSample("Zone", 2, 2))
		require.NoError(t, err)
	}
	_, err = svc.CreateSample(ctx, sh.ID, airSample("Zone", 2, 2))
	assert.ErrorIs(t, err, lab.ErrAllowanceExceeded)
}

func TestService_ManualNumberAndPreview(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	job := seedJob(t, svc, lab.JobAirMonitoring, 0)
	sh, err := svc.CreateShift(ctx, job.ID, ShiftDetails{Date: str("2026-03-02")})
	require.NoError(t, err)

	in := airSample("Zone", 2, 2)
	in.SampleNumber = 5
	sm, err := svc.CreateSample(ctx, sh.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "LDJ01234-AM5", sm.FullSampleID)

	_, err = svc.CreateSample(ctx, sh.ID, in)
	assert.ErrorIs(t, err, lab.ErrConflict)

	next, err := svc.NextSampleNumber(ctx, job.ProjectID, "am")
	require.NoError(t, err)
	assert.Equal(t, &NextSample{Prefix: "AM", SampleNumber: 6, FullSampleID: "LDJ01234-AM6"}, next)

	_, err = svc.NextSampleNumber(ctx, job.ProjectID, " ")
	assert.True(t, lab.IsValidation(err))
}

func TestService_PumpCalibration(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	job := seedJob(t, svc, lab.JobAirMonitoring, 0)
	sh, err := svc.CreateShift(ctx, job.ID, ShiftDetails{Date: str("2026-03-02")})
	require.NoError(t, err)

	lapsed := clockNow.AddDate(0, -1, 0)
	require.NoError(t, svc.Store().CreateEquipment(ctx, &lab.Equipment{Reference: "P-07", Kind: "pump", CalibrationDue: &lapsed}))

	in := airSample("Zone", 2, 2)
	in.PumpID = str("P-07")
	_, err = svc.CreateSample(ctx, sh.ID, in)
	assert.True(t, lab.IsValidation(err))

	in.PumpID = str("P-99")
	sm, err := svc.CreateSample(ctx, sh.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "P-99", sm.PumpID)
}

func TestService_LeadAnalysisAndCoC(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	job := seedJob(t, svc, lab.JobLeadMonitoring, 0)
	sh, err := svc.CreateShift(ctx, job.ID, ShiftDetails{Date: str("2026-03-02")})
	require.NoError(t, err)

	sm, err := svc.CreateSample(ctx, sh.ID, SampleInput{
		Location: str("Scaffold"), StartTime: at(8, 0), EndTime: at(16, 0),
		InitialFlowrate: num(2), FinalFlowrate: num(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "LDJ01234-LP1", sm.FullSampleID)
	assert.Equal(t, lab.SampleLead, sm.Type)

	_, err = svc.RecordAnalysis(ctx, sm.ID, AnalysisInput{})
	assert.True(t, lab.IsValidation(err))

	sm, err = svc.RecordAnalysis(ctx, sm.ID, AnalysisInput{LeadMassUG: num(9.6)})
	require.NoError(t, err)
	require.NotNil(t, sm.Analysis.Concentration)
	assert.InDelta(t, 10.0, *sm.Analysis.Concentration, 1e-9)
	assert.Equal(t, "10.00 µg/m³", sm.Analysis.ReportedConcentration)

	rendered, err := svc.RenderReport(ctx, ReportLeadCoC, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, "LDJ01234_LeadChainOfCustody_2026-03-02.pdf", rendered.Filename)

	_, err = svc.RenderReport(ctx, ReportFibreID, sh.ID)
	assert.True(t, lab.IsValidation(err))

	csv, err := svc.ExportSamplesCSV(ctx, sh.ID)
	require.NoError(t, err)
	assert.Contains(t, string(csv.Data), "LDJ01234-LP1")
}

func TestService_Markers(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	job := seedJob(t, svc, lab.JobAirMonitoring, 0)
	sh, err := svc.CreateShift(ctx, job.ID, ShiftDetails{Date: str("2026-03-02")})
	require.NoError(t, err)
	sm, err := svc.CreateSample(ctx, sh.ID, airSample("Zone", 2, 2))
	require.NoError(t, err)

	m, err := svc.CreateMarker(ctx, sh.ID, MarkerInput{SampleID: sm.ID, X: 0.25, Y: 0.75})
	require.NoError(t, err)
	assert.Equal(t, lab.MarkerSample, m.Kind)
	assert.Equal(t, "LDJ01234-AM1", m.Label)

	_, err = svc.CreateMarker(ctx, sh.ID, MarkerInput{X: 1.5, Y: 0})
	assert.True(t, lab.IsValidation(err))
	_, err = svc.CreateMarker(ctx, sh.ID, MarkerInput{Kind: "arrow"})
	assert.True(t, lab.IsValidation(err))

	markers, err := svc.ListMarkers(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, markers, 1)

	require.NoError(t, svc.DeleteMarker(ctx, m.ID))
	assert.ErrorIs(t, svc.DeleteMarker(ctx, m.ID), lab.ErrNotFound)
}

func TestParseReportKind(t *testing.T) {
	k, err := ParseReportKind(" Fibre-ID ")
	require.NoError(t, err)
	assert.Equal(t, ReportFibreID, k)

	_, err = ParseReportKind("summary")
	assert.True(t, lab.IsValidation(err))
}

func TestService_UpdateSampleRecomputesResult(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	job := seedJob(t, svc, lab.JobAirMonitoring, 0)
	sh, err := svc.CreateShift(ctx, job.ID, ShiftDetails{Date: str("2026-03-02")})
	require.NoError(t, err)

	sm, err := svc.CreateSample(ctx, sh.ID, airSample("Zone A", 2.0, 2.0))
	require.NoError(t, err)
	sm, err = svc.RecordAnalysis(ctx, sm.ID, AnalysisInput{FieldsCounted: 100, FibresCounted: 40})
	require.NoError(t, err)
	assert.Equal(t, "0.04", sm.Analysis.ReportedConcentration)

	sm, err = svc.UpdateSample(ctx, sm.ID, SampleInput{InitialFlowrate: num(1.0), FinalFlowrate: num(1.0)})
	require.NoError(t, err)
	require.NotNil(t, sm.AverageFlowrate)
	assert.InDelta(t, 1.0, *sm.AverageFlowrate, 1e-9)
	assert.Equal(t, "0.08", sm.Analysis.ReportedConcentration)
	require.NotNil(t, sm.Analysis.Concentration)
	assert.InDelta(t, 0.0817, *sm.Analysis.Concentration, 1e-4)
	assert.Equal(t, lab.SampleAnalysed, sm.Status)

	stored, err := svc.Store().GetSample(ctx, sm.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.08", stored.Analysis.ReportedConcentration)

	sm, err = svc.UpdateSample(ctx, sm.ID, SampleInput{IsFieldBlank: flag(true)})
	require.NoError(t, err)
	assert.Equal(t, "40 fibres / 100 fields", sm.Analysis.ReportedConcentration)
	assert.Nil(t, sm.Analysis.Concentration)
}

func TestService_UpdateSampleRecomputesLeadResult(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	job := seedJob(t, svc, lab.JobLeadMonitoring, 0)
	sh, err := svc.CreateShift(ctx, job.ID, ShiftDetails{Date: str("2026-03-02")})
	require.NoError(t, err)

	sm, err := svc.CreateSample(ctx, sh.ID, airSample("Fence line", 4.0, 4.0))
	require.NoError(t, err)
	sm, err = svc.RecordAnalysis(ctx, sm.ID, AnalysisInput{LeadMassUG: num(9.6)})
	require.NoError(t, err)
	assert.Equal(t, "10.00 µg/m³", sm.Analysis.ReportedConcentration)

	sm, err = svc.UpdateSample(ctx, sm.ID, SampleInput{InitialFlowrate: num(2.0), FinalFlowrate: num(2.0)})
	require.NoError(t, err)
	assert.Equal(t, "20.00 µg/m³", sm.Analysis.ReportedConcentration)
}

func TestService_CreateJobDerivesStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seeded := seedJob(t, svc, lab.JobAirMonitoring, 0)

	j, err := svc.CreateJob(ctx, lab.Job{ProjectID: seeded.ProjectID, Kind: lab.JobFibreID, Name: "Bulk ID", Status: "complete"})
	require.NoError(t, err)
	assert.Equal(t, "in_progress", j.Status)
}

func TestService_UpdateJobKeepsInvariants(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	job := seedJob(t, svc, lab.JobAirMonitoring, 3)
	sh, err := svc.CreateShift(ctx, job.ID, ShiftDetails{Date: str("2026-03-02")})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := svc.CreateSample(ctx, sh.ID, airSample("Zone", 2, 2))
		require.NoError(t, err)
	}

	_, err = svc.UpdateJob(ctx, job.ID, JobDetails{SampleAllowance: intPtr(1)})
	assert.True(t, lab.IsValidation(err))

	lead := lab.JobLeadMonitoring
	_, err = svc.UpdateJob(ctx, job.ID, JobDetails{Kind: &lead})
	assert.True(t, lab.IsValidation(err))

	stored, err := svc.Store().GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.SampleAllowance)
	assert.Equal(t, lab.JobAirMonitoring, stored.Kind)
	assert.Equal(t, "in_progress", stored.Status)

	j, err := svc.UpdateJob(ctx, job.ID, JobDetails{Name: str("Stage 2"), SampleAllowance: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, "Stage 2", j.Name)
	assert.Equal(t, 5, j.SampleAllowance)

	j, err = svc.UpdateJob(ctx, job.ID, JobDetails{SampleAllowance: intPtr(0)})
	require.NoError(t, err)
	assert.Zero(t, j.SampleAllowance)

	_, err = svc.UpdateJob(ctx, "missing", JobDetails{Name: str("x")})
	assert.ErrorIs(t, err, lab.ErrNotFound)
}

func TestService_DeleteRefusedWhileShiftApproved(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	job := seedJob(t, svc, lab.JobAirMonitoring, 0)
	sh := approvedShift(t, svc, job)

	samples, err := svc.Store().ListSamplesByShift(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, samples, 1)

	assert.ErrorIs(t, svc.DeleteJob(ctx, job.ID), lab.ErrLocked)
	assert.ErrorIs(t, svc.DeleteProject(ctx, job.ProjectID), lab.ErrLocked)
	assert.ErrorIs(t, svc.DeleteShift(ctx, sh.ID), lab.ErrLocked)

	_, err = svc.Store().GetShift(ctx, sh.ID)
	require.NoError(t, err)
	_, err = svc.Store().GetSample(ctx, samples[0].ID)
	require.NoError(t, err)

	_, err = svc.ResetShift(ctx, sh.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteJob(ctx, job.ID))
	_, err = svc.Store().GetShift(ctx, sh.ID)
	assert.ErrorIs(t, err, lab.ErrNotFound)
	require.NoError(t, svc.DeleteProject(ctx, job.ProjectID))
}

func intPtr(v int) *int { return &v }

func approvedShift(t *testing.T, svc *Service, job *lab.Job) *lab.Shift {
	t.Helper()
	ctx := context.Background()
	sh, err := svc.CreateShift(ctx, job.ID, ShiftDetails{Date: str("2026-03-02")})
	require.NoError(t, err)
	sm, err := svc.CreateSample(ctx, sh.ID, airSample("Zone A", 2, 2))
	require.NoError(t, err)
	_, err = svc.TransitionShift(ctx, sh.ID, workflow.SamplingComplete, "")
	require.NoError(t, err)
	_, err = svc.TransitionShift(ctx, sh.ID, workflow.SamplesSubmitted, "J. Field")
	require.NoError(t, err)
	_, err = svc.RecordAnalysis(ctx, sm.ID, AnalysisInput{FieldsCounted: 100, FibresCounted: 12})
	require.NoError(t, err)
	_, err = svc.TransitionShift(ctx, sh.ID, workflow.AnalysisComplete, "A. Lab")
	require.NoError(t, err)
	sh, err = svc.ApproveShift(ctx, sh.ID, "Q. Manager")
	require.NoError(t, err)
	return sh
}
