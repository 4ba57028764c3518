package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"go-lab-sample-tracker/internal/lab"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	shift      lab.Shift
	job        lab.Job
	project    lab.Project
	client     *lab.Client
	samples    []lab.Sample
	markers    []lab.Marker
	samplesErr error
}

func (f *fakeSource) GetShift(_ context.Context, id string) (*lab.Shift, error) {
	if id != f.shift.ID {
		return nil, lab.ErrNotFound
	}
	sh := f.shift
	return &sh, nil
}

func (f *fakeSource) GetJob(context.Context, string) (*lab.Job, error) {
	j := f.job
	return &j, nil
}

func (f *fakeSource) GetProject(context.Context, string) (*lab.Project, error) {
	p := f.project
	return &p, nil
}

func (f *fakeSource) GetClient(context.Context, string) (*lab.Client, error) {
	if f.client == nil {
		return nil, lab.ErrNotFound
	}
	c := *f.client
	return &c, nil
}

func (f *fakeSource) ListSamplesByShift(context.Context, string) ([]lab.Sample, error) {
	return f.samples, f.samplesErr
}

func (f *fakeSource) ListMarkers(context.Context, string) ([]lab.Marker, error) {
	return f.markers, nil
}

func fp(v float64) *float64 { return &v }

func tp(h, m int) *time.Time {
	t := time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
	return &t
}

func fixture() *fakeSource {
	analysedAt := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	return &fakeSource{
		shift:   lab.Shift{ID: "sh1", JobID: "j1", Date: "2026-03-02", Status: "analysis_complete", Supervisor: "R. Site"},
		job:     lab.Job{ID: "j1", ProjectID: "p1", Kind: lab.JobAirMonitoring, Name: "Stage 1 removal"},
		project: lab.Project{ID: "p1", ProjectID: "LDJ01234", ClientID: "c1", Name: "Depot", Address: "1 Wharf Rd"},
		client:  &lab.Client{ID: "c1", Name: "Harbour Council"},
		samples: []lab.Sample{
			{
				ID: "s1", FullSampleID: "LDJ01234-AM1", Type: lab.SampleAir, Location: "Enclosure entry, north side of the decontamination unit",
				StartTime: tp(7, 0), EndTime: tp(11, 0), InitialFlowrate: fp(2), FinalFlowrate: fp(2), AverageFlowrate: fp(2),
				Status:   lab.SampleAnalysed,
				Analysis: &lab.SampleAnalysis{FieldsCounted: 100, FibresCounted: 5, ReportedConcentration: "<0.01", AnalysedAt: &analysedAt},
			},
			{
				ID: "s2", FullSampleID: "LDJ01234-AM2", Type: lab.SampleAir, Location: "Boundary",
				StartTime: tp(7, 5), EndTime: tp(11, 5), InitialFlowrate: fp(2), FinalFlowrate: fp(2.6), AverageFlowrate: fp(2.3),
				Status: lab.SampleFailed,
			},
			{ID: "s3", FullSampleID: "LDJ01234-AM3", Type: lab.SampleAir, IsFieldBlank: true, Status: lab.SamplePending},
		},
		markers: []lab.Marker{{ID: "m1", ShiftID: "sh1", Kind: lab.MarkerSample, X: 0.2, Y: 0.4, Label: "AM1"}},
	}
}

var letterhead = Letterhead{LabName: "Harbour Environmental Lab", LabAddress: "2 Quay St", Accreditation: "Accreditation No. 1234"}

func TestLoadBundle(t *testing.T) {
	src := fixture()
	b, err := LoadBundle(context.Background(), src, "sh1")
	require.NoError(t, err)

	want := Bundle{
		Client:  src.client,
		Project: src.project,
		Job:     src.job,
		Shift:   src.shift,
		Samples: src.samples,
		Markers: src.markers,
	}
	if diff := cmp.Diff(want, *b); diff != "" {
		t.Fatalf("bundle mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadBundle_MissingClientTolerated(t *testing.T) {
	src := fixture()
	src.client = nil
	b, err := LoadBundle(context.Background(), src, "sh1")
	require.NoError(t, err)
	assert.Nil(t, b.Client)
	assert.Equal(t, "-", b.clientName())
}

func TestLoadBundle_Errors(t *testing.T) {
	src := fixture()
	_, err := LoadBundle(context.Background(), src, "missing")
	assert.ErrorIs(t, err, lab.ErrNotFound)

	src.samplesErr = errors.New("disk on fire")
	_, err = LoadBundle(context.Background(), src, "sh1")
	assert.ErrorContains(t, err, "load samples")
}

func bundle(t *testing.T, src *fakeSource) Bundle {
	t.Helper()
	b, err := LoadBundle(context.Background(), src, "sh1")
	require.NoError(t, err)
	return *b
}

func TestGenerateShiftReport(t *testing.T) {
	out, err := GenerateShiftReport(bundle(t, fixture()), letterhead, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateShiftReport_ManyRowsPaginate(t *testing.T) {
	src := fixture()
	for i := 0; i < 80; i++ {
		src.samples = append(src.samples, src.samples[0])
	}
	out, err := GenerateShiftReport(bundle(t, src), letterhead, time.Time{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateFibreIDReport(t *testing.T) {
	src := fixture()
	_, err := GenerateFibreIDReport(bundle(t, src), letterhead, time.Time{})
	assert.True(t, lab.IsValidation(err))

	src.samples = append(src.samples, lab.Sample{
		FullSampleID: "LDJ01234-FI1", Type: lab.SampleBulk, Location: "Plant room lagging",
		Analysis: &lab.SampleAnalysis{MaterialDescription: "Grey fibrous lagging", AsbestosResult: "Chrysotile detected"},
	})
	out, err := GenerateFibreIDReport(bundle(t, src), letterhead, time.Time{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateLeadChainOfCustodyPDF(t *testing.T) {
	src := fixture()
	_, err := GenerateLeadChainOfCustodyPDF(bundle(t, src), letterhead, time.Time{})
	assert.True(t, lab.IsValidation(err))

	src.shift.SubmittedBy = "R. Site"
	src.samples = append(src.samples, lab.Sample{
		FullSampleID: "LDJ01234-LP1", Type: lab.SampleLead, Location: "Scaffold level 2",
		StartTime: tp(8, 0), EndTime: tp(16, 0), AverageFlowrate: fp(4),
	})
	out, err := GenerateLeadChainOfCustodyPDF(bundle(t, src), letterhead, time.Time{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

// utf16Title encodes ASCII text the way the PDF info dictionary stores a
// UTF-8 title.
func utf16Title(s string) []byte {
	out := make([]byte, 0, 2*len(s))
	for _, r := range s {
		out = append(out, byte(r>>8), byte(r))
	}
	return out
}

func TestGeneratedReportsMarkUnapprovedAsDraft(t *testing.T) {
	generators := map[string]func(Bundle, Letterhead, time.Time) ([]byte, error){
		"shift":    GenerateShiftReport,
		"fibre-id": GenerateFibreIDReport,
		"lead-coc": GenerateLeadChainOfCustodyPDF,
	}
	src := fixture()
	src.samples = append(src.samples,
		lab.Sample{
			FullSampleID: "LDJ01234-FI1", Type: lab.SampleBulk, Location: "Plant room lagging",
			Analysis: &lab.SampleAnalysis{AsbestosResult: "No asbestos detected"},
		},
		lab.Sample{
			FullSampleID: "LDJ01234-LP1", Type: lab.SampleLead, Location: "Scaffold level 2",
			StartTime: tp(8, 0), EndTime: tp(16, 0), AverageFlowrate: fp(4),
		},
	)

	for name, generate := range generators {
		out, err := generate(bundle(t, src), letterhead, time.Time{})
		require.NoError(t, err, name)
		assert.True(t, bytes.Contains(out, utf16Title("DRAFT")), "%s: expected draft title", name)
	}

	issued := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	src.shift.ReportApprovedBy = "Q. Manager"
	src.shift.ReportIssueDate = &issued
	for name, generate := range generators {
		out, err := generate(bundle(t, src), letterhead, time.Time{})
		require.NoError(t, err, name)
		assert.False(t, bytes.Contains(out, utf16Title("DRAFT")), "%s: approved report marked draft", name)
	}
}

func TestShiftTitle(t *testing.T) {
	assert.Equal(t, "Fibre Identification Report (DRAFT)", shiftTitle("Fibre Identification Report", lab.Shift{}))
	assert.Equal(t, "Fibre Identification Report", shiftTitle("Fibre Identification Report", lab.Shift{ReportApprovedBy: "Q. Manager"}))
}

func TestWriteSamplesCSV(t *testing.T) {
	src := fixture()
	src.samples[1].Notes = `pump "P-07" faulted, replaced`

	var buf bytes.Buffer
	require.NoError(t, WriteSamplesCSV(&buf, src.samples))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, csvHeader, records[0])

	first := records[1]
	assert.Equal(t, "LDJ01234-AM1", first[0])
	assert.Equal(t, "240", first[10])
	assert.Equal(t, "480.0", first[11])
	assert.Equal(t, "<0.01", first[14])

	assert.Equal(t, `pump "P-07" faulted, replaced`, records[2][16])
	assert.Equal(t, "true", records[3][3])
	assert.Equal(t, "", records[3][11])
}
