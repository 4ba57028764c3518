package report

import (
	"fmt"
	"time"

	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/workflow"
)

const (
	TypeShiftReport = "ShiftReport"
	TypeFibreID     = "FibreID"
	TypeLeadCoC     = "LeadChainOfCustody"
)

var shiftColumns = []Column{
	{Header: "Sample ID", Width: 28},
	{Header: "Location", Width: 60},
	{Header: "Time On", Width: 16, Align: "C"},
	{Header: "Time Off", Width: 16, Align: "C"},
	{Header: "Avg Flow (L/min)", Width: 20, Align: "C"},
	{Header: "Volume (L)", Width: 18, Align: "C"},
	{Header: "Fields Counted", Width: 18, Align: "C"},
	{Header: "Fibres Counted", Width: 18, Align: "C"},
	{Header: "Result (fibres/mL)", Width: 24, Align: "C"},
	{Header: "Status", Width: 20, Align: "C"},
	{Header: "Notes", Width: 35},
}

// GenerateShiftReport renders the air monitoring report for one shift.
// Unapproved shifts render with a draft marker in the title.
func GenerateShiftReport(b Bundle, lh Letterhead, generated time.Time) ([]byte, error) {
	doc := newDocument("L", shiftTitle("Air Monitoring Report", b.Shift), lh, generated)
	label := workflow.DisplayStatus(b.Shift)

	doc.keyValues([][2]string{
		{"Client", b.clientName()},
		{"Project", fmt.Sprintf("%s - %s", b.Project.ProjectID, b.Project.Name)},
		{"Site address", orDash(b.Project.Address)},
		{"Job", orDash(b.Job.Name)},
		{"Asbestos removalist", orDash(b.Job.AsbestosRemovalist)},
		{"Shift date", shiftDate(b.Shift.Date)},
		{"Supervisor", orDash(b.Shift.Supervisor)},
		{"Status", label.Text},
		{"Description of works", orDash(b.Shift.DescriptionOfWorks)},
		{"Samples received", date(b.Shift.SamplesReceivedDate)},
	})

	samples := b.samplesOfType(lab.SampleAir, lab.SampleLead)
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		fields, fibres, result := dash, dash, dash
		if s.Analysis != nil {
			fields = fmt.Sprintf("%d", s.Analysis.FieldsCounted)
			fibres = fmt.Sprintf("%g", s.Analysis.FibresCounted)
			result = orDash(s.Analysis.ReportedConcentration)
		}
		rows = append(rows, []string{
			s.FullSampleID, orDash(s.Location), clock(s.StartTime), clock(s.EndTime),
			flowrate(s.AverageFlowrate), volume(s), fields, fibres, result, statusText(s), s.Notes,
		})
	}

	doc.heading("Sample Results")
	if len(rows) == 0 {
		doc.paragraph("No samples were collected during this shift.", bodyFont)
	} else {
		doc.table(shiftColumns, rows, func(i int) rowStyle {
			if samples[i].Status == lab.SampleFailed {
				return rowStyle{fill: true, r: 250, g: 222, b: 222}
			}
			return rowStyle{}
		})
	}

	doc.heading("Method")
	doc.paragraph("Samples were collected on 25 mm membrane filters and analysed by phase contrast "+
		"microscopy using the membrane filter method. Results below the reportable limit are "+
		"reported as less than the concentration corresponding to the minimum reportable fibre count. "+
		"Samples whose final flowrate deviated from the initial flowrate by more than the allowed "+
		"tolerance are marked as failed.", bodyFont)

	doc.heading("Authorisation")
	doc.keyValues([][2]string{
		{"Analysed by", orDash(b.Shift.AnalysedBy)},
		{"Analysis date", date(b.Shift.AnalysisDate)},
		{"Report approved by", orDash(b.Shift.ReportApprovedBy)},
		{"Report issue date", date(b.Shift.ReportIssueDate)},
	})
	return doc.bytes()
}
