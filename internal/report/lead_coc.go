package report

import (
	"time"

	"go-lab-sample-tracker/internal/lab"
)

var leadCoCColumns = []Column{
	{Header: "Sample ID", Width: 30},
	{Header: "Location", Width: 52},
	{Header: "Time On", Width: 18, Align: "C"},
	{Header: "Time Off", Width: 18, Align: "C"},
	{Header: "Avg Flow (L/min)", Width: 20, Align: "C"},
	{Header: "Volume (L)", Width: 20, Align: "C"},
	{Header: "Notes", Width: 28},
}

// GenerateLeadChainOfCustodyPDF renders the hand-off sheet that travels with
// lead samples to the laboratory.
func GenerateLeadChainOfCustodyPDF(b Bundle, lh Letterhead, generated time.Time) ([]byte, error) {
	samples := b.samplesOfType(lab.SampleLead)
	if len(samples) == 0 {
		return nil, lab.Invalid("shift has no lead samples")
	}

	doc := newDocument("P", shiftTitle("Chain of Custody - Lead Samples", b.Shift), lh, generated)
	doc.keyValues([][2]string{
		{"Client", b.clientName()},
		{"Project", b.Project.ProjectID},
		{"Site address", orDash(b.Project.Address)},
		{"Sample date", shiftDate(b.Shift.Date)},
		{"Sampled by", orDash(b.Shift.Supervisor)},
		{"Number of samples", itoa(len(samples))},
	})

	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		loc := orDash(s.Location)
		if s.IsFieldBlank {
			loc = "Field blank"
		}
		rows = append(rows, []string{
			s.FullSampleID, loc, clock(s.StartTime), clock(s.EndTime), flowrate(s.AverageFlowrate), volume(s), s.Notes,
		})
	}
	doc.heading("Samples")
	doc.table(leadCoCColumns, rows, nil)

	doc.heading("Custody Transfer")
	received := ""
	if b.Shift.SamplesReceivedDate != nil {
		received = b.Shift.SamplesReceivedDate.Format("02/01/2006 15:04")
	}
	doc.signatureLine("Relinquished by:", b.Shift.SubmittedBy)
	doc.signatureLine("Date / time:", received)
	doc.signatureLine("Received by:", "")
	doc.signatureLine("Date / time:", "")
	doc.signatureLine("Sample condition:", "")
	return doc.bytes()
}
