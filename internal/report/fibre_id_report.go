package report

import (
	"time"

	"go-lab-sample-tracker/internal/lab"
)

var fibreIDColumns = []Column{
	{Header: "Sample ID", Width: 32},
	{Header: "Location", Width: 48},
	{Header: "Material Description", Width: 56},
	{Header: "Result", Width: 50},
}

// GenerateFibreIDReport renders bulk sample identification results. Unapproved
// shifts render with a draft marker in the title.
func GenerateFibreIDReport(b Bundle, lh Letterhead, generated time.Time) ([]byte, error) {
	samples := b.samplesOfType(lab.SampleBulk)
	if len(samples) == 0 {
		return nil, lab.Invalid("shift has no bulk samples for fibre identification")
	}

	doc := newDocument("P", shiftTitle("Fibre Identification Report", b.Shift), lh, generated)
	doc.keyValues([][2]string{
		{"Client", b.clientName()},
		{"Project", b.Project.ProjectID},
		{"Site address", orDash(b.Project.Address)},
		{"Sampled", shiftDate(b.Shift.Date)},
		{"Analysed by", orDash(b.Shift.AnalysedBy)},
		{"Analysis date", date(b.Shift.AnalysisDate)},
	})

	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		material, result := orDash(s.Description), "Not analysed"
		if s.Analysis != nil {
			if s.Analysis.MaterialDescription != "" {
				material = s.Analysis.MaterialDescription
			}
			result = orDash(s.Analysis.AsbestosResult)
		}
		rows = append(rows, []string{s.FullSampleID, orDash(s.Location), material, result})
	}
	doc.heading("Results")
	doc.table(fibreIDColumns, rows, func(i int) rowStyle {
		if a := samples[i].Analysis; a != nil && detected(a.AsbestosResult) {
			return rowStyle{fill: true, r: 252, g: 232, b: 214}
		}
		return rowStyle{}
	})

	doc.heading("Method")
	doc.paragraph("Bulk samples were examined by stereo microscopy and polarised light microscopy "+
		"including dispersion staining.", bodyFont)

	doc.heading("Authorisation")
	doc.keyValues([][2]string{
		{"Report approved by", orDash(b.Shift.ReportApprovedBy)},
		{"Report issue date", date(b.Shift.ReportIssueDate)},
	})
	return doc.bytes()
}

func detected(result string) bool {
	switch result {
	case "", "No asbestos detected", "Not analysed":
		return false
	}
	return true
}
