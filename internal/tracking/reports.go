package tracking

import (
	"bytes"
	"context"
	"strings"

	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/report"
)

// ReportKind selects one of the shift-level documents.
type ReportKind string

const (
	ReportShift   ReportKind = "shift"
	ReportFibreID ReportKind = "fibre-id"
	ReportLeadCoC ReportKind = "lead-coc"
)

// ParseReportKind accepts the names used in URLs and on the command line.
func ParseReportKind(raw string) (ReportKind, error) {
	switch k := ReportKind(strings.ToLower(strings.TrimSpace(raw))); k {
	case ReportShift, ReportFibreID, ReportLeadCoC:
		return k, nil
	}
	return "", lab.Invalid("unknown report %q", raw)
}

// Rendered is a generated document ready to be served or written to disk.
type Rendered struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (s *Service) Bundle(ctx context.Context, shiftID string) (*report.Bundle, error) {
	return report.LoadBundle(ctx, s.store, shiftID)
}

// RenderReport builds a PDF for the shift. Reports of unapproved shifts are
// marked as drafts.
func (s *Service) RenderReport(ctx context.Context, kind ReportKind, shiftID string) (*Rendered, error) {
	b, err := s.Bundle(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	var (
		data     []byte
		typeName string
	)
	generated := s.now()
	switch kind {
	case ReportShift:
		typeName = report.TypeShiftReport
		data, err = report.GenerateShiftReport(*b, s.letterhead(), generated)
	case ReportFibreID:
		typeName = report.TypeFibreID
		data, err = report.GenerateFibreIDReport(*b, s.letterhead(), generated)
	case ReportLeadCoC:
		typeName = report.TypeLeadCoC
		data, err = report.GenerateLeadChainOfCustodyPDF(*b, s.letterhead(), generated)
	default:
		return nil, lab.Invalid("unknown report %q", kind)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("report rendered",
		zap.String("shift_id", shiftID),
		zap.String("report", string(kind)),
		zap.Int("bytes", len(data)),
		zap.Bool("draft", !b.Shift.Approved()),
	)
	return &Rendered{
		Filename:    report.Filename(b.Project.ProjectID, typeName, b.Shift.Date, "pdf"),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// ExportSamplesCSV renders the shift's samples as CSV.
func (s *Service) ExportSamplesCSV(ctx context.Context, shiftID string) (*Rendered, error) {
	b, err := s.Bundle(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := report.WriteSamplesCSV(&buf, b.Samples); err != nil {
		return nil, err
	}
	return &Rendered{
		Filename:    report.Filename(b.Project.ProjectID, "Samples", b.Shift.Date, "csv"),
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}
