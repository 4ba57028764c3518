package http

import (
	"context"
	nethttp "net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/tracking"
)

// reportsRouter serves the shift documents:
//
//	/api/v1/reports/shifts/{id}.pdf
//	/api/v1/reports/fibre-id/{id}.pdf
//	/api/v1/reports/lead-coc/{id}.pdf
//	/api/v1/reports/shifts/{id}/samples.csv
func reportsRouter(timeout time.Duration, svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		if r.Method != nethttp.MethodGet {
			methodNotAllowed(w)
			return
		}

		parts := pathParts(r.URL.Path, "/api/v1/reports/")
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		switch {
		case len(parts) == 3 && parts[0] == "shifts" && parts[2] == "samples.csv":
			start := time.Now()
			rendered, err := svc.ExportSamplesCSV(ctx, parts[1])
			recordReportRun("samples-csv", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "export samples", err)
				return
			}
			attachment(w, rendered)
		case len(parts) == 2 && strings.HasSuffix(parts[1], ".pdf"):
			name := parts[0]
			if name == "shifts" {
				name = string(tracking.ReportShift)
			}
			kind, err := tracking.ParseReportKind(name)
			if err != nil {
				notFound(w)
				return
			}
			shiftID := strings.TrimSuffix(parts[1], ".pdf")
			start := time.Now()
			rendered, err := svc.RenderReport(ctx, kind, shiftID)
			recordReportRun(string(kind), time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "render report", err)
				return
			}
			attachment(w, rendered)
		default:
			notFound(w)
		}
	}
}
