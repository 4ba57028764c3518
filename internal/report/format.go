package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/sampling"
)

const dash = "-"

func clock(t *time.Time) string {
	if t == nil {
		return dash
	}
	return t.Format("15:04")
}

func date(t *time.Time) string {
	if t == nil {
		return dash
	}
	return t.Format("02/01/2006")
}

func shiftDate(raw string) string {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return raw
	}
	return t.Format("02/01/2006")
}

func flowrate(v *float64) string {
	if v == nil {
		return dash
	}
	return sampling.FormatFlowrate(*v)
}

func volume(s lab.Sample) string {
	v, ok := sampling.SampleVolume(s)
	if !ok {
		return dash
	}
	return fmt.Sprintf("%.0f", v)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return dash
	}
	return s
}

func statusText(s lab.Sample) string {
	if s.IsFieldBlank {
		return "Field blank"
	}
	switch s.Status {
	case lab.SampleFailed:
		return "Failed"
	case lab.SamplePassed:
		return "Passed"
	case lab.SampleAnalysed:
		return "Analysed"
	default:
		return "Pending"
	}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// Filename builds a download name embedding project, report type and date.
func Filename(projectID, reportType, day, ext string) string {
	projectID = strings.Trim(unsafeFilename.ReplaceAllString(strings.TrimSpace(projectID), "-"), "-")
	if projectID == "" {
		projectID = "project"
	}
	return fmt.Sprintf("%s_%s_%s.%s", projectID, reportType, day, ext)
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

func csvTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
