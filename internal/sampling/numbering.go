// Package sampling holds the field rules for samples: number allocation,
// flowrate checks and fibre concentration.
package sampling

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go-lab-sample-tracker/internal/lab"
)

// DefaultPrefixes maps a job kind to the sample ID prefix used on site.
var DefaultPrefixes = map[lab.JobKind]string{
	lab.JobAirMonitoring:      "AM",
	lab.JobLeadMonitoring:     "LP",
	lab.JobAsbestosAssessment: "AA",
	lab.JobFibreID:            "FI",
}

// PrefixFor returns the sample prefix for kind, preferring overrides.
func PrefixFor(kind lab.JobKind, overrides map[string]string) string {
	if p := strings.TrimSpace(overrides[string(kind)]); p != "" {
		return strings.ToUpper(p)
	}
	if p, ok := DefaultPrefixes[kind]; ok {
		return p
	}
	return "S"
}

func suffixPattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(strings.TrimSpace(prefix)) + `(\d+)$`)
}

// NextSampleNumber scans ids for a trailing <prefix><digits> suffix and
// returns one more than the largest number found, or 1 when none match.
func NextSampleNumber(prefix string, ids []string) int {
	re := suffixPattern(prefix)
	highest := 0
	for _, id := range ids {
		m := re.FindStringSubmatch(strings.TrimSpace(id))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}

// FormatSampleID builds the full sample ID printed on labels and reports.
func FormatSampleID(projectID, prefix string, n int) string {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return fmt.Sprintf("%s%d", prefix, n)
	}
	return fmt.Sprintf("%s-%s%d", projectID, prefix, n)
}
