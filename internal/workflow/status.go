// Package workflow is the single authority for shift status transitions.
package workflow

import (
	"strings"

	"go-lab-sample-tracker/internal/lab"
)

// Status is a stage in the shift lifecycle.
type Status string

const (
	Ongoing          Status = "ongoing"
	SamplingComplete Status = "sampling_complete"
	SamplesSubmitted Status = "samples_submitted_to_lab"
	AnalysisComplete Status = "analysis_complete"
	ShiftComplete    Status = "shift_complete"
)

var lifecycle = []Status{Ongoing, SamplingComplete, SamplesSubmitted, AnalysisComplete, ShiftComplete}

// ParseStatus accepts a stored or submitted status value. The empty string is
// treated as ongoing because shifts are created without one.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return Ongoing, nil
	}
	if !s.Valid() {
		return "", lab.Invalid("unknown shift status %q", raw)
	}
	return s, nil
}

func (s Status) Valid() bool {
	return s.index() >= 0
}

func (s Status) index() int {
	for i, st := range lifecycle {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following lifecycle stage.
func (s Status) Next() (Status, bool) {
	i := s.index()
	if i < 0 || i == len(lifecycle)-1 {
		return "", false
	}
	return lifecycle[i+1], true
}

// AtLeast reports whether s is at or beyond other in the lifecycle.
func (s Status) AtLeast(other Status) bool {
	return s.index() >= other.index()
}

// Label is the presentation of a shift status.
type Label struct {
	Status Status `json:"status"`
	Text   string `json:"text"`
	Color  string `json:"color"`
}

var labels = map[Status]Label{
	Ongoing:          {Status: Ongoing, Text: "Ongoing", Color: "orange"},
	SamplingComplete: {Status: SamplingComplete, Text: "Sampling Complete", Color: "blue"},
	SamplesSubmitted: {Status: SamplesSubmitted, Text: "Samples Submitted to Lab", Color: "purple"},
	AnalysisComplete: {Status: AnalysisComplete, Text: "Analysis Complete", Color: "teal"},
	ShiftComplete:    {Status: ShiftComplete, Text: "Shift Complete", Color: "green"},
}

// DisplayStatus returns the label shown for a shift. An approved report
// overrides whatever status is stored.
func DisplayStatus(sh lab.Shift) Label {
	if sh.Approved() {
		return Label{Status: ShiftComplete, Text: "Shift Complete", Color: "red"}
	}
	st, err := ParseStatus(sh.Status)
	if err != nil {
		return Label{Status: Status(sh.Status), Text: sh.Status, Color: "grey"}
	}
	return labels[st]
}
