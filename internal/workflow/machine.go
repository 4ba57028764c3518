package workflow

import (
	"fmt"
	"strings"
	"time"

	"go-lab-sample-tracker/internal/lab"
)

// Editable reports whether a shift and its samples may still be changed.
func Editable(sh lab.Shift) bool {
	return !sh.Approved()
}

// CanAddSample reports whether new samples may be collected on sh.
func CanAddSample(sh lab.Shift) error {
	if !Editable(sh) {
		return lab.ErrLocked
	}
	st, err := ParseStatus(sh.Status)
	if err != nil {
		return err
	}
	if st != Ongoing {
		return lab.Invalid("samples can only be added while the shift is ongoing")
	}
	return nil
}

// CanTransition checks whether sh may move to the given status. Only the next
// lifecycle stage is reachable; going backwards is done with Reset.
func CanTransition(sh lab.Shift, samples []lab.Sample, to Status) error {
	if !Editable(sh) {
		return lab.ErrLocked
	}
	from, err := ParseStatus(sh.Status)
	if err != nil {
		return err
	}
	next, ok := from.Next()
	if !ok || next != to {
		return lab.Invalid("cannot move shift from %s to %s", from, to)
	}

	switch to {
	case SamplingComplete:
		if len(samples) == 0 {
			return lab.Invalid("shift has no samples")
		}
		for _, s := range samples {
			if s.IsFieldBlank {
				continue
			}
			if s.EndTime == nil || s.FinalFlowrate == nil {
				return lab.Invalid("sample %s is missing end time or final flowrate", s.FullSampleID)
			}
		}
	case AnalysisComplete:
		for _, s := range samples {
			if !s.HasAnalysis() {
				return lab.Invalid("sample %s has not been analysed", s.FullSampleID)
			}
		}
	}
	return nil
}

// Transition moves sh to the given status, stamping the fields each stage owns.
func Transition(sh *lab.Shift, samples []lab.Sample, to Status, actor string, now time.Time) error {
	if err := CanTransition(*sh, samples, to); err != nil {
		return err
	}
	actor = strings.TrimSpace(actor)

	switch to {
	case SamplesSubmitted:
		if actor == "" {
			return lab.Invalid("submitted_by is required")
		}
		sh.SubmittedBy = actor
		t := now.UTC()
		sh.SamplesReceivedDate = &t
	case AnalysisComplete:
		if actor == "" {
			return lab.Invalid("analysed_by is required")
		}
		sh.AnalysedBy = actor
		t := now.UTC()
		sh.AnalysisDate = &t
	}
	sh.Status = string(to)
	return nil
}

// Approve signs off the shift report, which locks the shift.
func Approve(sh *lab.Shift, approver string, now time.Time) error {
	if sh.Approved() {
		return fmt.Errorf("approve shift: %w", lab.ErrLocked)
	}
	approver = strings.TrimSpace(approver)
	if approver == "" {
		return lab.Invalid("approver is required")
	}
	st, err := ParseStatus(sh.Status)
	if err != nil {
		return err
	}
	if !st.AtLeast(AnalysisComplete) {
		return lab.Invalid("shift must be analysis_complete before approval, got %s", st)
	}
	t := now.UTC()
	sh.ReportApprovedBy = approver
	sh.ReportIssueDate = &t
	sh.Status = string(ShiftComplete)
	return nil
}

// Reset returns a shift to ongoing. Sample analysis data is kept; approval and
// analysis sign-off fields are cleared.
func Reset(sh *lab.Shift) {
	sh.Status = string(Ongoing)
	sh.ReportApprovedBy = ""
	sh.ReportIssueDate = nil
	sh.AnalysedBy = ""
	sh.AnalysisDate = nil
}

// Actions is the enable/disable table for shift controls.
type Actions struct {
	Edit             bool `json:"edit"`
	AddSample        bool `json:"add_sample"`
	CompleteSampling bool `json:"complete_sampling"`
	SubmitToLab      bool `json:"submit_to_lab"`
	CompleteAnalysis bool `json:"complete_analysis"`
	CompleteShift    bool `json:"complete_shift"`
	Approve          bool `json:"approve"`
	Reset            bool `json:"reset"`
	GenerateReport   bool `json:"generate_report"`
}

// AvailableActions derives the control state for a shift from its status,
// approval and samples.
func AvailableActions(sh lab.Shift, samples []lab.Sample) Actions {
	st, err := ParseStatus(sh.Status)
	if err != nil {
		return Actions{Reset: true}
	}
	if sh.Approved() {
		return Actions{Reset: true, GenerateReport: true}
	}
	return Actions{
		Edit:             true,
		AddSample:        CanAddSample(sh) == nil,
		CompleteSampling: CanTransition(sh, samples, SamplingComplete) == nil,
		SubmitToLab:      CanTransition(sh, samples, SamplesSubmitted) == nil,
		CompleteAnalysis: CanTransition(sh, samples, AnalysisComplete) == nil,
		CompleteShift:    CanTransition(sh, samples, ShiftComplete) == nil,
		Approve:          st.AtLeast(AnalysisComplete),
		Reset:            st != Ongoing,
		GenerateReport:   st.AtLeast(AnalysisComplete),
	}
}

// JobStatus rolls shift statuses up to the owning job.
func JobStatus(shifts []lab.Shift) string {
	if len(shifts) == 0 {
		return "in_progress"
	}
	for _, sh := range shifts {
		if sh.Status != string(ShiftComplete) {
			return "in_progress"
		}
	}
	return "complete"
}
