package tracking

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/workflow"
)

// ShiftDetails are the descriptive shift fields a user may edit directly.
// Workflow fields only change through transitions, approval and reset.
type ShiftDetails struct {
	Date               *string `json:"date"`
	Supervisor         *string `json:"supervisor"`
	DescriptionOfWorks *string `json:"description_of_works"`
	Notes              *string `json:"notes"`
}

func (d ShiftDetails) apply(sh *lab.Shift) {
	if d.Date != nil {
		sh.Date = strings.TrimSpace(*d.Date)
	}
	if d.Supervisor != nil {
		sh.Supervisor = strings.TrimSpace(*d.Supervisor)
	}
	if d.DescriptionOfWorks != nil {
		sh.DescriptionOfWorks = *d.DescriptionOfWorks
	}
	if d.Notes != nil {
		sh.Notes = *d.Notes
	}
}

// CreateShift starts a new ongoing shift under an existing job.
func (s *Service) CreateShift(ctx context.Context, jobID string, details ShiftDetails) (*lab.Shift, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	sh := lab.Shift{JobID: jobID, Status: string(workflow.Ongoing)}
	details.apply(&sh)
	if err := s.store.CreateShift(ctx, &sh); err != nil {
		return nil, err
	}
	if _, err := s.RefreshJobStatus(ctx, jobID); err != nil {
		return nil, err
	}
	s.logger.Info("shift created", zap.String("shift_id", sh.ID), zap.String("job_id", jobID), zap.String("date", sh.Date))
	return &sh, nil
}

func (s *Service) UpdateShift(ctx context.Context, id string, details ShiftDetails) (*lab.Shift, error) {
	sh, err := s.editableShift(ctx, id)
	if err != nil {
		return nil, err
	}
	details.apply(sh)
	if err := s.store.UpdateShiftDetails(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Service) DeleteShift(ctx context.Context, id string) error {
	sh, err := s.editableShift(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteShift(ctx, id); err != nil {
		return err
	}
	_, err = s.RefreshJobStatus(ctx, sh.JobID)
	return err
}

// TransitionShift moves a shift to the next lifecycle stage. actor is the
// person submitting samples or signing off analysis, where the stage needs one.
func (s *Service) TransitionShift(ctx context.Context, id string, to workflow.Status, actor string) (*lab.Shift, error) {
	sh, err := s.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	samples, err := s.store.ListSamplesByShift(ctx, id)
	if err != nil {
		return nil, err
	}
	from := sh.Status
	if err := workflow.Transition(sh, samples, to, actor, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateShift(ctx, sh, from); err != nil {
		return nil, err
	}
	if _, err := s.RefreshJobStatus(ctx, sh.JobID); err != nil {
		return nil, err
	}
	s.logger.Info("shift transitioned",
		zap.String("shift_id", id),
		zap.String("from", from),
		zap.String("to", string(to)),
		zap.String("actor", actor),
	)
	return sh, nil
}

// ApproveShift signs off the report, locking the shift.
func (s *Service) ApproveShift(ctx context.Context, id, approver string) (*lab.Shift, error) {
	sh, err := s.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	from := sh.Status
	if err := workflow.Approve(sh, approver, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateShift(ctx, sh, from); err != nil {
		return nil, err
	}
	if _, err := s.RefreshJobStatus(ctx, sh.JobID); err != nil {
		return nil, err
	}
	s.logger.Info("shift report approved", zap.String("shift_id", id), zap.String("approver", sh.ReportApprovedBy))
	return sh, nil
}

// ResetShift reopens a shift, including an approved one.
func (s *Service) ResetShift(ctx context.Context, id string) (*lab.Shift, error) {
	sh, err := s.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	wasApproved := sh.Approved()
	workflow.Reset(sh)
	if err := s.store.ReopenShift(ctx, sh); err != nil {
		return nil, err
	}
	if _, err := s.RefreshJobStatus(ctx, sh.JobID); err != nil {
		return nil, err
	}
	s.logger.Warn("shift reset", zap.String("shift_id", id), zap.Bool("was_approved", wasApproved))
	return sh, nil
}

// ShiftView is a shift with its display label and control state.
type ShiftView struct {
	Shift   lab.Shift        `json:"shift"`
	Display workflow.Label   `json:"display"`
	Actions workflow.Actions `json:"actions"`
}

func (s *Service) ShiftView(ctx context.Context, id string) (*ShiftView, error) {
	sh, err := s.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	samples, err := s.store.ListSamplesByShift(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ShiftView{
		Shift:   *sh,
		Display: workflow.DisplayStatus(*sh),
		Actions: workflow.AvailableActions(*sh, samples),
	}, nil
}

// RefreshJobStatus recomputes and stores the job status from its shifts.
func (s *Service) RefreshJobStatus(ctx context.Context, jobID string) (string, error) {
	shifts, err := s.store.ListShifts(ctx, jobID, 0)
	if err != nil {
		return "", err
	}
	status := workflow.JobStatus(shifts)
	if err := s.store.SetJobStatus(ctx, jobID, status); err != nil {
		return "", fmt.Errorf("set job status: %w", err)
	}
	return status, nil
}
