package tracking

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/workflow"
)

// JobDetails are the job fields a user may edit. Status is derived from the
// job's shifts and is never taken from input.
type JobDetails struct {
	Name               *string      `json:"name"`
	AsbestosRemovalist *string      `json:"asbestos_removalist"`
	SampleAllowance    *int         `json:"sample_allowance"`
	Kind               *lab.JobKind `json:"kind"`
}

// CreateJob stores a new job under a project with the derived initial status.
func (s *Service) CreateJob(ctx context.Context, j lab.Job) (*lab.Job, error) {
	j.ID = ""
	j.Status = workflow.JobStatus(nil)
	j.Name = strings.TrimSpace(j.Name)
	if err := s.store.CreateJob(ctx, &j); err != nil {
		return nil, err
	}
	s.logger.Info("job created", zap.String("job_id", j.ID), zap.String("kind", string(j.Kind)))
	return &j, nil
}

// UpdateJob applies details to a job. The allowance may not drop below the
// sample numbers already used, and the kind is fixed once samples exist.
func (s *Service) UpdateJob(ctx context.Context, id string, details JobDetails) (*lab.Job, error) {
	j, err := s.store.UpdateJob(ctx, id, func(j *lab.Job, used int) error {
		if details.Name != nil {
			j.Name = strings.TrimSpace(*details.Name)
		}
		if details.AsbestosRemovalist != nil {
			j.AsbestosRemovalist = strings.TrimSpace(*details.AsbestosRemovalist)
		}
		if details.SampleAllowance != nil {
			allowance := *details.SampleAllowance
			if allowance > 0 && allowance < used {
				return lab.Invalid("sample_allowance %d is below the %d samples already allocated", allowance, used)
			}
			j.SampleAllowance = allowance
		}
		if details.Kind != nil && *details.Kind != j.Kind {
			if used > 0 {
				return lab.Invalid("job kind cannot change once samples exist")
			}
			j.Kind = *details.Kind
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("job updated", zap.String("job_id", id), zap.Int("sample_allowance", j.SampleAllowance))
	return j, nil
}

// DeleteJob removes a job and everything under it unless one of its shifts
// carries an approved report.
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	if err := s.store.DeleteJob(ctx, id); err != nil {
		return err
	}
	s.logger.Warn("job deleted", zap.String("job_id", id))
	return nil
}

// DeleteProject removes a project and everything under it unless one of its
// shifts carries an approved report.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.logger.Warn("project deleted", zap.String("project_id", id))
	return nil
}
