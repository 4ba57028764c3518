package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go-lab-sample-tracker/internal/lab"
)

const jobColumns = `id, project_id, kind, name, asbestos_removalist, status, sample_allowance, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (lab.Job, error) {
	var (
		j                    lab.Job
		kind                 string
		createdAt, updatedAt sql.NullTime
	)
	if err := row.Scan(&j.ID, &j.ProjectID, &kind, &j.Name, &j.AsbestosRemovalist, &j.Status, &j.SampleAllowance, &createdAt, &updatedAt); err != nil {
		return j, err
	}
	j.Kind = lab.JobKind(kind)
	j.CreatedAt = timePtr(createdAt)
	j.UpdatedAt = timePtr(updatedAt)
	return j, nil
}

// ListJobs returns jobs, optionally restricted to one project.
func (s *Store) ListJobs(ctx context.Context, projectID string, limit int) ([]lab.Job, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if projectID = strings.TrimSpace(projectID); projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, clampLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lab.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) GetJob(ctx context.Context, id string) (*lab.Job, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	j, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if err != nil {
		return nil, classify(err)
	}
	return &j, nil
}

func validateJob(j *lab.Job) error {
	if strings.TrimSpace(j.ProjectID) == "" {
		return lab.Invalid("project_id is required")
	}
	if !j.Kind.Valid() {
		return lab.Invalid("unknown job kind %q", j.Kind)
	}
	if j.SampleAllowance < 0 {
		return lab.Invalid("sample_allowance cannot be negative")
	}
	if j.Status == "" {
		j.Status = "in_progress"
	}
	return nil
}

func (s *Store) CreateJob(ctx context.Context, j *lab.Job) error {
	if err := validateJob(j); err != nil {
		return err
	}
	s.ensureID(&j.ID)
	ts := now()
	j.CreatedAt, j.UpdatedAt = &ts, &ts

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO jobs (id, project_id, kind, name, asbestos_removalist, status, sample_allowance, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.ProjectID, string(j.Kind), j.Name, j.AsbestosRemovalist, j.Status, j.SampleAllowance, ts, ts)
	return classify(err)
}

// UpdateJob loads job id inside a transaction, lets edit change it given the
// number of samples already allocated on the job, and writes the result. The
// job row is locked on MySQL so allocation cannot interleave. Status is not
// written; it is derived from the job's shifts.
func (s *Store) UpdateJob(ctx context.Context, id string, edit func(j *lab.Job, used int) error) (*lab.Job, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`
	if s.dialect == MySQL {
		query += ` FOR UPDATE`
	}
	j, err := scanJob(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify(err)
	}
	used, err := countJobSamples(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	status := j.Status
	if err := edit(&j, used); err != nil {
		return nil, err
	}
	j.ID, j.Status = id, status
	if err := validateJob(&j); err != nil {
		return nil, err
	}
	ts := now()
	j.UpdatedAt = &ts
	if _, err := tx.ExecContext(ctx, `
UPDATE jobs SET kind = ?, name = ?, asbestos_removalist = ?, sample_allowance = ?, updated_at = ?
WHERE id = ?`, string(j.Kind), j.Name, j.AsbestosRemovalist, j.SampleAllowance, ts, id); err != nil {
		return nil, classify(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &j, nil
}

// SetJobStatus stores a rolled-up job status.
func (s *Store) SetJobStatus(ctx context.Context, id, status string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`, status, now(), id)
	if err != nil {
		return classify(err)
	}
	return affectedOrNotFound(res)
}

// DeleteJob removes a job with its shifts and samples. A job holding an
// approved shift is refused with lab.ErrLocked.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `
DELETE FROM jobs WHERE id = ?
  AND NOT EXISTS (SELECT 1 FROM shifts WHERE shifts.job_id = jobs.id AND shifts.report_approved_by <> '')`, id)
	if err != nil {
		return classify(err)
	}
	return touched(res, func() error {
		return s.missingOrLocked(ctx, `SELECT COUNT(*) FROM jobs WHERE id = ?`,
			`SELECT COUNT(*) FROM shifts WHERE job_id = ? AND report_approved_by <> ''`, id)
	})
}

// missingOrLocked explains a guarded delete that touched no rows: the record
// is gone, or one of its shifts is approved.
func (s *Store) missingOrLocked(ctx context.Context, existsQuery, approvedQuery, id string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, existsQuery, id).Scan(&n); err != nil {
		return classify(err)
	}
	if n == 0 {
		return lab.ErrNotFound
	}
	if err := s.db.QueryRowContext(ctx, approvedQuery, id).Scan(&n); err != nil {
		return classify(err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %d approved shift(s)", lab.ErrLocked, n)
	}
	return lab.ErrNotFound
}
