package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go-lab-sample-tracker/internal/lab"
)

const shiftColumns = `id, job_id, shift_date, status, supervisor, description_of_works, notes,
  submitted_by, samples_received_date, analysed_by, analysis_date,
  report_approved_by, report_issue_date, created_at, updated_at`

func scanShift(row interface{ Scan(...any) error }) (lab.Shift, error) {
	var (
		sh                         lab.Shift
		received, analysed, issued sql.NullTime
		createdAt, updatedAt       sql.NullTime
	)
	if err := row.Scan(&sh.ID, &sh.JobID, &sh.Date, &sh.Status, &sh.Supervisor, &sh.DescriptionOfWorks, &sh.Notes,
		&sh.SubmittedBy, &received, &sh.AnalysedBy, &analysed,
		&sh.ReportApprovedBy, &issued, &createdAt, &updatedAt); err != nil {
		return sh, err
	}
	sh.SamplesReceivedDate = timePtr(received)
	sh.AnalysisDate = timePtr(analysed)
	sh.ReportIssueDate = timePtr(issued)
	sh.CreatedAt = timePtr(createdAt)
	sh.UpdatedAt = timePtr(updatedAt)
	return sh, nil
}

// ListShifts returns shifts, optionally restricted to one job, newest first.
func (s *Store) ListShifts(ctx context.Context, jobID string, limit int) ([]lab.Shift, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + shiftColumns + ` FROM shifts`
	args := []any{}
	if jobID = strings.TrimSpace(jobID); jobID != "" {
		query += ` WHERE job_id = ?`
		args = append(args, jobID)
	}
	query += ` ORDER BY shift_date DESC, created_at DESC LIMIT ?`
	args = append(args, clampLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lab.Shift, 0)
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *Store) GetShift(ctx context.Context, id string) (*lab.Shift, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sh, err := scanShift(s.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id))
	if err != nil {
		return nil, classify(err)
	}
	return &sh, nil
}

func validateShift(sh *lab.Shift) error {
	if strings.TrimSpace(sh.JobID) == "" {
		return lab.Invalid("job_id is required")
	}
	sh.Date = strings.TrimSpace(sh.Date)
	if _, err := time.Parse("2006-01-02", sh.Date); err != nil {
		return lab.Invalid("invalid date, expected YYYY-MM-DD")
	}
	return nil
}

func (s *Store) CreateShift(ctx context.Context, sh *lab.Shift) error {
	if err := validateShift(sh); err != nil {
		return err
	}
	if sh.Status == "" {
		sh.Status = "ongoing"
	}
	s.ensureID(&sh.ID)
	ts := now()
	sh.CreatedAt, sh.UpdatedAt = &ts, &ts

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO shifts (id, job_id, shift_date, status, supervisor, description_of_works, notes,
  submitted_by, samples_received_date, analysed_by, analysis_date,
  report_approved_by, report_issue_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.ID, sh.JobID, sh.Date, sh.Status, sh.Supervisor, sh.DescriptionOfWorks, sh.Notes,
		sh.SubmittedBy, nullTime(sh.SamplesReceivedDate), sh.AnalysedBy, nullTime(sh.AnalysisDate),
		sh.ReportApprovedBy, nullTime(sh.ReportIssueDate), ts, ts)
	return classify(err)
}

// UpdateShiftDetails writes the descriptive columns of sh. Workflow columns
// are left untouched, and an approved shift is refused with lab.ErrLocked.
func (s *Store) UpdateShiftDetails(ctx context.Context, sh *lab.Shift) error {
	if err := validateShift(sh); err != nil {
		return err
	}
	ts := now()
	sh.UpdatedAt = &ts

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `
UPDATE shifts SET shift_date = ?, supervisor = ?, description_of_works = ?, notes = ?, updated_at = ?
WHERE id = ? AND report_approved_by = ''`,
		sh.Date, sh.Supervisor, sh.DescriptionOfWorks, sh.Notes, ts, sh.ID)
	if err != nil {
		return classify(err)
	}
	return touched(res, func() error { return s.shiftMissingOrLocked(ctx, sh.ID, "") })
}

// UpdateShift writes the workflow state of sh. The write only applies while
// the stored shift is unapproved and still at fromStatus; otherwise it fails
// with lab.ErrLocked or lab.ErrConflict.
func (s *Store) UpdateShift(ctx context.Context, sh *lab.Shift, fromStatus string) error {
	if err := validateShift(sh); err != nil {
		return err
	}
	ts := now()
	sh.UpdatedAt = &ts

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `
UPDATE shifts SET status = ?, submitted_by = ?, samples_received_date = ?, analysed_by = ?, analysis_date = ?,
  report_approved_by = ?, report_issue_date = ?, updated_at = ?
WHERE id = ? AND report_approved_by = '' AND status = ?`,
		sh.Status, sh.SubmittedBy, nullTime(sh.SamplesReceivedDate), sh.AnalysedBy, nullTime(sh.AnalysisDate),
		sh.ReportApprovedBy, nullTime(sh.ReportIssueDate), ts, sh.ID, fromStatus)
	if err != nil {
		return classify(err)
	}
	return touched(res, func() error { return s.shiftMissingOrLocked(ctx, sh.ID, fromStatus) })
}

// ReopenShift writes the workflow state of sh without the approval guard.
// It is only used to reset a shift.
func (s *Store) ReopenShift(ctx context.Context, sh *lab.Shift) error {
	ts := now()
	sh.UpdatedAt = &ts

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `
UPDATE shifts SET status = ?, submitted_by = ?, samples_received_date = ?, analysed_by = ?, analysis_date = ?,
  report_approved_by = ?, report_issue_date = ?, updated_at = ?
WHERE id = ?`,
		sh.Status, sh.SubmittedBy, nullTime(sh.SamplesReceivedDate), sh.AnalysedBy, nullTime(sh.AnalysisDate),
		sh.ReportApprovedBy, nullTime(sh.ReportIssueDate), ts, sh.ID)
	if err != nil {
		return classify(err)
	}
	return affectedOrNotFound(res)
}

// DeleteShift removes an unapproved shift with its samples and markers.
func (s *Store) DeleteShift(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = ? AND report_approved_by = ''`, id)
	if err != nil {
		return classify(err)
	}
	return touched(res, func() error { return s.shiftMissingOrLocked(ctx, id, "") })
}

// shiftMissingOrLocked explains a shifts statement that touched no rows. A
// non-empty fromStatus that no longer matches is reported as a conflict.
func (s *Store) shiftMissingOrLocked(ctx context.Context, id, fromStatus string) error {
	var status, approvedBy string
	err := s.db.QueryRowContext(ctx, `SELECT status, report_approved_by FROM shifts WHERE id = ?`, id).Scan(&status, &approvedBy)
	if err != nil {
		return classify(err)
	}
	if approvedBy != "" {
		return lab.ErrLocked
	}
	if fromStatus != "" && status != fromStatus {
		return fmt.Errorf("%w: shift moved from %s to %s", lab.ErrConflict, fromStatus, status)
	}
	return lab.ErrNotFound
}
