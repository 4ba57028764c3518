package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/sampling"
)

const sampleColumns = `id, shift_id, job_id, project_ref, full_sample_id, prefix, sample_number, sample_type,
  location, description, is_field_blank, pump_id, cowl, filter_size, start_time, end_time,
  initial_flowrate, final_flowrate, average_flowrate, status, notes, analysis_json, created_at`

func scanSample(row interface{ Scan(...any) error }) (lab.Sample, error) {
	var (
		sm                      lab.Sample
		sampleType, status      string
		start, end, createdAt   sql.NullTime
		initial, final, average sql.NullFloat64
		analysis                sql.NullString
	)
	if err := row.Scan(&sm.ID, &sm.ShiftID, &sm.JobID, &sm.ProjectID, &sm.FullSampleID, &sm.Prefix, &sm.SampleNumber, &sampleType,
		&sm.Location, &sm.Description, &sm.IsFieldBlank, &sm.PumpID, &sm.Cowl, &sm.FilterSize, &start, &end,
		&initial, &final, &average, &status, &sm.Notes, &analysis, &createdAt); err != nil {
		return sm, err
	}
	sm.Type = lab.SampleType(sampleType)
	sm.Status = lab.SampleStatus(status)
	sm.StartTime = timePtr(start)
	sm.EndTime = timePtr(end)
	sm.InitialFlowrate = floatPtr(initial)
	sm.FinalFlowrate = floatPtr(final)
	sm.AverageFlowrate = floatPtr(average)
	sm.CreatedAt = timePtr(createdAt)
	if analysis.Valid && strings.TrimSpace(analysis.String) != "" {
		var a lab.SampleAnalysis
		if err := json.Unmarshal([]byte(analysis.String), &a); err != nil {
			return sm, fmt.Errorf("decode analysis for sample %s: %w", sm.ID, err)
		}
		sm.Analysis = &a
	}
	return sm, nil
}

func encodeAnalysis(a *lab.SampleAnalysis) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

// ListSamplesByShift returns the samples of a shift in sample-number order.
func (s *Store) ListSamplesByShift(ctx context.Context, shiftID string) ([]lab.Sample, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT `+sampleColumns+` FROM samples WHERE shift_id = ? ORDER BY prefix, sample_number`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lab.Sample, 0)
	for rows.Next() {
		sm, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *Store) GetSample(ctx context.Context, id string) (*lab.Sample, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sm, err := scanSample(s.db.QueryRowContext(ctx, `SELECT `+sampleColumns+` FROM samples WHERE id = ?`, id))
	if err != nil {
		return nil, classify(err)
	}
	return &sm, nil
}

// ProjectSampleIDs lists every full sample ID issued on a project.
func (s *Store) ProjectSampleIDs(ctx context.Context, projectRef string) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return querySampleIDs(ctx, s.db, `SELECT full_sample_id FROM samples WHERE project_ref = ?`, projectRef)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func querySampleIDs(ctx context.Context, q queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Allocation describes where a new sample number is drawn from.
type Allocation struct {
	ProjectCode string
	Retries     int
}

// AllocateSample inserts sm under the next free sample number of its project
// and prefix. The number is chosen inside a transaction; the unique key on
// (project_ref, prefix, sample_number) rejects a concurrent duplicate, in
// which case allocation is retried. A caller-chosen SampleNumber is not retried.
// The job's sample allowance is read from the job row inside the same
// transaction; on MySQL that row is locked so concurrent allocations for one
// job count samples one at a time.
func (s *Store) AllocateSample(ctx context.Context, sm *lab.Sample, alloc Allocation) error {
	if strings.TrimSpace(sm.ProjectID) == "" || strings.TrimSpace(sm.ShiftID) == "" {
		return lab.Invalid("sample requires project and shift")
	}
	sm.Prefix = strings.ToUpper(strings.TrimSpace(sm.Prefix))
	if sm.Prefix == "" {
		return lab.Invalid("sample prefix is required")
	}
	manual := sm.SampleNumber > 0
	attempts := alloc.Retries + 1
	if attempts < 1 || manual {
		attempts = 1
	}

	s.ensureID(&sm.ID)

	var err error
	for i := 0; i < attempts; i++ {
		err = s.allocateOnce(ctx, sm, alloc, manual)
		if err == nil || !errors.Is(err, lab.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Store) allocateOnce(ctx context.Context, sm *lab.Sample, alloc Allocation, manual bool) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	allowance, err := s.lockJobAllowance(ctx, tx, sm.JobID)
	if err != nil {
		return err
	}
	if allowance > 0 {
		used, err := countJobSamples(ctx, tx, sm.JobID)
		if err != nil {
			return err
		}
		if used >= allowance {
			return fmt.Errorf("%w: %d of %d used", lab.ErrAllowanceExceeded, used, allowance)
		}
	}

	if !manual {
		query := `SELECT full_sample_id FROM samples WHERE project_ref = ? AND prefix = ?`
		if s.dialect == MySQL {
			query += ` FOR UPDATE`
		}
		ids, err := querySampleIDs(ctx, tx, query, sm.ProjectID, sm.Prefix)
		if err != nil {
			return err
		}
		sm.SampleNumber = sampling.NextSampleNumber(sm.Prefix, ids)
	}
	sm.FullSampleID = sampling.FormatSampleID(alloc.ProjectCode, sm.Prefix, sm.SampleNumber)
	created := now()
	sm.CreatedAt = &created

	analysis, err := encodeAnalysis(sm.Analysis)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO samples (id, shift_id, job_id, project_ref, full_sample_id, prefix, sample_number, sample_type,
  location, description, is_field_blank, pump_id, cowl, filter_size, start_time, end_time,
  initial_flowrate, final_flowrate, average_flowrate, status, notes, analysis_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sm.ID, sm.ShiftID, sm.JobID, sm.ProjectID, sm.FullSampleID, sm.Prefix, sm.SampleNumber, string(sm.Type),
		sm.Location, sm.Description, sm.IsFieldBlank, sm.PumpID, sm.Cowl, sm.FilterSize, nullTime(sm.StartTime), nullTime(sm.EndTime),
		nullFloat(sm.InitialFlowrate), nullFloat(sm.FinalFlowrate), nullFloat(sm.AverageFlowrate), string(sm.Status), sm.Notes, analysis, created); err != nil {
		return classify(err)
	}
	return tx.Commit()
}

// lockJobAllowance reads the sample allowance of a job inside tx, taking a
// row lock on MySQL.
func (s *Store) lockJobAllowance(ctx context.Context, tx *sql.Tx, jobID string) (int, error) {
	query := `SELECT sample_allowance FROM jobs WHERE id = ?`
	if s.dialect == MySQL {
		query += ` FOR UPDATE`
	}
	var allowance int
	if err := tx.QueryRowContext(ctx, query, jobID).Scan(&allowance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, lab.Invalid("job %s does not exist", jobID)
		}
		return 0, classify(err)
	}
	return allowance, nil
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countJobSamples(ctx context.Context, q rowQueryer, jobID string) (int, error) {
	var used int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples WHERE job_id = ?`, jobID).Scan(&used); err != nil {
		return 0, classify(err)
	}
	return used, nil
}

// CountJobSamples returns how many sample numbers a job has used.
func (s *Store) CountJobSamples(ctx context.Context, jobID string) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return countJobSamples(ctx, s.db, jobID)
}

// shiftUnlocked restricts a samples statement to rows whose shift report has
// not been approved.
const shiftUnlocked = ` AND NOT EXISTS (SELECT 1 FROM shifts WHERE shifts.id = samples.shift_id AND shifts.report_approved_by <> '')`

// sampleMissingOrLocked explains a samples statement that touched no rows.
func (s *Store) sampleMissingOrLocked(ctx context.Context, id string) error {
	var approvedBy string
	err := s.db.QueryRowContext(ctx, `
SELECT shifts.report_approved_by FROM samples JOIN shifts ON shifts.id = samples.shift_id
WHERE samples.id = ?`, id).Scan(&approvedBy)
	if err != nil {
		return classify(err)
	}
	if approvedBy != "" {
		return lab.ErrLocked
	}
	return lab.ErrNotFound
}

// UpdateSample writes field and analysis data. Numbering columns are fixed
// once allocated. Samples on an approved shift are refused with lab.ErrLocked.
func (s *Store) UpdateSample(ctx context.Context, sm *lab.Sample) error {
	analysis, err := encodeAnalysis(sm.Analysis)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `
UPDATE samples SET location = ?, description = ?, is_field_blank = ?, pump_id = ?, cowl = ?, filter_size = ?,
  start_time = ?, end_time = ?, initial_flowrate = ?, final_flowrate = ?, average_flowrate = ?,
  status = ?, notes = ?, analysis_json = ?
WHERE id = ?`+shiftUnlocked,
		sm.Location, sm.Description, sm.IsFieldBlank, sm.PumpID, sm.Cowl, sm.FilterSize,
		nullTime(sm.StartTime), nullTime(sm.EndTime), nullFloat(sm.InitialFlowrate), nullFloat(sm.FinalFlowrate), nullFloat(sm.AverageFlowrate),
		string(sm.Status), sm.Notes, analysis, sm.ID)
	if err != nil {
		return classify(err)
	}
	return touched(res, func() error { return s.sampleMissingOrLocked(ctx, sm.ID) })
}

func (s *Store) DeleteSample(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `DELETE FROM samples WHERE id = ?`+shiftUnlocked, id)
	if err != nil {
		return classify(err)
	}
	return touched(res, func() error { return s.sampleMissingOrLocked(ctx, id) })
}
