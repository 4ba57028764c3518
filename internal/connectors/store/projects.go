package store

import (
	"context"
	"database/sql"
	"strings"

	"go-lab-sample-tracker/internal/lab"
)

const projectColumns = `id, project_id, client_id, name, address, status, created_at`

func scanProject(row interface{ Scan(...any) error }) (lab.Project, error) {
	var (
		p         lab.Project
		clientID  sql.NullString
		createdAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.ProjectID, &clientID, &p.Name, &p.Address, &p.Status, &createdAt); err != nil {
		return p, err
	}
	p.ClientID = clientID.String
	p.CreatedAt = timePtr(createdAt)
	return p, nil
}

// ListProjects returns projects, optionally restricted to one client.
func (s *Store) ListProjects(ctx context.Context, clientID string, limit int) ([]lab.Project, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + projectColumns + ` FROM projects`
	args := []any{}
	if clientID = strings.TrimSpace(clientID); clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY project_id DESC LIMIT ?`
	args = append(args, clampLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lab.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id string) (*lab.Project, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

func validateProject(p *lab.Project) error {
	p.ProjectID = strings.ToUpper(strings.TrimSpace(p.ProjectID))
	if p.ProjectID == "" {
		return lab.Invalid("project_id is required")
	}
	if p.Status == "" {
		p.Status = "active"
	}
	return nil
}

func (s *Store) CreateProject(ctx context.Context, p *lab.Project) error {
	if err := validateProject(p); err != nil {
		return err
	}
	s.ensureID(&p.ID)
	created := now()
	p.CreatedAt = &created

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO projects (id, project_id, client_id, name, address, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`, p.ID, p.ProjectID, nullString(p.ClientID), p.Name, p.Address, p.Status, created)
	return classify(err)
}

func (s *Store) UpdateProject(ctx context.Context, p *lab.Project) error {
	if err := validateProject(p); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `
UPDATE projects SET project_id = ?, client_id = ?, name = ?, address = ?, status = ?
WHERE id = ?`, p.ProjectID, nullString(p.ClientID), p.Name, p.Address, p.Status, p.ID)
	if err != nil {
		return classify(err)
	}
	return affectedOrNotFound(res)
}

// DeleteProject removes a project with its jobs, shifts and samples. A
// project holding an approved shift is refused with lab.ErrLocked.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `
DELETE FROM projects WHERE id = ?
  AND NOT EXISTS (SELECT 1 FROM shifts JOIN jobs ON jobs.id = shifts.job_id
    WHERE jobs.project_id = projects.id AND shifts.report_approved_by <> '')`, id)
	if err != nil {
		return classify(err)
	}
	return touched(res, func() error {
		return s.missingOrLocked(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, `
SELECT COUNT(*) FROM shifts JOIN jobs ON jobs.id = shifts.job_id
WHERE jobs.project_id = ? AND shifts.report_approved_by <> ''`, id)
	})
}
