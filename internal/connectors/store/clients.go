package store

import (
	"context"
	"database/sql"
	"strings"

	"go-lab-sample-tracker/internal/lab"
)

const clientColumns = `id, name, contact_name, contact_email, address, created_at`

func scanClient(row interface{ Scan(...any) error }) (lab.Client, error) {
	var (
		c         lab.Client
		createdAt sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Name, &c.ContactName, &c.ContactEmail, &c.Address, &createdAt); err != nil {
		return c, err
	}
	c.CreatedAt = timePtr(createdAt)
	return c, nil
}

func (s *Store) ListClients(ctx context.Context, limit int) ([]lab.Client, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lab.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetClient(ctx context.Context, id string) (*lab.Client, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	c, err := scanClient(s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *lab.Client) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return lab.Invalid("client name is required")
	}
	s.ensureID(&c.ID)
	created := now()
	c.CreatedAt = &created

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO clients (id, name, contact_name, contact_email, address, created_at)
VALUES (?, ?, ?, ?, ?, ?)`, c.ID, c.Name, c.ContactName, c.ContactEmail, c.Address, created)
	return classify(err)
}

func (s *Store) UpdateClient(ctx context.Context, c *lab.Client) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return lab.Invalid("client name is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `
UPDATE clients SET name = ?, contact_name = ?, contact_email = ?, address = ?
WHERE id = ?`, c.Name, c.ContactName, c.ContactEmail, c.Address, c.ID)
	if err != nil {
		return classify(err)
	}
	return affectedOrNotFound(res)
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	return affectedOrNotFound(res)
}
