package store

import (
	"context"
	"database/sql"
	"strings"

	"go-lab-sample-tracker/internal/lab"
)

func (s *Store) ListEquipment(ctx context.Context, kind string, limit int) ([]lab.Equipment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT id, reference, kind, model, status, calibration_date, calibration_due FROM equipment`
	args := []any{}
	if kind = strings.TrimSpace(kind); kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY reference LIMIT ?`
	args = append(args, clampLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lab.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEquipment(row interface{ Scan(...any) error }) (lab.Equipment, error) {
	var (
		e        lab.Equipment
		cal, due sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.Reference, &e.Kind, &e.Model, &e.Status, &cal, &due); err != nil {
		return e, err
	}
	e.CalibrationDate = timePtr(cal)
	e.CalibrationDue = timePtr(due)
	return e, nil
}

// GetEquipmentByReference looks an item up by its asset reference, such as a pump ID.
func (s *Store) GetEquipmentByReference(ctx context.Context, reference string) (*lab.Equipment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	e, err := scanEquipment(s.db.QueryRowContext(ctx, `
SELECT id, reference, kind, model, status, calibration_date, calibration_due
FROM equipment WHERE reference = ?`, strings.TrimSpace(reference)))
	if err != nil {
		return nil, classify(err)
	}
	return &e, nil
}

func (s *Store) CreateEquipment(ctx context.Context, e *lab.Equipment) error {
	e.Reference = strings.TrimSpace(e.Reference)
	if e.Reference == "" || strings.TrimSpace(e.Kind) == "" {
		return lab.Invalid("equipment reference and kind are required")
	}
	if e.Status == "" {
		e.Status = "active"
	}
	s.ensureID(&e.ID)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO equipment (id, reference, kind, model, status, calibration_date, calibration_due)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Reference, e.Kind, e.Model, e.Status, nullTime(e.CalibrationDate), nullTime(e.CalibrationDue))
	return classify(err)
}

func (s *Store) ListUsers(ctx context.Context, limit int) ([]lab.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, role, licence FROM users ORDER BY name LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lab.User, 0)
	for rows.Next() {
		var u lab.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Licence); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, u *lab.User) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Name == "" || u.Email == "" {
		return lab.Invalid("user name and email are required")
	}
	switch u.Role {
	case "":
		u.Role = "technician"
	case "admin", "analyst", "technician":
	default:
		return lab.Invalid("unknown role %q", u.Role)
	}
	s.ensureID(&u.ID)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, name, email, role, licence) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Role, u.Licence)
	return classify(err)
}
