package store

import (
	"context"
	"database/sql"

	"go-lab-sample-tracker/internal/lab"
)

func (s *Store) ListMarkers(ctx context.Context, shiftID string) ([]lab.Marker, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT id, shift_id, sample_id, kind, x, y, label, color, created_at
FROM markers
WHERE shift_id = ?
ORDER BY created_at, id`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lab.Marker, 0)
	for rows.Next() {
		var (
			m         lab.Marker
			sampleID  sql.NullString
			kind      string
			createdAt sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.ShiftID, &sampleID, &kind, &m.X, &m.Y, &m.Label, &m.Color, &createdAt); err != nil {
			return nil, err
		}
		m.SampleID = sampleID.String
		m.Kind = lab.MarkerKind(kind)
		m.CreatedAt = timePtr(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) CreateMarker(ctx context.Context, m *lab.Marker) error {
	s.ensureID(&m.ID)
	created := now()
	m.CreatedAt = &created

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO markers (id, shift_id, sample_id, kind, x, y, label, color, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ShiftID, nullString(m.SampleID), string(m.Kind), m.X, m.Y, m.Label, m.Color, created)
	return classify(err)
}

// GetMarker is used to resolve the owning shift before a delete.
func (s *Store) GetMarker(ctx context.Context, id string) (*lab.Marker, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		m        lab.Marker
		sampleID sql.NullString
		kind     string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, shift_id, sample_id, kind, x, y, label, color FROM markers WHERE id = ?`, id).
		Scan(&m.ID, &m.ShiftID, &sampleID, &kind, &m.X, &m.Y, &m.Label, &m.Color)
	if err != nil {
		return nil, classify(err)
	}
	m.SampleID = sampleID.String
	m.Kind = lab.MarkerKind(kind)
	return &m, nil
}

func (s *Store) DeleteMarker(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `DELETE FROM markers WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	return affectedOrNotFound(res)
}
