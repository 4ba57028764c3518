package store

import (
	"context"
	"time"
)

// ServiceStats contains lightweight DB health and volume counters.
type ServiceStats struct {
	Driver         string `json:"driver"`
	PingMS         int64  `json:"ping_ms"`
	ProjectsTotal  int64  `json:"projects_total"`
	JobsTotal      int64  `json:"jobs_total"`
	ShiftsOngoing  int64  `json:"shifts_ongoing"`
	ShiftsAwaiting int64  `json:"shifts_awaiting_lab"`
	SamplesTotal   int64  `json:"samples_total"`
	SamplesFailed  int64  `json:"samples_failed"`
}

// ServiceStats returns DB health and high-level project/sample counters.
func (s *Store) ServiceStats(ctx context.Context) (*ServiceStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return nil, err
	}

	out := &ServiceStats{
		Driver: string(s.dialect),
		PingMS: time.Since(start).Milliseconds(),
	}

	counters := []struct {
		dst   *int64
		query string
	}{
		{&out.ProjectsTotal, `SELECT COUNT(*) FROM projects`},
		{&out.JobsTotal, `SELECT COUNT(*) FROM jobs`},
		{&out.ShiftsOngoing, `SELECT COUNT(*) FROM shifts WHERE status = 'ongoing'`},
		{&out.ShiftsAwaiting, `SELECT COUNT(*) FROM shifts WHERE status = 'samples_submitted_to_lab'`},
		{&out.SamplesTotal, `SELECT COUNT(*) FROM samples`},
		{&out.SamplesFailed, `SELECT COUNT(*) FROM samples WHERE status = 'failed'`},
	}
	for _, c := range counters {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, err
		}
	}
	return out, nil
}
