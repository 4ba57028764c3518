package store

import "context"

var tableStatements = []string{`
CREATE TABLE IF NOT EXISTS clients (
  id VARCHAR(36) NOT NULL PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  contact_name VARCHAR(255) NOT NULL DEFAULT '',
  contact_email VARCHAR(255) NOT NULL DEFAULT '',
  address VARCHAR(512) NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS projects (
  id VARCHAR(36) NOT NULL PRIMARY KEY,
  project_id VARCHAR(32) NOT NULL,
  client_id VARCHAR(36) NULL,
  name VARCHAR(255) NOT NULL DEFAULT '',
  address VARCHAR(512) NOT NULL DEFAULT '',
  status VARCHAR(32) NOT NULL DEFAULT 'active',
  created_at DATETIME NOT NULL,
  UNIQUE (project_id),
  FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE SET NULL
);`, `
CREATE TABLE IF NOT EXISTS jobs (
  id VARCHAR(36) NOT NULL PRIMARY KEY,
  project_id VARCHAR(36) NOT NULL,
  kind VARCHAR(32) NOT NULL,
  name VARCHAR(255) NOT NULL DEFAULT '',
  asbestos_removalist VARCHAR(255) NOT NULL DEFAULT '',
  status VARCHAR(32) NOT NULL DEFAULT 'in_progress',
  sample_allowance INT NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);`, `
CREATE TABLE IF NOT EXISTS shifts (
  id VARCHAR(36) NOT NULL PRIMARY KEY,
  job_id VARCHAR(36) NOT NULL,
  shift_date VARCHAR(10) NOT NULL,
  status VARCHAR(32) NOT NULL DEFAULT 'ongoing',
  supervisor VARCHAR(255) NOT NULL DEFAULT '',
  description_of_works TEXT NOT NULL,
  notes TEXT NOT NULL,
  submitted_by VARCHAR(255) NOT NULL DEFAULT '',
  samples_received_date DATETIME NULL,
  analysed_by VARCHAR(255) NOT NULL DEFAULT '',
  analysis_date DATETIME NULL,
  report_approved_by VARCHAR(255) NOT NULL DEFAULT '',
  report_issue_date DATETIME NULL,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
);`, `
CREATE TABLE IF NOT EXISTS samples (
  id VARCHAR(36) NOT NULL PRIMARY KEY,
  shift_id VARCHAR(36) NOT NULL,
  job_id VARCHAR(36) NOT NULL,
  project_ref VARCHAR(36) NOT NULL,
  full_sample_id VARCHAR(64) NOT NULL,
  prefix VARCHAR(8) NOT NULL,
  sample_number INT NOT NULL,
  sample_type VARCHAR(16) NOT NULL,
  location VARCHAR(512) NOT NULL DEFAULT '',
  description VARCHAR(1024) NOT NULL DEFAULT '',
  is_field_blank BOOLEAN NOT NULL DEFAULT FALSE,
  pump_id VARCHAR(64) NOT NULL DEFAULT '',
  cowl VARCHAR(64) NOT NULL DEFAULT '',
  filter_size VARCHAR(32) NOT NULL DEFAULT '',
  start_time DATETIME NULL,
  end_time DATETIME NULL,
  initial_flowrate DOUBLE NULL,
  final_flowrate DOUBLE NULL,
  average_flowrate DOUBLE NULL,
  status VARCHAR(16) NOT NULL DEFAULT 'pending',
  notes TEXT NOT NULL,
  analysis_json TEXT NULL,
  created_at DATETIME NOT NULL,
  UNIQUE (project_ref, prefix, sample_number),
  FOREIGN KEY (shift_id) REFERENCES shifts(id) ON DELETE CASCADE,
  FOREIGN KEY (project_ref) REFERENCES projects(id) ON DELETE CASCADE
);`, `
CREATE TABLE IF NOT EXISTS markers (
  id VARCHAR(36) NOT NULL PRIMARY KEY,
  shift_id VARCHAR(36) NOT NULL,
  sample_id VARCHAR(36) NULL,
  kind VARCHAR(16) NOT NULL,
  x DOUBLE NOT NULL,
  y DOUBLE NOT NULL,
  label VARCHAR(255) NOT NULL DEFAULT '',
  color VARCHAR(32) NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL,
  FOREIGN KEY (shift_id) REFERENCES shifts(id) ON DELETE CASCADE,
  FOREIGN KEY (sample_id) REFERENCES samples(id) ON DELETE SET NULL
);`, `
CREATE TABLE IF NOT EXISTS equipment (
  id VARCHAR(36) NOT NULL PRIMARY KEY,
  reference VARCHAR(64) NOT NULL,
  kind VARCHAR(32) NOT NULL,
  model VARCHAR(255) NOT NULL DEFAULT '',
  status VARCHAR(32) NOT NULL DEFAULT 'active',
  calibration_date DATETIME NULL,
  calibration_due DATETIME NULL,
  UNIQUE (reference)
);`, `
CREATE TABLE IF NOT EXISTS users (
  id VARCHAR(36) NOT NULL PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  email VARCHAR(255) NOT NULL,
  role VARCHAR(32) NOT NULL DEFAULT 'technician',
  licence VARCHAR(64) NOT NULL DEFAULT '',
  UNIQUE (email)
);`,
}

// SQLite does not index foreign key columns on its own; InnoDB does.
var sqliteIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_projects_client ON projects(client_id);`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_project ON jobs(project_id);`,
	`CREATE INDEX IF NOT EXISTS idx_shifts_job ON shifts(job_id);`,
	`CREATE INDEX IF NOT EXISTS idx_samples_shift ON samples(shift_id);`,
	`CREATE INDEX IF NOT EXISTS idx_samples_job ON samples(job_id);`,
	`CREATE INDEX IF NOT EXISTS idx_markers_shift ON markers(shift_id);`,
}

// Migrate creates missing tables and indexes. It is safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := append([]string{}, tableStatements...)
	if s.dialect == SQLite {
		stmts = append(stmts, sqliteIndexStatements...)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
