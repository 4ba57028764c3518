// Package tracking applies the lab workflow and sampling rules on top of the
// store. HTTP handlers and the CLI go through a Service rather than writing
// to the store directly, so lock checks and derived fields are never skipped.
package tracking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/config"
	"go-lab-sample-tracker/internal/connectors/store"
	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/report"
)

type Service struct {
	store    *store.Store
	settings config.LabSettings
	retries  int
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the store with lab settings. retries bounds sample number
// allocation attempts after a duplicate-key conflict.
func NewService(st *store.Store, settings config.LabSettings, retries int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retries < 0 {
		retries = 0
	}
	return &Service{
		store:    st,
		settings: settings,
		retries:  retries,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Store() *store.Store {
	return s.store
}

func (s *Service) Settings() config.LabSettings {
	return s.settings
}

func (s *Service) letterhead() report.Letterhead {
	return report.Letterhead{
		LabName:       s.settings.LabName,
		LabAddress:    s.settings.LabAddress,
		Accreditation: s.settings.Accreditation,
	}
}

// editableShift loads a shift and fails with lab.ErrLocked once its report is approved.
func (s *Service) editableShift(ctx context.Context, id string) (*lab.Shift, error) {
	sh, err := s.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if sh.Approved() {
		return nil, lab.ErrLocked
	}
	return sh, nil
}
