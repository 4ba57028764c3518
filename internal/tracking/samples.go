package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/connectors/store"
	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/sampling"
	"go-lab-sample-tracker/internal/workflow"
)

// SampleInput carries the field data entered for a sample. Nil pointers leave
// the stored value unchanged on update.
type SampleInput struct {
	SampleNumber    int        `json:"sample_number"`
	Prefix          string     `json:"prefix"`
	Location        *string    `json:"location"`
	Description     *string    `json:"description"`
	IsFieldBlank    *bool      `json:"is_field_blank"`
	PumpID          *string    `json:"pump_id"`
	Cowl            *string    `json:"cowl"`
	FilterSize      *string    `json:"filter_size"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	InitialFlowrate *float64   `json:"initial_flowrate"`
	FinalFlowrate   *float64   `json:"final_flowrate"`
	Notes           *string    `json:"notes"`
}

func (in SampleInput) apply(sm *lab.Sample) error {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&sm.Location, in.Location)
	set(&sm.Description, in.Description)
	set(&sm.PumpID, in.PumpID)
	set(&sm.Cowl, in.Cowl)
	set(&sm.FilterSize, in.FilterSize)
	set(&sm.Notes, in.Notes)
	if in.IsFieldBlank != nil {
		sm.IsFieldBlank = *in.IsFieldBlank
	}
	if in.StartTime != nil {
		t := in.StartTime.UTC()
		sm.StartTime = &t
	}
	if in.EndTime != nil {
		t := in.EndTime.UTC()
		sm.EndTime = &t
	}
	if in.InitialFlowrate != nil {
		if *in.InitialFlowrate < 0 {
			return lab.Invalid("initial flowrate cannot be negative")
		}
		v := *in.InitialFlowrate
		sm.InitialFlowrate = &v
	}
	if in.FinalFlowrate != nil {
		if *in.FinalFlowrate < 0 {
			return lab.Invalid("final flowrate cannot be negative")
		}
		v := *in.FinalFlowrate
		sm.FinalFlowrate = &v
	}
	return nil
}

// CreateSample allocates the next sample number for the shift's project and
// stores the sample with its flowrate status evaluated.
func (s *Service) CreateSample(ctx context.Context, shiftID string, in SampleInput) (*lab.Sample, error) {
	sh, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if err := workflow.CanAddSample(*sh); err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, sh.JobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", sh.JobID, err)
	}
	project, err := s.store.GetProject(ctx, job.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", job.ProjectID, err)
	}
	if in.SampleNumber < 0 {
		return nil, lab.Invalid("sample number must be positive")
	}

	prefix := strings.ToUpper(strings.TrimSpace(in.Prefix))
	if prefix == "" {
		prefix = sampling.PrefixFor(job.Kind, s.settings.SamplePrefixes)
	}
	sm := lab.Sample{
		ShiftID:      sh.ID,
		JobID:        job.ID,
		ProjectID:    project.ID,
		Prefix:       prefix,
		SampleNumber: in.SampleNumber,
		Type:         lab.SampleTypeFor(job.Kind),
	}
	if err := in.apply(&sm); err != nil {
		return nil, err
	}
	if err := s.checkPump(ctx, sm.PumpID); err != nil {
		return nil, err
	}
	sampling.Evaluate(&sm, s.settings.FlowrateTolerance)

	err = s.store.AllocateSample(ctx, &sm, store.Allocation{
		ProjectCode: project.ProjectID,
		Retries:     s.retries,
	})
	if err != nil {
		s.logger.Warn("sample allocation failed",
			zap.String("shift_id", shiftID),
			zap.String("prefix", prefix),
			zap.Error(err),
		)
		return nil, err
	}
	s.logger.Info("sample created",
		zap.String("sample_id", sm.FullSampleID),
		zap.String("shift_id", shiftID),
		zap.String("status", string(sm.Status)),
	)
	return &sm, nil
}

// checkPump rejects pumps registered as equipment whose calibration has lapsed.
// Unregistered pump references are accepted.
func (s *Service) checkPump(ctx context.Context, pumpID string) error {
	if pumpID == "" {
		return nil
	}
	eq, err := s.store.GetEquipmentByReference(ctx, pumpID)
	if errors.Is(err, lab.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !eq.CalibrationCurrent(s.now()) {
		return lab.Invalid("pump %s is out of calibration", pumpID)
	}
	return nil
}

// sampleForEdit loads a sample and its shift, refusing edits on approved shifts.
func (s *Service) sampleForEdit(ctx context.Context, id string) (*lab.Sample, error) {
	sm, err := s.store.GetSample(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.editableShift(ctx, sm.ShiftID); err != nil {
		return nil, err
	}
	return sm, nil
}

// UpdateSample applies field changes and recomputes flowrate status and, for
// analysed samples, the reported result.
func (s *Service) UpdateSample(ctx context.Context, id string, in SampleInput) (*lab.Sample, error) {
	sm, err := s.sampleForEdit(ctx, id)
	if err != nil {
		return nil, err
	}
	pump := sm.PumpID
	if err := in.apply(sm); err != nil {
		return nil, err
	}
	if sm.PumpID != pump {
		if err := s.checkPump(ctx, sm.PumpID); err != nil {
			return nil, err
		}
	}
	sampling.Evaluate(sm, s.settings.FlowrateTolerance)
	if sm.Analysis != nil {
		before := sm.Analysis.ReportedConcentration
		if err := s.deriveResult(sm); err != nil {
			return nil, err
		}
		if before != sm.Analysis.ReportedConcentration {
			s.logger.Info("analysis result recomputed",
				zap.String("sample_id", sm.FullSampleID),
				zap.String("from", before),
				zap.String("to", sm.Analysis.ReportedConcentration),
			)
		}
	}
	if err := s.store.UpdateSample(ctx, sm); err != nil {
		return nil, err
	}
	return sm, nil
}

// AnalysisInput is the lab result entered for a sample. Air samples use the
// fibre count, lead samples LeadMassUG and bulk samples AsbestosResult.
type AnalysisInput struct {
	FieldsCounted       int      `json:"fields_counted"`
	FibresCounted       float64  `json:"fibres_counted"`
	EdgesDistribution   string   `json:"edges_distribution"`
	BackgroundDust      string   `json:"background_dust"`
	Uncountable         bool     `json:"uncountable"`
	AsbestosResult      string   `json:"asbestos_result"`
	MaterialDescription string   `json:"material_description"`
	LeadMassUG          *float64 `json:"lead_mass_ug"`
	Notes               string   `json:"notes"`
}

// RecordAnalysis stores lab results and the reported concentration.
func (s *Service) RecordAnalysis(ctx context.Context, id string, in AnalysisInput) (*lab.Sample, error) {
	sm, err := s.sampleForEdit(ctx, id)
	if err != nil {
		return nil, err
	}
	at := s.now()
	a := &lab.SampleAnalysis{
		FieldsCounted:       in.FieldsCounted,
		FibresCounted:       in.FibresCounted,
		EdgesDistribution:   strings.TrimSpace(in.EdgesDistribution),
		BackgroundDust:      strings.TrimSpace(in.BackgroundDust),
		Uncountable:         in.Uncountable,
		AsbestosResult:      strings.TrimSpace(in.AsbestosResult),
		MaterialDescription: strings.TrimSpace(in.MaterialDescription),
		Notes:               in.Notes,
		AnalysedAt:          &at,
	}

	switch sm.Type {
	case lab.SampleBulk:
		if a.AsbestosResult == "" {
			return nil, lab.Invalid("asbestos_result is required for bulk samples")
		}
	case lab.SampleLead:
		if in.LeadMassUG == nil || *in.LeadMassUG < 0 {
			return nil, lab.Invalid("lead_mass_ug is required for lead samples")
		}
		mass := *in.LeadMassUG
		a.LeadResult = &mass
	default:
		if !in.Uncountable && in.FibresCounted < 0 {
			return nil, lab.Invalid("fibres counted cannot be negative")
		}
	}

	sm.Analysis = a
	sampling.Evaluate(sm, s.settings.FlowrateTolerance)
	if err := s.deriveResult(sm); err != nil {
		return nil, err
	}
	if err := s.store.UpdateSample(ctx, sm); err != nil {
		return nil, err
	}
	s.logger.Info("analysis recorded",
		zap.String("sample_id", sm.FullSampleID),
		zap.String("result", a.ReportedConcentration),
	)
	return sm, nil
}

// deriveResult computes the concentration and reported result of an analysed
// sample from its analysis and current field data.
func (s *Service) deriveResult(sm *lab.Sample) error {
	a := sm.Analysis
	a.Concentration = nil
	switch sm.Type {
	case lab.SampleBulk:
		a.ReportedConcentration = a.AsbestosResult
	case lab.SampleLead:
		if a.LeadResult == nil {
			return lab.Invalid("sample %s has no lead mass", sm.FullSampleID)
		}
		mass := *a.LeadResult
		if sm.IsFieldBlank {
			a.ReportedConcentration = fmt.Sprintf("%.2f µg", mass)
			return nil
		}
		vol, ok := sampling.SampleVolume(*sm)
		if !ok {
			return lab.Invalid("sample %s is missing flowrate or times", sm.FullSampleID)
		}
		conc, err := sampling.LeadConcentration(mass, vol)
		if err != nil {
			return err
		}
		a.Concentration = &conc
		a.ReportedConcentration = fmt.Sprintf("%.2f µg/m³", conc)
	default:
		conc, text, err := sampling.ReportAirResult(s.settings.Counting, *sm)
		if err != nil {
			return err
		}
		a.Concentration = conc
		a.ReportedConcentration = text
	}
	return nil
}

func (s *Service) DeleteSample(ctx context.Context, id string) error {
	if _, err := s.sampleForEdit(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteSample(ctx, id)
}

// NextSample previews the number and full ID the next sample of prefix on a
// project would receive. Allocation itself happens on create.
type NextSample struct {
	Prefix       string `json:"prefix"`
	SampleNumber int    `json:"sample_number"`
	FullSampleID string `json:"full_sample_id"`
}

func (s *Service) NextSampleNumber(ctx context.Context, projectID, prefix string) (*NextSample, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, lab.Invalid("prefix is required")
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ids, err := s.store.ProjectSampleIDs(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	n := sampling.NextSampleNumber(prefix, ids)
	return &NextSample{
		Prefix:       prefix,
		SampleNumber: n,
		FullSampleID: sampling.FormatSampleID(project.ProjectID, prefix, n),
	}, nil
}
