package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"go-lab-sample-tracker/internal/sampling"
)

// LabSettings are the laboratory rules and letterhead details used when
// evaluating samples and rendering reports.
type LabSettings struct {
	LabName           string                  `yaml:"lab_name"`
	LabAddress        string                  `yaml:"lab_address"`
	Accreditation     string                  `yaml:"accreditation"`
	FlowrateTolerance float64                 `yaml:"flowrate_tolerance"`
	SamplePrefixes    map[string]string       `yaml:"sample_prefixes"`
	Counting          sampling.CountingParams `yaml:"counting"`
}

// DefaultLabSettings returns settings used when no file is configured.
func DefaultLabSettings() LabSettings {
	return LabSettings{
		LabName:           "Environmental Monitoring Laboratory",
		FlowrateTolerance: sampling.DefaultFlowrateTolerance,
		SamplePrefixes:    map[string]string{},
		Counting:          sampling.DefaultCountingParams,
	}
}

// LoadLabSettings reads a YAML settings file. An empty path yields defaults.
func LoadLabSettings(path string) (LabSettings, error) {
	settings := DefaultLabSettings()
	path = strings.TrimSpace(path)
	if path == "" {
		return settings, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("read lab settings: %w", err)
	}
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return settings, fmt.Errorf("parse lab settings %s: %w", path, err)
	}
	settings.applyDefaults()
	if err := settings.validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// applyDefaults fills fields the file cleared. FlowrateTolerance keeps its
// default unless the file sets it, and an explicit 0 is kept.
func (s *LabSettings) applyDefaults() {
	if s.SamplePrefixes == nil {
		s.SamplePrefixes = map[string]string{}
	}
	if s.Counting.FilterAreaMM2 == 0 {
		s.Counting.FilterAreaMM2 = sampling.DefaultCountingParams.FilterAreaMM2
	}
	if s.Counting.GraticuleAreaMM2 == 0 {
		s.Counting.GraticuleAreaMM2 = sampling.DefaultCountingParams.GraticuleAreaMM2
	}
	if s.Counting.MinReportable == 0 {
		s.Counting.MinReportable = sampling.DefaultCountingParams.MinReportable
	}
}

func (s LabSettings) validate() error {
	if s.FlowrateTolerance < 0 || s.FlowrateTolerance >= 1 {
		return fmt.Errorf("flowrate_tolerance must be in [0,1), got %v", s.FlowrateTolerance)
	}
	if s.Counting.FilterAreaMM2 < 0 || s.Counting.GraticuleAreaMM2 < 0 {
		return fmt.Errorf("counting areas must be positive")
	}
	return nil
}
