package sampling

import (
	"fmt"
	"strconv"

	"go-lab-sample-tracker/internal/lab"
)

// CountingParams describes the membrane filter method set-up.
type CountingParams struct {
	FilterAreaMM2    float64 `yaml:"filter_area_mm2"`
	GraticuleAreaMM2 float64 `yaml:"graticule_area_mm2"`
	MinReportable    float64 `yaml:"min_reportable_fibres"`
}

// DefaultCountingParams is a 25 mm filter read with a Walton-Beckett graticule.
var DefaultCountingParams = CountingParams{
	FilterAreaMM2:    385,
	GraticuleAreaMM2: 0.00785,
	MinReportable:    10,
}

func (p CountingParams) withDefaults() CountingParams {
	if p.FilterAreaMM2 <= 0 {
		p.FilterAreaMM2 = DefaultCountingParams.FilterAreaMM2
	}
	if p.GraticuleAreaMM2 <= 0 {
		p.GraticuleAreaMM2 = DefaultCountingParams.GraticuleAreaMM2
	}
	if p.MinReportable <= 0 {
		p.MinReportable = DefaultCountingParams.MinReportable
	}
	return p
}

// Concentration returns airborne fibres per mL for a count over fields
// graticule fields from a sample drawn at flow L/min for minutes.
func Concentration(p CountingParams, fibres float64, fields int, flow, minutes float64) (float64, error) {
	p = p.withDefaults()
	if fields <= 0 {
		return 0, lab.Invalid("fields counted must be positive")
	}
	if flow <= 0 || minutes <= 0 {
		return 0, lab.Invalid("flowrate and sample duration must be positive")
	}
	if fibres < 0 {
		return 0, lab.Invalid("fibres counted cannot be negative")
	}
	volumeML := flow * minutes * 1000
	return (p.FilterAreaMM2 * fibres) / (p.GraticuleAreaMM2 * float64(fields) * volumeML), nil
}

// FormatConcentration prints a result to two decimal places, never below 0.01.
func FormatConcentration(v float64) string {
	if v < 0.01 {
		v = 0.01
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ReportAirResult computes the concentration of an air sample and the text
// printed on the report. Counts below the reportable minimum are reported as
// less than the concentration at that minimum.
func ReportAirResult(p CountingParams, s lab.Sample) (*float64, string, error) {
	if s.Analysis == nil {
		return nil, "", lab.Invalid("sample %s has no analysis", s.FullSampleID)
	}
	a := s.Analysis
	if a.Uncountable {
		return nil, "Uncountable", nil
	}
	if s.IsFieldBlank {
		return nil, fmt.Sprintf("%g fibres / %d fields", a.FibresCounted, a.FieldsCounted), nil
	}
	if s.AverageFlowrate == nil || s.StartTime == nil || s.EndTime == nil {
		return nil, "", lab.Invalid("sample %s is missing flowrate or times", s.FullSampleID)
	}
	p = p.withDefaults()
	minutes := SampledMinutes(*s.StartTime, *s.EndTime)
	conc, err := Concentration(p, a.FibresCounted, a.FieldsCounted, *s.AverageFlowrate, minutes)
	if err != nil {
		return nil, "", err
	}
	if a.FibresCounted < p.MinReportable {
		floor, err := Concentration(p, p.MinReportable, a.FieldsCounted, *s.AverageFlowrate, minutes)
		if err != nil {
			return nil, "", err
		}
		return &conc, "<" + FormatConcentration(floor), nil
	}
	return &conc, FormatConcentration(conc), nil
}

// LeadConcentration converts a lead mass in micrograms collected from
// volumeL litres of air to µg/m³.
func LeadConcentration(massUG, volumeL float64) (float64, error) {
	if volumeL <= 0 {
		return 0, lab.Invalid("sample volume must be positive")
	}
	return massUG / (volumeL / 1000), nil
}
