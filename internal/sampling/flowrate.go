package sampling

import (
	"math"
	"strconv"
	"time"

	"go-lab-sample-tracker/internal/lab"
)

// DefaultFlowrateTolerance is the allowed drift between initial and final flowrate.
const DefaultFlowrateTolerance = 0.10

const flowEpsilon = 1e-9

func AverageFlowrate(initial, final float64) float64 {
	return (initial + final) / 2
}

// FlowrateFailed reports whether final deviates from initial by more than
// tolerance, as a fraction of initial.
func FlowrateFailed(initial, final, tolerance float64) bool {
	if initial <= 0 {
		return true
	}
	return math.Abs(final-initial)/initial > tolerance+flowEpsilon
}

// FormatFlowrate prints one decimal place when that is exact, otherwise two.
func FormatFlowrate(v float64) string {
	if math.Abs(v*10-math.Round(v*10)) < flowEpsilon {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// SampledMinutes is the run time between start and end. An end earlier than
// the start is a run across midnight.
func SampledMinutes(start, end time.Time) float64 {
	d := end.Sub(start)
	if d < 0 {
		d += 24 * time.Hour
	}
	return d.Minutes()
}

// Volume is the air volume drawn in litres.
func Volume(averageFlowrate, minutes float64) float64 {
	return averageFlowrate * minutes
}

// SampleVolume returns the sampled volume when both times and the average
// flowrate are known.
func SampleVolume(s lab.Sample) (float64, bool) {
	if s.StartTime == nil || s.EndTime == nil || s.AverageFlowrate == nil {
		return 0, false
	}
	return Volume(*s.AverageFlowrate, SampledMinutes(*s.StartTime, *s.EndTime)), true
}

// Evaluate recomputes the average flowrate and status of s in place. A
// negative tolerance selects DefaultFlowrateTolerance; zero allows no drift.
func Evaluate(s *lab.Sample, tolerance float64) {
	if tolerance < 0 {
		tolerance = DefaultFlowrateTolerance
	}
	if s.IsFieldBlank {
		s.AverageFlowrate = nil
		s.Status = lab.SamplePending
		if s.HasAnalysis() {
			s.Status = lab.SampleAnalysed
		}
		return
	}

	s.AverageFlowrate = nil
	if s.InitialFlowrate == nil || s.FinalFlowrate == nil {
		s.Status = lab.SamplePending
		if s.HasAnalysis() {
			s.Status = lab.SampleAnalysed
		}
		return
	}

	avg := AverageFlowrate(*s.InitialFlowrate, *s.FinalFlowrate)
	s.AverageFlowrate = &avg
	switch {
	case FlowrateFailed(*s.InitialFlowrate, *s.FinalFlowrate, tolerance):
		s.Status = lab.SampleFailed
	case s.HasAnalysis():
		s.Status = lab.SampleAnalysed
	default:
		s.Status = lab.SamplePassed
	}
}
