package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/sampling"
)

var csvHeader = []string{
	"Sample ID", "Type", "Location", "Field Blank", "Pump", "Start", "End",
	"Initial Flowrate", "Final Flowrate", "Average Flowrate", "Minutes", "Volume (L)",
	"Fields Counted", "Fibres Counted", "Result", "Status", "Notes",
}

// WriteSamplesCSV exports samples, one row each, with RFC 4180 quoting.
func WriteSamplesCSV(w io.Writer, samples []lab.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range samples {
		minutes := ""
		if s.StartTime != nil && s.EndTime != nil {
			minutes = strconv.FormatFloat(sampling.SampledMinutes(*s.StartTime, *s.EndTime), 'f', 0, 64)
		}
		vol := ""
		if v, ok := sampling.SampleVolume(s); ok {
			vol = fmt.Sprintf("%.1f", v)
		}
		fields, fibres, result := "", "", ""
		if s.Analysis != nil {
			fields = strconv.Itoa(s.Analysis.FieldsCounted)
			fibres = strconv.FormatFloat(s.Analysis.FibresCounted, 'f', -1, 64)
			result = s.Analysis.ReportedConcentration
			if s.Type == lab.SampleBulk {
				result = s.Analysis.AsbestosResult
			}
		}
		record := []string{
			s.FullSampleID, string(s.Type), s.Location, strconv.FormatBool(s.IsFieldBlank), s.PumpID,
			csvTime(s.StartTime), csvTime(s.EndTime),
			csvFlow(s.InitialFlowrate), csvFlow(s.FinalFlowrate), csvFlow(s.AverageFlowrate),
			minutes, vol, fields, fibres, result, string(s.Status), s.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvFlow(v *float64) string {
	if v == nil {
		return ""
	}
	return sampling.FormatFlowrate(*v)
}
