package http

import (
	nethttp "net/http"

	"go-lab-sample-tracker/internal/config"
	"go-lab-sample-tracker/internal/sampling"
)

func labSettingsHandler(settings config.LabSettings) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			methodNotAllowed(w)
			return
		}
		prefixes := make(map[string]string, len(sampling.DefaultPrefixes))
		for kind := range sampling.DefaultPrefixes {
			prefixes[string(kind)] = sampling.PrefixFor(kind, settings.SamplePrefixes)
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"data": map[string]any{
				"lab_name":              settings.LabName,
				"lab_address":           settings.LabAddress,
				"accreditation":         settings.Accreditation,
				"flowrate_tolerance":    settings.FlowrateTolerance,
				"sample_prefixes":       prefixes,
				"filter_area_mm2":       settings.Counting.FilterAreaMM2,
				"graticule_area_mm2":    settings.Counting.GraticuleAreaMM2,
				"min_reportable_fibres": settings.Counting.MinReportable,
			},
		})
	}
}
