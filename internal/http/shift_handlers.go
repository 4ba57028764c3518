package http

import (
	nethttp "net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/tracking"
	"go-lab-sample-tracker/internal/workflow"
)

type createShiftRequest struct {
	JobID string `json:"job_id"`
	tracking.ShiftDetails
}

type transitionRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
}

type approveRequest struct {
	Approver string `json:"approver"`
}

func shiftsHandler(defaultLimit int, svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		switch r.Method {
		case nethttp.MethodGet:
			limit := parseLimit(r, defaultLimit)
			jobID := strings.TrimSpace(r.URL.Query().Get("job_id"))
			if jobID == "" {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "job_id query parameter is required"})
				return
			}
			start := time.Now()
			items, err := svc.Store().ListShifts(r.Context(), jobID, limit)
			recordDBQuery(storeConnector, "ListShifts", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "list shifts", err)
				return
			}
			views := make([]map[string]any, 0, len(items))
			for _, sh := range items {
				views = append(views, map[string]any{"shift": sh, "display": workflow.DisplayStatus(sh)})
			}
			writeList(w, limit, views)
		case nethttp.MethodPost:
			var req createShiftRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, logger, "create shift", err)
				return
			}
			start := time.Now()
			sh, err := svc.CreateShift(r.Context(), strings.TrimSpace(req.JobID), req.ShiftDetails)
			recordDBQuery(storeConnector, "CreateShift", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "create shift", err)
				return
			}
			writeData(w, nethttp.StatusCreated, sh)
		default:
			methodNotAllowed(w)
		}
	}
}

func shiftDetailRouter(svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		parts := pathParts(r.URL.Path, "/api/v1/shifts/")
		if len(parts) == 0 || len(parts) > 2 {
			notFound(w)
			return
		}
		id := parts[0]
		if len(parts) == 1 {
			shiftResource(w, r, svc, logger, id)
			return
		}

		switch parts[1] {
		case "transition":
			if r.Method != nethttp.MethodPost {
				methodNotAllowed(w)
				return
			}
			var req transitionRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, logger, "transition shift", err)
				return
			}
			to, err := workflow.ParseStatus(req.Status)
			if err != nil || strings.TrimSpace(req.Status) == "" {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "a valid target status is required"})
				return
			}
			start := time.Now()
			sh, err := svc.TransitionShift(r.Context(), id, to, req.Actor)
			recordDBQuery(storeConnector, "TransitionShift", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "transition shift", err)
				return
			}
			writeData(w, nethttp.StatusOK, sh)
		case "approve":
			if r.Method != nethttp.MethodPost {
				methodNotAllowed(w)
				return
			}
			var req approveRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, logger, "approve shift", err)
				return
			}
			start := time.Now()
			sh, err := svc.ApproveShift(r.Context(), id, req.Approver)
			recordDBQuery(storeConnector, "ApproveShift", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "approve shift", err)
				return
			}
			writeData(w, nethttp.StatusOK, sh)
		case "reset":
			if r.Method != nethttp.MethodPost {
				methodNotAllowed(w)
				return
			}
			start := time.Now()
			sh, err := svc.ResetShift(r.Context(), id)
			recordDBQuery(storeConnector, "ResetShift", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "reset shift", err)
				return
			}
			writeData(w, nethttp.StatusOK, sh)
		case "actions":
			if r.Method != nethttp.MethodGet {
				methodNotAllowed(w)
				return
			}
			view, err := svc.ShiftView(r.Context(), id)
			if err != nil {
				writeError(w, logger, "fetch shift actions", err)
				return
			}
			writeData(w, nethttp.StatusOK, view.Actions)
		case "samples":
			shiftSamples(w, r, svc, logger, id)
		case "markers":
			shiftMarkers(w, r, svc, logger, id)
		default:
			notFound(w)
		}
	}
}

func shiftResource(w nethttp.ResponseWriter, r *nethttp.Request, svc *tracking.Service, logger *zap.Logger, id string) {
	switch r.Method {
	case nethttp.MethodGet:
		start := time.Now()
		view, err := svc.ShiftView(r.Context(), id)
		recordDBQuery(storeConnector, "ShiftView", time.Since(start).Seconds(), err)
		if err != nil {
			writeError(w, logger, "fetch shift", err)
			return
		}
		writeData(w, nethttp.StatusOK, view)
	case nethttp.MethodPut:
		var details tracking.ShiftDetails
		if err := decodeJSON(r, &details); err != nil {
			writeError(w, logger, "update shift", err)
			return
		}
		start := time.Now()
		sh, err := svc.UpdateShift(r.Context(), id, details)
		recordDBQuery(storeConnector, "UpdateShift", time.Since(start).Seconds(), err)
		if err != nil {
			writeError(w, logger, "update shift", err)
			return
		}
		writeData(w, nethttp.StatusOK, sh)
	case nethttp.MethodDelete:
		start := time.Now()
		err := svc.DeleteShift(r.Context(), id)
		recordDBQuery(storeConnector, "DeleteShift", time.Since(start).Seconds(), err)
		if err != nil {
			writeError(w, logger, "delete shift", err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func shiftSamples(w nethttp.ResponseWriter, r *nethttp.Request, svc *tracking.Service, logger *zap.Logger, shiftID string) {
	switch r.Method {
	case nethttp.MethodGet:
		if _, err := svc.Store().GetShift(r.Context(), shiftID); err != nil {
			writeError(w, logger, "fetch shift", err)
			return
		}
		start := time.Now()
		items, err := svc.Store().ListSamplesByShift(r.Context(), shiftID)
		recordDBQuery(storeConnector, "ListSamplesByShift", time.Since(start).Seconds(), err)
		if err != nil {
			writeError(w, logger, "list samples", err)
			return
		}
		writeList(w, len(items), items)
	case nethttp.MethodPost:
		var in tracking.SampleInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, logger, "create sample", err)
			return
		}
		start := time.Now()
		sm, err := svc.CreateSample(r.Context(), shiftID, in)
		recordDBQuery(storeConnector, "CreateSample", time.Since(start).Seconds(), err)
		if err != nil {
			writeError(w, logger, "create sample", err)
			return
		}
		writeData(w, nethttp.StatusCreated, sm)
	default:
		methodNotAllowed(w)
	}
}

func shiftMarkers(w nethttp.ResponseWriter, r *nethttp.Request, svc *tracking.Service, logger *zap.Logger, shiftID string) {
	switch r.Method {
	case nethttp.MethodGet:
		start := time.Now()
		items, err := svc.ListMarkers(r.Context(), shiftID)
		recordDBQuery(storeConnector, "ListMarkers", time.Since(start).Seconds(), err)
		if err != nil {
			writeError(w, logger, "list markers", err)
			return
		}
		writeList(w, len(items), items)
	case nethttp.MethodPost:
		var in tracking.MarkerInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, logger, "create marker", err)
			return
		}
		start := time.Now()
		m, err := svc.CreateMarker(r.Context(), shiftID, in)
		recordDBQuery(storeConnector, "CreateMarker", time.Since(start).Seconds(), err)
		if err != nil {
			writeError(w, logger, "create marker", err)
			return
		}
		writeData(w, nethttp.StatusCreated, m)
	default:
		methodNotAllowed(w)
	}
}

func sampleDetailRouter(svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		parts := pathParts(r.URL.Path, "/api/v1/samples/")
		if len(parts) == 0 || len(parts) > 2 || (len(parts) == 2 && parts[1] != "analysis") {
			notFound(w)
			return
		}
		id := parts[0]

		if len(parts) == 2 {
			if r.Method != nethttp.MethodPut && r.Method != nethttp.MethodPost {
				methodNotAllowed(w)
				return
			}
			var in tracking.AnalysisInput
			if err := decodeJSON(r, &in); err != nil {
				writeError(w, logger, "record analysis", err)
				return
			}
			start := time.Now()
			sm, err := svc.RecordAnalysis(r.Context(), id, in)
			recordDBQuery(storeConnector, "RecordAnalysis", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "record analysis", err)
				return
			}
			writeData(w, nethttp.StatusOK, sm)
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			start := time.Now()
			sm, err := svc.Store().GetSample(r.Context(), id)
			recordDBQuery(storeConnector, "GetSample", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "fetch sample", err)
				return
			}
			writeData(w, nethttp.StatusOK, sm)
		case nethttp.MethodPut:
			var in tracking.SampleInput
			if err := decodeJSON(r, &in); err != nil {
				writeError(w, logger, "update sample", err)
				return
			}
			start := time.Now()
			sm, err := svc.UpdateSample(r.Context(), id, in)
			recordDBQuery(storeConnector, "UpdateSample", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "update sample", err)
				return
			}
			writeData(w, nethttp.StatusOK, sm)
		case nethttp.MethodDelete:
			start := time.Now()
			err := svc.DeleteSample(r.Context(), id)
			recordDBQuery(storeConnector, "DeleteSample", time.Since(start).Seconds(), err)
			if err != nil {
				writeError(w, logger, "delete sample", err)
				return
			}
			w.WriteHeader(nethttp.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
	}
}

func markerDetailRouter(svc *tracking.Service, logger *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if storeDisabled(w, svc) {
			return
		}
		parts := pathParts(r.URL.Path, "/api/v1/markers/")
		if len(parts) != 1 {
			notFound(w)
			return
		}
		if r.Method != nethttp.MethodDelete {
			methodNotAllowed(w)
			return
		}
		start := time.Now()
		err := svc.DeleteMarker(r.Context(), parts[0])
		recordDBQuery(storeConnector, "DeleteMarker", time.Since(start).Seconds(), err)
		if err != nil {
			writeError(w, logger, "delete marker", err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}
