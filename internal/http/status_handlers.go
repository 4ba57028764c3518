package http

import (
	"context"
	nethttp "net/http"
	"time"

	"go-lab-sample-tracker/internal/tracking"
)

func servicesStatusHandler(svc *tracking.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
		defer cancel()

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"generated_at": time.Now().UTC(),
			"services": map[string]any{
				"database": databaseStatus(ctx, svc),
			},
		})
	}
}

func databaseStatus(ctx context.Context, svc *tracking.Service) map[string]any {
	if svc == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "database integration disabled"}
	}

	start := time.Now()
	stats, err := svc.Store().ServiceStats(ctx)
	recordDBQuery(storeConnector, "ServiceStats", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true, "stats": stats}
}

// readyHandler reports ready only when the database answers, if one is configured.
func readyHandler(svc *tracking.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if svc == nil {
			writeJSON(w, nethttp.StatusOK, map[string]any{"status": "ready", "database": "disabled"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := svc.Store().Ping(ctx); err != nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{"status": "not ready", "error": err.Error()})
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{"status": "ready"})
	}
}
