package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/lab"
	"go-lab-sample-tracker/internal/tracking"
)

const maxBodyBytes = 1 << 20

// storeConnector labels store operations in metrics.
const storeConnector = "store"

func writeJSON(w nethttp.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w nethttp.ResponseWriter, code int, data any) {
	writeJSON(w, code, map[string]any{"data": data})
}

func writeList[T any](w nethttp.ResponseWriter, limit int, items []T) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"meta": map[string]any{
			"limit": limit,
			"count": len(items),
		},
		"data": items,
	})
}

// storeDisabled answers 503 when the server runs without a database.
func storeDisabled(w nethttp.ResponseWriter, svc *tracking.Service) bool {
	if svc != nil {
		return false
	}
	writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
		"error": "database integration disabled (set APP_DB_ENABLED=true)",
	})
	return true
}

func methodNotAllowed(w nethttp.ResponseWriter) {
	writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
}

func notFound(w nethttp.ResponseWriter) {
	writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
}

// errorStatus maps the lab error taxonomy onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, lab.ErrNotFound):
		return nethttp.StatusNotFound
	case lab.IsValidation(err):
		return nethttp.StatusBadRequest
	case errors.Is(err, lab.ErrConflict), errors.Is(err, lab.ErrAllowanceExceeded):
		return nethttp.StatusConflict
	case errors.Is(err, lab.ErrLocked):
		return nethttp.StatusLocked
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nethttp.ErrHandlerTimeout):
		return nethttp.StatusGatewayTimeout
	default:
		return nethttp.StatusInternalServerError
	}
}

// writeError reports err to the client. Client errors carry their message;
// server errors are logged and described only by action.
func writeError(w nethttp.ResponseWriter, logger *zap.Logger, action string, err error) {
	status := errorStatus(err)
	if status >= nethttp.StatusInternalServerError {
		logger.Error("request failed", zap.String("action", action), zap.Error(err))
		writeJSON(w, status, map[string]any{"error": "failed to " + action})
		return
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *nethttp.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return lab.Invalid("invalid JSON body: %v", err)
	}
	return nil
}

// pathParts splits the remainder of a routed path after prefix.
func pathParts(path, prefix string) []string {
	trimmed := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parseLimit(r *nethttp.Request, defaultLimit int) int {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	return limit
}

func attachment(w nethttp.ResponseWriter, rendered *tracking.Rendered) {
	w.Header().Set("Content-Type", rendered.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendered.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(rendered.Data)))
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write(rendered.Data)
}
