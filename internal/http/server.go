package http

import (
	"context"
	nethttp "net/http"
	"time"

	"go.uber.org/zap"

	"go-lab-sample-tracker/internal/config"
	"go-lab-sample-tracker/internal/connectors/store"
	"go-lab-sample-tracker/internal/tracking"
)

// Server wraps an HTTP server and route handlers.
type Server struct {
	httpServer *nethttp.Server
	store      *store.Store
	logger     *zap.Logger
}

// NewServer creates a configured HTTP server with v1 endpoints. The database
// is opened only when enabled; without it the API answers 503.
func NewServer(cfg config.Config, settings config.LabSettings, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		st  *store.Store
		svc *tracking.Service
	)
	if cfg.DBEnabled {
		createdStore, err := store.NewStore(cfg)
		if err != nil {
			return nil, err
		}
		st = createdStore
		svc = tracking.NewService(st, settings, cfg.AllocationRetries, logger.Named("tracking"))
		logger.Info("database connected", zap.String("driver", string(st.Dialect())))
	} else {
		logger.Warn("database integration disabled")
	}

	httpServer := &nethttp.Server{
		Addr:         cfg.ListenAddr,
		Handler:      NewHandler(cfg, settings, svc, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Server{httpServer: httpServer, store: st, logger: logger}, nil
}

// NewHandler builds the routed handler chain around svc, which may be nil.
func NewHandler(cfg config.Config, settings config.LabSettings, svc *tracking.Service, logger *zap.Logger) nethttp.Handler {
	limit := cfg.DefaultListLimit
	mux := nethttp.NewServeMux()

	mux.HandleFunc("/", dashboardHandler)
	mux.HandleFunc("/favicon.ico", faviconHandler)
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(svc))
	mux.HandleFunc("/api/v1/status/services", servicesStatusHandler(svc))
	mux.HandleFunc("/api/v1/settings/lab", labSettingsHandler(settings))

	mux.HandleFunc("/api/v1/clients", clientsHandler(limit, svc, logger))
	mux.HandleFunc("/api/v1/clients/", clientDetailRouter(svc, logger))
	mux.HandleFunc("/api/v1/projects", projectsHandler(limit, svc, logger))
	mux.HandleFunc("/api/v1/projects/", projectDetailRouter(svc, logger))
	mux.HandleFunc("/api/v1/jobs", jobsHandler(limit, svc, logger))
	mux.HandleFunc("/api/v1/jobs/", jobDetailRouter(svc, logger))
	mux.HandleFunc("/api/v1/shifts", shiftsHandler(limit, svc, logger))
	mux.HandleFunc("/api/v1/shifts/", shiftDetailRouter(svc, logger))
	mux.HandleFunc("/api/v1/samples/", sampleDetailRouter(svc, logger))
	mux.HandleFunc("/api/v1/markers/", markerDetailRouter(svc, logger))
	mux.HandleFunc("/api/v1/equipment", equipmentHandler(limit, svc, logger))
	mux.HandleFunc("/api/v1/users", usersHandler(limit, svc, logger))
	mux.HandleFunc("/api/v1/reports/", reportsRouter(cfg.ReportTimeout, svc, logger))

	return loggingMiddleware(logger, observabilityMiddleware(mux))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.store != nil {
		_ = s.store.Close()
	}
	return err
}

func healthHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func loggingMiddleware(logger *zap.Logger, next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: nethttp.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
