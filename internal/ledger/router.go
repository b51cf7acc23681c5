package ledger

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"datalens/internal/log"
	"datalens/internal/middleware/ratelimit"
	"datalens/internal/middleware/security"
	"datalens/internal/middleware/trace"
)

// RouterConfig holds the cross-cutting pieces of the API router.
type RouterConfig struct {
	Logger   *log.Logger
	Detector *security.Detector
	Limiter  *ratelimit.Limiter
}

// NewRouter builds the complete API: transaction routes, health probes and
// the middleware chain.
func NewRouter(service *Service, cfg RouterConfig) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	detector := cfg.Detector
	if detector == nil {
		detector = security.NewDetector(logger)
	}

	router := mux.NewRouter()
	router.Use(trace.NewMiddleware(logger, detector.ExtractClientIP).Middleware)
	router.Use(detector.Middleware)
	router.Use(security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware)
	if cfg.Limiter != nil {
		router.Use(mux.MiddlewareFunc(cfg.Limiter.Middleware(detector.ExtractClientIP)))
	}

	NewHandler(service, logger).RegisterRoutes(router)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := service.Ping(ctx); err != nil {
			logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:       "Not found",
			Status:      http.StatusNotFound,
			Description: "No route matches " + r.URL.Path,
		})
	})

	return router
}
