// internal/api/middleware.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cmatc13/tender/pkg/errors"
	"github.com/cmatc13/tender/pkg/logging"
	"github.com/cmatc13/tender/pkg/metrics"
)

// Instrument logs each request and records its metrics. Both use the chi
// route pattern rather than the raw path so labels stay bounded.
func Instrument(logger *logging.Logger, metricsCollector *metrics.Metrics, serviceName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			requestLogger := logger.WithField("request_id", middleware.GetReqID(r.Context()))

			inFlight := metricsCollector.RequestInFlight.WithLabelValues(serviceName)
			inFlight.Inc()
			defer inFlight.Dec()

			requestLogger.Debug("Request started", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)

			metricsCollector.RecordRequest(serviceName, r.Method, route, status, duration)

			fields := []interface{}{
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", duration.Milliseconds(),
			}
			switch {
			case status >= 500:
				requestLogger.Error("Request failed", fields...)
			case status >= 400:
				requestLogger.Warn("Request refused", fields...)
			default:
				requestLogger.Info("Request served", fields...)
			}
		})
	}
}

// routePattern returns the matched chi route, or "unmatched"
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// RecovererWithMetrics turns a panic into a 500 JSON response and counts it
func RecovererWithMetrics(logger *logging.Logger, metricsCollector *metrics.Metrics, serviceName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("Panic recovered",
					"panic", rvr,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", middleware.GetReqID(r.Context()),
				)
				metricsCollector.RecordError(serviceName, "panic", "PANIC")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(Response{
					Error: "internal server error",
					Code:  errors.APIErrInternalServer,
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
