// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"

	"github.com/cmatc13/tender/internal/payment"
	"github.com/cmatc13/tender/pkg/config"
	"github.com/cmatc13/tender/pkg/errors"
	"github.com/cmatc13/tender/pkg/health"
	"github.com/cmatc13/tender/pkg/logging"
	"github.com/cmatc13/tender/pkg/metrics"
)

// maxBodyBytes caps request bodies; a payment request is a few dozen bytes
const maxBodyBytes = 1 << 16

// PaymentProcessor is the part of the processor the API depends on
type PaymentProcessor interface {
	Process(ctx context.Context, req payment.Request) (*payment.Outcome, error)
	Refund(ctx context.Context, req payment.Request) (*payment.Outcome, error)
}

// Server represents the API server
type Server struct {
	config           *config.Config
	router           *chi.Mux
	processor        PaymentProcessor
	tokenAuth        *jwtauth.JWTAuth
	server           *http.Server
	logger           *logging.Logger
	metricsCollector *metrics.Metrics
	healthRegistry   *health.Registry
}

// Response is the envelope of every JSON response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// NewServer creates a new API server. Refunds are only served when a JWT
// secret is configured.
func NewServer(cfg *config.Config, processor PaymentProcessor, logger *logging.Logger, m *metrics.Metrics, healthRegistry *health.Registry) *Server {
	r := chi.NewRouter()

	var tokenAuth *jwtauth.JWTAuth
	if cfg.Auth.JWTSecret != "" {
		tokenAuth = jwtauth.New("HS256", []byte(cfg.Auth.JWTSecret), nil)
	}

	s := &Server{
		config:           cfg,
		router:           r,
		processor:        processor,
		tokenAuth:        tokenAuth,
		logger:           logger,
		metricsCollector: m,
		healthRegistry:   healthRegistry,
		server: &http.Server{
			Addr:              ":" + cfg.API.Port,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(Instrument(s.logger, s.metricsCollector, "api"))
	s.router.Use(RecovererWithMetrics(s.logger, s.metricsCollector, "api"))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.API.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(httprate.Limit(
		s.config.API.RateLimit,
		s.config.API.RateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(s.handleRateLimited),
	))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthRegistry.Handler().ServeHTTP)
	s.router.Get("/metrics", s.metricsCollector.Handler().ServeHTTP)

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/payments", s.handleProcessPayment)

		if s.tokenAuth == nil {
			s.logger.Warn("No JWT secret configured, refunds are disabled")
			return
		}

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(s.tokenAuth))
			r.Use(s.adminOnly)

			r.Post("/refunds", s.handleRefund)
		})
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the configured address. Binding before serving lets the
// caller report an unavailable port as a startup failure.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until Shutdown. It blocks.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Serving API", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("API server failed", "error", err)
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}

// handleProcessPayment processes one payment. A rejected payment answers
// 422 with the REJECTED outcome.
func (s *Server) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	outcome, err := s.processor.Process(r.Context(), req)
	if err != nil {
		s.renderFailure(w, outcome, err)
		return
	}

	s.renderJSON(w, Response{Success: true, Message: outcome.Message, Data: outcome}, http.StatusCreated)
}

// handleRefund refunds the amount of the request
func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	outcome, err := s.processor.Refund(r.Context(), req)
	if err != nil {
		s.renderFailure(w, outcome, err)
		return
	}

	s.renderJSON(w, Response{Success: true, Message: outcome.Message, Data: outcome}, http.StatusOK)
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (payment.Request, bool) {
	var req payment.Request

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		err = errors.NewAPIError(errors.APIErrBadRequest, "invalid request body", err)
		s.renderFailure(w, nil, errors.WrapWithOperation(err, errors.OpParseRequestBody))
		return req, false
	}

	return req, true
}

// adminOnly requires a verified token carrying the admin role. Verifier
// leaves a missing or invalid token in the context as an error.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			err = errors.NewAPIError(errors.APIErrUnauthorized, "valid bearer token required", err)
			s.renderFailure(w, nil, errors.WrapWithOperation(err, errors.OpAuthorize))
			return
		}

		if role, _ := claims["role"].(string); role != "admin" {
			err = errors.NewAPIError(errors.APIErrForbidden, "admin access required", nil)
			s.renderFailure(w, nil, errors.WrapWithOperation(err, errors.OpAuthorize))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleRateLimited answers requests over the per-IP limit
func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.renderFailure(w, nil, errors.NewAPIError(errors.APIErrRateLimitExceeded, "rate limit exceeded", nil))
}

// renderJSON renders a JSON response
func (s *Server) renderJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Error encoding JSON response", "error", err)
	}
}

// renderFailure renders an error response, attaching the outcome when the
// payment got far enough to produce one
func (s *Server) renderFailure(w http.ResponseWriter, outcome *payment.Outcome, err error) {
	status := errors.HTTPStatus(err)
	code := errors.CodeOf(err)
	s.metricsCollector.RecordError("api", "http", strconv.Itoa(status))

	resp := Response{
		Success: false,
		Error:   errors.MessageOf(err),
		Code:    code,
	}
	if outcome != nil {
		resp.Data = outcome
	}

	s.renderJSON(w, resp, status)
}
