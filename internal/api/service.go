// internal/api/service.go
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/cmatc13/tender/pkg/config"
	"github.com/cmatc13/tender/pkg/health"
	"github.com/cmatc13/tender/pkg/logging"
	"github.com/cmatc13/tender/pkg/metrics"
	"github.com/cmatc13/tender/pkg/service"
)

// APIService wraps the API server as a Service
type APIService struct {
	service.State
	server           *Server
	config           *config.Config
	logger           *logging.Logger
	metricsCollector *metrics.Metrics
	uptimeDone       chan struct{}
	addr             string
	serveErr         chan error
}

// NewAPIService creates a new API service
func NewAPIService(
	cfg *config.Config,
	processor PaymentProcessor,
	logger *logging.Logger,
	metricsCollector *metrics.Metrics,
	healthRegistry *health.Registry,
) *APIService {
	logger = logger.WithField("component", "api")

	return &APIService{
		server:           NewServer(cfg, processor, logger, metricsCollector, healthRegistry),
		config:           cfg,
		logger:           logger,
		metricsCollector: metricsCollector,
	}
}

// Name returns the service name
func (s *APIService) Name() string {
	return "api"
}

// Start binds the listener, failing when the port is unavailable, and then
// serves in the background
func (s *APIService) Start(ctx context.Context) error {
	s.SetStatus(service.StatusStarting)

	ln, err := s.server.Listen()
	if err != nil {
		s.SetStatus(service.StatusError)
		return err
	}
	s.addr = ln.Addr().String()

	s.serveErr = make(chan error, 1)
	go func() {
		s.serveErr <- s.server.Serve(ln)
	}()

	s.metricsCollector.ServiceLastStarted.Set(float64(time.Now().Unix()))
	s.uptimeDone = make(chan struct{})
	s.metricsCollector.RecordUptime(s.uptimeDone)

	s.SetStatus(service.StatusRunning)
	s.logger.Info("API service started", "addr", s.addr)
	return nil
}

// Addr returns the bound address once started
func (s *APIService) Addr() string {
	return s.addr
}

// Stop gracefully shuts down the service
func (s *APIService) Stop(ctx context.Context) error {
	s.SetStatus(service.StatusStopping)

	if s.uptimeDone != nil {
		close(s.uptimeDone)
		s.uptimeDone = nil
	}

	err := s.server.Shutdown(ctx)

	s.SetStatus(service.StatusStopped)
	s.logger.Info("API service stopped")
	return err
}

// Health reports an error once the listener has failed
func (s *APIService) Health() error {
	if err := s.CheckRunning(); err != nil {
		return err
	}

	select {
	case err := <-s.serveErr:
		s.SetStatus(service.StatusError)
		if err == nil {
			err = fmt.Errorf("server exited")
		}
		return err
	default:
		return nil
	}
}

// Dependencies returns a list of services this service depends on
func (s *APIService) Dependencies() []string {
	return []string{"payment-processor"}
}

// Server returns the wrapped server
func (s *APIService) Server() *Server {
	return s.server
}
