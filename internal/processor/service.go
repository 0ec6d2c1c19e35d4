// internal/processor/service.go
package processor

import (
	"context"
	"fmt"

	"github.com/cmatc13/tender/pkg/service"
)

// ProcessorService wraps the Processor as a Service
type ProcessorService struct {
	service.State
	processor *Processor
}

// NewProcessorService creates a new processor service
func NewProcessorService(processor *Processor) *ProcessorService {
	return &ProcessorService{processor: processor}
}

// Name returns the service name
func (s *ProcessorService) Name() string {
	return "payment-processor"
}

// Start marks the processor ready. Processing is driven by callers.
func (s *ProcessorService) Start(ctx context.Context) error {
	s.SetStatus(service.StatusStarting)

	if err := s.processor.Ping(ctx); err != nil {
		s.SetStatus(service.StatusError)
		return fmt.Errorf("outcome publisher unreachable: %w", err)
	}

	s.SetStatus(service.StatusRunning)
	return nil
}

// Stop flushes and closes the outcome publisher
func (s *ProcessorService) Stop(ctx context.Context) error {
	s.SetStatus(service.StatusStopping)
	s.processor.Close()
	s.SetStatus(service.StatusStopped)
	return nil
}

// Health performs a health check
func (s *ProcessorService) Health() error {
	return s.CheckRunning()
}

// Dependencies returns a list of services this service depends on
func (s *ProcessorService) Dependencies() []string {
	return []string{}
}

// Processor returns the wrapped processor
func (s *ProcessorService) Processor() *Processor {
	return s.processor
}
