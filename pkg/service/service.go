// Package service defines the lifecycle shared by long-running components
// and a registry that starts them in dependency order.
package service

import (
	"context"
	"errors"
	"sync"
)

// Status represents the current state of a service.
type Status string

const (
	StatusStopped  Status = "STOPPED"
	StatusStarting Status = "STARTING"
	StatusRunning  Status = "RUNNING"
	StatusStopping Status = "STOPPING"
	StatusError    Status = "ERROR"
)

// ErrNotRunning is returned by health checks of a service that is not running.
var ErrNotRunning = errors.New("service not running")

// Service is a component with a managed lifecycle.
type Service interface {
	// Name identifies the service in the registry and in Dependencies.
	Name() string

	// Start must not block; long-running work belongs in goroutines.
	Start(ctx context.Context) error

	// Stop releases resources, honoring the deadline of ctx.
	Stop(ctx context.Context) error

	Status() Status

	// Health returns nil while the service is able to do its work.
	Health() error

	// Dependencies names services that must be healthy before Start.
	Dependencies() []string
}

// State tracks a service status. Health checks read it from other
// goroutines, so access is synchronized. The zero value is STOPPED.
type State struct {
	mu     sync.RWMutex
	status Status
}

// Status returns the current status
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == "" {
		return StatusStopped
	}
	return s.status
}

// SetStatus records a transition
func (s *State) SetStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// CheckRunning returns ErrNotRunning unless the status is RUNNING
func (s *State) CheckRunning() error {
	if s.Status() != StatusRunning {
		return ErrNotRunning
	}
	return nil
}
