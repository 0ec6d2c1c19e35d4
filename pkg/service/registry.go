// pkg/service/registry.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cmatc13/tender/pkg/logging"
)

const (
	// healthTimeout bounds how long StartAll waits for a service to report healthy
	healthTimeout = 30 * time.Second
	// healthInterval is the delay between health probes during startup
	healthInterval = 500 * time.Millisecond
)

// Registry manages services and their lifecycle. Services start in
// dependency order and stop in reverse; independent services keep their
// registration order.
type Registry struct {
	services map[string]Service
	order    []string
	mutex    sync.RWMutex
	logger   *logging.Logger
}

// NewRegistry creates a new service registry
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{
		services: make(map[string]Service),
		logger:   logger,
	}
}

// Register adds a service to the registry
func (r *Registry) Register(service Service) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	name := service.Name()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service %s is already registered", name)
	}

	r.services[name] = service
	r.order = append(r.order, name)
	r.logger.Info("Service registered", "service", name)
	return nil
}

// Get returns a service by name
func (r *Registry) Get(name string) (Service, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	service, exists := r.services[name]
	if !exists {
		return nil, fmt.Errorf("service %s not found", name)
	}
	return service, nil
}

// StartOrder returns the service names in the order StartAll uses
func (r *Registry) StartOrder() ([]string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.resolve()
}

// StartAll starts all services in dependency order, waiting for each to
// report healthy before starting the next.
func (r *Registry) StartAll(ctx context.Context) error {
	order, err := r.StartOrder()
	if err != nil {
		return err
	}

	for _, name := range order {
		service, err := r.Get(name)
		if err != nil {
			return err
		}

		r.logger.Info("Starting service", "service", name)
		if err := service.Start(ctx); err != nil {
			r.logger.Error("Failed to start service", "service", name, "error", err)
			return fmt.Errorf("failed to start service %s: %w", name, err)
		}

		if err := waitForHealth(ctx, service); err != nil {
			return err
		}
	}

	return nil
}

// StopAll stops all services in reverse dependency order. A service that
// fails to stop does not prevent the rest from stopping; the first error is
// returned.
func (r *Registry) StopAll(ctx context.Context) error {
	order, err := r.StartOrder()
	if err != nil {
		return err
	}

	var firstErr error
	for i := len(order) - 1; i >= 0; i-- {
		service, err := r.Get(order[i])
		if err != nil {
			continue
		}

		r.logger.Info("Stopping service", "service", order[i])
		if err := service.Stop(ctx); err != nil {
			r.logger.Error("Error stopping service", "service", order[i], "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to stop service %s: %w", order[i], err)
			}
		}
	}

	return firstErr
}

// HealthCheck performs health checks on all services
func (r *Registry) HealthCheck() map[string]error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	results := make(map[string]error, len(r.services))
	for name, service := range r.services {
		results[name] = service.Health()
	}
	return results
}

// waitForHealth polls a started service until it reports healthy
func waitForHealth(ctx context.Context, service Service) error {
	if service.Health() == nil {
		return nil
	}

	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	timeout := time.After(healthTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("timeout waiting for service %s to become healthy", service.Name())
		case <-ticker.C:
			if err := service.Health(); err == nil {
				return nil
			}
		}
	}
}

// resolve orders services so every service follows its dependencies.
// Dependencies that are not registered are treated as external and ignored.
func (r *Registry) resolve() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	marks := make(map[string]int, len(r.services))
	order := make([]string, 0, len(r.services))

	var visit func(name string) error
	visit = func(name string) error {
		switch marks[name] {
		case visiting:
			return fmt.Errorf("dependency cycle detected involving service %s", name)
		case done:
			return nil
		}

		marks[name] = visiting
		for _, dep := range r.services[name].Dependencies() {
			if _, ok := r.services[dep]; !ok {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		marks[name] = done

		order = append(order, name)
		return nil
	}

	for _, name := range r.order {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return order, nil
}
