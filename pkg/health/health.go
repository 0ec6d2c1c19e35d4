// Package health aggregates component checks into one report served over HTTP.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cmatc13/tender/pkg/logging"
)

// DefaultCheckTimeout bounds a single check when the registry has no other
// timeout configured
const DefaultCheckTimeout = 3 * time.Second

// Status represents the health status of a component.
type Status string

const (
	StatusUp      Status = "UP"
	StatusDown    Status = "DOWN"
	StatusUnknown Status = "UNKNOWN"
)

// Check is the result of one checker run.
type Check struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
	Duration    string    `json:"duration"`
}

// Checker performs a health check. It must honor ctx cancellation.
type Checker func(ctx context.Context) Check

// Registry holds named checkers and runs them concurrently.
type Registry struct {
	mutex   sync.RWMutex
	checks  map[string]Checker
	timeout time.Duration
	logger  *logging.Logger
}

// NewRegistry creates a registry using DefaultCheckTimeout.
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{
		checks:  make(map[string]Checker),
		timeout: DefaultCheckTimeout,
		logger:  logger,
	}
}

// SetTimeout changes the per-check timeout.
func (r *Registry) SetTimeout(timeout time.Duration) {
	r.mutex.Lock()
	r.timeout = timeout
	r.mutex.Unlock()
}

// Register adds or replaces the checker for name.
func (r *Registry) Register(name string, checker Checker) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.checks[name] = checker
	r.logger.Debug("Registered health check", "name", name)
}

// RunChecks runs every checker in parallel, each under the registry timeout.
// A checker that overruns its timeout is reported DOWN.
func (r *Registry) RunChecks(ctx context.Context) map[string]Check {
	r.mutex.RLock()
	checkers := make(map[string]Checker, len(r.checks))
	for name, checker := range r.checks {
		checkers[name] = checker
	}
	timeout := r.timeout
	r.mutex.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]Check, len(checkers))
	)
	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			check := checker(checkCtx)
			check.Name = name
			check.Duration = time.Since(start).String()
			if check.Status == StatusUp && checkCtx.Err() != nil {
				check.Status = StatusDown
				check.Error = checkCtx.Err().Error()
			}
			if check.Status == StatusDown {
				r.logger.Warn("Health check failed", "name", name, "error", check.Error)
			}

			mu.Lock()
			results[name] = check
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	return results
}

// Overall folds individual results into one status: any DOWN wins, then
// any UNKNOWN, otherwise UP.
func Overall(checks map[string]Check) Status {
	status := StatusUp
	for _, check := range checks {
		switch check.Status {
		case StatusDown:
			return StatusDown
		case StatusUnknown:
			status = StatusUnknown
		}
	}
	return status
}

// Handler serves the report, answering 503 when any check is down.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		checks := r.RunChecks(req.Context())
		status := Overall(checks)

		code := http.StatusOK
		if status == StatusDown {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)

		err := json.NewEncoder(w).Encode(struct {
			Status    Status           `json:"status"`
			Timestamp time.Time        `json:"timestamp"`
			Checks    map[string]Check `json:"checks"`
		}{status, time.Now().UTC(), checks})
		if err != nil {
			r.logger.Error("Failed to encode health report", "error", err)
		}
	})
}

// ServiceChecker checks an in-process service.
func ServiceChecker(serviceName string, checkFn func(ctx context.Context) error) Checker {
	return checker("Service "+serviceName, checkFn)
}

// DependencyChecker checks an external dependency reached at addr.
func DependencyChecker(name, addr string, checkFn func(ctx context.Context) error) Checker {
	return checker(fmt.Sprintf("%s at %s", name, addr), checkFn)
}

func checker(subject string, checkFn func(ctx context.Context) error) Checker {
	return func(ctx context.Context) Check {
		check := Check{LastChecked: time.Now().UTC()}

		if err := checkFn(ctx); err != nil {
			check.Status = StatusDown
			check.Error = err.Error()
			check.Message = fmt.Sprintf("%s is unhealthy: %v", subject, err)
			return check
		}

		check.Status = StatusUp
		check.Message = subject + " is healthy"
		return check
	}
}
