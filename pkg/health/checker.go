// Package health reports whether the dashboard and its backing store are
// able to serve requests.
package health

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/qargo/dashboard/pkg/state"
)

// Status represents the health status of a service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// DefaultTimeout bounds checks registered without a timeout.
const DefaultTimeout = 5 * time.Second

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Status     Status `json:"status"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Report is the overall health status.
type Report struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckFunc checks one dependency.
type CheckFunc func(ctx context.Context) error

// Check defines a single health check.
type Check struct {
	Name     string
	Check    CheckFunc
	Timeout  time.Duration
	Critical bool // failure makes the overall status unhealthy
}

// Checker manages health checks for the application.
type Checker struct {
	checks  []Check
	version string
	mu      sync.RWMutex
}

// NewChecker creates a health checker reporting version.
func NewChecker(version string) *Checker {
	return &Checker{version: version}
}

// AddCheck adds a non-critical health check.
func (hc *Checker) AddCheck(name string, check CheckFunc, timeout time.Duration) {
	hc.add(Check{Name: name, Check: check, Timeout: timeout})
}

// AddCriticalCheck adds a check whose failure makes the service unhealthy.
func (hc *Checker) AddCriticalCheck(name string, check CheckFunc, timeout time.Duration) {
	hc.add(Check{Name: name, Check: check, Timeout: timeout, Critical: true})
}

func (hc *Checker) add(c Check) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks = append(hc.checks, c)
}

// Run runs all checks concurrently and aggregates their results.
func (hc *Checker) Run(ctx context.Context) Report {
	hc.mu.RLock()
	checks := make([]Check, len(hc.checks))
	copy(checks, hc.checks)
	hc.mu.RUnlock()

	report := Report{
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now(),
		Version:   hc.version,
	}

	type outcome struct {
		name     string
		result   CheckResult
		critical bool
	}

	results := make(chan outcome, len(checks))
	var wg sync.WaitGroup

	for _, c := range checks {
		wg.Add(1)
		go func(check Check) {
			defer wg.Done()

			timeout := check.Timeout
			if timeout <= 0 {
				timeout = DefaultTimeout
			}

			start := time.Now()
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			err := check.Check(checkCtx)

			result := CheckResult{
				Status:     StatusHealthy,
				DurationMS: time.Since(start).Milliseconds(),
			}
			if err != nil {
				result.Status = StatusUnhealthy
				result.Error = err.Error()
			}
			results <- outcome{name: check.Name, result: result, critical: check.Critical}
		}(c)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		report.Checks[r.name] = r.result

		if r.result.Status != StatusHealthy {
			if r.critical {
				report.Status = StatusUnhealthy
			} else if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		}
	}

	return report
}

// Handler serves the health report as JSON. It answers 503 when a critical
// check fails and 200 otherwise.
func (hc *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := hc.Run(r.Context())

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if report.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(report)
	})
}

// canaryKey is written and removed by StoreCheck.
const canaryKey = "health:canary"

// StoreCheck verifies that store accepts a write and returns it.
func StoreCheck(store state.Store) CheckFunc {
	return func(ctx context.Context) error {
		want := []byte(time.Now().UTC().Format(time.RFC3339Nano))
		if err := store.Set(ctx, canaryKey, want, time.Minute); err != nil {
			return fmt.Errorf("write canary: %w", err)
		}
		defer store.Delete(ctx, canaryKey)

		got, err := store.Get(ctx, canaryKey)
		if err != nil {
			return fmt.Errorf("read canary: %w", err)
		}
		if !bytes.Equal(got, want) {
			return fmt.Errorf("canary value mismatch")
		}
		return nil
	}
}

// CapacityCheck fails when count reaches max.
func CapacityCheck(count func() int, max int) CheckFunc {
	return func(ctx context.Context) error {
		if n := count(); max > 0 && n >= max {
			return fmt.Errorf("at capacity: %d of %d connections", n, max)
		}
		return nil
	}
}
