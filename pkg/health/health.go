package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Status is the outcome of a check, or of a set of checks.
type Status int

const (
	StatusHealthy Status = iota
	StatusDegraded
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	}
	return "unknown"
}

// CheckFunc performs a health check. The returned detail is reported on
// success, e.g. a server version.
type CheckFunc func(ctx context.Context) (string, error)

// Check represents a single health check result
type Check struct {
	Name        string
	Status      Status
	Message     string
	Latency     time.Duration
	LastChecked time.Time
}

// Checker collects the results of named checks
type Checker struct {
	mu          sync.RWMutex
	checks      map[string]*Check
	lastHealthy time.Time
}

// NewChecker creates a new health checker
func NewChecker() *Checker {
	return &Checker{
		checks:      make(map[string]*Check),
		lastHealthy: time.Now(),
	}
}

// RunCheck executes a check and records its result.
func (c *Checker) RunCheck(ctx context.Context, name string, fn CheckFunc) *Check {
	start := time.Now()
	detail, err := fn(ctx)

	check := &Check{
		Name:        name,
		Status:      StatusHealthy,
		Message:     detail,
		Latency:     time.Since(start),
		LastChecked: time.Now(),
	}
	if check.Message == "" {
		check.Message = "OK"
	}
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
	if c.isHealthy() {
		c.lastHealthy = time.Now()
	}
	copied := *check
	return &copied
}

// GetOverallStatus is healthy when every check passed, unhealthy when all
// failed and degraded otherwise.
func (c *Checker) GetOverallStatus() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.checks) == 0 {
		return StatusHealthy
	}

	unhealthyCount := 0
	for _, check := range c.checks {
		if check.Status == StatusUnhealthy {
			unhealthyCount++
		}
	}

	if unhealthyCount == 0 {
		return StatusHealthy
	} else if unhealthyCount < len(c.checks) {
		return StatusDegraded
	}
	return StatusUnhealthy
}

// GetAllChecks returns all check results ordered by name
func (c *Checker) GetAllChecks() []*Check {
	c.mu.RLock()
	defer c.mu.RUnlock()

	checks := make([]*Check, 0, len(c.checks))
	for _, check := range c.checks {
		checkCopy := *check
		checks = append(checks, &checkCopy)
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	return checks
}

// GetLastHealthyTime returns the last time all checks were healthy
func (c *Checker) GetLastHealthyTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastHealthy
}

func (c *Checker) isHealthy() bool {
	for _, check := range c.checks {
		if check.Status != StatusHealthy {
			return false
		}
	}
	return true
}
