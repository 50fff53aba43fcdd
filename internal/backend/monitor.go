// Package backend tracks whether the spreadsheet backend is reachable and
// keeps it awake.
package backend

import (
	"sync"
	"time"

	"oma-gateway/internal/metrics"
)

type State int

const (
	Healthy State = iota
	Unhealthy
)

func (s State) String() string {
	if s == Unhealthy {
		return "unhealthy"
	}
	return "healthy"
}

// Status is a point-in-time view of the monitor.
type Status struct {
	State        string        `json:"state"`
	FailureCount int           `json:"failureCount"`
	SuccessCount int           `json:"successCount"`
	LastLatency  time.Duration `json:"lastLatencyNs"`
	LastError    string        `json:"lastError,omitempty"`
	LastCheck    time.Time     `json:"lastCheck"`
}

// Monitor turns individual check outcomes into a healthy/unhealthy state
// using consecutive-count thresholds. The backend starts healthy.
type Monitor struct {
	mu      sync.RWMutex
	policy  HealthPolicy
	metrics *metrics.Registry

	state     State
	failures  int
	successes int
	latency   time.Duration
	lastErr   string
	lastCheck time.Time
}

func NewMonitor(policy HealthPolicy, reg *metrics.Registry) *Monitor {
	m := &Monitor{policy: policy, metrics: reg}
	m.publish()
	return m
}

// MarkFailure records a failed check.
func (m *Monitor) MarkFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures++
	m.successes = 0
	m.lastCheck = time.Now()
	if err != nil {
		m.lastErr = err.Error()
	}
	if m.failures >= m.policy.FailureThreshold {
		m.state = Unhealthy
	}
	m.publish()
}

// MarkSuccess records a successful check and its latency.
func (m *Monitor) MarkSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.successes++
	m.failures = 0
	m.latency = latency
	m.lastErr = ""
	m.lastCheck = time.Now()
	if m.successes >= m.policy.SuccessThreshold {
		m.state = Healthy
	}
	m.publish()
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == Healthy
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Status{
		State:        m.state.String(),
		FailureCount: m.failures,
		SuccessCount: m.successes,
		LastLatency:  m.latency,
		LastError:    m.lastErr,
		LastCheck:    m.lastCheck,
	}
}

// publish mirrors the state into the healthy/unhealthy gauges. Callers
// hold mu.
func (m *Monitor) publish() {
	if m.state == Healthy {
		m.metrics.Set(metrics.BackendHealthy, 1)
		m.metrics.Set(metrics.BackendUnhealthy, 0)
		return
	}
	m.metrics.Set(metrics.BackendHealthy, 0)
	m.metrics.Set(metrics.BackendUnhealthy, 1)
}
