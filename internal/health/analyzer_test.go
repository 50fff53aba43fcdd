package health

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
)

func TestAnalyzerOK(t *testing.T) {
	report := NewAnalyzer(metrics.NewRegistry(), logs.NewLogger(10, logs.DEBUG)).Analyze()

	assert.Equal(t, StatusOK, report.OverallStatus)
	assert.Equal(t, "Gateway is healthy", report.Summary)
	assert.Empty(t, report.Signals)
}

func TestAnalyzerFetchRetries(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.Inc(metrics.FetchRetriesTotal)

	report := NewAnalyzer(reg, logs.NewLogger(10, logs.DEBUG)).Analyze()

	assert.Equal(t, StatusDegraded, report.OverallStatus)
	assert.Contains(t, report.Signals, "Backend request retries detected")
}

func TestAnalyzerBackendUnhealthy(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.Set(metrics.BackendUnhealthy, 1)
	reg.Inc(metrics.HeartbeatFailuresTotal)

	report := NewAnalyzer(reg, logs.NewLogger(10, logs.DEBUG)).Analyze()

	assert.Equal(t, StatusCritical, report.OverallStatus, "critical wins over degraded")
	assert.Len(t, report.Signals, 2)
	assert.Len(t, report.Recommendations, 2)
}

func TestAnalyzerHealthyGaugeIsIgnored(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.Set(metrics.BackendHealthy, 1)
	reg.Set(metrics.BackendUnhealthy, 0)

	assert.Equal(t, StatusOK, NewAnalyzer(reg, logs.NewLogger(10, logs.DEBUG)).Analyze().OverallStatus)
}

func TestAnalyzerCacheStorageErrors(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.Add(metrics.CacheStorageErrorsTotal, 4)

	report := NewAnalyzer(reg, logs.NewLogger(10, logs.DEBUG)).Analyze()
	assert.Equal(t, StatusDegraded, report.OverallStatus)
	assert.Contains(t, report.Signals, "Cache storage errors detected")
}

func TestAnalyzerExhaustedRetriesInLogs(t *testing.T) {
	logger := logs.NewLogger(10, logs.DEBUG)
	analyzer := NewAnalyzer(metrics.NewRegistry(), logger)

	logger.Warn("GET /api/sheets/x: retries exhausted after 5 attempts: 503")
	logger.Warn("GET /api/sheets/x: retries exhausted after 5 attempts: 503")
	assert.Equal(t, StatusOK, analyzer.Analyze().OverallStatus, "two is below the threshold")

	logger.Info("retries exhausted")
	assert.Equal(t, StatusOK, analyzer.Analyze().OverallStatus, "only warnings count")

	logger.Warn("GET /api/sheets/y: retries exhausted after 5 attempts: 502")
	report := analyzer.Analyze()
	assert.Equal(t, StatusDegraded, report.OverallStatus)
	assert.Contains(t, report.Signals, "Repeated exhausted backend retries in logs")
}

func TestAnalyzerPanicInLogs(t *testing.T) {
	logger := logs.NewLogger(10, logs.DEBUG)
	logger.Error("panic recovered: runtime error: index out of range")

	report := NewAnalyzer(metrics.NewRegistry(), logger).Analyze()
	assert.Equal(t, StatusCritical, report.OverallStatus)
	assert.Equal(t, "Gateway health issues detected", report.Summary)
}
