package health

import "oma-gateway/internal/metrics"

// RuleResult is the outcome of one rule.
type RuleResult struct {
	Triggered      bool
	Signal         string
	Recommendation string
	Severity       Status
}

// Rule evaluates a metrics snapshot.
type Rule func(snapshot map[string]int64) RuleResult

func counterRule(key metrics.MetricKey, severity Status, signal, recommendation string) Rule {
	return func(snapshot map[string]int64) RuleResult {
		if snapshot[string(key)] <= 0 {
			return RuleResult{}
		}
		return RuleResult{
			Triggered:      true,
			Signal:         signal,
			Recommendation: recommendation,
			Severity:       severity,
		}
	}
}

var (
	// FetchRetryRule fires once any backend call needed a retry.
	FetchRetryRule = counterRule(metrics.FetchRetriesTotal, StatusDegraded,
		"Backend request retries detected",
		"Check backend latency and whether the host is sleeping")

	// BackendUnhealthyRule fires while the monitor holds the backend down.
	BackendUnhealthyRule = counterRule(metrics.BackendUnhealthy, StatusCritical,
		"Backend is unreachable",
		"Verify the backend URL and that the spreadsheet service is running")

	HeartbeatFailureRule = counterRule(metrics.HeartbeatFailuresTotal, StatusDegraded,
		"Keep-alive ping failures detected",
		"Check backend availability and the keep-alive interval")

	CacheStorageRule = counterRule(metrics.CacheStorageErrorsTotal, StatusDegraded,
		"Cache storage errors detected",
		"Inspect the cache storage driver; responses are not being persisted")
)

// DefaultRules is the rule set used by NewAnalyzer.
func DefaultRules() []Rule {
	return []Rule{FetchRetryRule, BackendUnhealthyRule, HeartbeatFailureRule, CacheStorageRule}
}
