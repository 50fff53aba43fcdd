package health

import (
	"strings"

	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
)

const (
	logWindow           = 100
	exhaustedThreshold  = 3
	exhaustedLogMessage = "retries exhausted"
)

// Analyzer converts metrics and logs into a Report.
type Analyzer struct {
	metrics *metrics.Registry
	logger  *logs.Logger
	rules   []Rule
}

func NewAnalyzer(reg *metrics.Registry, logger *logs.Logger) *Analyzer {
	return &Analyzer{metrics: reg, logger: logger, rules: DefaultRules()}
}

func (a *Analyzer) Analyze() Report {
	snapshot := a.metrics.Snapshot()

	var (
		signals         = []string{}
		recommendations = []string{}
		status          = StatusOK
	)

	for _, rule := range a.rules {
		res := rule(snapshot)
		if !res.Triggered {
			continue
		}
		signals = append(signals, res.Signal)
		recommendations = append(recommendations, res.Recommendation)
		status = escalate(status, res.Severity)
	}

	// log signals
	exhausted, panics := 0, 0
	for _, e := range a.logger.GetLast(logWindow) {
		if e.Level == logs.WARN && strings.Contains(e.Message, exhaustedLogMessage) {
			exhausted++
		}
		if e.Level == logs.ERROR && strings.Contains(e.Message, "panic") {
			panics++
		}
	}

	if exhausted >= exhaustedThreshold {
		signals = append(signals, "Repeated exhausted backend retries in logs")
		recommendations = append(recommendations, "Backend is failing persistently; check its logs and quota")
		status = escalate(status, StatusDegraded)
	}
	if panics > 0 {
		signals = append(signals, "Handler panics detected in logs")
		recommendations = append(recommendations, "Inspect the recovered panics and fix the failing handler")
		status = StatusCritical
	}

	summary := "Gateway is healthy"
	if status != StatusOK {
		summary = "Gateway health issues detected"
	}
	return Report{
		OverallStatus:   status,
		Summary:         summary,
		Signals:         signals,
		Recommendations: recommendations,
	}
}
