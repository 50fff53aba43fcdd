// Package health turns the metrics snapshot and recent log lines into a
// coarse gateway health report.
package health

type Status string

const (
	StatusOK       Status = "OK"
	StatusDegraded Status = "DEGRADED"
	StatusCritical Status = "CRITICAL"
)

// rank orders statuses for escalation.
func (s Status) rank() int {
	switch s {
	case StatusCritical:
		return 2
	case StatusDegraded:
		return 1
	}
	return 0
}

// escalate returns the worse of a and b.
func escalate(a, b Status) Status {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

type Report struct {
	OverallStatus   Status   `json:"overall_status"`
	Summary         string   `json:"summary"`
	Signals         []string `json:"signals"`
	Recommendations []string `json:"recommendations"`
}
