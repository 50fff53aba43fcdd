package backend

import "time"

// HealthPolicy decides when the backend counts as down or recovered.
type HealthPolicy struct {
	FailureThreshold int // consecutive failures to mark unhealthy
	SuccessThreshold int // consecutive successes to mark healthy again
}

type Config struct {
	Health HealthPolicy
	// KeepAliveInterval is the wake-up ping period. Hosted backends sleep
	// after about fifteen idle minutes.
	KeepAliveInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Health: HealthPolicy{
			FailureThreshold: 3,
			SuccessThreshold: 2,
		},
		KeepAliveInterval: 10 * time.Minute,
	}
}
