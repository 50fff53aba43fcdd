package fetch

import "time"

// RetryPolicy controls how one logical request is retried.
type RetryPolicy struct {
	MaxRetries   int           // total attempts, values below 1 mean 1
	InitialDelay time.Duration // sleep before the second attempt
	MaxDelay     time.Duration // upper bound on any single sleep
	Multiplier   float64       // growth factor between sleeps
	Retryable    func(error) bool
}

// Config is the client-wide configuration.
type Config struct {
	Retry RetryPolicy

	// Timeout bounds a single attempt. Zero means no per-request deadline;
	// the only bound is then the retry schedule itself.
	Timeout time.Duration

	// RateLimit is the outbound request rate in requests per second.
	// Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// DefaultRetryPolicy is the policy used when a call passes no options:
// five attempts, 2s first delay growing by 1.5x up to 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   5,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   1.5,
		Retryable:    IsRetryable,
	}
}

func DefaultConfig() Config {
	return Config{
		Retry:     DefaultRetryPolicy(),
		RateBurst: 1,
	}
}

// Option adjusts the retry policy of a single call.
type Option func(*RetryPolicy)

// WithRetries overrides the attempt count and first delay of one call,
// keeping the cap and multiplier of the client policy.
func WithRetries(maxRetries int, initialDelay time.Duration) Option {
	return func(p *RetryPolicy) {
		p.MaxRetries = maxRetries
		p.InitialDelay = initialDelay
	}
}

// WithPolicy replaces the whole policy for one call.
func WithPolicy(policy RetryPolicy) Option {
	return func(p *RetryPolicy) {
		*p = policy
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries < 1 {
		p.MaxRetries = 1
	}
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1.5
	}
	if p.Retryable == nil {
		p.Retryable = IsRetryable
	}
	return p
}

// next returns the delay that follows d.
func (p RetryPolicy) next(d time.Duration) time.Duration {
	n := time.Duration(float64(d) * p.Multiplier)
	if n > p.MaxDelay {
		n = p.MaxDelay
	}
	return n
}

// Delays lists the sleeps a call that never succeeds goes through.
// It has MaxRetries-1 elements.
func (p RetryPolicy) Delays() []time.Duration {
	p = p.normalized()
	out := make([]time.Duration, 0, p.MaxRetries-1)
	d := min(p.InitialDelay, p.MaxDelay)
	for i := 1; i < p.MaxRetries; i++ {
		out = append(out, d)
		d = p.next(d)
	}
	return out
}
