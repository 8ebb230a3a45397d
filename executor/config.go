package executor

import "time"

// Default tuning constants
const (
	// Retry configuration
	DefaultMaxRetries = 10
	DefaultBaseDelay  = 30 * time.Second
	DefaultMaxDelay   = 5 * time.Minute

	// Throttle configuration
	DefaultIndividualInterval = 100 * time.Millisecond
	DefaultBatchInterval      = 1 * time.Second

	// Cache configuration
	DefaultCacheTTL      = 80 * time.Second
	DefaultCacheCapacity = 128
)

// RetryConfig defines retry behavior for remote calls
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// BaseDelay is the wait before the first retry and the jitter bound.
	BaseDelay time.Duration
	// MaxDelay caps the backoff delay when Exponential is set.
	MaxDelay time.Duration
	// Exponential doubles the delay on each retry instead of keeping it fixed.
	Exponential bool
}

// ThrottleConfig defines the minimum interval between remote calls,
// separately for individual calls and queued/batch calls.
type ThrottleConfig struct {
	IndividualInterval time.Duration
	BatchInterval      time.Duration
}

// CacheConfig defines the metadata cache bounds
type CacheConfig struct {
	TTL      time.Duration
	Capacity int
}

// Config contains all executor tuning knobs
type Config struct {
	Retry    RetryConfig
	Throttle ThrottleConfig
	Cache    CacheConfig
}

// DefaultConfig provides sensible defaults
var DefaultConfig = Config{
	Retry: RetryConfig{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	},
	Throttle: ThrottleConfig{
		IndividualInterval: DefaultIndividualInterval,
		BatchInterval:      DefaultBatchInterval,
	},
	Cache: CacheConfig{
		TTL:      DefaultCacheTTL,
		Capacity: DefaultCacheCapacity,
	},
}
