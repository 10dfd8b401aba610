package session

import (
	"fmt"
	"log/slog"
	"time"

	"session-keeper/pkg/config"
	"session-keeper/pkg/resilience"
)

// Config holds the manager's tuning knobs. Zero values are filled in by
// Validate; LoadConfigFromEnv reads every knob from the environment with
// sane defaults.
type Config struct {
	// MaxSessions caps how many sessions may be live at once.
	MaxSessions int

	// IdleTTL is how long a session may go unused before Sweep closes it.
	IdleTTL time.Duration

	// CreateRate and CreateBurst throttle session creation. Rate is in
	// sessions per second.
	CreateRate  float64
	CreateBurst int

	// LaunchPolicy and NavigatePolicy govern retries against the runtime.
	LaunchPolicy   resilience.RetryPolicy
	NavigatePolicy resilience.RetryPolicy

	// BreakerFailureThreshold and BreakerResetTimeout configure the
	// circuit breaker shared by the launch and navigate executors.
	BreakerFailureThreshold int
	BreakerResetTimeout     time.Duration

	// Clock and Metrics are injected into the resilience layer.
	// Nil selects the system clock and no-op metrics.
	Clock   resilience.Clock
	Metrics resilience.Metrics
}

// DefaultConfig returns the manager defaults used when no environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		MaxSessions:             32,
		IdleTTL:                 30 * time.Minute,
		CreateRate:              2.0,
		CreateBurst:             5,
		LaunchPolicy:            resilience.LaunchPolicy(),
		NavigatePolicy:          resilience.NavigationPolicy(),
		BreakerFailureThreshold: 5,
		BreakerResetTimeout:     30 * time.Second,
	}
}

// LoadConfigFromEnv builds a Config from KEEPER_* environment variables,
// falling back to DefaultConfig for anything unset or malformed.
func LoadConfigFromEnv(logger *slog.Logger) Config {
	cfg := DefaultConfig()

	cfg.MaxSessions = config.GetEnvInt("KEEPER_MAX_SESSIONS", cfg.MaxSessions)
	cfg.IdleTTL = config.GetEnvDuration("KEEPER_IDLE_TTL", cfg.IdleTTL)
	cfg.CreateRate = config.GetEnvFloat("KEEPER_CREATE_RATE", cfg.CreateRate)
	cfg.CreateBurst = config.GetEnvInt("KEEPER_CREATE_BURST", cfg.CreateBurst)

	cfg.BreakerFailureThreshold = config.GetEnvInt("KEEPER_BREAKER_THRESHOLD", cfg.BreakerFailureThreshold)
	cfg.BreakerResetTimeout = config.GetEnvDuration("KEEPER_BREAKER_RESET_TIMEOUT", cfg.BreakerResetTimeout)

	cfg.LaunchPolicy.MaxAttempts = config.GetEnvInt("KEEPER_LAUNCH_MAX_ATTEMPTS", cfg.LaunchPolicy.MaxAttempts)
	cfg.LaunchPolicy.BaseDelay = config.GetEnvDuration("KEEPER_LAUNCH_BASE_DELAY", cfg.LaunchPolicy.BaseDelay)
	cfg.LaunchPolicy.MaxDelay = config.GetEnvDuration("KEEPER_LAUNCH_MAX_DELAY", cfg.LaunchPolicy.MaxDelay)

	cfg.NavigatePolicy.MaxAttempts = config.GetEnvInt("KEEPER_NAV_MAX_ATTEMPTS", cfg.NavigatePolicy.MaxAttempts)
	cfg.NavigatePolicy.BaseDelay = config.GetEnvDuration("KEEPER_NAV_BASE_DELAY", cfg.NavigatePolicy.BaseDelay)
	cfg.NavigatePolicy.MaxDelay = config.GetEnvDuration("KEEPER_NAV_MAX_DELAY", cfg.NavigatePolicy.MaxDelay)

	if err := cfg.Validate(); err != nil {
		logger.Warn("invalid manager configuration, using defaults",
			slog.String("error", err.Error()))
		return DefaultConfig()
	}
	return cfg
}

// Validate checks the configuration and fills in zero values.
func (c *Config) Validate() error {
	if c.MaxSessions <= 0 {
		return fmt.Errorf("max sessions must be positive, got %d", c.MaxSessions)
	}
	if err := config.ValidatePositiveDuration(c.IdleTTL); err != nil {
		return fmt.Errorf("idle ttl: %w", err)
	}
	if c.CreateRate <= 0 {
		return fmt.Errorf("create rate must be positive, got %g", c.CreateRate)
	}
	if c.CreateBurst <= 0 {
		return fmt.Errorf("create burst must be positive, got %d", c.CreateBurst)
	}
	if err := c.LaunchPolicy.Validate(); err != nil {
		return fmt.Errorf("launch policy: %w", err)
	}
	if err := c.NavigatePolicy.Validate(); err != nil {
		return fmt.Errorf("navigate policy: %w", err)
	}
	if c.BreakerFailureThreshold <= 0 {
		return fmt.Errorf("breaker failure threshold must be positive, got %d", c.BreakerFailureThreshold)
	}
	if err := config.ValidatePositiveDuration(c.BreakerResetTimeout); err != nil {
		return fmt.Errorf("breaker reset timeout: %w", err)
	}
	return nil
}
