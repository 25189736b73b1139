package goFlags

import "errors"

// Config controls registry construction and in-process metrics.
//
// Config values are copied into the registry at Build time and never read again.
type Config struct {
	Registry RegistryConfig
	Metrics  MetricsConfig
}

/*
====================================
REGISTRY CONFIG
====================================
*/

// RegistryConfig bounds the registry.
type RegistryConfig struct {
	// MaxFlags caps the number of bit positions (primitives other than the
	// sentinel). Zero means unbounded.
	MaxFlags int
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig enables the lock-free counters in [Metrics].
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration used by [Build]: no flag limit and
// metrics disabled.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Registry: RegistryConfig{
			MaxFlags: 0,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first inconsistent setting in c.
func (c *Config) Validate() error {
	if c.Registry.MaxFlags < 0 {
		return errors.New("Registry MaxFlags must be >= 0")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}
