// Package config loads and validates this module's configuration
// (spec.md §6's enumerated option list), following tarsy's pkg/config
// idiom: a YAML file with environment-variable expansion, a built-in
// defaults layer merged in with mergo, and a dedicated validator — trimmed
// from tarsy's agent/chain/MCP/LLM-provider registry surface (none of
// which this domain has) down to the flat option groups spec.md names.
package config

import "time"

// RetentionConfig controls audit retention (spec.md §6 retention.*).
type RetentionConfig struct {
	DefaultDays int            `yaml:"default_days"`
	ByCategory  map[string]int `yaml:"by_category"`
}

// MonitoringConfig gates the anomaly/correlation subsystem (spec.md §6
// monitoring.*).
type MonitoringConfig struct {
	RealTimeAlerts      bool `yaml:"real_time_alerts"`
	CorrelationWindowMS int  `yaml:"correlation_window_ms"`
}

// ComplianceConfig names which regulation tags audit entries may carry
// (spec.md §6 compliance.*).
type ComplianceConfig struct {
	EnabledRegulations []string `yaml:"enabled_regulations"`
}

// SecurityConfig gates audit integrity features (spec.md §6 security.*).
type SecurityConfig struct {
	DigitalSignatures bool `yaml:"digital_signatures"`
	LogIntegrity      bool `yaml:"log_integrity"`
}

// PerformanceConfig tunes the audit writer's buffering (spec.md §6
// performance.*).
type PerformanceConfig struct {
	BufferSize      int `yaml:"buffer_size"`
	FlushIntervalMS int `yaml:"flush_interval_ms"`
}

// DistributionConfig gates peer synchronization (spec.md §6
// distribution.*).
type DistributionConfig struct {
	Enabled            bool `yaml:"enabled"`
	SyncIntervalMS     int  `yaml:"sync_interval_ms"`
	ConsensusRequired  bool `yaml:"consensus_required"`
}

// ClockPruneConfig controls vector-clock pruning (spec.md §6 clock.prune.*,
// spec.md §3 VectorClock invariant (e)).
type ClockPruneConfig struct {
	MaxAgeMS   int `yaml:"max_age_ms"`
	MaxSize    int `yaml:"max_size"`
	KeepRecent int `yaml:"keep_recent"`
}

// TrustConfig seeds the trust calculator (spec.md §6 trust.*).
type TrustConfig struct {
	InitialScore float64 `yaml:"initial_score"`
}

// Config is the fully resolved, validated configuration object returned
// by Initialize.
type Config struct {
	configDir string

	Retention    RetentionConfig    `yaml:"retention"`
	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	Compliance   ComplianceConfig   `yaml:"compliance"`
	Security     SecurityConfig     `yaml:"security"`
	Performance  PerformanceConfig  `yaml:"performance"`
	Distribution DistributionConfig `yaml:"distribution"`
	ClockPrune   ClockPruneConfig   `yaml:"clock_prune"`
	Trust        TrustConfig        `yaml:"trust"`
}

// ConfigDir returns the directory Config was loaded from, empty for
// built-in-only configuration.
func (c *Config) ConfigDir() string { return c.configDir }

// FlushInterval converts Performance.FlushIntervalMS to a time.Duration
// for pkg/audit.WriterConfig.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Performance.FlushIntervalMS) * time.Millisecond
}

// CorrelationWindow converts Monitoring.CorrelationWindowMS to a
// time.Duration for pkg/anomaly.CorrelationConfig.
func (c *Config) CorrelationWindow() time.Duration {
	return time.Duration(c.Monitoring.CorrelationWindowMS) * time.Millisecond
}

// ClockMaxAge converts ClockPrune.MaxAgeMS to a time.Duration.
func (c *Config) ClockMaxAge() time.Duration {
	return time.Duration(c.ClockPrune.MaxAgeMS) * time.Millisecond
}

// SyncInterval converts Distribution.SyncIntervalMS to a time.Duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Distribution.SyncIntervalMS) * time.Millisecond
}
