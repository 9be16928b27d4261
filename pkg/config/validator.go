package config

import (
	"fmt"

	trusterrors "github.com/codeready-toolchain/trustmesh/pkg/shared/errors"
)

var validRegulations = map[string]bool{"SOX": true, "GDPR": true, "HIPAA": true, "PCI-DSS": true}

// Validate checks every field spec.md §6 documents an effect for,
// mirroring tarsy's Validator.ValidateAll shape: one pass per config
// section, first error wins.
func Validate(cfg *Config) error {
	if err := validateRetention(cfg.Retention); err != nil {
		return err
	}
	if err := validateMonitoring(cfg.Monitoring); err != nil {
		return err
	}
	if err := validateCompliance(cfg.Compliance); err != nil {
		return err
	}
	if err := validatePerformance(cfg.Performance); err != nil {
		return err
	}
	if err := validateClockPrune(cfg.ClockPrune); err != nil {
		return err
	}
	if err := validateTrust(cfg.Trust); err != nil {
		return err
	}
	return nil
}

func validateRetention(r RetentionConfig) error {
	if r.DefaultDays <= 0 {
		return trusterrors.New(trusterrors.KindInvalidInput, "retention.default_days must be positive")
	}
	for category, days := range r.ByCategory {
		if days <= 0 {
			return trusterrors.New(trusterrors.KindInvalidInput, fmt.Sprintf("retention.by_category[%s] must be positive", category))
		}
	}
	return nil
}

func validateMonitoring(m MonitoringConfig) error {
	if m.CorrelationWindowMS <= 0 {
		return trusterrors.New(trusterrors.KindInvalidInput, "monitoring.correlation_window_ms must be positive")
	}
	return nil
}

func validateCompliance(c ComplianceConfig) error {
	for _, reg := range c.EnabledRegulations {
		if !validRegulations[reg] {
			return trusterrors.New(trusterrors.KindInvalidInput, fmt.Sprintf("compliance.enabled_regulations: unknown regulation %q", reg))
		}
	}
	return nil
}

func validatePerformance(p PerformanceConfig) error {
	if p.BufferSize <= 0 {
		return trusterrors.New(trusterrors.KindInvalidInput, "performance.buffer_size must be positive")
	}
	if p.FlushIntervalMS <= 0 {
		return trusterrors.New(trusterrors.KindInvalidInput, "performance.flush_interval_ms must be positive")
	}
	return nil
}

func validateClockPrune(c ClockPruneConfig) error {
	if c.MaxAgeMS <= 0 {
		return trusterrors.New(trusterrors.KindInvalidInput, "clock_prune.max_age_ms must be positive")
	}
	if c.MaxSize <= 0 {
		return trusterrors.New(trusterrors.KindInvalidInput, "clock_prune.max_size must be positive")
	}
	if c.KeepRecent < 0 {
		return trusterrors.New(trusterrors.KindInvalidInput, "clock_prune.keep_recent must not be negative")
	}
	return nil
}

func validateTrust(t TrustConfig) error {
	if t.InitialScore < 0 || t.InitialScore > 1 {
		return trusterrors.New(trusterrors.KindInvalidInput, "trust.initial_score must be within [0,1]")
	}
	return nil
}
