package config

// enabledRegulations lists every regulation tag spec.md §6 names; the
// built-in default enables all of them.
var enabledRegulations = []string{"SOX", "GDPR", "HIPAA", "PCI-DSS"}

// Builtin returns the built-in defaults for every option spec.md §6
// enumerates. Initialize merges a user YAML file over this with mergo.
func Builtin() *Config {
	return &Config{
		Retention: RetentionConfig{
			DefaultDays: 365,
			ByCategory:  map[string]int{},
		},
		Monitoring: MonitoringConfig{
			RealTimeAlerts:      true,
			CorrelationWindowMS: 300_000,
		},
		Compliance: ComplianceConfig{
			EnabledRegulations: append([]string{}, enabledRegulations...),
		},
		Security: SecurityConfig{
			DigitalSignatures: true,
			LogIntegrity:      true,
		},
		Performance: PerformanceConfig{
			BufferSize:      1000,
			FlushIntervalMS: 30_000,
		},
		Distribution: DistributionConfig{
			Enabled:           false,
			SyncIntervalMS:    60_000,
			ConsensusRequired: false,
		},
		ClockPrune: ClockPruneConfig{
			MaxAgeMS:   24 * 60 * 60 * 1000,
			MaxSize:    1000,
			KeepRecent: 50,
		},
		Trust: TrustConfig{
			InitialScore: 0.5,
		},
	}
}
