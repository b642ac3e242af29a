package application

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy carries the tunable thresholds of the classifier and factory.
// Lower multipliers tighten the alerting horizon.
type Policy struct {
	// Expiry is how long a generated alert stays fresh for display logic.
	Expiry time.Duration
	// WarningWindowFactor scales lead time for the warning tier.
	WarningWindowFactor float64
	// HorizonFactor scales lead time for the outer actionable horizon. A
	// component further out than lead time x HorizonFactor never alerts.
	HorizonFactor float64
}

// DefaultPolicy returns the stock policy: 7-day expiry, 1.5x warning
// window, 2x actionable horizon.
func DefaultPolicy() Policy {
	return Policy{
		Expiry:              7 * 24 * time.Hour,
		WarningWindowFactor: 1.5,
		HorizonFactor:       2.0,
	}
}

// PolicyConfig is the YAML shape of a Policy. Zero fields inherit defaults.
type PolicyConfig struct {
	ExpiryDays          int     `yaml:"expiry_days"`
	WarningWindowFactor float64 `yaml:"warning_window_factor"`
	HorizonFactor       float64 `yaml:"horizon_factor"`
}

// ScheduleConfig drives the batch scheduler.
type ScheduleConfig struct {
	IntervalSeconds      int      `yaml:"interval_seconds"`
	TenantTimeoutSeconds int      `yaml:"tenant_timeout_seconds"`
	MaxConcurrentTenants int      `yaml:"max_concurrent_tenants"`
	RatePerSecond        float64  `yaml:"rate_per_second"`
	Burst                int      `yaml:"burst"`
	Tenants              []string `yaml:"tenants"`
}

// Config defines the alert engine configuration.
type Config struct {
	Defaults PolicyConfig            `yaml:"defaults"`
	Tenants  map[string]PolicyConfig `yaml:"tenants"`
	Schedule ScheduleConfig          `yaml:"schedule"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		Schedule: ScheduleConfig{
			IntervalSeconds:      getenvIntDefault("ALERTS_INTERVAL_SECONDS", 30),
			TenantTimeoutSeconds: getenvIntDefault("ALERTS_TENANT_TIMEOUT_SECONDS", 20),
			MaxConcurrentTenants: getenvIntDefault("ALERTS_MAX_CONCURRENT_TENANTS", 4),
			RatePerSecond:        getenvFloatDefault("ALERTS_TENANT_RATE", 1),
			Burst:                getenvIntDefault("ALERTS_TENANT_BURST", 2),
			Tenants:              splitCSV(os.Getenv("ALERTS_TENANTS")),
		},
	}

	if path := os.Getenv("ALERTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Schedule.IntervalSeconds <= 0 {
		return cfg, errors.New("alerts config: interval must be positive")
	}
	if cfg.Schedule.TenantTimeoutSeconds <= 0 {
		return cfg, errors.New("alerts config: tenant timeout must be positive")
	}
	if cfg.Schedule.MaxConcurrentTenants <= 0 {
		cfg.Schedule.MaxConcurrentTenants = 1
	}
	return cfg, nil
}

// PolicyForTenant resolves the effective policy for a tenant, layering the
// tenant override over the configured defaults over the stock policy.
func (c Config) PolicyForTenant(companyID string) Policy {
	policy := mergePolicy(DefaultPolicy(), c.Defaults)
	if c.Tenants != nil {
		if override, ok := c.Tenants[companyID]; ok {
			policy = mergePolicy(policy, override)
		}
	}
	return policy
}

// Interval returns the batch interval.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Schedule.IntervalSeconds) * time.Second
}

// TenantTimeout returns the per-tenant evaluation deadline.
func (c Config) TenantTimeout() time.Duration {
	return time.Duration(c.Schedule.TenantTimeoutSeconds) * time.Second
}

func mergePolicy(base Policy, override PolicyConfig) Policy {
	if override.ExpiryDays > 0 {
		base.Expiry = time.Duration(override.ExpiryDays) * 24 * time.Hour
	}
	if override.WarningWindowFactor > 0 {
		base.WarningWindowFactor = override.WarningWindowFactor
	}
	if override.HorizonFactor > 0 {
		base.HorizonFactor = override.HorizonFactor
	}
	return base
}

// PolicyProvider hands out per-tenant policies and accepts live config
// swaps from the watcher. Safe for concurrent use.
type PolicyProvider struct {
	mu  sync.RWMutex
	cfg Config
}

// NewPolicyProvider constructs a provider around an initial config.
func NewPolicyProvider(cfg Config) *PolicyProvider {
	return &PolicyProvider{cfg: cfg}
}

// ForTenant resolves the effective policy for a tenant.
func (p *PolicyProvider) ForTenant(companyID string) Policy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.PolicyForTenant(companyID)
}

// Config returns the current config snapshot.
func (p *PolicyProvider) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Update swaps in a new config.
func (p *PolicyProvider) Update(cfg Config) {
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
