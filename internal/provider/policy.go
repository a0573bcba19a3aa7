package provider

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/domainhound/domainhound/internal/resilience"
)

// ProviderPolicy tunes one provider's ceilings and retry behavior. Zero
// values fall back to the policy-file defaults, then to package defaults.
type ProviderPolicy struct {
	// Ceilings. MaxInFlight bounds simultaneous calls, RPS/Burst bound the
	// request rate. Both are enforced on every attempt, retries included.
	MaxInFlight int     `yaml:"max_in_flight"`
	RPS         float64 `yaml:"rps"`
	Burst       int     `yaml:"burst"`

	// Retry tuning.
	MaxAttempts      int     `yaml:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction"`

	// Breaker tuning.
	FailureThreshold int `yaml:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs"`
}

func (p ProviderPolicy) retryConfig() resilience.RetryConfig {
	return resilience.FromConfig(p.MaxAttempts, p.InitialBackoffMs, p.MaxBackoffMs, p.Multiplier, p.JitterFraction)
}

func (p ProviderPolicy) breakerConfig() resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig()
	if p.FailureThreshold > 0 {
		cfg.FailureThreshold = p.FailureThreshold
	}
	if p.ResetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(p.ResetTimeoutSecs) * time.Second
	}
	return cfg
}

// Policy is the full per-provider policy set for a run.
type Policy struct {
	Defaults    ProviderPolicy `yaml:"defaults"`
	Registrar   ProviderPolicy `yaml:"registrar"`
	SearchIndex ProviderPolicy `yaml:"search_index"`
	Archive     ProviderPolicy `yaml:"archive"`
}

// DefaultPolicy returns the built-in ceilings: the registrar and search
// index are strict commercial APIs, the archive tolerates a little more.
func DefaultPolicy() Policy {
	defaults := ProviderPolicy{
		MaxInFlight:      2,
		RPS:              2,
		Burst:            2,
		MaxAttempts:      3,
		InitialBackoffMs: 500,
		MaxBackoffMs:     30000,
		Multiplier:       2.0,
		JitterFraction:   0.25,
		FailureThreshold: 5,
		ResetTimeoutSecs: 30,
	}
	p := Policy{
		Defaults:    defaults,
		Registrar:   defaults,
		SearchIndex: defaults,
		Archive:     defaults,
	}
	p.SearchIndex.RPS = 1 // CSE free tier: stay conservative
	p.Archive.MaxInFlight = 4
	p.Archive.RPS = 5
	p.Archive.Burst = 5
	return p
}

// LoadPolicy reads a policy YAML file and layers it over the defaults.
// The file has a top-level "providers" key:
//
//	providers:
//	  defaults:
//	    max_attempts: 3
//	  search_index:
//	    rps: 0.5
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, eris.Wrapf(err, "provider: read policy %s", path)
	}

	var wrapper struct {
		Providers Policy `yaml:"providers"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Policy{}, eris.Wrap(err, "provider: parse policy")
	}

	base := DefaultPolicy()
	loaded := wrapper.Providers
	defaults := overlay(base.Defaults, loaded.Defaults)
	return Policy{
		Defaults:    defaults,
		Registrar:   overlay(defaults, loaded.Registrar),
		SearchIndex: overlay(defaults, loaded.SearchIndex),
		Archive:     overlay(defaults, loaded.Archive),
	}, nil
}

// overlay fills zero fields of p from base.
func overlay(base, p ProviderPolicy) ProviderPolicy {
	if p.MaxInFlight <= 0 {
		p.MaxInFlight = base.MaxInFlight
	}
	if p.RPS <= 0 {
		p.RPS = base.RPS
	}
	if p.Burst <= 0 {
		p.Burst = base.Burst
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = base.MaxAttempts
	}
	if p.InitialBackoffMs <= 0 {
		p.InitialBackoffMs = base.InitialBackoffMs
	}
	if p.MaxBackoffMs <= 0 {
		p.MaxBackoffMs = base.MaxBackoffMs
	}
	if p.Multiplier <= 0 {
		p.Multiplier = base.Multiplier
	}
	if p.JitterFraction <= 0 {
		p.JitterFraction = base.JitterFraction
	}
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = base.FailureThreshold
	}
	if p.ResetTimeoutSecs <= 0 {
		p.ResetTimeoutSecs = base.ResetTimeoutSecs
	}
	return p
}
