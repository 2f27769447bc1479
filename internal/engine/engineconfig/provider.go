// internal/engine/engineconfig/provider.go
package engineconfig

import (
	"fmt"
	"sync/atomic"

	"portfolio-workers/internal/engine/sizing"
)

// Snapshot is one immutable, validated view of the engine rules with the
// sizing rule set pre-compiled. Handlers read a snapshot once per job so a
// concurrent rule reload never mixes old and new rules inside one evaluation.
type Snapshot struct {
	Config      *Config
	SizingRules *sizing.RuleSet
	Version     string
}

// Provider hands out configuration snapshots and supports atomic replacement.
type Provider struct {
	current atomic.Pointer[Snapshot]
}

// NewProvider builds a provider from a validated config.
func NewProvider(cfg *Config) (*Provider, error) {
	snap, err := buildSnapshot(cfg)
	if err != nil {
		return nil, err
	}
	p := &Provider{}
	p.current.Store(snap)
	return p, nil
}

// Snapshot returns the current rule snapshot. Callers must hold on to the
// returned value for the duration of one evaluation rather than re-fetching.
func (p *Provider) Snapshot() *Snapshot {
	return p.current.Load()
}

// Replace validates the new config and swaps it in atomically. In-flight
// evaluations keep their old snapshot; a failed validation leaves the current
// rules untouched.
func (p *Provider) Replace(cfg *Config) error {
	snap, err := buildSnapshot(cfg)
	if err != nil {
		return fmt.Errorf("engine config reload rejected: %w", err)
	}
	p.current.Store(snap)
	return nil
}

func buildSnapshot(cfg *Config) (*Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rules, err := sizing.NewRuleSet(cfg.Sizing.Rules)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Config: cfg, SizingRules: rules, Version: cfg.Version()}, nil
}
