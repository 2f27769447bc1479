// internal/engine/engineconfig/config.go
package engineconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/viper"

	"portfolio-workers/internal/engine/kpi"
	"portfolio-workers/internal/engine/lifecycle"
	"portfolio-workers/internal/engine/scoring"
	"portfolio-workers/internal/engine/sizing"
)

// Config is the full engine rule configuration: scoring weights, sizing and
// benefit tables, phase derivation rules, and the KPI library. Every rule the
// engine applies lives here; the engine packages carry mechanisms only.
type Config struct {
	Scoring scoring.Weights  `mapstructure:"scoring" json:"scoring"`
	Sizing  SizingConfig     `mapstructure:"sizing" json:"sizing"`
	Phases  []lifecycle.Rule `mapstructure:"phases" json:"phases"`
	KPIs    []kpi.Definition `mapstructure:"kpis" json:"kpis"`
}

// SizingConfig groups the sizing rules with the money tables they feed.
type SizingConfig struct {
	Rules              []sizing.Rule                      `mapstructure:"rules" json:"rules"`
	RoleMix            map[sizing.Size]map[string]float64 `mapstructure:"role_mix" json:"roleMix"`
	DailyRates         map[string]float64                 `mapstructure:"daily_rates" json:"dailyRates"`
	OverheadMultiplier float64                            `mapstructure:"overhead_multiplier" json:"overheadMultiplier"`
	BenefitBase        map[sizing.Size]float64            `mapstructure:"benefit_base" json:"benefitBase"`
	BenefitSpreadPct   float64                            `mapstructure:"benefit_spread_pct" json:"benefitSpreadPct"`
	Currency           string                             `mapstructure:"currency" json:"currency"`
}

// Validate checks every rule table. All violations are collected so a broken
// deploy surfaces the full damage in one startup failure instead of one field
// per restart.
func (c *Config) Validate() error {
	var problems []string

	if err := c.Scoring.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if _, err := sizing.NewRuleSet(c.Sizing.Rules); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Sizing.OverheadMultiplier <= 0 {
		problems = append(problems, fmt.Sprintf("sizing: overhead multiplier %.2f must be positive", c.Sizing.OverheadMultiplier))
	}
	if c.Sizing.BenefitSpreadPct < 0 || c.Sizing.BenefitSpreadPct >= 1 {
		problems = append(problems, fmt.Sprintf("sizing: benefit spread %.2f outside [0,1)", c.Sizing.BenefitSpreadPct))
	}
	if c.Sizing.Currency == "" {
		problems = append(problems, "sizing: currency is required")
	}
	for _, r := range c.Sizing.Rules {
		if _, ok := c.Sizing.BenefitBase[r.Target]; !ok {
			problems = append(problems, fmt.Sprintf("sizing: no benefit base for target size %q (rule %q)", r.Target, r.Name))
		}
		mix, ok := c.Sizing.RoleMix[r.Target]
		if !ok {
			problems = append(problems, fmt.Sprintf("sizing: no role mix for target size %q (rule %q)", r.Target, r.Name))
			continue
		}
		for role := range mix {
			if _, ok := c.Sizing.DailyRates[role]; !ok {
				problems = append(problems, fmt.Sprintf("sizing: role %q in %q mix has no daily rate", role, r.Target))
			}
		}
	}

	if err := lifecycle.ValidateRules(c.Phases); err != nil {
		problems = append(problems, err.Error())
	}

	seen := make(map[string]bool, len(c.KPIs))
	for _, def := range c.KPIs {
		if err := def.Validate(); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if seen[def.ID] {
			problems = append(problems, fmt.Sprintf("kpi %q: duplicate definition", def.ID))
		}
		seen[def.ID] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("engine configuration invalid (%d problems): %v", len(problems), problems)
	}
	return nil
}

// Version fingerprints the configuration. Cache keys embed the version so a
// rule change invalidates every cached score without an explicit flush.
func (c *Config) Version() string {
	raw, err := json.Marshal(c)
	if err != nil {
		return "unversioned"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

// Load reads the engine rule file at path and validates it. The engine rules
// live in their own file, separate from infrastructure config, because they
// change on a business cadence rather than a deploy cadence.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read engine config %s: %w", path, err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal engine config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
