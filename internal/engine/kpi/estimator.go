// internal/engine/kpi/estimator.go
package kpi

import (
	"fmt"

	"portfolio-workers/internal/engine/levers"
)

// Direction states whether a higher KPI value is an improvement.
type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
)

// Confidence labels for maturity-rule estimates.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Range is a min/max value band.
type Range struct {
	Min float64 `mapstructure:"min" json:"min"`
	Max float64 `mapstructure:"max" json:"max"`
}

// Benchmark is industry context for one process. It is attached to estimates
// for display only and never affects the numeric range.
type Benchmark struct {
	BaselineValue   float64          `mapstructure:"baseline_value" json:"baselineValue"`
	BaselineUnit    string           `mapstructure:"baseline_unit" json:"baselineUnit"`
	Source          string           `mapstructure:"source" json:"source"`
	Improvement     Range            `mapstructure:"improvement" json:"improvement"`
	TypicalTimeline string           `mapstructure:"typical_timeline" json:"typicalTimeline"`
	TierRanges      map[string]Range `mapstructure:"tier_ranges" json:"tierRanges,omitempty"`
}

// Condition is one lever threshold inside a maturity rule. Supported
// operators are ">=", "<=" and "==".
type Condition struct {
	Lever string `mapstructure:"lever" json:"lever"`
	Op    string `mapstructure:"op" json:"op"`
	Value int    `mapstructure:"value" json:"value"`
}

func (c Condition) holds(profile *levers.Profile) bool {
	v, ok := profile.Value(c.Lever)
	if !ok {
		return false
	}
	switch c.Op {
	case ">=":
		return v >= c.Value
	case "<=":
		return v <= c.Value
	case "==":
		return v == c.Value
	}
	return false
}

// MaturityRule selects a value range when every condition holds. Rules are
// declared most-advanced first and evaluated top-to-bottom: the order encodes
// precedence, so a profile satisfying an advanced tier is never downgraded by
// a looser foundational catch-all further down the list.
type MaturityRule struct {
	Level      string      `mapstructure:"level" json:"level"`
	Conditions []Condition `mapstructure:"conditions" json:"conditions"`
	Estimate   Range       `mapstructure:"estimate" json:"estimate"`
	Confidence string      `mapstructure:"confidence" json:"confidence"`
}

func (r MaturityRule) matches(profile *levers.Profile) bool {
	for _, c := range r.Conditions {
		if !c.holds(profile) {
			return false
		}
	}
	return true
}

// Definition is one KPI in the library.
type Definition struct {
	ID            string               `mapstructure:"id" json:"id"`
	Name          string               `mapstructure:"name" json:"name"`
	Unit          string               `mapstructure:"unit" json:"unit"`
	Direction     Direction            `mapstructure:"direction" json:"direction"`
	Processes     []string             `mapstructure:"processes" json:"processes"`
	Benchmarks    map[string]Benchmark `mapstructure:"benchmarks" json:"benchmarks,omitempty"`
	MaturityRules []MaturityRule       `mapstructure:"maturity_rules" json:"maturityRules"`
}

// Validate enforces the library invariants at configuration load.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("kpi definition with empty id")
	}
	if len(d.MaturityRules) == 0 {
		return fmt.Errorf("kpi %q: empty maturity rule list", d.ID)
	}
	switch d.Direction {
	case Increase, Decrease:
	default:
		return fmt.Errorf("kpi %q: unknown direction %q", d.ID, d.Direction)
	}
	for _, r := range d.MaturityRules {
		for _, c := range r.Conditions {
			switch c.Op {
			case ">=", "<=", "==":
			default:
				return fmt.Errorf("kpi %q: maturity rule %q has unknown operator %q", d.ID, r.Level, c.Op)
			}
		}
	}
	return nil
}

func (d Definition) appliesTo(process string) bool {
	for _, p := range d.Processes {
		if p == process {
			return true
		}
	}
	return false
}

// Estimate is the outcome of matching one KPI against a lever profile.
type Estimate struct {
	KpiID         string     `json:"kpiId"`
	Min           float64    `json:"min"`
	Max           float64    `json:"max"`
	Confidence    string     `json:"confidence"`
	MaturityLevel string     `json:"maturityLevel"`
	Benchmark     *Benchmark `json:"benchmark,omitempty"`
}

// EstimateKpi matches the profile against the KPI's maturity rules. A nil
// estimate with a nil error means the KPI is not applicable: either the
// process is outside the KPI's scope or no maturity rule matched. That is a
// typed no-result outcome, not a failure. The matched rule's range is
// returned verbatim; the process benchmark rides along for display only.
func EstimateKpi(def Definition, process string, profile *levers.Profile) (*Estimate, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if !def.appliesTo(process) {
		return nil, nil
	}

	for _, rule := range def.MaturityRules {
		if !rule.matches(profile) {
			continue
		}
		est := &Estimate{
			KpiID:         def.ID,
			Min:           rule.Estimate.Min,
			Max:           rule.Estimate.Max,
			Confidence:    rule.Confidence,
			MaturityLevel: rule.Level,
		}
		if bm, ok := def.Benchmarks[process]; ok {
			b := bm
			est.Benchmark = &b
		}
		return est, nil
	}
	return nil, nil
}
