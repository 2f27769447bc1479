// internal/engine/sizing/sizing.go
package sizing

import (
	"fmt"
	"sort"
)

// Size is the effort-sizing tier for a use case.
type Size string

const (
	XS Size = "XS"
	S  Size = "S"
	M  Size = "M"
	L  Size = "L"
	XL Size = "XL"
)

// Rule is one sizing rule. Bounds are optional; an absent bound is
// unconstrained. Higher priority wins among matches; ties go to the rule
// declared first. Exactly one catch-all rule (no bounds, lowest priority)
// must exist so matching is total.
type Rule struct {
	Name      string   `mapstructure:"name" json:"name"`
	ImpactMin *float64 `mapstructure:"impact_min" json:"impactMin,omitempty"`
	ImpactMax *float64 `mapstructure:"impact_max" json:"impactMax,omitempty"`
	EffortMin *float64 `mapstructure:"effort_min" json:"effortMin,omitempty"`
	EffortMax *float64 `mapstructure:"effort_max" json:"effortMax,omitempty"`
	Target    Size     `mapstructure:"target_size" json:"targetSize"`
	Priority  int      `mapstructure:"priority" json:"priority"`
}

func (r Rule) isCatchAll() bool {
	return r.ImpactMin == nil && r.ImpactMax == nil && r.EffortMin == nil && r.EffortMax == nil
}

func (r Rule) matches(impact, effort float64) bool {
	if r.ImpactMin != nil && impact < *r.ImpactMin {
		return false
	}
	if r.ImpactMax != nil && impact > *r.ImpactMax {
		return false
	}
	if r.EffortMin != nil && effort < *r.EffortMin {
		return false
	}
	if r.EffortMax != nil && effort > *r.EffortMax {
		return false
	}
	return true
}

// RuleSet is an ordered rule collection. Declaration order is preserved for
// tie-breaking; never rely on map iteration order here.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates the rule list: it must contain exactly one catch-all
// rule, and that rule must carry a strictly lower priority than every other
// rule. A violation is a configuration error, fatal at load.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("sizing rules: empty rule list")
	}

	catchAlls := 0
	catchAllPriority := 0
	minOther := 0
	haveOther := false
	for _, r := range rules {
		if !validSize(r.Target) {
			return nil, fmt.Errorf("sizing rule %q: unknown target size %q", r.Name, r.Target)
		}
		if r.isCatchAll() {
			catchAlls++
			catchAllPriority = r.Priority
			continue
		}
		if !haveOther || r.Priority < minOther {
			minOther = r.Priority
			haveOther = true
		}
	}
	if catchAlls != 1 {
		return nil, fmt.Errorf("sizing rules: expected exactly one catch-all rule, found %d", catchAlls)
	}
	if haveOther && catchAllPriority >= minOther {
		return nil, fmt.Errorf("sizing rules: catch-all priority %d is not the lowest", catchAllPriority)
	}

	rs := &RuleSet{rules: make([]Rule, len(rules))}
	copy(rs.rules, rules)
	return rs, nil
}

// Rules returns the rules in declaration order.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Match evaluates every rule against the score pair and returns the matching
// rule with the highest priority; among equal priorities the rule declared
// first wins. Overlapping rules are legitimate (e.g. a narrow "Critical Quick
// Fix" over a broad "Standard Quick Win"), so the resolution must be
// deterministic and is part of the contract. With a valid RuleSet the
// catch-all guarantees a match; no match means the configuration was never
// validated and is reported as an error, never an arbitrary size.
func (rs *RuleSet) Match(impact, effort float64) (Rule, error) {
	matched := make([]Rule, 0, len(rs.rules))
	order := make(map[string]int, len(rs.rules))
	for i, r := range rs.rules {
		if r.matches(impact, effort) {
			matched = append(matched, r)
			order[r.Name] = i
		}
	}
	if len(matched) == 0 {
		return Rule{}, fmt.Errorf("no sizing rule matched impact=%.2f effort=%.2f: catch-all rule missing", impact, effort)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return order[matched[i].Name] < order[matched[j].Name]
	})
	return matched[0], nil
}

func validSize(s Size) bool {
	switch s {
	case XS, S, M, L, XL:
		return true
	}
	return false
}

// Range is a low/high money band.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Estimate bundles the matched size tier with its cost and benefit estimates.
// Cost is a point estimate; only benefit carries a spread.
type Estimate struct {
	Target   Size    `json:"targetSize"`
	RuleName string  `json:"ruleName"`
	Cost     float64 `json:"cost"`
	Benefit  Range   `json:"benefit"`
	Currency string  `json:"currency"`
}

// EstimateCost converts a role mix (role -> FTE-weeks) through the daily rate
// table: cost = sum(weeks * 5 * rate) * overhead. A role without a configured
// rate is a configuration error.
func EstimateCost(roleMix map[string]float64, rates map[string]float64, overheadMultiplier float64) (float64, error) {
	if overheadMultiplier <= 0 {
		return 0, fmt.Errorf("overhead multiplier must be positive, got %.2f", overheadMultiplier)
	}
	total := 0.0
	for role, weeks := range roleMix {
		rate, ok := rates[role]
		if !ok {
			return 0, fmt.Errorf("no daily rate configured for role %q", role)
		}
		total += weeks * 5 * rate
	}
	return total * overheadMultiplier, nil
}

// EstimateBenefit looks up the size's base benefit and applies the symmetric
// spread: low = base*(1-spread), high = base*(1+spread).
func EstimateBenefit(size Size, multipliers map[Size]float64, spreadPct float64) (Range, error) {
	base, ok := multipliers[size]
	if !ok {
		return Range{}, fmt.Errorf("no benefit multiplier configured for size %q", size)
	}
	if spreadPct < 0 || spreadPct >= 1 {
		return Range{}, fmt.Errorf("benefit spread %.2f outside [0,1)", spreadPct)
	}
	return Range{Low: base * (1 - spreadPct), High: base * (1 + spreadPct)}, nil
}

// Float is a convenience for building rule bounds in config code and tests.
func Float(v float64) *float64 { return &v }
