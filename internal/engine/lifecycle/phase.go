// internal/engine/lifecycle/phase.go
package lifecycle

import "fmt"

// Lifecycle phases derived from operational status signals.
const (
	PhaseFoundation  = "foundation"
	PhaseStrategic   = "strategic"
	PhaseTransition  = "transition"
	PhaseSteadyState = "steady_state"
)

// Rule maps operational status signals to a lifecycle phase. Statuses are
// checked before deployments; a nil deployment status means the deployment
// signal is not applicable, not a mismatch. ManualOnly rules never
// participate in automatic derivation.
type Rule struct {
	Phase            string   `mapstructure:"phase" json:"phase"`
	Statuses         []string `mapstructure:"statuses" json:"mappedStatuses"`
	Deployments      []string `mapstructure:"deployments" json:"mappedDeployments"`
	Priority         int      `mapstructure:"priority" json:"priority"`
	ManualOnly       bool     `mapstructure:"manual_only" json:"manualOnly"`
	ExitRequirements []string `mapstructure:"exit_requirements" json:"exitRequirements,omitempty"`
}

func (r Rule) matches(status string, deployment *string) bool {
	for _, s := range r.Statuses {
		if s == status {
			return true
		}
	}
	if deployment == nil {
		return false
	}
	for _, d := range r.Deployments {
		if d == *deployment {
			return true
		}
	}
	return false
}

// ValidateRules checks that automatic derivation can always land somewhere:
// at least one non-manual rule must exist to serve as the fallback phase.
func ValidateRules(rules []Rule) error {
	for _, r := range rules {
		if !r.ManualOnly {
			return nil
		}
	}
	return fmt.Errorf("phase rules: no non-manual rule available for fallback")
}

// DerivePhase maps a use case's status signals to a phase. Among matching
// non-manual rules the highest priority wins, ties resolved by declaration
// order. If nothing matches, the lowest-priority non-manual phase is assigned
// as the default: an unphased use case would silently vanish from phase
// rollups, which is worse than an approximate default. An all-manual rule set
// is a configuration error.
func DerivePhase(status string, deployment *string, rules []Rule) (string, error) {
	bestIdx := -1
	fallbackIdx := -1
	for i, r := range rules {
		if r.ManualOnly {
			continue
		}
		if fallbackIdx == -1 || r.Priority < rules[fallbackIdx].Priority {
			fallbackIdx = i
		}
		if !r.matches(status, deployment) {
			continue
		}
		if bestIdx == -1 || r.Priority > rules[bestIdx].Priority {
			bestIdx = i
		}
	}

	if bestIdx >= 0 {
		return rules[bestIdx].Phase, nil
	}
	if fallbackIdx >= 0 {
		return rules[fallbackIdx].Phase, nil
	}
	return "", fmt.Errorf("phase rules: no non-manual rule available for fallback")
}

// TransitionReport describes a requested phase transition. The engine never
// blocks a transition; it reports which exit requirements of the origin phase
// are unmet so the caller can demand a justification.
type TransitionReport struct {
	FromPhase             string   `json:"fromPhase"`
	ToPhase               string   `json:"toPhase"`
	UnmetRequirements     []string `json:"unmetRequirements"`
	JustificationRequired bool     `json:"justificationRequired"`
	Justified             bool     `json:"justified"`
}

// EvaluateTransition checks the origin phase's exit requirements against the
// set of satisfied requirement labels. A transition with unmet requirements
// needs a human-supplied justification; whether to proceed is the caller's
// decision.
func EvaluateTransition(rules []Rule, fromPhase, toPhase string, satisfied map[string]bool, justification string) TransitionReport {
	var unmet []string
	for _, r := range rules {
		if r.Phase != fromPhase {
			continue
		}
		for _, req := range r.ExitRequirements {
			if !satisfied[req] {
				unmet = append(unmet, req)
			}
		}
		break
	}

	required := len(unmet) > 0
	return TransitionReport{
		FromPhase:             fromPhase,
		ToPhase:               toPhase,
		UnmetRequirements:     unmet,
		JustificationRequired: required,
		Justified:             !required || justification != "",
	}
}
