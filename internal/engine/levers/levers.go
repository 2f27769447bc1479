// internal/engine/levers/levers.go
package levers

import (
	"fmt"
	"strings"
)

// Lever names as they appear in job payloads and rule configuration.
const (
	RevenueImpact     = "revenueImpact"
	CostSavings       = "costSavings"
	RiskReduction     = "riskReduction"
	PartnerExperience = "partnerExperience"
	StrategicFit      = "strategicFit"

	DataReadiness       = "dataReadiness"
	TechnicalComplexity = "technicalComplexity"
	ChangeImpact        = "changeImpact"
	ModelRisk           = "modelRisk"
	AdoptionReadiness   = "adoptionReadiness"

	ExplainabilityBias   = "explainabilityBias"
	RegulatoryCompliance = "regulatoryCompliance"
)

// ImpactLevers and EffortLevers list the scoring levers in canonical order.
var (
	ImpactLevers = []string{RevenueImpact, CostSavings, RiskReduction, PartnerExperience, StrategicFit}
	EffortLevers = []string{DataReadiness, TechnicalComplexity, ChangeImpact, ModelRisk, AdoptionReadiness}
)

const (
	MinScore = 1
	MaxScore = 5
)

// Profile holds the raw 1-5 assessment scores for a use case. Fields are
// pointers so a missing lever is distinguishable from a scored one; a missing
// required lever is rejected by Validate, never defaulted.
type Profile struct {
	RevenueImpact     *int `json:"revenueImpact"`
	CostSavings       *int `json:"costSavings"`
	RiskReduction     *int `json:"riskReduction"`
	PartnerExperience *int `json:"partnerExperience"`
	StrategicFit      *int `json:"strategicFit"`

	DataReadiness       *int `json:"dataReadiness"`
	TechnicalComplexity *int `json:"technicalComplexity"`
	ChangeImpact        *int `json:"changeImpact"`
	ModelRisk           *int `json:"modelRisk"`
	AdoptionReadiness   *int `json:"adoptionReadiness"`

	ExplainabilityBias   *int `json:"explainabilityBias,omitempty"`
	RegulatoryCompliance *int `json:"regulatoryCompliance,omitempty"`
}

// Value returns the score for the named lever and whether it is present.
func (p *Profile) Value(name string) (int, bool) {
	var v *int
	switch name {
	case RevenueImpact:
		v = p.RevenueImpact
	case CostSavings:
		v = p.CostSavings
	case RiskReduction:
		v = p.RiskReduction
	case PartnerExperience:
		v = p.PartnerExperience
	case StrategicFit:
		v = p.StrategicFit
	case DataReadiness:
		v = p.DataReadiness
	case TechnicalComplexity:
		v = p.TechnicalComplexity
	case ChangeImpact:
		v = p.ChangeImpact
	case ModelRisk:
		v = p.ModelRisk
	case AdoptionReadiness:
		v = p.AdoptionReadiness
	case ExplainabilityBias:
		v = p.ExplainabilityBias
	case RegulatoryCompliance:
		v = p.RegulatoryCompliance
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Scored reports whether the named lever is present and inside [1,5].
func (p *Profile) Scored(name string) bool {
	v, ok := p.Value(name)
	return ok && v >= MinScore && v <= MaxScore
}

// Validate checks that all ten scoring levers are present and within [1,5].
// Governance levers are optional at the profile level (gate 3 checks them
// separately) but must be in range when present.
func (p *Profile) Validate() error {
	var missing, outOfRange []string

	for _, name := range append(append([]string{}, ImpactLevers...), EffortLevers...) {
		v, ok := p.Value(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if v < MinScore || v > MaxScore {
			outOfRange = append(outOfRange, fmt.Sprintf("%s=%d", name, v))
		}
	}

	for _, name := range []string{ExplainabilityBias, RegulatoryCompliance} {
		if v, ok := p.Value(name); ok && (v < MinScore || v > MaxScore) {
			outOfRange = append(outOfRange, fmt.Sprintf("%s=%d", name, v))
		}
	}

	if len(missing) == 0 && len(outOfRange) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing levers: "+strings.Join(missing, ", "))
	}
	if len(outOfRange) > 0 {
		parts = append(parts, "levers out of [1,5]: "+strings.Join(outOfRange, ", "))
	}
	return &ValidationError{Reason: strings.Join(parts, "; "), Missing: missing, OutOfRange: outOfRange}
}

// ValidationError describes an invalid or incomplete lever profile.
type ValidationError struct {
	Reason     string
	Missing    []string
	OutOfRange []string
}

func (e *ValidationError) Error() string {
	return "invalid lever profile: " + e.Reason
}

// Int is a convenience for building profiles in tests and fixtures.
func Int(v int) *int { return &v }
