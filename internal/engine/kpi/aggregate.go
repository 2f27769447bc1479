// internal/engine/kpi/aggregate.go
package kpi

import "math"

// UseCaseValue is one use case's contribution to the portfolio rollup.
// Benefit bounds come from the sizing estimator; investment is the cost point
// estimate. Phase groups the contribution in the per-phase breakdown.
type UseCaseValue struct {
	UseCaseID  string  `json:"useCaseId"`
	Phase      string  `json:"phase"`
	BenefitLow float64 `json:"benefitLow"`
	BenefitMax float64 `json:"benefitHigh"`
	Investment float64 `json:"investment"`
}

// PhaseValue is the rollup for one lifecycle phase.
type PhaseValue struct {
	Phase         string  `json:"phase"`
	UseCases      int     `json:"useCases"`
	AnnualBenefit float64 `json:"annualBenefit"`
	Investment    float64 `json:"investment"`
}

// PortfolioValueSummary is the portfolio-level value rollup. ROI and breakeven
// are pointers: with zero total investment neither ratio is defined, and a
// fabricated zero or infinity would read as a real number downstream.
type PortfolioValueSummary struct {
	UseCases        int          `json:"useCases"`
	AnnualBenefit   float64      `json:"annualBenefit"`
	MonthlyBenefit  float64      `json:"monthlyBenefit"`
	TotalInvestment float64      `json:"totalInvestment"`
	ROIPercent      *float64     `json:"roiPercent,omitempty"`
	BreakevenMonths *float64     `json:"breakevenMonths,omitempty"`
	ByPhase         []PhaseValue `json:"byPhase"`
}

// Aggregate rolls individual use-case values up to the portfolio. Each use
// case contributes the midpoint of its benefit band as annual value; monthly
// value is the annual midpoint over twelve. ROI is (annual - investment) /
// investment as a percentage and breakeven is investment over monthly value,
// both nil when total investment is zero. The per-phase breakdown preserves
// first-seen phase order so repeated runs over the same rows emit identical
// summaries.
func Aggregate(rows []UseCaseValue) PortfolioValueSummary {
	summary := PortfolioValueSummary{ByPhase: []PhaseValue{}}
	phaseIdx := make(map[string]int)

	for _, row := range rows {
		annual := (row.BenefitLow + row.BenefitMax) / 2

		summary.UseCases++
		summary.AnnualBenefit += annual
		summary.TotalInvestment += row.Investment

		i, ok := phaseIdx[row.Phase]
		if !ok {
			i = len(summary.ByPhase)
			phaseIdx[row.Phase] = i
			summary.ByPhase = append(summary.ByPhase, PhaseValue{Phase: row.Phase})
		}
		summary.ByPhase[i].UseCases++
		summary.ByPhase[i].AnnualBenefit += annual
		summary.ByPhase[i].Investment += row.Investment
	}

	summary.MonthlyBenefit = summary.AnnualBenefit / 12

	if summary.TotalInvestment > 0 {
		roi := (summary.AnnualBenefit - summary.TotalInvestment) / summary.TotalInvestment * 100
		roi = math.Round(roi*100) / 100
		summary.ROIPercent = &roi

		if summary.MonthlyBenefit > 0 {
			be := summary.TotalInvestment / summary.MonthlyBenefit
			be = math.Round(be*10) / 10
			summary.BreakevenMonths = &be
		}
	}

	return summary
}
