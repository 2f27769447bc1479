// internal/engine/engineconfig/defaults.go
package engineconfig

import (
	"portfolio-workers/internal/engine/kpi"
	"portfolio-workers/internal/engine/levers"
	"portfolio-workers/internal/engine/lifecycle"
	"portfolio-workers/internal/engine/scoring"
	"portfolio-workers/internal/engine/sizing"
	"portfolio-workers/internal/models"
)

// Default returns the shipped rule set. Load starts from these values, so a
// partial engine.yaml only needs to override what differs.
func Default() *Config {
	return &Config{
		Scoring: scoring.DefaultWeights(),
		Sizing:  defaultSizing(),
		Phases:  defaultPhases(),
		KPIs:    defaultKPIs(),
	}
}

func defaultSizing() SizingConfig {
	return SizingConfig{
		Rules: []sizing.Rule{
			{
				Name:      "Flagship Build",
				ImpactMin: sizing.Float(4.0),
				EffortMin: sizing.Float(4.0),
				Target:    sizing.XL,
				Priority:  200,
			},
			{
				Name:      "Quick Win Fast Track",
				ImpactMin: sizing.Float(3.5),
				EffortMax: sizing.Float(2.5),
				Target:    sizing.S,
				Priority:  150,
			},
			{
				Name:      "Strategic Investment",
				ImpactMin: sizing.Float(3.0),
				EffortMin: sizing.Float(3.0),
				Target:    sizing.L,
				Priority:  100,
			},
			{
				Name:      "Lightweight Experiment",
				ImpactMax: sizing.Float(3.0),
				EffortMax: sizing.Float(2.0),
				Target:    sizing.XS,
				Priority:  100,
			},
			{
				Name:     "Standard Delivery",
				Target:   sizing.M,
				Priority: 0,
			},
		},
		RoleMix: map[sizing.Size]map[string]float64{
			sizing.XS: {"engineer": 4, "data_scientist": 2},
			sizing.S:  {"engineer": 8, "data_scientist": 4, "product_manager": 2},
			sizing.M:  {"engineer": 16, "data_scientist": 8, "product_manager": 4, "designer": 2},
			sizing.L:  {"engineer": 32, "data_scientist": 16, "product_manager": 8, "designer": 4},
			sizing.XL: {"engineer": 64, "data_scientist": 24, "product_manager": 12, "designer": 6},
		},
		DailyRates: map[string]float64{
			"engineer":        1200,
			"data_scientist":  1400,
			"product_manager": 1100,
			"designer":        950,
		},
		OverheadMultiplier: 1.25,
		BenefitBase: map[sizing.Size]float64{
			sizing.XS: 50000,
			sizing.S:  150000,
			sizing.M:  400000,
			sizing.L:  1000000,
			sizing.XL: 2500000,
		},
		BenefitSpreadPct: 0.3,
		Currency:         "USD",
	}
}

func defaultPhases() []lifecycle.Rule {
	return []lifecycle.Rule{
		{
			Phase:       lifecycle.PhaseSteadyState,
			Statuses:    []string{models.StatusLive},
			Deployments: []string{models.DeploymentProduction},
			Priority:    300,
			ExitRequirements: []string{
				"Runbook published",
				"Value tracking in place",
			},
		},
		{
			Phase:       lifecycle.PhaseTransition,
			Statuses:    []string{models.StatusPilot},
			Deployments: []string{models.DeploymentPilot, models.DeploymentRolledBack},
			Priority:    200,
			ExitRequirements: []string{
				"Pilot success criteria met",
				"Production readiness review",
			},
		},
		{
			Phase:       lifecycle.PhaseStrategic,
			Statuses:    []string{models.StatusScoping, models.StatusBuild},
			Deployments: []string{models.DeploymentInDev},
			Priority:    100,
			ExitRequirements: []string{
				"Governance gates passed",
			},
		},
		{
			Phase:       lifecycle.PhaseFoundation,
			Statuses:    []string{models.StatusDiscovery, models.StatusOnHold},
			Deployments: []string{models.DeploymentNotStarted},
			Priority:    0,
		},
	}
}

func defaultKPIs() []kpi.Definition {
	return []kpi.Definition{
		{
			ID:        "cost-per-case",
			Name:      "Cost per case handled",
			Unit:      "percent_reduction",
			Direction: kpi.Decrease,
			Processes: []string{"claims_processing", "underwriting"},
			Benchmarks: map[string]kpi.Benchmark{
				"claims_processing": {
					BaselineValue:   42,
					BaselineUnit:    "USD",
					Source:          "Industry operations survey 2025",
					Improvement:     kpi.Range{Min: 15, Max: 35},
					TypicalTimeline: "6-12 months",
				},
			},
			MaturityRules: []kpi.MaturityRule{
				{
					Level: "optimized",
					Conditions: []kpi.Condition{
						{Lever: levers.DataReadiness, Op: ">=", Value: 4},
						{Lever: levers.AdoptionReadiness, Op: ">=", Value: 4},
					},
					Estimate:   kpi.Range{Min: 25, Max: 40},
					Confidence: kpi.ConfidenceHigh,
				},
				{
					Level: "established",
					Conditions: []kpi.Condition{
						{Lever: levers.DataReadiness, Op: ">=", Value: 3},
					},
					Estimate:   kpi.Range{Min: 12, Max: 25},
					Confidence: kpi.ConfidenceMedium,
				},
				{
					Level:      "foundational",
					Estimate:   kpi.Range{Min: 5, Max: 12},
					Confidence: kpi.ConfidenceLow,
				},
			},
		},
		{
			ID:        "handle-time",
			Name:      "Average handle time",
			Unit:      "percent_reduction",
			Direction: kpi.Decrease,
			Processes: []string{"customer_service", "claims_processing"},
			MaturityRules: []kpi.MaturityRule{
				{
					Level: "established",
					Conditions: []kpi.Condition{
						{Lever: levers.DataReadiness, Op: ">=", Value: 3},
						{Lever: levers.TechnicalComplexity, Op: "<=", Value: 3},
					},
					Estimate:   kpi.Range{Min: 10, Max: 20},
					Confidence: kpi.ConfidenceMedium,
				},
				{
					Level:      "foundational",
					Estimate:   kpi.Range{Min: 3, Max: 10},
					Confidence: kpi.ConfidenceLow,
				},
			},
		},
		{
			ID:        "conversion-uplift",
			Name:      "Quote-to-bind conversion uplift",
			Unit:      "percent_increase",
			Direction: kpi.Increase,
			Processes: []string{"sales", "distribution"},
			MaturityRules: []kpi.MaturityRule{
				{
					Level: "optimized",
					Conditions: []kpi.Condition{
						{Lever: levers.RevenueImpact, Op: ">=", Value: 4},
						{Lever: levers.DataReadiness, Op: ">=", Value: 4},
					},
					Estimate:   kpi.Range{Min: 8, Max: 15},
					Confidence: kpi.ConfidenceHigh,
				},
				{
					Level:      "foundational",
					Estimate:   kpi.Range{Min: 1, Max: 5},
					Confidence: kpi.ConfidenceLow,
				},
			},
		},
	}
}
