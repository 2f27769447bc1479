// internal/engine/kpi/kpi_test.go
package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-workers/internal/engine/levers"
)

// ==========================
// TEST HELPERS
// ==========================

func createDefinition() Definition {
	return Definition{
		ID:        "cost-per-case",
		Name:      "Cost per case handled",
		Unit:      "percent_reduction",
		Direction: Decrease,
		Processes: []string{"claims_processing"},
		Benchmarks: map[string]Benchmark{
			"claims_processing": {
				BaselineValue:   42,
				BaselineUnit:    "USD",
				Source:          "Industry operations survey 2025",
				Improvement:     Range{Min: 15, Max: 35},
				TypicalTimeline: "6-12 months",
			},
		},
		MaturityRules: []MaturityRule{
			{
				Level: "optimized",
				Conditions: []Condition{
					{Lever: levers.DataReadiness, Op: ">=", Value: 4},
					{Lever: levers.AdoptionReadiness, Op: ">=", Value: 4},
				},
				Estimate:   Range{Min: 25, Max: 40},
				Confidence: ConfidenceHigh,
			},
			{
				Level: "established",
				Conditions: []Condition{
					{Lever: levers.DataReadiness, Op: ">=", Value: 3},
				},
				Estimate:   Range{Min: 12, Max: 25},
				Confidence: ConfidenceMedium,
			},
			{
				Level:      "foundational",
				Estimate:   Range{Min: 5, Max: 12},
				Confidence: ConfidenceLow,
			},
		},
	}
}

func createProfile(dataReadiness, adoptionReadiness int) *levers.Profile {
	return &levers.Profile{
		RevenueImpact:     levers.Int(4),
		CostSavings:       levers.Int(3),
		RiskReduction:     levers.Int(3),
		PartnerExperience: levers.Int(2),
		StrategicFit:      levers.Int(4),

		DataReadiness:       levers.Int(dataReadiness),
		TechnicalComplexity: levers.Int(2),
		ChangeImpact:        levers.Int(3),
		ModelRisk:           levers.Int(2),
		AdoptionReadiness:   levers.Int(adoptionReadiness),
	}
}

// ==========================
// ESTIMATION TESTS
// ==========================

func TestEstimateKpi_FirstMatchWins(t *testing.T) {
	def := createDefinition()

	// Satisfies both "optimized" and "established"; the earlier rule wins.
	est, err := EstimateKpi(def, "claims_processing", createProfile(5, 5))
	require.NoError(t, err)
	require.NotNil(t, est)
	assert.Equal(t, "optimized", est.MaturityLevel)
	assert.Equal(t, 25.0, est.Min)
	assert.Equal(t, 40.0, est.Max)
	assert.Equal(t, ConfidenceHigh, est.Confidence)
}

func TestEstimateKpi_MidTier(t *testing.T) {
	est, err := EstimateKpi(createDefinition(), "claims_processing", createProfile(3, 2))
	require.NoError(t, err)
	require.NotNil(t, est)
	assert.Equal(t, "established", est.MaturityLevel)
	assert.Equal(t, ConfidenceMedium, est.Confidence)
}

func TestEstimateKpi_CatchAllTier(t *testing.T) {
	est, err := EstimateKpi(createDefinition(), "claims_processing", createProfile(1, 1))
	require.NoError(t, err)
	require.NotNil(t, est)
	assert.Equal(t, "foundational", est.MaturityLevel)
	assert.Equal(t, 5.0, est.Min)
}

func TestEstimateKpi_RangeReturnedVerbatim(t *testing.T) {
	est, err := EstimateKpi(createDefinition(), "claims_processing", createProfile(4, 4))
	require.NoError(t, err)
	require.NotNil(t, est)
	assert.Equal(t, Range{Min: 25, Max: 40}, Range{Min: est.Min, Max: est.Max},
		"the matched rule's range must pass through unmodified")
}

func TestEstimateKpi_ProcessOutOfScope(t *testing.T) {
	est, err := EstimateKpi(createDefinition(), "underwriting", createProfile(5, 5))
	require.NoError(t, err)
	assert.Nil(t, est, "out-of-scope process is not-applicable, not an error")
}

func TestEstimateKpi_NoRuleMatches(t *testing.T) {
	def := createDefinition()
	def.MaturityRules = def.MaturityRules[:2] // drop the unconditional tier

	est, err := EstimateKpi(def, "claims_processing", createProfile(1, 1))
	require.NoError(t, err)
	assert.Nil(t, est)
}

func TestEstimateKpi_InvalidProfile(t *testing.T) {
	profile := createProfile(3, 3)
	profile.CostSavings = nil

	_, err := EstimateKpi(createDefinition(), "claims_processing", profile)
	assert.Error(t, err)
}

func TestEstimateKpi_BenchmarkDisplayOnly(t *testing.T) {
	est, err := EstimateKpi(createDefinition(), "claims_processing", createProfile(5, 5))
	require.NoError(t, err)
	require.NotNil(t, est)

	require.NotNil(t, est.Benchmark)
	assert.Equal(t, 42.0, est.Benchmark.BaselineValue)
	// Benchmark improvement band differs from the estimate; neither leaks into the other.
	assert.NotEqual(t, est.Benchmark.Improvement.Min, est.Min)
}

func TestConditionOperators(t *testing.T) {
	profile := createProfile(3, 3)

	tests := []struct {
		name     string
		cond     Condition
		expected bool
	}{
		{"gte true", Condition{Lever: levers.DataReadiness, Op: ">=", Value: 3}, true},
		{"gte false", Condition{Lever: levers.DataReadiness, Op: ">=", Value: 4}, false},
		{"lte true", Condition{Lever: levers.DataReadiness, Op: "<=", Value: 3}, true},
		{"eq true", Condition{Lever: levers.DataReadiness, Op: "==", Value: 3}, true},
		{"eq false", Condition{Lever: levers.DataReadiness, Op: "==", Value: 2}, false},
		{"missing lever", Condition{Lever: levers.ExplainabilityBias, Op: ">=", Value: 1}, false},
		{"unknown op", Condition{Lever: levers.DataReadiness, Op: "!=", Value: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cond.holds(profile))
		})
	}
}

func TestDefinitionValidate(t *testing.T) {
	assert.NoError(t, createDefinition().Validate())

	def := createDefinition()
	def.MaturityRules = nil
	assert.Error(t, def.Validate())

	def = createDefinition()
	def.Direction = Direction("sideways")
	assert.Error(t, def.Validate())

	def = createDefinition()
	def.MaturityRules[0].Conditions[0].Op = "!="
	assert.Error(t, def.Validate())
}

// ==========================
// PORTFOLIO AGGREGATION TESTS
// ==========================

func TestAggregate(t *testing.T) {
	rows := []UseCaseValue{
		{UseCaseID: "uc-1", Phase: "strategic", BenefitLow: 100000, BenefitMax: 300000, Investment: 120000},
		{UseCaseID: "uc-2", Phase: "strategic", BenefitLow: 50000, BenefitMax: 150000, Investment: 60000},
		{UseCaseID: "uc-3", Phase: "transition", BenefitLow: 700000, BenefitMax: 1300000, Investment: 400000},
	}

	summary := Aggregate(rows)

	assert.Equal(t, 3, summary.UseCases)
	// Midpoints: 200k + 100k + 1000k = 1.3M annual.
	assert.InDelta(t, 1300000, summary.AnnualBenefit, 1e-9)
	assert.InDelta(t, 1300000.0/12, summary.MonthlyBenefit, 1e-9)
	assert.InDelta(t, 580000, summary.TotalInvestment, 1e-9)

	require.NotNil(t, summary.ROIPercent)
	// (1300000 - 580000) / 580000 * 100 = 124.14
	assert.InDelta(t, 124.14, *summary.ROIPercent, 0.01)

	require.NotNil(t, summary.BreakevenMonths)
	// 580000 / (1300000/12) = 5.35 -> rounded to 5.4
	assert.InDelta(t, 5.4, *summary.BreakevenMonths, 1e-9)

	require.Len(t, summary.ByPhase, 2)
	assert.Equal(t, "strategic", summary.ByPhase[0].Phase)
	assert.Equal(t, 2, summary.ByPhase[0].UseCases)
	assert.InDelta(t, 300000, summary.ByPhase[0].AnnualBenefit, 1e-9)
	assert.Equal(t, "transition", summary.ByPhase[1].Phase)
}

func TestAggregate_ZeroInvestment(t *testing.T) {
	rows := []UseCaseValue{
		{UseCaseID: "uc-1", Phase: "foundation", BenefitLow: 10000, BenefitMax: 30000, Investment: 0},
	}

	summary := Aggregate(rows)
	assert.Nil(t, summary.ROIPercent, "ROI undefined at zero investment")
	assert.Nil(t, summary.BreakevenMonths)
	assert.InDelta(t, 20000, summary.AnnualBenefit, 1e-9)
}

func TestAggregate_Empty(t *testing.T) {
	summary := Aggregate(nil)
	assert.Equal(t, 0, summary.UseCases)
	assert.Nil(t, summary.ROIPercent)
	assert.Nil(t, summary.BreakevenMonths)
	assert.Empty(t, summary.ByPhase)
}

func TestAggregate_Deterministic(t *testing.T) {
	rows := []UseCaseValue{
		{UseCaseID: "b", Phase: "transition", BenefitLow: 1, BenefitMax: 3, Investment: 2},
		{UseCaseID: "a", Phase: "strategic", BenefitLow: 4, BenefitMax: 6, Investment: 5},
	}

	first := Aggregate(rows)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Aggregate(rows))
	}
}
