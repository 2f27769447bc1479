// test/e2e/e2e_test.go
package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-workers/internal/engine/engineconfig"
	"portfolio-workers/internal/engine/governance"
	"portfolio-workers/internal/engine/kpi"
	"portfolio-workers/internal/engine/levers"
	"portfolio-workers/internal/engine/lifecycle"
	"portfolio-workers/internal/engine/scoring"
	"portfolio-workers/internal/engine/sizing"
	"portfolio-workers/internal/models"
)

// The full engine pipeline, end to end, on the shipped rule tables: lever
// profile in, scored / sized / gated / phased / valued use case out. Every
// stage is the same pure function the workers call, so this doubles as a
// regression net over the default configuration.

// ==========================
// Test Helper Functions
// ==========================

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

// A claims automation candidate: high impact, modest effort.
func claimsProfile() *levers.Profile {
	return &levers.Profile{
		RevenueImpact:     levers.Int(5),
		CostSavings:       levers.Int(4),
		RiskReduction:     levers.Int(3),
		PartnerExperience: levers.Int(4),
		StrategicFit:      levers.Int(4),

		DataReadiness:       levers.Int(4),
		TechnicalComplexity: levers.Int(2),
		ChangeImpact:        levers.Int(2),
		ModelRisk:           levers.Int(2),
		AdoptionReadiness:   levers.Int(4),
	}
}

// An underwriting platform rebuild: high impact and high effort.
func underwritingProfile() *levers.Profile {
	return &levers.Profile{
		RevenueImpact:     levers.Int(4),
		CostSavings:       levers.Int(4),
		RiskReduction:     levers.Int(4),
		PartnerExperience: levers.Int(4),
		StrategicFit:      levers.Int(4),

		DataReadiness:       levers.Int(3),
		TechnicalComplexity: levers.Int(4),
		ChangeImpact:        levers.Int(4),
		ModelRisk:           levers.Int(4),
		AdoptionReadiness:   levers.Int(3),
	}
}

func completeAttributes(id string, profile *levers.Profile) models.UseCaseAttributes {
	return models.UseCaseAttributes{
		ID:                   id,
		Name:                 "Pipeline test case",
		PrimaryBusinessOwner: "Dana Vermeer",
		BusinessFunction:     "Claims",
		Status:               models.StatusBuild,
		Levers:               *profile,

		ExplainabilityRequired: boolPtr(true),
		CustomerHarmRisk:       strPtr("low"),
		HumanAccountability:    strPtr("claims lead reviews every decision"),
		DataLocationRestricted: boolPtr(false),
		ThirdPartyModel:        boolPtr(false),
	}
}

func sizedCost(cfg *engineconfig.Config, size sizing.Size) (float64, error) {
	return sizing.EstimateCost(cfg.Sizing.RoleMix[size], cfg.Sizing.DailyRates, cfg.Sizing.OverheadMultiplier)
}

func sizedBenefit(cfg *engineconfig.Config, size sizing.Size) (sizing.Range, error) {
	return sizing.EstimateBenefit(size, cfg.Sizing.BenefitBase, cfg.Sizing.BenefitSpreadPct)
}

func estimateAll(t *testing.T, cfg *engineconfig.Config, process string, profile *levers.Profile) []*kpi.Estimate {
	t.Helper()
	var out []*kpi.Estimate
	for _, def := range cfg.KPIs {
		est, err := kpi.EstimateKpi(def, process, profile)
		require.NoError(t, err)
		if est != nil {
			out = append(out, est)
		}
	}
	return out
}

// ==========================
// Pipeline Tests
// ==========================

func TestPipeline_IntakeToValue(t *testing.T) {
	provider, err := engineconfig.NewProvider(engineconfig.Default())
	require.NoError(t, err)
	snap := provider.Snapshot()

	// Score and classify.
	profile := claimsProfile()
	scores, err := scoring.ComputeScores(profile, snap.Config.Scoring)
	require.NoError(t, err)
	assert.Equal(t, 4.0, scores.ImpactScore)
	assert.Equal(t, 2.8, scores.EffortScore)
	assert.Equal(t, scoring.QuickWin, scores.Quadrant)

	// Size off the same score pair.
	rule, err := snap.SizingRules.Match(scores.ImpactScore, scores.EffortScore)
	require.NoError(t, err)
	assert.Equal(t, "Standard Delivery", rule.Name)
	assert.Equal(t, sizing.M, rule.Target)

	cost, err := sizedCost(snap.Config, rule.Target)
	require.NoError(t, err)
	assert.Equal(t, 229375.0, cost)

	benefit, err := sizedBenefit(snap.Config, rule.Target)
	require.NoError(t, err)
	assert.Equal(t, 280000.0, benefit.Low)
	assert.Equal(t, 520000.0, benefit.High)

	// Governance on a fully answered attribute set.
	status := governance.Evaluate(completeAttributes("uc-claims-001", profile))
	assert.True(t, status.CanActivate)
	assert.Equal(t, 100, status.OverallProgress)

	// Phase from the operational signals.
	phase, err := lifecycle.DerivePhase(models.StatusBuild, strPtr(models.DeploymentInDev), snap.Config.Phases)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.PhaseStrategic, phase)

	// KPI estimates for the claims process.
	estimates := estimateAll(t, snap.Config, "claims_processing", profile)
	require.Len(t, estimates, 2)

	assert.Equal(t, "cost-per-case", estimates[0].KpiID)
	assert.Equal(t, "optimized", estimates[0].MaturityLevel)
	assert.Equal(t, 25.0, estimates[0].Min)
	assert.Equal(t, 40.0, estimates[0].Max)
	assert.Equal(t, kpi.ConfidenceHigh, estimates[0].Confidence)
	require.NotNil(t, estimates[0].Benchmark)
	assert.Equal(t, 42.0, estimates[0].Benchmark.BaselineValue)

	assert.Equal(t, "handle-time", estimates[1].KpiID)
	assert.Equal(t, "established", estimates[1].MaturityLevel)
	assert.Nil(t, estimates[1].Benchmark)
}

func TestPipeline_PortfolioRollup(t *testing.T) {
	provider, err := engineconfig.NewProvider(engineconfig.Default())
	require.NoError(t, err)
	snap := provider.Snapshot()

	rows := make([]kpi.UseCaseValue, 0, 2)
	for _, uc := range []struct {
		id      string
		profile *levers.Profile
	}{
		{"uc-claims-001", claimsProfile()},
		{"uc-underwriting-002", underwritingProfile()},
	} {
		scores, err := scoring.ComputeScores(uc.profile, snap.Config.Scoring)
		require.NoError(t, err)

		rule, err := snap.SizingRules.Match(scores.ImpactScore, scores.EffortScore)
		require.NoError(t, err)

		cost, err := sizedCost(snap.Config, rule.Target)
		require.NoError(t, err)
		benefit, err := sizedBenefit(snap.Config, rule.Target)
		require.NoError(t, err)

		phase, err := lifecycle.DerivePhase(models.StatusBuild, strPtr(models.DeploymentInDev), snap.Config.Phases)
		require.NoError(t, err)

		rows = append(rows, kpi.UseCaseValue{
			UseCaseID:  uc.id,
			Phase:      phase,
			BenefitLow: benefit.Low,
			BenefitMax: benefit.High,
			Investment: cost,
		})
	}

	// The underwriting rebuild lands in Strategic Investment territory.
	assert.Equal(t, 458750.0, rows[1].Investment)
	assert.Equal(t, 700000.0, rows[1].BenefitLow)
	assert.Equal(t, 1300000.0, rows[1].BenefitMax)

	summary := kpi.Aggregate(rows)
	assert.Equal(t, 2, summary.UseCases)
	assert.Equal(t, 1400000.0, summary.AnnualBenefit)
	assert.Equal(t, 688125.0, summary.TotalInvestment)
	require.NotNil(t, summary.ROIPercent)
	assert.Equal(t, 103.45, *summary.ROIPercent)
	require.NotNil(t, summary.BreakevenMonths)
	assert.Equal(t, 5.9, *summary.BreakevenMonths)

	require.Len(t, summary.ByPhase, 1)
	assert.Equal(t, lifecycle.PhaseStrategic, summary.ByPhase[0].Phase)
	assert.Equal(t, 2, summary.ByPhase[0].UseCases)
}

func TestPipeline_GovernanceBlocksUnansweredQuestionnaire(t *testing.T) {
	attrs := completeAttributes("uc-claims-001", claimsProfile())
	attrs.HumanAccountability = nil

	status := governance.Evaluate(attrs)
	assert.False(t, status.CanActivate)
	assert.Equal(t, governance.InProgress, status.RAI.State)
	assert.Contains(t, status.RAI.MissingFields, "Human accountability")
	assert.True(t, status.OperatingModel.Passed)
	assert.True(t, status.Intake.Passed)
}

func TestPipeline_ProductionRolloutReachesSteadyState(t *testing.T) {
	provider, err := engineconfig.NewProvider(engineconfig.Default())
	require.NoError(t, err)
	snap := provider.Snapshot()

	phase, err := lifecycle.DerivePhase(models.StatusLive, strPtr(models.DeploymentProduction), snap.Config.Phases)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.PhaseSteadyState, phase)

	report := lifecycle.EvaluateTransition(snap.Config.Phases, lifecycle.PhaseTransition, lifecycle.PhaseSteadyState, map[string]bool{
		"Pilot success criteria met":  true,
		"Production readiness review": true,
	}, "")
	assert.Empty(t, report.UnmetRequirements)
	assert.False(t, report.JustificationRequired)
	assert.True(t, report.Justified)
}

func TestPipeline_RuleReplaceShiftsClassification(t *testing.T) {
	provider, err := engineconfig.NewProvider(engineconfig.Default())
	require.NoError(t, err)
	before := provider.Snapshot()

	scores, err := scoring.ComputeScores(claimsProfile(), before.Config.Scoring)
	require.NoError(t, err)
	assert.Equal(t, scoring.QuickWin, scores.Quadrant)

	// Raise the threshold above the computed impact score and reload.
	changed := engineconfig.Default()
	changed.Scoring.Threshold = 4.5
	require.NoError(t, provider.Replace(changed))

	after := provider.Snapshot()
	assert.NotEqual(t, before.Version, after.Version)

	rescored, err := scoring.ComputeScores(claimsProfile(), after.Config.Scoring)
	require.NoError(t, err)
	assert.Equal(t, scoring.Experimental, rescored.Quadrant)
}

// ==========================
// Determinism
// ==========================

func TestPipeline_Deterministic(t *testing.T) {
	provider, err := engineconfig.NewProvider(engineconfig.Default())
	require.NoError(t, err)
	snap := provider.Snapshot()

	first, err := scoring.ComputeScores(underwritingProfile(), snap.Config.Scoring)
	require.NoError(t, err)
	firstRule, err := snap.SizingRules.Match(first.ImpactScore, first.EffortScore)
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		scores, err := scoring.ComputeScores(underwritingProfile(), snap.Config.Scoring)
		require.NoError(t, err)
		assert.Equal(t, first, scores)

		rule, err := snap.SizingRules.Match(scores.ImpactScore, scores.EffortScore)
		require.NoError(t, err)
		assert.Equal(t, firstRule.Name, rule.Name)
	}
}
