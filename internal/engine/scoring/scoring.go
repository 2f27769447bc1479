// internal/engine/scoring/scoring.go
package scoring

import (
	"fmt"
	"math"

	"portfolio-workers/internal/engine/levers"
)

// Quadrant is the impact/effort classification bucket.
type Quadrant string

const (
	QuickWin     Quadrant = "QuickWin"
	StrategicBet Quadrant = "StrategicBet"
	Experimental Quadrant = "Experimental"
	Watchlist    Quadrant = "Watchlist"
)

// DefaultThreshold splits the impact/effort plane into the four quadrants.
const DefaultThreshold = 3.0

// LeverWeight configures one lever's contribution to its axis. Percent values
// across an axis must sum to 100 (validated at configuration load). Invert
// applies the 6-value flip before weighting; inversions are configuration,
// never code.
type LeverWeight struct {
	Percent float64 `mapstructure:"percent" json:"percent"`
	Invert  bool    `mapstructure:"invert" json:"invert"`
}

// Weights is the full scoring configuration for both axes.
type Weights struct {
	Impact    map[string]LeverWeight `mapstructure:"impact" json:"impact"`
	Effort    map[string]LeverWeight `mapstructure:"effort" json:"effort"`
	Threshold float64                `mapstructure:"threshold" json:"threshold"`
}

// DefaultWeights returns the shipped configuration: 20% per lever, no
// inversions, threshold 3.0.
func DefaultWeights() Weights {
	impact := make(map[string]LeverWeight, len(levers.ImpactLevers))
	for _, name := range levers.ImpactLevers {
		impact[name] = LeverWeight{Percent: 20}
	}
	effort := make(map[string]LeverWeight, len(levers.EffortLevers))
	for _, name := range levers.EffortLevers {
		effort[name] = LeverWeight{Percent: 20}
	}
	return Weights{Impact: impact, Effort: effort, Threshold: DefaultThreshold}
}

// Validate enforces the configuration invariants: every scoring lever has a
// weight, no extras, and each axis sums to 100. A malformed weight set is a
// configuration error and must be fatal at startup, not at call time.
func (w Weights) Validate() error {
	if err := validateAxis("impact", w.Impact, levers.ImpactLevers); err != nil {
		return err
	}
	if err := validateAxis("effort", w.Effort, levers.EffortLevers); err != nil {
		return err
	}
	if w.Threshold <= levers.MinScore || w.Threshold > levers.MaxScore {
		return fmt.Errorf("scoring threshold %.2f outside (1,5]", w.Threshold)
	}
	return nil
}

func validateAxis(axis string, weights map[string]LeverWeight, wanted []string) error {
	sum := 0.0
	for _, name := range wanted {
		lw, ok := weights[name]
		if !ok {
			return fmt.Errorf("%s weights: missing lever %q", axis, name)
		}
		sum += lw.Percent
	}
	if len(weights) != len(wanted) {
		return fmt.Errorf("%s weights: %d entries configured, expected %d", axis, len(weights), len(wanted))
	}
	if math.Abs(sum-100) > 1e-9 {
		return fmt.Errorf("%s weights sum to %.2f%%, must sum to 100%%", axis, sum)
	}
	return nil
}

// Scores is one computed impact/effort pair with its quadrant.
type Scores struct {
	ImpactScore float64  `json:"impactScore"`
	EffortScore float64  `json:"effortScore"`
	Quadrant    Quadrant `json:"quadrant"`
}

// Override carries manually supplied scores. It supersedes the computed
// scores for downstream display but never replaces them: both travel in the
// Result so discrepancies stay inspectable.
type Override struct {
	ImpactScore float64  `json:"manualImpactScore"`
	EffortScore float64  `json:"manualEffortScore"`
	Quadrant    Quadrant `json:"manualQuadrant"`
	Reason      string   `json:"reason"`
}

// Result is the immutable outcome of one scoring evaluation.
type Result struct {
	Computed Scores    `json:"computed"`
	Override *Override `json:"override,omitempty"`
}

// Effective returns the scores downstream consumers should display: the
// override when present, the computed scores otherwise.
func (r Result) Effective() Scores {
	if r.Override != nil {
		return Scores{
			ImpactScore: r.Override.ImpactScore,
			EffortScore: r.Override.EffortScore,
			Quadrant:    r.Override.Quadrant,
		}
	}
	return r.Computed
}

// ComputeScores aggregates a validated lever profile into impact and effort
// scores and assigns the quadrant. The aggregator is a pure weighted sum;
// Weights.Validate must have passed at configuration load.
func ComputeScores(profile *levers.Profile, weights Weights) (Scores, error) {
	if err := profile.Validate(); err != nil {
		return Scores{}, err
	}

	impact := weightedSum(profile, weights.Impact, levers.ImpactLevers)
	effort := weightedSum(profile, weights.Effort, levers.EffortLevers)

	return Scores{
		ImpactScore: impact,
		EffortScore: effort,
		Quadrant:    Classify(impact, effort, weights.Threshold),
	}, nil
}

func weightedSum(profile *levers.Profile, weights map[string]LeverWeight, names []string) float64 {
	sum := 0.0
	for _, name := range names {
		v, _ := profile.Value(name)
		lw := weights[name]
		value := float64(v)
		if lw.Invert {
			value = float64(levers.MaxScore + levers.MinScore - v)
		}
		sum += value * lw.Percent
	}
	return sum / 100
}

// Classify assigns the quadrant for one score pair. A score exactly at the
// threshold counts as the high side, on both axes.
func Classify(impact, effort, threshold float64) Quadrant {
	highImpact := impact >= threshold
	highEffort := effort >= threshold
	switch {
	case highImpact && !highEffort:
		return QuickWin
	case highImpact && highEffort:
		return StrategicBet
	case !highImpact && !highEffort:
		return Experimental
	default:
		return Watchlist
	}
}
