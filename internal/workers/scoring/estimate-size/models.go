// internal/workers/scoring/estimate-size/models.go
package estimatesize

import "portfolio-workers/internal/engine/sizing"

// Input carries the effective scores produced by the scoring step.
type Input struct {
	UseCaseID   string  `json:"useCaseId"`
	ImpactScore float64 `json:"impactScore"`
	EffortScore float64 `json:"effortScore"`
}

type Output struct {
	UseCaseID    string          `json:"useCaseId"`
	Estimate     sizing.Estimate `json:"sizeEstimate"`
	RulesVersion string          `json:"rulesVersion"`
}
