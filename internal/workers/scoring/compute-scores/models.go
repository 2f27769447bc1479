// internal/workers/scoring/compute-scores/models.go
package computescores

import (
	"portfolio-workers/internal/engine/levers"
	"portfolio-workers/internal/engine/scoring"
)

// Input carries the lever assessment for one use case. The override block is
// optional; when present the manual scores supersede the computed ones for
// display while both remain in the result.
type Input struct {
	UseCaseID string            `json:"useCaseId"`
	Levers    levers.Profile    `json:"levers"`
	Override  *scoring.Override `json:"override,omitempty"`
}

type Output struct {
	UseCaseID    string         `json:"useCaseId"`
	Result       scoring.Result `json:"scoringResult"`
	Effective    scoring.Scores `json:"effectiveScores"`
	RulesVersion string         `json:"rulesVersion"`
}
