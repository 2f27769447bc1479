// internal/workers/governance/evaluate-gates/models.go
package evaluategates

import (
	"portfolio-workers/internal/engine/governance"
	"portfolio-workers/internal/models"
)

// Input names the use case to evaluate. Attributes may be supplied inline by
// the process; when absent the handler loads the current snapshot from the
// portfolio database.
type Input struct {
	UseCaseID  string                    `json:"useCaseId"`
	Attributes *models.UseCaseAttributes `json:"attributes,omitempty"`
}

type Output struct {
	UseCaseID   string            `json:"useCaseId"`
	Status      governance.Status `json:"governanceStatus"`
	EvaluatedAt string            `json:"evaluatedAt"`
}
