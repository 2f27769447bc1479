// internal/workers/lifecycle/derive-phase/models.go
package derivephase

import (
	"portfolio-workers/internal/engine/lifecycle"
	"portfolio-workers/internal/models"
)

// Phase sources recorded in the output.
const (
	SourceDerived = "derived"
	SourceManual  = "manual"
)

// TransitionCheck asks for an exit-requirements review of a requested phase
// move. Satisfied maps requirement labels to completion.
type TransitionCheck struct {
	FromPhase     string          `json:"fromPhase"`
	ToPhase       string          `json:"toPhase"`
	Satisfied     map[string]bool `json:"satisfied,omitempty"`
	Justification string          `json:"justification,omitempty"`
}

// Input carries the operational signals for one use case. A manual phase
// assignment supersedes derivation; a nil deployment status means the
// deployment signal is not applicable.
type Input struct {
	UseCaseID        string              `json:"useCaseId"`
	Status           string              `json:"status"`
	DeploymentStatus *string             `json:"deploymentStatus,omitempty"`
	Manual           *models.ManualPhase `json:"manualPhase,omitempty"`
	Transition       *TransitionCheck    `json:"transition,omitempty"`
}

type Output struct {
	UseCaseID    string                      `json:"useCaseId"`
	Phase        string                      `json:"phase"`
	Source       string                      `json:"phaseSource"`
	Transition   *lifecycle.TransitionReport `json:"transitionReport,omitempty"`
	RulesVersion string                      `json:"rulesVersion"`
}
