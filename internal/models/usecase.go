// internal/models/usecase.go
package models

import "portfolio-workers/internal/engine/levers"

// Use-case operational statuses.
const (
	StatusDiscovery = "discovery"
	StatusScoping   = "scoping"
	StatusBuild     = "build"
	StatusPilot     = "pilot"
	StatusLive      = "live"
	StatusOnHold    = "on_hold"
	StatusRetired   = "retired"
)

// Deployment statuses reported by delivery teams.
const (
	DeploymentNotStarted = "not_started"
	DeploymentInDev      = "in_development"
	DeploymentPilot      = "pilot"
	DeploymentProduction = "production"
	DeploymentRolledBack = "rolled_back"
)

// UseCaseAttributes is the attribute snapshot the governance evaluator reads.
// Optional fields are pointers so "never answered" is distinguishable from an
// explicit false/empty answer; gate progress counts presence, not value.
type UseCaseAttributes struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	PrimaryBusinessOwner string         `json:"primaryBusinessOwner"`
	BusinessFunction     string         `json:"businessFunction"`
	Status               string         `json:"status"`
	DeploymentStatus     *string        `json:"deploymentStatus,omitempty"`
	Levers               levers.Profile `json:"levers"`

	// Responsible AI questionnaire answers.
	ExplainabilityRequired *bool   `json:"explainabilityRequired,omitempty"`
	CustomerHarmRisk       *string `json:"customerHarmRisk,omitempty"`
	HumanAccountability    *string `json:"humanAccountability,omitempty"`
	DataLocationRestricted *bool   `json:"dataLocationRestricted,omitempty"`
	ThirdPartyModel        *bool   `json:"thirdPartyModel,omitempty"`
}

// ManualPhase carries a human-assigned phase with its audit trail.
type ManualPhase struct {
	Phase         string `json:"phase"`
	AssignedBy    string `json:"assignedBy"`
	Justification string `json:"justification,omitempty"`
}
