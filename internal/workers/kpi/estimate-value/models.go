// internal/workers/kpi/estimate-value/models.go
package estimatevalue

import (
	"portfolio-workers/internal/engine/kpi"
	"portfolio-workers/internal/engine/levers"
)

// Input names the business process the use case improves; the KPI library is
// filtered to that process before matching.
type Input struct {
	UseCaseID string         `json:"useCaseId"`
	Process   string         `json:"process"`
	Levers    levers.Profile `json:"levers"`
}

// Output carries one estimate per applicable KPI. KPIs outside the process
// scope are omitted, not zeroed.
type Output struct {
	UseCaseID    string         `json:"useCaseId"`
	Process      string         `json:"process"`
	Estimates    []kpi.Estimate `json:"kpiEstimates"`
	RulesVersion string         `json:"rulesVersion"`
}
