// internal/engine/governance/gates.go
package governance

import (
	"math"

	"portfolio-workers/internal/engine/levers"
	"portfolio-workers/internal/models"
)

// GateID identifies one of the three governance gates.
type GateID string

const (
	GateOperatingModel GateID = "operating_model"
	GateIntake         GateID = "intake"
	GateRAI            GateID = "rai"
)

// State is the tagged gate progression variant. Governance is recomputed from
// the current attribute set on every read; there is no stored "current gate"
// pointer to drift out of sync.
type State string

const (
	NotStarted State = "NotStarted"
	InProgress State = "InProgress"
	Passed     State = "Passed"
)

// GateStatus is one gate's completeness report.
type GateStatus struct {
	ID              GateID   `json:"gateId"`
	Name            string   `json:"name"`
	State           State    `json:"state"`
	Passed          bool     `json:"passed"`
	Progress        int      `json:"progress"`
	CompletedFields []string `json:"completedFields"`
	MissingFields   []string `json:"missingFields"`
}

// Status aggregates the three gates and the activation decision.
type Status struct {
	OperatingModel  GateStatus `json:"operatingModel"`
	Intake          GateStatus `json:"intake"`
	RAI             GateStatus `json:"responsibleAI"`
	CanActivate     bool       `json:"canActivate"`
	OverallProgress int        `json:"overallProgress"`
}

// Gates returns the three gates in sequence order.
func (s Status) Gates() []GateStatus {
	return []GateStatus{s.OperatingModel, s.Intake, s.RAI}
}

// Evaluate computes the full governance status from the use case's current
// attributes. Each gate's progress depends only on its own required fields;
// later gates may show progress before earlier ones pass. The sequential
// dependency is enforced only at the activation decision: CanActivate
// requires all three gates passed.
func Evaluate(attrs models.UseCaseAttributes) Status {
	om := evaluateOperatingModel(attrs)
	intake := evaluateIntake(attrs)
	rai := evaluateRAI(attrs)

	overall := int(math.Round(float64(om.Progress+intake.Progress+rai.Progress) / 3))

	return Status{
		OperatingModel:  om,
		Intake:          intake,
		RAI:             rai,
		CanActivate:     om.Passed && intake.Passed && rai.Passed,
		OverallProgress: overall,
	}
}

// Gate 1: an accountable owner, a business function, and a status that has
// moved beyond the initial Discovery placeholder.
func evaluateOperatingModel(attrs models.UseCaseAttributes) GateStatus {
	fields := []fieldCheck{
		{"Primary business owner", attrs.PrimaryBusinessOwner != ""},
		{"Business function", attrs.BusinessFunction != ""},
		{"Status beyond Discovery", attrs.Status != "" && attrs.Status != models.StatusDiscovery},
	}
	return buildGate(GateOperatingModel, "Operating Model", fields)
}

// Gate 2: all ten impact/effort levers scored, not merely touched.
func evaluateIntake(attrs models.UseCaseAttributes) GateStatus {
	var fields []fieldCheck
	for _, name := range levers.ImpactLevers {
		fields = append(fields, fieldCheck{"Impact lever: " + name, attrs.Levers.Scored(name)})
	}
	for _, name := range levers.EffortLevers {
		fields = append(fields, fieldCheck{"Effort lever: " + name, attrs.Levers.Scored(name)})
	}
	return buildGate(GateIntake, "Intake & Prioritization", fields)
}

// Gate 3: the five Responsible AI questionnaire answers must be present.
// Presence is what counts; an explicit "no" passes the gate.
func evaluateRAI(attrs models.UseCaseAttributes) GateStatus {
	fields := []fieldCheck{
		{"Explainability required", attrs.ExplainabilityRequired != nil},
		{"Customer harm risk", attrs.CustomerHarmRisk != nil && *attrs.CustomerHarmRisk != ""},
		{"Human accountability", attrs.HumanAccountability != nil && *attrs.HumanAccountability != ""},
		{"Data location flag", attrs.DataLocationRestricted != nil},
		{"Third-party model flag", attrs.ThirdPartyModel != nil},
	}
	return buildGate(GateRAI, "Responsible AI", fields)
}

type fieldCheck struct {
	label   string
	present bool
}

func buildGate(id GateID, name string, fields []fieldCheck) GateStatus {
	completed := make([]string, 0, len(fields))
	missing := make([]string, 0)
	for _, f := range fields {
		if f.present {
			completed = append(completed, f.label)
		} else {
			missing = append(missing, f.label)
		}
	}

	progress := int(math.Round(float64(len(completed)) / float64(len(fields)) * 100))
	state := InProgress
	switch {
	case len(completed) == 0:
		state = NotStarted
	case len(missing) == 0:
		state = Passed
	}

	return GateStatus{
		ID:              id,
		Name:            name,
		State:           state,
		Passed:          state == Passed,
		Progress:        progress,
		CompletedFields: completed,
		MissingFields:   missing,
	}
}
