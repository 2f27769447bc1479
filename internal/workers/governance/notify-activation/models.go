// internal/workers/governance/notify-activation/models.go
package notifyactivation

// Notification outcome statuses.
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Input is the governance outcome to report to the accountable owner.
// OwnerID identifies the recipient in the owners table.
type Input struct {
	UseCaseID       string   `json:"useCaseId"`
	UseCaseName     string   `json:"useCaseName"`
	OwnerID         string   `json:"ownerId"`
	CanActivate     bool     `json:"canActivate"`
	OverallProgress int      `json:"overallProgress"`
	MissingFields   []string `json:"missingFields,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"notificationStatus"`
	SentAt         string `json:"sentAt"`
}
