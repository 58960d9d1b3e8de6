package core

// AlertStatus represents the lifecycle status of an alert
type AlertStatus string

const (
	// AlertStatusPending indicates an alert created but not yet dispatched
	AlertStatusPending AlertStatus = "pending"
	// AlertStatusSent indicates every configured channel accepted the notification
	AlertStatusSent AlertStatus = "sent"
	// AlertStatusFailed indicates at least one channel send failed
	AlertStatusFailed AlertStatus = "failed"
	// AlertStatusAcknowledged indicates an operator has acknowledged the alert
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	// AlertStatusDismissed indicates the alert was dismissed and removed from the active set
	AlertStatusDismissed AlertStatus = "dismissed"
)

// String returns the string representation
func (s AlertStatus) String() string {
	return string(s)
}

// IsValid checks if the status is valid
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusPending, AlertStatusSent, AlertStatusFailed, AlertStatusAcknowledged, AlertStatusDismissed:
		return true
	default:
		return false
	}
}

// Severity represents the severity assigned to a rule and copied to its alerts
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// String returns the string representation
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// Severities lists all valid severities in descending order of urgency.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
