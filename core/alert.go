package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Alert is the record produced when an event satisfies a rule. Severity is
// copied from the rule at creation time and never re-read. The triggering
// event is embedded by value.
type Alert struct {
	ID        string      `json:"id"`
	RuleID    string      `json:"rule_id"`
	RuleName  string      `json:"rule_name"`
	Severity  Severity    `json:"severity"`
	Event     Event       `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Status    AlertStatus `json:"status"`

	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	DismissedAt    *time.Time `json:"dismissed_at,omitempty"`
	DismissedBy    string     `json:"dismissed_by,omitempty"`
}

// NewAlert builds an Alert for a matched rule. The ID is unique across the
// process lifetime (UUIDv4 suffix), status starts at pending, and neither
// the rule nor the event is mutated.
func NewAlert(rule *Rule, event *Event) *Alert {
	return &Alert{
		ID:        fmt.Sprintf("alert-%s", uuid.New().String()),
		RuleID:    rule.ID,
		RuleName:  rule.Name,
		Severity:  rule.Severity,
		Event:     *event,
		Timestamp: time.Now().UTC(),
		Status:    AlertStatusPending,
	}
}
