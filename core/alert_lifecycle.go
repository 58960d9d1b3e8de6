package core

import (
	"errors"
	"fmt"
	"time"
)

// validTransitions defines allowed state transitions for alerts.
// Dispatch outcome moves pending to sent or failed; acknowledgment and
// dismissal are external actions. Dismissed is terminal and there is no
// transition back to pending.
var validTransitions = map[AlertStatus][]AlertStatus{
	AlertStatusPending:      {AlertStatusSent, AlertStatusFailed, AlertStatusAcknowledged, AlertStatusDismissed},
	AlertStatusSent:         {AlertStatusAcknowledged, AlertStatusDismissed},
	AlertStatusFailed:       {AlertStatusAcknowledged, AlertStatusDismissed},
	AlertStatusAcknowledged: {AlertStatusDismissed},
	AlertStatusDismissed:    {},
}

// TransitionError reports a lifecycle transition the state machine does not
// allow from the alert's current status.
type TransitionError struct {
	From AlertStatus
	To   AlertStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// TransitionTo validates and executes an alert state transition.
// Returns a TransitionError if the transition is not allowed from the
// current state.
func (a *Alert) TransitionTo(newStatus AlertStatus) error {
	if newStatus == "" {
		return errors.New("new status cannot be empty")
	}

	if !newStatus.IsValid() {
		return fmt.Errorf("invalid alert status: %s", newStatus)
	}

	allowed, exists := validTransitions[a.Status]
	if !exists {
		return fmt.Errorf("unknown current status: %s", a.Status)
	}

	for _, status := range allowed {
		if status == newStatus {
			a.Status = newStatus
			return nil
		}
	}

	return &TransitionError{From: a.Status, To: newStatus}
}

// CanTransitionTo checks whether a transition is allowed without executing it.
func (a *Alert) CanTransitionTo(newStatus AlertStatus) bool {
	if !newStatus.IsValid() {
		return false
	}

	allowed, exists := validTransitions[a.Status]
	if !exists {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}

	return false
}

// IsTerminal reports whether the alert is in a state with no outgoing
// transitions.
func (a *Alert) IsTerminal() bool {
	allowed, exists := validTransitions[a.Status]
	if !exists {
		return false
	}
	return len(allowed) == 0
}

// Acknowledge transitions the alert to acknowledged and records the audit
// fields. The actor defaults to "system" when empty, matching the API
// boundary behavior for unauthenticated callers.
func (a *Alert) Acknowledge(by string) error {
	if err := a.TransitionTo(AlertStatusAcknowledged); err != nil {
		return err
	}
	if by == "" {
		by = "system"
	}
	now := time.Now().UTC()
	a.AcknowledgedAt = &now
	a.AcknowledgedBy = by
	return nil
}

// Dismiss transitions the alert to dismissed and records the audit fields.
// Removal from the active set is the store's responsibility; the dismissed
// record is still returned once to the caller that performed the dismissal.
func (a *Alert) Dismiss(by string) error {
	if err := a.TransitionTo(AlertStatusDismissed); err != nil {
		return err
	}
	if by == "" {
		by = "system"
	}
	now := time.Now().UTC()
	a.DismissedAt = &now
	a.DismissedBy = by
	return nil
}
