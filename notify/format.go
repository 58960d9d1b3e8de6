package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vigil/core"
)

// Subject builds the notification subject line for an alert.
func Subject(alert *core.Alert) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(alert.Severity.String()), alert.RuleName)
}

// FormatAlertBody renders the human-readable notification body for an alert.
func FormatAlertBody(alert *core.Alert) string {
	details, err := json.MarshalIndent(alert.Event.Data, "", "  ")
	if err != nil {
		details = []byte("{}")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Security Alert: %s\n", alert.RuleName)
	fmt.Fprintf(&b, "Severity: %s\n", alert.Severity)
	fmt.Fprintf(&b, "Timestamp: %s\n", alert.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Event Type: %s\n", alert.Event.Type)
	fmt.Fprintf(&b, "Source: %s\n\n", alert.Event.Source)
	fmt.Fprintf(&b, "Event Details:\n%s\n\n", details)
	fmt.Fprintf(&b, "Alert ID: %s\n", alert.ID)
	return b.String()
}
