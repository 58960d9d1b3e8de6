package core

// AlertFilters defines the filtering options for alert listing. Zero values
// mean "no filter"; results are always ordered newest-first by timestamp.
type AlertFilters struct {
	Severity Severity    `json:"severity,omitempty"`
	Status   AlertStatus `json:"status,omitempty"`
	Limit    int         `json:"limit,omitempty"`
}

// Matches reports whether an alert passes the severity and status filters.
// The limit is applied by the store after ordering.
func (f *AlertFilters) Matches(a *Alert) bool {
	if f == nil {
		return true
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

// AlertBrief is a compact alert summary used in statistics responses.
type AlertBrief struct {
	ID        string   `json:"id"`
	RuleName  string   `json:"rule_name"`
	Severity  Severity `json:"severity"`
	Timestamp string   `json:"timestamp"`
}

// AlertStats aggregates counts over the active alert set.
type AlertStats struct {
	TotalAlerts int64                 `json:"total_alerts"`
	BySeverity  map[Severity]int64    `json:"by_severity"`
	ByStatus    map[AlertStatus]int64 `json:"by_status"`
	Recent      []AlertBrief          `json:"recent"`
}
