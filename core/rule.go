package core

// Operator identifies a condition comparison operator
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorContains    Operator = "contains"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
)

// Condition is a single comparison clause within a rule. Field is a key into
// the event data payload; Value is the comparison operand. An unknown
// operator never matches.
type Condition struct {
	Field    string   `json:"field" yaml:"field" validate:"required"`
	Operator Operator `json:"operator" yaml:"operator" validate:"required"`
	Value    any      `json:"value" yaml:"value" validate:"required"`
}

// NotifyTargets holds the notification channels configured on a rule:
// zero or more email recipients and an optional webhook URL.
type NotifyTargets struct {
	Email   []string `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,dive,email"`
	Webhook string   `json:"webhook,omitempty" yaml:"webhook,omitempty" validate:"omitempty,url"`
}

// Rule represents configured matching criteria plus severity and
// notification targets. Rules are immutable after load for a given engine
// run; the engine reads them, configuration owns them.
type Rule struct {
	ID         string        `json:"id" yaml:"id" validate:"required"`
	Name       string        `json:"name" yaml:"name" validate:"required"`
	EventType  string        `json:"event_type" yaml:"event_type" validate:"required"`
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	Severity   Severity      `json:"severity" yaml:"severity" validate:"required,oneof=critical high medium low"`
	Conditions []Condition   `json:"conditions,omitempty" yaml:"conditions,omitempty" validate:"omitempty,dive"`
	Notify     NotifyTargets `json:"notifications" yaml:"notifications"`
}

// HasTargets reports whether the rule has at least one notification channel
// configured. A rule without targets still produces alerts; its dispatch is
// a no-op that succeeds trivially.
func (r *Rule) HasTargets() bool {
	return len(r.Notify.Email) > 0 || r.Notify.Webhook != ""
}
