// Package detect implements rule matching for the Vigil alert engine:
// a pure condition evaluator plus a matcher that filters rules against an
// incoming event. Evaluation fails closed: unknown operators, missing
// fields, and coercion failures all resolve to "no match", never an error.
package detect

import (
	"fmt"
	"strconv"
	"strings"

	"vigil/core"
)

// RuleEngine evaluates rules against events. It is stateless and safe for
// concurrent use; the rule slice is read-only configuration.
type RuleEngine struct {
	rules []core.Rule
}

// NewRuleEngine creates a rule engine over a fixed rule configuration.
func NewRuleEngine(rules []core.Rule) *RuleEngine {
	return &RuleEngine{rules: rules}
}

// Rules returns the engine's rule configuration.
func (re *RuleEngine) Rules() []core.Rule {
	return re.rules
}

// Match returns all enabled rules whose event type and conditions match the
// event, preserving configuration order. An empty result is the expected
// no-op path, not an error.
func (re *RuleEngine) Match(event *core.Event) []core.Rule {
	var matches []core.Rule
	for _, rule := range re.rules {
		if !rule.Enabled {
			continue
		}
		if rule.EventType != event.Type {
			continue
		}
		if Matches(rule.Conditions, event) {
			matches = append(matches, rule)
		}
	}
	return matches
}

// RuleByID returns the rule with the given ID, or nil.
func (re *RuleEngine) RuleByID(id string) *core.Rule {
	for i := range re.rules {
		if re.rules[i].ID == id {
			return &re.rules[i]
		}
	}
	return nil
}

// Matches evaluates a condition sequence against an event. An empty or
// absent sequence matches unconditionally; otherwise every condition must
// match (logical AND).
func Matches(conditions []core.Condition, event *core.Event) bool {
	if len(conditions) == 0 {
		return true
	}
	for _, cond := range conditions {
		if !evaluateCondition(cond, event) {
			return false
		}
	}
	return true
}

// evaluateCondition evaluates a single condition against the event payload.
// A missing field fails every operator.
func evaluateCondition(cond core.Condition, event *core.Event) bool {
	if event.Data == nil {
		return false
	}
	fieldValue, ok := event.Data[cond.Field]
	if !ok || fieldValue == nil {
		return false
	}

	switch cond.Operator {
	case core.OperatorEquals:
		return equalAfterCoercion(fieldValue, cond.Value)
	case core.OperatorContains:
		return strings.Contains(stringify(fieldValue), stringify(cond.Value))
	case core.OperatorGreaterThan:
		return compareNumbers(fieldValue, cond.Value, func(a, b float64) bool { return a > b })
	case core.OperatorLessThan:
		return compareNumbers(fieldValue, cond.Value, func(a, b float64) bool { return a < b })
	}
	// Unknown operator fails closed.
	return false
}

// equalAfterCoercion compares the event value against the condition value
// after coercing the event value to the condition value's apparent type.
func equalAfterCoercion(fieldValue, condValue any) bool {
	switch cv := condValue.(type) {
	case string:
		return stringify(fieldValue) == cv
	case bool:
		fv, ok := fieldValue.(bool)
		return ok && fv == cv
	case nil:
		return false
	default:
		if cf, ok := toFloat(condValue); ok {
			ff, ok := toFloat(fieldValue)
			return ok && ff == cf
		}
		// Structured condition values compare textually.
		return stringify(fieldValue) == stringify(condValue)
	}
}

// compareNumbers coerces both operands to float64 and applies cmp.
// Non-numeric operands make the condition false.
func compareNumbers(a, b any, cmp func(float64, float64) bool) bool {
	fa, ok := toFloat(a)
	if !ok {
		return false
	}
	fb, ok := toFloat(b)
	if !ok {
		return false
	}
	return cmp(fa, fb)
}

// toFloat coerces a scalar to float64. Strings are parsed; anything else
// non-numeric fails.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// stringify renders a value as text for substring and textual comparison.
// Numbers render without a float suffix so 5 and 5.0 read the same.
func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}
