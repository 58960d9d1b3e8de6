package detect

import (
	"testing"

	"vigil/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(eventType string, data map[string]any) *core.Event {
	return core.NewEvent(eventType, data, "test", "normal")
}

func TestMatches_EmptyConditions(t *testing.T) {
	event := testEvent("login_failure", map[string]any{"user": "root"})

	assert.True(t, Matches(nil, event))
	assert.True(t, Matches([]core.Condition{}, event))
}

func TestEvaluateCondition_Equals(t *testing.T) {
	testCases := []struct {
		name  string
		field any
		value any
		want  bool
	}{
		{"string equal", "admin", "admin", true},
		{"string unequal", "admin", "guest", false},
		{"number equal int vs float", 5, 5.0, true},
		{"json number vs int condition", 42.0, 42, true},
		{"number unequal", 5.0, 6, false},
		{"numeric string vs string condition", 5, "5", true},
		{"float field vs string condition", 5.0, "5", true},
		{"bool equal", true, true, true},
		{"bool unequal", false, true, false},
		{"bool field vs string condition", true, "true", true},
		{"string field vs number condition not parseable", "abc", 5, false},
		{"numeric string field vs number condition", "5", 5, true},
		{"nil condition value", "x", nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cond := core.Condition{Field: "f", Operator: core.OperatorEquals, Value: tc.value}
			event := testEvent("e", map[string]any{"f": tc.field})
			assert.Equal(t, tc.want, evaluateCondition(cond, event))
		})
	}
}

func TestEvaluateCondition_Contains(t *testing.T) {
	testCases := []struct {
		name  string
		field any
		value any
		want  bool
	}{
		{"substring present", "failed login from 10.0.0.1", "failed login", true},
		{"substring absent", "successful login", "failed", false},
		{"case sensitive", "Failed", "failed", false},
		{"number field stringified", 8080, "80", true},
		{"number value stringified", "port 8080 open", 8080, true},
		{"float renders without suffix", 5.0, "5", true},
		{"empty needle matches", "anything", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cond := core.Condition{Field: "f", Operator: core.OperatorContains, Value: tc.value}
			event := testEvent("e", map[string]any{"f": tc.field})
			assert.Equal(t, tc.want, evaluateCondition(cond, event))
		})
	}
}

func TestEvaluateCondition_NumericComparison(t *testing.T) {
	testCases := []struct {
		name     string
		operator core.Operator
		field    any
		value    any
		want     bool
	}{
		{"greater true", core.OperatorGreaterThan, 10, 5, true},
		{"greater false equal", core.OperatorGreaterThan, 5, 5, false},
		{"greater false less", core.OperatorGreaterThan, 3, 5, false},
		{"less true", core.OperatorLessThan, 3, 5, true},
		{"less false", core.OperatorLessThan, 7, 5, false},
		{"float operands", core.OperatorGreaterThan, 5.5, 5.25, true},
		{"numeric strings coerced", core.OperatorGreaterThan, "10", "5", true},
		{"string with spaces", core.OperatorLessThan, " 3 ", 5, true},
		{"non-numeric field fails closed", core.OperatorGreaterThan, "many", 5, false},
		{"non-numeric condition fails closed", core.OperatorLessThan, 3, "few", false},
		{"bool is not numeric", core.OperatorGreaterThan, true, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cond := core.Condition{Field: "f", Operator: tc.operator, Value: tc.value}
			event := testEvent("e", map[string]any{"f": tc.field})
			assert.Equal(t, tc.want, evaluateCondition(cond, event))
		})
	}
}

func TestEvaluateCondition_FailsClosed(t *testing.T) {
	event := testEvent("e", map[string]any{"present": 1, "null": nil})

	t.Run("missing field", func(t *testing.T) {
		cond := core.Condition{Field: "absent", Operator: core.OperatorEquals, Value: 1}
		assert.False(t, evaluateCondition(cond, event))
	})

	t.Run("nil field value", func(t *testing.T) {
		cond := core.Condition{Field: "null", Operator: core.OperatorEquals, Value: nil}
		assert.False(t, evaluateCondition(cond, event))
	})

	t.Run("unknown operator", func(t *testing.T) {
		cond := core.Condition{Field: "present", Operator: "regex", Value: 1}
		assert.False(t, evaluateCondition(cond, event))
	})

	t.Run("nil data", func(t *testing.T) {
		cond := core.Condition{Field: "present", Operator: core.OperatorEquals, Value: 1}
		assert.False(t, evaluateCondition(cond, &core.Event{Type: "e"}))
	})
}

func TestMatches_ConjunctionSemantics(t *testing.T) {
	conditions := []core.Condition{
		{Field: "user", Operator: core.OperatorEquals, Value: "root"},
		{Field: "attempts", Operator: core.OperatorGreaterThan, Value: 3},
	}

	assert.True(t, Matches(conditions, testEvent("e", map[string]any{"user": "root", "attempts": 5})))
	assert.False(t, Matches(conditions, testEvent("e", map[string]any{"user": "root", "attempts": 2})))
	assert.False(t, Matches(conditions, testEvent("e", map[string]any{"user": "guest", "attempts": 5})))
	assert.False(t, Matches(conditions, testEvent("e", map[string]any{"user": "root"})))
}

func TestRuleEngine_Match(t *testing.T) {
	rules := []core.Rule{
		{
			ID: "r1", Name: "first", EventType: "login_failure", Enabled: true,
			Severity: core.SeverityHigh,
			Conditions: []core.Condition{
				{Field: "attempts", Operator: core.OperatorGreaterThan, Value: 3},
			},
		},
		{
			ID: "r2", Name: "disabled", EventType: "login_failure", Enabled: false,
			Severity: core.SeverityCritical,
		},
		{
			ID: "r3", Name: "other type", EventType: "port_scan", Enabled: true,
			Severity: core.SeverityLow,
		},
		{
			ID: "r4", Name: "unconditional", EventType: "login_failure", Enabled: true,
			Severity: core.SeverityMedium,
		},
	}
	engine := NewRuleEngine(rules)

	t.Run("matching rules in configuration order", func(t *testing.T) {
		matches := engine.Match(testEvent("login_failure", map[string]any{"attempts": 10}))
		require.Len(t, matches, 2)
		assert.Equal(t, "r1", matches[0].ID)
		assert.Equal(t, "r4", matches[1].ID)
	})

	t.Run("conditions filter", func(t *testing.T) {
		matches := engine.Match(testEvent("login_failure", map[string]any{"attempts": 1}))
		require.Len(t, matches, 1)
		assert.Equal(t, "r4", matches[0].ID)
	})

	t.Run("disabled rules never match", func(t *testing.T) {
		for _, match := range engine.Match(testEvent("login_failure", map[string]any{"attempts": 100})) {
			assert.NotEqual(t, "r2", match.ID)
		}
	})

	t.Run("event type must match exactly", func(t *testing.T) {
		matches := engine.Match(testEvent("port_scan", map[string]any{}))
		require.Len(t, matches, 1)
		assert.Equal(t, "r3", matches[0].ID)
	})

	t.Run("no rules match unknown type", func(t *testing.T) {
		assert.Empty(t, engine.Match(testEvent("dns_query", map[string]any{})))
	})
}

func TestRuleEngine_RuleByID(t *testing.T) {
	engine := NewRuleEngine([]core.Rule{{ID: "r1", Name: "n"}})

	rule := engine.RuleByID("r1")
	require.NotNil(t, rule)
	assert.Equal(t, "n", rule.Name)

	assert.Nil(t, engine.RuleByID("missing"))
}

func TestRuleEngine_EmptyRuleSet(t *testing.T) {
	engine := NewRuleEngine(nil)
	assert.Empty(t, engine.Match(testEvent("anything", map[string]any{})))
}
