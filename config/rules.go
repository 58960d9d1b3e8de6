package config

import (
	"fmt"
	"os"

	"vigil/core"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ruleValidator = validator.New()

// ruleFile is the on-disk rule set shape.
type ruleFile struct {
	Rules []core.Rule `yaml:"rules"`
}

// LoadRules reads and validates the alert rule set from a YAML file.
// Rule IDs must be unique; a file with no rules is valid and yields an
// engine that matches nothing.
func LoadRules(path string) ([]core.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules parses and validates a YAML rule set.
func ParseRules(data []byte) ([]core.Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Rules))
	for i := range file.Rules {
		rule := &file.Rules[i]
		if err := ruleValidator.Struct(rule); err != nil {
			return nil, fmt.Errorf("invalid rule %q: %w", rule.ID, err)
		}
		if _, dup := seen[rule.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = struct{}{}
	}

	return file.Rules, nil
}
