package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/calloway-legal/caseflow/internal/models"
)

// ValidationResult holds the outcome of validating a rule file
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// LoadRuleFromFile reads and parses a rule definition file
func LoadRuleFromFile(filename string) (*models.CreateRuleRequest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var rule models.CreateRuleRequest
	if err := json.Unmarshal(data, &rule); err != nil {
		return nil, fmt.Errorf("failed to parse rule definition: %w", err)
	}

	return &rule, nil
}

// ValidateRuleFile validates a rule definition file without contacting
// the server. The checks mirror the server-side structural validation so
// a rule that passes here will not be rejected on deploy.
func ValidateRuleFile(filename string) (*ValidationResult, error) {
	rule, err := LoadRuleFromFile(filename)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{Valid: true}
	addError := func(format string, args ...interface{}) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	if rule.Name == "" {
		addError("name is required")
	}

	if rule.TriggerType == "" {
		addError("trigger_type is required")
	} else if !rule.TriggerType.Valid() {
		addError("unknown trigger type: %q (valid: %v)", rule.TriggerType, models.TriggerTypes())
	}

	for i, cond := range rule.Conditions {
		if cond.Field == "" {
			addError("condition %d: field is required", i)
		}
		if !cond.Operator.Valid() {
			addError("condition %d: unknown operator: %q", i, cond.Operator)
		} else if cond.Operator.RequiresValue() && cond.Value == nil {
			addError("condition %d: operator %s requires a value", i, cond.Operator)
		}
	}

	if len(rule.Actions) == 0 {
		addError("at least one action is required")
	}
	for i, action := range rule.Actions {
		if action.Kind == "" {
			addError("action %d: kind is required", i)
		}
	}

	return result, nil
}
