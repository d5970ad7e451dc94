package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rule.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateRuleFile(t *testing.T) {
	path := writeRuleFile(t, `{
		"name": "notify on new case",
		"trigger_type": "case_created",
		"conditions": [
			{"field": "case.practice_area", "operator": "equals", "value": "family"}
		],
		"actions": [
			{"kind": "send_notification", "parameters": {"to": "intake@firm.example"}}
		]
	}`)

	result, err := ValidateRuleFile(path)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateRuleFileErrors(t *testing.T) {
	path := writeRuleFile(t, `{
		"trigger_type": "invoice_paid",
		"conditions": [
			{"operator": "matches"},
			{"field": "amount", "operator": "greater_than"}
		],
		"actions": []
	}`)

	result, err := ValidateRuleFile(path)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	// name, trigger, two condition problems each for the first condition,
	// missing value for the second, and the empty action list
	assert.GreaterOrEqual(t, len(result.Errors), 5)
}

func TestValidateRuleFileMalformedJSON(t *testing.T) {
	path := writeRuleFile(t, `{not json`)

	_, err := ValidateRuleFile(path)
	assert.Error(t, err)
}

func TestLoadRuleFromFileMissing(t *testing.T) {
	_, err := LoadRuleFromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
