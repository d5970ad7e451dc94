package actions

import (
	"fmt"
	"regexp"

	"github.com/calloway-legal/caseflow/internal/engine"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

// stringParam reads a string-valued parameter, "" when absent
func stringParam(params map[string]interface{}, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// requireStringParam reads a string-valued parameter or errors when it is
// absent or empty. Missing required parameters are a rule-configuration
// problem surfaced through the action outcome.
func requireStringParam(params map[string]interface{}, key string) (string, error) {
	s := stringParam(params, key)
	if s == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return s, nil
}

// interpolate replaces {{dot.path}} placeholders with values resolved
// from the event payload. Unresolvable paths render empty.
func interpolate(s string, payload map[string]interface{}) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		path := placeholderPattern.FindStringSubmatch(match)[1]
		value := engine.LookupField(payload, path)
		if value == nil {
			return ""
		}
		return fmt.Sprintf("%v", value)
	})
}
