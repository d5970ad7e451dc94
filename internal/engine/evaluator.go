package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/pkg/logger"
	"github.com/calloway-legal/caseflow/pkg/metrics"
)

// Evaluator decides whether a rule's conditions hold for an event payload.
// Conditions combine with AND; OR requires multiple rules. Evaluation never
// fails: malformed data degrades the offending condition to false so a
// misconfigured rule cannot block the triggering business operation.
type Evaluator struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewEvaluator creates a new condition evaluator
func NewEvaluator(log *logger.Logger, m *metrics.Metrics) *Evaluator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Evaluator{logger: log, metrics: m}
}

// Evaluate reports whether every condition holds against the payload.
// An empty condition list is always satisfied.
func (e *Evaluator) Evaluate(conditions []models.Condition, payload map[string]interface{}) bool {
	for i := range conditions {
		if !e.evaluateCondition(&conditions[i], payload) {
			return false
		}
	}
	return true
}

func (e *Evaluator) evaluateCondition(cond *models.Condition, payload map[string]interface{}) bool {
	value := LookupField(payload, cond.Field)

	switch cond.Operator {
	case models.OperatorEquals:
		// An unresolvable field never equals anything.
		return value != nil && equals(value, cond.Value)

	case models.OperatorNotEquals:
		return !(value != nil && equals(value, cond.Value))

	case models.OperatorGreaterThan:
		return e.compare(cond, value, cond.Value, func(cmp int) bool { return cmp > 0 })

	case models.OperatorLessThan:
		return e.compare(cond, value, cond.Value, func(cmp int) bool { return cmp < 0 })

	case models.OperatorContains:
		return contains(value, cond.Value)

	case models.OperatorIsEmpty:
		return isEmpty(value)

	case models.OperatorIsNotEmpty:
		return !isEmpty(value)

	default:
		e.degrade(cond, "unknown operator")
		return false
	}
}

// compare handles greater_than/less_than over numbers and instants.
// Non-comparable operands degrade to false.
func (e *Evaluator) compare(cond *models.Condition, a, b interface{}, pass func(cmp int) bool) bool {
	if a == nil {
		return false
	}

	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			switch {
			case af > bf:
				return pass(1)
			case af < bf:
				return pass(-1)
			default:
				return pass(0)
			}
		}
	}

	if at, aok := toTime(a); aok {
		if bt, bok := toTime(b); bok {
			switch {
			case at.After(bt):
				return pass(1)
			case at.Before(bt):
				return pass(-1)
			default:
				return pass(0)
			}
		}
	}

	e.degrade(cond, "operands are not comparable")
	return false
}

// degrade records a condition that could not be meaningfully evaluated.
// This is a diagnostic, never an error surfaced to the caller.
func (e *Evaluator) degrade(cond *models.Condition, reason string) {
	e.logger.Warn("Condition evaluation degraded to false",
		zap.String("field", cond.Field),
		zap.String("operator", string(cond.Operator)),
		zap.String("reason", reason),
	)
	if e.metrics != nil {
		e.metrics.ConditionsDegraded.Inc()
	}
}

// LookupField resolves a dot-path against a payload, walking nested objects.
// An unresolvable path yields nil.
func LookupField(payload map[string]interface{}, field string) interface{} {
	if field == "" {
		return nil
	}

	parts := strings.Split(field, ".")
	current := payload

	for i, part := range parts {
		val, exists := current[part]
		if !exists {
			return nil
		}

		if i == len(parts)-1 {
			return val
		}

		next, ok := val.(map[string]interface{})
		if !ok {
			if j, ok := val.(models.JSONB); ok {
				next = map[string]interface{}(j)
			} else {
				return nil
			}
		}
		current = next
	}

	return nil
}

// equals performs deep value equality after normalizing types: numeric
// strings compare as numbers, date strings compare as instants, everything
// else compares by its string form.
func equals(a, b interface{}) bool {
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			return af == bf
		}
	}

	if at, aok := toTime(a); aok {
		if bt, bok := toTime(b); bok {
			return at.Equal(bt)
		}
	}

	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// contains is a substring match for strings and a membership test for
// sequences; false for anything else.
func contains(haystack, needle interface{}) bool {
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, fmt.Sprintf("%v", needle))
	case []interface{}:
		for _, item := range h {
			if equals(item, needle) {
				return true
			}
		}
		return false
	case []string:
		needleStr := fmt.Sprintf("%v", needle)
		for _, item := range h {
			if item == needleStr {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// isEmpty reports whether a value is null, an empty string or an empty sequence
func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}

// toFloat64 converts numeric types and numeric strings to float64
func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// toTime converts time values and RFC 3339 / date-only strings to instants
func toTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
