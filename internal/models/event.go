package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JSONB is a generic JSON object column/payload
type JSONB map[string]interface{}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		j = JSONB{}
	}
	return json.Marshal(j)
}

// DomainEvent is an immutable record of something that happened in the
// business layer. The CRUD layer constructs one per business event; the
// engine consumes it and discards it.
type DomainEvent struct {
	TriggerType TriggerType `json:"trigger_type"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	Payload     JSONB       `json:"payload"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// ErrorKind classifies a non-fatal per-action failure
type ErrorKind string

const (
	ErrorKindUnknownAction   ErrorKind = "unknown_action_kind"
	ErrorKindExecutionFailed ErrorKind = "action_execution_failed"
	ErrorKindTimeout         ErrorKind = "action_timeout"
)

// ActionOutcome is the recorded result of a single action dispatch
type ActionOutcome struct {
	ActionKind string    `json:"action_kind"`
	Success    bool      `json:"success"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// ExecutionReport is the per-rule outcome record returned to the caller
// for each processed event. Entries appear in rule execution order.
type ExecutionReport struct {
	RuleID          uuid.UUID       `json:"rule_id"`
	RuleName        string          `json:"rule_name,omitempty"`
	Matched         bool            `json:"matched"`
	ActionsExecuted []ActionOutcome `json:"actions_executed"`
}

// EmitEventRequest represents the request to emit a domain event
type EmitEventRequest struct {
	TriggerType TriggerType            `json:"trigger_type" validate:"required"`
	Payload     map[string]interface{} `json:"payload" validate:"required"`
	OccurredAt  *time.Time             `json:"occurred_at,omitempty"`
}
