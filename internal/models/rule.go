package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TriggerType identifies the category of domain event a rule listens for
type TriggerType string

const (
	TriggerCaseCreated  TriggerType = "case_created"
	TriggerClientAdded  TriggerType = "client_added"
	TriggerTaskOverdue  TriggerType = "task_overdue"
	TriggerProposalSent TriggerType = "proposal_sent"
	TriggerTimeLogged   TriggerType = "time_logged"
)

// TriggerTypes returns all valid trigger types
func TriggerTypes() []TriggerType {
	return []TriggerType{
		TriggerCaseCreated,
		TriggerClientAdded,
		TriggerTaskOverdue,
		TriggerProposalSent,
		TriggerTimeLogged,
	}
}

// Valid reports whether t is a known trigger type
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerCaseCreated, TriggerClientAdded, TriggerTaskOverdue, TriggerProposalSent, TriggerTimeLogged:
		return true
	}
	return false
}

// Operator identifies a condition predicate
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorContains    Operator = "contains"
	OperatorIsEmpty     Operator = "is_empty"
	OperatorIsNotEmpty  Operator = "is_not_empty"
)

// Valid reports whether o is a known operator
func (o Operator) Valid() bool {
	switch o {
	case OperatorEquals, OperatorNotEquals, OperatorGreaterThan, OperatorLessThan,
		OperatorContains, OperatorIsEmpty, OperatorIsNotEmpty:
		return true
	}
	return false
}

// RequiresValue reports whether the operator needs a comparison operand
func (o Operator) RequiresValue() bool {
	return o != OperatorIsEmpty && o != OperatorIsNotEmpty
}

// Condition is a single predicate over an event payload field.
// Field is a dot-path into the payload (e.g. "case.status").
type Condition struct {
	Field    string      `json:"field"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value,omitempty"`
}

// ActionDirective names an effect to perform and its parameters.
// Parameters are interpreted solely by the registered handler for Kind.
type ActionDirective struct {
	Kind       string                 `json:"kind"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// WorkflowRule is a configured automation rule: when an event of TriggerType
// arrives and all Conditions hold, Actions execute in order. Higher Priority
// rules run first; ties break on creation order.
type WorkflowRule struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	TenantID    uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	Name        string        `json:"name" db:"name"`
	Description *string       `json:"description,omitempty" db:"description"`
	TriggerType TriggerType   `json:"trigger_type" db:"trigger_type"`
	Conditions  ConditionList `json:"conditions" db:"conditions"`
	Actions     ActionList    `json:"actions" db:"actions"`
	Priority    int           `json:"priority" db:"priority"`
	IsActive    bool          `json:"is_active" db:"is_active"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// ConditionList stores a rule's ordered conditions as JSONB
type ConditionList []Condition

func (c *ConditionList) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, c)
}

func (c ConditionList) Value() (driver.Value, error) {
	if c == nil {
		c = ConditionList{}
	}
	return json.Marshal(c)
}

// ActionList stores a rule's ordered action directives as JSONB
type ActionList []ActionDirective

func (a *ActionList) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, a)
}

func (a ActionList) Value() (driver.Value, error) {
	if a == nil {
		a = ActionList{}
	}
	return json.Marshal(a)
}

// CreateRuleRequest represents the request to create a rule
type CreateRuleRequest struct {
	Name        string            `json:"name" validate:"required"`
	Description *string           `json:"description,omitempty"`
	TriggerType TriggerType       `json:"trigger_type" validate:"required"`
	Conditions  []Condition       `json:"conditions,omitempty"`
	Actions     []ActionDirective `json:"actions" validate:"required,min=1"`
	Priority    int               `json:"priority"`
	IsActive    *bool             `json:"is_active,omitempty"`
}

// UpdateRuleRequest represents the request to update a rule
type UpdateRuleRequest struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	TriggerType *TriggerType       `json:"trigger_type,omitempty"`
	Conditions  *[]Condition       `json:"conditions,omitempty"`
	Actions     *[]ActionDirective `json:"actions,omitempty"`
	Priority    *int               `json:"priority,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
}

// TestRuleRequest represents the request to dry-run a rule's conditions
type TestRuleRequest struct {
	Payload map[string]interface{} `json:"payload" validate:"required"`
}

// TestRuleResponse represents the result of a rule dry run
type TestRuleResponse struct {
	Matched bool `json:"matched"`
}
