package repository

import (
	"context"
	"errors"

	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/google/uuid"
)

// ErrStorageUnavailable marks a rule-store read or write that failed at
// the storage layer. It aborts processing of the current event; the
// caller decides whether to retry delivery.
var ErrStorageUnavailable = errors.New("rule storage unavailable")

// ErrRuleNotFound marks a lookup for a rule that does not exist in the
// caller's tenant.
var ErrRuleNotFound = errors.New("rule not found")

// RuleStore is the engine's only shared resource. All operations are
// scoped to a single tenant; rules never cross tenants.
type RuleStore interface {
	// ListActiveRules returns enabled rules for the tenant and trigger
	// type, ordered by (priority desc, created_at asc). No rules is an
	// empty slice, not an error.
	ListActiveRules(ctx context.Context, tenantID uuid.UUID, triggerType models.TriggerType) ([]models.WorkflowRule, error)

	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkflowRule, error)
	List(ctx context.Context, tenantID uuid.UUID, isActive *bool, triggerType *models.TriggerType, limit, offset int) ([]models.WorkflowRule, int64, error)
	Create(ctx context.Context, rule *models.WorkflowRule) error
	Update(ctx context.Context, rule *models.WorkflowRule) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
