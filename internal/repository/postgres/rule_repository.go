package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/internal/repository"
)

// RuleRepository handles workflow rule database operations
type RuleRepository struct {
	db *sql.DB
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, tenant_id, name, description, trigger_type, conditions, actions, priority, is_active, created_at, updated_at`

func scanRule(row interface{ Scan(...interface{}) error }, rule *models.WorkflowRule) error {
	return row.Scan(
		&rule.ID, &rule.TenantID, &rule.Name, &rule.Description,
		&rule.TriggerType, &rule.Conditions, &rule.Actions,
		&rule.Priority, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
}

// ListActiveRules returns enabled rules for the tenant and trigger type,
// ordered by (priority desc, created_at asc)
func (r *RuleRepository) ListActiveRules(ctx context.Context, tenantID uuid.UUID, triggerType models.TriggerType) ([]models.WorkflowRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM workflow_rules
		WHERE tenant_id = $1 AND trigger_type = $2 AND is_active = TRUE
		ORDER BY priority DESC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tenantID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("%w: listing active rules: %v", repository.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	rules := make([]models.WorkflowRule, 0)
	for rows.Next() {
		var rule models.WorkflowRule
		if err := scanRule(rows, &rule); err != nil {
			return nil, fmt.Errorf("%w: scanning rule: %v", repository.ErrStorageUnavailable, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading rules: %v", repository.ErrStorageUnavailable, err)
	}

	return rules, nil
}

// GetByID retrieves a rule within the tenant
func (r *RuleRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkflowRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM workflow_rules
		WHERE tenant_id = $1 AND id = $2`

	var rule models.WorkflowRule
	err := scanRule(r.db.QueryRowContext(ctx, query, tenantID, id), &rule)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getting rule: %v", repository.ErrStorageUnavailable, err)
	}

	return &rule, nil
}

// List retrieves rules with optional filtering and pagination
func (r *RuleRepository) List(ctx context.Context, tenantID uuid.UUID, isActive *bool, triggerType *models.TriggerType, limit, offset int) ([]models.WorkflowRule, int64, error) {
	var triggerStr *string
	if triggerType != nil {
		s := string(*triggerType)
		triggerStr = &s
	}

	countQuery := `
		SELECT COUNT(*) FROM workflow_rules
		WHERE tenant_id = $1
		AND ($2::boolean IS NULL OR is_active = $2)
		AND ($3::text IS NULL OR trigger_type = $3)`

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, tenantID, isActive, triggerStr).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: counting rules: %v", repository.ErrStorageUnavailable, err)
	}

	query := `
		SELECT ` + ruleColumns + `
		FROM workflow_rules
		WHERE tenant_id = $1
		AND ($2::boolean IS NULL OR is_active = $2)
		AND ($3::text IS NULL OR trigger_type = $3)
		ORDER BY priority DESC, created_at ASC
		LIMIT $4 OFFSET $5`

	rows, err := r.db.QueryContext(ctx, query, tenantID, isActive, triggerStr, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing rules: %v", repository.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var rules []models.WorkflowRule
	for rows.Next() {
		var rule models.WorkflowRule
		if err := scanRule(rows, &rule); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning rule: %v", repository.ErrStorageUnavailable, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: reading rules: %v", repository.ErrStorageUnavailable, err)
	}

	return rules, total, nil
}

// Create inserts a new rule and fills in generated fields
func (r *RuleRepository) Create(ctx context.Context, rule *models.WorkflowRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	query := `
		INSERT INTO workflow_rules (
			id, tenant_id, name, description, trigger_type, conditions, actions, priority, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(
		ctx, query,
		rule.ID, rule.TenantID, rule.Name, rule.Description,
		rule.TriggerType, rule.Conditions, rule.Actions,
		rule.Priority, rule.IsActive,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("%w: creating rule: %v", repository.ErrStorageUnavailable, err)
	}

	return nil
}

// Update persists rule changes within the tenant
func (r *RuleRepository) Update(ctx context.Context, rule *models.WorkflowRule) error {
	query := `
		UPDATE workflow_rules
		SET name = $3, description = $4, trigger_type = $5, conditions = $6,
		    actions = $7, priority = $8, is_active = $9, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING updated_at`

	err := r.db.QueryRowContext(
		ctx, query,
		rule.TenantID, rule.ID, rule.Name, rule.Description,
		rule.TriggerType, rule.Conditions, rule.Actions,
		rule.Priority, rule.IsActive,
	).Scan(&rule.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrRuleNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: updating rule: %v", repository.ErrStorageUnavailable, err)
	}

	rule.UpdatedAt = rule.UpdatedAt.In(time.UTC)
	return nil
}

// Delete removes a rule within the tenant
func (r *RuleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workflow_rules WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: deleting rule: %v", repository.ErrStorageUnavailable, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: deleting rule: %v", repository.ErrStorageUnavailable, err)
	}
	if affected == 0 {
		return repository.ErrRuleNotFound
	}

	return nil
}
