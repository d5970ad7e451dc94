package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/calloway-legal/caseflow/internal/engine"
	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/internal/repository"
	"github.com/calloway-legal/caseflow/pkg/logger"
	"github.com/google/uuid"
)

// RuleService handles rule administration. Structural validation happens
// here, before a rule is persisted: the engine trusts stored rules but
// still fails safe if one slips through.
type RuleService struct {
	store     repository.RuleStore
	evaluator *engine.Evaluator
	logger    *logger.Logger
}

// NewRuleService creates a new rule service
func NewRuleService(store repository.RuleStore, evaluator *engine.Evaluator, log *logger.Logger) *RuleService {
	if log == nil {
		log = logger.NewNop()
	}
	return &RuleService{
		store:     store,
		evaluator: evaluator,
		logger:    log,
	}
}

// Create validates and persists a new rule
func (s *RuleService) Create(ctx context.Context, tenantID uuid.UUID, req *models.CreateRuleRequest) (*models.WorkflowRule, error) {
	if err := s.validateDefinition(req.TriggerType, req.Conditions, req.Actions); err != nil {
		return nil, fmt.Errorf("invalid rule definition: %w", err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	rule := &models.WorkflowRule{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		TriggerType: req.TriggerType,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		Priority:    req.Priority,
		IsActive:    isActive,
	}

	if err := s.store.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("Rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("trigger_type", string(rule.TriggerType)),
	)

	return rule, nil
}

// GetByID retrieves a rule within the tenant
func (s *RuleService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkflowRule, error) {
	return s.store.GetByID(ctx, tenantID, id)
}

// List retrieves rules with optional filtering and pagination
func (s *RuleService) List(ctx context.Context, tenantID uuid.UUID, isActive *bool, triggerType *models.TriggerType, limit, offset int) ([]models.WorkflowRule, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.List(ctx, tenantID, isActive, triggerType, limit, offset)
}

// Update applies partial changes to a rule, revalidating the result
func (s *RuleService) Update(ctx context.Context, tenantID, id uuid.UUID, req *models.UpdateRuleRequest) (*models.WorkflowRule, error) {
	rule, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = req.Description
	}
	if req.TriggerType != nil {
		rule.TriggerType = *req.TriggerType
	}
	if req.Conditions != nil {
		rule.Conditions = *req.Conditions
	}
	if req.Actions != nil {
		rule.Actions = *req.Actions
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := s.validateDefinition(rule.TriggerType, rule.Conditions, rule.Actions); err != nil {
		return nil, fmt.Errorf("invalid rule definition: %w", err)
	}

	if err := s.store.Update(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("Rule updated",
		zap.String("rule_id", rule.ID.String()),
		zap.String("tenant_id", tenantID.String()),
	)

	return rule, nil
}

// Delete removes a rule within the tenant
func (s *RuleService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.store.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	s.logger.Info("Rule deleted",
		zap.String("rule_id", id.String()),
		zap.String("tenant_id", tenantID.String()),
	)
	return nil
}

// Test dry-runs a rule's conditions against a sample payload without
// executing any actions
func (s *RuleService) Test(ctx context.Context, tenantID, id uuid.UUID, payload map[string]interface{}) (*models.TestRuleResponse, error) {
	rule, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	return &models.TestRuleResponse{
		Matched: s.evaluator.Evaluate(rule.Conditions, payload),
	}, nil
}

// validateDefinition enforces the closed trigger and operator
// enumerations and basic structural soundness
func (s *RuleService) validateDefinition(triggerType models.TriggerType, conditions []models.Condition, actions []models.ActionDirective) error {
	if !triggerType.Valid() {
		return fmt.Errorf("unknown trigger type: %q", triggerType)
	}

	for i, cond := range conditions {
		if cond.Field == "" {
			return fmt.Errorf("condition %d: field is required", i)
		}
		if !cond.Operator.Valid() {
			return fmt.Errorf("condition %d: unknown operator: %q", i, cond.Operator)
		}
		if cond.Operator.RequiresValue() && cond.Value == nil {
			return fmt.Errorf("condition %d: operator %s requires a value", i, cond.Operator)
		}
	}

	if len(actions) == 0 {
		return fmt.Errorf("at least one action is required")
	}
	for i, action := range actions {
		if action.Kind == "" {
			return fmt.Errorf("action %d: kind is required", i)
		}
	}

	return nil
}
