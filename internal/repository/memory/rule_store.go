package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/internal/repository"
)

// RuleStore is an in-memory rule store. It backs unit tests and local
// development; semantics mirror the postgres implementation, including
// the (priority desc, created_at asc) ordering contract.
type RuleStore struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]models.WorkflowRule
}

// NewRuleStore creates an empty in-memory rule store
func NewRuleStore() *RuleStore {
	return &RuleStore{
		rules: make(map[uuid.UUID]models.WorkflowRule),
	}
}

// ListActiveRules returns enabled rules for the tenant and trigger type,
// ordered by (priority desc, created_at asc)
func (s *RuleStore) ListActiveRules(ctx context.Context, tenantID uuid.UUID, triggerType models.TriggerType) ([]models.WorkflowRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]models.WorkflowRule, 0)
	for _, rule := range s.rules {
		if rule.TenantID == tenantID && rule.TriggerType == triggerType && rule.IsActive {
			rules = append(rules, rule)
		}
	}

	sortRules(rules)
	return rules, nil
}

// GetByID retrieves a rule within the tenant
func (s *RuleStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkflowRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists || rule.TenantID != tenantID {
		return nil, repository.ErrRuleNotFound
	}

	copied := rule
	return &copied, nil
}

// List retrieves rules with optional filtering and pagination
func (s *RuleStore) List(ctx context.Context, tenantID uuid.UUID, isActive *bool, triggerType *models.TriggerType, limit, offset int) ([]models.WorkflowRule, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]models.WorkflowRule, 0)
	for _, rule := range s.rules {
		if rule.TenantID != tenantID {
			continue
		}
		if isActive != nil && rule.IsActive != *isActive {
			continue
		}
		if triggerType != nil && rule.TriggerType != *triggerType {
			continue
		}
		rules = append(rules, rule)
	}

	sortRules(rules)
	total := int64(len(rules))

	if offset >= len(rules) {
		return []models.WorkflowRule{}, total, nil
	}
	rules = rules[offset:]
	if limit > 0 && limit < len(rules) {
		rules = rules[:limit]
	}

	return rules, total, nil
}

// Create inserts a new rule and fills in generated fields
func (s *RuleStore) Create(ctx context.Context, rule *models.WorkflowRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	s.rules[rule.ID] = *rule
	return nil
}

// Update persists rule changes within the tenant
func (s *RuleStore) Update(ctx context.Context, rule *models.WorkflowRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.rules[rule.ID]
	if !exists || existing.TenantID != rule.TenantID {
		return repository.ErrRuleNotFound
	}

	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()
	s.rules[rule.ID] = *rule
	return nil
}

// Delete removes a rule within the tenant
func (s *RuleStore) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, exists := s.rules[id]
	if !exists || rule.TenantID != tenantID {
		return repository.ErrRuleNotFound
	}

	delete(s.rules, id)
	return nil
}

func sortRules(rules []models.WorkflowRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})
}
