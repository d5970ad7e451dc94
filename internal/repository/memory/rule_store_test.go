package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/internal/repository"
)

func newRule(tenantID uuid.UUID, name string, priority int, active bool) *models.WorkflowRule {
	return &models.WorkflowRule{
		TenantID:    tenantID,
		Name:        name,
		TriggerType: models.TriggerCaseCreated,
		Actions:     models.ActionList{{Kind: "send_notification"}},
		Priority:    priority,
		IsActive:    active,
	}
}

func TestRuleStoreCreateAndGet(t *testing.T) {
	store := NewRuleStore()
	ctx := context.Background()
	tenantID := uuid.New()

	rule := newRule(tenantID, "welcome", 1, true)
	require.NoError(t, store.Create(ctx, rule))
	assert.NotEqual(t, uuid.Nil, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())

	got, err := store.GetByID(ctx, tenantID, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "welcome", got.Name)

	_, err = store.GetByID(ctx, uuid.New(), rule.ID)
	assert.ErrorIs(t, err, repository.ErrRuleNotFound)
}

func TestRuleStoreListActiveRulesOrdering(t *testing.T) {
	store := NewRuleStore()
	ctx := context.Background()
	tenantID := uuid.New()

	low := newRule(tenantID, "low", 1, true)
	require.NoError(t, store.Create(ctx, low))
	time.Sleep(time.Millisecond)

	high := newRule(tenantID, "high", 10, true)
	require.NoError(t, store.Create(ctx, high))
	time.Sleep(time.Millisecond)

	tie := newRule(tenantID, "tie", 10, true)
	require.NoError(t, store.Create(ctx, tie))

	inactive := newRule(tenantID, "inactive", 99, false)
	require.NoError(t, store.Create(ctx, inactive))

	otherTrigger := newRule(tenantID, "other-trigger", 50, true)
	otherTrigger.TriggerType = models.TriggerTimeLogged
	require.NoError(t, store.Create(ctx, otherTrigger))

	rules, err := store.ListActiveRules(ctx, tenantID, models.TriggerCaseCreated)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "high", rules[0].Name)
	assert.Equal(t, "tie", rules[1].Name)
	assert.Equal(t, "low", rules[2].Name)
}

func TestRuleStoreListFilters(t *testing.T) {
	store := NewRuleStore()
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, store.Create(ctx, newRule(tenantID, "active", 1, true)))
	require.NoError(t, store.Create(ctx, newRule(tenantID, "disabled", 2, false)))

	active := true
	rules, total, err := store.List(ctx, tenantID, &active, nil, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rules, 1)
	assert.Equal(t, "active", rules[0].Name)

	rules, total, err = store.List(ctx, tenantID, nil, nil, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rules, 1)

	rules, _, err = store.List(ctx, tenantID, nil, nil, 20, 5)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestRuleStoreUpdate(t *testing.T) {
	store := NewRuleStore()
	ctx := context.Background()
	tenantID := uuid.New()

	rule := newRule(tenantID, "before", 1, true)
	require.NoError(t, store.Create(ctx, rule))
	created := rule.CreatedAt

	rule.Name = "after"
	require.NoError(t, store.Update(ctx, rule))
	assert.Equal(t, created, rule.CreatedAt)

	got, err := store.GetByID(ctx, tenantID, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)

	foreign := newRule(uuid.New(), "foreign", 1, true)
	foreign.ID = rule.ID
	assert.ErrorIs(t, store.Update(ctx, foreign), repository.ErrRuleNotFound)
}

func TestRuleStoreDelete(t *testing.T) {
	store := NewRuleStore()
	ctx := context.Background()
	tenantID := uuid.New()

	rule := newRule(tenantID, "doomed", 1, true)
	require.NoError(t, store.Create(ctx, rule))

	assert.ErrorIs(t, store.Delete(ctx, uuid.New(), rule.ID), repository.ErrRuleNotFound)
	require.NoError(t, store.Delete(ctx, tenantID, rule.ID))
	assert.ErrorIs(t, store.Delete(ctx, tenantID, rule.ID), repository.ErrRuleNotFound)
}
