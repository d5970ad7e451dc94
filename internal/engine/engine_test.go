package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/internal/repository"
	"github.com/calloway-legal/caseflow/internal/repository/memory"
	"github.com/calloway-legal/caseflow/pkg/logger"
)

type failingRuleSource struct{}

func (failingRuleSource) ListActiveRules(ctx context.Context, tenantID uuid.UUID, triggerType models.TriggerType) ([]models.WorkflowRule, error) {
	return nil, repository.ErrStorageUnavailable
}

func newTestEngine(t *testing.T, store RuleSource) *Engine {
	t.Helper()
	log := logger.NewForTesting()
	return New(store, NewEvaluator(log, nil), NewDispatcher(time.Second, log, nil), log, nil)
}

func seedRule(t *testing.T, store *memory.RuleStore, tenantID uuid.UUID, name string, priority int, active bool, conditions []models.Condition, actions []models.ActionDirective) uuid.UUID {
	t.Helper()
	rule := &models.WorkflowRule{
		TenantID:    tenantID,
		Name:        name,
		TriggerType: models.TriggerTaskOverdue,
		Conditions:  conditions,
		Actions:     actions,
		Priority:    priority,
		IsActive:    active,
	}
	if err := store.Create(context.Background(), rule); err != nil {
		t.Fatalf("seeding rule: %v", err)
	}
	// Creation-order tiebreak needs distinct timestamps.
	time.Sleep(time.Millisecond)
	return rule.ID
}

func TestProcessEventOrdering(t *testing.T) {
	store := memory.NewRuleStore()
	tenantID := uuid.New()

	actions := []models.ActionDirective{{Kind: "record"}}
	lowID := seedRule(t, store, tenantID, "low", 1, true, nil, actions)
	highID := seedRule(t, store, tenantID, "high", 10, true, nil, actions)
	tieFirstID := seedRule(t, store, tenantID, "tie-first", 5, true, nil, actions)
	tieSecondID := seedRule(t, store, tenantID, "tie-second", 5, true, nil, actions)

	eng := newTestEngine(t, store)
	var order []string
	eng.dispatcher.RegisterHandler("record", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		return nil
	})

	reports, err := eng.ProcessEvent(context.Background(), &models.DomainEvent{
		TriggerType: models.TriggerTaskOverdue,
		TenantID:    tenantID,
		Payload:     models.JSONB{},
		OccurredAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	if len(reports) != 4 {
		t.Fatalf("expected 4 reports, got %d", len(reports))
	}

	wantOrder := []uuid.UUID{highID, tieFirstID, tieSecondID, lowID}
	for i, want := range wantOrder {
		if reports[i].RuleID != want {
			for _, r := range reports {
				order = append(order, r.RuleName)
			}
			t.Fatalf("report order %v, expected high, tie-first, tie-second, low", order)
		}
	}
}

func TestProcessEventExcludesInactiveRules(t *testing.T) {
	store := memory.NewRuleStore()
	tenantID := uuid.New()

	seedRule(t, store, tenantID, "disabled", 10, false, nil, []models.ActionDirective{{Kind: "record"}})
	activeID := seedRule(t, store, tenantID, "active", 1, true, nil, []models.ActionDirective{{Kind: "record"}})

	eng := newTestEngine(t, store)
	eng.dispatcher.RegisterHandler("record", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		return nil
	})

	reports, err := eng.ProcessEvent(context.Background(), &models.DomainEvent{
		TriggerType: models.TriggerTaskOverdue,
		TenantID:    tenantID,
		Payload:     models.JSONB{},
	})
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	if len(reports) != 1 || reports[0].RuleID != activeID {
		t.Fatalf("expected only the active rule to be evaluated, got %+v", reports)
	}
}

func TestProcessEventTenantScoping(t *testing.T) {
	store := memory.NewRuleStore()
	tenantA := uuid.New()
	tenantB := uuid.New()

	seedRule(t, store, tenantA, "tenant-a-rule", 1, true, nil, []models.ActionDirective{{Kind: "record"}})

	eng := newTestEngine(t, store)
	reports, err := eng.ProcessEvent(context.Background(), &models.DomainEvent{
		TriggerType: models.TriggerTaskOverdue,
		TenantID:    tenantB,
		Payload:     models.JSONB{},
	})
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected no rules for another tenant, got %d", len(reports))
	}
}

func TestProcessEventNonMatchingRuleSkipsActions(t *testing.T) {
	store := memory.NewRuleStore()
	tenantID := uuid.New()

	conditions := []models.Condition{
		{Field: "task.days_overdue", Operator: models.OperatorGreaterThan, Value: 7.0},
	}
	seedRule(t, store, tenantID, "escalate", 1, true, conditions, []models.ActionDirective{{Kind: "record"}})

	eng := newTestEngine(t, store)
	var dispatched bool
	eng.dispatcher.RegisterHandler("record", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		dispatched = true
		return nil
	})

	reports, err := eng.ProcessEvent(context.Background(), &models.DomainEvent{
		TriggerType: models.TriggerTaskOverdue,
		TenantID:    tenantID,
		Payload: models.JSONB{
			"task": map[string]interface{}{"days_overdue": 2.0},
		},
	})
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	if reports[0].Matched {
		t.Error("expected rule not to match")
	}
	if len(reports[0].ActionsExecuted) != 0 {
		t.Errorf("expected no actions for a non-matching rule, got %d", len(reports[0].ActionsExecuted))
	}
	if dispatched {
		t.Error("expected no handler invocation for a non-matching rule")
	}
}

func TestProcessEventActionFaultIsolation(t *testing.T) {
	store := memory.NewRuleStore()
	tenantID := uuid.New()

	seedRule(t, store, tenantID, "first", 10, true, nil, []models.ActionDirective{{Kind: "fails"}})
	seedRule(t, store, tenantID, "second", 1, true, nil, []models.ActionDirective{{Kind: "succeeds"}})

	eng := newTestEngine(t, store)
	eng.dispatcher.RegisterHandler("fails", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		return errors.New("boom")
	})
	eng.dispatcher.RegisterHandler("succeeds", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		return nil
	})

	reports, err := eng.ProcessEvent(context.Background(), &models.DomainEvent{
		TriggerType: models.TriggerTaskOverdue,
		TenantID:    tenantID,
		Payload:     models.JSONB{},
	})
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].ActionsExecuted[0].Success {
		t.Error("expected first rule's action to fail")
	}
	if !reports[1].ActionsExecuted[0].Success {
		t.Error("expected second rule to run despite the first rule's failure")
	}
}

func TestProcessEventStorageFailure(t *testing.T) {
	eng := newTestEngine(t, failingRuleSource{})

	reports, err := eng.ProcessEvent(context.Background(), &models.DomainEvent{
		TriggerType: models.TriggerTaskOverdue,
		TenantID:    uuid.New(),
		Payload:     models.JSONB{},
	})

	if err == nil {
		t.Fatal("expected error on storage failure")
	}
	if !errors.Is(err, repository.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
	if reports != nil {
		t.Errorf("expected no reports on storage failure, got %v", reports)
	}
}

func TestProcessEventNoRules(t *testing.T) {
	eng := newTestEngine(t, memory.NewRuleStore())

	reports, err := eng.ProcessEvent(context.Background(), &models.DomainEvent{
		TriggerType: models.TriggerCaseCreated,
		TenantID:    uuid.New(),
		Payload:     models.JSONB{},
	})
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected empty report list, got %d", len(reports))
	}
}
