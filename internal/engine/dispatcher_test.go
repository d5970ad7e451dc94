package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/pkg/logger"
)

func testEvent() *models.DomainEvent {
	return &models.DomainEvent{
		TriggerType: models.TriggerTaskOverdue,
		Payload:     models.JSONB{"task": map[string]interface{}{"id": "t-1"}},
		OccurredAt:  time.Now().UTC(),
	}
}

func TestRegisterHandler(t *testing.T) {
	d := NewDispatcher(time.Second, logger.NewForTesting(), nil)

	ok := func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		return nil
	}

	if err := d.RegisterHandler("notify", ok); err != nil {
		t.Fatalf("RegisterHandler() error = %v", err)
	}
	if err := d.RegisterHandler("notify", ok); err == nil {
		t.Error("expected error registering duplicate kind")
	}
	if err := d.RegisterHandler("", ok); err == nil {
		t.Error("expected error registering empty kind")
	}
	if err := d.RegisterHandler("nil_handler", nil); err == nil {
		t.Error("expected error registering nil handler")
	}
}

func TestDispatchUnknownKind(t *testing.T) {
	d := NewDispatcher(time.Second, logger.NewForTesting(), nil)

	var executed bool
	d.RegisterHandler("known", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		executed = true
		return nil
	})

	directives := []models.ActionDirective{
		{Kind: "unknown"},
		{Kind: "known"},
	}

	outcomes := d.Dispatch(context.Background(), directives, testEvent())

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Success || outcomes[0].ErrorKind != models.ErrorKindUnknownAction {
		t.Errorf("expected unknown_action_kind outcome, got %+v", outcomes[0])
	}
	if !outcomes[1].Success {
		t.Errorf("expected second directive to succeed, got %+v", outcomes[1])
	}
	if !executed {
		t.Error("expected handler after unknown kind to run")
	}
}

func TestDispatchFailureIsolation(t *testing.T) {
	d := NewDispatcher(time.Second, logger.NewForTesting(), nil)

	d.RegisterHandler("fails", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		return errors.New("smtp connection refused")
	})
	var order []string
	d.RegisterHandler("succeeds", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		order = append(order, "succeeds")
		return nil
	})

	outcomes := d.Dispatch(context.Background(), []models.ActionDirective{
		{Kind: "fails"},
		{Kind: "succeeds"},
	}, testEvent())

	if outcomes[0].Success {
		t.Error("expected first directive to fail")
	}
	if outcomes[0].ErrorKind != models.ErrorKindExecutionFailed {
		t.Errorf("expected action_execution_failed, got %s", outcomes[0].ErrorKind)
	}
	if outcomes[0].Error == "" {
		t.Error("expected failure outcome to carry the error message")
	}
	if !outcomes[1].Success {
		t.Error("expected second directive to succeed after first failed")
	}
	if len(order) != 1 {
		t.Error("expected later handler to execute exactly once")
	}
}

func TestDispatchTimeout(t *testing.T) {
	d := NewDispatcher(50*time.Millisecond, logger.NewForTesting(), nil)

	d.RegisterHandler("slow", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	d.RegisterHandler("fast", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		return nil
	})

	start := time.Now()
	outcomes := d.Dispatch(context.Background(), []models.ActionDirective{
		{Kind: "slow"},
		{Kind: "fast"},
	}, testEvent())

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("dispatch took %v, timeout did not apply", elapsed)
	}
	if outcomes[0].ErrorKind != models.ErrorKindTimeout {
		t.Errorf("expected action_timeout, got %+v", outcomes[0])
	}
	if !outcomes[1].Success {
		t.Error("expected directive after timeout to run")
	}
}

func TestDispatchPanicRecovery(t *testing.T) {
	d := NewDispatcher(time.Second, logger.NewForTesting(), nil)

	d.RegisterHandler("panics", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		panic("nil map write")
	})
	d.RegisterHandler("fine", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		return nil
	})

	outcomes := d.Dispatch(context.Background(), []models.ActionDirective{
		{Kind: "panics"},
		{Kind: "fine"},
	}, testEvent())

	if outcomes[0].Success || outcomes[0].ErrorKind != models.ErrorKindExecutionFailed {
		t.Errorf("expected panic to surface as execution failure, got %+v", outcomes[0])
	}
	if !outcomes[1].Success {
		t.Error("expected dispatch to continue after a panicking handler")
	}
}

func TestDispatchPreservesOrder(t *testing.T) {
	d := NewDispatcher(time.Second, logger.NewForTesting(), nil)

	var order []string
	record := func(name string) Handler {
		return func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
			order = append(order, name)
			return nil
		}
	}
	d.RegisterHandler("first", record("first"))
	d.RegisterHandler("second", record("second"))
	d.RegisterHandler("third", record("third"))

	outcomes := d.Dispatch(context.Background(), []models.ActionDirective{
		{Kind: "first"}, {Kind: "second"}, {Kind: "third"},
	}, testEvent())

	want := []string{"first", "second", "third"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("execution order %v, expected %v", order, want)
		}
		if outcomes[i].ActionKind != name {
			t.Fatalf("outcome order %v, expected kind %s at %d", outcomes, name, i)
		}
	}
}
