package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calloway-legal/caseflow/internal/api/rest/middleware"
	"github.com/calloway-legal/caseflow/internal/engine"
	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/internal/repository/memory"
	"github.com/calloway-legal/caseflow/pkg/logger"
)

type eventTestEnv struct {
	store   *memory.RuleStore
	handler http.Handler
}

func newEventTestEnv(t *testing.T) *eventTestEnv {
	t.Helper()
	log := logger.NewForTesting()

	store := memory.NewRuleStore()
	dispatcher := engine.NewDispatcher(time.Second, log, nil)
	require.NoError(t, dispatcher.RegisterHandler("record", func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		return nil
	}))

	eng := engine.New(store, engine.NewEvaluator(log, nil), dispatcher, log, nil)
	h := NewEventHandler(log, eng)

	return &eventTestEnv{
		store:   store,
		handler: middleware.TenantContext()(http.HandlerFunc(h.EmitEvent)),
	}
}

func (env *eventTestEnv) emit(t *testing.T, tenantID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestEmitEvent(t *testing.T) {
	env := newEventTestEnv(t)
	tenantID := uuid.New()

	rule := &models.WorkflowRule{
		TenantID:    tenantID,
		Name:        "escalate overdue",
		TriggerType: models.TriggerTaskOverdue,
		Conditions: models.ConditionList{
			{Field: "task.days_overdue", Operator: models.OperatorGreaterThan, Value: 2.0},
		},
		Actions:  models.ActionList{{Kind: "record"}},
		IsActive: true,
	}
	require.NoError(t, env.store.Create(context.Background(), rule))

	rec := env.emit(t, tenantID.String(), map[string]interface{}{
		"trigger_type": "task_overdue",
		"payload": map[string]interface{}{
			"task": map[string]interface{}{"days_overdue": 5},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		TriggerType string                   `json:"trigger_type"`
		Reports     []models.ExecutionReport `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "task_overdue", resp.TriggerType)
	require.Len(t, resp.Reports, 1)
	assert.True(t, resp.Reports[0].Matched)
	require.Len(t, resp.Reports[0].ActionsExecuted, 1)
	assert.True(t, resp.Reports[0].ActionsExecuted[0].Success)
}

func TestEmitEventUnknownActionKindReported(t *testing.T) {
	env := newEventTestEnv(t)
	tenantID := uuid.New()

	require.NoError(t, env.store.Create(context.Background(), &models.WorkflowRule{
		TenantID:    tenantID,
		Name:        "misconfigured",
		TriggerType: models.TriggerCaseCreated,
		Actions:     models.ActionList{{Kind: "no_such_kind"}},
		IsActive:    true,
	}))

	rec := env.emit(t, tenantID.String(), map[string]interface{}{
		"trigger_type": "case_created",
		"payload":      map[string]interface{}{"case": map[string]interface{}{"id": "c-1"}},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Reports []models.ExecutionReport `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Reports, 1)
	require.Len(t, resp.Reports[0].ActionsExecuted, 1)
	assert.Equal(t, models.ErrorKindUnknownAction, resp.Reports[0].ActionsExecuted[0].ErrorKind)
}

func TestEmitEventValidation(t *testing.T) {
	env := newEventTestEnv(t)
	tenantID := uuid.New().String()

	tests := []struct {
		name     string
		tenantID string
		body     interface{}
		status   int
	}{
		{
			name:     "missing tenant header",
			tenantID: "",
			body:     map[string]interface{}{"trigger_type": "case_created", "payload": map[string]interface{}{}},
			status:   http.StatusBadRequest,
		},
		{
			name:     "malformed tenant header",
			tenantID: "not-a-uuid",
			body:     map[string]interface{}{"trigger_type": "case_created", "payload": map[string]interface{}{}},
			status:   http.StatusBadRequest,
		},
		{
			name:     "unknown trigger type",
			tenantID: tenantID,
			body:     map[string]interface{}{"trigger_type": "invoice_paid", "payload": map[string]interface{}{}},
			status:   http.StatusBadRequest,
		},
		{
			name:     "missing payload",
			tenantID: tenantID,
			body:     map[string]interface{}{"trigger_type": "case_created"},
			status:   http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.emit(t, tt.tenantID, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestEmitEventEmptyConditionsAlwaysMatch(t *testing.T) {
	env := newEventTestEnv(t)
	tenantID := uuid.New()

	require.NoError(t, env.store.Create(context.Background(), &models.WorkflowRule{
		TenantID:    tenantID,
		Name:        "always",
		TriggerType: models.TriggerClientAdded,
		Actions:     models.ActionList{{Kind: "record"}},
		IsActive:    true,
	}))

	rec := env.emit(t, tenantID.String(), map[string]interface{}{
		"trigger_type": "client_added",
		"payload":      map[string]interface{}{"client": map[string]interface{}{"id": "cl-1"}},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reports []models.ExecutionReport `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Reports, 1)
	assert.True(t, resp.Reports[0].Matched)
}
