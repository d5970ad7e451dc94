package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calloway-legal/caseflow/internal/engine"
	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/internal/services"
	"github.com/calloway-legal/caseflow/pkg/logger"
)

type fakeNotifier struct {
	sent []services.Notification
}

func (f *fakeNotifier) Send(ctx context.Context, n services.Notification) error {
	f.sent = append(f.sent, n)
	return nil
}

func overdueEvent() *models.DomainEvent {
	return &models.DomainEvent{
		TriggerType: models.TriggerTaskOverdue,
		TenantID:    uuid.New(),
		Payload: models.JSONB{
			"task": map[string]interface{}{
				"id":           "task-7",
				"title":        "File motion",
				"days_overdue": 3.0,
			},
		},
		OccurredAt: time.Now().UTC(),
	}
}

func TestInterpolate(t *testing.T) {
	payload := map[string]interface{}{
		"task": map[string]interface{}{
			"title":        "File motion",
			"days_overdue": 3.0,
		},
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"plain text", "no placeholders", "no placeholders"},
		{"single path", "Task {{task.title}} is late", "Task File motion is late"},
		{"numeric value", "{{task.days_overdue}} days", "3 days"},
		{"whitespace tolerated", "{{ task.title }}", "File motion"},
		{"unresolvable path renders empty", "[{{task.missing}}]", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, interpolate(tt.template, payload))
		})
	}
}

func TestSendNotification(t *testing.T) {
	notifier := &fakeNotifier{}
	handler := SendNotification(notifier)

	params := map[string]interface{}{
		"to":      "partner@firm.example",
		"subject": "Overdue: {{task.title}}",
		"message": "{{task.days_overdue}} days overdue",
	}

	require.NoError(t, handler(context.Background(), params, overdueEvent()))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "partner@firm.example", notifier.sent[0].Recipient)
	assert.Equal(t, "Overdue: File motion", notifier.sent[0].Subject)
	assert.Equal(t, "3 days overdue", notifier.sent[0].Message)
}

func TestSendNotificationRequiresRecipient(t *testing.T) {
	handler := SendNotification(&fakeNotifier{})

	err := handler(context.Background(), map[string]interface{}{"subject": "x"}, overdueEvent())
	assert.Error(t, err)
}

func TestCallWebhook(t *testing.T) {
	var received struct {
		method      string
		contentType string
		body        map[string]interface{}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.method = r.Method
		received.contentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&received.body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	handler := CallWebhook(server.Client())
	event := overdueEvent()

	err := handler(context.Background(), map[string]interface{}{"url": server.URL}, event)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, received.method)
	assert.Equal(t, "application/json", received.contentType)
	assert.Equal(t, string(models.TriggerTaskOverdue), received.body["trigger_type"])
}

func TestCallWebhookCustomBodyAndMethod(t *testing.T) {
	var received struct {
		method string
		body   map[string]interface{}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.method = r.Method
		json.NewDecoder(r.Body).Decode(&received.body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	handler := CallWebhook(server.Client())
	params := map[string]interface{}{
		"url":    server.URL,
		"method": http.MethodPut,
		"body":   map[string]interface{}{"custom": "payload"},
	}

	require.NoError(t, handler(context.Background(), params, overdueEvent()))
	assert.Equal(t, http.MethodPut, received.method)
	assert.Equal(t, "payload", received.body["custom"])
}

func TestCallWebhookErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	handler := CallWebhook(server.Client())
	err := handler(context.Background(), map[string]interface{}{"url": server.URL}, overdueEvent())
	assert.Error(t, err)
}

func TestRegisterBuiltins(t *testing.T) {
	d := engine.NewDispatcher(time.Second, logger.NewForTesting(), nil)

	require.NoError(t, RegisterBuiltins(d, &fakeNotifier{}, nil))
	assert.ElementsMatch(t, []string{
		KindSendNotification,
		KindCreateTask,
		KindUpdateField,
		KindAssignUser,
		KindCallWebhook,
	}, d.Kinds())
}
