package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calloway-legal/caseflow/internal/backoffice"
	"github.com/calloway-legal/caseflow/internal/engine"
	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/internal/services"
)

// Built-in action kinds
const (
	KindSendNotification = "send_notification"
	KindCreateTask       = "create_task"
	KindUpdateField      = "update_field"
	KindAssignUser       = "assign_user"
	KindCallWebhook      = "call_webhook"
)

// Notifier delivers a notification on behalf of a rule
type Notifier interface {
	Send(ctx context.Context, n services.Notification) error
}

// SendNotification returns the handler for the send_notification kind.
// Parameters: to (required), subject, message. Subject and message may
// reference payload fields with {{dot.path}} placeholders.
func SendNotification(notifier Notifier) engine.Handler {
	return func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		to, err := requireStringParam(params, "to")
		if err != nil {
			return err
		}

		return notifier.Send(ctx, services.Notification{
			Recipient: to,
			Subject:   interpolate(stringParam(params, "subject"), event.Payload),
			Message:   interpolate(stringParam(params, "message"), event.Payload),
		})
	}
}

// CreateTask returns the handler for the create_task kind.
// Parameters: title (required), description, assignee_id, case_id, due_date.
func CreateTask(client *backoffice.Client) engine.Handler {
	return func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		title, err := requireStringParam(params, "title")
		if err != nil {
			return err
		}

		return client.CreateTask(ctx, event.TenantID, backoffice.TaskRequest{
			Title:       interpolate(title, event.Payload),
			Description: interpolate(stringParam(params, "description"), event.Payload),
			AssigneeID:  stringParam(params, "assignee_id"),
			CaseID:      interpolate(stringParam(params, "case_id"), event.Payload),
			DueDate:     stringParam(params, "due_date"),
		})
	}
}

// UpdateField returns the handler for the update_field kind.
// Parameters: entity, entity_id, field (all required), value.
func UpdateField(client *backoffice.Client) engine.Handler {
	return func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		entity, err := requireStringParam(params, "entity")
		if err != nil {
			return err
		}
		entityID, err := requireStringParam(params, "entity_id")
		if err != nil {
			return err
		}
		field, err := requireStringParam(params, "field")
		if err != nil {
			return err
		}

		return client.UpdateField(ctx, event.TenantID, entity, interpolate(entityID, event.Payload), field, params["value"])
	}
}

// AssignUser returns the handler for the assign_user kind.
// Parameters: entity, entity_id, user_id (all required).
func AssignUser(client *backoffice.Client) engine.Handler {
	return func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		entity, err := requireStringParam(params, "entity")
		if err != nil {
			return err
		}
		entityID, err := requireStringParam(params, "entity_id")
		if err != nil {
			return err
		}
		userID, err := requireStringParam(params, "user_id")
		if err != nil {
			return err
		}

		return client.AssignUser(ctx, event.TenantID, entity, interpolate(entityID, event.Payload), userID)
	}
}

// CallWebhook returns the handler for the call_webhook kind.
// Parameters: url (required), method (default POST), body. The event is
// posted as the body when none is given.
func CallWebhook(httpClient *http.Client) engine.Handler {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error {
		url, err := requireStringParam(params, "url")
		if err != nil {
			return err
		}

		method := stringParam(params, "method")
		if method == "" {
			method = http.MethodPost
		}

		var payload interface{} = event
		if body, ok := params["body"]; ok {
			payload = body
		}
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal webhook body: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("failed to create webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("webhook request failed: %w", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 400 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil
	}
}

// RegisterBuiltins wires every built-in handler into the dispatcher
func RegisterBuiltins(d *engine.Dispatcher, notifier Notifier, client *backoffice.Client) error {
	handlers := map[string]engine.Handler{
		KindSendNotification: SendNotification(notifier),
		KindCreateTask:       CreateTask(client),
		KindUpdateField:      UpdateField(client),
		KindAssignUser:       AssignUser(client),
		KindCallWebhook:      CallWebhook(nil),
	}

	for kind, handler := range handlers {
		if err := d.RegisterHandler(kind, handler); err != nil {
			return fmt.Errorf("registering %s: %w", kind, err)
		}
	}
	return nil
}
