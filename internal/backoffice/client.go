package backoffice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/calloway-legal/caseflow/pkg/config"
	"github.com/calloway-legal/caseflow/pkg/logger"
)

// Client talks to the practice management API — the CRUD layer that owns
// cases, tasks and users. Action handlers use it to carry out directives
// like create_task; the engine never touches that data directly.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a back-office API client
func NewClient(cfg config.BackofficeConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log,
	}
}

// TaskRequest describes a task to create in the practice management system
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AssigneeID  string `json:"assignee_id,omitempty"`
	CaseID      string `json:"case_id,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// CreateTask creates a task for the tenant
func (c *Client) CreateTask(ctx context.Context, tenantID uuid.UUID, task TaskRequest) error {
	return c.doRequest(ctx, tenantID, http.MethodPost, "/api/tasks", task)
}

// UpdateField sets a single field on an entity
func (c *Client) UpdateField(ctx context.Context, tenantID uuid.UUID, entity, entityID, field string, value interface{}) error {
	path := fmt.Sprintf("/api/%s/%s", entity, entityID)
	body := map[string]interface{}{field: value}
	return c.doRequest(ctx, tenantID, http.MethodPatch, path, body)
}

// AssignUser assigns a user to an entity
func (c *Client) AssignUser(ctx context.Context, tenantID uuid.UUID, entity, entityID, userID string) error {
	path := fmt.Sprintf("/api/%s/%s/assignee", entity, entityID)
	body := map[string]string{"user_id": userID}
	return c.doRequest(ctx, tenantID, http.MethodPut, path, body)
}

func (c *Client) doRequest(ctx context.Context, tenantID uuid.UUID, method, path string, body interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID.String())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backoffice request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backoffice returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
