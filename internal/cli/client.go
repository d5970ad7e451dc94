package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calloway-legal/caseflow/internal/models"
)

// Client is the HTTP client the CLI uses against the rule engine API
type Client struct {
	baseURL    string
	tenantID   string
	httpClient *http.Client
}

// NewClient creates a new API client scoped to the tenant
func NewClient(baseURL, tenantID string) *Client {
	return &Client{
		baseURL:  baseURL,
		tenantID: tenantID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) doRequest(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.tenantID != "" {
		req.Header.Set("X-Tenant-ID", c.tenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	return resp, nil
}

// HealthCheck verifies the API server is reachable
func (c *Client) HealthCheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return fmt.Errorf("failed to reach API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return nil
}

// CreateRule creates a new rule
func (c *Client) CreateRule(rule *models.CreateRuleRequest) (*models.WorkflowRule, error) {
	resp, err := c.doRequest("POST", "/api/v1/rules", rule)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to create rule: %s (status: %d)", string(body), resp.StatusCode)
	}

	var result models.WorkflowRule
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// ListRulesResponse is the paginated rule listing returned by the API
type ListRulesResponse struct {
	Rules    []models.WorkflowRule `json:"rules"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// ListRules retrieves rules for the tenant
func (c *Client) ListRules() (*ListRulesResponse, error) {
	resp, err := c.doRequest("GET", "/api/v1/rules?limit=100", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to list rules: %s (status: %d)", string(body), resp.StatusCode)
	}

	var result ListRulesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// DeleteRule deletes a rule by ID
func (c *Client) DeleteRule(id string) error {
	resp, err := c.doRequest("DELETE", "/api/v1/rules/"+id, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to delete rule: %s (status: %d)", string(body), resp.StatusCode)
	}
	return nil
}

// EmitEventResponse is the synchronous processing result for an event
type EmitEventResponse struct {
	TriggerType models.TriggerType       `json:"trigger_type"`
	OccurredAt  string                   `json:"occurred_at"`
	Reports     []models.ExecutionReport `json:"reports"`
}

// EmitEvent submits a domain event and returns the execution reports
func (c *Client) EmitEvent(event *models.EmitEventRequest) (*EmitEventResponse, error) {
	resp, err := c.doRequest("POST", "/api/v1/events", event)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to emit event: %s (status: %d)", string(body), resp.StatusCode)
	}

	var result EmitEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}
