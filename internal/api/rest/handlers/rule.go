package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calloway-legal/caseflow/internal/api/rest/middleware"
	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/internal/repository"
	"github.com/calloway-legal/caseflow/internal/services"
	"github.com/calloway-legal/caseflow/pkg/logger"
	"github.com/calloway-legal/caseflow/pkg/validator"
)

// RuleHandler handles rule administration HTTP requests
type RuleHandler struct {
	logger      *logger.Logger
	ruleService *services.RuleService
}

// NewRuleHandler creates a new rule handler
func NewRuleHandler(log *logger.Logger, ruleService *services.RuleService) *RuleHandler {
	return &RuleHandler{
		logger:      log,
		ruleService: ruleService,
	}
}

// Create creates a new rule
func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Tenant context required")
		return
	}

	var req models.CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validator.Validate(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := h.ruleService.Create(r.Context(), tenantID, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to create rule")
		return
	}

	h.respondJSON(w, http.StatusCreated, rule)
}

// Get retrieves a rule by ID
func (h *RuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Tenant context required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}

	rule, err := h.ruleService.GetByID(r.Context(), tenantID, id)
	if err != nil {
		h.respondServiceError(w, err, "Failed to get rule")
		return
	}

	h.respondJSON(w, http.StatusOK, rule)
}

// List retrieves a list of rules
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Tenant context required")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	var isActive *bool
	if activeStr := r.URL.Query().Get("is_active"); activeStr != "" {
		if a, err := strconv.ParseBool(activeStr); err == nil {
			isActive = &a
		}
	}

	var triggerType *models.TriggerType
	if triggerStr := r.URL.Query().Get("trigger_type"); triggerStr != "" {
		tt := models.TriggerType(triggerStr)
		if tt.Valid() {
			triggerType = &tt
		}
	}

	rules, total, err := h.ruleService.List(r.Context(), tenantID, isActive, triggerType, limit, offset)
	if err != nil {
		h.respondServiceError(w, err, "Failed to list rules")
		return
	}

	response := map[string]interface{}{
		"rules":     rules,
		"total":     total,
		"page":      offset/limit + 1,
		"page_size": limit,
	}

	h.respondJSON(w, http.StatusOK, response)
}

// Update updates a rule
func (h *RuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Tenant context required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}

	var req models.UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rule, err := h.ruleService.Update(r.Context(), tenantID, id, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to update rule")
		return
	}

	h.respondJSON(w, http.StatusOK, rule)
}

// Delete deletes a rule
func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Tenant context required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}

	if err := h.ruleService.Delete(r.Context(), tenantID, id); err != nil {
		h.respondServiceError(w, err, "Failed to delete rule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Test dry-runs a rule's conditions against a sample payload
func (h *RuleHandler) Test(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Tenant context required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}

	var req models.TestRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validator.Validate(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.ruleService.Test(r.Context(), tenantID, id, req.Payload)
	if err != nil {
		h.respondServiceError(w, err, "Failed to test rule")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// Helper methods

func (h *RuleHandler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrRuleNotFound):
		h.respondError(w, http.StatusNotFound, "Rule not found")
	case errors.Is(err, repository.ErrStorageUnavailable):
		h.logger.Errorf("%s: %v", fallback, err)
		h.respondError(w, http.StatusServiceUnavailable, "Rule storage unavailable")
	default:
		h.logger.Errorf("%s: %v", fallback, err)
		h.respondError(w, http.StatusBadRequest, err.Error())
	}
}

func (h *RuleHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *RuleHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
