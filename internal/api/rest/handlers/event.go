package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/calloway-legal/caseflow/internal/api/rest/middleware"
	"github.com/calloway-legal/caseflow/internal/engine"
	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/internal/repository"
	"github.com/calloway-legal/caseflow/pkg/logger"
	"github.com/calloway-legal/caseflow/pkg/validator"
)

// EventHandler handles event ingestion HTTP requests
type EventHandler struct {
	logger *logger.Logger
	engine *engine.Engine
}

// NewEventHandler creates a new event handler
func NewEventHandler(log *logger.Logger, eng *engine.Engine) *EventHandler {
	return &EventHandler{
		logger: log,
		engine: eng,
	}
}

// EmitEvent handles POST /api/v1/events. The event is processed
// synchronously and the per-rule execution reports are returned.
func (h *EventHandler) EmitEvent(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant context required")
		return
	}

	var req models.EmitEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validator.Validate(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !req.TriggerType.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown trigger type")
		return
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	event := &models.DomainEvent{
		TriggerType: req.TriggerType,
		TenantID:    tenantID,
		Payload:     req.Payload,
		OccurredAt:  occurredAt,
	}

	reports, err := h.engine.ProcessEvent(r.Context(), event)
	if err != nil {
		if errors.Is(err, repository.ErrStorageUnavailable) {
			h.logger.Errorf("Rule storage unavailable: %v", err)
			respondError(w, http.StatusServiceUnavailable, "Rule storage unavailable")
			return
		}
		h.logger.Errorf("Failed to process event: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to process event")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trigger_type": event.TriggerType,
		"occurred_at":  event.OccurredAt,
		"reports":      reports,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
