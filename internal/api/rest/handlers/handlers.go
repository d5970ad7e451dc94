package handlers

import (
	"github.com/calloway-legal/caseflow/internal/engine"
	"github.com/calloway-legal/caseflow/internal/services"
	"github.com/calloway-legal/caseflow/pkg/logger"
)

// Handlers aggregates all HTTP handlers
type Handlers struct {
	Health *HealthHandler
	Rule   *RuleHandler
	Event  *EventHandler
}

// HealthCheckers holds all health check dependencies
type HealthCheckers struct {
	DB    HealthChecker
	Redis HealthChecker
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	log *logger.Logger,
	ruleService *services.RuleService,
	eng *engine.Engine,
	checkers *HealthCheckers,
	version string,
) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(log, checkers.DB, checkers.Redis, version),
		Rule:   NewRuleHandler(log, ruleService),
		Event:  NewEventHandler(log, eng),
	}
}
