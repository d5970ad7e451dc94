package engine

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/pkg/logger"
	"github.com/calloway-legal/caseflow/pkg/metrics"
	"github.com/google/uuid"
)

// RuleSource provides the enabled rules for a tenant and trigger type,
// ordered by (priority desc, created_at asc). An empty result is not an
// error; only a storage failure is.
type RuleSource interface {
	ListActiveRules(ctx context.Context, tenantID uuid.UUID, triggerType models.TriggerType) ([]models.WorkflowRule, error)
}

// Engine processes domain events against the configured automation rules.
// It holds no mutable state between invocations, so concurrent calls are
// independent and need no locking.
type Engine struct {
	rules      RuleSource
	evaluator  *Evaluator
	dispatcher *Dispatcher
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

// New creates a rule engine
func New(rules RuleSource, evaluator *Evaluator, dispatcher *Dispatcher, log *logger.Logger, m *metrics.Metrics) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		rules:      rules,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		logger:     log,
		metrics:    m,
	}
}

// ProcessEvent runs every matching active rule against the event and
// returns one report per rule, in execution order. Only a rule-store
// failure aborts processing; per-rule and per-action failures are
// recorded in the reports and processing continues. The engine never
// re-enters itself: an action that causes a new business event results
// in a fresh, independent ProcessEvent call by the host.
func (e *Engine) ProcessEvent(ctx context.Context, event *models.DomainEvent) ([]models.ExecutionReport, error) {
	start := time.Now()

	rules, err := e.rules.ListActiveRules(ctx, event.TenantID, event.TriggerType)
	if err != nil {
		if e.metrics != nil {
			e.metrics.EventsProcessed.WithLabelValues(string(event.TriggerType), "storage_error").Inc()
		}
		return nil, fmt.Errorf("listing active rules for trigger %s: %w", event.TriggerType, err)
	}

	// The store already orders rules, but the execution order contract
	// must hold even if a store implementation forgets. Stable sort keeps
	// creation order among equal priorities.
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})

	reports := make([]models.ExecutionReport, 0, len(rules))

	for i := range rules {
		rule := &rules[i]

		matched := e.evaluator.Evaluate(rule.Conditions, event.Payload)
		if e.metrics != nil {
			e.metrics.RulesEvaluated.WithLabelValues(string(event.TriggerType), strconv.FormatBool(matched)).Inc()
		}

		report := models.ExecutionReport{
			RuleID:          rule.ID,
			RuleName:        rule.Name,
			Matched:         matched,
			ActionsExecuted: []models.ActionOutcome{},
		}

		if matched {
			e.logger.Info("Rule matched",
				zap.String("rule_id", rule.ID.String()),
				zap.String("rule_name", rule.Name),
				zap.String("trigger_type", string(event.TriggerType)),
			)
			report.ActionsExecuted = e.dispatcher.Dispatch(ctx, rule.Actions, event)
		}

		reports = append(reports, report)
	}

	if e.metrics != nil {
		e.metrics.EventsProcessed.WithLabelValues(string(event.TriggerType), "processed").Inc()
		e.metrics.EventDuration.WithLabelValues(string(event.TriggerType)).Observe(time.Since(start).Seconds())
	}

	e.logger.Debug("Event processed",
		zap.String("trigger_type", string(event.TriggerType)),
		zap.String("tenant_id", event.TenantID.String()),
		zap.Int("rules", len(rules)),
		zap.Duration("duration", time.Since(start)),
	)

	return reports, nil
}
