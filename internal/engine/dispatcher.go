package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/pkg/logger"
	"github.com/calloway-legal/caseflow/pkg/metrics"
)

// Handler executes a single action directive on behalf of the host
// application. Handlers may perform blocking I/O and must tolerate
// at-least-once execution; the dispatcher provides no deduplication.
type Handler func(ctx context.Context, params map[string]interface{}, event *models.DomainEvent) error

// DefaultActionTimeout bounds a handler invocation when no timeout is configured
const DefaultActionTimeout = 30 * time.Second

// Dispatcher executes ordered action directives through a registry of
// handlers, one per action kind. Failures are isolated per directive: a
// failing, unknown or timed-out action never blocks the ones after it.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	timeout  time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// NewDispatcher creates a dispatcher with the given per-action timeout.
// A non-positive timeout falls back to DefaultActionTimeout.
func NewDispatcher(timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Dispatcher{
		handlers: make(map[string]Handler),
		timeout:  timeout,
		logger:   log,
		metrics:  m,
	}
}

// RegisterHandler associates an action kind with its handler.
// Registering a duplicate or empty kind is a configuration error.
func (d *Dispatcher) RegisterHandler(kind string, handler Handler) error {
	if kind == "" {
		return fmt.Errorf("action kind is empty")
	}
	if handler == nil {
		return fmt.Errorf("handler for action kind %q is nil", kind)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.handlers[kind]; exists {
		return fmt.Errorf("action kind %q already registered", kind)
	}

	d.handlers[kind] = handler
	return nil
}

// Kinds returns the registered action kinds
func (d *Dispatcher) Kinds() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	kinds := make([]string, 0, len(d.handlers))
	for kind := range d.handlers {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Dispatch executes the directives in declared order and returns one
// outcome per directive, in the same order.
func (d *Dispatcher) Dispatch(ctx context.Context, directives []models.ActionDirective, event *models.DomainEvent) []models.ActionOutcome {
	outcomes := make([]models.ActionOutcome, 0, len(directives))
	for i := range directives {
		outcome := d.dispatchOne(ctx, &directives[i], event)
		if d.metrics != nil {
			result := "success"
			if !outcome.Success {
				result = string(outcome.ErrorKind)
			}
			d.metrics.ActionsDispatched.WithLabelValues(outcome.ActionKind, result).Inc()
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (d *Dispatcher) dispatchOne(ctx context.Context, directive *models.ActionDirective, event *models.DomainEvent) models.ActionOutcome {
	outcome := models.ActionOutcome{ActionKind: directive.Kind}

	d.mu.RLock()
	handler, exists := d.handlers[directive.Kind]
	d.mu.RUnlock()

	if !exists {
		d.logger.Warn("No handler registered for action kind",
			zap.String("kind", directive.Kind),
			zap.String("trigger_type", string(event.TriggerType)),
		)
		outcome.ErrorKind = models.ErrorKindUnknownAction
		outcome.Error = fmt.Sprintf("no handler registered for action kind %q", directive.Kind)
		return outcome
	}

	start := time.Now()
	actionCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// The handler runs in its own goroutine so a non-cooperative handler
	// cannot stall the remaining directives past the timeout. The channel
	// is buffered: a late result from an abandoned handler is dropped,
	// not leaked.
	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("handler panic: %v", r)
			}
		}()
		errCh <- handler(actionCtx, directive.Parameters, event)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			d.logger.Warn("Action handler failed",
				zap.String("kind", directive.Kind),
				zap.Error(err),
			)
			outcome.ErrorKind = models.ErrorKindExecutionFailed
			outcome.Error = err.Error()
		} else {
			outcome.Success = true
		}
	case <-actionCtx.Done():
		d.logger.Warn("Action handler timed out",
			zap.String("kind", directive.Kind),
			zap.Duration("timeout", d.timeout),
		)
		outcome.ErrorKind = models.ErrorKindTimeout
		outcome.Error = fmt.Sprintf("action timed out after %v", d.timeout)
	}

	if d.metrics != nil {
		d.metrics.ActionDuration.WithLabelValues(directive.Kind).Observe(time.Since(start).Seconds())
	}

	return outcome
}
