package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calloway-legal/caseflow/internal/models"
	"github.com/calloway-legal/caseflow/pkg/logger"
	"github.com/calloway-legal/caseflow/pkg/metrics"
	"github.com/google/uuid"
)

// KeyValueCache is the cache surface the cached store needs. It is
// satisfied by database.RedisClient; a cache miss is reported as an error
// from Get.
type KeyValueCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedRuleStore decorates a RuleStore with a TTL-bounded cache of
// active-rule lists, keyed by tenant and trigger type. Every mutation
// invalidates the tenant's cached lists, so executions never see a rule
// change staler than the TTL. Cache failures degrade to the inner store.
type CachedRuleStore struct {
	inner   RuleStore
	cache   KeyValueCache
	ttl     time.Duration
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewCachedRuleStore wraps inner with an active-rule cache
func NewCachedRuleStore(inner RuleStore, cache KeyValueCache, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *CachedRuleStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedRuleStore{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		logger:  log,
		metrics: m,
	}
}

func activeRulesKey(tenantID uuid.UUID, triggerType models.TriggerType) string {
	return fmt.Sprintf("rules:active:%s:%s", tenantID, triggerType)
}

// ListActiveRules serves from cache when possible, falling back to the
// inner store and repopulating on a miss
func (c *CachedRuleStore) ListActiveRules(ctx context.Context, tenantID uuid.UUID, triggerType models.TriggerType) ([]models.WorkflowRule, error) {
	key := activeRulesKey(tenantID, triggerType)

	if cached, err := c.cache.Get(ctx, key); err == nil {
		var rules []models.WorkflowRule
		if err := json.Unmarshal([]byte(cached), &rules); err == nil {
			if c.metrics != nil {
				c.metrics.RuleCacheHits.Inc()
			}
			return rules, nil
		}
		c.logger.Warn("Discarding undecodable rule cache entry", zap.String("key", key))
	}

	if c.metrics != nil {
		c.metrics.RuleCacheMisses.Inc()
	}

	rules, err := c.inner.ListActiveRules(ctx, tenantID, triggerType)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(rules); err == nil {
		if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
			c.logger.Warn("Failed to populate rule cache", zap.String("key", key), zap.Error(err))
		}
	}

	return rules, nil
}

func (c *CachedRuleStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.WorkflowRule, error) {
	return c.inner.GetByID(ctx, tenantID, id)
}

func (c *CachedRuleStore) List(ctx context.Context, tenantID uuid.UUID, isActive *bool, triggerType *models.TriggerType, limit, offset int) ([]models.WorkflowRule, int64, error) {
	return c.inner.List(ctx, tenantID, isActive, triggerType, limit, offset)
}

func (c *CachedRuleStore) Create(ctx context.Context, rule *models.WorkflowRule) error {
	if err := c.inner.Create(ctx, rule); err != nil {
		return err
	}
	c.invalidate(ctx, rule.TenantID)
	return nil
}

func (c *CachedRuleStore) Update(ctx context.Context, rule *models.WorkflowRule) error {
	if err := c.inner.Update(ctx, rule); err != nil {
		return err
	}
	c.invalidate(ctx, rule.TenantID)
	return nil
}

func (c *CachedRuleStore) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := c.inner.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	c.invalidate(ctx, tenantID)
	return nil
}

// invalidate drops the tenant's cached active-rule lists. The trigger
// enumeration is closed, so every possible key is known.
func (c *CachedRuleStore) invalidate(ctx context.Context, tenantID uuid.UUID) {
	keys := make([]string, 0, len(models.TriggerTypes()))
	for _, trigger := range models.TriggerTypes() {
		keys = append(keys, activeRulesKey(tenantID, trigger))
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.logger.Warn("Failed to invalidate rule cache",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	}
}
