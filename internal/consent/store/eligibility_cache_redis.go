package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"trialconsent/internal/consent/metrics"
	"trialconsent/internal/consent/models"
	redisclient "trialconsent/internal/platform/redis"
	"trialconsent/pkg/domain"
	txcontext "trialconsent/pkg/platform/tx"
)

// EligibilityBackend is the store a RedisEligibilityCache reads through to.
type EligibilityBackend interface {
	FindEligibility(ctx context.Context, screening domain.ScreeningIdentifier) (*models.EligibilityConfirmation, error)
	SaveEligibility(ctx context.Context, rec *models.EligibilityConfirmation) error
}

// RedisEligibilityCache caches eligibility confirmations in front of a
// backend store. Cache failures degrade to backend reads; they never fail a
// lookup. Misses are not cached, so a confirmation saved elsewhere is seen
// on the next read.
type RedisEligibilityCache struct {
	next    EligibilityBackend
	client  *redisclient.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRedisEligibilityCache(next EligibilityBackend, client *redisclient.Client, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *RedisEligibilityCache {
	return &RedisEligibilityCache{next: next, client: client, ttl: ttl, logger: logger, metrics: m}
}

func (c *RedisEligibilityCache) FindEligibility(ctx context.Context, screening domain.ScreeningIdentifier) (*models.EligibilityConfirmation, error) {
	key := c.key(screening)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rec models.EligibilityConfirmation
		if jsonErr := json.Unmarshal(raw, &rec); jsonErr == nil {
			c.metrics.RecordCacheHit()
			return &rec, nil
		}
		c.metrics.RecordCacheError()
		c.logger.WarnContext(ctx, "discarding undecodable eligibility cache entry", "screening_identifier", screening.String())
	case errors.Is(err, redis.Nil):
		c.metrics.RecordCacheMiss()
	default:
		c.metrics.RecordCacheError()
		c.logger.WarnContext(ctx, "eligibility cache read failed", "error", err)
	}

	rec, err := c.next.FindEligibility(ctx, screening)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(rec); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "eligibility cache write failed", "error", err)
		}
	}
	return rec, nil
}

// SaveEligibility writes through to the backend. The cached entry is dropped
// after the enclosing transaction commits, not before, so a reader cannot
// re-cache the superseded row.
func (c *RedisEligibilityCache) SaveEligibility(ctx context.Context, rec *models.EligibilityConfirmation) error {
	if err := c.next.SaveEligibility(ctx, rec); err != nil {
		return err
	}
	key := c.key(rec.ScreeningIdentifier)
	txcontext.AfterCommit(ctx, func(ctx context.Context) {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.WarnContext(ctx, "eligibility cache invalidation failed", "error", err)
		}
	})
	return nil
}

func (c *RedisEligibilityCache) key(screening domain.ScreeningIdentifier) string {
	return c.client.Key("eligibility", screening.String())
}
