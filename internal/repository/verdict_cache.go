package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/teplocom/support-triage/internal/domain"
)

// VerdictCache short-circuits re-classification of identical inbound mail.
// A miss is indistinguishable from an outage; callers always fall through
// to the classifier.
type VerdictCache interface {
	Get(ctx context.Context, key string) (*domain.Verdict, bool)
	Set(ctx context.Context, key string, verdict *domain.Verdict)
}

// CacheKey digests the message identity used for verdict caching.
func CacheKey(subject, body string) string {
	sum := sha256.Sum256([]byte(subject + "\n" + body))
	return "verdict:" + hex.EncodeToString(sum[:])
}

type redisVerdictCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewVerdictCache builds a redis-backed cache. A nil client yields a cache
// that always misses.
func NewVerdictCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) VerdictCache {
	return &redisVerdictCache{client: client, ttl: ttl, logger: logger}
}

func (c *redisVerdictCache) Get(ctx context.Context, key string) (*domain.Verdict, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("verdict cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var verdict domain.Verdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		c.logger.Debug("verdict cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return &verdict, true
}

func (c *redisVerdictCache) Set(ctx context.Context, key string, verdict *domain.Verdict) {
	if c.client == nil || verdict == nil {
		return
	}
	raw, err := json.Marshal(verdict)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("verdict cache write failed", zap.Error(err))
	}
}
