// internal/store/cache.go
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"resource-scheduling/internal/assistant/querybuilder"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/metrics"
	"resource-scheduling/internal/models"
)

type CacheOptions struct {
	TTL       time.Duration
	KeyPrefix string
}

// CachedStore is a read-through Redis cache in front of another store.
// Only successful results are cached; cache errors fall back to the store.
type CachedStore struct {
	next   MeetingStore
	redis  redis.Cmdable
	opts   CacheOptions
	logger logger.Logger
}

func NewCachedStore(next MeetingStore, rdb redis.Cmdable, opts CacheOptions, log logger.Logger) *CachedStore {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "meetings:query:"
	}
	return &CachedStore{
		next:   next,
		redis:  rdb,
		opts:   opts,
		logger: log.WithFields(map[string]interface{}{"store": "cache"}),
	}
}

func (c *CachedStore) FetchMeetings(ctx context.Context, spec querybuilder.QuerySpec) ([]models.MeetingRecord, error) {
	key, err := c.CacheKey(spec)
	if err != nil {
		return nil, err
	}

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var records []models.MeetingRecord
		if jsonErr := json.Unmarshal([]byte(val), &records); jsonErr == nil {
			metrics.StoreCacheLookups.WithLabelValues("hit").Inc()
			c.logger.Debug("cache hit", map[string]interface{}{"key": key, "rows": len(records)})
			return records, nil
		}
		metrics.StoreCacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.StoreCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.StoreCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("cache lookup failed", map[string]interface{}{"error": err.Error()})
	}

	records, err := c.next.FetchMeetings(ctx, spec)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(records)
	if err == nil {
		if setErr := c.redis.Set(ctx, key, data, c.opts.TTL).Err(); setErr != nil {
			c.logger.Warn("cache write failed", map[string]interface{}{"error": setErr.Error()})
		}
	}

	return records, nil
}

// CacheKey is the prefix plus a SHA-256 of the spec's wire form.
func (c *CachedStore) CacheKey(spec querybuilder.QuerySpec) (string, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return c.opts.KeyPrefix + hex.EncodeToString(sum[:]), nil
}
