package store

import (
	"context"
	"fmt"
	"time"

	"prism-workers/internal/common/database"
	"prism-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// CachedStore serves repeated (course, k, query) lookups from Redis.
// Cache errors are logged and never fail a query.
type CachedStore struct {
	next   EvidenceStore
	redis  redis.Cmdable
	ttl    time.Duration
	logger Logger
}

func NewCachedStore(next EvidenceStore, rdb redis.Cmdable, ttl time.Duration, log Logger) *CachedStore {
	return &CachedStore{next: next, redis: rdb, ttl: ttl, logger: log}
}

func CacheKey(course string, topK int, text string) string {
	return fmt.Sprintf("prism:retrieval:%s|%d|%s", course, topK, text)
}

func (c *CachedStore) Query(ctx context.Context, text, course string, topK int) ([]models.EvidenceChunk, error) {
	if c.ttl <= 0 {
		return c.next.Query(ctx, text, course, topK)
	}

	key := CacheKey(course, topK, text)

	var cached []models.EvidenceChunk
	found, err := database.GetJSON(ctx, c.redis, key, &cached)
	if err != nil {
		c.logger.Warn("retrieval cache read failed", map[string]interface{}{"key": key, "error": err})
	}
	if found {
		c.logger.Debug("retrieval cache hit", map[string]interface{}{"key": key, "results": len(cached)})
		return cached, nil
	}

	chunks, err := c.next.Query(ctx, text, course, topK)
	if err != nil {
		return nil, err
	}

	// empty results are not cached so newly indexed material shows up
	if len(chunks) > 0 {
		if err := database.SetJSON(ctx, c.redis, key, chunks, c.ttl); err != nil {
			c.logger.Warn("retrieval cache write failed", map[string]interface{}{"key": key, "error": err})
		}
	}

	return chunks, nil
}
