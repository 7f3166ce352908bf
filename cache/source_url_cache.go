// Package cache provides the Redis fast path in front of the dedup SELECT.
// The unique index on tracks.source_url remains the enforcement point; a
// cache miss only means the SQL lookup has to answer.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSeenTTL bounds how long an ingested source URL stays in the fast
// path before the SQL lookup takes over again.
const DefaultSeenTTL = 24 * time.Hour

// SourceURLCache remembers recently ingested source URLs.
type SourceURLCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSourceURLCache creates a cache over the given Redis client. A zero ttl
// falls back to DefaultSeenTTL.
func NewSourceURLCache(client *redis.Client, ttl time.Duration) *SourceURLCache {
	if ttl <= 0 {
		ttl = DefaultSeenTTL
	}
	return &SourceURLCache{client: client, ttl: ttl}
}

// key hashes the source URL; URLs can exceed Redis key-length comfort.
func (c *SourceURLCache) key(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return "hunter:seen:" + hex.EncodeToString(sum[:])
}

// Seen reports whether sourceURL was recently marked ingested. Errors are
// returned so callers can fall through to the authoritative lookup.
func (c *SourceURLCache) Seen(ctx context.Context, sourceURL string) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	n, err := c.client.Exists(ctx, c.key(sourceURL)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check source URL cache: %w", err)
	}
	return n > 0, nil
}

// MarkSeen records sourceURL as ingested for the cache TTL.
func (c *SourceURLCache) MarkSeen(ctx context.Context, sourceURL string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, c.key(sourceURL), 1, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark source URL seen: %w", err)
	}
	return nil
}
