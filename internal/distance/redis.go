package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/souk/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backed by one Redis hash per session, so a session
// can be dropped with a single DEL.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a RedisCache. A zero ttl uses DefaultCacheTTL.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: "souk:distance:"}
}

func (r *RedisCache) key(sessionID string) string {
	return r.prefix + sessionID
}

// Get implements Cache.
func (r *RedisCache) Get(ctx context.Context, key Key) (domain.ResolvedDistance, bool, error) {
	raw, err := r.rdb.HGet(ctx, r.key(key.SessionID), key.field()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ResolvedDistance{}, false, nil
	}
	if err != nil {
		return domain.ResolvedDistance{}, false, fmt.Errorf("redis hget distance: %w", err)
	}

	var d domain.ResolvedDistance
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.ResolvedDistance{}, false, fmt.Errorf("decode cached distance: %w", err)
	}
	return d, true, nil
}

// Set implements Cache. The hash expiry is refreshed on every write.
func (r *RedisCache) Set(ctx context.Context, key Key, d domain.ResolvedDistance) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode distance: %w", err)
	}

	hkey := r.key(key.SessionID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hkey, key.field(), raw)
		pipe.Expire(ctx, hkey, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset distance: %w", err)
	}
	return nil
}

// DeleteSession implements Cache.
func (r *RedisCache) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del distance session: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)
var _ Cache = (*MemoryCache)(nil)
