package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

// PageCache stores fully rendered pages keyed by request address.
type PageCache interface {
	// GetOrRender returns the stored bytes for key, or calls render and stores its output for ttl.
	GetOrRender(ctx context.Context, key string, ttl time.Duration, render func() ([]byte, error)) ([]byte, error)
	// ClearAll drops every application key regardless of remaining TTL.
	ClearAll(ctx context.Context) error
}

// RedisPageCache is a PageCache backed by Redis. A nil client turns it into a pass-through.
type RedisPageCache struct {
	rdb   *redis.Client
	label string
}

// NewRedisPageCache returns a page cache over rdb. label names the page in metrics.
func NewRedisPageCache(rdb *redis.Client, label string) *RedisPageCache {
	return &RedisPageCache{rdb: rdb, label: label}
}

// GetOrRender serves key from Redis when present. Render errors are returned and nothing is stored.
// Redis errors never fail the call; they degrade to rendering.
func (p *RedisPageCache) GetOrRender(ctx context.Context, key string, ttl time.Duration, render func() ([]byte, error)) ([]byte, error) {
	if p.rdb == nil {
		observability.RecordPageCache(p.label, observability.CacheBypass)
		return render()
	}

	ctx, span := observability.TraceRedisOperation(ctx, "page_get")
	cached, err := p.rdb.Get(ctx, key).Bytes()
	observability.EndSpan(span, ignoreNil(err))
	switch {
	case err == nil:
		observability.RecordPageCache(p.label, observability.CacheHit)
		return cached, nil
	case errors.Is(err, redis.Nil):
		observability.RecordPageCache(p.label, observability.CacheMiss)
	default:
		observability.RecordPageCache(p.label, observability.CacheBypass)
		middleware.Logger.WarnContext(ctx, "page cache read failed", "key", key, "error", err)
	}

	body, err := render()
	if err != nil {
		return nil, err
	}

	if err := p.rdb.Set(ctx, key, body, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "page cache write failed", "key", key, "error", err)
	}
	return body, nil
}

// ClearAll deletes every key under Namespace using SCAN so Redis is never blocked by KEYS.
func (p *RedisPageCache) ClearAll(ctx context.Context) error {
	if p.rdb == nil {
		return nil
	}

	ctx, span := observability.TraceRedisOperation(ctx, "clear_all")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var cursor uint64
	for {
		var keys []string
		keys, cursor, err = p.rdb.Scan(ctx, cursor, Namespace+"*", 200).Result()
		if err != nil {
			err = fmt.Errorf("scan cache keys: %w", err)
			return err
		}
		if len(keys) > 0 {
			if err = p.rdb.Del(ctx, keys...).Err(); err != nil {
				err = fmt.Errorf("delete cache keys: %w", err)
				return err
			}
		}
		if cursor == 0 {
			return nil
		}
	}
}

func ignoreNil(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
