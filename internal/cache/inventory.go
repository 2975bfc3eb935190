package cache

import (
	"context"
	"fmt"
	"time"

	"yatube/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Namespace prefixes every key the application owns, so ClearAll can find them.
const Namespace = "yatube:"

const (
	PageKeyPrefix  = Namespace + "page:%s"
	GroupKeyPrefix = Namespace + "group:%s"
)

const (
	// IndexPageTTL is how long the rendered home listing is served from cache.
	IndexPageTTL = 20 * time.Second
	GroupTTL     = 10 * time.Minute
)

// PageKey namespaces a page address such as "/" or "/?page=2".
func PageKey(address string) string {
	return fmt.Sprintf(PageKeyPrefix, address)
}

func GroupKey(slug string) string {
	return fmt.Sprintf(GroupKeyPrefix, slug)
}

// Invalidate drops one cached lookup. Failures only mean the entry lives until its TTL.
func Invalidate(ctx context.Context, rdb *redis.Client, key string) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, key).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidate failed", "key", key, "error", err)
	}
}

func InvalidateGroup(ctx context.Context, rdb *redis.Client, slug string) {
	Invalidate(ctx, rdb, GroupKey(slug))
}
