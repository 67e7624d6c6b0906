package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkwell/cms/internal/domain"
)

const keyPrefix = "cms:articles:"

// Page is one cached page of an owner's article list together with the
// total count it was computed against.
type Page struct {
	Items []domain.Article `json:"items"`
	Total int              `json:"total"`
}

// ArticleCache caches article list pages in Redis, keyed by owner, page
// number and page size. Writes for an owner invalidate all of their pages.
type ArticleCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewArticleCache returns a new ArticleCache.
func NewArticleCache(rdb *redis.Client, ttl time.Duration) *ArticleCache {
	return &ArticleCache{rdb: rdb, ttl: ttl}
}

// GetPage returns the cached page or nil on miss.
func (c *ArticleCache) GetPage(ctx context.Context, ownerID string, page, pageSize int) (*Page, error) {
	b, err := c.rdb.Get(ctx, pageKey(ownerID, page, pageSize)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p Page
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPage stores one page with the configured TTL.
func (c *ArticleCache) SetPage(ctx context.Context, ownerID string, page, pageSize int, p Page) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, pageKey(ownerID, page, pageSize), b, c.ttl).Err()
}

// Invalidate removes every cached page for one owner (cache invalidation on write).
func (c *ArticleCache) Invalidate(ctx context.Context, ownerID string) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+ownerID+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func pageKey(ownerID string, page, pageSize int) string {
	return keyPrefix + ownerID + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(pageSize)
}
