package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	dom "todoboard/internal/domain"
	"todoboard/internal/repo"

	"github.com/redis/go-redis/v9"
)

// Every cached value lives under the current generation. InvalidateAll bumps
// the generation, so a value computed before a write is never served after it.
const (
	keyGen        = "todo:gen"
	keyPrefix     = "todo:"
	keyList       = ":list:"
	keyStats      = ":stats"
	keyCategories = ":categories"
)

// TodoCache caches listings, stats and the category set in Redis.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

func genPrefix(gen int64) string {
	return keyPrefix + strconv.FormatInt(gen, 10)
}

// ListKey is the cache key of a listing. Search is case-insensitive, so it is lowered.
func ListKey(gen int64, q repo.ListQuery) string {
	q = q.Normalized()
	v := url.Values{}
	v.Set("s", q.Status)
	v.Set("p", q.Priority)
	v.Set("c", q.Category)
	v.Set("q", strings.ToLower(q.Search))
	v.Set("o", q.Sort)
	return genPrefix(gen) + keyList + v.Encode()
}

func StatsKey(gen int64) string      { return genPrefix(gen) + keyStats }
func CategoriesKey(gen int64) string { return genPrefix(gen) + keyCategories }

// Generation returns the current cache generation, 0 before the first write.
func (c *TodoCache) Generation(ctx context.Context) (int64, error) {
	n, err := c.rdb.Get(ctx, keyGen).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// GetList returns the cached listing for q, or nil on miss.
func (c *TodoCache) GetList(ctx context.Context, gen int64, q repo.ListQuery) ([]dom.Todo, error) {
	var list []dom.Todo
	ok, err := c.get(ctx, ListKey(gen, q), &list)
	if !ok || err != nil {
		return nil, err
	}
	if list == nil {
		list = []dom.Todo{}
	}
	return list, nil
}

// SetList stores the listing for q.
func (c *TodoCache) SetList(ctx context.Context, gen int64, q repo.ListQuery, list []dom.Todo) error {
	return c.set(ctx, ListKey(gen, q), list)
}

// GetStats returns cached stats; ok is false on miss.
func (c *TodoCache) GetStats(ctx context.Context, gen int64) (dom.Stats, bool, error) {
	var s dom.Stats
	ok, err := c.get(ctx, StatsKey(gen), &s)
	return s, ok, err
}

// SetStats stores the stats.
func (c *TodoCache) SetStats(ctx context.Context, gen int64, s dom.Stats) error {
	return c.set(ctx, StatsKey(gen), s)
}

// GetCategories returns the cached category set, or nil on miss.
func (c *TodoCache) GetCategories(ctx context.Context, gen int64) ([]string, error) {
	var cats []string
	ok, err := c.get(ctx, CategoriesKey(gen), &cats)
	if !ok || err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}

// SetCategories stores the category set.
func (c *TodoCache) SetCategories(ctx context.Context, gen int64, cats []string) error {
	return c.set(ctx, CategoriesKey(gen), cats)
}

// InvalidateAll starts a new generation and drops the values of older ones.
func (c *TodoCache) InvalidateAll(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, keyGen).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if iter.Val() == keyGen {
			continue
		}
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *TodoCache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TodoCache) set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
