package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ayush/blog-platform/internal/apperror"
	"github.com/ayush/blog-platform/internal/models"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// decrFloor decrements KEYS[1] unless it is already zero or missing.
var decrFloor = redis.NewScript(`
local v = tonumber(redis.call("GET", KEYS[1]) or "0")
if v <= 0 then
	return 0
end
return redis.call("DECR", KEYS[1])
`)

// CounterStore keeps per-blog like and view counts in Redis.
type CounterStore struct {
	rdb redis.UniversalClient
}

func NewCounterStore(rdb redis.UniversalClient) *CounterStore {
	return &CounterStore{rdb: rdb}
}

func likesKey(blogID string) string { return "blog:" + blogID + ":likes" }
func viewsKey(blogID string) string { return "blog:" + blogID + ":views" }

func (s *CounterStore) Like(ctx context.Context, blogID string) (int64, error) {
	n, err := s.rdb.Incr(ctx, likesKey(blogID)).Result()
	if err != nil {
		return 0, counterError("like", err)
	}
	return n, nil
}

// Unlike decrements the like count, never below zero.
func (s *CounterStore) Unlike(ctx context.Context, blogID string) (int64, error) {
	n, err := decrFloor.Run(ctx, s.rdb, []string{likesKey(blogID)}).Int64()
	if err != nil {
		return 0, counterError("unlike", err)
	}
	return n, nil
}

func (s *CounterStore) View(ctx context.Context, blogID string) (int64, error) {
	n, err := s.rdb.Incr(ctx, viewsKey(blogID)).Result()
	if err != nil {
		return 0, counterError("view", err)
	}
	return n, nil
}

// Counts returns the engagement of each blog in ids. Blogs without
// counters are reported as zero.
func (s *CounterStore) Counts(ctx context.Context, ids []string) (map[string]models.Engagement, error) {
	out := make(map[string]models.Engagement, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, 0, 2*len(ids))
	for _, id := range ids {
		keys = append(keys, likesKey(id), viewsKey(id))
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, counterError("counts", err)
	}
	for i, id := range ids {
		out[id] = models.Engagement{
			Likes: parseCount(vals[2*i]),
			Views: parseCount(vals[2*i+1]),
		}
	}
	return out, nil
}

func parseCount(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func counterError(op string, err error) error {
	return apperror.NewPersistence("Counter error", fmt.Errorf("redis %s: %w", op, err))
}
