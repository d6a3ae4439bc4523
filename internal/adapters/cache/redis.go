package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisEventDedupStore backs event deduplication with SETNX and a TTL. An
// event id that sets the key is fresh; one that finds it already set is a
// redelivery.
type RedisEventDedupStore struct {
	client *redis.Client
}

func NewRedisEventDedupStore(client *redis.Client) *RedisEventDedupStore {
	return &RedisEventDedupStore{client: client}
}

func (s *RedisEventDedupStore) MarkIfNew(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return s.client.SetNX(ctx, "trust:event:"+eventID, "1", ttl).Result()
}

func (s *RedisEventDedupStore) Forget(ctx context.Context, eventID string) error {
	return s.client.Del(ctx, "trust:event:"+eventID).Err()
}
