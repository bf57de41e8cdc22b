package quotastore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisQuotaPrefix string = "quota/"

// keys expire well after the day they bucket, matching the day-counter TTL
// scheme used for rolling counters elsewhere
var redisQuotaTTL = 48 * time.Hour

// Redis-backed quota store for multi-node deployments. INCR is atomic on the
// server side; a reservation is granted iff the incremented value is within
// the limit. Failed reservations leave the counter above the limit, which is
// harmless: the counter is only ever compared against it.
type RedisQuotaStore struct {
	Client *redis.Client
}

func NewRedisQuotaStore(redisURL string) (*RedisQuotaStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisQuotaStore{Client: rdb}, nil
}

func (s *RedisQuotaStore) Reserve(ctx context.Context, ruleID uint, day string, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	key := redisQuotaPrefix + quotaBucket(ruleID, day)
	n, err := s.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		s.Client.Expire(ctx, key, redisQuotaTTL)
	}
	return n <= int64(limit), nil
}

func (s *RedisQuotaStore) Release(ctx context.Context, ruleID uint, day string) error {
	key := redisQuotaPrefix + quotaBucket(ruleID, day)
	return s.Client.Decr(ctx, key).Err()
}

func (s *RedisQuotaStore) GetCount(ctx context.Context, ruleID uint, day string) (int, error) {
	key := redisQuotaPrefix + quotaBucket(ruleID, day)
	c, err := s.Client.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return c, nil
}
