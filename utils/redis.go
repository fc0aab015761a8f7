package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"maxscale/models"
)

// OpenRedisPool initializes a Redis connection pool
func OpenRedisPool(dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis dsn: %w", err)
	}

	opt.PoolSize = 20
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// The key expires together with the window, so a missing key is a new window.
// A key left without a TTL is repaired on the next hit.
var hitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore shares rate-limit windows between server instances.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:", now: time.Now}
}

func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (models.RateLimitEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := hitScript.Run(ctx, s.client, []string{hashedKey(s.prefix, key)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return models.RateLimitEntry{}, fmt.Errorf("redis rate limit hit: %w", err)
	}
	if len(res) != 2 {
		return models.RateLimitEntry{}, fmt.Errorf("redis rate limit hit: unexpected reply %v", res)
	}

	return models.RateLimitEntry{
		Count:     res[0],
		ResetTime: s.now().Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}
