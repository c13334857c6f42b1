package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// compareAndDeleteScript atomically compares the cached value against the
// caller-supplied expected bytes and deletes the key only on an exact
// match, closing the race window between a plain GET and a DEL that two
// concurrent refresh-token calls would otherwise hit.
const compareAndDeleteScript = `
local current = redis.call("GET", KEYS[1])
if current == false then
  return 0
end
if current ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
return 1
`

var compareAndDeleteLua = redis.NewScript(compareAndDeleteScript)

// RedisCache is the production Token Cache, backed by a single Redis
// (or Redis-compatible) instance via go-redis.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache wraps an already-constructed client; it does not dial
// eagerly, so connectivity is verified by the caller via Ping.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *RedisCache) CompareAndDelete(ctx context.Context, key string, expected []byte) (bool, error) {
	res, err := compareAndDeleteLua.Run(ctx, c.client, []string{key}, expected).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	deleted, ok := res.(int64)
	if !ok {
		return false, fmt.Errorf("%w: unexpected script result %T", ErrUnavailable, res)
	}
	return deleted == 1, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
