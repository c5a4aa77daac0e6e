package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// IncrWindow bumps the counter at key and (re)arms its expiry, returning the new count.
func (c *Cache) IncrWindow(ctx context.Context, key string, period time.Duration) (int64, error) {
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, period)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Acquire sets key only if absent. It reports whether this caller now owns it.
func (c *Cache) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	res := c.client.SetNX(ctx, key, owner, ttl)
	return res.Val(), res.Err()
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release deletes key only while owner still holds it. It reports whether the key was deleted.
func (c *Cache) Release(ctx context.Context, key, owner string) (bool, error) {
	n, err := releaseScript.Run(ctx, c.client, []string{key}, owner).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
