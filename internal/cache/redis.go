package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contactbook/contactbook-go/internal/model"
)

var _ UserCache = (*RedisCache)(nil)

// RedisCache stores user snapshots in Redis as JSON under user:<email>.
// Snapshots never include the password or refresh token hashes; those are
// excluded at the model level.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects a Redis-backed session cache.
func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: client, ttl: ttl}
}

// Ping verifies the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get returns the cached snapshot for the email, or ErrMiss.
func (c *RedisCache) Get(ctx context.Context, email string) (*model.User, error) {
	data, err := c.client.Get(ctx, key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		// A corrupt entry behaves like a miss; the next Put overwrites it.
		return nil, ErrMiss
	}
	return &user, nil
}

// Put writes the snapshot with the configured TTL.
func (c *RedisCache) Put(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(user.Email), data, c.ttl).Err()
}

// Evict removes the snapshot for the email.
func (c *RedisCache) Evict(ctx context.Context, email string) error {
	return c.client.Del(ctx, key(email)).Err()
}

func key(email string) string {
	return "user:" + email
}
