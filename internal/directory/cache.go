// Package directory resolves emails to HR directory records, with a Redis
// cache in front of the database view.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"intranet/api/internal/store"

	"github.com/redis/go-redis/v9"
)

// cacheEntry is the JSON shape stored per email
type cacheEntry struct {
	Email      string `json:"email"`
	Name       string `json:"nome"`
	JobTitle   string `json:"cargo"`
	Department string `json:"departamento"`
	Division   string `json:"divisao"`
	Advisory   string `json:"assessoria"`
	Section    string `json:"secao"`
}

// Cache stores directory records in Redis keyed by email.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCache connects to Redis and verifies the connection.
func NewCache(redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewCacheWithClient(client, ttl), nil
}

// NewCacheWithClient wraps an existing Redis client.
func NewCacheWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, prefix: "directory:", ttl: ttl}
}

func (c *Cache) key(email string) string {
	return c.prefix + email
}

// Get returns the cached record for an email. The second return reports
// whether the email was present in the cache.
func (c *Cache) Get(ctx context.Context, email string) (store.Collaborator, bool, error) {
	data, err := c.client.Get(ctx, c.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.Collaborator{}, false, nil
	}
	if err != nil {
		return store.Collaborator{}, false, fmt.Errorf("cache get %s: %w", email, err)
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Treat a corrupt entry as a miss so it gets overwritten.
		return store.Collaborator{}, false, nil
	}
	return store.Collaborator{
		Email:      entry.Email,
		Name:       entry.Name,
		JobTitle:   entry.JobTitle,
		Department: entry.Department,
		Division:   entry.Division,
		Advisory:   entry.Advisory,
		Section:    entry.Section,
	}, true, nil
}

// Put stores a record with the configured TTL.
func (c *Cache) Put(ctx context.Context, item store.Collaborator) error {
	data, err := json.Marshal(cacheEntry{
		Email:      item.Email,
		Name:       item.Name,
		JobTitle:   item.JobTitle,
		Department: item.Department,
		Division:   item.Division,
		Advisory:   item.Advisory,
		Section:    item.Section,
	})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(item.Email), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put %s: %w", item.Email, err)
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
