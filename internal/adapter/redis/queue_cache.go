package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/YelzhanWeb/canteen/internal/config"
	"github.com/YelzhanWeb/canteen/internal/interfaces"
)

const queueKeyPrefix = "canteen:queue:%s"

type queueCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func Connect(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewQueueCache stores snapshots as JSON. A ttl of 0 keeps them until the
// next refresh or invalidation.
func NewQueueCache(client *goredis.Client, ttl time.Duration) interfaces.QueueCache {
	return &queueCache{client: client, ttl: ttl}
}

func (c *queueCache) Get(ctx context.Context, shopID string) (*interfaces.QueueSnapshot, error) {
	data, err := c.client.Get(ctx, queueKey(shopID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read queue snapshot: %w", err)
	}

	var snap interfaces.QueueSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode queue snapshot: %w", err)
	}
	return &snap, nil
}

func (c *queueCache) Set(ctx context.Context, snap *interfaces.QueueSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode queue snapshot: %w", err)
	}
	return c.client.Set(ctx, queueKey(snap.ShopID), data, c.ttl).Err()
}

func (c *queueCache) Delete(ctx context.Context, shopID string) error {
	return c.client.Del(ctx, queueKey(shopID)).Err()
}

func queueKey(shopID string) string {
	return fmt.Sprintf(queueKeyPrefix, shopID)
}
