package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/quote-feed/pkg/config"
	"github.com/quote-feed/pkg/models"
)

// RedisClient mirrors the in-memory fallback cache so last-known-good
// quotes survive a process restart. The in-memory map stays
// authoritative; Redis is write-through on live success and read only
// on an in-memory miss.
type RedisClient struct {
	client *redis.Client
	logger *logrus.Entry
	ttl    time.Duration
}

// NewRedisClient creates and pings a Redis client
func NewRedisClient(cfg *config.RedisConfig, log *logrus.Logger) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		logger: log.WithField("component", "redis"),
		ttl:    24 * time.Hour,
	}, nil
}

// Close closes the Redis connection
func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// Health checks Redis connectivity
func (rc *RedisClient) Health(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// SetFallback stores the last-known-good quote for a symbol.
func (rc *RedisClient) SetFallback(ctx context.Context, quote *models.Quote) error {
	key := fmt.Sprintf("fallback:%s", quote.Asset)

	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	return rc.client.Set(ctx, key, data, rc.ttl).Err()
}

// GetFallback returns the stored quote for a symbol, or nil when none
// exists.
func (rc *RedisClient) GetFallback(ctx context.Context, asset string) (*models.Quote, error) {
	key := fmt.Sprintf("fallback:%s", asset)

	data, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fallback quote: %w", err)
	}

	var quote models.Quote
	if err := json.Unmarshal([]byte(data), &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}
	return &quote, nil
}
