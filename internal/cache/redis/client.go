package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/metrics"
	"github.com/policy-whisperer/backend/pkg/logger"
)

// Client caches fetched URL content. The cache is advisory: callers treat
// every error as a miss.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetURLContent(ctx context.Context, urlHash, content string, ttl time.Duration) error {
	err := c.client.Set(ctx, fmt.Sprintf("urlcontent:%s", urlHash), content, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache url content: %w", err)
	}

	logger.Debug("URL content cached", zap.String("url_hash", urlHash), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetURLContent(ctx context.Context, urlHash string) (string, bool, error) {
	content, err := c.client.Get(ctx, fmt.Sprintf("urlcontent:%s", urlHash)).Result()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("url_content").Inc()
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cached url content: %w", err)
	}

	metrics.CacheHits.WithLabelValues("url_content").Inc()
	logger.Debug("URL content cache hit", zap.String("url_hash", urlHash))
	return content, true, nil
}
