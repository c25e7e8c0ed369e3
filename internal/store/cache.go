package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/models"
)

// BundleCache is a Redis-backed cache of finished bundles keyed by the
// request input. Like Store it is optional: nil receivers no-op.
type BundleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBundleCache connects to Redis and verifies the connection.
func NewBundleCache(ctx context.Context, cfg config.RedisConfig) (*BundleCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &BundleCache{client: client, ttl: ttl}, nil
}

func (c *BundleCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Key derives the cache key from the input fields. The unit separator
// keeps distinct field splits from colliding ("ab"+"c" vs "a"+"bc").
func Key(input models.DiscoverInput) string {
	h := sha256.New()
	h.Write([]byte(input.Title))
	h.Write([]byte{0x1f})
	h.Write([]byte(input.Content))
	h.Write([]byte{0x1f})
	h.Write([]byte(input.ConversationContext))
	return "clipexplain:bundle:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached bundle for an input, or nil on miss. Errors are
// folded into misses: a broken cache must not break discovery.
func (c *BundleCache) Get(ctx context.Context, input models.DiscoverInput) *models.ResourceBundle {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, Key(input)).Bytes()
	if err != nil {
		return nil
	}
	var bundle models.ResourceBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil
	}
	return &bundle
}

// Set stores a bundle under its input key. Only live-path results are
// worth caching; callers skip fallback tiers.
func (c *BundleCache) Set(ctx context.Context, input models.DiscoverInput, bundle *models.ResourceBundle) error {
	if c == nil || c.client == nil || bundle == nil {
		return nil
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	return c.client.Set(ctx, Key(input), raw, c.ttl).Err()
}
