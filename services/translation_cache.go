package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const translationKeyPrefix = "gramcare:translation:"

// TranslationCache stores translations keyed by (text, language).
type TranslationCache interface {
	Get(ctx context.Context, text, lang string) (string, bool, error)
	Set(ctx context.Context, text, lang, translated string) error
	Close() error
}

func translationKey(text, lang string) string {
	sum := sha256.Sum256([]byte(lang + "\x00" + text))
	return translationKeyPrefix + lang + ":" + hex.EncodeToString(sum[:16])
}

type cachedTranslation struct {
	text      string
	expiresAt time.Time
}

// MemoryTranslationCache keeps translations in process memory with a TTL.
type MemoryTranslationCache struct {
	mu      sync.RWMutex
	entries map[string]cachedTranslation
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryTranslationCache(ttl time.Duration) *MemoryTranslationCache {
	return &MemoryTranslationCache{
		entries: make(map[string]cachedTranslation),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryTranslationCache) Get(_ context.Context, text, lang string) (string, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[translationKey(text, lang)]
	c.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.text, true, nil
}

func (c *MemoryTranslationCache) Set(_ context.Context, text, lang, translated string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[translationKey(text, lang)] = cachedTranslation{
		text:      translated,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Cleanup drops expired entries and returns how many were removed.
func (c *MemoryTranslationCache) Cleanup() int {
	if c.ttl <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *MemoryTranslationCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedTranslation)
	return nil
}

// RedisTranslationCache shares translations between instances through Redis.
type RedisTranslationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTranslationCache(client *redis.Client, ttl time.Duration) *RedisTranslationCache {
	return &RedisTranslationCache{client: client, ttl: ttl}
}

// ConnectRedisTranslationCache parses url, pings the server and returns a cache on it.
func ConnectRedisTranslationCache(ctx context.Context, url string, ttl time.Duration) (*RedisTranslationCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisTranslationCache(client, ttl), nil
}

func (c *RedisTranslationCache) Get(ctx context.Context, text, lang string) (string, bool, error) {
	val, err := c.client.Get(ctx, translationKey(text, lang)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read translation: %w", err)
	}
	return val, true, nil
}

func (c *RedisTranslationCache) Set(ctx context.Context, text, lang, translated string) error {
	if err := c.client.Set(ctx, translationKey(text, lang), translated, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store translation: %w", err)
	}
	return nil
}

func (c *RedisTranslationCache) Close() error {
	return c.client.Close()
}
