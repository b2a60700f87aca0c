package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylist guarda access tokens revocados hasta su expiración natural.
type TokenDenylist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

type memoryTokenDenylist struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func NewMemoryTokenDenylist() TokenDenylist {
	return &memoryTokenDenylist{
		items: make(map[string]time.Time),
	}
}

func (d *memoryTokenDenylist) Add(_ context.Context, token string, ttl time.Duration) error {
	if strings.TrimSpace(token) == "" || ttl <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items[tokenKey(token)] = time.Now().UTC().Add(ttl)
	return nil
}

func (d *memoryTokenDenylist) Contains(_ context.Context, token string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := tokenKey(token)
	exp, ok := d.items[key]
	if !ok {
		return false, nil
	}
	if time.Now().UTC().After(exp) {
		delete(d.items, key)
		return false, nil
	}
	return true, nil
}

type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisTokenDenylist struct {
	client redisKV
	prefix string
}

func NewRedisTokenDenylist(client *redis.Client) TokenDenylist {
	if client == nil {
		return nil
	}
	return &redisTokenDenylist{
		client: client,
		prefix: "auth:denylist:",
	}
}

func (d *redisTokenDenylist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if strings.TrimSpace(token) == "" || ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return d.client.Set(ctx, d.prefix+tokenKey(token), 1, ttl).Err()
}

func (d *redisTokenDenylist) Contains(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	n, err := d.client.Exists(ctx, d.prefix+tokenKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
