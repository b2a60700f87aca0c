package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestRedisRateLimiterAllow(t *testing.T) {
	ctx := context.Background()

	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisRateLimiter
		if !l.Allow(ctx, "user@example.com") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{result: 1}, window: time.Minute, max: 3, prefix: "verify:resend:"}
		if l.Allow(ctx, "   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})

	t.Run("allow within max and normalize key", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 3}
		l := &redisRateLimiter{client: mock, window: 10 * time.Minute, max: 3, prefix: "verify:resend:"}
		if !l.Allow(ctx, " User@Example.com ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "verify:resend:user@example.com" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 600 {
			t.Fatalf("expected TTL seconds=600, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisAllowScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("deny when count exceeds max", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{result: 4}, window: time.Minute, max: 3, prefix: "verify:resend:"}
		if l.Allow(ctx, "user@example.com") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{err: errors.New("redis down")}, window: time.Minute, max: 3, prefix: "verify:resend:"}
		if !l.Allow(ctx, "user@example.com") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}

func TestMemoryRateLimiter(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryRateLimiter(time.Minute, 2)
	if !l.Allow(ctx, "a@example.com") || !l.Allow(ctx, "A@example.com ") {
		t.Fatalf("expected first two hits to pass")
	}
	if l.Allow(ctx, "a@example.com") {
		t.Fatalf("expected third hit to be limited")
	}
	if !l.Allow(ctx, "b@example.com") {
		t.Fatalf("expected independent keys")
	}
}
