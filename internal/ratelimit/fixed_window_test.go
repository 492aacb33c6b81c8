package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newLimiter(t *testing.T, mr *miniredis.Miniredis, scope string, limit int) *FixedWindowLimiter {
	t.Helper()
	client, err := NewRedisClient(mr.Addr(), "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	limiter, err := NewFixedWindowLimiter(client, "test:ratelimit", scope, limit, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	return limiter
}

func TestFixedWindowLimiterBlocksAfterLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter := newLimiter(t, mr, "auth", 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "203.0.113.5")
		if err != nil || !d.Allowed {
			t.Fatalf("request %d should pass: %+v %v", i+1, d, err)
		}
	}
	d, err := limiter.Allow(ctx, "203.0.113.5")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed {
		t.Fatalf("third request should be blocked")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("unexpected retry after: %v", d.RetryAfter)
	}
}

func TestFixedWindowLimiterScopesAreIndependent(t *testing.T) {
	mr := miniredis.RunT(t)
	auth := newLimiter(t, mr, "auth", 1)
	apply := newLimiter(t, mr, "apply", 1)
	ctx := context.Background()

	if d, _ := auth.Allow(ctx, "k"); !d.Allowed {
		t.Fatalf("auth first hit should pass")
	}
	if d, _ := apply.Allow(ctx, "k"); !d.Allowed {
		t.Fatalf("apply counter must not share auth window")
	}
}

func TestFixedWindowLimiterFailsClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter := newLimiter(t, mr, "auth", 1)
	mr.Close()
	d, err := limiter.Allow(context.Background(), "k")
	if err == nil || d.Allowed {
		t.Fatalf("limiter should fail closed on redis errors, got %+v %v", d, err)
	}
}

func TestNewRedisClientRequiresAddr(t *testing.T) {
	if _, err := NewRedisClient(" ", ""); err == nil {
		t.Fatalf("expected error for empty redis addr")
	}
}
