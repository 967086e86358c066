package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/sentriq/screend/pkg/config"
)

func newLimiter(t *testing.T, rpm int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l := New(config.RateLimitConfig{RedisAddr: mr.Addr(), RequestsPerMinute: rpm}, nil)
	if l == nil {
		t.Fatal("limiter not constructed despite redis address")
	}
	t.Cleanup(func() { l.Close() })
	return l, mr
}

func TestNilLimiterAlwaysAllows(t *testing.T) {
	var l *Limiter
	for i := 0; i < 100; i++ {
		if allowed, _ := l.Allow(context.Background(), "client"); !allowed {
			t.Fatal("nil limiter denied a request")
		}
	}
	if err := l.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}
}

func TestDisabledByEmptyAddr(t *testing.T) {
	if l := New(config.RateLimitConfig{}, nil); l != nil {
		t.Error("empty redis address should disable the limiter")
	}
}

func TestAllowUnderAndOverLimit(t *testing.T) {
	l, _ := newLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if allowed, _ := l.Allow(ctx, "client-a"); !allowed {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}
	allowed, retryAfter := l.Allow(ctx, "client-a")
	if allowed {
		t.Error("fourth request allowed over a limit of 3")
	}
	if retryAfter <= 0 {
		t.Errorf("retryAfter = %v, want positive", retryAfter)
	}
}

func TestClientsCountedSeparately(t *testing.T) {
	l, _ := newLimiter(t, 1)
	ctx := context.Background()

	if allowed, _ := l.Allow(ctx, "client-a"); !allowed {
		t.Fatal("first client denied")
	}
	if allowed, _ := l.Allow(ctx, "client-b"); !allowed {
		t.Error("second client denied by first client's window")
	}
}

func TestFailsOpenWhenRedisDown(t *testing.T) {
	l, mr := newLimiter(t, 1)
	mr.Close()

	if allowed, _ := l.Allow(context.Background(), "client-a"); !allowed {
		t.Error("limiter should fail open when redis is unreachable")
	}
}
