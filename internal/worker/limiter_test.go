package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	if l := NewLimiter(10, 5); l.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, -1); l.defaultBurst != 4 {
		t.Errorf("expected default burst 4, got %d", l.defaultBurst)
	}
}

func TestLimiter_PerHost(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://node.example.com:8900/api/v1"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	if limiter.Allow("https://node.example.com:8900/other") {
		t.Error("expected exhausted tokens for the same host")
	}
	if !limiter.Allow("other.example.com") {
		t.Error("expected allow for another host")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("example.com") {
			t.Fatalf("request %d was limited with limiting disabled", i)
		}
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	limiter.Allow("slow.example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, "slow.example.com"); err == nil {
		t.Error("expected wait to fail when the context expires first")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(100, 10)
	limiter.SetHostRate("https://Slow.example.com", 0.1, 1)

	if !limiter.Allow("slow.example.com") {
		t.Error("first request should pass")
	}
	if limiter.Allow("http://slow.example.com/x") {
		t.Error("second request should be limited")
	}
	if !limiter.Allow("fast.example.com") {
		t.Error("other host should pass")
	}
}

func TestHostKey(t *testing.T) {
	tests := map[string]string{
		"http://Example.com/foo":        "example.com",
		"https://node.example.com:8900": "node.example.com:8900",
		"example.com/":                  "example.com",
		"  graph.local ":                "graph.local",
	}
	for in, want := range tests {
		if got := HostKey(in); got != want {
			t.Errorf("HostKey(%q) = %q, want %q", in, got, want)
		}
	}
}
