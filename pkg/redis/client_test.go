package redis

import (
	"testing"

	"github.com/kartvelo/kartvelo-backend/pkg/config"
)

func TestBuildKeyNamespacing(t *testing.T) {
	c := &Client{}

	if got := c.IdempotencyKey("ipay_webhook", "abc"); got != "kv:idempotency:ipay_webhook:abc" {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	if got := c.LockKey("cron"); got != "kv:lock:cron" {
		t.Fatalf("unexpected lock key %q", got)
	}
	if got := c.CounterKey(""); got != "kv:counter" {
		t.Fatalf("empty parts should be dropped, got %q", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error for missing url and address")
	}
}

func TestOptionsFromConfigAddressFallback(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2, PoolSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 2 || opts.PoolSize != 5 {
		t.Fatalf("pool settings not applied: %+v", opts)
	}
}
