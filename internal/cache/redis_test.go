package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestNilCacheIsNoOp(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var dest []string
	if err := c.Get(ctx, "anything", &dest); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss from nil cache, got %v", err)
	}
	if err := c.Set(ctx, "anything", []string{"x"}); err != nil {
		t.Fatalf("expected nil cache Set to succeed silently, got %v", err)
	}
	if err := c.Delete(ctx, "anything"); err != nil {
		t.Fatalf("expected nil cache Delete to succeed silently, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("expected nil cache Close to succeed silently, got %v", err)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	c, err := New(url, time.Minute)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	const key = "cafe:test:menu"
	_ = c.Delete(ctx, key)

	var dest []string
	if err := c.Get(ctx, key, &dest); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss before set, got %v", err)
	}

	want := []string{"latte", "flat white"}
	if err := c.Set(ctx, key, want); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := c.Get(ctx, key, &dest); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(dest) != 2 || dest[0] != "latte" {
		t.Fatalf("unexpected cached value: %v", dest)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := c.Get(ctx, key, &dest); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}
