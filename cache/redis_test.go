package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisCache(t *testing.T) *RedisCache {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client)
}

func TestRedisCacheGetPutDelete(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "jwt:a@example.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := c.Put(ctx, "jwt:a@example.com", []byte("pair-1"), time.Minute); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	val, err := c.Get(ctx, "jwt:a@example.com")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(val) != "pair-1" {
		t.Fatalf("unexpected value: %s", val)
	}

	if err := c.Delete(ctx, "jwt:a@example.com"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := c.Get(ctx, "jwt:a@example.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisCacheCompareAndDelete(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "jwt:a@example.com", []byte("pair-1"), time.Minute); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	ok, err := c.CompareAndDelete(ctx, "jwt:a@example.com", []byte("pair-wrong"))
	if err != nil {
		t.Fatalf("CompareAndDelete error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch to not delete")
	}

	ok, err = c.CompareAndDelete(ctx, "jwt:a@example.com", []byte("pair-1"))
	if err != nil {
		t.Fatalf("CompareAndDelete error: %v", err)
	}
	if !ok {
		t.Fatal("expected matching compare-and-delete to succeed")
	}

	if _, err := c.Get(ctx, "jwt:a@example.com"); err != ErrNotFound {
		t.Fatalf("expected entry gone after CompareAndDelete, got %v", err)
	}
}

func TestRedisCacheCompareAndDeleteConcurrentRefreshRace(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "jwt:race@example.com", []byte("pair-1"), time.Minute); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	results := make(chan bool, 4)
	for i := 0; i < 4; i++ {
		go func() {
			ok, err := c.CompareAndDelete(ctx, "jwt:race@example.com", []byte("pair-1"))
			if err != nil {
				results <- false
				return
			}
			results <- ok
		}()
	}

	successes := 0
	for i := 0; i < 4; i++ {
		if <-results {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winner, got %d", successes)
	}
}

func TestRedisCachePutExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCache(client)
	ctx := context.Background()

	if err := c.Put(ctx, "verify:abc", []byte("a@example.com"), 10*time.Millisecond); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	// miniredis only expires keys when its clock is advanced explicitly.
	mr.FastForward(50 * time.Millisecond)

	if _, err := c.Get(ctx, "verify:abc"); err != ErrNotFound {
		t.Fatalf("expected expired entry to be gone, got %v", err)
	}
}
