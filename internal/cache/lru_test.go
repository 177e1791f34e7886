package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestCache[T any](size int, ttl time.Duration) (*LRUCache[T], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCacheEviction(t *testing.T) {
	c, _ := newTestCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4")

	if _, ok := c.Get("key1"); ok {
		t.Error("key1 should have been evicted")
	}
	for _, key := range []string{"key2", "key3", "key4"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should still be cached", key)
		}
	}
}

func TestLRUCacheRecentUseSurvives(t *testing.T) {
	c, _ := newTestCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b was least recently used and should be gone")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %d, %v", v, ok)
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c, clock := newTestCache[string](100, time.Minute)
	c.Set("key1", "value1")

	if _, ok := c.Get("key1"); !ok {
		t.Fatal("key1 should be cached")
	}
	clock.t = clock.t.Add(2 * time.Minute)
	if _, ok := c.Get("key1"); ok {
		t.Fatal("key1 should have expired")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on read, size %d", c.Size())
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c, clock := newTestCache[string](100, time.Minute)
	c.Set("key1", "value1")
	c.Set("key2", "value2")
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("key3", "value3")
	clock.t = clock.t.Add(45 * time.Second)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("expected 2 entries cleaned, got %d", removed)
	}
	if c.Size() != 1 {
		t.Errorf("expected 1 entry left, got %d", c.Size())
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	c, _ := newTestCache[int](10, time.Hour)
	c.Set("user-1:2025-01", 1)
	c.Set("user-1:2025-02", 2)
	c.Set("user-10:2025-01", 3)

	if n := c.DeletePrefix("user-1:"); n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if _, ok := c.Get("user-10:2025-01"); !ok {
		t.Fatal("other user's entry must survive")
	}
}

func TestManagerStop(t *testing.T) {
	m := NewManager()
	c := NewLRUCache[int](10, time.Nanosecond)
	m.Register(c)
	c.Set("x", 1)

	m.StartCleanup(context.Background(), time.Millisecond)
	deadline := time.Now().Add(time.Second)
	for c.Size() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	m.Stop()
	m.Stop()

	if c.Size() != 0 {
		t.Fatalf("cleanup loop did not run, size %d", c.Size())
	}
}

func BenchmarkLRUCache(b *testing.B) {
	c := NewLRUCache[string](1000, time.Hour)
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			c.Set("bench-key", "value")
		} else {
			c.Get("bench-key")
		}
	}
}
