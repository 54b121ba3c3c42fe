package cache

import (
	"testing"
	"time"
)

// fixedClock lets tests move time explicitly instead of sleeping.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(t *testing.T) (*Cache[string, int], *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: time.Now()}
	c := New[string, int]()
	c.now = clock.now
	return c, clock
}

func TestCache_GetAfterPut(t *testing.T) {
	c, _ := newTestCache(t)
	c.Put("k", 42, time.Minute)

	v, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if v != 42 {
		t.Errorf("got %d, want 42", v)
	}
}

func TestCache_MissWhenNeverSet(t *testing.T) {
	c, _ := newTestCache(t)
	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for unset key")
	}
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c, clock := newTestCache(t)
	c.Put("k", 1, time.Minute)

	clock.advance(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("expected hit just before expiry")
	}

	clock.advance(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after TTL elapsed")
	}
}

func TestCache_UnrelatedPutsDoNotExtendTTL(t *testing.T) {
	c, clock := newTestCache(t)
	c.Put("k", 1, time.Minute)

	clock.advance(30 * time.Second)
	c.Put("other", 2, time.Hour)
	clock.advance(31 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Error("expected miss: unrelated put must not extend TTL")
	}
	if _, ok := c.Get("other"); !ok {
		t.Error("expected hit for unrelated key")
	}
}

func TestCache_OverwriteRefreshesExpiry(t *testing.T) {
	c, clock := newTestCache(t)
	c.Put("k", 1, time.Minute)

	clock.advance(50 * time.Second)
	c.Put("k", 2, time.Minute)

	clock.advance(30 * time.Second)
	v, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit after refresh")
	}
	if v != 2 {
		t.Errorf("got %d, want refreshed value 2", v)
	}
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(t)
	c.Put("k", 1, time.Minute)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after invalidate")
	}
}

func TestCache_ExpiredEntryDroppedOnRead(t *testing.T) {
	c, clock := newTestCache(t)
	c.Put("k", 1, time.Second)
	clock.advance(2 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry dropped, still holding %d entries", c.Len())
	}
}
