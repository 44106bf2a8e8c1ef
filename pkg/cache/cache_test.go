package cache

import (
	"testing"
	"time"
)

// fakeClock 可手动拨动的时钟
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func TestInMemoryCache_SetGet(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewInMemoryCacheWithClock[string, int](time.Minute, clk)

	c.Set("a", 42, 0)
	v, ok := c.Get("a")
	if !ok || v != 42 {
		t.Fatalf("expected 42, got %v ok=%v", v, ok)
	}
}

func TestInMemoryCache_TTLExpiry(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewInMemoryCacheWithClock[string, int](time.Minute, clk)

	c.Set("a", 1, time.Minute)

	clk.now = clk.now.Add(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected hit within TTL")
	}

	clk.now = clk.now.Add(2 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss after TTL")
	}
}

func TestInMemoryCache_GetStale(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewInMemoryCacheWithClock[string, string](time.Minute, clk)

	c.Set("k", "v", time.Minute)
	clk.now = clk.now.Add(2 * time.Minute)

	v, ok, stale := c.GetStale("k")
	if !ok || !stale || v != "v" {
		t.Fatalf("expected stale hit, got v=%q ok=%v stale=%v", v, ok, stale)
	}
}

func TestInMemoryCache_PerKeyIsolation(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewInMemoryCacheWithClock[string, int](time.Hour, clk)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Hour)

	clk.now = clk.now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be expired")
	}
	// 刷新 a 不影响 b
	c.Set("a", 3, time.Hour)
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("b should be untouched, got %v ok=%v", v, ok)
	}
}
