package execution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/betbot/goperp/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestInstrumentCache_TTLSuppressesRefetch(t *testing.T) {
	m := newMockExchange()
	clk := &fakeClock{now: time.Now()}
	ic := NewInstrumentCacheWithClock(m, clk)

	for i := 0; i < 5; i++ {
		if _, err := ic.GetSpec(context.Background(), "BTC"); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if m.fetchCalls != 1 {
		t.Fatalf("repeated lookups within the TTL must fetch once, got %d", m.fetchCalls)
	}

	clk.Advance(InstrumentTTL + time.Minute)
	if _, err := ic.GetSpec(context.Background(), "BTC"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if m.fetchCalls != 2 {
		t.Fatalf("expired entry must trigger a refetch, got %d", m.fetchCalls)
	}
}

func TestInstrumentCache_KeyIsCaseInsensitive(t *testing.T) {
	m := newMockExchange()
	ic := NewInstrumentCache(m)

	for _, sym := range []string{"btc", "BTC", "Btc"} {
		if _, err := ic.GetSpec(context.Background(), sym); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if m.fetchCalls != 1 {
		t.Fatalf("case variants must share one cache entry, got %d fetches", m.fetchCalls)
	}
}

type failingExchange struct {
	mockExchange
	failFetch bool
}

func (f *failingExchange) FetchInstrument(ctx context.Context, symbol string) (*domain.InstrumentSpec, error) {
	if f.failFetch {
		f.fetchCalls++
		return nil, errors.New("metadata endpoint down")
	}
	return f.mockExchange.FetchInstrument(ctx, symbol)
}

func TestInstrumentCache_StalePreferredOverError(t *testing.T) {
	f := &failingExchange{mockExchange: *newMockExchange()}
	clk := &fakeClock{now: time.Now()}
	ic := NewInstrumentCacheWithClock(f, clk)

	spec, err := ic.GetSpec(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// 过期 + 刷新失败：沿用过期值而不是报错
	clk.Advance(InstrumentTTL + time.Minute)
	f.failFetch = true
	stale, err := ic.GetSpec(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("stale spec should be served on refresh failure: %v", err)
	}
	if stale.InstID != spec.InstID {
		t.Fatalf("stale value mismatch: %s vs %s", stale.InstID, spec.InstID)
	}
}

func TestInstrumentCache_DefaultsWhenColdAndDown(t *testing.T) {
	f := &failingExchange{mockExchange: *newMockExchange(), failFetch: true}
	ic := NewInstrumentCache(f)

	// 冷缓存 + 端点不可用：主流标的回退到降级表
	spec, err := ic.GetSpec(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("known symbol should fall back to defaults: %v", err)
	}
	if spec.InstID != "BTC-USDT-SWAP" || !spec.ContractValue.Equal(spec.MinOrderSize) {
		t.Fatalf("unexpected default spec: %+v", spec)
	}

	// 冷门标的没有降级值，报错
	if _, err := ic.GetSpec(context.Background(), "PEPE"); err == nil {
		t.Fatalf("unknown symbol with endpoint down must fail")
	}
}

func TestInstrumentCache_FeesCachedAndDegradeToNil(t *testing.T) {
	m := newMockExchange()
	ic := NewInstrumentCache(m)

	fees := ic.GetFees(context.Background())
	if fees == nil || fees.Taker != 0.0005 {
		t.Fatalf("unexpected fees: %+v", fees)
	}
	// nil 费率表估算为 0，而不是 panic
	var none *domain.FeeSchedule
	if got := none.EstimateFee(1000); got != 0 {
		t.Fatalf("nil schedule must estimate zero, got %f", got)
	}
}
