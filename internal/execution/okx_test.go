package execution

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/goperp/internal/domain"
	okxclient "github.com/betbot/goperp/okx/client"
	"github.com/betbot/goperp/okx/signing"
	"github.com/betbot/goperp/okx/transport"
)

func testOKXExchange(t *testing.T, handler http.HandlerFunc) *OKXExchange {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	chain := transport.NewChain(srv.URL, []transport.Route{
		{Name: "direct", Kind: transport.RouteKindDirect, Timeout: 2 * time.Second},
	}, transport.WithRetries(0), transport.WithEscalationDelay(0))
	cli := okxclient.New(signing.Credentials{APIKey: "id", Secret: "sec", Passphrase: "pp"}, chain, nil)
	return NewOKXExchange(cli)
}

func TestOKXExchange_LongShortModeCarriesPosSide(t *testing.T) {
	var mu sync.Mutex
	var lastOrderBody []byte
	ex := testOKXExchange(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case okxclient.EndpointConfig:
			w.Write([]byte(`{"code":"0","data":[{"acctLv":"2","posMode":"long_short_mode"}]}`))
		case okxclient.EndpointPlaceOrder:
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			lastOrderBody = body
			mu.Unlock()
			w.Write([]byte(`{"code":"0","data":[{"ordId":"1001","clOrdId":"a","sCode":"0"}]}`))
		default:
			w.Write([]byte(`{"code":"0","data":[]}`))
		}
	})

	// 首次下单前没人查过账户配置：仓位模式必须被懒加载出来
	res, err := ex.PlaceOrder(context.Background(), &OrderRequest{
		Symbol: "BTC", Side: domain.SideBuy, MarginMode: domain.MarginModeCross,
		OrderType: domain.OrderTypeMarket, Contracts: decimal.NewFromInt(1), ClientOrderID: "a",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success: %+v", res)
	}

	var wire struct {
		PosSide    string `json:"posSide"`
		ReduceOnly bool   `json:"reduceOnly"`
	}
	mu.Lock()
	body := lastOrderBody
	mu.Unlock()
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("order body not JSON: %v (%s)", err, body)
	}
	if wire.PosSide != "long" {
		t.Fatalf("long_short_mode buy-open must carry posSide=long, got %q (%s)", wire.PosSide, body)
	}

	// 平多：卖出 + reduceOnly 仍然是 long 腿
	if _, err := ex.PlaceOrder(context.Background(), &OrderRequest{
		Symbol: "BTC", Side: domain.SideSell, MarginMode: domain.MarginModeCross,
		OrderType: domain.OrderTypeMarket, Contracts: decimal.NewFromInt(1),
		ReduceOnly: true, ClientOrderID: "b",
	}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	mu.Lock()
	body = lastOrderBody
	mu.Unlock()
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("order body not JSON: %v", err)
	}
	if wire.PosSide != "long" || !wire.ReduceOnly {
		t.Fatalf("close-long must be posSide=long reduceOnly=true, got %s", body)
	}
}

func TestOKXExchange_PosModeConcurrentAccess(t *testing.T) {
	ex := testOKXExchange(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case okxclient.EndpointConfig:
			w.Write([]byte(`{"code":"0","data":[{"acctLv":"2","posMode":"net_mode"}]}`))
		case okxclient.EndpointPlaceOrder:
			w.Write([]byte(`{"code":"0","data":[{"ordId":"1","sCode":"0"}]}`))
		default:
			w.Write([]byte(`{"code":"0","data":[]}`))
		}
	})

	// 并发读写仓位模式：AccountConfig 刷新与下单同时进行
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				_, _ = ex.AccountConfig(context.Background())
				return
			}
			_, _ = ex.PlaceOrder(context.Background(), &OrderRequest{
				Symbol: "BTC", Side: domain.SideBuy, MarginMode: domain.MarginModeCross,
				OrderType: domain.OrderTypeMarket, Contracts: decimal.NewFromInt(1),
			})
		}(i)
	}
	wg.Wait()

	// 净持仓模式下单不带 posSide；这里只要求没有并发冲突且模式被缓存
	if got := ex.positionMode(context.Background()); got != "net_mode" {
		t.Fatalf("position mode not cached: %q", got)
	}
}
