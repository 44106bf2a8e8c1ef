package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
)

func TestMarkPriceStream_ApplyAndFreshness(t *testing.T) {
	s := NewMarkPriceStream("", []string{"BTC-USDT-SWAP"})

	s.apply(&pushMsg{Data: []struct {
		InstID string `json:"instId"`
		MarkPx string `json:"markPx"`
		Ts     string `json:"ts"`
	}{
		{InstID: "BTC-USDT-SWAP", MarkPx: "50123.4", Ts: "1"},
		{InstID: "ETH-USDT-SWAP", MarkPx: "not-a-number", Ts: "1"}, // 坏数据被丢弃
		{InstID: "SOL-USDT-SWAP", MarkPx: "-3", Ts: "1"},           // 非正价被丢弃
	}})

	px, ok := s.Price("BTC-USDT-SWAP", time.Minute)
	if !ok || px != 50123.4 {
		t.Fatalf("expected fresh price, got %f ok=%v", px, ok)
	}
	if _, ok := s.Price("ETH-USDT-SWAP", time.Minute); ok {
		t.Fatalf("unparseable push must not produce a price")
	}
	if _, ok := s.Price("SOL-USDT-SWAP", time.Minute); ok {
		t.Fatalf("non-positive push must not produce a price")
	}
	// 新鲜度窗口为 0 时一律视为过期
	if _, ok := s.Price("BTC-USDT-SWAP", 0); ok {
		t.Fatalf("zero max-age must report stale")
	}
}

func TestMarkPriceStream_SubscribesAndReceives(t *testing.T) {
	upgrader := gws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var sub subscribeMsg
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		if sub.Op != "subscribe" || len(sub.Args) != 1 || sub.Args[0].InstID != "BTC-USDT-SWAP" {
			t.Errorf("unexpected subscribe: %+v", sub)
		}
		conn.WriteMessage(gws.TextMessage, []byte(
			`{"arg":{"channel":"mark-price","instId":"BTC-USDT-SWAP"},"data":[{"instId":"BTC-USDT-SWAP","markPx":"42000.5","ts":"1"}]}`))
		// 挂住连接直到客户端断开
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	stream := NewMarkPriceStream(url, []string{"BTC-USDT-SWAP"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stream.Run(ctx)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if px, ok := stream.Price("BTC-USDT-SWAP", time.Minute); ok {
			if px != 42000.5 {
				t.Fatalf("unexpected price: %f", px)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("price never arrived over the stream")
}
