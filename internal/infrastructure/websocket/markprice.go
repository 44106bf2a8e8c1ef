// Package websocket 行情推送：订阅公共标记价格频道，
// 维护最新价快照供执行层做参考价，不参与任何签名请求。
package websocket

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "markprice-ws")

const (
	// DefaultPublicURL 公共频道地址（无需鉴权）
	DefaultPublicURL = "wss://ws.okx.com:8443/ws/v5/public"

	pingInterval  = 25 * time.Second // 服务端 30s 无数据断开，提前 ping
	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
	readDeadline  = 35 * time.Second
	writeDeadline = 5 * time.Second
)

// subscribeMsg 订阅请求
type subscribeMsg struct {
	Op   string       `json:"op"`
	Args []channelArg `json:"args"`
}

type channelArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

// pushMsg 推送消息（只解我们关心的字段）
type pushMsg struct {
	Event string     `json:"event"`
	Msg   string     `json:"msg"`
	Arg   channelArg `json:"arg"`
	Data  []struct {
		InstID string `json:"instId"`
		MarkPx string `json:"markPx"`
		Ts     string `json:"ts"`
	} `json:"data"`
}

// tick 最新价快照
type tick struct {
	price float64
	at    time.Time
}

// MarkPriceStream 标记价格流。
// Run 内部断线自动重连并重发订阅；Price 读到的永远是最近一次推送。
type MarkPriceStream struct {
	url     string
	instIDs []string

	mu     sync.RWMutex
	latest map[string]tick
}

// NewMarkPriceStream 创建标记价格流；url 为空用默认公共地址
func NewMarkPriceStream(url string, instIDs []string) *MarkPriceStream {
	if url == "" {
		url = DefaultPublicURL
	}
	return &MarkPriceStream{
		url:     url,
		instIDs: instIDs,
		latest:  make(map[string]tick),
	}
}

// Price 最近一次推送的标记价格；maxAge 内没有更新返回 false。
func (s *MarkPriceStream) Price(instID string, maxAge time.Duration) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.latest[instID]
	if !ok || time.Since(t.at) > maxAge {
		return 0, false
	}
	return t.price, true
}

// Run 阻塞运行，断线自动重连，ctx 取消后返回。
func (s *MarkPriceStream) Run(ctx context.Context) error {
	backoff := reconnectBase
	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warnf("⚠️ [行情流] 连接断开，%s 后重连: %v", backoff, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

func (s *MarkPriceStream) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return errors.Wrap(err, "连接行情服务失败")
	}
	defer conn.Close()

	args := make([]channelArg, 0, len(s.instIDs))
	for _, id := range s.instIDs {
		args = append(args, channelArg{Channel: "mark-price", InstID: id})
	}
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := conn.WriteJSON(subscribeMsg{Op: "subscribe", Args: args}); err != nil {
		return errors.Wrap(err, "发送订阅请求失败")
	}
	log.Infof("📡 [行情流] 已订阅 %d 个合约的标记价格", len(s.instIDs))

	// ctx 取消时关掉连接，把阻塞的 ReadMessage 踢出来
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "读取推送失败")
		}
		if string(raw) == "pong" {
			continue
		}
		var msg pushMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Debugf("忽略无法解析的推送: %s", raw)
			continue
		}
		if msg.Event == "error" {
			return errors.Errorf("订阅被拒: %s", msg.Msg)
		}
		s.apply(&msg)
	}
}

func (s *MarkPriceStream) apply(msg *pushMsg) {
	if len(msg.Data) == 0 {
		return
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range msg.Data {
		px, err := strconv.ParseFloat(d.MarkPx, 64)
		if err != nil || px <= 0 {
			continue
		}
		s.latest[d.InstID] = tick{price: px, at: now}
	}
}
