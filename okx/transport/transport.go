package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/goperp/pkg/logger"
)

var log = logrus.WithField("component", "transport")

// Request 一次待发送的交易所请求。
// Sign 在每次网络尝试前被重新调用：时间戳是签名材料，跨尝试复用会被交易所拒绝。
type Request struct {
	Method string
	Path   string     // e.g. /api/v5/trade/order
	Query  url.Values // 查询参数（属于签名内容）
	Body   string     // 原始 JSON body（GET 为空）
	// Sign 生成本次尝试的认证头；公共端点为 nil
	Sign func(method, requestPath, body string) map[string]string
}

// requestPath 返回含 query 的路径（签名材料）
func (r *Request) requestPath() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// Response 链路返回的原始响应
type Response struct {
	StatusCode int
	Body       []byte
	Route      string // 成功路径名
}

// TransportError 整条链路耗尽后的错误，包装最后一次失败
type TransportError struct {
	LastRoute string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("所有网络路径均失败（最后路径: %s）: %v", e.LastRoute, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Chain 按固定顺序执行网络路径的回退链。
// 失败只向前推进，绝不回到已经放弃的路径。
type Chain struct {
	targetBase string // 交易所 REST 主机（direct 默认目标 / 代理的包装目标）
	routes     []Route
	clients    []*resty.Client

	retriesPerRoute int           // 同一路径上的瞬时错误重试上限
	backoffBase     time.Duration // 重试退避基数（指数增长）
	backoffMax      time.Duration
	escalationDelay time.Duration // 路径切换之间的固定间隔（与路径内退避是两回事）
}

// Option 链路配置项
type Option func(*Chain)

// WithRetries 设置同路径重试上限
func WithRetries(n int) Option {
	return func(c *Chain) { c.retriesPerRoute = n }
}

// WithBackoff 设置重试退避参数
func WithBackoff(base, max time.Duration) Option {
	return func(c *Chain) { c.backoffBase = base; c.backoffMax = max }
}

// WithEscalationDelay 设置路径切换间隔
func WithEscalationDelay(d time.Duration) Option {
	return func(c *Chain) { c.escalationDelay = d }
}

// NewChain 创建回退链。routes 的顺序就是执行顺序。
func NewChain(targetBase string, routes []Route, opts ...Option) *Chain {
	c := &Chain{
		targetBase:      targetBase,
		routes:          routes,
		retriesPerRoute: 3,
		backoffBase:     500 * time.Millisecond,
		backoffMax:      5 * time.Second,
		escalationDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.clients = make([]*resty.Client, len(routes))
	for i, route := range routes {
		timeout := route.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		c.clients[i] = resty.New().SetTimeout(timeout)
	}
	return c
}

// Do 依次尝试每条路径，返回第一条产出结构化有效响应的结果。
// 认证错误和业务拒绝立即原样返回（不重试不升级）；
// 瞬时错误在路径内退避重试；HTML 错误页（地理封锁）直接切下一条路径。
func (c *Chain) Do(ctx context.Context, req *Request) (*Response, error) {
	if len(c.routes) == 0 {
		return nil, errors.New("transport chain 没有配置任何路径")
	}

	var lastErr error
	for i, route := range c.routes {
		// 路径切换之间的固定间隔，避免立刻锤下一条路径
		if i > 0 {
			if err := sleepCtx(ctx, c.escalationDelay); err != nil {
				return nil, err
			}
		}

		resp, err := c.tryRoute(ctx, i, req)
		if err == nil {
			resp.Route = route.Name
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		log.Warnf("⚠️ [链路] 路径 %s 失败，前进到下一条: %v", route.Name, err)
	}

	last := c.routes[len(c.routes)-1].Name
	return nil, &TransportError{LastRoute: last, Err: lastErr}
}

// tryRoute 在单条路径上执行（含瞬时错误重试）。
// 返回 err != nil 表示该路径放弃，调用方切换下一条。
func (c *Chain) tryRoute(ctx context.Context, idx int, req *Request) (*Response, error) {
	route := c.routes[idx]

	var lastErr error
	for attempt := 0; attempt <= c.retriesPerRoute; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
		}

		resp, err := c.send(ctx, idx, req)
		if err != nil {
			// 连接错误/超时：瞬时，留在本路径重试
			lastErr = errors.Wrapf(err, "路径 %s 请求失败", route.Name)
			log.Debugf("[链路] %s 第 %d 次尝试网络错误: %v", route.Name, attempt+1, err)
			continue
		}

		switch kind := Classify(resp.StatusCode, "", string(resp.Body)); kind {
		case KindEscalateProxy:
			// 地理封锁：本路径没救了，立即切换
			return nil, errors.Errorf("路径 %s 收到 HTML 错误页（疑似地理封锁），状态码 %d", route.Name, resp.StatusCode)
		case KindRetryableNetwork:
			lastErr = errors.Errorf("路径 %s 瞬时错误: HTTP %d", route.Name, resp.StatusCode)
			log.Debugf("[链路] %s 第 %d 次尝试 HTTP %d，退避重试", route.Name, attempt+1, resp.StatusCode)
			continue
		default:
			// 成功 / 认证错误 / 业务拒绝：结构化响应，交还上层分类
			return resp, nil
		}
	}
	return nil, lastErr
}

// send 执行单次网络尝试（认证头在这里按需重新生成）
func (c *Chain) send(ctx context.Context, idx int, req *Request) (*Response, error) {
	route := c.routes[idx]
	requestPath := req.requestPath()

	// 每次尝试重新签名：时间戳必须新鲜
	var headers map[string]string
	if req.Sign != nil {
		headers = req.Sign(req.Method, requestPath, req.Body)
	}

	r := c.clients[idx].R().SetContext(ctx)
	if len(headers) > 0 {
		r.SetHeaders(headers)
	}
	if req.Body != "" {
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(req.Body)
	}

	var targetURL string
	switch route.Kind {
	case RouteKindWrapProxy:
		// 包装代理：目标 URL 和原始头作为代理自己的参数。
		// headers 参数 JSON 编码 + keep_headers，缺一个认证头就会在途中丢失。
		target := c.directBase(route) + requestPath
		r.SetQueryParam("api_key", route.APIKey)
		r.SetQueryParam("url", target)
		r.SetQueryParam("keep_headers", "true")
		if len(headers) > 0 {
			hj, err := json.Marshal(headers)
			if err != nil {
				return nil, errors.Wrap(err, "序列化代理 headers 参数失败")
			}
			r.SetQueryParam("headers", string(hj))
		}
		targetURL = route.BaseURL
	default:
		base := route.BaseURL
		if base == "" {
			base = c.targetBase
		}
		targetURL = base + requestPath
	}

	resp, err := r.Execute(req.Method, targetURL)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}

// directBase 代理包装的真实目标主机
func (c *Chain) directBase(route Route) string {
	if c.targetBase != "" {
		return c.targetBase
	}
	return route.BaseURL
}

// backoff 第 n 次重试的退避时长（指数，封顶）
func (c *Chain) backoff(attempt int) time.Duration {
	d := c.backoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.backoffMax {
			return c.backoffMax
		}
	}
	if d > c.backoffMax {
		return c.backoffMax
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DescribeRoutes 打印本链路的路径配置
func (c *Chain) DescribeRoutes() string {
	return DescribeRoutes(c.routes)
}

// DescribeRoutes 打印链路配置（凭证只输出截断前缀）
func DescribeRoutes(routes []Route) string {
	out := ""
	for i, r := range routes {
		if i > 0 {
			out += " -> "
		}
		if r.APIKey != "" {
			out += fmt.Sprintf("%s(%s, key=%s)", r.Name, r.Kind, logger.TruncateSecret(r.APIKey))
		} else {
			out += fmt.Sprintf("%s(%s)", r.Name, r.Kind)
		}
	}
	return out
}
