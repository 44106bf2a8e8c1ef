package client

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/goperp/internal/domain"
	"github.com/betbot/goperp/okx/signing"
	"github.com/betbot/goperp/okx/transport"
	"github.com/betbot/goperp/okx/types"
	"github.com/betbot/goperp/pkg/logger"
	"github.com/betbot/goperp/pkg/ratelimit"
)

var log = logrus.WithField("component", "okx_client")

// Client 交易所 REST 客户端。
// 所有请求经过回退链发送；带签名的请求在每次网络尝试前重新生成认证头。
type Client struct {
	creds   signing.Credentials
	chain   *transport.Chain
	limiter *ratelimit.Manager
}

// New 创建客户端
func New(creds signing.Credentials, chain *transport.Chain, limiter *ratelimit.Manager) *Client {
	if limiter == nil {
		limiter = ratelimit.NewManager()
	}
	log.Infof("🔑 [客户端] APIKey=%s passphrase=%s simulated=%v",
		logger.TruncateSecret(creds.APIKey), logger.TruncateSecret(creds.Passphrase), creds.Simulated)
	return &Client{creds: creds, chain: chain, limiter: limiter}
}

// do 执行一次请求：限流 → 回退链 → 信封解析 → 错误分类。
// signed 为 false 时走公共端点（不生成认证头）。
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, signed bool, group string) (*types.APIResponse, []byte, error) {
	if err := c.limiter.Wait(ctx, group); err != nil {
		return nil, nil, err
	}

	var rawBody string
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, errors.Wrap(err, "序列化请求体失败")
		}
		rawBody = string(b)
	}

	req := &transport.Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   rawBody,
	}
	if signed {
		creds := c.creds
		req.Sign = func(method, requestPath, body string) map[string]string {
			return signing.Headers(creds, signing.TimestampMillis(time.Now()), method, requestPath, body)
		}
	}

	resp, err := c.chain.Do(ctx, req)
	if err != nil {
		return nil, nil, &domain.ExecError{
			Kind:    domain.ErrKindTransport,
			Message: err.Error(),
		}
	}

	var env types.APIResponse
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, resp.Body, &domain.ExecError{
			Kind:    domain.ErrKindTransport,
			Message: "响应不是合法 JSON: " + err.Error(),
		}
	}

	switch kind := transport.Classify(resp.StatusCode, env.Code, env.Msg); kind {
	case transport.KindSuccess:
		return &env, resp.Body, nil
	case transport.KindAuthFatal:
		return &env, resp.Body, &domain.ExecError{
			Kind:    domain.ErrKindAuthFatal,
			Code:    env.Code,
			Message: env.Msg,
			Hint:    RemediationFor(env.Code),
		}
	default:
		// 业务拒绝（批量部分成功由调用方基于 data 里的 sCode 细分）
		return &env, resp.Body, &domain.ExecError{
			Kind:    domain.ErrKindBusiness,
			Code:    env.Code,
			Message: env.Msg,
			Hint:    RemediationFor(env.Code),
		}
	}
}

// decodeData 把信封里的 data 条目解码为具体类型
func decodeData[T any](env *types.APIResponse) ([]T, error) {
	out := make([]T, 0, len(env.Data))
	for _, raw := range env.Data {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, errors.Wrap(err, "解析 data 条目失败")
		}
		out = append(out, item)
	}
	return out, nil
}
