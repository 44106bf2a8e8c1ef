package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/betbot/goperp/internal/domain"
	"github.com/betbot/goperp/okx/types"
)

// PlaceOrder 单笔下单。
// 信封成功但 sCode 非零时按业务拒绝处理（带该单自己的 code/msg）。
func (c *Client) PlaceOrder(ctx context.Context, req *types.PlaceOrderRequest) (*types.PlaceOrderData, []byte, error) {
	env, raw, err := c.do(ctx, http.MethodPost, EndpointPlaceOrder, nil, req, true, "trade")
	if err != nil {
		// 信封整体失败时 data 里往往还带着单条的 sCode/sMsg，优先用它
		if env != nil && len(env.Data) > 0 {
			if items, derr := decodeData[types.PlaceOrderData](env); derr == nil && len(items) > 0 && items[0].SCode != "" && items[0].SCode != "0" {
				return &items[0], raw, &domain.ExecError{
					Kind:    domain.KindOf(err),
					Code:    items[0].SCode,
					Message: items[0].SMsg,
					Hint:    RemediationFor(items[0].SCode),
				}
			}
		}
		return nil, raw, err
	}
	items, err := decodeData[types.PlaceOrderData](env)
	if err != nil {
		return nil, raw, err
	}
	if len(items) == 0 {
		return nil, raw, errors.New("下单响应为空")
	}
	item := &items[0]
	if item.SCode != "" && item.SCode != "0" {
		return item, raw, &domain.ExecError{
			Kind:    domain.ErrKindBusiness,
			Code:    item.SCode,
			Message: item.SMsg,
			Hint:    RemediationFor(item.SCode),
		}
	}
	return item, raw, nil
}

// PlaceBatchOrders 批量下单（单次上限 MaxBatchOrders）。
// 部分成功是常态：每条结果各自带 sCode，由调用方逐条上报，不做整体成败。
func (c *Client) PlaceBatchOrders(ctx context.Context, reqs []*types.PlaceOrderRequest) ([]types.PlaceOrderData, []byte, error) {
	if len(reqs) == 0 {
		return nil, nil, errors.New("批量下单列表为空")
	}
	if len(reqs) > MaxBatchOrders {
		return nil, nil, errors.Errorf("批量下单超过上限 %d（收到 %d）", MaxBatchOrders, len(reqs))
	}

	env, raw, err := c.do(ctx, http.MethodPost, EndpointBatchOrders, nil, reqs, true, "trade")
	if err != nil {
		// 认证/传输失败：没有逐条结果可言
		if kind := domain.KindOf(err); kind == domain.ErrKindAuthFatal || kind == domain.ErrKindTransport {
			return nil, raw, err
		}
		// 业务层面的整体失败（如全部被拒）：data 里仍有逐条 sCode
		if env == nil {
			return nil, raw, err
		}
	}
	if env == nil {
		return nil, raw, err
	}
	items, derr := decodeData[types.PlaceOrderData](env)
	if derr != nil {
		return nil, raw, derr
	}
	return items, raw, nil
}

// CancelOrder 撤单（ordId / clOrdId 二选一）
func (c *Client) CancelOrder(ctx context.Context, req *types.CancelOrderRequest) error {
	env, _, err := c.do(ctx, http.MethodPost, EndpointCancelOrder, nil, req, true, "trade")
	if err != nil {
		if env != nil && len(env.Data) > 0 {
			if items, derr := decodeData[types.CancelOrderData](env); derr == nil && len(items) > 0 && items[0].SCode != "" && items[0].SCode != "0" {
				return &domain.ExecError{
					Kind:    domain.ErrKindBusiness,
					Code:    items[0].SCode,
					Message: items[0].SMsg,
					Hint:    RemediationFor(items[0].SCode),
				}
			}
		}
		return err
	}
	return nil
}

// PendingOrders 查询挂单（instID 为空查全部）
func (c *Client) PendingOrders(ctx context.Context, instID string) ([]types.OrderDetailData, error) {
	q := url.Values{}
	q.Set("instType", types.InstTypeSwap)
	if instID != "" {
		q.Set("instId", instID)
	}
	env, _, err := c.do(ctx, http.MethodGet, EndpointOrdersPending, q, nil, true, "trade")
	if err != nil {
		return nil, err
	}
	return decodeData[types.OrderDetailData](env)
}

// PlaceAlgoOrder 下条件单（止盈/止损，由交易所持有、触发后自动执行）
func (c *Client) PlaceAlgoOrder(ctx context.Context, req *types.AlgoOrderRequest) (*types.AlgoOrderData, []byte, error) {
	env, raw, err := c.do(ctx, http.MethodPost, EndpointPlaceAlgo, nil, req, true, "trade")
	if err != nil {
		if env != nil && len(env.Data) > 0 {
			if items, derr := decodeData[types.AlgoOrderData](env); derr == nil && len(items) > 0 && items[0].SCode != "" && items[0].SCode != "0" {
				return &items[0], raw, &domain.ExecError{
					Kind:    domain.KindOf(err),
					Code:    items[0].SCode,
					Message: items[0].SMsg,
					Hint:    RemediationFor(items[0].SCode),
				}
			}
		}
		return nil, raw, err
	}
	items, err := decodeData[types.AlgoOrderData](env)
	if err != nil {
		return nil, raw, err
	}
	if len(items) == 0 {
		return nil, raw, errors.New("条件单响应为空")
	}
	item := &items[0]
	if item.SCode != "" && item.SCode != "0" {
		return item, raw, &domain.ExecError{
			Kind:    domain.ErrKindBusiness,
			Code:    item.SCode,
			Message: item.SMsg,
			Hint:    RemediationFor(item.SCode),
		}
	}
	return item, raw, nil
}
