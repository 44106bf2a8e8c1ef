package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/betbot/goperp/okx/types"
)

// Instruments 查询合约元数据（公共端点，无需签名）
func (c *Client) Instruments(ctx context.Context, instType, instID string) ([]types.InstrumentData, error) {
	q := url.Values{}
	q.Set("instType", instType)
	if instID != "" {
		q.Set("instId", instID)
	}
	env, _, err := c.do(ctx, http.MethodGet, EndpointInstruments, q, nil, false, "public")
	if err != nil {
		return nil, err
	}
	return decodeData[types.InstrumentData](env)
}

// Ticker 查询最新行情
func (c *Client) Ticker(ctx context.Context, instID string) (*types.TickerData, error) {
	q := url.Values{}
	q.Set("instId", instID)
	env, _, err := c.do(ctx, http.MethodGet, EndpointTicker, q, nil, false, "public")
	if err != nil {
		return nil, err
	}
	items, err := decodeData[types.TickerData](env)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Errorf("行情为空: %s", instID)
	}
	return &items[0], nil
}

// MarkPrice 查询标记价格
func (c *Client) MarkPrice(ctx context.Context, instID string) (*types.MarkPriceData, error) {
	q := url.Values{}
	q.Set("instType", types.InstTypeSwap)
	q.Set("instId", instID)
	env, _, err := c.do(ctx, http.MethodGet, EndpointMarkPrice, q, nil, false, "public")
	if err != nil {
		return nil, err
	}
	items, err := decodeData[types.MarkPriceData](env)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Errorf("标记价格为空: %s", instID)
	}
	return &items[0], nil
}
