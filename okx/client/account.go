package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/betbot/goperp/okx/types"
)

// Balance 查询账户余额（ccy 为空查全部）
func (c *Client) Balance(ctx context.Context, ccy string) (*types.BalanceData, error) {
	q := url.Values{}
	if ccy != "" {
		q.Set("ccy", ccy)
	}
	env, _, err := c.do(ctx, http.MethodGet, EndpointBalance, q, nil, true, "account")
	if err != nil {
		return nil, err
	}
	items, err := decodeData[types.BalanceData](env)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New("余额响应为空")
	}
	return &items[0], nil
}

// Positions 查询全部持仓
func (c *Client) Positions(ctx context.Context) ([]types.PositionData, error) {
	q := url.Values{}
	q.Set("instType", types.InstTypeSwap)
	env, _, err := c.do(ctx, http.MethodGet, EndpointPositions, q, nil, true, "account")
	if err != nil {
		return nil, err
	}
	return decodeData[types.PositionData](env)
}

// AccountConfig 查询账户配置（仓位模式等）
func (c *Client) AccountConfig(ctx context.Context) (*types.AccountConfigData, error) {
	env, _, err := c.do(ctx, http.MethodGet, EndpointConfig, nil, nil, true, "account")
	if err != nil {
		return nil, err
	}
	items, err := decodeData[types.AccountConfigData](env)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New("账户配置响应为空")
	}
	return &items[0], nil
}

// LeverageInfo 查询当前杠杆
func (c *Client) LeverageInfo(ctx context.Context, instID, mgnMode string) (int, error) {
	q := url.Values{}
	q.Set("instId", instID)
	q.Set("mgnMode", mgnMode)
	env, _, err := c.do(ctx, http.MethodGet, EndpointLeverageInfo, q, nil, true, "account")
	if err != nil {
		return 0, err
	}
	items, err := decodeData[types.LeverageData](env)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, errors.Errorf("杠杆信息为空: %s", instID)
	}
	lever, err := strconv.Atoi(items[0].Lever)
	if err != nil {
		return 0, errors.Wrapf(err, "解析杠杆值失败: %q", items[0].Lever)
	}
	return lever, nil
}

// SetLeverage 设置杠杆
func (c *Client) SetLeverage(ctx context.Context, req *types.SetLeverageRequest) error {
	_, _, err := c.do(ctx, http.MethodPost, EndpointSetLeverage, nil, req, true, "account")
	return err
}

// MaxSize 查询最大可开仓张数
func (c *Client) MaxSize(ctx context.Context, instID, tdMode string) (*types.MaxSizeData, error) {
	q := url.Values{}
	q.Set("instId", instID)
	q.Set("tdMode", tdMode)
	env, _, err := c.do(ctx, http.MethodGet, EndpointMaxSize, q, nil, true, "account")
	if err != nil {
		return nil, err
	}
	items, err := decodeData[types.MaxSizeData](env)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Errorf("最大可开仓响应为空: %s", instID)
	}
	return &items[0], nil
}

// MaxAvailSize 查询最大可用张数
func (c *Client) MaxAvailSize(ctx context.Context, instID, tdMode string) (*types.MaxAvailSizeData, error) {
	q := url.Values{}
	q.Set("instId", instID)
	q.Set("tdMode", tdMode)
	env, _, err := c.do(ctx, http.MethodGet, EndpointMaxAvailSize, q, nil, true, "account")
	if err != nil {
		return nil, err
	}
	items, err := decodeData[types.MaxAvailSizeData](env)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Errorf("最大可用响应为空: %s", instID)
	}
	return &items[0], nil
}

// TradeFee 查询当前费率
func (c *Client) TradeFee(ctx context.Context, instType string) (*types.FeeRateData, error) {
	q := url.Values{}
	q.Set("instType", instType)
	env, _, err := c.do(ctx, http.MethodGet, EndpointTradeFee, q, nil, true, "account")
	if err != nil {
		return nil, err
	}
	items, err := decodeData[types.FeeRateData](env)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New("费率响应为空")
	}
	return &items[0], nil
}
