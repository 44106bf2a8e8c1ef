package execution

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/betbot/goperp/internal/domain"
)

// OrderRequest 已完成单位换算、还未做字段映射的下单请求。
// Contracts 一律是交易所张数，币数量在进入这里之前就被换算掉了。
type OrderRequest struct {
	Symbol        string
	Side          domain.Side
	MarginMode    domain.MarginMode
	OrderType     domain.OrderType
	Contracts     decimal.Decimal
	Price         float64 // 限价单价格
	ReduceOnly    bool
	ClientOrderID string
}

// AlgoRequest 条件单（止盈/止损）请求
type AlgoRequest struct {
	Symbol        string
	Side          domain.Side
	MarginMode    domain.MarginMode
	Contracts     decimal.Decimal
	TakeProfit    *domain.TriggerSpec
	StopLoss      *domain.TriggerSpec
	ReduceOnly    bool
	ClientOrderID string
}

// Exchange 交易所适配器：签名方案 + 字段映射 + 符号格式都藏在实现里。
// 历史上纸交易、第一家、第二家交易所各写了一份执行模块，
// 这里收敛成一个接口，执行服务只写一份。
type Exchange interface {
	Name() string
	// FormatSymbol 把标的（"BTC"）映射为交易所合约 ID（"BTC-USDT-SWAP"）
	FormatSymbol(symbol string) string

	// FetchInstrument 拉取合约规格（公共元数据端点，不缓存，由上层缓存）
	FetchInstrument(ctx context.Context, symbol string) (*domain.InstrumentSpec, error)
	// ReferencePrice 当前参考价（上游没给参考价时使用）
	ReferencePrice(ctx context.Context, symbol string) (float64, error)

	Balance(ctx context.Context, ccy string) (*domain.Balance, error)
	Positions(ctx context.Context) ([]domain.Position, error)
	PendingOrders(ctx context.Context, symbol string) ([]domain.PendingOrder, error)
	AccountConfig(ctx context.Context) (*domain.AccountConfig, error)

	Leverage(ctx context.Context, symbol string, mode domain.MarginMode) (int, error)
	SetLeverage(ctx context.Context, symbol string, mode domain.MarginMode, leverage int) error
	// MaxOrderSize / MaxAvailSize 返回买/卖两个方向的上限（张）
	MaxOrderSize(ctx context.Context, symbol string, mode domain.MarginMode) (buy, sell float64, err error)
	MaxAvailSize(ctx context.Context, symbol string, mode domain.MarginMode) (buy, sell float64, err error)
	FeeRates(ctx context.Context) (*domain.FeeSchedule, error)

	PlaceOrder(ctx context.Context, req *OrderRequest) (*domain.OrderResult, error)
	PlaceBatch(ctx context.Context, reqs []*OrderRequest) ([]*domain.OrderResult, error)
	PlaceAlgo(ctx context.Context, req *AlgoRequest) (*domain.OrderResult, error)
	CancelOrder(ctx context.Context, symbol, orderID, clientOrderID string) error
	// BatchLimit 单次批量下单上限
	BatchLimit() int
}
