package domain

// Side 交易方向
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// MarginMode 保证金模式：isolated 逐仓 / cross 全仓
type MarginMode string

const (
	MarginModeCross    MarginMode = "cross"
	MarginModeIsolated MarginMode = "isolated"
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeMarket      OrderType = "market"
	OrderTypeLimit       OrderType = "limit"
	OrderTypeConditional OrderType = "conditional"
)

// TriggerSpec 条件单触发参数（止盈/止损）。
// 触发价被穿越后由交易所自动执行；OrderPrice 为 0 表示触发后按市价成交。
type TriggerSpec struct {
	TriggerPrice float64
	OrderPrice   float64
}

// TradeIntent 抽象交易意图：上游决策层的输出。
// 不可变，每次执行尝试消费一次；绝不以原始形态跨越传输边界 ——
// 必须先经过合约换算、字段映射和签名。
type TradeIntent struct {
	Symbol        string // 标的，如 "BTC"
	Side          Side
	NotionalUSD   float64 // 以 USD 计的名义规模（与 QuantityCoins 二选一）
	QuantityCoins float64 // 以币计的数量（优先于 NotionalUSD）
	// ReferencePrice 上游传入的参考价，用于本地合理性校验与名义额换算；
	// 为 0 时由执行层自行取行情价。
	ReferencePrice float64
	Leverage       int
	MarginMode     MarginMode
	ReduceOnly     bool
	OrderType      OrderType
	LimitPrice     float64 // 限价单价格
	TakeProfit     *TriggerSpec
	StopLoss       *TriggerSpec
	ClientOrderID  string // 为空时自动生成
}

// Quantity 返回以币计的目标数量（用参考价把 USD 名义额换算成币）
func (t *TradeIntent) Quantity(price float64) float64 {
	if t.QuantityCoins > 0 {
		return t.QuantityCoins
	}
	if price <= 0 {
		return 0
	}
	return t.NotionalUSD / price
}
