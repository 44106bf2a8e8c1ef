package domain

// Position 持仓快照。交易所是唯一事实来源，本地不维护可变持仓状态。
type Position struct {
	Symbol        string
	InstID        string
	Side          string // long / short / net
	QuantityCoins float64
	Contracts     float64
	Leverage      int
	MarginMode    MarginMode
	AveragePrice  float64
	UnrealizedPnl float64
	LiqPrice      float64
}

// Balance 单币种余额
type Balance struct {
	Currency  string
	Equity    float64
	Available float64
	Frozen    float64
	Upl       float64
}

// PendingOrder 挂单快照（交易所字段归一化后的形态）
type PendingOrder struct {
	Symbol        string
	InstID        string
	OrderID       string
	ClientOrderID string
	Side          Side
	OrderType     string
	Price         float64
	Size          float64
	FilledSize    float64
	State         string
	CreatedAtMs   int64
}

// AccountConfig 账户配置（仓位模式等，决定 posSide 的填法）
type AccountConfig struct {
	AccountLevel string
	PositionMode string // long_short_mode / net_mode
}

// FeeSchedule maker/taker 费率表（1h 缓存，每次下单前查询）
type FeeSchedule struct {
	Maker float64 // 负数表示支付
	Taker float64
}

// EstimateFee 估算一笔成交的手续费（USD），taker 口径
func (f *FeeSchedule) EstimateFee(notionalUSD float64) float64 {
	if f == nil {
		return 0
	}
	rate := f.Taker
	if rate < 0 {
		rate = -rate
	}
	return notionalUSD * rate
}
